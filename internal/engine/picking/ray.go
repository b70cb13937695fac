// Package picking maps between screen pixels and world space: world rays cast
// from a tap and screen rectangles covered by projected boxes.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/arplace/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // normalized
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	nearWorld := perspectiveDivide(invViewProj.MulVec4(math.Vec4{ndcX, ndcY, -1.0, 1.0}))
	farWorld := perspectiveDivide(invViewProj.MulVec4(math.Vec4{ndcX, ndcY, 1.0, 1.0}))

	dir := math.Vec3{
		X: farWorld[0] - nearWorld[0],
		Y: farWorld[1] - nearWorld[1],
		Z: farWorld[2] - nearWorld[2],
	}.Normalize()

	return Ray{
		Origin:    [3]float32{nearWorld[0], nearWorld[1], nearWorld[2]},
		Direction: dir.Array(),
	}
}

func perspectiveDivide(v math.Vec4) math.Vec4 {
	if v[3] != 0 {
		v[0] /= v[3]
		v[1] /= v[3]
		v[2] /= v[3]
		v[3] = 1
	}
	return v
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) [3]float32 {
	return [3]float32{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// It returns the distance along the ray and false when the ray is parallel to
// the plane or the plane is behind the origin.
func (r Ray) IntersectPlaneY(planeY float32) (t float32, ok bool) {
	if math32.Abs(r.Direction[1]) < 0.001 {
		return 0, false
	}
	t = (planeY - r.Origin[1]) / r.Direction[1]
	if t < 0 {
		return 0, false
	}
	return t, true
}
