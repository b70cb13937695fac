package picking

import "github.com/Faultbox/arplace/pkg/math"

// ScreenRect is an axis-aligned rectangle in pixel coordinates, origin at the
// top-left of the viewport.
type ScreenRect struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// Contains reports whether (x, y) lies strictly inside the rectangle. Points
// on an edge are outside.
func (r ScreenRect) Contains(x, y float32) bool {
	return x > r.MinX && x < r.MaxX && y > r.MinY && y < r.MaxY
}

func (r *ScreenRect) extend(x, y float32) {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
}

// ProjectToScreen maps a local-space point through mvp to pixel coordinates.
// It returns false when the point is on or behind the camera plane (w <= 0).
func ProjectToScreen(mvp math.Mat4, p [3]float32, width, height float32) (x, y float32, ok bool) {
	clip := mvp.MulVec4(math.Vec4{p[0], p[1], p[2], 1})
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	x = (ndcX + 1) * 0.5 * width
	y = (1 - ndcY) * 0.5 * height
	return x, y, true
}

// ProjectCorners returns the screen rectangle enclosing the projected corners.
// The first corner seeds the rectangle and each later one grows it. It returns
// false if any corner is behind the camera.
func ProjectCorners(mvp math.Mat4, corners [8][3]float32, width, height float32) (ScreenRect, bool) {
	x, y, ok := ProjectToScreen(mvp, corners[0], width, height)
	if !ok {
		return ScreenRect{}, false
	}
	rect := ScreenRect{MinX: x, MinY: y, MaxX: x, MaxY: y}
	for _, c := range corners[1:] {
		x, y, ok = ProjectToScreen(mvp, c, width, height)
		if !ok {
			return ScreenRect{}, false
		}
		rect.extend(x, y)
	}
	return rect, true
}
