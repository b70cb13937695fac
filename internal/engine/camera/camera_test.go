package camera

import (
	"testing"

	"github.com/Faultbox/arplace/pkg/math"
)

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestPositionKeepsDistance(t *testing.T) {
	c := NewOrbitCamera(4)
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.RotationY = 0.7

	if d := c.Position().Distance(c.Center); !approx(d, 4) {
		t.Errorf("expected distance 4, got %v", d)
	}
}

func TestViewMatrixMapsCenterOntoAxis(t *testing.T) {
	c := NewOrbitCamera(5)
	c.RotationY = 1.2
	p := c.ViewMatrix().TransformPoint(c.Center.Array())
	if !approx(p[0], 0) || !approx(p[1], 0) || !approx(p[2], -5) {
		t.Errorf("center should be straight ahead at -distance, got %v", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(4)
	c.HandleDrag(0, 10000)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch should clamp to max, got %v", c.RotationX)
	}
	c.HandleDrag(0, -10000)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch should clamp to min, got %v", c.RotationX)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  func(*OrbitCamera) float32
	}{
		{"zoom in", 100, func(c *OrbitCamera) float32 { return c.MinDistance }},
		{"zoom out", -1000, func(c *OrbitCamera) float32 { return c.MaxDistance }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera(4)
			for i := 0; i < 100; i++ {
				c.HandleZoom(tt.delta)
			}
			if c.Distance != tt.want(c) {
				t.Errorf("got distance %v, want %v", c.Distance, tt.want(c))
			}
		})
	}
}

func TestHandleMovementFollowsYaw(t *testing.T) {
	c := NewOrbitCamera(5)
	c.HandleMovement(1, 0)
	// yaw 0 looks down -Z
	if c.Center.Z >= 0 || !approx(c.Center.X, 0) {
		t.Errorf("forward at yaw 0 should move toward -Z, got %+v", c.Center)
	}
}

func TestFitExtent(t *testing.T) {
	c := NewOrbitCamera(1)
	c.FitExtent(0.5, 4)
	if c.Center != (math.Vec3{Y: 0.5}) || !approx(c.Distance, 6) {
		t.Errorf("unexpected fit: center %+v distance %v", c.Center, c.Distance)
	}
}
