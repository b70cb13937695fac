// Package placement keeps the list of placed objects and the selection
// state, driven by gestures and UI triggers.
package placement

import (
	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/Faultbox/arplace/internal/engine/geometry"
	"github.com/Faultbox/arplace/internal/tracking"
	"github.com/Faultbox/arplace/pkg/math"
)

// Slider ranges for the scale and rotation controls.
const (
	SliderMax      = 100
	scalePerStep   = 1.0 / 50
	minScale       = 0.1
	degreesPerStep = 3.6
)

// Object is one placed instance. Its pose belongs to the tracking anchor.
type Object struct {
	id       uuid.UUID
	kind     geometry.Kind
	anchor   tracking.Anchor
	color    [4]uint8
	selected bool
	scale    float32
	rotation float32 // degrees about the anchor's up axis
}

func newObject(kind geometry.Kind, anchor tracking.Anchor, color [4]uint8) *Object {
	return &Object{
		id:     uuid.New(),
		kind:   kind,
		anchor: anchor,
		color:  color,
		scale:  1,
	}
}

// ID returns the object's id.
func (o *Object) ID() uuid.UUID { return o.id }

// Kind returns the object kind.
func (o *Object) Kind() geometry.Kind { return o.kind }

// Anchor returns the anchor owning the pose.
func (o *Object) Anchor() tracking.Anchor { return o.anchor }

// Color returns the display color, RGBA in [0,255].
func (o *Object) Color() [4]uint8 { return o.color }

// Selected reports whether the object is selected.
func (o *Object) Selected() bool { return o.selected }

// Scale returns the uniform scale factor.
func (o *Object) Scale() float32 { return o.scale }

// Rotation returns the rotation in degrees.
func (o *Object) Rotation() float32 { return o.rotation }

// Tracking reports whether the anchor is tracking.
func (o *Object) Tracking() bool {
	return o.anchor.TrackingState() == tracking.Tracking
}

// Stopped reports whether the anchor stopped for good.
func (o *Object) Stopped() bool {
	return o.anchor.TrackingState() == tracking.Stopped
}

// ModelMatrix is pose · rotateY · scale.
func (o *Object) ModelMatrix() math.Mat4 {
	return o.anchor.Pose().
		Mul(math.RotateY(math.Radians(o.rotation))).
		Mul(math.Scale(o.scale, o.scale, o.scale))
}

// SetScaleProgress maps a slider position in [0,100] to a scale factor.
func (o *Object) SetScaleProgress(progress int) {
	o.scale = math32.Max(float32(clampProgress(progress))*scalePerStep, minScale)
}

// ScaleProgress returns the slider position for the current scale.
func (o *Object) ScaleProgress() int {
	return int(math32.Round(o.scale / scalePerStep))
}

// SetRotationProgress maps a slider position in [0,100] to 0..360 degrees.
func (o *Object) SetRotationProgress(progress int) {
	o.rotation = float32(clampProgress(progress)) * degreesPerStep
}

// RotationProgress returns the slider position for the current rotation.
func (o *Object) RotationProgress() int {
	return int(math32.Round(o.rotation / degreesPerStep))
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > SliderMax {
		return SliderMax
	}
	return p
}
