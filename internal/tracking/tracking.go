// Package tracking defines what the viewer consumes from a world-tracking
// subsystem: per-frame camera matrices and light, real-world hit tests and
// anchors whose poses the subsystem owns.
package tracking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/arplace/pkg/math"
)

// Session errors. Both are handled at the frame boundary: the frame is
// skipped and the next one is attempted normally.
var (
	ErrSessionPaused = errors.New("tracking session paused")
	ErrFatal         = errors.New("tracking subsystem failure")
)

// State is the tracking state of the camera or of an anchor.
type State int

const (
	Tracking State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Anchor binds a pose to a real-world point. Once stopped it never tracks
// again.
type Anchor interface {
	ID() uuid.UUID
	Pose() math.Mat4
	TrackingState() State
	// Detach stops the anchor and releases it. Detaching twice is a no-op.
	Detach()
}

// Hit is a real-world hit test result.
type Hit struct {
	Pose     math.Mat4
	Distance float32
}

// Frame is one tracking update. It is valid only until the next Update and
// must not be retained.
type Frame interface {
	View() math.Mat4
	Projection() math.Mat4
	CameraState() State
	// LightEstimate returns the ambient intensity and whether it is valid.
	LightEstimate() (float32, bool)
	// HitTest casts the screen point into the world and returns the nearest
	// trackable surface hit.
	HitTest(x, y float32) (Hit, bool)
}

// Session is a running tracking subsystem.
type Session interface {
	Update() (Frame, error)
	CreateAnchor(pose math.Mat4) (Anchor, error)
	SetViewport(width, height int)
	Close() error
}
