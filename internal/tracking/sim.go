package tracking

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/engine/camera"
	"github.com/Faultbox/arplace/internal/engine/picking"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/pkg/math"
)

// SimConfig parameterizes the simulated session.
type SimConfig struct {
	FOV            float32 // vertical, degrees
	Near, Far      float32
	PlaneY         float32
	PlaneExtent    float32 // half-size of the square trackable plane
	CameraDistance float32
	LightIntensity float32 // <= 0 reports an invalid estimate
}

// DefaultSimConfig returns a plane of 10×10 metres seen from 4 metres.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		FOV:            60,
		Near:           0.05,
		Far:            100,
		PlaneExtent:    5,
		CameraDistance: 4,
		LightIntensity: 1,
	}
}

// SimSession tracks a single horizontal plane seen through an orbit camera.
// It stands in for device tracking on a desktop. All methods must be called
// from the render thread.
type SimSession struct {
	cfg    SimConfig
	cam    *camera.OrbitCamera
	width  int
	height int

	anchors map[uuid.UUID]*simAnchor
	paused  bool
	closed  bool
}

// NewSimSession creates a simulated session.
func NewSimSession(cfg SimConfig) *SimSession {
	cam := camera.NewOrbitCamera(cfg.CameraDistance)
	cam.FitExtent(cfg.PlaneY, cfg.PlaneExtent)
	if cfg.CameraDistance > 0 {
		cam.Distance = cfg.CameraDistance
	}
	return &SimSession{
		cfg:     cfg,
		cam:     cam,
		width:   1,
		height:  1,
		anchors: make(map[uuid.UUID]*simAnchor),
	}
}

// Camera exposes the orbit camera for user control.
func (s *SimSession) Camera() *camera.OrbitCamera {
	return s.cam
}

// SetViewport sets the screen size used for projection and hit tests.
func (s *SimSession) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		s.width, s.height = width, height
	}
}

// SetPaused pauses or resumes tracking. While paused the camera and every
// anchor report Paused and no anchors can be created.
func (s *SimSession) SetPaused(paused bool) {
	if s.paused == paused {
		return
	}
	s.paused = paused
	state := Tracking
	if paused {
		state = Paused
	}
	for _, a := range s.anchors {
		a.state = state
	}
	logger.Info("tracking state changed", zap.Stringer("state", state))
}

// Paused reports whether tracking is paused.
func (s *SimSession) Paused() bool {
	return s.paused
}

// LoseTracking stops every live anchor, as when the device loses the plane.
// It returns how many anchors were stopped.
func (s *SimSession) LoseTracking() int {
	n := len(s.anchors)
	for id, a := range s.anchors {
		a.state = Stopped
		delete(s.anchors, id)
	}
	logger.Info("tracking lost", zap.Int("anchors_stopped", n))
	return n
}

// AnchorCount returns the number of live anchors.
func (s *SimSession) AnchorCount() int {
	return len(s.anchors)
}

// Update returns the current frame.
func (s *SimSession) Update() (Frame, error) {
	if s.closed {
		return nil, fmt.Errorf("update: %w: session closed", ErrFatal)
	}
	f := &SimFrame{
		view:       s.cam.ViewMatrix(),
		projection: s.projection(),
		eye:        s.cam.Position(),
		state:      Tracking,
		light:      s.cfg.LightIntensity,
		width:      float32(s.width),
		height:     float32(s.height),
		planeY:     s.cfg.PlaneY,
		extent:     s.cfg.PlaneExtent,
	}
	if s.paused {
		f.state = Paused
	}
	return f, nil
}

func (s *SimSession) projection() math.Mat4 {
	aspect := float32(s.width) / float32(s.height)
	return math.Perspective(math.Radians(s.cfg.FOV), aspect, s.cfg.Near, s.cfg.Far)
}

// CreateAnchor creates a tracking anchor at pose.
func (s *SimSession) CreateAnchor(pose math.Mat4) (Anchor, error) {
	switch {
	case s.closed:
		return nil, fmt.Errorf("create anchor: %w: session closed", ErrFatal)
	case s.paused:
		return nil, fmt.Errorf("create anchor: %w", ErrSessionPaused)
	}
	a := &simAnchor{id: uuid.New(), pose: pose, state: Tracking, session: s}
	s.anchors[a.id] = a
	return a, nil
}

// Close detaches every anchor. Later calls fail with ErrFatal.
func (s *SimSession) Close() error {
	if s.closed {
		return nil
	}
	for _, a := range s.anchors {
		a.Detach()
	}
	s.closed = true
	return nil
}

type simAnchor struct {
	id      uuid.UUID
	pose    math.Mat4
	state   State
	session *SimSession
}

func (a *simAnchor) ID() uuid.UUID        { return a.id }
func (a *simAnchor) Pose() math.Mat4      { return a.pose }
func (a *simAnchor) TrackingState() State { return a.state }

func (a *simAnchor) Detach() {
	if a.state == Stopped {
		return
	}
	a.state = Stopped
	delete(a.session.anchors, a.id)
}

// SimFrame is a snapshot of the simulated session.
type SimFrame struct {
	view, projection math.Mat4
	eye              math.Vec3
	state            State
	light            float32
	width, height    float32
	planeY, extent   float32
}

func (f *SimFrame) View() math.Mat4       { return f.view }
func (f *SimFrame) Projection() math.Mat4 { return f.projection }
func (f *SimFrame) CameraState() State    { return f.state }

func (f *SimFrame) LightEstimate() (float32, bool) {
	return f.light, f.light > 0
}

// HitTest casts a ray from the screen point and intersects the plane. Hits
// outside the plane's extent miss. Distance is measured from the camera.
func (f *SimFrame) HitTest(x, y float32) (Hit, bool) {
	inv := f.projection.Mul(f.view).Inverse()
	ray := picking.ScreenToRay(x, y, f.width, f.height, inv)
	t, ok := ray.IntersectPlaneY(f.planeY)
	if !ok {
		return Hit{}, false
	}
	p := ray.At(t)
	if math32.Abs(p[0]) > f.extent || math32.Abs(p[2]) > f.extent {
		return Hit{}, false
	}
	point := math.Vec3{X: p[0], Y: f.planeY, Z: p[2]}
	return Hit{Pose: math.Translate(point.X, point.Y, point.Z), Distance: f.eye.Distance(point)}, true
}
