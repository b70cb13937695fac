package placement

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/engine/geometry"
	"github.com/Faultbox/arplace/internal/engine/gesture"
	"github.com/Faultbox/arplace/internal/engine/scene"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/internal/tracking"
	"github.com/Faultbox/arplace/pkg/math"
)

// DefaultMaxObjects is the live-object cap.
const DefaultMaxObjects = 10

// ErrKindUnavailable is returned when selecting a kind that is unknown or
// failed to load.
var ErrKindUnavailable = errors.New("object kind unavailable")

// Event is a change made by the controller.
type Event int

const (
	EventPlaced Event = iota + 1
	EventEvicted
	EventSelected
	EventDeselected
	EventMoved
	EventDeleted
	EventPruned
)

func (e Event) String() string {
	switch e {
	case EventPlaced:
		return "placed"
	case EventEvicted:
		return "evicted"
	case EventSelected:
		return "selected"
	case EventDeselected:
		return "deselected"
	case EventMoved:
		return "moved"
	case EventDeleted:
		return "deleted"
	case EventPruned:
		return "pruned"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Renderer draws the objects and hit-tests taps against them.
type Renderer interface {
	DrawFrame(view, projection math.Mat4, lightIntensity float32, objects []scene.Object) scene.FrameStats
	HitTest(view, projection math.Mat4, obj scene.Object, x, y float32) bool
}

// Kinds resolves kind names.
type Kinds interface {
	Resolve(name string) (geometry.Kind, bool)
	Available(geometry.Kind) bool
}

// AnchorFactory creates anchors at world poses.
type AnchorFactory interface {
	CreateAnchor(pose math.Mat4) (tracking.Anchor, error)
}

// Config contains controller options.
type Config struct {
	MaxObjects    int
	DefaultColor  [4]uint8
	SelectedColor [4]uint8
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		MaxObjects:    DefaultMaxObjects,
		DefaultColor:  [4]uint8{66, 244, 133, 255},
		SelectedColor: [4]uint8{66, 133, 244, 255},
	}
}

// Controller owns the placed objects and the selection. Gestures arrive
// through a queue from the input side; everything else runs on the render
// thread.
type Controller struct {
	config   Config
	queue    *gesture.Queue
	renderer Renderer
	kinds    Kinds
	anchors  AnchorFactory

	list     *List
	selected *Object
	kind     geometry.Kind
	hasKind  bool

	photoRequested bool
	listener       func(Event, *Object)
}

// NewController creates a controller with an empty list and no current kind.
func NewController(cfg Config, queue *gesture.Queue, renderer Renderer, kinds Kinds, anchors AnchorFactory) *Controller {
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = DefaultMaxObjects
	}
	return &Controller{
		config:   cfg,
		queue:    queue,
		renderer: renderer,
		kinds:    kinds,
		anchors:  anchors,
		list:     NewList(cfg.MaxObjects),
	}
}

// OnEvent registers fn to be called on the render thread after every change.
func (c *Controller) OnEvent(fn func(Event, *Object)) {
	c.listener = fn
}

func (c *Controller) emit(e Event, o *Object) {
	if c.listener != nil {
		c.listener(e, o)
	}
}

// HandleGesture processes at most one queued gesture against the frame.
func (c *Controller) HandleGesture(frame tracking.Frame) {
	g, ok := c.queue.Poll()
	if !ok {
		return
	}
	if state := frame.CameraState(); state != tracking.Tracking {
		logger.Warn("dropping gesture, camera not tracking",
			zap.Stringer("gesture", g.Type),
			zap.Stringer("camera", state))
		return
	}

	switch g.Type {
	case gesture.DoubleTap:
		c.selectAt(frame, g.First)
	case gesture.SingleTapConfirmed:
		// a tap both clears the selection and places at the tap point
		if c.selected != nil {
			c.deselect()
		}
		c.place(frame, g.First)
	case gesture.Scroll:
		if c.selected == nil {
			logger.Debug("scroll ignored, nothing selected")
			return
		}
		c.rehome(frame, g.Second)
	default:
		logger.Warn("unknown gesture", zap.Stringer("gesture", g.Type))
	}
}

func (c *Controller) selectAt(frame tracking.Frame, p gesture.Point) {
	c.deselect()
	view, proj := frame.View(), frame.Projection()
	for _, o := range c.list.Objects() {
		if !o.Tracking() {
			continue
		}
		if c.renderer.HitTest(view, proj, o, p.X, p.Y) {
			o.selected = true
			o.color = c.config.SelectedColor
			c.selected = o
			logger.Debug("object selected", zap.Stringer("id", o.id))
			c.emit(EventSelected, o)
			return
		}
	}
}

func (c *Controller) deselect() {
	if c.selected == nil {
		return
	}
	o := c.selected
	o.selected = false
	o.color = c.config.DefaultColor
	c.selected = nil
	c.emit(EventDeselected, o)
}

func (c *Controller) place(frame tracking.Frame, p gesture.Point) {
	if !c.hasKind {
		logger.Warn("tap ignored, no object kind selected")
		return
	}
	hit, ok := frame.HitTest(p.X, p.Y)
	if !ok {
		logger.Debug("tap missed every surface", zap.Float32("x", p.X), zap.Float32("y", p.Y))
		return
	}
	anchor, err := c.anchors.CreateAnchor(hit.Pose)
	if err != nil {
		logger.Warn("failed to create anchor", zap.Error(err))
		return
	}

	o := newObject(c.kind, anchor, c.config.DefaultColor)
	for _, old := range c.list.Add(o) {
		logger.Debug("evicted oldest object", zap.Stringer("id", old.id))
		c.emit(EventEvicted, old)
	}
	pos := hit.Pose.TransformPoint([3]float32{})
	logger.Debug("object placed",
		zap.Stringer("id", o.id),
		zap.Int("kind", int(o.kind)),
		zap.Float32s("position", pos[:]),
		zap.Float32("distance", hit.Distance),
		zap.Int("count", c.list.Len()))
	c.emit(EventPlaced, o)
}

func (c *Controller) rehome(frame tracking.Frame, p gesture.Point) {
	hit, ok := frame.HitTest(p.X, p.Y)
	if !ok {
		return
	}
	anchor, err := c.anchors.CreateAnchor(hit.Pose)
	if err != nil {
		logger.Warn("failed to re-home selection", zap.Error(err))
		return
	}
	old := c.selected.anchor
	c.selected.anchor = anchor
	old.Detach()
	c.emit(EventMoved, c.selected)
}

// DrawAll prunes objects whose anchors stopped and draws the rest.
func (c *Controller) DrawAll(frame tracking.Frame) scene.FrameStats {
	for _, o := range c.list.PruneStopped() {
		if o == c.selected {
			c.selected = nil
		}
		logger.Debug("pruned object with stopped anchor", zap.Stringer("id", o.id))
		c.emit(EventPruned, o)
	}

	light, ok := frame.LightEstimate()
	if !ok {
		light = 1
	}

	objects := make([]scene.Object, 0, c.list.Len())
	for _, o := range c.list.Objects() {
		objects = append(objects, o)
	}
	return c.renderer.DrawFrame(frame.View(), frame.Projection(), light, objects)
}

// SetObjectKind sets the kind used by future placements.
func (c *Controller) SetObjectKind(name string) error {
	kind, ok := c.kinds.Resolve(name)
	if !ok || !c.kinds.Available(kind) {
		return fmt.Errorf("%w: %q", ErrKindUnavailable, name)
	}
	c.kind = kind
	c.hasKind = true
	return nil
}

// ObjectKind returns the current placement kind.
func (c *Controller) ObjectKind() (geometry.Kind, bool) {
	return c.kind, c.hasKind
}

// DeleteObject removes the selected object, or the most recent one when
// nothing is selected. It reports whether an object was removed.
func (c *Controller) DeleteObject() bool {
	target := c.selected
	if target == nil {
		last, ok := c.list.Last()
		if !ok {
			return false
		}
		target = last
	}
	if target == c.selected {
		c.selected = nil
	}
	if !c.list.Remove(target) {
		return false
	}
	c.emit(EventDeleted, target)
	return true
}

// AdjustScale applies a scale slider position to the selection.
func (c *Controller) AdjustScale(progress int) {
	if c.selected != nil {
		c.selected.SetScaleProgress(progress)
	}
}

// AdjustRotation applies a rotation slider position to the selection.
func (c *Controller) AdjustRotation(progress int) {
	if c.selected != nil {
		c.selected.SetRotationProgress(progress)
	}
}

// TakePhoto requests a capture of the next drawn frame.
func (c *Controller) TakePhoto() {
	c.photoRequested = true
}

// PhotoRequested reports and clears a pending photo request.
func (c *Controller) PhotoRequested() bool {
	r := c.photoRequested
	c.photoRequested = false
	return r
}

// Selected returns the selected object.
func (c *Controller) Selected() (*Object, bool) {
	return c.selected, c.selected != nil
}

// Objects returns the live objects in placement order.
func (c *Controller) Objects() []*Object {
	return c.list.Objects()
}

// Release detaches every anchor and clears the selection.
func (c *Controller) Release() {
	c.selected = nil
	n := c.list.DetachAll()
	logger.Debug("placement released", zap.Int("anchors", n))
}
