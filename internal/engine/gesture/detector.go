package gesture

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/logger"
)

const (
	// DefaultDoubleTapTimeout matches the usual platform double-tap window.
	DefaultDoubleTapTimeout = 300 * time.Millisecond
	// DefaultTapSlop is how far a press may travel and still count as a tap.
	DefaultTapSlop = 8
	// DefaultDoubleTapSlop is how far apart the two taps of a double tap may be.
	DefaultDoubleTapSlop = 40
)

// Detector recognizes gestures from press, motion and release events and
// offers them to a Queue. Callers supply timestamps, so it never reads the
// clock. It is not safe for concurrent use.
type Detector struct {
	DoubleTapTimeout time.Duration
	TapSlop          float32
	DoubleTapSlop    float32

	queue *Queue

	down     bool
	dragging bool
	downAt   Point

	pending   bool
	pendingAt Point
	pendingT  time.Time

	dropped int
}

// NewDetector creates a detector feeding q.
func NewDetector(q *Queue) *Detector {
	return &Detector{
		DoubleTapTimeout: DefaultDoubleTapTimeout,
		TapSlop:          DefaultTapSlop,
		DoubleTapSlop:    DefaultDoubleTapSlop,
		queue:            q,
	}
}

// Dropped returns how many gestures the queue rejected.
func (d *Detector) Dropped() int {
	return d.dropped
}

// Press starts a pointer press.
func (d *Detector) Press(p Point, now time.Time) {
	d.Tick(now)
	d.down = true
	d.dragging = false
	d.downAt = p
}

// Motion reports pointer movement. While pressed, leaving the tap slop
// turns the press into a drag and every further motion is a scroll.
func (d *Detector) Motion(p Point, now time.Time) {
	if !d.down {
		return
	}
	if !d.dragging && p.Distance(d.downAt) > d.TapSlop {
		d.dragging = true
	}
	if d.dragging {
		d.emit(Gesture{Type: Scroll, First: d.downAt, Second: p})
	}
}

// Release ends a press. A press that stayed within the slop is a tap: it
// completes a pending tap into a double tap, or becomes the pending tap.
func (d *Detector) Release(p Point, now time.Time) {
	if !d.down {
		return
	}
	d.down = false
	if d.dragging {
		d.dragging = false
		return
	}

	if d.pending && now.Sub(d.pendingT) <= d.DoubleTapTimeout && d.downAt.Distance(d.pendingAt) <= d.DoubleTapSlop {
		d.pending = false
		d.emit(Gesture{Type: DoubleTap, First: d.pendingAt, Second: d.downAt})
		return
	}
	d.flush()
	d.pending = true
	d.pendingAt = d.downAt
	d.pendingT = now
}

// Tick confirms a pending tap once the double-tap window has passed. Call
// it once per frame.
func (d *Detector) Tick(now time.Time) {
	if d.pending && now.Sub(d.pendingT) > d.DoubleTapTimeout {
		d.flush()
	}
}

func (d *Detector) flush() {
	if !d.pending {
		return
	}
	d.pending = false
	d.emit(Gesture{Type: SingleTapConfirmed, First: d.pendingAt, Second: d.pendingAt})
}

func (d *Detector) emit(g Gesture) {
	if d.queue.Offer(g) {
		return
	}
	d.dropped++
	logger.Debug("gesture dropped, queue full",
		zap.Stringer("type", g.Type),
		zap.Int("capacity", d.queue.Cap()))
}
