// Package gesture turns pointer presses into tap, double-tap and scroll
// gestures and hands them to the render loop through a bounded queue.
package gesture

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Type is the kind of a recognized gesture.
type Type int

const (
	// SingleTapConfirmed is a tap that was not followed by a second tap
	// within the double-tap timeout.
	SingleTapConfirmed Type = iota + 1
	// DoubleTap is two taps in quick succession.
	DoubleTap
	// Scroll is a drag; First is where it started, Second is the current point.
	Scroll
)

func (t Type) String() string {
	switch t {
	case SingleTapConfirmed:
		return "single-tap"
	case DoubleTap:
		return "double-tap"
	case Scroll:
		return "scroll"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Point is a pointer position in window pixels.
type Point struct {
	X, Y float32
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(o Point) float32 {
	return math32.Hypot(p.X-o.X, p.Y-o.Y)
}

// Gesture is one recognized gesture.
type Gesture struct {
	Type   Type
	First  Point
	Second Point
}

// Queue is a bounded, non-blocking FIFO of gestures. It is safe for
// concurrent producers and a single consumer.
type Queue struct {
	ch chan Gesture
}

// NewQueue creates a queue holding at most capacity gestures.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Gesture, capacity)}
}

// Offer enqueues g unless the queue is full. It never blocks.
func (q *Queue) Offer(g Gesture) bool {
	select {
	case q.ch <- g:
		return true
	default:
		return false
	}
}

// Poll dequeues the oldest gesture, if any. It never blocks.
func (q *Queue) Poll() (Gesture, bool) {
	select {
	case g := <-q.ch:
		return g, true
	default:
		return Gesture{}, false
	}
}

// Len returns the number of queued gestures.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
