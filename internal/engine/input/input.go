// Package input polls SDL2 events. Left-button presses feed the gesture
// detector; keys, right-drag and the wheel are reported as events.
package input

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/arplace/internal/engine/gesture"
)

// EventType identifies a non-gesture input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventOrbit
	EventZoom
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Keycode
	Width  int
	Height int
	// DX, DY carry the right-drag delta in pixels for EventOrbit.
	DX, DY float32
	// Wheel is the scroll amount for EventZoom, positive away from the user.
	Wheel float32
}

// Input handles all input processing.
type Input struct {
	detector *gesture.Detector
	events   []Event

	orbiting     bool
	lastX, lastY int32
}

// New creates an input handler feeding taps and drags to detector.
func New(detector *gesture.Detector) *Input {
	return &Input{
		detector: detector,
		events:   make([]Event, 0, 16),
	}
}

// Update polls SDL events and returns true if the user asked to quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	now := time.Now()
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Sym})
			}

		case *sdl.MouseMotionEvent:
			p := gesture.Point{X: float32(e.X), Y: float32(e.Y)}
			i.detector.Motion(p, now)
			if i.orbiting {
				i.events = append(i.events, Event{
					Type: EventOrbit,
					DX:   float32(e.X - i.lastX),
					DY:   float32(e.Y - i.lastY),
				})
				i.lastX, i.lastY = e.X, e.Y
			}

		case *sdl.MouseButtonEvent:
			p := gesture.Point{X: float32(e.X), Y: float32(e.Y)}
			switch {
			case e.Button == sdl.BUTTON_LEFT && e.Type == sdl.MOUSEBUTTONDOWN:
				i.detector.Press(p, now)
			case e.Button == sdl.BUTTON_LEFT && e.Type == sdl.MOUSEBUTTONUP:
				i.detector.Release(p, now)
			case e.Button == sdl.BUTTON_RIGHT:
				i.orbiting = e.Type == sdl.MOUSEBUTTONDOWN
				i.lastX, i.lastY = e.X, e.Y
			}

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{Type: EventZoom, Wheel: float32(e.Y)})
		}
	}

	i.detector.Tick(now)
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
