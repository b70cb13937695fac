package placement

import "slices"

// List is the ordered set of live objects, oldest first, bounded by a cap.
type List struct {
	objects []*Object
	cap     int
}

// NewList creates a list holding at most capacity objects.
func NewList(capacity int) *List {
	if capacity < 1 {
		capacity = 1
	}
	return &List{objects: make([]*Object, 0, capacity), cap: capacity}
}

// Add appends o, first evicting the oldest objects while the list is at
// its cap. Evicted anchors are detached. It returns the evicted objects.
func (l *List) Add(o *Object) []*Object {
	var evicted []*Object
	for len(l.objects) >= l.cap {
		old := l.objects[0]
		l.objects = slices.Delete(l.objects, 0, 1)
		old.anchor.Detach()
		evicted = append(evicted, old)
	}
	l.objects = append(l.objects, o)
	return evicted
}

// Remove deletes o and detaches its anchor. It reports whether o was present.
func (l *List) Remove(o *Object) bool {
	i := slices.Index(l.objects, o)
	if i < 0 {
		return false
	}
	l.objects = slices.Delete(l.objects, i, i+1)
	o.anchor.Detach()
	return true
}

// PruneStopped drops objects whose anchors have stopped and returns them.
// Their anchors are already dead and are not detached again.
func (l *List) PruneStopped() []*Object {
	var pruned []*Object
	l.objects = slices.DeleteFunc(l.objects, func(o *Object) bool {
		if o.Stopped() {
			pruned = append(pruned, o)
			return true
		}
		return false
	})
	return pruned
}

// DetachAll detaches every anchor and empties the list.
func (l *List) DetachAll() int {
	n := len(l.objects)
	for _, o := range l.objects {
		o.anchor.Detach()
	}
	l.objects = l.objects[:0]
	return n
}

// Objects returns the live objects in placement order. The slice must not
// be modified.
func (l *List) Objects() []*Object {
	return l.objects
}

// Len returns the number of live objects.
func (l *List) Len() int {
	return len(l.objects)
}

// Cap returns the maximum number of live objects.
func (l *List) Cap() int {
	return l.cap
}

// Last returns the most recently placed object.
func (l *List) Last() (*Object, bool) {
	if len(l.objects) == 0 {
		return nil, false
	}
	return l.objects[len(l.objects)-1], true
}
