package gesture

import (
	"sync"
	"testing"
	"time"
)

func TestQueueCapacityAndOrder(t *testing.T) {
	q := NewQueue(2)
	a := Gesture{Type: SingleTapConfirmed, First: Point{1, 1}}
	b := Gesture{Type: DoubleTap, First: Point{2, 2}}
	c := Gesture{Type: Scroll, First: Point{3, 3}}

	if !q.Offer(a) || !q.Offer(b) {
		t.Fatal("first two offers should be accepted")
	}
	if q.Offer(c) {
		t.Error("offer beyond capacity should be rejected")
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}

	for _, want := range []Gesture{a, b} {
		got, ok := q.Poll()
		if !ok || got != want {
			t.Errorf("Poll = %+v, %v; want %+v", got, ok, want)
		}
	}
	if _, ok := q.Poll(); ok {
		t.Error("Poll on empty queue should report nothing")
	}
}

func TestQueueMinimumCapacity(t *testing.T) {
	if q := NewQueue(0); q.Cap() != 1 {
		t.Errorf("expected capacity clamped to 1, got %d", q.Cap())
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue(2)
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if q.Offer(Gesture{Type: SingleTapConfirmed, First: Point{float32(i), float32(j)}}) {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	if accepted != 2 {
		t.Errorf("with no consumer exactly capacity offers succeed, got %d", accepted)
	}
	if q.Len() != 2 {
		t.Errorf("expected full queue, got %d", q.Len())
	}
}

func pollAll(q *Queue) []Gesture {
	var out []Gesture
	for {
		g, ok := q.Poll()
		if !ok {
			return out
		}
		out = append(out, g)
	}
}

func TestDetectorSingleTap(t *testing.T) {
	q := NewQueue(4)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{10, 10}, t0)
	d.Release(Point{11, 10}, t0.Add(50*time.Millisecond))

	d.Tick(t0.Add(200 * time.Millisecond))
	if q.Len() != 0 {
		t.Fatal("tap must not be confirmed inside the double-tap window")
	}

	d.Tick(t0.Add(400 * time.Millisecond))
	got := pollAll(q)
	if len(got) != 1 || got[0].Type != SingleTapConfirmed || got[0].First != (Point{10, 10}) {
		t.Errorf("expected one confirmed tap at the press point, got %+v", got)
	}
}

func TestDetectorDoubleTap(t *testing.T) {
	q := NewQueue(4)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{100, 100}, t0)
	d.Release(Point{100, 100}, t0.Add(40*time.Millisecond))
	d.Press(Point{104, 98}, t0.Add(150*time.Millisecond))
	d.Release(Point{104, 98}, t0.Add(190*time.Millisecond))
	d.Tick(t0.Add(time.Second))

	got := pollAll(q)
	if len(got) != 1 || got[0].Type != DoubleTap {
		t.Fatalf("expected a single double tap, got %+v", got)
	}
	if got[0].First != (Point{100, 100}) || got[0].Second != (Point{104, 98}) {
		t.Errorf("unexpected double tap points %+v", got[0])
	}
}

func TestDetectorSlowTapsAreTwoSingles(t *testing.T) {
	q := NewQueue(4)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{10, 10}, t0)
	d.Release(Point{10, 10}, t0)
	// no Tick in between: the second press still confirms the first tap
	d.Press(Point{10, 10}, t0.Add(500*time.Millisecond))
	d.Release(Point{10, 10}, t0.Add(520*time.Millisecond))
	d.Tick(t0.Add(time.Second))

	got := pollAll(q)
	if len(got) != 2 || got[0].Type != SingleTapConfirmed || got[1].Type != SingleTapConfirmed {
		t.Errorf("expected two confirmed taps, got %+v", got)
	}
}

func TestDetectorFarApartTapsAreNotDouble(t *testing.T) {
	q := NewQueue(4)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{10, 10}, t0)
	d.Release(Point{10, 10}, t0)
	d.Press(Point{300, 300}, t0.Add(100*time.Millisecond))
	d.Release(Point{300, 300}, t0.Add(120*time.Millisecond))
	d.Tick(t0.Add(time.Second))

	got := pollAll(q)
	if len(got) != 2 || got[0].First != (Point{10, 10}) || got[1].First != (Point{300, 300}) {
		t.Errorf("expected two taps in order, got %+v", got)
	}
}

func TestDetectorDragScrolls(t *testing.T) {
	q := NewQueue(8)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{50, 50}, t0)
	d.Motion(Point{53, 50}, t0) // inside slop
	d.Motion(Point{80, 60}, t0)
	d.Motion(Point{90, 70}, t0)
	d.Release(Point{90, 70}, t0)
	d.Tick(t0.Add(time.Second))

	got := pollAll(q)
	if len(got) != 2 {
		t.Fatalf("expected two scrolls and no tap, got %+v", got)
	}
	for _, g := range got {
		if g.Type != Scroll || g.First != (Point{50, 50}) {
			t.Errorf("unexpected gesture %+v", g)
		}
	}
	if got[1].Second != (Point{90, 70}) {
		t.Errorf("last scroll should end at the pointer, got %+v", got[1].Second)
	}
}

func TestDetectorCountsDrops(t *testing.T) {
	q := NewQueue(1)
	d := NewDetector(q)
	t0 := time.Unix(100, 0)

	d.Press(Point{0, 0}, t0)
	for i := 1; i <= 5; i++ {
		d.Motion(Point{float32(20 * i), 0}, t0)
	}
	if q.Len() != 1 || d.Dropped() != 4 {
		t.Errorf("expected 1 queued and 4 dropped, got %d and %d", q.Len(), d.Dropped())
	}
}

func TestMotionWithoutPressIgnored(t *testing.T) {
	q := NewQueue(2)
	d := NewDetector(q)
	d.Motion(Point{100, 100}, time.Unix(0, 0))
	d.Release(Point{100, 100}, time.Unix(0, 0))
	if q.Len() != 0 {
		t.Error("motion and release without a press must not produce gestures")
	}
}
