package interact

import (
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/scene"

	"gonum.org/v1/gonum/spatial/r2"
)

type fakeTimer struct {
	f       func()
	d       time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler records timers and fires them on demand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f, d: d}
	s.timers = append(s.timers, t)
	return t
}

// fire runs timer i regardless of whether it was stopped, as a timer that
// already started firing would.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.f()
}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	points := []model.Point{
		{X: 0, Y: 0, Name: model.Some("A")},
		{X: 10, Y: 0, Name: model.Some("B")},
		{X: 10, Y: 10, Name: model.Some("C")},
	}
	stop := func(x, y float64) model.Stop {
		return model.Stop{X: model.Some(x), Y: model.Some(y)}
	}
	routes := []model.Route{{Stops: []model.Stop{stop(0, 0), stop(10, 0)}}}
	return scene.Build(points, routes, scene.DefaultOptions(800, 600))
}

func TestMachine_HoverTransitions(t *testing.T) {
	sc := testScene(t)
	m := New(WithScheduler(&fakeScheduler{}))

	if st := m.State(); st.Hovering() || st.Selected() {
		t.Fatalf("new machine should be idle: %+v", st)
	}

	st, changed := m.PointerMove(sc, r2.Vec{X: 400, Y: 42})
	if !changed || st.HoveredRoute != 0 {
		t.Fatalf("expected hover on route 0, got %+v changed=%v", st, changed)
	}
	if _, changed := m.PointerMove(sc, r2.Vec{X: 401, Y: 43}); changed {
		t.Error("moving along the same route should not report a change")
	}
	st, changed = m.PointerMove(sc, r2.Vec{X: 400, Y: 300})
	if !changed || st.Hovering() {
		t.Errorf("leaving the route should return to idle, got %+v", st)
	}
}

func TestMachine_ClickSelectsAndExpires(t *testing.T) {
	sc := testScene(t)
	sched := &fakeScheduler{}
	var expired []State
	m := New(WithScheduler(sched), WithOnExpire(func(s State) { expired = append(expired, s) }))

	st := m.Click(sc, r2.Vec{X: 45, Y: 45})
	if !st.Selected() || st.Selection.Text != "A" || st.Selection.PointIndex != 0 {
		t.Fatalf("expected selection of A, got %+v", st.Selection)
	}
	if len(sched.timers) != 1 || sched.timers[0].d != DefaultSelectionTTL {
		t.Fatalf("expected one %v timer, got %d", DefaultSelectionTTL, len(sched.timers))
	}

	sched.fire(0)
	if m.State().Selected() {
		t.Error("selection should clear on expiry")
	}
	if len(expired) != 1 || expired[0].Selected() {
		t.Errorf("onExpire should fire once with a cleared state, got %+v", expired)
	}
}

func TestMachine_StaleTimerCannotClearNewerSelection(t *testing.T) {
	sc := testScene(t)
	sched := &fakeScheduler{}
	m := New(WithScheduler(sched))

	m.Click(sc, r2.Vec{X: 40, Y: 40})
	m.Click(sc, r2.Vec{X: 760, Y: 40})

	if !sched.timers[0].stopped {
		t.Error("first timer should be cancelled by the second click")
	}

	sched.fire(0)
	st := m.State()
	if !st.Selected() || st.Selection.Text != "B" {
		t.Fatalf("stale expiry cleared the newer selection: %+v", st.Selection)
	}

	sched.fire(1)
	if m.State().Selected() {
		t.Error("current timer should clear the selection")
	}
}

func TestMachine_MissClickClears(t *testing.T) {
	sc := testScene(t)
	sched := &fakeScheduler{}
	m := New(WithScheduler(sched))

	m.Click(sc, r2.Vec{X: 40, Y: 40})
	st := m.Click(sc, r2.Vec{X: 400, Y: 300})
	if st.Selected() {
		t.Error("click away from every point should clear the selection")
	}
	if !sched.timers[0].stopped {
		t.Error("clearing should cancel the pending timer")
	}
	if len(sched.timers) != 1 {
		t.Errorf("a miss must not arm a timer, got %d timers", len(sched.timers))
	}
}

func TestMachine_ResetCancels(t *testing.T) {
	sc := testScene(t)
	sched := &fakeScheduler{}
	called := false
	m := New(WithScheduler(sched), WithOnExpire(func(State) { called = true }))

	m.PointerMove(sc, r2.Vec{X: 400, Y: 40})
	m.Click(sc, r2.Vec{X: 40, Y: 40})
	m.Reset()

	st := m.State()
	if st.Hovering() || st.Selected() {
		t.Errorf("reset should return to idle, got %+v", st)
	}
	sched.fire(0)
	if called {
		t.Error("expiry after reset must be ignored")
	}
}

func TestMachine_StateIsACopy(t *testing.T) {
	sc := testScene(t)
	m := New(WithScheduler(&fakeScheduler{}))
	m.Click(sc, r2.Vec{X: 40, Y: 40})

	st := m.State()
	st.Selection.Text = "mutated"
	if m.State().Selection.Text != "A" {
		t.Error("State should return an independent copy")
	}
}

func TestMachine_WithTTL(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(WithScheduler(sched), WithTTL(time.Second))
	m.Click(testScene(t), r2.Vec{X: 40, Y: 40})
	if sched.timers[0].d != time.Second || m.TTL() != time.Second {
		t.Errorf("ttl = %v (timer %v), want 1s", m.TTL(), sched.timers[0].d)
	}
	if d := New().TTL(); d != DefaultSelectionTTL {
		t.Errorf("default ttl = %v", d)
	}
}
