// Package interact owns the transient state of the visualization: which route
// the pointer hovers and which point was last clicked.
//
// Hover and selection are orthogonal. A selection expires after a fixed TTL;
// the expiry timer belongs to the Machine and is cancelled on every
// transition, and each arming carries a sequence number so a timer that
// fires late can never clear a newer selection.
package interact

import (
	"sync"
	"time"

	"github.com/vanderheijden86/tspview/pkg/debug"
	"github.com/vanderheijden86/tspview/pkg/scene"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultSelectionTTL is how long a selection tooltip stays up.
const DefaultSelectionTTL = 3500 * time.Millisecond

// Selection is a clicked point.
type Selection struct {
	Text       string
	Pos        r2.Vec
	PointIndex int
}

// State is a snapshot of the interaction. HoveredRoute is -1 when no route
// is hovered; Selection is nil when nothing is selected.
type State struct {
	HoveredRoute int
	Selection    *Selection
}

// Idle is the state with no hover and no selection.
func Idle() State { return State{HoveredRoute: -1} }

// Hovering reports whether a route is hovered.
func (s State) Hovering() bool { return s.HoveredRoute >= 0 }

// Selected reports whether a point is selected.
func (s State) Selected() bool { return s.Selection != nil }

func (s State) clone() State {
	if s.Selection != nil {
		sel := *s.Selection
		s.Selection = &sel
	}
	return s
}

// Timer is a pending expiry that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. *time.Timer satisfies Timer, so the real
// scheduler is a thin wrapper over time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Machine.
type Option func(*Machine)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		if s != nil {
			m.sched = s
		}
	}
}

// WithTTL sets the selection lifetime.
func WithTTL(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithOnExpire registers a callback invoked, outside the lock, after a
// selection expires. The UI uses it to post a repaint message.
func WithOnExpire(f func(State)) Option {
	return func(m *Machine) {
		m.onExpire = f
	}
}

// Machine is the interaction state machine. It is safe for concurrent use;
// the expiry callback runs on the scheduler's goroutine.
type Machine struct {
	mu       sync.Mutex
	state    State
	sched    Scheduler
	ttl      time.Duration
	timer    Timer
	seq      uint64
	onExpire func(State)
}

// New returns an idle Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		state: Idle(),
		sched: wallClock{},
		ttl:   DefaultSelectionTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// TTL returns the selection lifetime.
func (m *Machine) TTL() time.Duration { return m.ttl }

// PointerMove updates the hovered route for pointer p. It reports whether the
// hovered route changed.
func (m *Machine) PointerMove(sc *scene.Scene, p r2.Vec) (State, bool) {
	idx := sc.RouteAt(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	changed := idx != m.state.HoveredRoute
	if changed {
		debug.LogIf(idx >= 0, "interact: hover route %d", idx)
		debug.LogIf(idx < 0, "interact: hover cleared")
	}
	m.state.HoveredRoute = idx
	return m.state.clone(), changed
}

// Click selects the point nearest p, restarting the expiry timer, or clears
// the selection when no point is close enough.
func (m *Machine) Click(sc *scene.Scene, p r2.Vec) State {
	i, ok := sc.PointAt(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	if !ok {
		m.state.Selection = nil
		return m.state.clone()
	}

	pt := sc.Points[i]
	m.state.Selection = &Selection{Text: pt.Label, Pos: pt.Pos, PointIndex: i}
	seq := m.seq
	m.timer = m.sched.AfterFunc(m.ttl, func() { m.expire(seq) })
	debug.Log("interact: selected point %d %q (seq %d)", i, pt.Label, seq)
	return m.state.clone()
}

// Reset returns to Idle and cancels any pending expiry. It runs whenever the
// solution changes.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.state = Idle()
}

// cancelLocked stops the pending timer and invalidates any callback that
// already escaped Stop.
func (m *Machine) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.seq++
}

func (m *Machine) expire(seq uint64) {
	m.mu.Lock()
	if seq != m.seq || m.state.Selection == nil {
		m.mu.Unlock()
		debug.Log("interact: stale expiry %d ignored", seq)
		return
	}
	m.state.Selection = nil
	m.timer = nil
	m.seq++
	st := m.state.clone()
	cb := m.onExpire
	m.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}
