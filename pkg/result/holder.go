// Package result holds the most recent optimization result and fans it out to
// subscribers. A new subscriber receives the current value immediately, so a
// view that attaches late still starts from the latest solution.
package result

import "sync"

// Holder is a latest-value cell with subscribers. The zero value is ready to
// use and holds no value.
type Holder[T any] struct {
	mu     sync.Mutex
	value  T
	has    bool
	nextID int
	subs   map[int]func(T)
}

// Set stores v and notifies every subscriber in registration order.
func (h *Holder[T]) Set(v T) {
	h.mu.Lock()
	h.value, h.has = v, true
	subs := h.snapshotLocked()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Latest returns the current value, if any.
func (h *Holder[T]) Latest() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.has
}

// Subscribe registers fn and, when a value is present, calls it with that
// value before returning. The returned func unsubscribes.
func (h *Holder[T]) Subscribe(fn func(T)) (cancel func()) {
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[int]func(T))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	v, has := h.value, h.has
	h.mu.Unlock()

	if has {
		fn(v)
	}
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Clear drops the current value without notifying subscribers.
func (h *Holder[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	h.value, h.has = zero, false
}

func (h *Holder[T]) snapshotLocked() []func(T) {
	out := make([]func(T), 0, len(h.subs))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
