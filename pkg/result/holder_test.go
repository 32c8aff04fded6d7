package result

import (
	"reflect"
	"testing"
)

func TestHolder_EmptyUntilSet(t *testing.T) {
	var h Holder[int]
	if _, ok := h.Latest(); ok {
		t.Fatal("zero holder should be empty")
	}

	var got []int
	cancel := h.Subscribe(func(v int) { got = append(got, v) })
	defer cancel()
	if len(got) != 0 {
		t.Error("subscriber to an empty holder should not be called")
	}

	h.Set(7)
	if v, ok := h.Latest(); !ok || v != 7 {
		t.Errorf("Latest = %d/%v", v, ok)
	}
	if !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("subscriber saw %v", got)
	}
}

func TestHolder_LateSubscriberGetsCurrent(t *testing.T) {
	var h Holder[string]
	h.Set("first")
	h.Set("second")

	var got []string
	h.Subscribe(func(v string) { got = append(got, v) })
	h.Set("third")

	if !reflect.DeepEqual(got, []string{"second", "third"}) {
		t.Errorf("got %v", got)
	}
}

func TestHolder_UnsubscribeAndClear(t *testing.T) {
	var h Holder[int]
	calls := 0
	cancel := h.Subscribe(func(int) { calls++ })
	h.Set(1)
	cancel()
	h.Set(2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	h.Clear()
	if _, ok := h.Latest(); ok {
		t.Error("Clear should empty the holder")
	}
}
