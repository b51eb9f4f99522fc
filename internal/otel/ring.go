package otel

import (
	"maps"
	"slices"
	"sync"
)

// DefaultRingSize is how many events the debug overlay can look back on.
const DefaultRingSize = 1024

// Ring keeps the most recent events in memory for the debug overlay.
// Totals count every event pushed since creation, so counters keep growing
// after old events rotate out. Safe for concurrent use.
type Ring struct {
	mu     sync.Mutex
	events []Event
	oldest int // index of the oldest event once the ring is full
	size   int
	totals map[EventKind]int
}

// NewRing creates a ring holding up to size events.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{
		events: make([]Event, 0, size),
		size:   size,
		totals: make(map[EventKind]int),
	}
}

// Push stores e, evicting the oldest event when the ring is full.
func (r *Ring) Push(e Event) {
	e.Extra = maps.Clone(e.Extra)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.totals[e.Kind]++
	if len(r.events) < r.size {
		r.events = append(r.events, e)
		return
	}
	r.events[r.oldest] = e
	r.oldest = (r.oldest + 1) % r.size
}

// Recent returns the newest n events matching f, oldest first. n <= 0
// returns every matching event still in the ring.
func (r *Ring) Recent(n int, f Filter) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for i := len(r.events) - 1; i >= 0; i-- {
		if n > 0 && len(out) == n {
			break
		}
		e := r.events[(r.oldest+i)%len(r.events)]
		if f.Match(e) {
			out = append(out, e)
		}
	}
	slices.Reverse(out)
	return out
}

// Totals returns how many events of each kind were pushed since creation.
func (r *Ring) Totals() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.totals)
}

// Len is the number of events currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Cap is the most events the ring holds.
func (r *Ring) Cap() int {
	return r.size
}
