// Package countdown owns the live per-session countdown handles of the
// current fetch cycle and their fan-out to connected clients.
package countdown

import (
	"sync"
	"time"

	"gridclock/internal/display"
	"gridclock/internal/model"
)

// Tick is one countdown sample for one displayed session.
type Tick struct {
	Key       string          `json:"key"`
	Remaining model.Remaining `json:"remaining"`
}

// Registry owns the countdown handles of one fetch cycle. Handles tick once
// a second, self-terminate after emitting the terminal started state, and
// are bulk-canceled by Close before the next cycle begins. A Registry is
// never reused across cycles.
type Registry struct {
	sink func(Tick)
	now  func() time.Time

	mu      sync.Mutex
	stops   map[string]chan struct{}
	wg      sync.WaitGroup
	closing bool
}

// NewRegistry creates an empty registry emitting ticks into sink.
func NewRegistry(sink func(Tick), now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sink:  sink,
		now:   now,
		stops: make(map[string]chan struct{}),
	}
}

// Track starts a countdown handle for the given session key. Tracking the
// same key twice is a no-op; tracking on a closed registry is a no-op.
func (r *Registry) Track(key string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return
	}
	if _, ok := r.stops[key]; ok {
		return
	}

	stop := make(chan struct{})
	r.stops[key] = stop
	r.wg.Add(1)

	go r.run(key, start, stop)
}

func (r *Registry) run(key string, start time.Time, stop chan struct{}) {
	defer r.wg.Done()

	emit := func() bool {
		rem := display.Until(start, r.now())
		r.sink(Tick{Key: key, Remaining: rem})
		return rem.Started
	}

	// Emit immediately so a freshly displayed entry has a value before
	// the first ticker interval elapses.
	if emit() {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if emit() {
				return
			}
		case <-stop:
			return
		}
	}
}

// Len reports the number of handles ever tracked this cycle.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stops)
}

// Close cancels every handle and waits for them to exit. Safe to call more
// than once.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		r.wg.Wait()
		return
	}
	r.closing = true
	for _, stop := range r.stops {
		close(stop)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
