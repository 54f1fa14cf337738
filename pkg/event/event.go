// Package event implements a single-slot, auto-reset rendezvous
// primitive used to wake exactly one waiting simulated process per
// scheduler step.
package event

import "sync"

// Event is a sticky, auto-resetting wakeup flag backed by a mutex and a
// condition variable. The zero value is not usable; construct with New.
//
// Event is cheap to copy: all copies share the same underlying state, the
// same way the original simulator clones an Arc<(Mutex<bool>, Condvar)>
// so a process and its parent can each hold a handle to the same wakeup.
type Event struct {
	state *state
}

type state struct {
	mu     sync.Mutex
	cond   *sync.Cond
	posted bool
}

// New returns a fresh Event in the unposted state.
func New() Event {
	s := &state{}
	s.cond = sync.NewCond(&s.mu)
	return Event{state: s}
}

// Notify sets the sticky flag and wakes one waiter. Multiple Notify calls
// before a Wait collapse into a single pending wakeup.
func (e Event) Notify() {
	e.state.mu.Lock()
	e.state.posted = true
	e.state.mu.Unlock()
	e.state.cond.Signal()
}

// Wait blocks until Notify has been called at least once since the last
// Wait, then clears the flag. It never returns spuriously.
func (e Event) Wait() {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	for !e.state.posted {
		e.state.cond.Wait()
	}
	e.state.posted = false
}
