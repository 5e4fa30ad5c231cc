// Package debounce coalesces a rapidly changing value into a stable one.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long a value must stay unchanged before it is emitted
const DefaultQuietPeriod = 500 * time.Millisecond

// Scheduler emits a value once it has been stable for the quiet period.
// Every Set cancels the pending timer before arming a new one, so a value
// superseded inside the window is never emitted. A stable value equal to
// the previously emitted one is not emitted again.
//
// emit runs with the scheduler lock held so emissions are strictly ordered;
// it must return quickly and must not call back into the Scheduler.
type Scheduler struct {
	quiet time.Duration
	emit  func(string)

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	pending    string
	hasPending bool
	stable     string
	stopped    bool
}

// New creates a scheduler. The initial stable value is the empty string.
func New(quiet time.Duration, emit func(string)) *Scheduler {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Scheduler{
		quiet: quiet,
		emit:  emit,
	}
}

// Set records a new raw value and restarts the quiet period
func (s *Scheduler) Set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}

	s.generation++
	gen := s.generation
	s.pending = value
	s.hasPending = true
	s.timer = time.AfterFunc(s.quiet, func() {
		s.fire(gen)
	})
}

// fire runs on timer expiry; a timer that lost the race with a newer Set is ignored
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || gen != s.generation || !s.hasPending {
		return
	}
	s.settle()
}

// settle promotes the pending value and emits it if it changed; the caller holds mu
func (s *Scheduler) settle() bool {
	value := s.pending
	s.hasPending = false
	s.timer = nil
	if value == s.stable {
		return false
	}
	s.stable = value
	if s.emit != nil {
		s.emit(value)
	}
	return true
}

// Flush emits the pending value immediately, skipping the rest of the quiet period.
// It reports whether a new stable value was emitted.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || !s.hasPending {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	return s.settle()
}

// Value returns the current stable value
func (s *Scheduler) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stable
}

// Pending returns the latest raw value and whether it is still waiting out the quiet period
func (s *Scheduler) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.hasPending
}

// Stop cancels any pending emission. Later calls to Set are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.hasPending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
