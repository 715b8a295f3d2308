package testutil

import (
	"sync"
	"time"

	"github.com/tartampluch/go-waifu-birthday/internal/search"
)

// ManualScheduler is a search.Scheduler that records scheduled calls and runs
// them only when told to.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

// ManualTimer is a pending call owned by a ManualScheduler.
type ManualTimer struct {
	Delay time.Duration

	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

var _ search.Scheduler = (*ManualScheduler)(nil)

// AfterFunc records f without running it.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) search.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTimer{Delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop implements the Timer contract.
func (t *ManualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Fire runs the call, even if stopped, to simulate a timer that raced Stop.
func (t *ManualTimer) Fire() {
	t.mu.Lock()
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
}

// Stopped reports whether Stop was called.
func (t *ManualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Timers returns every timer scheduled so far.
func (s *ManualScheduler) Timers() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ManualTimer(nil), s.timers...)
}

// FireLast fires the most recent live timer and reports whether one existed.
func (s *ManualScheduler) FireLast() bool {
	timers := s.Timers()
	for i := len(timers) - 1; i >= 0; i-- {
		if !timers[i].Stopped() {
			timers[i].Fire()
			return true
		}
	}
	return false
}
