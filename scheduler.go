package retouch

import (
	"sort"
	"time"
)

// Scheduler runs callbacks after a delay measured in host ticks. Time only
// moves when Advance is called, so callbacks fire on the caller's goroutine
// and never race with input handling.
type Scheduler struct {
	now    time.Duration
	seq    uint64
	timers []*Timer
}

// Timer is a callback scheduled with AfterFunc.
type Timer struct {
	s   *Scheduler
	due time.Duration
	seq uint64
	fn  func()
}

// AfterFunc schedules fn to run once d has elapsed.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{s: s, due: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Stop cancels the timer. It reports whether the call prevented the
// callback from running.
func (t *Timer) Stop() bool {
	if t == nil || t.s == nil {
		return false
	}
	for i, other := range t.s.timers {
		if other == t {
			t.s.timers = append(t.s.timers[:i], t.s.timers[i+1:]...)
			t.s = nil
			return true
		}
	}
	t.s = nil
	return false
}

// Advance moves the clock forward by d and runs every timer that came due,
// earliest first. Timers scheduled by a callback run in the same call if
// they are already due.
func (s *Scheduler) Advance(d time.Duration) {
	s.now += d
	for {
		due := s.popDue()
		if due == nil {
			return
		}
		due.fn()
	}
}

func (s *Scheduler) popDue() *Timer {
	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	t := s.timers[0]
	if t.due > s.now {
		return nil
	}
	s.timers = s.timers[1:]
	t.s = nil
	return t
}

// Now returns the time elapsed since the scheduler was created.
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int { return len(s.timers) }

// StopAll cancels every pending timer.
func (s *Scheduler) StopAll() {
	for _, t := range s.timers {
		t.s = nil
	}
	s.timers = nil
}
