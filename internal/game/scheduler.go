package game

import "time"

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc schedules on the wall clock.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// turnScheduler holds at most one pending automated-turn continuation for a
// room. It is guarded by the room mutex. Every arm or cancel bumps gen, so a
// continuation that was already in flight sees a stale generation and does
// nothing.
type turnScheduler struct {
	delay time.Duration
	after AfterFunc

	gen   uint64
	timer Timer
}

func newTurnScheduler(delay time.Duration, after AfterFunc) *turnScheduler {
	if after == nil {
		after = RealAfterFunc
	}
	return &turnScheduler{delay: delay, after: after}
}

// arm replaces any pending continuation with run, called after the delay
// with the generation it was armed under.
func (s *turnScheduler) arm(run func(gen uint64)) {
	s.cancel()
	gen := s.gen
	s.timer = s.after(s.delay, func() { run(gen) })
}

func (s *turnScheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *turnScheduler) pending() bool { return s.timer != nil }

func (s *turnScheduler) current(gen uint64) bool { return gen == s.gen }

// fired clears the pending timer once its continuation runs.
func (s *turnScheduler) fired(gen uint64) {
	if gen == s.gen {
		s.timer = nil
	}
}
