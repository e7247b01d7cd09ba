package engine

import "time"

// CancelFunc cancels a scheduled call. It reports whether the call was
// cancelled before starting; a call that has already begun executing is
// uncancellable and runs to completion.
type CancelFunc func() bool

// Scheduler defers a function call. The engine holds at most one pending
// handle at a time, cancelling and replacing it as change notifications
// arrive, so a burst of notifications collapses into one trailing recompute.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) CancelFunc
}

// NewTimerScheduler returns the default Scheduler backed by runtime timers.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

type timerScheduler struct{}

func (timerScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(delay, fn)
	return t.Stop
}
