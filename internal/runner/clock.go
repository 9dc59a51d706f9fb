package runner

import "time"

// Clock schedules the one-second cadences. The real clock is backed by
// time.AfterFunc; tests drive a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback. Stop may lose the race with a callback that
// is already running; the runner rejects such stale callbacks itself.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// cadence is the tick schedule of a single running slot. Tick n is due at
// start + n seconds, so a late callback never accumulates drift.
type cadence struct {
	gen   uint64
	start time.Time
	ticks int
	timer Timer
}

func (c *cadence) stop() {
	if c != nil && c.timer != nil {
		c.timer.Stop()
	}
}
