package scheduler

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source of the scheduler. Tests drive it with
// clockwork.NewFakeClockAt.
type Clock = clockwork.Clock

// RealClock returns the system clock
func RealClock() Clock {
	return clockwork.NewRealClock()
}

// wallClock drops the monotonic reading so that time spent suspended shows
// up when comparing against a fire target
type wallClock struct {
	clockwork.Clock
}

func (c wallClock) Now() time.Time {
	return c.Clock.Now().Round(0)
}
