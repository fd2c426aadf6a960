package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time to keep timers and timestamps deterministic in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

type systemClock struct {
	clockwork.Clock
}

func (c systemClock) Now() time.Time {
	return c.Clock.Now().UTC()
}

func System() Clock {
	return systemClock{Clock: clockwork.NewRealClock()}
}

// NewFake returns a clock that only moves when advanced.
func NewFake(at time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(at)
}
