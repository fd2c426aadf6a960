package domain

import (
	"math"
	"time"
)

type Cause string

const (
	NoInputActivity Cause = "No Keyboard/Mouse Activity"
	TabHidden       Cause = "Window Minimized / Tab Hidden"
	WindowBlurred   Cause = "Window Blurred (Lost Focus)"
)

// Period is a closed stretch of inactivity.
type Period struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Cause    Cause
}

// Seconds is the duration rounded to whole seconds.
func (p Period) Seconds() int {
	return int(math.Round(p.Duration.Seconds()))
}
