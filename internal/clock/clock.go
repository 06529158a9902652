// Package clock abstracts wall-clock time so time-dependent services can be
// tested deterministically.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock returns the current time. Services use it instead of time.Now so
// tests can substitute a FakeClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns a Clock backed by the wall clock, in UTC.
func NewSystemClock() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
