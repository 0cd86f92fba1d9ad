package game

import "time"

// Clock supplies the current time to the engine.  All scheduling math is
// relative to it; tests substitute a manual clock instead of sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.  Times are
// normalized to UTC because DATETIME columns are stored in UTC.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
