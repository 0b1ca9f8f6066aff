package clock

import "time"

// SystemClock implements usecase.Clock with the wall clock in UTC,
// truncated to the microsecond precision the local store keeps.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
