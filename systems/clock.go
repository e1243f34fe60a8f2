package systems

import "time"

// Clock provides the frame timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock with its monotonic component
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}
