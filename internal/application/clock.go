package application

import "time"

// Clock supaya waktu bisa dikontrol di test
type Clock interface {
	Now() time.Time
}

// SystemClock returns UTC; object paths and history rows are dated in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Since measures elapsed time against the given clock.
func Since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}
