package proxy

import "time"

// deadline converts a duration into an absolute time.Time for SetDeadline
// calls, treating a non-positive duration as "no deadline".
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
