package ports

import "time"

// RetryPolicy governs how the scheduler reacts to transient sensor failures.
// MaxConsecutive consecutive failures escalate to a fatal stop; a successful
// read resets the count. ErrorBackoff is slept after a failed poll instead of
// the regular sample delay.
type RetryPolicy struct {
	MaxConsecutive int
	ErrorBackoff   time.Duration
}
