package scheduler

import "github.com/Taylor-eOS/light-intensity-sensor/internal/ports"

// failureTracker counts consecutive sensor failures and decides when the run
// must give up. Only the scheduler goroutine touches it.
type failureTracker struct {
	policy      ports.RetryPolicy
	consecutive int
}

// Failure records one failed poll and reports the updated streak length.
func (t *failureTracker) Failure() int {
	t.consecutive++
	return t.consecutive
}

func (t *failureTracker) Success() {
	t.consecutive = 0
}

func (t *failureTracker) Exhausted() bool {
	return t.policy.MaxConsecutive > 0 && t.consecutive >= t.policy.MaxConsecutive
}

func (t *failureTracker) Consecutive() int {
	return t.consecutive
}
