package auth

import (
	"fmt"
	"time"
)

// CooldownCap bounds the wait between failed logins.
const CooldownCap = 30 * time.Second

// ThrottledError is returned while a cooldown from earlier failures runs.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed logins, retry in %s", e.Wait.Round(time.Second))
}

// CooldownForFailCount returns min(30s, 2^failCount seconds).
func CooldownForFailCount(failCount int) time.Duration {
	if failCount <= 0 {
		return 0
	}
	if failCount >= 5 {
		return CooldownCap
	}
	return time.Duration(1<<failCount) * time.Second
}

type throttle struct {
	failures      int
	cooldownUntil time.Time
}

func (t *throttle) wait(now time.Time) time.Duration {
	if now.Before(t.cooldownUntil) {
		return t.cooldownUntil.Sub(now)
	}
	return 0
}

func (t *throttle) failed(now time.Time) {
	t.failures++
	t.cooldownUntil = now.Add(CooldownForFailCount(t.failures))
}

func (t *throttle) reset() {
	t.failures = 0
	t.cooldownUntil = time.Time{}
}
