package dispatch

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before retry attempt n (1-indexed).
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Exponential doubles the delay each attempt, capped at Max, with full
// jitter so simultaneous retries spread out.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base)
}

// Constant always waits the same interval. Used in tests.
type Constant struct {
	Interval time.Duration
}

func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// DefaultStrategy is the dispatcher's default email retry backoff.
func DefaultStrategy() Strategy {
	return NewExponential(500*time.Millisecond, 30*time.Second)
}
