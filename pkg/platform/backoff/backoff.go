// Package backoff provides retry delay strategies for storage retries.
// All strategies are safe for concurrent use.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	Delay(attempt int) time.Duration
}

// Linear increases the delay linearly with the attempt number.
// Delay = min(Initial * attempt, Max).
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * attempt, capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := l.Initial * time.Duration(attempt)
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// LinearWithJitter adds up to Initial of random jitter on top of Linear so
// writers that collided once don't collide again on the next attempt.
type LinearWithJitter struct {
	Linear
}

// NewLinearWithJitter creates a jittered linear backoff strategy.
func NewLinearWithJitter(initial, maxDelay time.Duration) *LinearWithJitter {
	return &LinearWithJitter{Linear: Linear{Initial: initial, Max: maxDelay}}
}

// Delay returns Linear.Delay(attempt) plus a random duration in [0, Initial),
// capped at Max.
func (l *LinearWithJitter) Delay(attempt int) time.Duration {
	d := l.Linear.Delay(attempt)
	if l.Initial > 0 {
		d += time.Duration(rand.Int64N(int64(l.Initial))) //nolint:gosec // jitter intentionally uses non-crypto rand
	}
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ExponentialWithJitter draws each delay uniformly from
// [0, min(Initial * 2^(attempt-1), Max)). Writers racing for the same row
// spread out instead of colliding again in lockstep.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter creates a full-jitter exponential strategy.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay}
}

func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ceiling := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && ceiling > float64(e.Max) {
		ceiling = float64(e.Max)
	}
	if ceiling < 1 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling))) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// None never waits. Useful in tests.
type None struct{}

func (None) Delay(int) time.Duration { return 0 }

// Wait sleeps for the strategy's delay for attempt, returning early with the
// context's error if it is cancelled first.
func Wait(ctx context.Context, s Strategy, attempt int) error {
	d := s.Delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
