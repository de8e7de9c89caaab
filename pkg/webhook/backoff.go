package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before retry number attempt (1-based).
type Backoff interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier each attempt, with
// optional jitter, capped at MaxInterval. Zero fields take defaults of 1s,
// 30s and 2.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval implements Backoff.
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	maxInterval := e.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	mult := e.Multiplier
	if mult <= 0 {
		mult = 2
	}

	interval := float64(initial) * math.Pow(mult, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}
	return time.Duration(interval)
}

// DefaultBackoff is 1s doubling to 30s with 10% jitter.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}
