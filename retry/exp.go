package retry

import (
	"time"
)

// ExpConfig configures exponential backoff
type ExpConfig struct {
	Min   time.Duration
	Max   time.Duration
	Scale float64

	// MaxAttempts is the maximum number of attempts taken; 0 = unlimited
	MaxAttempts int

	// Instant makes the first attempt wait Min instead of starting at once
	Instant bool
}

// DefaultExpConfig backs off from 10ms to a minute, doubling every attempt
var DefaultExpConfig = ExpConfig{
	Min:   10 * time.Millisecond,
	Max:   time.Minute,
	Scale: 2.0,
}

// Delays implements interface Config
func (ec ExpConfig) Delays() DelayFn {
	b := NewExpBackoff(ec)
	attempts := 0
	return func() (time.Duration, bool) {
		attempts++
		switch {
		case attempts == 1 && !ec.Instant:
			return 0, true
		case ec.MaxAttempts != 0 && attempts > ec.MaxAttempts:
			return 0, false
		default:
			return b.Backoff(), true
		}
	}
}

// Exponential is the state of an exponential backoff
type Exponential struct {
	config  ExpConfig
	current time.Duration
}

// NewExpBackoff creates an exponential backoff starting at config.Min
func NewExpBackoff(config ExpConfig) *Exponential {
	return &Exponential{
		config:  config,
		current: config.Min,
	}
}

// Backoff returns the next delay and advances the backoff
func (b *Exponential) Backoff() time.Duration {
	delay := b.current
	b.current = time.Duration(float64(b.current) * b.config.Scale)
	if b.current > b.config.Max {
		b.current = b.config.Max
	}
	return delay
}

// Reset restarts the backoff from config.Min
func (b *Exponential) Reset() {
	b.current = b.config.Min
}
