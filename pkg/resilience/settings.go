package resilience

import (
	"fmt"
	"time"
)

// Settings controls retry, backoff and fan-out behaviour of a Layer.
type Settings struct {
	// MaxAttempts is the total number of attempts including the first one (default: 4)
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is the backoff before the first retry (default: 1s)
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// MaxDelay caps every computed backoff and every Retry-After hint (default: 60s)
	MaxDelay time.Duration `mapstructure:"max_delay"`
	// JitterFactor is the maximum +/- jitter as a fraction of the backoff, 0..1 (default: 0.2)
	JitterFactor float64 `mapstructure:"jitter_factor"`
	// AttemptTimeout bounds a single attempt, 0 disables it (default: 30s)
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	// Concurrency bounds the number of fan-out branches in flight (default: 5)
	Concurrency int `mapstructure:"concurrency"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:    4,
		BaseDelay:      1 * time.Second,
		MaxDelay:       60 * time.Second,
		JitterFactor:   0.2,
		AttemptTimeout: 30 * time.Second,
		Concurrency:    5,
	}
}

func (s Settings) Validate() error {
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BaseDelay < 0 || s.MaxDelay < s.BaseDelay {
		return fmt.Errorf("invalid backoff bounds: base %s, max %s", s.BaseDelay, s.MaxDelay)
	}
	if s.JitterFactor < 0 || s.JitterFactor > 1 {
		return fmt.Errorf("jitter factor must be within [0, 1], got %.2f", s.JitterFactor)
	}
	if s.AttemptTimeout < 0 {
		return fmt.Errorf("attempt timeout must not be negative")
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	return nil
}
