package resilience

import "time"

type BreakerConfig struct {
	Enabled             bool
	FailureThreshold    int
	OpenTimeout         time.Duration
	HalfOpenMaxRequests int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:             true,
		FailureThreshold:    5,
		OpenTimeout:         15 * time.Second,
		HalfOpenMaxRequests: 2,
	}
}

// Normalize replaces out-of-range values with the defaults.
func (c BreakerConfig) Normalize() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	if c.HalfOpenMaxRequests < 1 {
		c.HalfOpenMaxRequests = defaults.HalfOpenMaxRequests
	}
	return c
}

type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}
