package hgcm

import (
	"fmt"
	"time"

	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
)

// DispatcherConfig holds the settings of a Dispatcher.
type DispatcherConfig struct {
	EnableRateLimit bool          // Whether guest calls are rate limited
	RateLimit       int           // Guest calls allowed per window
	RateLimitBurst  int           // Burst capacity for guest calls
	RateLimitWindow time.Duration // Time window used for rate calculation

	// MaxClients caps connected guest clients; zero means unlimited.
	MaxClients int

	Clock   clock.Clock
	Logger  logger.Logger
	Metrics DispatcherMetrics
}

// DefaultDispatcherConfig returns a DispatcherConfig with safe defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		EnableRateLimit: false,
		RateLimit:       DefaultRateLimit,
		RateLimitBurst:  DefaultRateLimitBurst,
		RateLimitWindow: DefaultRateLimitWindow,
		MaxClients:      DefaultMaxClients,
		Clock:           clock.NewStandardClock(),
		Logger:          logger.NewNoOpLogger(),
		Metrics:         NewNoOpDispatcherMetrics(),
	}
}

// Validate checks if the configuration is usable.
func (c *DispatcherConfig) Validate() error {
	if c.MaxClients < 0 {
		return fmt.Errorf("%w: MaxClients cannot be negative", ErrInvalidConfig)
	}
	if c.EnableRateLimit {
		if c.RateLimit <= 0 {
			return fmt.Errorf("%w: RateLimit must be positive", ErrInvalidConfig)
		}
		if c.RateLimitBurst <= 0 {
			return fmt.Errorf("%w: RateLimitBurst must be positive", ErrInvalidConfig)
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("%w: RateLimitWindow must be positive", ErrInvalidConfig)
		}
	}
	if c.Clock == nil {
		return fmt.Errorf("%w: Clock cannot be nil", ErrInvalidConfig)
	}
	if c.Logger == nil {
		return fmt.Errorf("%w: Logger cannot be nil", ErrInvalidConfig)
	}
	if c.Metrics == nil {
		return fmt.Errorf("%w: Metrics cannot be nil", ErrInvalidConfig)
	}
	return nil
}
