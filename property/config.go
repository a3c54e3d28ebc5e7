package property

import (
	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
)

// ServiceOption defines a function that applies a configuration setting
// to a Service during initialization.
type ServiceOption func(*ServiceConfig)

// ProductInfo describes the host product, published under HostInfoPrefix on power-on.
type ProductInfo struct {
	Version    string
	VersionExt string
	Revision   string
}

// ServiceConfig holds configuration parameters for a Service instance.
type ServiceConfig struct {
	// MaxProperties limits how many properties the store holds.
	MaxProperties int

	// MaxNotifications is the notification log capacity.
	MaxNotifications int

	// MaxWaitersPerClient limits parked waits per guest client.
	MaxWaitersPerClient int

	// MaxRelayBacklog bounds the host callback queue; zero means unbounded.
	MaxRelayBacklog int

	// ReservedPrefixes are name prefixes only the host may mutate. Host writes
	// under them are forced guest read-only.
	ReservedPrefixes []string

	// Product is published on power-on.
	Product ProductInfo

	// HostCallback, when set, is registered at construction.
	HostCallback HostCallback

	Clock   clock.Clock
	Logger  logger.Logger
	Metrics Metrics
}

// DefaultServiceConfig returns a ServiceConfig with sensible defaults
// based on the predefined constants.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxProperties:       DefaultMaxProperties,
		MaxNotifications:    DefaultMaxNotifications,
		MaxWaitersPerClient: DefaultMaxWaitersPerClient,
		MaxRelayBacklog:     DefaultMaxRelayBacklog,
		ReservedPrefixes:    DefaultReservedPrefixes(),
		Product: ProductInfo{
			Version:  "0.0.0",
			Revision: "0",
		},
	}
}

// WithMaxProperties sets the maximum number of stored properties.
func WithMaxProperties(max int) ServiceOption {
	return func(cfg *ServiceConfig) {
		if max > 0 {
			cfg.MaxProperties = max
		}
	}
}

// WithMaxNotifications sets the notification log capacity.
func WithMaxNotifications(max int) ServiceOption {
	return func(cfg *ServiceConfig) {
		if max > 0 {
			cfg.MaxNotifications = max
		}
	}
}

// WithMaxWaitersPerClient sets the per-client cap on parked waits.
func WithMaxWaitersPerClient(max int) ServiceOption {
	return func(cfg *ServiceConfig) {
		if max > 0 {
			cfg.MaxWaitersPerClient = max
		}
	}
}

// WithMaxRelayBacklog bounds the host callback queue. Zero keeps it unbounded.
func WithMaxRelayBacklog(max int) ServiceOption {
	return func(cfg *ServiceConfig) {
		if max >= 0 {
			cfg.MaxRelayBacklog = max
		}
	}
}

// WithReservedPrefixes replaces the host-controlled namespaces.
// Empty prefixes are ignored.
func WithReservedPrefixes(prefixes []string) ServiceOption {
	return func(cfg *ServiceConfig) {
		if prefixes == nil {
			return
		}
		kept := make([]string, 0, len(prefixes))
		for _, p := range prefixes {
			if p != "" {
				kept = append(kept, p)
			}
		}
		cfg.ReservedPrefixes = kept
	}
}

// WithProductInfo sets the product information published on power-on.
func WithProductInfo(info ProductInfo) ServiceOption {
	return func(cfg *ServiceConfig) {
		cfg.Product = info
	}
}

// WithHostCallback registers cb at construction.
func WithHostCallback(cb HostCallback) ServiceOption {
	return func(cfg *ServiceConfig) {
		if cb != nil {
			cfg.HostCallback = cb
		}
	}
}

// WithClock sets the clock the timestamp generator reads.
func WithClock(c clock.Clock) ServiceOption {
	return func(cfg *ServiceConfig) {
		if c != nil {
			cfg.Clock = c
		}
	}
}

// WithLogger sets the logger for internal events.
func WithLogger(l logger.Logger) ServiceOption {
	return func(cfg *ServiceConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithMetrics sets the metrics collector for operational data.
func WithMetrics(metrics Metrics) ServiceOption {
	return func(cfg *ServiceConfig) {
		if metrics != nil {
			cfg.Metrics = metrics
		}
	}
}
