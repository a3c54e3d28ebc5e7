package hgcm

import (
	"errors"
	"fmt"
	"time"

	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/property"
)

// DispatcherBuilder constructs a Dispatcher with validated configuration.
type DispatcherBuilder struct {
	config  DispatcherConfig
	service property.Service
}

// NewDispatcherBuilder returns a builder preloaded with default configuration values.
func NewDispatcherBuilder() *DispatcherBuilder {
	return &DispatcherBuilder{config: DefaultDispatcherConfig()}
}

// WithService sets the property service calls are dispatched to. Required.
func (b *DispatcherBuilder) WithService(service property.Service) *DispatcherBuilder {
	b.service = service
	return b
}

// WithRateLimit enables the guest call limiter.
// Values <= 0 leave the defaults unchanged.
func (b *DispatcherBuilder) WithRateLimit(limit, burst int, window time.Duration) *DispatcherBuilder {
	b.config.EnableRateLimit = true
	if limit > 0 {
		b.config.RateLimit = limit
	}
	if burst > 0 {
		b.config.RateLimitBurst = burst
	}
	if window > 0 {
		b.config.RateLimitWindow = window
	}
	return b
}

// WithMaxClients caps connected guest clients. Zero removes the cap.
func (b *DispatcherBuilder) WithMaxClients(n int) *DispatcherBuilder {
	b.config.MaxClients = n
	return b
}

// WithClock sets the clock used for client bookkeeping and call latency.
func (b *DispatcherBuilder) WithClock(c clock.Clock) *DispatcherBuilder {
	if c != nil {
		b.config.Clock = c
	}
	return b
}

// WithLogger sets the dispatcher logger.
func (b *DispatcherBuilder) WithLogger(l logger.Logger) *DispatcherBuilder {
	if l != nil {
		b.config.Logger = l
	}
	return b
}

// WithMetrics sets the dispatcher metrics sink.
func (b *DispatcherBuilder) WithMetrics(m DispatcherMetrics) *DispatcherBuilder {
	if m != nil {
		b.config.Metrics = m
	}
	return b
}

// Build validates the configuration and creates the Dispatcher.
func (b *DispatcherBuilder) Build() (Dispatcher, error) {
	if b.service == nil {
		return nil, errors.New("hgcm: a property service is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("hgcm: invalid dispatcher configuration: %w", err)
	}
	return newDispatcher(b.service, b.config), nil
}
