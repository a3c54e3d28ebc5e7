package hgcm

import (
	"time"

	"github.com/jathurchan/guestprop/types"
)

// DispatcherMetrics defines observability hooks for call dispatch.
// All methods must be safe for concurrent use.
type DispatcherMetrics interface {
	// IncrGuestCall counts a completed guest call; deferred waits are counted
	// when they park.
	IncrGuestCall(fn GuestFunction, code string)

	// IncrHostCall counts a host call and whether it succeeded.
	IncrHostCall(fn HostFunction, success bool)

	// IncrValidationError counts calls rejected for malformed parameters.
	IncrValidationError(function string, field string)

	// IncrRateLimited counts guest calls rejected by the limiter.
	IncrRateLimited(clientID types.ClientID)

	// IncrDeferredCompletion counts parked waits completed later.
	IncrDeferredCompletion(code string)

	// ObserveCallLatency records how long a synchronous call took.
	ObserveCallLatency(function string, latency time.Duration)

	// SetActiveClients sets the number of connected guest clients.
	SetActiveClients(count int)
}

// NoOpDispatcherMetrics discards everything.
type NoOpDispatcherMetrics struct{}

// NewNoOpDispatcherMetrics creates a new no-operation metrics implementation.
func NewNoOpDispatcherMetrics() DispatcherMetrics {
	return &NoOpDispatcherMetrics{}
}

func (n *NoOpDispatcherMetrics) IncrGuestCall(fn GuestFunction, code string)               {}
func (n *NoOpDispatcherMetrics) IncrHostCall(fn HostFunction, success bool)                {}
func (n *NoOpDispatcherMetrics) IncrValidationError(function string, field string)         {}
func (n *NoOpDispatcherMetrics) IncrRateLimited(clientID types.ClientID)                   {}
func (n *NoOpDispatcherMetrics) IncrDeferredCompletion(code string)                        {}
func (n *NoOpDispatcherMetrics) ObserveCallLatency(function string, latency time.Duration) {}
func (n *NoOpDispatcherMetrics) SetActiveClients(count int)                                {}
