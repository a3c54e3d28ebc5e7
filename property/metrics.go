package property

import (
	"time"
)

// Metrics defines the interface for recording metrics related to property
// operations and notification delivery.
// All methods must be safe for concurrent use.
type Metrics interface {
	// IncrOperation counts a service operation and whether it succeeded.
	IncrOperation(op OperationType, success bool)

	// IncrPermissionDenied counts rejected writes; soft is true for the global
	// guest read-only warning.
	IncrPermissionDenied(guest bool, soft bool)

	// IncrNotification counts events appended to the log; evicted is true when
	// the append pushed out the oldest entry.
	IncrNotification(evicted bool)

	// IncrWaiterReleased counts waiters leaving the registry.
	IncrWaiterReleased(reason ReleaseReason, waited time.Duration)

	// IncrRelayDropped counts host notifications that could not be queued.
	IncrRelayDropped()

	// ObserveTimestampAdjustment records the length of a forced-tick streak.
	ObserveTimestampAdjustment(streak uint64)

	// ObserveRelayBacklog records the host relay queue depth after an enqueue.
	ObserveRelayBacklog(depth int)

	// SetPropertyCount sets the current number of stored properties.
	SetPropertyCount(count int)

	// SetPendingWaiters sets the current number of parked waiters.
	SetPendingWaiters(count int)
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

// NewNoOpMetrics returns a Metrics that discards everything.
func NewNoOpMetrics() Metrics {
	return &NoOpMetrics{}
}

func (n *NoOpMetrics) IncrOperation(op OperationType, success bool)                  {}
func (n *NoOpMetrics) IncrPermissionDenied(guest bool, soft bool)                    {}
func (n *NoOpMetrics) IncrNotification(evicted bool)                                 {}
func (n *NoOpMetrics) IncrWaiterReleased(reason ReleaseReason, waited time.Duration) {}
func (n *NoOpMetrics) IncrRelayDropped()                                             {}
func (n *NoOpMetrics) ObserveTimestampAdjustment(streak uint64)                      {}
func (n *NoOpMetrics) ObserveRelayBacklog(depth int)                                 {}
func (n *NoOpMetrics) SetPropertyCount(count int)                                    {}
func (n *NoOpMetrics) SetPendingWaiters(count int)                                   {}
