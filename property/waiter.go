package property

import (
	"time"

	"github.com/jathurchan/guestprop/types"
)

// PendingCall is the transport's handle on a parked notification wait.
type PendingCall interface {
	// Cancelled reports whether the transport has given up on the call.
	Cancelled() bool

	// Complete delivers the outcome. It is called exactly once, never while
	// the service lock is held.
	Complete(n *Notification, err error)
}

// waiter is a parked "get next notification" request.
type waiter struct {
	id         types.CallID   // Handle used to trace the call in logs.
	clientID   types.ClientID // Client that issued the wait.
	patterns   string         // Raw pattern string as received.
	bufferSize int            // Size of the caller's response buffer.
	call       PendingCall    // Completion handle.
	enqueued   time.Time      // When the wait was parked.
}

// waiterRegistry keeps parked waiters in registration order.
// It has no locking of its own.
type waiterRegistry struct {
	waiters   []*waiter
	perClient map[types.ClientID]int
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{perClient: make(map[types.ClientID]int)}
}

func (r *waiterRegistry) add(w *waiter) {
	r.waiters = append(r.waiters, w)
	r.perClient[w.clientID]++
}

// removeIf drops every waiter for which pred returns true and returns them
// in registration order.
func (r *waiterRegistry) removeIf(pred func(*waiter) bool) []*waiter {
	var removed []*waiter
	kept := r.waiters[:0]
	for _, w := range r.waiters {
		if pred(w) {
			removed = append(removed, w)
			r.release(w.clientID)
			continue
		}
		kept = append(kept, w)
	}
	clear(r.waiters[len(kept):]) // Avoid memory leak.
	r.waiters = kept
	return removed
}

func (r *waiterRegistry) release(clientID types.ClientID) {
	if r.perClient[clientID] <= 1 {
		delete(r.perClient, clientID)
		return
	}
	r.perClient[clientID]--
}

func (r *waiterRegistry) countFor(clientID types.ClientID) int {
	return r.perClient[clientID]
}

func (r *waiterRegistry) len() int {
	return len(r.waiters)
}
