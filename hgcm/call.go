package hgcm

import (
	"sync"
	"sync/atomic"

	"google.golang.org/grpc/status"

	"github.com/jathurchan/guestprop/types"
)

// Call is a guest call as seen by the dispatcher. The transport owns the
// parameters; the dispatcher writes out-parameters before Complete.
type Call interface {
	ClientID() types.ClientID
	Function() GuestFunction
	Params() []Param

	// Complete finishes the call. It is invoked exactly once, possibly from a
	// different goroutine than the one that issued the call.
	Complete(st *status.Status)

	// Cancelled reports whether the transport abandoned the call.
	Cancelled() bool
}

// LocalCall is an in-process Call whose completion can be awaited.
type LocalCall struct {
	clientID types.ClientID
	function GuestFunction
	params   []Param

	cancelled atomic.Bool
	once      sync.Once
	status    *status.Status
	done      chan struct{}
}

// NewLocalCall creates a call for clientID with the given parameters.
func NewLocalCall(clientID types.ClientID, fn GuestFunction, params ...Param) *LocalCall {
	return &LocalCall{
		clientID: clientID,
		function: fn,
		params:   params,
		done:     make(chan struct{}),
	}
}

func (c *LocalCall) ClientID() types.ClientID { return c.clientID }
func (c *LocalCall) Function() GuestFunction  { return c.function }
func (c *LocalCall) Params() []Param          { return c.params }
func (c *LocalCall) Cancelled() bool          { return c.cancelled.Load() }

// Cancel marks the call abandoned.
func (c *LocalCall) Cancel() { c.cancelled.Store(true) }

// Complete records st and releases Done. Later completions are ignored.
func (c *LocalCall) Complete(st *status.Status) {
	c.once.Do(func() {
		c.status = st
		close(c.done)
	})
}

// Done is closed once the call completes.
func (c *LocalCall) Done() <-chan struct{} { return c.done }

// Status returns the completion status, or nil while pending.
func (c *LocalCall) Status() *status.Status {
	select {
	case <-c.done:
		return c.status
	default:
		return nil
	}
}
