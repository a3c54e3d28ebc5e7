package property

import (
	"context"
	"io"

	"github.com/jathurchan/guestprop/types"
)

// Service is an in-memory key/value property store shared by a privileged host
// and an untrusted guest, with change notifications.
//
// Notes:
//   - All methods are safe for concurrent use.
//   - Every successful mutation gets a service-wide, strictly increasing timestamp,
//     is matched against parked waiters, appended to the notification log, and
//     relayed to the registered host callback.
//   - Notification failures never undo a store mutation that already succeeded.
type Service interface {
	// GetProperty returns a copy of the named property.
	//
	// Returns:
	//   - ErrNotFound if the property does not exist.
	//   - ErrInvalidParameter if the name is malformed.
	GetProperty(ctx context.Context, name string) (Property, error)

	// SetProperty creates or updates a property on behalf of origin and returns
	// the timestamp of the change.
	//
	// Returns:
	//   - ErrPermissionDenied when the property or namespace is closed to origin.
	//   - ErrGuestReadOnlyWarning when guest writes are globally read-only.
	//   - ErrTooMuchData when a new property would exceed the maximum.
	//   - ErrInvalidParameter for a malformed name, value or flags.
	SetProperty(ctx context.Context, origin types.Origin, name, value string, flags Flags) (types.Timestamp, error)

	// DeleteProperty removes a property on behalf of origin. Deleting an absent
	// property succeeds without producing a notification.
	//
	// Returns the same permission errors as SetProperty.
	DeleteProperty(ctx context.Context, origin types.Origin, name string) error

	// EnumerateProperties serializes every property matching patterns into a
	// flat buffer of at most bufferSize bytes.
	//
	// Returns a *BufferOverflowError with the required size when it does not fit.
	EnumerateProperties(ctx context.Context, patterns string, bufferSize int) ([]byte, error)

	// GetNotification returns the next event after req.Since that matches
	// req.Patterns. When none is available the wait is parked, ErrAsyncPending
	// is returned, and call is completed by a later mutation, a superseding wait,
	// a disconnect or shutdown.
	//
	// Returns:
	//   - ErrTooManyWaiters when the client has too many parked waits.
	//   - A *BufferOverflowError (alongside the notification metadata) when the
	//     encoded event does not fit req.BufferSize.
	GetNotification(ctx context.Context, req WaitRequest, call PendingCall) (*Notification, error)

	// DisconnectClient completes every parked wait of clientID with ErrInterrupted.
	DisconnectClient(clientID types.ClientID) int

	// SetProperties loads a batch of properties on behalf of the host without
	// producing notifications. The batch is validated as a whole before any of
	// it is applied.
	SetProperties(ctx context.Context, props []Property) error

	// SetGlobalFlags replaces the global flags. Host only.
	SetGlobalFlags(flags Flags) error

	// GlobalFlags returns the current global flags.
	GlobalFlags() Flags

	// RegisterHostCallback installs cb as the single host callback, replacing any
	// previous one. A nil cb unregisters.
	RegisterHostCallback(cb HostCallback)

	// PowerOn seeds the host information properties.
	PowerOn(ctx context.Context) error

	// Resume increments the resume counter property.
	Resume(ctx context.Context) error

	// Reset increments the reset counter and removes TransReset properties.
	Reset(ctx context.Context) error

	// Dump writes a textual listing of all properties for diagnostics.
	Dump(w io.Writer) error

	// Close stops the host relay and interrupts all parked waits.
	Close() error
}

// WaitRequest carries the parameters of a "get next notification" call.
type WaitRequest struct {
	ClientID   types.ClientID
	Patterns   string          // '|' separated; empty matches everything
	Since      types.Timestamp // zero waits for the next event
	BufferSize int
}

// Notification is a delivered event.
type Notification struct {
	Event

	// WasDeleted is derived from the store at delivery time.
	WasDeleted bool

	// AnchorLost is set when Since was not found in the log and the scan
	// restarted from the oldest entry.
	AnchorLost bool

	// Data is the encoded event; nil when the buffer was too small.
	Data []byte
}

// HostNotification is what the host callback receives for every mutation.
type HostNotification struct {
	Name      string
	Value     *string // nil when the property was deleted
	Timestamp types.Timestamp
	Flags     string
}

// HostCallback receives change notifications on the relay goroutine.
type HostCallback interface {
	NotifyHost(n HostNotification)
}

// HostCallbackFunc adapts a function to HostCallback.
type HostCallbackFunc func(n HostNotification)

// NotifyHost calls f(n).
func (f HostCallbackFunc) NotifyHost(n HostNotification) {
	f(n)
}
