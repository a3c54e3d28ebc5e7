package property

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a malformed name, value, flags list or pattern.
	ErrInvalidParameter = errors.New("property: invalid parameter")

	// ErrPermissionDenied indicates the caller's origin may not modify the property.
	ErrPermissionDenied = errors.New("property: permission denied")

	// ErrGuestReadOnlyWarning indicates the write was skipped because guest writes
	// are globally read-only. It is a soft outcome distinct from ErrPermissionDenied;
	// see IsWarning.
	ErrGuestReadOnlyWarning = errors.New("property: guest properties are read-only")

	// ErrNotFound indicates the requested property does not exist.
	ErrNotFound = errors.New("property: not found")

	// ErrBufferOverflow indicates a caller-supplied buffer is too small.
	// The concrete error is a *BufferOverflowError carrying the required size.
	ErrBufferOverflow = errors.New("property: buffer overflow")

	// ErrTooMuchData indicates the store already holds the maximum number of properties.
	ErrTooMuchData = errors.New("property: too many properties")

	// ErrTooManyWaiters indicates the client already has the maximum number of pending waits.
	ErrTooManyWaiters = errors.New("property: too many pending waits for client")

	// ErrOutOfMemory indicates an internal queue refused to grow.
	ErrOutOfMemory = errors.New("property: out of memory")

	// ErrInterrupted completes waiters that were superseded, cancelled or disconnected.
	ErrInterrupted = errors.New("property: wait interrupted")

	// ErrAsyncPending is not a failure: the wait was parked and the call will be
	// completed later through its PendingCall.
	ErrAsyncPending = errors.New("property: call pending")

	// ErrServiceClosed indicates the service has been shut down.
	ErrServiceClosed = errors.New("property: service closed")

	// ErrRelayClosed indicates the host callback relay no longer accepts tasks.
	ErrRelayClosed = errors.New("property: host relay closed")
)

// BufferOverflowError reports the buffer size a caller needs to retry with.
type BufferOverflowError struct {
	Required int
}

func newBufferOverflowError(required int) *BufferOverflowError {
	return &BufferOverflowError{Required: required}
}

// Error implements the error interface.
func (e *BufferOverflowError) Error() string {
	return fmt.Sprintf("property: buffer overflow (%d bytes required)", e.Required)
}

// Unwrap makes errors.Is(err, ErrBufferOverflow) hold.
func (e *BufferOverflowError) Unwrap() error {
	return ErrBufferOverflow
}

// RequiredSize extracts the size reported by a buffer overflow, if any.
func RequiredSize(err error) (int, bool) {
	var overflow *BufferOverflowError
	if errors.As(err, &overflow) {
		return overflow.Required, true
	}
	return 0, false
}

// IsWarning reports whether err is a soft outcome: the operation did not take
// effect, but legacy callers expect it to be told apart from a hard failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrGuestReadOnlyWarning)
}

func invalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
