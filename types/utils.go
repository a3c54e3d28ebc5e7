package types

import (
	"strconv"

	"github.com/oklog/ulid/v2"
)

// NewCallID returns a fresh, lexically sortable call handle.
func NewCallID() CallID {
	return CallID(ulid.Make())
}

// String renders the call handle in its canonical ULID form.
func (id CallID) String() string {
	return ulid.ULID(id).String()
}

// IsZero reports whether the handle was never assigned.
func (id CallID) IsZero() bool {
	return ulid.ULID(id).Compare(ulid.ULID{}) == 0
}

// String renders the timestamp as a decimal nanosecond count, the form used
// on the wire and in enumeration output.
func (ts Timestamp) String() string {
	return strconv.FormatUint(uint64(ts), 10)
}

// String helps with making origin values more readable in logs and debug output.
func (o Origin) String() string {
	switch o {
	case OriginHost:
		return "host"
	case OriginGuest:
		return "guest"
	default:
		return "unknown"
	}
}

// IsGuest reports whether the request came from the guest side.
func (o Origin) IsGuest() bool {
	return o == OriginGuest
}
