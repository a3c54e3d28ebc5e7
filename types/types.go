package types

import "github.com/oklog/ulid/v2"

// ClientID identifies a connected guest client.
// It is assigned by the transport when the client connects and stays stable
// until the client disconnects.
type ClientID uint32

// HostClientID is the identity used for calls originating on the host side.
// Guest clients never receive this identifier.
const HostClientID ClientID = 0

// Timestamp is a service-wide nanosecond tick.
// Ticks are strictly increasing across all mutations of a single service instance.
type Timestamp uint64

// CallID is an opaque handle attached to a deferred call so it can be traced
// from registration to completion.
type CallID ulid.ULID

// Origin tells the service which side of the boundary issued a request.
// Permission checks depend on it.
type Origin int

const (
	// OriginHost marks a request issued by the privileged host.
	OriginHost Origin = iota

	// OriginGuest marks a request issued by the untrusted guest.
	OriginGuest
)
