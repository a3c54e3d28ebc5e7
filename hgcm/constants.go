package hgcm

import (
	"fmt"
	"time"
)

// GuestFunction identifies a call issued by a guest client.
type GuestFunction uint32

const (
	GuestGetProp         GuestFunction = 1
	GuestSetProp         GuestFunction = 2
	GuestSetPropValue    GuestFunction = 3
	GuestDelProp         GuestFunction = 4
	GuestEnumProps       GuestFunction = 5
	GuestGetNotification GuestFunction = 6
)

var guestFunctionNames = map[GuestFunction]string{
	GuestGetProp:         "GetProp",
	GuestSetProp:         "SetProp",
	GuestSetPropValue:    "SetPropValue",
	GuestDelProp:         "DelProp",
	GuestEnumProps:       "EnumProps",
	GuestGetNotification: "GetNotification",
}

func (f GuestFunction) String() string {
	if name, ok := guestFunctionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("GuestFunction(%d)", uint32(f))
}

// HostFunction identifies a call issued by the host.
type HostFunction uint32

const (
	HostSetProps       HostFunction = 1
	HostGetProp        HostFunction = 2
	HostSetProp        HostFunction = 3
	HostSetPropValue   HostFunction = 4
	HostDelProp        HostFunction = 5
	HostEnumProps      HostFunction = 6
	HostSetGlobalFlags HostFunction = 7
	HostGetDebugInfo   HostFunction = 8
)

var hostFunctionNames = map[HostFunction]string{
	HostSetProps:       "SetProps",
	HostGetProp:        "GetProp",
	HostSetProp:        "SetProp",
	HostSetPropValue:   "SetPropValue",
	HostDelProp:        "DelProp",
	HostEnumProps:      "EnumProps",
	HostSetGlobalFlags: "SetGlobalFlags",
	HostGetDebugInfo:   "GetDebugInfo",
}

func (f HostFunction) String() string {
	if name, ok := hostFunctionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("HostFunction(%d)", uint32(f))
}

// LifecycleEvent is a VM state change forwarded to the service.
type LifecycleEvent int

const (
	EventPowerOn LifecycleEvent = iota + 1
	EventResume
	EventReset
)

func (e LifecycleEvent) String() string {
	switch e {
	case EventPowerOn:
		return "power_on"
	case EventResume:
		return "resume"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Parameter counts per function.
const (
	getPropParams         = 4 // name, out buffer, out timestamp, out size
	setPropParams         = 3 // name, value, flags
	setPropValueParams    = 2 // name, value
	delPropParams         = 1 // name
	enumPropsParams       = 3 // patterns, out buffer, out size
	getNotificationParams = 4 // patterns, in/out timestamp, out buffer, out size
	setPropsParams        = 1 // encoded property list
	setGlobalFlagsParams  = 1 // flags
	getDebugInfoParams    = 2 // out buffer, out size
)

// Default dispatcher settings.
const (
	DefaultRateLimit       = 1000
	DefaultRateLimitBurst  = 100
	DefaultRateLimitWindow = time.Second
	DefaultMaxClients      = 64
)

// AnchorLostMessage accompanies an OK completion of a wait whose anchor had
// already left the notification log.
const AnchorLostMessage = "notification anchor no longer retained, delivered from oldest event"

// ErrorInfo reasons and metadata keys attached to completion statuses.
const (
	ErrorDomain = "guestprop"

	ReasonInvalidParameter = "INVALID_PARAMETER"
	ReasonPermissionDenied = "PERMISSION_DENIED"
	ReasonGuestReadOnly    = "GUEST_READ_ONLY"
	ReasonNotFound         = "NOT_FOUND"
	ReasonBufferOverflow   = "BUFFER_OVERFLOW"
	ReasonTooMuchData      = "TOO_MUCH_DATA"
	ReasonTooManyWaiters   = "TOO_MANY_WAITERS"
	ReasonOutOfMemory      = "OUT_OF_MEMORY"
	ReasonRateLimited      = "RATE_LIMITED"

	MetadataRequiredSize = "required_size"
	MetadataField        = "field"
)
