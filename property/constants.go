package property

// Limits
const (
	// DefaultMaxProperties is the maximum number of properties the store holds.
	// Creating a property beyond it fails with ErrTooMuchData; updates still succeed.
	DefaultMaxProperties = 256

	// DefaultMaxNotifications is the capacity of the notification log.
	DefaultMaxNotifications = 256

	// DefaultMaxWaitersPerClient caps the pending notification waits of one guest client.
	DefaultMaxWaitersPerClient = 16

	// DefaultMaxRelayBacklog bounds the host callback queue. Zero means unbounded.
	DefaultMaxRelayBacklog = 0

	// MaxNameLength is the maximum length of a property name in bytes.
	MaxNameLength = 64

	// MaxValueLength is the maximum length of a property value in bytes.
	MaxValueLength = 128

	// MaxFlagsLength is the maximum length of a textual flags list in bytes.
	MaxFlagsLength = 40

	// MaxPatternsLength is the maximum length of a pattern string in bytes.
	MaxPatternsLength = 1024
)

// Namespaces
const (
	// HostInfoPrefix roots the host metadata tree.
	HostInfoPrefix = "/VirtualBox/HostInfo/"

	// VMInfoPrefix roots the VM metadata tree.
	VMInfoPrefix = "/VirtualBox/VMInfo/"

	// PatternSeparator joins alternative patterns in a pattern string.
	PatternSeparator = "|"
)

// DefaultReservedPrefixes lists the name prefixes only the host may mutate.
func DefaultReservedPrefixes() []string {
	return []string{
		"/VirtualBox/GuestAdd/VBoxService/",
		"/VirtualBox/GuestAdd/PAM/",
		"/VirtualBox/GuestAdd/Greeter/",
		HostInfoPrefix,
		VMInfoPrefix,
	}
}

// Lifecycle properties
const (
	PropHostVersion    = HostInfoPrefix + "VBoxVer"
	PropHostVersionExt = HostInfoPrefix + "VBoxVerExt"
	PropHostRevision   = HostInfoPrefix + "VBoxRev"
	PropResumeCounter  = VMInfoPrefix + "ResumeCounter"
	PropResetCounter   = VMInfoPrefix + "ResetCounter"
)

// OperationType names a service operation for metrics and logs.
type OperationType string

const (
	OperationGet             OperationType = "get"
	OperationSet             OperationType = "set"
	OperationDelete          OperationType = "delete"
	OperationEnumerate       OperationType = "enumerate"
	OperationGetNotification OperationType = "get_notification"
	OperationBulkSet         OperationType = "bulk_set"
)

// ReleaseReason tells why a pending waiter left the registry.
type ReleaseReason string

const (
	ReleaseMatched    ReleaseReason = "matched"
	ReleaseSuperseded ReleaseReason = "superseded"
	ReleaseCancelled  ReleaseReason = "cancelled"
	ReleaseDisconnect ReleaseReason = "disconnect"
	ReleaseShutdown   ReleaseReason = "shutdown"
	ReleaseBadPattern ReleaseReason = "bad_pattern"
)
