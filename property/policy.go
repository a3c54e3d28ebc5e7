package property

import "strings"

// permission is the outcome of a write permission check.
type permission int

const (
	permissionGranted permission = iota
	permissionDenied
	permissionWarning
)

// policyEvaluator decides whether an origin may modify a property.
type policyEvaluator struct {
	globalFlags      Flags
	reservedPrefixes []string
}

func newPolicyEvaluator(reservedPrefixes []string) *policyEvaluator {
	return &policyEvaluator{reservedPrefixes: reservedPrefixes}
}

// check evaluates the property's flags for the given origin. A per-property
// read-only bit is a hard denial; the global guest read-only flag is a soft one.
func (p *policyEvaluator) check(flags Flags, isGuest bool) permission {
	readOnlyBit := ReadOnlyHost
	if isGuest {
		readOnlyBit = ReadOnlyGuest
	}
	if flags&readOnlyBit != 0 {
		return permissionDenied
	}
	if isGuest && p.globalFlags&ReadOnlyGuest != 0 {
		return permissionWarning
	}
	return permissionGranted
}

// isReserved reports whether name lies in a host-controlled namespace.
func (p *policyEvaluator) isReserved(name string) bool {
	for _, prefix := range p.reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// authorize combines the flag check on the current flags with the reserved
// namespace rule. Hard denials win over the soft warning.
func (p *policyEvaluator) authorize(name string, current Flags, isGuest bool) error {
	perm := p.check(current, isGuest)
	if perm == permissionDenied {
		return ErrPermissionDenied
	}
	if isGuest && p.isReserved(name) {
		return ErrPermissionDenied
	}
	if perm == permissionWarning {
		return ErrGuestReadOnlyWarning
	}
	return nil
}

// effectiveFlags forces ReadOnlyGuest onto host writes in reserved namespaces.
func (p *policyEvaluator) effectiveFlags(name string, requested Flags, isGuest bool) Flags {
	if !isGuest && p.isReserved(name) {
		return requested | ReadOnlyGuest
	}
	return requested
}
