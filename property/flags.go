package property

import (
	"strings"

	"golang.org/x/text/cases"
)

// Flags is the per-property (and global) attribute bit-set.
type Flags uint32

const (
	// NilFlag means no attributes.
	NilFlag Flags = 0

	// Transient properties are not meant to be persisted by the caller.
	Transient Flags = 0x2

	// ReadOnlyGuest properties cannot be changed by the guest.
	ReadOnlyGuest Flags = 0x4

	// ReadOnlyHost properties cannot be changed by the host.
	ReadOnlyHost Flags = 0x8

	// ReadOnly combines both read-only bits.
	ReadOnly = ReadOnlyGuest | ReadOnlyHost

	// TransReset properties are removed when the guest is reset.
	TransReset Flags = 0x10

	allFlags = Transient | ReadOnly | TransReset
)

// flagNames lists the textual names in output order. READONLY comes before the
// single-sided bits so it is preferred when both are set.
var flagNames = []struct {
	flag Flags
	name string
}{
	{Transient, "TRANSIENT"},
	{ReadOnly, "READONLY"},
	{ReadOnlyGuest, "RDONLYGUEST"},
	{ReadOnlyHost, "RDONLYHOST"},
	{TransReset, "TRANSRESET"},
}

// Has reports whether every bit of other is set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other && other != 0
}

// IsValid reports whether f contains only known bits.
func (f Flags) IsValid() bool {
	return f&^allFlags == 0
}

// String renders f as a comma-separated name list, e.g. "TRANSIENT, READONLY".
func (f Flags) String() string {
	var parts []string
	remaining := f
	for _, fn := range flagNames {
		if remaining&fn.flag == fn.flag {
			parts = append(parts, fn.name)
			remaining &^= fn.flag
		}
	}
	return strings.Join(parts, ", ")
}

// ParseFlags parses a comma-separated list of flag names. Names are matched
// without regard to case and surrounding blanks; an empty list yields NilFlag.
func ParseFlags(s string) (Flags, error) {
	if len(s) > MaxFlagsLength {
		return NilFlag, invalidParameter("flags list longer than %d bytes", MaxFlagsLength)
	}

	fold := cases.Fold()
	var flags Flags
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		folded := fold.String(token)
		matched := false
		for _, fn := range flagNames {
			if folded == fold.String(fn.name) {
				flags |= fn.flag
				matched = true
				break
			}
		}
		if !matched {
			return NilFlag, invalidParameter("unknown flag %q", token)
		}
	}
	return flags, nil
}
