package property

import (
	"strings"
	"unicode/utf8"
)

// validateName checks a property name: non-empty, bounded, UTF-8, and free of
// pattern metacharacters so names can never be mistaken for patterns.
func validateName(name string) error {
	if name == "" {
		return invalidParameter("name is empty")
	}
	if len(name) > MaxNameLength {
		return invalidParameter("name longer than %d bytes", MaxNameLength)
	}
	if !utf8.ValidString(name) {
		return invalidParameter("name is not valid UTF-8")
	}
	if strings.ContainsAny(name, "*?|\x00") {
		return invalidParameter("name %q contains a reserved character", name)
	}
	return nil
}

// validateValue checks a property value. Empty values are allowed.
func validateValue(value string) error {
	if len(value) > MaxValueLength {
		return invalidParameter("value longer than %d bytes", MaxValueLength)
	}
	if !utf8.ValidString(value) {
		return invalidParameter("value is not valid UTF-8")
	}
	if strings.ContainsRune(value, 0) {
		return invalidParameter("value contains a NUL byte")
	}
	return nil
}

func validateFlags(flags Flags) error {
	if !flags.IsValid() {
		return invalidParameter("unknown flag bits 0x%x", uint32(flags&^allFlags))
	}
	return nil
}
