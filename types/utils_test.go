package types

import (
	"testing"
)

func TestOrigin_String(t *testing.T) {
	tests := []struct {
		name     string
		origin   Origin
		expected string
	}{
		{name: "host origin", origin: OriginHost, expected: "host"},
		{name: "guest origin", origin: OriginGuest, expected: "guest"},
		{name: "invalid origin returns unknown", origin: Origin(42), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.origin.String(); got != tt.expected {
				t.Errorf("Origin(%d).String() = %q, want %q", tt.origin, got, tt.expected)
			}
		})
	}
}

func TestOrigin_IsGuest(t *testing.T) {
	if OriginHost.IsGuest() {
		t.Error("OriginHost.IsGuest() = true, want false")
	}
	if !OriginGuest.IsGuest() {
		t.Error("OriginGuest.IsGuest() = false, want true")
	}
}

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		ts       Timestamp
		expected string
	}{
		{0, "0"},
		{42, "42"},
		{18446744073709551615, "18446744073709551615"},
	}

	for _, tt := range tests {
		if got := tt.ts.String(); got != tt.expected {
			t.Errorf("Timestamp(%d).String() = %q, want %q", uint64(tt.ts), got, tt.expected)
		}
	}
}

func TestCallID(t *testing.T) {
	var zero CallID
	if !zero.IsZero() {
		t.Error("zero CallID should report IsZero")
	}

	a := NewCallID()
	b := NewCallID()
	if a.IsZero() || b.IsZero() {
		t.Fatal("NewCallID returned a zero handle")
	}
	if a == b {
		t.Errorf("NewCallID returned duplicate handles: %s", a)
	}
	if len(a.String()) != 26 {
		t.Errorf("CallID string length = %d, want 26", len(a.String()))
	}
}
