package property

import (
	"strings"
	"testing"

	"github.com/jathurchan/guestprop/testutil"
)

func TestMatchPatterns(t *testing.T) {
	tests := []struct {
		patterns string
		name     string
		want     bool
	}{
		{"", "/anything/at/all", true},
		{"/VirtualBox/*", "/VirtualBox/GuestInfo/OS/Product", true},
		{"/VirtualBox/*", "/Other/Thing", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"foo|bar*", "barbaz", true},
		{"foo|bar*", "foo", true},
		{"foo|bar*", "baz", false},
		{"*", "", true},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "axxbyy", false},
		{"abc", "abcd", false},
		{"caf?", "café", true},
		{"*Net/0/*", "/VirtualBox/GuestInfo/Net/0/V4/IP", true},
	}
	for _, tt := range tests {
		got := matchPatterns(tt.patterns, tt.name)
		testutil.AssertEqual(t, tt.want, got, "match(%q, %q)", tt.patterns, tt.name)
	}
}

func TestValidatePatterns(t *testing.T) {
	testutil.AssertNoError(t, validatePatterns(""))
	testutil.AssertNoError(t, validatePatterns("/a/*|/b/?"))
	testutil.AssertErrorIs(t, validatePatterns(strings.Repeat("a", MaxPatternsLength+1)), ErrInvalidParameter)
	testutil.AssertErrorIs(t, validatePatterns("bad\xff"), ErrInvalidParameter)
	testutil.AssertErrorIs(t, validatePatterns("a\x00b"), ErrInvalidParameter)
}

func TestJoinPatterns(t *testing.T) {
	testutil.AssertEqual(t, "a|b*", JoinPatterns("a\x00b*\x00\x00"))
	testutil.AssertEqual(t, "single", JoinPatterns("single"))
	testutil.AssertEqual(t, "", JoinPatterns("\x00"))
}
