package hgcm

import (
	"errors"
	"testing"

	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/testutil"
)

func TestCallValidator_Guest(t *testing.T) {
	v := NewCallValidator(logger.NewNoOpLogger())

	tests := []struct {
		name    string
		fn      GuestFunction
		params  []Param
		wantErr bool
		field   string
	}{
		{
			name:   "valid set",
			fn:     GuestSetProp,
			params: []Param{StringParam("/a"), StringParam("v"), StringParam("TRANSIENT")},
		},
		{
			name:    "wrong count",
			fn:      GuestSetPropValue,
			params:  []Param{StringParam("/a")},
			wantErr: true,
			field:   "params",
		},
		{
			name:    "wrong type",
			fn:      GuestDelProp,
			params:  []Param{Uint32Param(1)},
			wantErr: true,
			field:   "name",
		},
		{
			name:    "unterminated name",
			fn:      GuestDelProp,
			params:  []Param{BufferParam([]byte("/a"))},
			wantErr: true,
			field:   "name",
		},
		{
			name:   "valid wait",
			fn:     GuestGetNotification,
			params: []Param{patternList("/a/*", "/b"), Uint64Param(0), OutBufferParam(64), Uint32Param(0)},
		},
		{
			name:   "empty pattern list",
			fn:     GuestEnumProps,
			params: []Param{patternList(), OutBufferParam(64), Uint32Param(0)},
		},
		{
			name:    "unterminated pattern list",
			fn:      GuestEnumProps,
			params:  []Param{BufferParam([]byte("/a")), OutBufferParam(64), Uint32Param(0)},
			wantErr: true,
			field:   "patterns",
		},
		{
			name:    "timestamp must be uint64",
			fn:      GuestGetProp,
			params:  []Param{StringParam("/a"), OutBufferParam(8), Uint32Param(0), Uint32Param(0)},
			wantErr: true,
			field:   "timestamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateGuestCall(tt.fn, tt.params)
			if !tt.wantErr {
				testutil.AssertNoError(t, err)
				return
			}
			var validationErr *ValidationError
			testutil.AssertTrue(t, errors.As(err, &validationErr), "got %v", err)
			testutil.AssertEqual(t, tt.field, validationErr.Field)
		})
	}
}

func TestCallValidator_UnknownFunction(t *testing.T) {
	v := NewCallValidator(logger.NewNoOpLogger())
	testutil.AssertErrorIs(t, v.ValidateGuestCall(GuestFunction(42), nil), ErrUnknownFunction)
	testutil.AssertErrorIs(t, v.ValidateHostCall(HostFunction(0), nil), ErrUnknownFunction)
}

func TestCallValidator_Host(t *testing.T) {
	v := NewCallValidator(logger.NewNoOpLogger())
	testutil.AssertNoError(t, v.ValidateHostCall(HostSetGlobalFlags, []Param{Uint32Param(4)}))
	testutil.AssertError(t, v.ValidateHostCall(HostSetGlobalFlags, []Param{StringParam("RDONLYGUEST")}))
	testutil.AssertNoError(t, v.ValidateHostCall(HostGetDebugInfo, []Param{OutBufferParam(16), Uint32Param(0)}))
}
