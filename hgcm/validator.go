package hgcm

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/jathurchan/guestprop/logger"
)

// paramKind refines ParamType with how a buffer is interpreted.
type paramKind int

const (
	kindUint32 paramKind = iota
	kindUint64
	kindString      // NUL-terminated UTF-8
	kindPatternList // NUL-separated UTF-8 strings, NUL-terminated
	kindBuffer      // opaque buffer
)

type paramSpec struct {
	name string
	kind paramKind
}

var (
	getPropLayout = []paramSpec{
		{"name", kindString}, {"buffer", kindBuffer}, {"timestamp", kindUint64}, {"size", kindUint32},
	}
	setPropLayout      = []paramSpec{{"name", kindString}, {"value", kindString}, {"flags", kindString}}
	setPropValueLayout = []paramSpec{{"name", kindString}, {"value", kindString}}
	delPropLayout      = []paramSpec{{"name", kindString}}
	enumPropsLayout    = []paramSpec{
		{"patterns", kindPatternList}, {"buffer", kindBuffer}, {"size", kindUint32},
	}
	getNotificationLayout = []paramSpec{
		{"patterns", kindPatternList}, {"timestamp", kindUint64}, {"buffer", kindBuffer}, {"size", kindUint32},
	}
	setPropsLayout       = []paramSpec{{"properties", kindBuffer}}
	setGlobalFlagsLayout = []paramSpec{{"flags", kindUint32}}
	getDebugInfoLayout   = []paramSpec{{"buffer", kindBuffer}, {"size", kindUint32}}
)

var guestLayouts = map[GuestFunction][]paramSpec{
	GuestGetProp:         getPropLayout,
	GuestSetProp:         setPropLayout,
	GuestSetPropValue:    setPropValueLayout,
	GuestDelProp:         delPropLayout,
	GuestEnumProps:       enumPropsLayout,
	GuestGetNotification: getNotificationLayout,
}

var hostLayouts = map[HostFunction][]paramSpec{
	HostSetProps:       setPropsLayout,
	HostGetProp:        getPropLayout,
	HostSetProp:        setPropLayout,
	HostSetPropValue:   setPropValueLayout,
	HostDelProp:        delPropLayout,
	HostEnumProps:      enumPropsLayout,
	HostSetGlobalFlags: setGlobalFlagsLayout,
	HostGetDebugInfo:   getDebugInfoLayout,
}

// CallValidator checks parameter counts and types before a call is dispatched.
type CallValidator interface {
	// ValidateGuestCall validates the parameters of a guest call.
	ValidateGuestCall(fn GuestFunction, params []Param) error

	// ValidateHostCall validates the parameters of a host call.
	ValidateHostCall(fn HostFunction, params []Param) error
}

type callValidator struct {
	logger logger.Logger
}

// NewCallValidator creates the default call validator.
func NewCallValidator(logger logger.Logger) CallValidator {
	return &callValidator{logger: logger}
}

// ValidateGuestCall implements CallValidator.
func (v *callValidator) ValidateGuestCall(fn GuestFunction, params []Param) error {
	layout, ok := guestLayouts[fn]
	if !ok {
		return fmt.Errorf("%w: guest function %d", ErrUnknownFunction, uint32(fn))
	}
	return v.validateLayout(fn.String(), layout, params)
}

// ValidateHostCall implements CallValidator.
func (v *callValidator) ValidateHostCall(fn HostFunction, params []Param) error {
	layout, ok := hostLayouts[fn]
	if !ok {
		return fmt.Errorf("%w: host function %d", ErrUnknownFunction, uint32(fn))
	}
	return v.validateLayout(fn.String(), layout, params)
}

func (v *callValidator) validateLayout(function string, layout []paramSpec, params []Param) error {
	if len(params) != len(layout) {
		return NewValidationError("params", len(params),
			fmt.Sprintf("%s takes %d parameters", function, len(layout)))
	}
	for i, spec := range layout {
		if err := validateParam(spec, &params[i]); err != nil {
			v.logger.Debugw("Call parameter rejected", "function", function, "param", spec.name, "error", err)
			return err
		}
	}
	return nil
}

func validateParam(spec paramSpec, p *Param) error {
	want := ParamBuffer
	switch spec.kind {
	case kindUint32:
		want = ParamUint32
	case kindUint64:
		want = ParamUint64
	}
	if p.Type() != want {
		return NewValidationError(spec.name, p.Type(), fmt.Sprintf("must be a %s parameter", want))
	}

	switch spec.kind {
	case kindString:
		if _, err := p.CString(); err != nil {
			return NewValidationError(spec.name, nil, err.Error())
		}
	case kindPatternList:
		raw, _ := p.Buffer()
		if len(raw) == 0 || raw[len(raw)-1] != 0 {
			return NewValidationError(spec.name, nil, "pattern list is not NUL terminated")
		}
		for _, pattern := range bytes.Split(raw[:len(raw)-1], []byte{0}) {
			if !utf8.Valid(pattern) {
				return NewValidationError(spec.name, nil, "pattern is not valid UTF-8")
			}
		}
	}
	return nil
}
