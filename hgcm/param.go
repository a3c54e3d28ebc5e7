package hgcm

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/jathurchan/guestprop/property"
)

// ParamType is the wire type of a call parameter.
type ParamType int

const (
	ParamUint32 ParamType = iota + 1
	ParamUint64
	ParamBuffer
)

func (t ParamType) String() string {
	switch t {
	case ParamUint32:
		return "uint32"
	case ParamUint64:
		return "uint64"
	case ParamBuffer:
		return "buffer"
	default:
		return "invalid"
	}
}

// Param is a single typed call parameter. Buffer parameters have a fixed
// capacity chosen by the caller; output is written into that space.
type Param struct {
	typ ParamType
	u32 uint32
	u64 uint64
	buf []byte
}

// Uint32Param returns a 32-bit integer parameter.
func Uint32Param(v uint32) Param { return Param{typ: ParamUint32, u32: v} }

// Uint64Param returns a 64-bit integer parameter.
func Uint64Param(v uint64) Param { return Param{typ: ParamUint64, u64: v} }

// BufferParam returns a buffer parameter holding data.
func BufferParam(data []byte) Param { return Param{typ: ParamBuffer, buf: data} }

// StringParam returns a NUL-terminated string buffer.
func StringParam(s string) Param {
	return BufferParam(append([]byte(s), 0))
}

// OutBufferParam returns an empty buffer of the given capacity for results.
func OutBufferParam(size int) Param {
	return BufferParam(make([]byte, size))
}

// Type reports the parameter's wire type.
func (p *Param) Type() ParamType { return p.typ }

func (p *Param) expect(t ParamType) error {
	if p.typ != t {
		return fmt.Errorf("%w: parameter is %s, expected %s", property.ErrInvalidParameter, p.typ, t)
	}
	return nil
}

// Uint32 returns the value of a uint32 parameter.
func (p *Param) Uint32() (uint32, error) {
	if err := p.expect(ParamUint32); err != nil {
		return 0, err
	}
	return p.u32, nil
}

// Uint64 returns the value of a uint64 parameter.
func (p *Param) Uint64() (uint64, error) {
	if err := p.expect(ParamUint64); err != nil {
		return 0, err
	}
	return p.u64, nil
}

// Buffer returns the raw bytes of a buffer parameter.
func (p *Param) Buffer() ([]byte, error) {
	if err := p.expect(ParamBuffer); err != nil {
		return nil, err
	}
	return p.buf, nil
}

// Size returns the capacity of a buffer parameter.
func (p *Param) Size() (int, error) {
	if err := p.expect(ParamBuffer); err != nil {
		return 0, err
	}
	return len(p.buf), nil
}

// CString decodes a buffer parameter holding a NUL-terminated UTF-8 string.
func (p *Param) CString() (string, error) {
	raw, err := p.Buffer()
	if err != nil {
		return "", err
	}
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: string is not NUL terminated", property.ErrInvalidParameter)
	}
	if !utf8.Valid(raw[:end]) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", property.ErrInvalidParameter)
	}
	return string(raw[:end]), nil
}

// SetUint32 stores v into a uint32 parameter.
func (p *Param) SetUint32(v uint32) error {
	if err := p.expect(ParamUint32); err != nil {
		return err
	}
	p.u32 = v
	return nil
}

// SetUint64 stores v into a uint64 parameter.
func (p *Param) SetUint64(v uint64) error {
	if err := p.expect(ParamUint64); err != nil {
		return err
	}
	p.u64 = v
	return nil
}

// Write copies data to the start of a buffer parameter.
func (p *Param) Write(data []byte) error {
	if err := p.expect(ParamBuffer); err != nil {
		return err
	}
	if len(data) > len(p.buf) {
		return fmt.Errorf("%w: %d bytes do not fit in %d", property.ErrBufferOverflow, len(data), len(p.buf))
	}
	copy(p.buf, data)
	return nil
}
