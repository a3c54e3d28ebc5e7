package property

import (
	"bytes"
	"strconv"

	"github.com/jathurchan/guestprop/types"
)

// fitBuffer returns data when it fits in bufferSize, otherwise a
// *BufferOverflowError carrying the required size.
func fitBuffer(data []byte, bufferSize int) ([]byte, error) {
	if len(data) > bufferSize {
		return nil, newBufferOverflowError(len(data))
	}
	return data, nil
}

func writeField(b *bytes.Buffer, s string) {
	b.WriteString(s)
	b.WriteByte(0)
}

// EncodeValue lays out a property as "value\0flags\0".
func EncodeValue(p Property, bufferSize int) ([]byte, error) {
	var b bytes.Buffer
	writeField(&b, p.Value)
	writeField(&b, p.Flags.String())
	return fitBuffer(b.Bytes(), bufferSize)
}

// EncodeEnumeration lays out each property as "name\0value\0timestamp\0flags\0"
// followed by four empty fields.
func EncodeEnumeration(props []Property, bufferSize int) ([]byte, error) {
	var b bytes.Buffer
	for _, p := range props {
		writeField(&b, p.Name)
		writeField(&b, p.Value)
		writeField(&b, p.Timestamp.String())
		writeField(&b, p.Flags.String())
	}
	b.Write([]byte{0, 0, 0, 0})
	return fitBuffer(b.Bytes(), bufferSize)
}

// encodeNotification lays out an event as "name\0value\0flags\0wasDeleted\0".
func encodeNotification(ev Event, wasDeleted bool, bufferSize int) ([]byte, error) {
	var b bytes.Buffer
	writeField(&b, ev.Name)
	writeField(&b, ev.Value)
	writeField(&b, ev.Flags.String())
	if wasDeleted {
		writeField(&b, "1")
	} else {
		writeField(&b, "0")
	}
	return fitBuffer(b.Bytes(), bufferSize)
}

// DecodeEnumeration parses a buffer produced by EnumerateProperties.
func DecodeEnumeration(data []byte) ([]Property, error) {
	fields := bytes.Split(data, []byte{0})
	var props []Property
	for i := 0; i+3 < len(fields); i += 4 {
		if len(fields[i]) == 0 {
			return props, nil
		}
		ts, err := parseTimestamp(string(fields[i+2]))
		if err != nil {
			return nil, err
		}
		flags, err := ParseFlags(string(fields[i+3]))
		if err != nil {
			return nil, err
		}
		props = append(props, Property{
			Name:      string(fields[i]),
			Value:     string(fields[i+1]),
			Timestamp: ts,
			Flags:     flags,
		})
	}
	return nil, invalidParameter("enumeration buffer is not terminated")
}

func parseTimestamp(s string) (types.Timestamp, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, invalidParameter("timestamp %q is not a decimal tick", s)
	}
	return types.Timestamp(v), nil
}
