package property

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/types"
)

var (
	nameGen  = rapid.StringMatching(`/[A-Za-z0-9_]{1,12}(/[A-Za-z0-9_]{1,12}){0,3}`)
	valueGen = rapid.StringMatching(`[ -~]{0,64}`)
	flagsGen = rapid.Custom(func(t *rapid.T) Flags {
		return Flags(rapid.Uint32Range(0, 0x1f).Draw(t, "bits")) & allFlags
	})
)

func TestTimestampGenerator_StrictlyIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newMockClock()
		g := newTimestampGenerator(clock)

		var last types.Timestamp
		steps := rapid.SliceOfN(rapid.Int64Range(-int64(time.Second), int64(time.Second)), 1, 100).Draw(t, "steps")
		for _, step := range steps {
			clock.Advance(time.Duration(step))
			ts := g.now()
			if ts <= last {
				t.Fatalf("timestamp %d not after %d", ts, last)
			}
			last = ts
		}
	})
}

func TestFlags_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := flagsGen.Draw(t, "flags")
		parsed, err := ParseFlags(f.String())
		if err != nil {
			t.Fatalf("ParseFlags(%q): %v", f.String(), err)
		}
		if parsed != f {
			t.Fatalf("round trip of %s gave %s", f, parsed)
		}
	})
}

func TestMatchPattern_SelfAndStar(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := nameGen.Draw(t, "name")
		if !matchPatterns(name, name) {
			t.Fatalf("%q does not match itself", name)
		}
		if !matchPatterns("*", name) {
			t.Fatalf("%q does not match '*'", name)
		}
		if !matchPatterns("/*", name) {
			t.Fatalf("%q does not match '/*'", name)
		}
	})
}

func TestEnumeration_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		props := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) Property {
			return Property{
				Name:      nameGen.Draw(t, "name"),
				Value:     valueGen.Draw(t, "value"),
				Timestamp: types.Timestamp(rapid.Uint64().Draw(t, "ts")),
				Flags:     flagsGen.Draw(t, "flags"),
			}
		}), 0, 16).Draw(t, "props")

		data, err := EncodeEnumeration(props, 1<<16)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, err := DecodeEnumeration(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != len(props) {
			t.Fatalf("decoded %d properties, want %d", len(out), len(props))
		}
		for i := range props {
			if out[i] != props[i] {
				t.Fatalf("entry %d: got %+v, want %+v", i, out[i], props[i])
			}
		}
	})
}

func TestService_SetGetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewService(
			WithClock(newMockClock()),
			WithLogger(logger.NewNoOpLogger()),
			WithReservedPrefixes([]string{}),
		)
		defer s.Close()
		ctx := context.Background()

		var last types.Timestamp
		writes := rapid.IntRange(1, 20).Draw(t, "writes")
		for range writes {
			name := nameGen.Draw(t, "name")
			value := valueGen.Draw(t, "value")
			flags := flagsGen.Draw(t, "flags") &^ ReadOnlyHost

			ts, err := s.SetProperty(ctx, types.OriginHost, name, value, flags)
			if err != nil {
				t.Fatalf("set %q: %v", name, err)
			}
			if ts <= last {
				t.Fatalf("timestamp %d not after %d", ts, last)
			}
			last = ts

			p, err := s.GetProperty(ctx, name)
			if err != nil {
				t.Fatalf("get %q: %v", name, err)
			}
			if p.Value != value || p.Flags != flags || p.Timestamp != ts {
				t.Fatalf("got %+v, want value=%q flags=%s ts=%d", p, value, flags, ts)
			}
		}
	})
}
