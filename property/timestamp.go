package property

import (
	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/types"
)

// timestampGenerator hands out nanosecond ticks that are strictly increasing
// for the lifetime of the generator, even when the wall clock has coarse
// resolution or steps backwards.
//
// It is not safe for concurrent use; the service calls it under its lock.
type timestampGenerator struct {
	clock       clock.Clock
	last        types.Timestamp
	adjustments uint64 // consecutive ticks forced past the wall clock
}

func newTimestampGenerator(c clock.Clock) *timestampGenerator {
	return &timestampGenerator{clock: c}
}

// now returns the next tick. A wall-clock reading is accepted only when it has
// moved past every tick issued so far; otherwise the previous tick plus one is
// used and the adjustment streak grows.
func (g *timestampGenerator) now() types.Timestamp {
	wall := types.Timestamp(g.clock.Now().UnixNano())
	if wall > g.last {
		g.adjustments = 0
	} else {
		g.adjustments++
		wall = g.last + 1
	}
	g.last = wall
	return wall
}

// adjustmentStreak returns how many consecutive ticks were forced.
func (g *timestampGenerator) adjustmentStreak() uint64 {
	return g.adjustments
}
