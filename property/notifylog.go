package property

import (
	"container/list"

	"github.com/jathurchan/guestprop/types"
)

// Event is a change or deletion recorded in the notification log.
// Whether the property was deleted is derived from the store when the event is
// delivered, not stored here.
type Event struct {
	Name      string
	Value     string
	Flags     Flags
	Timestamp types.Timestamp
}

// notificationLog is a bounded FIFO of recent events with strictly increasing
// timestamps. It has no locking of its own.
type notificationLog struct {
	entries  *list.List // of Event, oldest at the front
	capacity int
}

func newNotificationLog(capacity int) *notificationLog {
	return &notificationLog{entries: list.New(), capacity: capacity}
}

// nextTimestamp bumps ts just past the newest entry when it would not sort after it.
func (l *notificationLog) nextTimestamp(ts types.Timestamp) types.Timestamp {
	if back := l.entries.Back(); back != nil {
		if last := back.Value.(Event).Timestamp; ts <= last {
			return last + 1
		}
	}
	return ts
}

// makeRoom evicts the oldest entry when the log is full.
// Returns true if an entry was evicted.
func (l *notificationLog) makeRoom() bool {
	if l.entries.Len() < l.capacity {
		return false
	}
	l.entries.Remove(l.entries.Front())
	return true
}

func (l *notificationLog) append(ev Event) {
	l.entries.PushBack(ev)
}

func (l *notificationLog) len() int {
	return l.entries.Len()
}

// findAfter looks for the first event after the anchor timestamp whose name
// matches patterns. The anchor is searched from the newest entry backwards;
// when it is not in the log the scan starts at the oldest entry and anchorLost
// is set.
func (l *notificationLog) findAfter(since types.Timestamp, patterns string) (ev Event, found bool, anchorLost bool) {
	var start *list.Element
	anchorLost = true
	for e := l.entries.Back(); e != nil; e = e.Prev() {
		if e.Value.(Event).Timestamp == since {
			start = e.Next()
			anchorLost = false
			break
		}
	}
	if anchorLost {
		start = l.entries.Front()
	}

	for e := start; e != nil; e = e.Next() {
		candidate := e.Value.(Event)
		if matchPatterns(patterns, candidate.Name) {
			return candidate, true, anchorLost
		}
	}
	return Event{}, false, anchorLost
}
