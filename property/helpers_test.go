package property

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/testutil"
	"github.com/jathurchan/guestprop/types"
)

type mockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

func newMockClock() *mockClock {
	return &mockClock{currentTime: time.Unix(1_700_000_000, 0)}
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *mockClock) Since(t time.Time) time.Duration { return m.Now().Sub(t) }

func (m *mockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

func (m *mockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// mockCall records the completion of a parked wait.
type mockCall struct {
	mu        sync.Mutex
	cancelled bool
	completed int
	n         *Notification
	err       error
	done      chan struct{}
}

func newMockCall() *mockCall {
	return &mockCall{done: make(chan struct{})}
}

func (c *mockCall) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *mockCall) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

func (c *mockCall) Complete(n *Notification, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	c.n = n
	c.err = err
	if c.completed == 1 {
		close(c.done)
	}
}

func (c *mockCall) result() (*Notification, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n, c.completed, c.err
}

func (c *mockCall) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// mockHostCallback collects relayed notifications.
type mockHostCallback struct {
	mu            sync.Mutex
	notifications []HostNotification
}

func (m *mockHostCallback) NotifyHost(n HostNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

func (m *mockHostCallback) received() []HostNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HostNotification(nil), m.notifications...)
}

// mockMetrics counts the calls the tests care about.
type mockMetrics struct {
	NoOpMetrics

	mu             sync.Mutex
	denied         int
	softDenied     int
	evictions      int
	released       map[ReleaseReason]int
	relayDropped   int
	adjustments    int
	pendingWaiters int
	propertyCount  int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{released: make(map[ReleaseReason]int)}
}

func (m *mockMetrics) IncrPermissionDenied(guest bool, soft bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if soft {
		m.softDenied++
		return
	}
	m.denied++
}

func (m *mockMetrics) IncrNotification(evicted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evicted {
		m.evictions++
	}
}

func (m *mockMetrics) IncrWaiterReleased(reason ReleaseReason, waited time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released[reason]++
}

func (m *mockMetrics) IncrRelayDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayDropped++
}

func (m *mockMetrics) ObserveTimestampAdjustment(streak uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments++
}

func (m *mockMetrics) SetPendingWaiters(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingWaiters = count
}

func (m *mockMetrics) SetPropertyCount(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.propertyCount = count
}

func (m *mockMetrics) releasedFor(reason ReleaseReason) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[reason]
}

func createTestService(t *testing.T, opts ...ServiceOption) (*service, *mockClock) {
	t.Helper()
	clock := newMockClock()
	all := append([]ServiceOption{
		WithClock(clock),
		WithLogger(logger.NewNoOpLogger()),
	}, opts...)

	s, ok := NewService(all...).(*service)
	testutil.AssertTrue(t, ok, "Expected *service type")
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func mustSet(t *testing.T, s Service, origin types.Origin, name, value string, flags Flags) types.Timestamp {
	t.Helper()
	ts, err := s.SetProperty(context.Background(), origin, name, value, flags)
	testutil.RequireNoError(t, err, "set %s", name)
	return ts
}

func waitFor(t *testing.T, c *mockCall) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for call completion")
	}
}
