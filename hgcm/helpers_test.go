package hgcm

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/property"
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

type mockDispatcherMetrics struct {
	NoOpDispatcherMetrics

	mu               sync.Mutex
	guestCalls       map[string]int
	validationErrors map[string]int
	rateLimited      int
	deferred         int
	activeClients    int
}

func newMockDispatcherMetrics() *mockDispatcherMetrics {
	return &mockDispatcherMetrics{
		guestCalls:       make(map[string]int),
		validationErrors: make(map[string]int),
	}
}

func (m *mockDispatcherMetrics) IncrGuestCall(fn GuestFunction, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guestCalls[fn.String()+":"+code]++
}

func (m *mockDispatcherMetrics) IncrValidationError(function string, field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationErrors[function+":"+field]++
}

func (m *mockDispatcherMetrics) IncrRateLimited(clientID types.ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

func (m *mockDispatcherMetrics) IncrDeferredCompletion(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred++
}

func (m *mockDispatcherMetrics) SetActiveClients(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeClients = count
}

const testClient types.ClientID = 3

func createTestDispatcher(t *testing.T, configure func(b *DispatcherBuilder)) (Dispatcher, property.Service, *mockDispatcherMetrics) {
	t.Helper()
	svc := property.NewService(property.WithLogger(logger.NewNoOpLogger()))
	metrics := newMockDispatcherMetrics()

	b := NewDispatcherBuilder().
		WithService(svc).
		WithClock(newMockClock()).
		WithMetrics(metrics)
	if configure != nil {
		configure(b)
	}
	d, err := b.Build()
	testutil.RequireNoError(t, err)
	testutil.RequireNoError(t, d.Connect(testClient))

	t.Cleanup(func() {
		_ = d.Close()
		_ = svc.Close()
	})
	return d, svc, metrics
}

// guestCall issues a call and waits for its completion.
func guestCall(t *testing.T, d Dispatcher, fn GuestFunction, params ...Param) *LocalCall {
	t.Helper()
	call := NewLocalCall(testClient, fn, params...)
	d.GuestCall(context.Background(), call)
	select {
	case <-call.Done():
	case <-time.After(time.Second):
		t.Fatalf("%s did not complete", fn)
	}
	return call
}

func assertCode(t *testing.T, call *LocalCall, want codes.Code) {
	t.Helper()
	st := call.Status()
	testutil.RequireNotNil(t, st)
	testutil.AssertEqual(t, want, st.Code(), "status: %v", st)
}

func patternList(patterns ...string) Param {
	var raw []byte
	for _, p := range patterns {
		raw = append(raw, p...)
		raw = append(raw, 0)
	}
	if len(patterns) == 0 {
		raw = []byte{0}
	}
	return BufferParam(raw)
}

// lockedBuffer is a log sink that tolerates writes from background goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// lineWith returns the first logged line containing msg.
func (b *lockedBuffer) lineWith(msg string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.Contains(line, msg) {
			return line
		}
	}
	return ""
}
