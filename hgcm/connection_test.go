package hgcm

import (
	"testing"
	"time"

	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/testutil"
	"github.com/jathurchan/guestprop/types"
)

func TestClientManager_Lifecycle(t *testing.T) {
	clock := newMockClock()
	metrics := newMockDispatcherMetrics()
	cm := NewClientManager(2, metrics, logger.NewNoOpLogger(), clock)

	testutil.RequireNoError(t, cm.OnConnect(1))
	testutil.AssertErrorIs(t, cm.OnConnect(1), ErrClientExists)
	testutil.RequireNoError(t, cm.OnConnect(2))
	testutil.AssertErrorIs(t, cm.OnConnect(3), ErrTooManyClients)
	testutil.AssertEqual(t, 2, cm.ActiveClients())
	testutil.AssertEqual(t, 2, metrics.activeClients)

	clock.Advance(time.Minute)
	session, ok := cm.OnCall(1)
	testutil.AssertTrue(t, ok)
	testutil.AssertTrue(t, cm.Connected(1, session))
	_, ok = cm.OnCall(1)
	testutil.AssertTrue(t, ok)
	_, ok = cm.OnCall(9)
	testutil.AssertFalse(t, ok)

	info := cm.AllClientInfo()[1]
	testutil.AssertEqual(t, int64(2), info.CallCount)
	testutil.AssertEqual(t, time.Minute, info.LastActive.Sub(info.ConnectedAt))

	testutil.AssertTrue(t, cm.OnDisconnect(1))
	testutil.AssertFalse(t, cm.OnDisconnect(1))
	testutil.AssertFalse(t, cm.Connected(1, session))
	testutil.AssertEqual(t, 1, cm.ActiveClients())
	testutil.AssertEqual(t, 1, metrics.activeClients)
}

func TestClientManager_ReconnectStartsNewSession(t *testing.T) {
	cm := NewClientManager(0, nil, logger.NewNoOpLogger(), newMockClock())

	testutil.RequireNoError(t, cm.OnConnect(4))
	first, _ := cm.OnCall(4)
	cm.OnDisconnect(4)
	testutil.RequireNoError(t, cm.OnConnect(4))
	second, _ := cm.OnCall(4)

	testutil.AssertTrue(t, first != second)
	testutil.AssertFalse(t, cm.Connected(4, first))
	testutil.AssertTrue(t, cm.Connected(4, second))
	testutil.AssertEqual(t, second, cm.AllClientInfo()[4].Session)
}

func TestClientManager_Unlimited(t *testing.T) {
	cm := NewClientManager(0, nil, logger.NewNoOpLogger(), nil)
	for id := range types.ClientID(100) {
		testutil.RequireNoError(t, cm.OnConnect(id+1))
	}
	testutil.AssertEqual(t, 100, cm.ActiveClients())
}

func TestClientManager_SnapshotIsCopy(t *testing.T) {
	cm := NewClientManager(0, nil, logger.NewNoOpLogger(), newMockClock())
	testutil.RequireNoError(t, cm.OnConnect(5))

	snapshot := cm.AllClientInfo()
	info := snapshot[5]
	info.CallCount = 99
	snapshot[5] = info
	testutil.AssertEqual(t, int64(0), cm.AllClientInfo()[5].CallCount)
}
