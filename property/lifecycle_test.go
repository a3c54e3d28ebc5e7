package property

import (
	"context"
	"testing"

	"github.com/jathurchan/guestprop/testutil"
	"github.com/jathurchan/guestprop/types"
)

func TestService_PowerOn(t *testing.T) {
	s, _ := createTestService(t, WithProductInfo(ProductInfo{
		Version:    "7.1.4",
		VersionExt: "7.1.4_Ubuntu",
		Revision:   "165100",
	}))
	ctx := context.Background()

	testutil.RequireNoError(t, s.PowerOn(ctx))

	for name, want := range map[string]string{
		PropHostVersion:    "7.1.4",
		PropHostVersionExt: "7.1.4_Ubuntu",
		PropHostRevision:   "165100",
	} {
		p, err := s.GetProperty(ctx, name)
		testutil.AssertNoError(t, err, name)
		testutil.AssertEqual(t, want, p.Value, name)
		testutil.AssertEqual(t, Transient|ReadOnlyGuest, p.Flags, name)
	}

	_, err := s.SetProperty(ctx, types.OriginGuest, PropHostVersion, "forged", NilFlag)
	testutil.AssertErrorIs(t, err, ErrPermissionDenied)
}

func TestService_Resume(t *testing.T) {
	s, _ := createTestService(t)
	ctx := context.Background()

	testutil.RequireNoError(t, s.Resume(ctx))
	testutil.RequireNoError(t, s.Resume(ctx))

	p, err := s.GetProperty(ctx, PropResumeCounter)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "2", p.Value)
}

func TestService_ResumeRestartsGarbledCounter(t *testing.T) {
	s, _ := createTestService(t)
	ctx := context.Background()
	mustSet(t, s, types.OriginHost, PropResumeCounter, "garbage", NilFlag)

	testutil.RequireNoError(t, s.Resume(ctx))
	p, _ := s.GetProperty(ctx, PropResumeCounter)
	testutil.AssertEqual(t, "1", p.Value)
}

func TestService_Reset(t *testing.T) {
	s, _ := createTestService(t)
	ctx := context.Background()

	mustSet(t, s, types.OriginGuest, "/session/user", "alice", TransReset)
	mustSet(t, s, types.OriginGuest, "/session/lang", "en", TransReset|Transient)
	mustSet(t, s, types.OriginGuest, "/kept", "yes", Transient)

	call := newMockCall()
	_, err := s.GetNotification(ctx, WaitRequest{ClientID: guestClient, Patterns: "/session/user", BufferSize: 64}, call)
	testutil.AssertErrorIs(t, err, ErrAsyncPending)

	testutil.RequireNoError(t, s.Reset(ctx))

	_, err = s.GetProperty(ctx, "/session/user")
	testutil.AssertErrorIs(t, err, ErrNotFound)
	_, err = s.GetProperty(ctx, "/session/lang")
	testutil.AssertErrorIs(t, err, ErrNotFound)
	_, err = s.GetProperty(ctx, "/kept")
	testutil.AssertNoError(t, err)

	p, err := s.GetProperty(ctx, PropResetCounter)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "1", p.Value)

	waitFor(t, call)
	n, _, err := call.result()
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, n.WasDeleted, "waiters see reset removals as deletions")
}

func TestService_LifecycleAfterClose(t *testing.T) {
	s, _ := createTestService(t)
	ctx := context.Background()
	testutil.RequireNoError(t, s.Close())

	testutil.AssertErrorIs(t, s.PowerOn(ctx), ErrServiceClosed)
	testutil.AssertErrorIs(t, s.Resume(ctx), ErrServiceClosed)
	testutil.AssertErrorIs(t, s.Reset(ctx), ErrServiceClosed)
}
