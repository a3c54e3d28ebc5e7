package property

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jathurchan/guestprop/testutil"
	"github.com/jathurchan/guestprop/types"
)

func TestService_Dump(t *testing.T) {
	s, _ := createTestService(t)
	tsB := mustSet(t, s, types.OriginGuest, "/b", "2", NilFlag)
	tsA := mustSet(t, s, types.OriginGuest, "/a", "1", Transient|ReadOnly)

	var buf bytes.Buffer
	testutil.RequireNoError(t, s.Dump(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	testutil.AssertEqual(t, []string{
		fmt.Sprintf("/a=1, ts=%d, flags=TRANSIENT, READONLY", tsA),
		fmt.Sprintf("/b=2, ts=%d, flags=", tsB),
	}, lines)

	testutil.RequireNoError(t, s.SetGlobalFlags(ReadOnlyGuest))
	buf.Reset()
	testutil.RequireNoError(t, s.Dump(&buf))
	testutil.AssertContains(t, buf.String(), "global flags: RDONLYGUEST")
}
