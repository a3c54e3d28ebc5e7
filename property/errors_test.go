package property

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jathurchan/guestprop/testutil"
)

func TestBufferOverflowError(t *testing.T) {
	err := fmt.Errorf("encoding: %w", newBufferOverflowError(99))

	testutil.AssertErrorIs(t, err, ErrBufferOverflow)
	required, ok := RequiredSize(err)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, 99, required)
	testutil.AssertContains(t, err.Error(), "99")

	_, ok = RequiredSize(ErrNotFound)
	testutil.AssertFalse(t, ok)
}

func TestIsWarning(t *testing.T) {
	testutil.AssertTrue(t, IsWarning(fmt.Errorf("wrapped: %w", ErrGuestReadOnlyWarning)))
	testutil.AssertFalse(t, IsWarning(ErrPermissionDenied))
	testutil.AssertFalse(t, IsWarning(nil))
}

func TestInvalidParameter(t *testing.T) {
	err := invalidParameter("name %q is bad", "x*")
	testutil.AssertTrue(t, errors.Is(err, ErrInvalidParameter))
	testutil.AssertContains(t, err.Error(), `"x*"`)
}
