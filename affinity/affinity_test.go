package affinity

import (
	"errors"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPinRestoresMask(t *testing.T) {
	// Keep the whole test on one thread so Current observes the pinned mask.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before, err := Current()
	if errors.Is(err, ErrUnsupported) {
		t.Skip("pinning unsupported")
	}
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if len(before) == 0 {
		t.Fatalf("empty affinity mask")
	}

	cpu := before[0]
	restore, err := Pin(cpu)
	if err != nil {
		t.Skipf("cannot pin in this environment: %v", err)
	}

	pinned, err := Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if diff := cmp.Diff(pinned, []int{cpu}); diff != "" {
		t.Errorf("Wrong mask while pinned; diff (-got +want)\n%s", diff)
	}

	restore()

	after, err := Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if diff := cmp.Diff(after, before); diff != "" {
		t.Errorf("Mask not restored; diff (-got +want)\n%s", diff)
	}
}

func TestPinRejectsNegative(t *testing.T) {
	if _, err := Pin(-1); err == nil {
		t.Fatalf("Pin(-1) succeeded")
	}
}
