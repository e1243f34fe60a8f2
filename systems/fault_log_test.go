package systems

import (
	"errors"
	"testing"
)

func TestFaultLogTruncates(t *testing.T) {
	fl := NewFaultLog(2)
	for i := 1; i <= 3; i++ {
		fl.Add(&EntityFaultError{Frame: uint64(i), Err: errors.New("boom")})
	}

	recent := fl.Recent(5)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 retained faults, got %d", len(recent))
	}
	if recent[0].Frame != 3 || recent[1].Frame != 2 {
		t.Errorf("Expected newest first [3 2], got [%d %d]", recent[0].Frame, recent[1].Frame)
	}
	if fl.Total() != 3 {
		t.Errorf("Expected total 3, got %d", fl.Total())
	}
}

func TestEntityFaultErrorMessage(t *testing.T) {
	cause := errors.New("nil sprite")
	f := &EntityFaultError{Phase: PhaseRender, Frame: 7, Index: 2, Entity: "bug", Err: cause}

	if got, want := f.Error(), "frame 7: render of entity 2 (bug): nil sprite"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(f, cause) {
		t.Error("Expected fault to unwrap to its cause")
	}
}
