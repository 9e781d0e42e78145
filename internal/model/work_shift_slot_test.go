package model

import "testing"

func TestIsValidTransition_AllowedPairs(t *testing.T) {
	allowed := [][2]string{
		{StatusOpen, StatusInvited},
		{StatusOpen, StatusConfirmed},
		{StatusOpen, StatusCancelled},
		{StatusInvited, StatusConfirmed},
		{StatusInvited, StatusOpen},
		{StatusInvited, StatusCancelled},
		{StatusInvited, StatusRejected},
		{StatusConfirmed, StatusCheckedIn},
		{StatusConfirmed, StatusAbsent},
		{StatusConfirmed, StatusCancelled},
		{StatusCheckedIn, StatusPendingCompletion},
		{StatusCheckedIn, StatusAbsent},
		{StatusPendingCompletion, StatusCompleted},
	}
	for _, pair := range allowed {
		if !IsValidTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
}

func TestIsValidTransition_ForbiddenPairs(t *testing.T) {
	allowed := map[[2]string]bool{
		{StatusOpen, StatusInvited}:                  true,
		{StatusOpen, StatusConfirmed}:                true,
		{StatusOpen, StatusCancelled}:                true,
		{StatusInvited, StatusConfirmed}:             true,
		{StatusInvited, StatusOpen}:                  true,
		{StatusInvited, StatusCancelled}:             true,
		{StatusInvited, StatusRejected}:              true,
		{StatusConfirmed, StatusCheckedIn}:           true,
		{StatusConfirmed, StatusAbsent}:              true,
		{StatusConfirmed, StatusCancelled}:           true,
		{StatusCheckedIn, StatusPendingCompletion}:   true,
		{StatusCheckedIn, StatusAbsent}:              true,
		{StatusPendingCompletion, StatusCompleted}:   true,
	}

	// every pair not in the table above must be rejected
	for _, from := range SlotStatuses {
		for _, to := range SlotStatuses {
			if allowed[[2]string{from, to}] {
				continue
			}
			if IsValidTransition(from, to) {
				t.Errorf("expected %s -> %s to be rejected", from, to)
			}
		}
	}
}

func TestIsValidTransition_UnknownStatus(t *testing.T) {
	if IsValidTransition("BOGUS", StatusOpen) {
		t.Error("unknown source status must be rejected")
	}
	if IsValidTransition(StatusOpen, "BOGUS") {
		t.Error("unknown target status must be rejected")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{StatusCompleted, StatusAbsent, StatusCancelled, StatusRejected}
	for _, s := range terminal {
		if !IsTerminalStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	nonTerminal := []string{StatusOpen, StatusInvited, StatusConfirmed, StatusCheckedIn, StatusPendingCompletion}
	for _, s := range nonTerminal {
		if IsTerminalStatus(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
