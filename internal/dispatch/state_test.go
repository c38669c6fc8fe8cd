package dispatch

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StatePending, "Pending"},
		{StateInFlight, "InFlight"},
		{StateRetryScheduled, "RetryScheduled"},
		{StateSucceeded, "Succeeded"},
		{StateFailed, "Failed"},
		{StateCancelled, "Cancelled"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []State{StateSucceeded, StateFailed, StateCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateInFlight, StateRetryScheduled} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestInvalidTransitionPanics(t *testing.T) {
	item := newWorkItem(nil)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for Pending -> Succeeded")
		}
	}()
	item.moveTo(StateSucceeded)
}
