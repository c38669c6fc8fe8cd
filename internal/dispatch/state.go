package dispatch

import (
	"fmt"

	"codeberg.org/snonux/sheettrans/internal/extract"
)

// State is the lifecycle position of a WorkItem
type State int

const (
	StatePending State = iota
	StateInFlight
	StateRetryScheduled
	StateSucceeded
	StateFailed
	StateCancelled
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateInFlight:
		return "InFlight"
	case StateRetryScheduled:
		return "RetryScheduled"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

var transitions = map[State][]State{
	StatePending:        {StateInFlight, StateCancelled},
	StateInFlight:       {StateSucceeded, StateRetryScheduled, StateFailed},
	StateRetryScheduled: {StateInFlight, StateCancelled},
}

// WorkItem tracks one unit through the dispatcher. It is owned by a single
// worker while the run is active.
type WorkItem struct {
	Unit     *extract.Unit
	State    State
	Attempts int
	LastErr  error
	Result   string
	// Unprotected is set when the text could not be shielded and was sent
	// to the backend raw
	Unprotected bool
	// History lists every state the item has been in, oldest first
	History []State
}

func newWorkItem(u *extract.Unit) *WorkItem {
	return &WorkItem{Unit: u, State: StatePending, History: []State{StatePending}}
}

func (w *WorkItem) moveTo(to State) {
	for _, allowed := range transitions[w.State] {
		if allowed == to {
			w.State = to
			w.History = append(w.History, to)
			return
		}
	}
	panic(fmt.Sprintf("dispatch: invalid transition %s -> %s", w.State, to))
}
