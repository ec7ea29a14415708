package pipeline

import (
	"time"

	"github.com/scan-io-git/codemedic/internal/agents"
)

// State is a pipeline state.
type State string

const (
	StateIdle       State = "idle"
	StateDetecting  State = "detecting"
	StateClean      State = "clean"
	StateFixing     State = "fixing"
	StateValidating State = "validating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateDetecting, StateFailed},
	StateDetecting:  {StateClean, StateFixing, StateFailed},
	StateFixing:     {StateValidating, StateFailed},
	StateValidating: {StateDone, StateFailed},
}

// CanTransition reports whether the state machine allows moving from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClean || s == StateDone || s == StateFailed
}

// Succeeded reports whether the state is a successful end state.
func (s State) Succeeded() bool {
	return s == StateClean || s == StateDone
}

// EventKind distinguishes progress events.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventRetry      EventKind = "retry"
)

// Event is one progress notification of a run.
type Event struct {
	Kind        EventKind     `json:"kind"`
	From        State         `json:"from,omitempty"`
	To          State         `json:"to,omitempty"`
	Stage       agents.Stage  `json:"stage,omitempty"`
	Attempt     int           `json:"attempt,omitempty"`
	MaxAttempts int           `json:"max_attempts,omitempty"`
	Delay       time.Duration `json:"delay,omitempty"`
	At          time.Time     `json:"at"`
}

// Observer receives events synchronously as the run progresses.
type Observer func(Event)
