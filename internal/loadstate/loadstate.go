// Package loadstate models the lifecycle of an asynchronous fetch as an explicit
// state machine shared by the list loader and the poller.
package loadstate

import "fmt"

// Phase is the current state of a fetch lifecycle.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Errored
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// CanTransition reports whether moving from p to next is allowed. Any phase may
// return to Idle (reset); Loading may only be left by settling.
func (p Phase) CanTransition(next Phase) bool {
	if next == Idle {
		return true
	}
	switch p {
	case Idle, Loaded, Errored:
		return next == Loading
	case Loading:
		return next == Loaded || next == Errored
	default:
		return false
	}
}

// Machine guards phase changes. The zero value starts Idle. It is not safe for
// concurrent use; owners hold their own lock.
type Machine struct {
	phase Phase
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// To moves to next when the transition is legal and reports whether it happened.
func (m *Machine) To(next Phase) bool {
	if !m.phase.CanTransition(next) {
		return false
	}
	m.phase = next
	return true
}

// Settle leaves Loading for Loaded or Errored depending on err.
func (m *Machine) Settle(err error) bool {
	if err != nil {
		return m.To(Errored)
	}
	return m.To(Loaded)
}
