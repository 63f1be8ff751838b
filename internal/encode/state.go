// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encode

// State represents the lifecycle state of an encode job.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinalizing
	StateSucceeded
	StateFailed
	StateCanceled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateFinalizing:
		return "Finalizing"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// IsTerminal returns true if the state is terminal (no further transitions).
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

// CanTransition validates if a state transition is legal.
func CanTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning || to == StateFailed || to == StateCanceled
	case StateRunning:
		return to == StateFinalizing || to == StateFailed || to == StateCanceled
	case StateFinalizing:
		return to == StateSucceeded || to == StateFailed
	default:
		return false
	}
}
