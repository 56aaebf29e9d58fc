package signal

import "fmt"

// AcceptState tells which kind of requests a scheduler can take.
type AcceptState int

// The possible accept states.
const (
	AcceptBoth AcceptState = iota
	AcceptRead
	AcceptWrite
	AcceptNone
)

func (s AcceptState) String() string {
	switch s {
	case AcceptBoth:
		return "AcceptBoth"
	case AcceptRead:
		return "AcceptRead"
	case AcceptWrite:
		return "AcceptWrite"
	case AcceptNone:
		return "AcceptNone"
	default:
		panic(fmt.Sprintf("AcceptState.String: unknown state %d", int(s)))
	}
}

// Accepts tells if a request of the given direction can be accepted.
func (s AcceptState) Accepts(isRead bool) bool {
	switch s {
	case AcceptBoth:
		return true
	case AcceptRead:
		return isRead
	case AcceptWrite:
		return !isRead
	case AcceptNone:
		return false
	default:
		panic(fmt.Sprintf("AcceptState.Accepts: unknown state %d", int(s)))
	}
}

// SchedulerState is the backpressure state published by a scheduler. Either
// all the banks share one state, or each bank has its own.
type SchedulerState struct {
	shared     bool
	state      AcceptState
	bankStates []AcceptState
}

// NewSharedState creates a state that applies to all the banks.
func NewSharedState(s AcceptState) *SchedulerState {
	return &SchedulerState{shared: true, state: s}
}

// NewPerBankState creates a state with one entry per bank.
func NewPerBankState(states []AcceptState) *SchedulerState {
	if states == nil {
		panic("SchedulerState.NewPerBankState: bank states cannot be nil")
	}

	return &SchedulerState{bankStates: states}
}

// Shared tells if all the banks share the same state.
func (s *SchedulerState) Shared() bool {
	return s.shared
}

// State returns the accept state that applies to a bank.
func (s *SchedulerState) State(bank int) AcceptState {
	if s.shared {
		return s.state
	}

	if bank < 0 || bank >= len(s.bankStates) {
		panic(fmt.Sprintf("SchedulerState.State: bank %d out of bound, "+
			"%d bank states", bank, len(s.bankStates)))
	}

	return s.bankStates[bank]
}
