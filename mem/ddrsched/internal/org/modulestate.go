// Package org models the memory chips of a channel: the protocol state of
// their banks, the data they hold, and the command boundary that connects
// them to the scheduler.
package org

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// NoActiveRow is returned as the open row of a bank without an open row.
const NoActiveRow uint32 = 0xFFFFFFFF

// BankState is the protocol state of a bank.
type BankState int

// All the bank states.
const (
	BankStateIdle BankState = iota
	BankStateActivating
	BankStateActive
	BankStateReading
	BankStateWriting
	BankStatePrecharging
)

func (s BankState) String() string {
	switch s {
	case BankStateIdle:
		return "Idle"
	case BankStateActivating:
		return "Activating"
	case BankStateActive:
		return "Active"
	case BankStateReading:
		return "Reading"
	case BankStateWriting:
		return "Writing"
	case BankStatePrecharging:
		return "Precharging"
	default:
		panic(fmt.Sprintf("BankState.String: unknown state %d", int(s)))
	}
}

// IssueConstraint is the reason why a command cannot be issued right now.
type IssueConstraint int

// The issue constraints. The ones after ConstraintDataBusConflict are errors
// of the scheduler, they never go away by waiting.
const (
	ConstraintNone IssueConstraint = iota
	ConstraintActToAct
	ConstraintActToRead
	ConstraintActToWrite
	ConstraintActToPre
	ConstraintReadToWrite
	ConstraintReadToPre
	ConstraintWriteToRead
	ConstraintWriteToPre
	ConstraintPreToAct
	ConstraintDataBusConflict
	ConstraintNoActWithWrite
	ConstraintActWithOpenRow
	ConstraintNoActWithRead
	ConstraintUnknown
)

var constraintNames = map[IssueConstraint]string{
	ConstraintNone:            "NONE",
	ConstraintActToAct:        "ACT_TO_ACT",
	ConstraintActToRead:       "ACT_TO_READ",
	ConstraintActToWrite:      "ACT_TO_WRITE",
	ConstraintActToPre:        "ACT_TO_PRE",
	ConstraintReadToWrite:     "READ_TO_WRITE",
	ConstraintReadToPre:       "READ_TO_PRE",
	ConstraintWriteToRead:     "WRITE_TO_READ",
	ConstraintWriteToPre:      "WRITE_TO_PRE",
	ConstraintPreToAct:        "PRE_TO_ACT",
	ConstraintDataBusConflict: "DATA_BUS_CONFLICT",
	ConstraintNoActWithWrite:  "NOACT_WITH_WRITE",
	ConstraintActWithOpenRow:  "ACT_WITH_OPENROW",
	ConstraintNoActWithRead:   "NOACT_WITH_READ",
	ConstraintUnknown:         "UNKNOWN",
}

func (c IssueConstraint) String() string {
	name, ok := constraintNames[c]
	if !ok {
		return fmt.Sprintf("IssueConstraint(%d)", int(c))
	}

	return name
}

// ProtocolConstraint converts the issue constraint into the tag carried by
// commands. Constraints without a tag return PCNone.
func (c IssueConstraint) ProtocolConstraint() signal.ProtocolConstraint {
	switch c {
	case ConstraintActToAct:
		return signal.PCActToAct
	case ConstraintActToPre:
		return signal.PCActToPre
	case ConstraintActToRead:
		return signal.PCActToRead
	case ConstraintActToWrite:
		return signal.PCActToWrite
	case ConstraintReadToWrite:
		return signal.PCReadToWrite
	case ConstraintReadToPre:
		return signal.PCReadToPre
	case ConstraintWriteToRead:
		return signal.PCWriteToRead
	case ConstraintWriteToPre:
		return signal.PCWriteToPre
	case ConstraintPreToAct:
		return signal.PCPreToAct
	default:
		return signal.PCNone
	}
}

// CommandMask is a set of command kinds.
type CommandMask uint8

// Bits of a CommandMask.
const (
	ActivateBit CommandMask = 1 << iota
	PrechargeBit
	ReadBit
	WriteBit
)

// A ModuleState answers the questions that a scheduler asks about the memory
// chips of its channel.
type ModuleState interface {
	Banks() int
	BurstLength() int
	ActiveRow(bank int) uint32
	State(bank int) BankState
	IssueConstraint(bank int, kind signal.CommandKind) IssueConstraint
	CanBeIssued(bank int, kind signal.CommandKind) bool
	AcceptedCommands(bank int) CommandMask
	RemainingCyclesToChangeState(bank int) uint64
	ReadBurstRequiredCycles() uint64
	WriteBurstRequiredCycles() uint64
}

// Timing holds the GDDR3 timing parameters, in cycles.
type Timing struct {
	TRRD         uint64
	TRCD         uint64
	TWTR         uint64
	TRTW         uint64
	TWR          uint64
	TRP          uint64
	CASLatency   uint64
	WriteLatency uint64
}

type bankEntry struct {
	state        BankState
	endCycle     uint64
	lastWriteEnd uint64
	openRow      uint32
}

// GDDR3State tracks the protocol state of the banks of a GDDR3 module.
type GDDR3State struct {
	timing                Timing
	burstLength           int
	burstTransmissionTime uint64

	cycle uint64
	banks []bankEntry

	lastActiveStart uint64
	lastActiveEnd   uint64
	lastReadStart   uint64
	lastReadEnd     uint64
	lastWriteStart  uint64
	lastWriteEnd    uint64
}

// NewGDDR3State creates the state of a module with all the banks idle.
func NewGDDR3State(
	numBanks, burstLength, bytesPerCycle int,
	timing Timing,
) *GDDR3State {
	if numBanks <= 0 {
		panic("GDDR3State.New: number of banks must be positive")
	}

	if bytesPerCycle <= 0 || (4*burstLength)%bytesPerCycle != 0 {
		panic(fmt.Sprintf("GDDR3State.New: %d bytes per cycle do not divide "+
			"a %d-byte burst", bytesPerCycle, 4*burstLength))
	}

	s := &GDDR3State{
		timing:                timing,
		burstLength:           burstLength,
		burstTransmissionTime: uint64(4*burstLength) / uint64(bytesPerCycle),
	}
	s.banks = make([]bankEntry, numBanks)
	s.Reset()

	return s
}

// Reset puts all the banks back into the idle state.
func (s *GDDR3State) Reset() {
	for i := range s.banks {
		s.banks[i] = bankEntry{state: BankStateIdle, openRow: NoActiveRow}
	}

	s.cycle = 0
	s.lastActiveStart, s.lastActiveEnd = 0, 0
	s.lastReadStart, s.lastReadEnd = 0, 0
	s.lastWriteStart, s.lastWriteEnd = 0, 0
}

// Banks returns the number of banks.
func (s *GDDR3State) Banks() int {
	return len(s.banks)
}

// BurstLength returns the number of words per burst.
func (s *GDDR3State) BurstLength() int {
	return s.burstLength
}

// Timing returns the timing parameters.
func (s *GDDR3State) Timing() Timing {
	return s.timing
}

// BurstTransmissionTime returns the number of cycles the data bus needs to
// move one burst.
func (s *GDDR3State) BurstTransmissionTime() uint64 {
	return s.burstTransmissionTime
}

// ReadBurstRequiredCycles returns the cycles from a read command to the end
// of its data.
func (s *GDDR3State) ReadBurstRequiredCycles() uint64 {
	return s.timing.CASLatency + s.burstTransmissionTime
}

// WriteBurstRequiredCycles returns the cycles from a write command to the end
// of its data.
func (s *GDDR3State) WriteBurstRequiredCycles() uint64 {
	return s.timing.WriteLatency + s.burstTransmissionTime
}

func (s *GDDR3State) bankMustBeValid(bank int, op string) {
	if bank < 0 || bank >= len(s.banks) {
		panic(fmt.Sprintf("GDDR3State.%s: bank %d out of range", op, bank))
	}
}

// ActiveRow returns the open row of a bank, or NoActiveRow.
func (s *GDDR3State) ActiveRow(bank int) uint32 {
	s.bankMustBeValid(bank, "ActiveRow")
	return s.banks[bank].openRow
}

// State returns the protocol state of a bank.
func (s *GDDR3State) State(bank int) BankState {
	s.bankMustBeValid(bank, "State")
	return s.banks[bank].state
}

func (s *GDDR3State) isAnyBank(state BankState) bool {
	for _, b := range s.banks {
		if b.state == state {
			return true
		}
	}

	return false
}

// IssueConstraint returns what prevents a command from being issued to a bank
// in the current cycle.
//
//nolint:gocyclo
func (s *GDDR3State) IssueConstraint(
	bank int,
	kind signal.CommandKind,
) IssueConstraint {
	s.bankMustBeValid(bank, "IssueConstraint")

	b := s.banks[bank]
	t := s.timing

	switch kind {
	case signal.CmdKindActivate:
		if b.state == BankStatePrecharging {
			return ConstraintPreToAct
		}

		if s.lastActiveEnd != 0 && s.lastActiveStart+t.TRRD > s.cycle {
			return ConstraintActToAct
		}

		if b.state != BankStateIdle {
			return ConstraintActWithOpenRow
		}
	case signal.CmdKindRead:
		if s.lastReadEnd != 0 && s.lastReadEnd > s.cycle+t.CASLatency {
			return ConstraintDataBusConflict
		}

		if s.isAnyBank(BankStateWriting) {
			return ConstraintDataBusConflict
		}

		if b.state == BankStateActivating {
			return ConstraintActToRead
		}

		if b.state == BankStateIdle || b.state == BankStatePrecharging {
			return ConstraintNoActWithRead
		}

		if s.lastWriteEnd != 0 && s.lastWriteEnd+t.TWTR > s.cycle {
			return ConstraintWriteToRead
		}
	case signal.CmdKindWrite:
		if s.lastWriteEnd != 0 && s.lastWriteEnd > s.cycle+t.WriteLatency {
			return ConstraintDataBusConflict
		}

		if s.lastReadEnd != 0 && s.cycle+t.WriteLatency < s.lastReadEnd {
			return ConstraintDataBusConflict
		}

		if s.lastReadEnd != 0 &&
			s.cycle+t.WriteLatency < s.lastReadEnd+t.TRTW {
			return ConstraintReadToWrite
		}

		if b.state == BankStateActivating {
			return ConstraintActToWrite
		}

		if b.state == BankStateIdle || b.state == BankStatePrecharging {
			return ConstraintNoActWithWrite
		}
	case signal.CmdKindPrecharge:
		if b.lastWriteEnd != 0 && b.lastWriteEnd+t.TWR > s.cycle {
			return ConstraintWriteToPre
		}

		if b.state == BankStateActivating {
			return ConstraintActToPre
		}

		if b.state == BankStateReading && b.endCycle > s.cycle+t.TRP {
			return ConstraintReadToPre
		}

		if b.state != BankStateActive && b.state != BankStateReading {
			return ConstraintUnknown
		}
	default:
		panic(fmt.Sprintf("GDDR3State.IssueConstraint: unexpected command %s",
			kind))
	}

	return ConstraintNone
}

// CanBeIssued tells if a command can be issued to a bank in the current
// cycle.
func (s *GDDR3State) CanBeIssued(bank int, kind signal.CommandKind) bool {
	return s.IssueConstraint(bank, kind) == ConstraintNone
}

// AcceptedCommands returns all the commands that a bank accepts now.
func (s *GDDR3State) AcceptedCommands(bank int) CommandMask {
	var mask CommandMask

	if s.CanBeIssued(bank, signal.CmdKindActivate) {
		mask |= ActivateBit
	}

	if s.CanBeIssued(bank, signal.CmdKindPrecharge) {
		mask |= PrechargeBit
	}

	if s.CanBeIssued(bank, signal.CmdKindRead) {
		mask |= ReadBit
	}

	if s.CanBeIssued(bank, signal.CmdKindWrite) {
		mask |= WriteBit
	}

	return mask
}

// RemainingCyclesToChangeState returns the number of cycles before the bank
// leaves a transient state.
func (s *GDDR3State) RemainingCyclesToChangeState(bank int) uint64 {
	s.bankMustBeValid(bank, "RemainingCyclesToChangeState")

	end := s.banks[bank].endCycle
	if s.cycle >= end {
		return 0
	}

	return end - s.cycle
}

// UpdateState moves the module to a new cycle and completes the transient
// bank states that end before it.
func (s *GDDR3State) UpdateState(cycle uint64) {
	if cycle < s.cycle {
		panic(fmt.Sprintf("GDDR3State.UpdateState: cycle %d is before the "+
			"current cycle %d", cycle, s.cycle))
	}

	s.cycle = cycle

	for i := range s.banks {
		b := &s.banks[i]

		if b.state == BankStateIdle || b.state == BankStateActive {
			continue
		}

		if cycle < b.endCycle {
			continue
		}

		switch b.state {
		case BankStateActivating, BankStateReading, BankStateWriting:
			b.state = BankStateActive
		case BankStatePrecharging:
			b.state = BankStateIdle
		}
	}
}

// PostActivate records that a bank starts opening a row.
func (s *GDDR3State) PostActivate(bank int, row uint32) {
	s.bankMustBeValid(bank, "PostActivate")

	b := &s.banks[bank]
	if b.state != BankStateIdle {
		panic(fmt.Sprintf("GDDR3State.PostActivate: bank %d is %s, "+
			"cannot be activated", bank, b.state))
	}

	if s.lastActiveEnd != 0 && s.lastActiveStart+s.timing.TRRD > s.cycle {
		panic("GDDR3State.PostActivate: tRRD violated between two activates")
	}

	s.lastActiveStart = s.cycle
	s.lastActiveEnd = s.cycle + s.timing.TRCD

	b.openRow = row
	b.state = BankStateActivating
	b.endCycle = s.lastActiveEnd
}

// PostRead records that a bank starts a read burst.
func (s *GDDR3State) PostRead(bank int) {
	s.bankMustBeValid(bank, "PostRead")

	b := &s.banks[bank]
	if b.state != BankStateActive && b.state != BankStateReading {
		panic(fmt.Sprintf("GDDR3State.PostRead: bank %d is %s, only an "+
			"active or reading bank can be read", bank, b.state))
	}

	if s.lastWriteEnd != 0 && s.lastWriteEnd+s.timing.TWTR > s.cycle {
		panic("GDDR3State.PostRead: write to read delay violated")
	}

	if s.lastReadEnd != 0 && s.lastReadEnd > s.cycle+s.timing.CASLatency {
		panic("GDDR3State.PostRead: data collision between two reads")
	}

	s.lastReadStart = s.cycle
	s.lastReadEnd = s.cycle + s.ReadBurstRequiredCycles()

	b.state = BankStateReading
	b.endCycle = s.lastReadEnd
}

// PostWrite records that a bank starts a write burst.
func (s *GDDR3State) PostWrite(bank int) {
	s.bankMustBeValid(bank, "PostWrite")

	if s.lastReadEnd != 0 &&
		s.cycle+s.timing.WriteLatency < s.lastReadEnd+s.timing.TRTW {
		panic(fmt.Sprintf("GDDR3State.PostWrite: the data pins must be idle "+
			"for %d cycles after a read", s.timing.TRTW))
	}

	if s.lastWriteEnd != 0 && s.lastWriteEnd > s.cycle+s.timing.WriteLatency {
		panic("GDDR3State.PostWrite: data collision between two writes")
	}

	s.lastWriteStart = s.cycle
	s.lastWriteEnd = s.cycle + s.WriteBurstRequiredCycles()

	b := &s.banks[bank]
	b.state = BankStateWriting
	b.endCycle = s.lastWriteEnd
	b.lastWriteEnd = s.lastWriteEnd
}

// PostPrecharge records that a bank starts closing its open row. Precharging
// an idle bank does nothing.
func (s *GDDR3State) PostPrecharge(bank int) {
	s.bankMustBeValid(bank, "PostPrecharge")

	b := &s.banks[bank]
	if b.lastWriteEnd != 0 && b.lastWriteEnd+s.timing.TWR > s.cycle {
		panic("GDDR3State.PostPrecharge: write to precharge delay violated")
	}

	switch b.state {
	case BankStateIdle, BankStatePrecharging:
		return
	case BankStateActivating:
		panic(fmt.Sprintf("GDDR3State.PostPrecharge: bank %d is being "+
			"activated", bank))
	case BankStateReading:
		if b.endCycle > s.cycle+s.timing.TRP {
			panic("GDDR3State.PostPrecharge: read to precharge delay violated")
		}
	case BankStateWriting:
		panic(fmt.Sprintf("GDDR3State.PostPrecharge: bank %d is writing",
			bank))
	}

	b.state = BankStatePrecharging
	b.endCycle = s.cycle + s.timing.TRP
	b.openRow = NoActiveRow
}
