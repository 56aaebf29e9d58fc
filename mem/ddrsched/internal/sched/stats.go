package sched

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
)

// Stats counts how a scheduler spent its cycles.
type Stats struct {
	SelectedTransactions  uint64 `json:"selected_transactions"`
	CompletedTransactions uint64 `json:"completed_transactions"`
	SwitchModeCount       uint64 `json:"switch_mode_count"`

	// Cycles between the selection of a transaction and its first data
	// command, summed over all transactions.
	SumPreActToAccessCycles uint64 `json:"sum_pre_act_to_access_cycles"`
	ClosePageActivations    uint64 `json:"close_page_activations"`

	CtrlIdleCycles uint64 `json:"ctrl_idle_cycles"`
	CtrlUsedCycles uint64 `json:"ctrl_used_cycles"`

	IdleCycles          uint64 `json:"idle_cycles"`
	PrevCmdWaitCycles   uint64 `json:"prev_cmd_wait_cycles"`
	PrevPageCloseCycles uint64 `json:"prev_page_close_cycles"`
	OpeningPageCycles   uint64 `json:"opening_page_cycles"`
	ReadDelayCycles     uint64 `json:"read_delay_cycles"`
	ReadDataCycles      uint64 `json:"read_data_cycles"`
	WriteDelayCycles    uint64 `json:"write_delay_cycles"`
	WriteDataCycles     uint64 `json:"write_data_cycles"`

	ActToReadCycles       uint64 `json:"act_to_read_cycles"`
	ActToWriteCycles      uint64 `json:"act_to_write_cycles"`
	ActToActCycles        uint64 `json:"act_to_act_cycles"`
	ActToPreCycles        uint64 `json:"act_to_pre_cycles"`
	PreToActCycles        uint64 `json:"pre_to_act_cycles"`
	ReadToWriteCycles     uint64 `json:"read_to_write_cycles"`
	ReadToPreCycles       uint64 `json:"read_to_pre_cycles"`
	WriteToReadCycles     uint64 `json:"write_to_read_cycles"`
	WriteToPreCycles      uint64 `json:"write_to_pre_cycles"`
	DataBusConflictCycles uint64 `json:"data_bus_conflict_cycles"`
}

func (s *Stats) countConstraint(c org.IssueConstraint) {
	switch c {
	case org.ConstraintActToRead:
		s.ActToReadCycles++
	case org.ConstraintActToWrite:
		s.ActToWriteCycles++
	case org.ConstraintActToAct:
		s.ActToActCycles++
	case org.ConstraintActToPre:
		s.ActToPreCycles++
	case org.ConstraintPreToAct:
		s.PreToActCycles++
	case org.ConstraintReadToWrite:
		s.ReadToWriteCycles++
	case org.ConstraintReadToPre:
		s.ReadToPreCycles++
	case org.ConstraintWriteToRead:
		s.WriteToReadCycles++
	case org.ConstraintWriteToPre:
		s.WriteToPreCycles++
	case org.ConstraintDataBusConflict:
		s.DataBusConflictCycles++
	default:
		panic(fmt.Sprintf("Base.Clock: unexpected issue constraint %s", c))
	}
}

// AverageAccessLatency returns the mean number of cycles from selection to
// the first data command.
func (s Stats) AverageAccessLatency() float64 {
	if s.SelectedTransactions == 0 {
		return 0
	}

	return float64(s.SumPreActToAccessCycles) / float64(s.SelectedTransactions)
}
