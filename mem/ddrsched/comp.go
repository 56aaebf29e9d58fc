// Package ddrsched provides a GDDR3 memory channel controller. The controller
// queues the channel transactions of its clients, schedules them into DDR
// commands, and drives a timing-accurate memory module.
package ddrsched

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
	"github.com/sarchlab/attila/datarecording"
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/sched"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/trans"
)

// Transaction is a memory access that touches a single row of one bank.
type Transaction = signal.ChannelTransaction

// Request is a memory access of any size, before it is split into
// transactions.
type Request = trans.MemoryRequest

// Splitter cuts requests into transactions.
type Splitter = trans.Splitter

// Stats is a snapshot of all the counters of a controller.
type Stats struct {
	Cycle     uint64           `json:"cycle"`
	Scheduler sched.Stats      `json:"scheduler"`
	Channel   org.ChannelStats `json:"channel"`
	Module    org.ModuleStats  `json:"module"`
}

// RowHitRate returns the share of the accesses that found their row open.
func (s Stats) RowHitRate() float64 {
	total := s.Channel.RowHits + s.Channel.RowMisses
	if total == 0 {
		return 0
	}

	return float64(s.Channel.RowHits) / float64(total)
}

// DataBusUtilization returns the share of the cycles in which the data pins
// moved data.
func (s Stats) DataBusUtilization() float64 {
	busy := s.Module.ReadCycles + s.Module.WriteCycles
	total := busy + s.Module.IdleCycles + s.Module.CASCycles + s.Module.WLCycles
	for _, c := range s.Module.ConstraintCycles {
		total += c
	}

	if total == 0 {
		return 0
	}

	return float64(busy) / float64(total)
}

// Comp is a memory channel controller. Clients submit at most one
// transaction per cycle after checking CanAccept, and collect at most one
// reply per cycle.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	cfg Config

	splitter  *trans.Splitter
	channel   *org.Channel
	module    *org.Module
	base      *sched.Base
	scheduler sched.Scheduler

	requests *signal.Signal[*signal.ChannelTransaction]
	replies  *signal.Signal[*signal.ChannelTransaction]
	states   *signal.Signal[*signal.SchedulerState]
	commands *signal.Signal[*signal.Command]
	bursts   *signal.Signal[*signal.Burst]

	recorder     datarecording.DataRecorder
	samplePeriod uint64
	tableName    string
}

// Tick runs one cycle of the controller.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// Config returns the configuration the controller was built with.
func (c *Comp) Config() Config {
	return c.cfg
}

// Splitter returns the splitter that matches the address mapping of the
// controller.
func (c *Comp) Splitter() *Splitter {
	return c.splitter
}

// Cycle returns the current cycle of the controller.
func (c *Comp) Cycle() uint64 {
	return c.Freq.Cycle(c.CurrentTime())
}

// CanAccept tells if a transaction to the bank in the given direction can be
// submitted in the current cycle.
func (c *Comp) CanAccept(bank int, isRead bool) bool {
	s, ok := c.states.Read(c.Cycle())
	if !ok {
		return false
	}

	return s.State(bank).Accepts(isRead)
}

// Submit hands a transaction to the controller. Only one transaction can be
// submitted per cycle.
func (c *Comp) Submit(cycle uint64, txn *Transaction) {
	if c.requests.Written(cycle) {
		panic(fmt.Sprintf("Comp.Submit: %s already received a transaction "+
			"in cycle %d", c.Name(), cycle))
	}

	c.requests.Write(cycle, txn)
	c.TickLater()
}

// Reply returns the transaction that completed in the previous cycle, if
// any.
func (c *Comp) Reply(cycle uint64) (*Transaction, bool) {
	txn, ok := c.replies.Consume(cycle)
	if !ok {
		return nil, false
	}

	tracing.EndTask(txn.ID, c)

	return txn, true
}

// Queued returns the number of transactions waiting to be served.
func (c *Comp) Queued() int {
	return c.scheduler.Queued()
}

// Peek returns n words stored in the module, starting from a column.
func (c *Comp) Peek(bank int, row, col uint32, n int) []uint32 {
	return c.module.Peek(bank, row, col, n)
}

// Preload fills the module without any timing.
func (c *Comp) Preload(bank int, row, col uint32, words []uint32) {
	c.module.Preload(bank, row, col, words)
}

// Stats collects the counters of the scheduler, the channel, and the module.
func (c *Comp) Stats() Stats {
	return Stats{
		Cycle:     c.Cycle(),
		Scheduler: c.scheduler.Stats(),
		Channel:   c.channel.Stats(),
		Module:    c.module.Stats(),
	}
}

// Busy tells if any transaction, command, or reply is still in flight.
func (c *Comp) Busy() bool {
	return c.scheduler.Queued() > 0 ||
		c.scheduler.Busy() ||
		c.module.Busy() ||
		c.requests.Busy() ||
		c.bursts.Busy()
}

// Reset puts the controller back to its initial state. The content of the
// memory is poisoned again.
func (c *Comp) Reset() {
	c.requests.Reset()
	c.replies.Reset()
	c.commands.Reset()
	c.bursts.Reset()
	c.states.Reset()

	c.channel.Reset()
	c.channel.GDDR3().Reset()
	c.module.Reset()
	c.scheduler.Reset()
}

type middleware struct {
	*Comp
}

// Tick moves the transactions, the data, and the commands by one cycle.
func (m *middleware) Tick() (madeProgress bool) {
	cycle := m.Cycle()

	m.channel.GDDR3().UpdateState(cycle)

	madeProgress = m.receiveRequest(cycle) || madeProgress
	madeProgress = m.receiveData(cycle) || madeProgress

	m.scheduler.Clock(cycle)
	m.module.Tick(cycle)

	m.sample(cycle)

	return m.Busy() || madeProgress
}

func (m *middleware) receiveRequest(cycle uint64) bool {
	txn, ok := m.requests.Consume(cycle)
	if !ok {
		return false
	}

	tracing.StartTask(txn.ID, txn.ParentID, m.Comp, "req_in",
		txn.Type.String(), txn)

	m.scheduler.ReceiveRequest(cycle, txn)

	return true
}

func (m *middleware) receiveData(cycle uint64) bool {
	burst, ok := m.bursts.Consume(cycle)
	if !ok {
		return false
	}

	m.scheduler.ReceiveData(cycle, burst)

	return true
}

func (m *middleware) sample(cycle uint64) {
	if m.recorder == nil || m.samplePeriod == 0 {
		return
	}

	if cycle > 0 && cycle%m.samplePeriod == 0 {
		m.recorder.InsertData(m.tableName, m.Comp.sampleEntry("sample"))
	}
}

// StatsEntry is a flat copy of the main counters, written by the stats
// recorder.
type StatsEntry struct {
	Kind                  string
	Cycle                 uint64
	SelectedTransactions  uint64
	CompletedTransactions uint64
	SwitchModeCount       uint64
	ActivateCommands      uint64
	PrechargeCommands     uint64
	ReadCommands          uint64
	WriteCommands         uint64
	RowHits               uint64
	RowMisses             uint64
	ReadBytes             uint64
	WriteBytes            uint64
	IdleCycles            uint64
	DataBusUtilization    float64
	AverageAccessLatency  float64
}

func (c *Comp) sampleEntry(kind string) StatsEntry {
	s := c.Stats()

	return StatsEntry{
		Kind:                  kind,
		Cycle:                 s.Cycle,
		SelectedTransactions:  s.Scheduler.SelectedTransactions,
		CompletedTransactions: s.Scheduler.CompletedTransactions,
		SwitchModeCount:       s.Scheduler.SwitchModeCount,
		ActivateCommands:      s.Channel.ActivateCommands,
		PrechargeCommands:     s.Channel.PrechargeCommands,
		ReadCommands:          s.Channel.ReadCommands,
		WriteCommands:         s.Channel.WriteCommands,
		RowHits:               s.Channel.RowHits,
		RowMisses:             s.Channel.RowMisses,
		ReadBytes:             s.Module.ReadBytes,
		WriteBytes:            s.Module.WriteBytes,
		IdleCycles:            s.Scheduler.IdleCycles,
		DataBusUtilization:    s.DataBusUtilization(),
		AverageAccessLatency:  s.Scheduler.AverageAccessLatency(),
	}
}

// RecordSummary writes the final counters into the stats recorder, if the
// controller has one.
func (c *Comp) RecordSummary() {
	if c.recorder == nil {
		return
	}

	c.recorder.InsertData(c.tableName, c.sampleEntry("summary"))
	c.recorder.Flush()
}
