package sched

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/attila/mem/ddrsched/internal/cmdq"
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// State is what the scheduler is waiting for.
type State int

// The scheduler states.
const (
	StateIdle State = iota
	StateWaitPrevCmd
	StateWaitOpeningPage
	StateWaitPrevPageClose
	StateAccessingData
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaitPrevCmd:
		return "WaitPrevCmd"
	case StateWaitOpeningPage:
		return "WaitOpeningPage"
	case StateWaitPrevPageClose:
		return "WaitPrevPageClose"
	case StateAccessingData:
		return "AccessingData"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PagePolicy tells when rows are closed.
type PagePolicy int

// The page policies.
const (
	// OpenPage leaves a row open until an access needs another one.
	OpenPage PagePolicy = iota

	// ClosePage precharges the banks that have no pending access.
	ClosePage
)

// BaseConfig holds the parameters shared by all the schedulers.
type BaseConfig struct {
	BurstLength   int
	BytesPerCycle int
	ReadDelay     uint64
	WriteDelay    uint64
	PagePolicy    PagePolicy
}

// A SelectFunc is notified of every transaction that the scheduler starts to
// serve.
type SelectFunc func(cycle uint64, txn *signal.ChannelTransaction)

type inProgressRead struct {
	txn      *signal.ChannelTransaction
	expected int
	received int
}

type ongoingAccess struct {
	read      bool
	start     uint64
	remaining uint64
}

// Base runs the per-cycle loop of a channel scheduler. It expands the current
// transaction into commands, tries to issue one command per cycle, collects
// read data and sends replies. A Strategy decides which transaction comes
// next.
type Base struct {
	cfg            BaseConfig
	cyclesPerBurst uint64
	burstBytes     int

	strategy Strategy
	channel  org.ChannelView
	replies  *signal.Signal[*signal.ChannelTransaction]
	states   *signal.Signal[*signal.SchedulerState]
	onSelect SelectFunc

	buffer  *cmdq.Buffer
	current *signal.ChannelTransaction
	state   State

	lastWasRead        bool
	waitingFirstAccess bool
	selectedAt         uint64

	inProgressReads    []inProgressRead
	pendingWriteBursts int
	replyQueue         []*signal.ChannelTransaction
	ongoing            []ongoingAccess

	stats Stats
}

// NewBase creates the shared part of a scheduler. The strategy is set by the
// concrete scheduler.
func NewBase(
	cfg BaseConfig,
	channel org.ChannelView,
	replies *signal.Signal[*signal.ChannelTransaction],
	states *signal.Signal[*signal.SchedulerState],
) *Base {
	if cfg.BurstLength <= 0 || bits.OnesCount(uint(cfg.BurstLength)) != 1 {
		panic(fmt.Sprintf("Base.NewBase: burst length %d is not a power of 2",
			cfg.BurstLength))
	}

	if cfg.BytesPerCycle <= 0 || (4*cfg.BurstLength)%cfg.BytesPerCycle != 0 {
		panic(fmt.Sprintf("Base.NewBase: %d bytes per cycle do not divide "+
			"a burst of %d bytes", cfg.BytesPerCycle, 4*cfg.BurstLength))
	}

	return &Base{
		cfg:            cfg,
		cyclesPerBurst: uint64(4 * cfg.BurstLength / cfg.BytesPerCycle),
		burstBytes:     4 * cfg.BurstLength,
		channel:        channel,
		replies:        replies,
		states:         states,
		buffer:         cmdq.NewBuffer(cfg.BurstLength),
	}
}

func (b *Base) setStrategy(s Strategy) {
	b.strategy = s
}

// OnSelect registers a function called on every selection.
func (b *Base) OnSelect(f SelectFunc) {
	b.onSelect = f
}

// Channel returns the channel that the scheduler sends commands to.
func (b *Base) Channel() org.ChannelView {
	return b.channel
}

// CurrentState returns what the scheduler is waiting for.
func (b *Base) CurrentState() State {
	return b.state
}

// CyclesPerBurst returns the number of cycles taken by the data of a burst.
func (b *Base) CyclesPerBurst() uint64 {
	return b.cyclesPerBurst
}

// Stats returns the scheduler statistics.
func (b *Base) Stats() Stats {
	return b.stats
}

// Busy tells if a transaction is being served or a reply is waiting.
func (b *Base) Busy() bool {
	return !b.buffer.Empty() ||
		len(b.inProgressReads) > 0 ||
		len(b.replyQueue) > 0 ||
		len(b.ongoing) > 0 ||
		b.replies.Busy()
}

func (b *Base) publish(cycle uint64, s *signal.SchedulerState) {
	b.states.Write(cycle, s)
}

// Reset drops everything in flight and clears the statistics.
func (b *Base) Reset() {
	b.buffer.Reset()
	b.current = nil
	b.state = StateIdle
	b.lastWasRead = false
	b.waitingFirstAccess = false
	b.selectedAt = 0
	b.inProgressReads = nil
	b.pendingWriteBursts = 0
	b.replyQueue = nil
	b.ongoing = nil
	b.stats = Stats{}
}

// Clock runs one cycle of the scheduler.
func (b *Base) Clock(cycle uint64) {
	if b.buffer.Empty() {
		b.selectTransaction(cycle)
	}

	b.processNextCommand(cycle)
	b.processReply(cycle)
	b.strategy.EndOfClock(cycle)
	b.updateStateStats(cycle)
}

func (b *Base) selectTransaction(cycle uint64) {
	txn := b.strategy.SelectNextTransaction(cycle)
	b.current = txn

	if txn == nil {
		b.state = StateIdle
		return
	}

	b.waitingFirstAccess = true
	b.selectedAt = cycle
	b.stats.SelectedTransactions++

	if txn.IsRead() != b.lastWasRead {
		b.stats.SwitchModeCount++
		b.lastWasRead = txn.IsRead()
	}

	b.state = StateWaitPrevCmd

	bursts := b.buffer.Fill(txn, b.channel.State())
	if b.buffer.Empty() {
		panic(fmt.Sprintf("Base.Clock: transaction %s produced no command",
			txn.ID))
	}

	if txn.IsRead() {
		b.inProgressReads = append(b.inProgressReads,
			inProgressRead{txn: txn, expected: bursts})
	} else {
		b.pendingWriteBursts = bursts
	}

	if b.onSelect != nil {
		b.onSelect(cycle, txn)
	}
}

func (b *Base) processNextCommand(cycle uint64) {
	if b.buffer.Empty() {
		b.stats.CtrlIdleCycles++
		b.strategy.CommandNotSent(nil, cycle)

		return
	}

	cmd := b.buffer.Front()
	if !b.channel.Send(cycle, cmd, b.current) {
		b.handleStall(cmd, cycle)
		return
	}

	b.stats.CtrlUsedCycles++
	b.buffer.Pop()

	switch cmd.Kind {
	case signal.CmdKindWrite:
		b.startAccess(cycle, false)

		b.pendingWriteBursts--
		if b.pendingWriteBursts == 0 {
			b.replyQueue = append(b.replyQueue, b.current)
			b.stats.CompletedTransactions++
			b.strategy.TransactionCompleted(b.current, cycle)
		}
	case signal.CmdKindRead:
		b.startAccess(cycle, true)
	case signal.CmdKindActivate:
		b.state = StateWaitOpeningPage

		if next := b.buffer.Peek(0); next != nil {
			switch next.Kind {
			case signal.CmdKindRead:
				cmd.Constraint = signal.PCActToRead
			case signal.CmdKindWrite:
				cmd.Constraint = signal.PCActToWrite
			}
		}
	case signal.CmdKindPrecharge:
		b.state = StateWaitPrevPageClose
	default:
		panic(fmt.Sprintf("Base.Clock: unexpected command %s in the buffer",
			cmd.Kind))
	}

	b.strategy.CommandSent(cmd, cycle)
}

func (b *Base) startAccess(cycle uint64, read bool) {
	delay := b.cfg.WriteDelay
	if read {
		delay = b.cfg.ReadDelay
	}

	b.ongoing = append(b.ongoing, ongoingAccess{
		read:      read,
		start:     cycle + delay,
		remaining: b.cyclesPerBurst,
	})

	if b.waitingFirstAccess {
		b.stats.SumPreActToAccessCycles += cycle - b.selectedAt
		b.waitingFirstAccess = false
	}

	b.state = StateAccessingData
}

func (b *Base) handleStall(cmd *signal.Command, cycle uint64) {
	ic := b.channel.State().IssueConstraint(cmd.Bank, cmd.Kind)
	b.stats.countConstraint(ic)

	pc := ic.ProtocolConstraint()
	cmd.Constraint = pc
	b.strategy.CommandNotSent(cmd, cycle)
	cmd.Constraint = signal.PCNone

	if pc != signal.PCNone {
		b.channel.Send(cycle, signal.NewDummy(pc), b.current)
	}
}

// ReceiveData stores a read burst into the oldest read in progress.
func (b *Base) ReceiveData(cycle uint64, burst *signal.Burst) {
	if len(b.inProgressReads) == 0 {
		panic("Base.ReceiveData: data received with no read in progress")
	}

	r := &b.inProgressReads[0]
	size := b.burstBytes
	if rem := r.txn.Size % b.burstBytes; rem != 0 && r.received+1 == r.expected {
		size = rem
	}

	r.txn.SetData(burst.Bytes()[:size], r.received*b.burstBytes)
	r.received++

	if r.received < r.expected {
		return
	}

	txn := r.txn
	b.inProgressReads[0] = inProgressRead{}
	b.inProgressReads = b.inProgressReads[1:]
	b.replyQueue = append(b.replyQueue, txn)
	b.stats.CompletedTransactions++
	b.strategy.TransactionCompleted(txn, cycle)
}

func (b *Base) processReply(cycle uint64) {
	if len(b.replyQueue) == 0 {
		return
	}

	b.replies.Write(cycle, b.replyQueue[0])
	b.replyQueue[0] = nil
	b.replyQueue = b.replyQueue[1:]
}

func (b *Base) updateStateStats(cycle uint64) {
	if len(b.ongoing) > 0 {
		head := &b.ongoing[0]
		if head.start > cycle {
			if head.read {
				b.stats.ReadDelayCycles++
			} else {
				b.stats.WriteDelayCycles++
			}

			return
		}

		if head.read {
			b.stats.ReadDataCycles++
		} else {
			b.stats.WriteDataCycles++
		}

		head.remaining--
		if head.remaining == 0 {
			b.ongoing = b.ongoing[1:]
		}

		return
	}

	switch b.state {
	case StateIdle:
		b.stats.IdleCycles++
	case StateWaitPrevCmd:
		b.stats.PrevCmdWaitCycles++
	case StateWaitPrevPageClose:
		b.stats.PrevPageCloseCycles++
	case StateWaitOpeningPage:
		b.stats.OpeningPageCycles++
	case StateAccessingData:
		panic("Base.Clock: accessing data with no ongoing access")
	}
}

// closeIdleBank precharges the first open bank, other than the one of the
// stalled command, that has no access waiting for it. It returns true if a
// precharge is sent.
func (b *Base) closeIdleBank(
	cmd *signal.Command,
	cycle uint64,
	hasPending func(bank int) bool,
) bool {
	state := b.channel.State()

	for bank := 0; bank < state.Banks(); bank++ {
		if cmd != nil && cmd.Bank == bank {
			continue
		}

		if hasPending(bank) || state.ActiveRow(bank) == org.NoActiveRow {
			continue
		}

		pre := signal.NewPrecharge(bank)
		if cmd != nil {
			pre.Constraint = cmd.Constraint
		}

		if b.channel.Send(cycle, pre, nil) {
			b.stats.ClosePageActivations++
			return true
		}
	}

	return false
}
