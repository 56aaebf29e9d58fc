package sched

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/bankselect"
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/switchmode"
	"github.com/sarchlab/attila/mem/ddrsched/internal/trans"
)

// ActiveManagerMode tells how eagerly rows are opened ahead of time.
type ActiveManagerMode int

// The active manager modes.
const (
	// ActiveConservative only opens rows for the direction being served.
	ActiveConservative ActiveManagerMode = iota

	// ActiveAggressive also opens rows for the other direction once the
	// current streak is covered by row hits.
	ActiveAggressive
)

// Manager orders.
const (
	ActiveManagerFirst    = 0
	PrechargeManagerFirst = 1
)

// BankQueueConfig holds the parameters of a BankQueueScheduler.
type BankQueueConfig struct {
	// Capacity is the total number of queued transactions. It must be a
	// multiple of the number of banks.
	Capacity int

	ActiveManager    ActiveManagerMode
	ManagerOrder     int
	DisableActive    bool
	DisablePrecharge bool

	// PerBankState publishes one accept state per bank.
	PerBankState bool
}

type candidates struct {
	read, write       int
	readHit, writeHit bool
}

// BankQueueScheduler keeps one queue per bank. It ranks the banks with a
// selection policy, lets a switch mode pick the direction, and uses the
// stalled cycles to open and close rows for the transactions that come next.
type BankQueueScheduler struct {
	*Base

	cfg       BankQueueConfig
	queueSize int
	queues    []*trans.TQueue
	infos     []*bankselect.BankInfo

	policy *bankselect.Policy
	mode   switchmode.Mode
}

// NewBankQueueScheduler creates a bank queue scheduler.
func NewBankQueueScheduler(
	base *Base,
	mode switchmode.Mode,
	policy *bankselect.Policy,
	cfg BankQueueConfig,
) *BankQueueScheduler {
	banks := base.Channel().State().Banks()

	if cfg.Capacity <= 0 || cfg.Capacity%banks != 0 {
		panic(fmt.Sprintf("BankQueueScheduler.NewBankQueueScheduler: "+
			"capacity %d is not a multiple of %d banks", cfg.Capacity, banks))
	}

	if cfg.ActiveManager != ActiveConservative &&
		cfg.ActiveManager != ActiveAggressive {
		panic(fmt.Sprintf("BankQueueScheduler.NewBankQueueScheduler: "+
			"unknown active manager mode %d", cfg.ActiveManager))
	}

	if cfg.ManagerOrder != ActiveManagerFirst &&
		cfg.ManagerOrder != PrechargeManagerFirst {
		panic(fmt.Sprintf("BankQueueScheduler.NewBankQueueScheduler: "+
			"manager order %d is neither 0 nor 1", cfg.ManagerOrder))
	}

	s := &BankQueueScheduler{
		Base:      base,
		cfg:       cfg,
		queueSize: cfg.Capacity/banks + 1,
		policy:    policy,
		mode:      mode,
	}

	for i := 0; i < banks; i++ {
		s.queues = append(s.queues, trans.NewTQueue(fmt.Sprintf("Bank%d", i)))
		s.infos = append(s.infos, &bankselect.BankInfo{BankID: i})
	}

	base.setStrategy(s)

	return s
}

// QueueSize returns the capacity of each bank queue.
func (s *BankQueueScheduler) QueueSize() int {
	return s.queueSize
}

// Queued returns the number of transactions waiting for selection.
func (s *BankQueueScheduler) Queued() int {
	n := 0
	for _, q := range s.queues {
		n += q.Size()
	}

	return n
}

// Reset empties the bank queues and restarts the bank ranking and the
// read/write mode.
func (s *BankQueueScheduler) Reset() {
	s.Base.Reset()
	s.mode.Reset()
	s.policy.Reset()

	for i, q := range s.queues {
		q.Reset()
		s.infos[i] = &bankselect.BankInfo{BankID: i}
	}
}

// ReceiveRequest queues a transaction in the queue of its bank.
func (s *BankQueueScheduler) ReceiveRequest(
	cycle uint64,
	txn *signal.ChannelTransaction,
) {
	mustBeValidBank("BankQueueScheduler", txn, len(s.queues))

	q := s.queues[txn.Bank]
	if q.Size() >= s.queueSize {
		panic(fmt.Sprintf("BankQueueScheduler.ReceiveRequest: queue of bank "+
			"%d full", txn.Bank))
	}

	q.Enqueue(txn, cycle)
}

// bankPriority returns the bank ids from the first to serve to the last.
func (s *BankQueueScheduler) bankPriority() []int {
	for _, info := range s.infos {
		q := s.queues[info.BankID]
		info.QueueSize = q.Size()

		if q.Empty() {
			info.Age = 0
			info.ConsecutiveHits = 0

			continue
		}

		info.Age = q.Timestamp()
		info.ConsecutiveHits = q.ConsecutiveAccesses(q.Front().IsWrite())
	}

	s.policy.SortBanks(s.infos)

	order := make([]int, len(s.infos))
	for i, info := range s.infos {
		order[i] = info.BankID
	}

	return order
}

func (s *BankQueueScheduler) findCandidates() candidates {
	banks := len(s.queues)
	c := candidates{read: banks, write: banks}
	state := s.Channel().State()

	for _, bank := range s.bankPriority() {
		if c.readHit && c.writeHit {
			break
		}

		q := s.queues[bank]
		if q.Empty() {
			continue
		}

		front := q.Front()
		hit := front.Row == state.ActiveRow(bank)

		switch {
		case front.IsRead() && !c.readHit:
			if c.read == banks || hit {
				c.read = bank
				c.readHit = hit
			}
		case front.IsWrite() && !c.writeHit:
			if c.write == banks || hit {
				c.write = bank
				c.writeHit = hit
			}
		}
	}

	return c
}

// SelectNextTransaction picks the best read and write candidates and lets the
// switch mode choose between them.
func (s *BankQueueScheduler) SelectNextTransaction(
	_ uint64,
) *signal.ChannelTransaction {
	banks := len(s.queues)
	c := s.findCandidates()
	readExists := c.read < banks
	writeExists := c.write < banks

	if !readExists && !writeExists {
		return nil
	}

	s.mode.Update(readExists, writeExists, c.readHit, c.writeHit)

	bank := c.write
	if s.mode.Reading() {
		bank = c.read
	}

	if bank >= banks || s.queues[bank].Empty() {
		panic(fmt.Sprintf("BankQueueScheduler.SelectNextTransaction: no "+
			"candidate for the selected direction, reading %t, read bank %d, "+
			"write bank %d", s.mode.Reading(), c.read, c.write))
	}

	txn := s.queues[bank].Front()
	s.queues[bank].Pop()

	return txn
}

// CommandNotSent uses the stalled cycle to close, precharge or open rows of
// the other banks.
func (s *BankQueueScheduler) CommandNotSent(cmd *signal.Command, cycle uint64) {
	if s.Base.cfg.PagePolicy == ClosePage {
		if s.closeIdleBank(cmd, cycle, func(bank int) bool {
			return !s.queues[bank].Empty()
		}) {
			return
		}
	}

	if s.cfg.ManagerOrder == PrechargeManagerFirst {
		if !s.tryAdvancedPrecharge(cmd, cycle) {
			s.tryAdvancedActive(cmd, cycle)
		}

		return
	}

	if !s.tryAdvancedActive(cmd, cycle) {
		s.tryAdvancedPrecharge(cmd, cycle)
	}
}

// tryAdvancedPrecharge closes a row that the front transaction of its bank
// does not need.
func (s *BankQueueScheduler) tryAdvancedPrecharge(
	cmd *signal.Command,
	cycle uint64,
) bool {
	if s.cfg.DisablePrecharge {
		return false
	}

	// Ranking the banks moves the stateful comparators even when there is
	// no command to follow.
	order := s.bankPriority()
	if cmd == nil {
		return false
	}

	state := s.Channel().State()

	for _, bank := range order {
		q := s.queues[bank]
		if q.Empty() || bank == cmd.Bank {
			continue
		}

		row := state.ActiveRow(bank)
		if row == org.NoActiveRow || state.State(bank) != org.BankStateActive {
			continue
		}

		if row == q.Front().Row {
			continue
		}

		pre := signal.NewPrecharge(bank)
		pre.Constraint = cmd.Constraint
		pre.Advanced = true

		if s.Channel().Send(cycle, pre, q.Front()) {
			return true
		}
	}

	return false
}

// countHits sums the consecutive accesses of the queue fronts that hit the
// open row of their bank. It returns false if no bank other than the
// ignored one has a transaction.
func (s *BankQueueScheduler) countHits(
	ignored int,
) (readHits, writeHits int, exist bool) {
	state := s.Channel().State()

	for bank, q := range s.queues {
		if bank == ignored || q.Empty() {
			continue
		}

		exist = true

		front := q.Front()
		if state.ActiveRow(bank) != front.Row {
			continue
		}

		if front.IsRead() {
			readHits += q.ConsecutiveAccesses(false)
		} else {
			writeHits += q.ConsecutiveAccesses(true)
		}
	}

	return readHits, writeHits, exist
}

// tryAdvancedActive opens rows for the transactions that will be served
// soon, when the open rows cannot cover the rest of the current streak.
func (s *BankQueueScheduler) tryAdvancedActive(
	cmd *signal.Command,
	cycle uint64,
) bool {
	if s.cfg.DisableActive {
		return false
	}

	ignored := len(s.queues)
	if cmd != nil {
		ignored = cmd.Bank
	}

	readHits, writeHits, exist := s.countHits(ignored)
	if !exist {
		return false
	}

	order := s.bankPriority()
	allowed := s.mode.MoreConsecutiveOpsAllowed()
	sent := false

	switch {
	case s.mode.Reading() && readHits < allowed:
		sent = s.activateFront(cmd, cycle, true, order)
	case s.mode.Writing() && writeHits < allowed:
		sent = s.activateFront(cmd, cycle, false, order)
	}

	if sent || s.cfg.ActiveManager != ActiveAggressive {
		return sent
	}

	switch {
	case s.mode.Reading() && readHits >= allowed &&
		writeHits < s.mode.MaxConsecutiveWrites():
		sent = s.activateFront(cmd, cycle, false, order)
	case s.mode.Writing() && writeHits >= allowed &&
		readHits < s.mode.MaxConsecutiveReads():
		sent = s.activateFront(cmd, cycle, true, order)
	}

	return sent
}

func (s *BankQueueScheduler) activateFront(
	cmd *signal.Command,
	cycle uint64,
	read bool,
	order []int,
) bool {
	state := s.Channel().State()

	for _, bank := range order {
		q := s.queues[bank]
		if state.ActiveRow(bank) != org.NoActiveRow || q.Empty() {
			continue
		}

		front := q.Front()
		if front.IsRead() != read {
			continue
		}

		act := signal.NewActivate(bank, front.Row)
		if cmd != nil {
			act.Constraint = cmd.Constraint
		}

		act.Advanced = true

		if s.Channel().Send(cycle, act, front) {
			return true
		}
	}

	return false
}

// CommandSent does nothing.
func (s *BankQueueScheduler) CommandSent(_ *signal.Command, _ uint64) {}

// TransactionCompleted does nothing.
func (s *BankQueueScheduler) TransactionCompleted(
	_ *signal.ChannelTransaction,
	_ uint64,
) {
}

// EndOfClock publishes the accept state, shared or per bank.
func (s *BankQueueScheduler) EndOfClock(cycle uint64) {
	if !s.cfg.PerBankState {
		state := signal.AcceptBoth

		for _, q := range s.queues {
			if q.Size() >= s.queueSize-1 {
				state = signal.AcceptNone
				break
			}
		}

		s.publish(cycle, signal.NewSharedState(state))

		return
	}

	states := make([]signal.AcceptState, len(s.queues))
	for i, q := range s.queues {
		states[i] = signal.AcceptBoth
		if q.Size() >= s.queueSize-1 {
			states[i] = signal.AcceptNone
		}
	}

	s.publish(cycle, signal.NewPerBankState(states))
}
