package sched

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/trans"
)

// FifoScheduler serves the transactions in arrival order.
type FifoScheduler struct {
	*Base

	capacity int
	queue    *trans.TQueue
	pending  []int
}

// NewFifoScheduler creates a FIFO scheduler that holds up to capacity
// transactions.
func NewFifoScheduler(base *Base, capacity int) *FifoScheduler {
	if capacity <= 1 {
		panic(fmt.Sprintf("FifoScheduler.NewFifoScheduler: capacity %d is "+
			"too small", capacity))
	}

	s := &FifoScheduler{
		Base:     base,
		capacity: capacity,
		queue:    trans.NewTQueue("FIFO"),
		pending:  make([]int, base.Channel().State().Banks()),
	}
	base.setStrategy(s)

	return s
}

// Queued returns the number of transactions waiting for selection.
func (s *FifoScheduler) Queued() int {
	return s.queue.Size()
}

// Reset empties the queue.
func (s *FifoScheduler) Reset() {
	s.Base.Reset()
	s.queue.Reset()

	for i := range s.pending {
		s.pending[i] = 0
	}
}

// ReceiveRequest queues a transaction.
func (s *FifoScheduler) ReceiveRequest(
	cycle uint64,
	txn *signal.ChannelTransaction,
) {
	mustBeValidBank("FifoScheduler", txn, len(s.pending))

	if s.queue.Size() >= s.capacity {
		panic(fmt.Sprintf("FifoScheduler.ReceiveRequest: queue full, "+
			"%d transactions", s.queue.Size()))
	}

	s.queue.Enqueue(txn, cycle)
	s.pending[txn.Bank]++
}

// SelectNextTransaction pops the oldest transaction.
func (s *FifoScheduler) SelectNextTransaction(
	_ uint64,
) *signal.ChannelTransaction {
	if s.queue.Empty() {
		return nil
	}

	txn := s.queue.Front()
	s.queue.Pop()

	if s.pending[txn.Bank] == 0 {
		panic(fmt.Sprintf("FifoScheduler.SelectNextTransaction: no pending "+
			"access recorded for bank %d", txn.Bank))
	}

	s.pending[txn.Bank]--

	return txn
}

// CommandNotSent closes idle banks under the close page policy.
func (s *FifoScheduler) CommandNotSent(cmd *signal.Command, cycle uint64) {
	if s.cfg.PagePolicy != ClosePage {
		return
	}

	s.closeIdleBank(cmd, cycle, func(bank int) bool {
		return s.pending[bank] > 0
	})
}

// CommandSent does nothing.
func (s *FifoScheduler) CommandSent(_ *signal.Command, _ uint64) {}

// TransactionCompleted does nothing.
func (s *FifoScheduler) TransactionCompleted(
	_ *signal.ChannelTransaction,
	_ uint64,
) {
}

// EndOfClock publishes whether there is room for more transactions.
func (s *FifoScheduler) EndOfClock(cycle uint64) {
	state := signal.AcceptBoth
	if s.queue.Size() >= s.capacity-1 {
		state = signal.AcceptNone
	}

	s.publish(cycle, signal.NewSharedState(state))
}

func mustBeValidBank(
	scheduler string,
	txn *signal.ChannelTransaction,
	banks int,
) {
	if txn.Bank < 0 || txn.Bank >= banks {
		panic(fmt.Sprintf("%s.ReceiveRequest: bank %d out of range, "+
			"%d banks", scheduler, txn.Bank, banks))
	}
}
