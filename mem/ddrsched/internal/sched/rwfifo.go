package sched

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/switchmode"
)

type depEntry struct {
	txn        *signal.ChannelTransaction
	dependency *signal.ChannelTransaction
}

// A dependencyQueue is a FIFO whose entries can wait for a transaction of
// another queue.
type dependencyQueue struct {
	entries []depEntry
}

func (q *dependencyQueue) size() int {
	return len(q.entries)
}

func (q *dependencyQueue) empty() bool {
	return len(q.entries) == 0
}

func (q *dependencyQueue) front() *depEntry {
	return &q.entries[0]
}

func (q *dependencyQueue) pop() *signal.ChannelTransaction {
	txn := q.entries[0].txn
	q.entries[0] = depEntry{}
	q.entries = q.entries[1:]

	return txn
}

// findDependency returns the youngest entry that overlaps txn.
func (q *dependencyQueue) findDependency(
	txn *signal.ChannelTransaction,
) *signal.ChannelTransaction {
	for i := len(q.entries) - 1; i >= 0; i-- {
		if q.entries[i].txn.OverlapsWith(txn) {
			return q.entries[i].txn
		}
	}

	return nil
}

func (q *dependencyQueue) wakeUp(done *signal.ChannelTransaction) {
	for i := range q.entries {
		if q.entries[i].dependency == done {
			q.entries[i].dependency = nil
		}
	}
}

func (q *dependencyQueue) reset() {
	q.entries = nil
}

// RWFifoScheduler keeps reads and writes in separate FIFOs so that reads can
// bypass writes. An entry never passes an older overlapping entry of the
// other queue.
type RWFifoScheduler struct {
	*Base

	mode     switchmode.Mode
	maxRead  int
	maxWrite int

	reads   dependencyQueue
	writes  dependencyQueue
	pending []int
}

// NewRWFifoScheduler creates a read/write FIFO scheduler. With dedicated set
// to 0 the capacity is split evenly between the queues, otherwise reads get
// dedicated entries and writes the rest.
func NewRWFifoScheduler(
	base *Base,
	mode switchmode.Mode,
	capacity, dedicated int,
) *RWFifoScheduler {
	if dedicated < 0 || dedicated >= capacity {
		panic(fmt.Sprintf("RWFifoScheduler.NewRWFifoScheduler: %d dedicated "+
			"reads do not fit a capacity of %d", dedicated, capacity))
	}

	s := &RWFifoScheduler{
		Base:    base,
		mode:    mode,
		pending: make([]int, base.Channel().State().Banks()),
	}

	if dedicated == 0 {
		s.maxRead = capacity/2 + 1
		s.maxWrite = capacity/2 + 1
	} else {
		s.maxRead = dedicated + 1
		s.maxWrite = capacity - dedicated + 1
	}

	base.setStrategy(s)

	return s
}

// Capacities returns the size of the read and the write queue.
func (s *RWFifoScheduler) Capacities() (reads, writes int) {
	return s.maxRead, s.maxWrite
}

// Queued returns the number of transactions waiting for selection.
func (s *RWFifoScheduler) Queued() int {
	return s.reads.size() + s.writes.size()
}

// Reset empties the queues and restarts the read/write mode.
func (s *RWFifoScheduler) Reset() {
	s.Base.Reset()
	s.mode.Reset()
	s.reads.reset()
	s.writes.reset()

	for i := range s.pending {
		s.pending[i] = 0
	}
}

// ReceiveRequest queues a transaction behind the overlapping transactions of
// the other direction.
func (s *RWFifoScheduler) ReceiveRequest(
	_ uint64,
	txn *signal.ChannelTransaction,
) {
	mustBeValidBank("RWFifoScheduler", txn, len(s.pending))

	if txn.IsRead() {
		if s.reads.size() >= s.maxRead {
			panic("RWFifoScheduler.ReceiveRequest: read queue full")
		}

		s.reads.entries = append(s.reads.entries, depEntry{
			txn:        txn,
			dependency: s.writes.findDependency(txn),
		})
	} else {
		if s.writes.size() >= s.maxWrite {
			panic("RWFifoScheduler.ReceiveRequest: write queue full")
		}

		s.writes.entries = append(s.writes.entries, depEntry{
			txn:        txn,
			dependency: s.reads.findDependency(txn),
		})
	}

	s.pending[txn.Bank]++
}

func (s *RWFifoScheduler) frontFlags(
	q *dependencyQueue,
	state org.ModuleState,
) (ready, hit bool) {
	if q.empty() {
		return false, false
	}

	front := q.front()
	ready = front.dependency == nil
	hit = ready && state.ActiveRow(front.txn.Bank) == front.txn.Row

	return ready, hit
}

// SelectNextTransaction picks the front of the queue favoured by the switch
// mode.
func (s *RWFifoScheduler) SelectNextTransaction(
	_ uint64,
) *signal.ChannelTransaction {
	if s.reads.empty() && s.writes.empty() {
		return nil
	}

	state := s.Channel().State()
	readReady, readHit := s.frontFlags(&s.reads, state)
	writeReady, writeHit := s.frontFlags(&s.writes, state)

	if !readReady && !writeReady {
		panic("RWFifoScheduler.SelectNextTransaction: read and write " +
			"fronts wait for each other")
	}

	s.mode.Update(readReady, writeReady, readHit, writeHit)

	var txn *signal.ChannelTransaction

	switch {
	case s.mode.Reading() && readReady:
		txn = s.reads.pop()
		s.writes.wakeUp(txn)
	case s.mode.Writing() && writeReady:
		txn = s.writes.pop()
		s.reads.wakeUp(txn)
	default:
		panic("RWFifoScheduler.SelectNextTransaction: the switch mode picked " +
			"a direction with no ready transaction")
	}

	if s.pending[txn.Bank] == 0 {
		panic(fmt.Sprintf("RWFifoScheduler.SelectNextTransaction: no "+
			"pending access recorded for bank %d", txn.Bank))
	}

	s.pending[txn.Bank]--

	return txn
}

// CommandNotSent closes idle banks under the close page policy.
func (s *RWFifoScheduler) CommandNotSent(cmd *signal.Command, cycle uint64) {
	if s.cfg.PagePolicy != ClosePage {
		return
	}

	s.closeIdleBank(cmd, cycle, func(bank int) bool {
		return s.pending[bank] > 0
	})
}

// CommandSent does nothing.
func (s *RWFifoScheduler) CommandSent(_ *signal.Command, _ uint64) {}

// TransactionCompleted does nothing.
func (s *RWFifoScheduler) TransactionCompleted(
	_ *signal.ChannelTransaction,
	_ uint64,
) {
}

// EndOfClock publishes which directions still have room.
func (s *RWFifoScheduler) EndOfClock(cycle uint64) {
	readAccept := s.reads.size() < s.maxRead-1
	writeAccept := s.writes.size() < s.maxWrite-1

	state := signal.AcceptNone

	switch {
	case readAccept && writeAccept:
		state = signal.AcceptBoth
	case readAccept:
		state = signal.AcceptRead
	case writeAccept:
		state = signal.AcceptWrite
	}

	s.publish(cycle, signal.NewSharedState(state))
}
