// Package trans holds the transaction side of the scheduler: transaction
// queues, the splitter that cuts memory requests into channel transactions,
// and the expansion of a transaction into burst commands.
package trans

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

type tqEntry struct {
	txn       *signal.ChannelTransaction
	timestamp uint64
}

// TQueue is a FIFO of channel transactions that remembers when each
// transaction was enqueued. It does not check any capacity, the owner does.
type TQueue struct {
	name    string
	entries []tqEntry
	size    int
}

// NewTQueue creates an empty queue.
func NewTQueue(name string) *TQueue {
	return &TQueue{name: name}
}

// Name returns the name of the queue.
func (q *TQueue) Name() string {
	return q.name
}

// SetName renames the queue.
func (q *TQueue) SetName(name string) {
	q.name = name
}

// Enqueue adds a transaction at the back of the queue.
func (q *TQueue) Enqueue(txn *signal.ChannelTransaction, timestamp uint64) {
	q.entries = append(q.entries, tqEntry{txn: txn, timestamp: timestamp})
	q.size++
}

func (q *TQueue) mustNotBeEmpty(op string) {
	if q.size == 0 {
		panic(fmt.Sprintf("TQueue.%s: queue %s is empty", op, q.name))
	}
}

// Front returns the oldest transaction.
func (q *TQueue) Front() *signal.ChannelTransaction {
	q.mustNotBeEmpty("Front")
	return q.entries[0].txn
}

// Timestamp returns when the oldest transaction was enqueued.
func (q *TQueue) Timestamp() uint64 {
	q.mustNotBeEmpty("Timestamp")
	return q.entries[0].timestamp
}

// Pop removes the oldest transaction.
func (q *TQueue) Pop() {
	q.mustNotBeEmpty("Pop")

	q.entries[0] = tqEntry{}
	q.entries = q.entries[1:]
	q.size--
}

// Size returns the number of transactions in the queue.
func (q *TQueue) Size() int {
	return q.size
}

// Empty tells if there is no transaction in the queue.
func (q *TQueue) Empty() bool {
	return q.size == 0
}

// Reset removes all the transactions.
func (q *TQueue) Reset() {
	q.entries = nil
	q.size = 0
}

// Each calls fn on every transaction, from the oldest to the youngest.
func (q *TQueue) Each(fn func(txn *signal.ChannelTransaction, timestamp uint64)) {
	for _, e := range q.entries {
		fn(e.txn, e.timestamp)
	}
}

// ConsecutiveAccesses counts the transactions in the queue that target the
// same row as the front. It returns 0 if the queue is empty or if the front
// is not of the requested direction. Transactions behind a different row are
// still counted.
func (q *TQueue) ConsecutiveAccesses(writes bool) int {
	if q.size == 0 {
		return 0
	}

	front := q.entries[0].txn
	if front.IsWrite() != writes {
		return 0
	}

	count := 0

	for _, e := range q.entries {
		if e.txn.Row == front.Row {
			count++
		}
	}

	return count
}
