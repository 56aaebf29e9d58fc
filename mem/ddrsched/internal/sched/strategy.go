// Package sched implements the transaction schedulers of a memory channel.
//
// All the schedulers share the cycle loop of Base. They differ in how they
// queue the incoming transactions, pick the next one to serve, and use the
// cycles in which the current command is stalled.
package sched

import "github.com/sarchlab/attila/mem/ddrsched/internal/signal"

// A Strategy is the queueing and selection policy of a scheduler. Base calls
// it back at fixed points of each cycle.
type Strategy interface {
	// SelectNextTransaction removes and returns the next transaction to
	// serve, or nil if there is none.
	SelectNextTransaction(cycle uint64) *signal.ChannelTransaction

	// CommandNotSent is called when the current command could not be issued,
	// or with a nil command when there is nothing to issue. The command
	// carries the protocol constraint that stalls it.
	CommandNotSent(cmd *signal.Command, cycle uint64)

	// CommandSent is called after a command of the buffer is issued.
	CommandSent(cmd *signal.Command, cycle uint64)

	// TransactionCompleted is called when the last data of a transaction is
	// moved.
	TransactionCompleted(txn *signal.ChannelTransaction, cycle uint64)

	// EndOfClock is the last step of a cycle. The strategy publishes its
	// accept state here.
	EndOfClock(cycle uint64)
}

// A Scheduler is what the controller component drives.
type Scheduler interface {
	ReceiveRequest(cycle uint64, txn *signal.ChannelTransaction)
	ReceiveData(cycle uint64, burst *signal.Burst)
	Clock(cycle uint64)
	Queued() int
	Busy() bool
	Stats() Stats
	Reset()
}
