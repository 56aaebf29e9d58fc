package org

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// A ChannelView is what a scheduler sees of the memory channel. It can check
// the protocol state and try to send commands.
type ChannelView interface {
	// Send issues a command if the protocol state allows it and returns true
	// if the command is accepted. Read and write commands need the
	// transaction they serve.
	Send(
		cycle uint64,
		cmd *signal.Command,
		txn *signal.ChannelTransaction,
	) bool

	// State returns the protocol state of the module behind the channel.
	State() ModuleState
}

// ChannelStats counts the commands sent over a channel.
type ChannelStats struct {
	ActivateCommands  uint64 `json:"activate_commands"`
	PrechargeCommands uint64 `json:"precharge_commands"`
	ReadCommands      uint64 `json:"read_commands"`
	WriteCommands     uint64 `json:"write_commands"`
	DummyCommands     uint64 `json:"dummy_commands"`
	RowHits           uint64 `json:"row_hits"`
	RowMisses         uint64 `json:"row_misses"`
	WriteBytes        uint64 `json:"write_bytes"`
}

// Channel is the command boundary between a scheduler and its module.
type Channel struct {
	state    *GDDR3State
	requests *signal.Signal[*signal.Command]

	lastCmdWasRW []bool
	lastSent     uint64
	sentOnce     bool

	stats ChannelStats
}

// NewChannel creates a channel that checks commands against state and
// forwards the accepted ones on the request signal.
func NewChannel(
	state *GDDR3State,
	requests *signal.Signal[*signal.Command],
) *Channel {
	return &Channel{
		state:        state,
		requests:     requests,
		lastCmdWasRW: make([]bool, state.Banks()),
	}
}

// State returns the protocol state.
func (c *Channel) State() ModuleState {
	return c.state
}

// GDDR3 returns the concrete protocol state, which can be mutated.
func (c *Channel) GDDR3() *GDDR3State {
	return c.state
}

// Stats returns the command statistics.
func (c *Channel) Stats() ChannelStats {
	return c.stats
}

// Reset clears the statistics and the row hit tracking.
func (c *Channel) Reset() {
	c.stats = ChannelStats{}
	c.sentOnce = false
	c.lastSent = 0

	for i := range c.lastCmdWasRW {
		c.lastCmdWasRW[i] = false
	}
}

func (c *Channel) countRowHit(bank int) {
	if c.lastCmdWasRW[bank] {
		c.stats.RowHits++
	} else {
		c.stats.RowMisses++
	}

	c.lastCmdWasRW[bank] = true
}

// Send issues a command.
func (c *Channel) Send(
	cycle uint64,
	cmd *signal.Command,
	txn *signal.ChannelTransaction,
) bool {
	issue := false

	switch cmd.Kind {
	case signal.CmdKindActivate:
		issue = c.state.CanBeIssued(cmd.Bank, cmd.Kind)
		if issue {
			c.stats.ActivateCommands++
			c.lastCmdWasRW[cmd.Bank] = false
			c.state.PostActivate(cmd.Bank, cmd.Row)
		}
	case signal.CmdKindRead:
		c.transactionMustExist(cmd, txn)

		issue = c.state.CanBeIssued(cmd.Bank, cmd.Kind)
		if issue {
			c.stats.ReadCommands++
			c.countRowHit(cmd.Bank)
			c.state.PostRead(cmd.Bank)
		}
	case signal.CmdKindWrite:
		c.transactionMustExist(cmd, txn)

		issue = c.state.CanBeIssued(cmd.Bank, cmd.Kind)
		if issue {
			c.stats.WriteCommands++
			c.countRowHit(cmd.Bank)
			c.stats.WriteBytes += uint64(4 * cmd.Data.Len())
			c.state.PostWrite(cmd.Bank)
		}
	case signal.CmdKindPrecharge:
		issue = c.state.CanBeIssued(cmd.Bank, cmd.Kind)
		if issue {
			c.stats.PrechargeCommands++
			c.lastCmdWasRW[cmd.Bank] = false
			c.state.PostPrecharge(cmd.Bank)
		}
	case signal.CmdKindDummy:
		issue = !c.sentOnce || cycle > c.lastSent
		if issue {
			c.stats.DummyCommands++
		}
	default:
		panic(fmt.Sprintf("Channel.Send: unexpected command %s", cmd.Kind))
	}

	if !issue {
		return false
	}

	if txn != nil {
		cmd.TransactionID = txn.ID
	}

	c.requests.Write(cycle, cmd)
	c.lastSent = cycle
	c.sentOnce = true

	return true
}

func (c *Channel) transactionMustExist(
	cmd *signal.Command,
	txn *signal.ChannelTransaction,
) {
	if txn == nil {
		panic(fmt.Sprintf("Channel.Send: the transaction of a %s command "+
			"cannot be nil", cmd.Kind))
	}
}
