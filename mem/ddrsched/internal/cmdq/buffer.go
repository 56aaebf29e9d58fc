// Package cmdq provides the command buffer of a channel scheduler.
package cmdq

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/trans"
)

// A Buffer holds the commands of the transaction that is being served, in
// the order they must be issued.
type Buffer struct {
	burstLength int
	cmds        []*signal.Command
}

// NewBuffer creates an empty buffer.
func NewBuffer(burstLength int) *Buffer {
	return &Buffer{burstLength: burstLength}
}

// Fill expands a transaction into commands. Precharge and activate commands
// are added in front of the bursts when the target row is not open. It
// returns the number of bursts.
func (b *Buffer) Fill(
	txn *signal.ChannelTransaction,
	state org.ModuleState,
) int {
	bursts := trans.ToCommands(txn, b.burstLength)

	openRows := make([]uint32, state.Banks())
	for i := range openRows {
		openRows[i] = state.ActiveRow(i)
	}

	for _, cmd := range bursts {
		bank := cmd.Bank
		if openRows[bank] != txn.Row {
			if openRows[bank] != org.NoActiveRow {
				b.push(signal.NewPrecharge(bank), txn)
			}

			b.push(signal.NewActivate(bank, txn.Row), txn)
			openRows[bank] = txn.Row
		}

		b.cmds = append(b.cmds, cmd)
	}

	return len(bursts)
}

func (b *Buffer) push(cmd *signal.Command, txn *signal.ChannelTransaction) {
	cmd.TransactionID = txn.ID
	b.cmds = append(b.cmds, cmd)
}

// Empty tells if there is no command to issue.
func (b *Buffer) Empty() bool {
	return len(b.cmds) == 0
}

// Len returns the number of buffered commands.
func (b *Buffer) Len() int {
	return len(b.cmds)
}

// Front returns the next command to issue.
func (b *Buffer) Front() *signal.Command {
	if len(b.cmds) == 0 {
		panic("Buffer.Front: command buffer is empty")
	}

	return b.cmds[0]
}

// Peek returns the i-th command, or nil if there is no such command.
func (b *Buffer) Peek(i int) *signal.Command {
	if i < 0 || i >= len(b.cmds) {
		return nil
	}

	return b.cmds[i]
}

// Pop removes the next command.
func (b *Buffer) Pop() *signal.Command {
	if len(b.cmds) == 0 {
		panic("Buffer.Pop: command buffer is empty")
	}

	cmd := b.cmds[0]
	b.cmds[0] = nil
	b.cmds = b.cmds[1:]

	return cmd
}

// Reset drops all the commands.
func (b *Buffer) Reset() {
	b.cmds = nil
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%d commands", len(b.cmds))
}
