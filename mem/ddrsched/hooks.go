package ddrsched

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// HookPosCmdIssued marks a command that the channel accepted. The item of
// the hook context is the command and the detail is a CommandEvent.
var HookPosCmdIssued = &sim.HookPos{Name: "DDR Command Issued"}

// HookPosCmdStalled marks a cycle in which the scheduler could not issue a
// command. The item is the dummy command that carries the constraint.
var HookPosCmdStalled = &sim.HookPos{Name: "DDR Command Stalled"}

// CommandEvent is the detail of the command hooks.
type CommandEvent struct {
	Cycle       uint64
	Transaction *signal.ChannelTransaction
}

// hookedChannel reports every command sent through a channel to the hooks
// of the controller.
type hookedChannel struct {
	*org.Channel
	comp *Comp
}

func (h hookedChannel) Send(
	cycle uint64,
	cmd *signal.Command,
	txn *signal.ChannelTransaction,
) bool {
	sent := h.Channel.Send(cycle, cmd, txn)
	if !sent || h.comp.NumHooks() == 0 {
		return sent
	}

	pos := HookPosCmdIssued
	if cmd.Kind == signal.CmdKindDummy {
		pos = HookPosCmdStalled
	}

	h.comp.InvokeHook(sim.HookCtx{
		Domain: h.comp,
		Pos:    pos,
		Item:   cmd,
		Detail: CommandEvent{Cycle: cycle, Transaction: txn},
	})

	return sent
}

// CommandLogger is a hook that prints the commands of a controller, one line
// per command.
type CommandLogger struct {
	*log.Logger

	// SkipStalls hides the stalled cycles.
	SkipStalls bool
}

// NewCommandLogger creates a CommandLogger that writes into the logger.
func NewCommandLogger(logger *log.Logger) *CommandLogger {
	return &CommandLogger{Logger: logger}
}

// Func prints the command.
func (h *CommandLogger) Func(ctx sim.HookCtx) {
	cmd, ok := ctx.Item.(*signal.Command)
	if !ok {
		return
	}

	if ctx.Pos != HookPosCmdIssued && ctx.Pos != HookPosCmdStalled {
		return
	}

	if ctx.Pos == HookPosCmdStalled && h.SkipStalls {
		return
	}

	event, _ := ctx.Detail.(CommandEvent)

	txnID := "-"
	if event.Transaction != nil {
		txnID = event.Transaction.ID
	}

	h.Printf("%d,%s,%s,%s,%s\n",
		event.Cycle, ctx.Domain.(sim.Named).Name(), ctx.Pos.Name, cmd, txnID)
}
