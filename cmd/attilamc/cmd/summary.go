package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func printSummary(w io.Writer, r report) {
	title := color.New(color.FgCyan, color.Bold)
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)

	row := func(name string, format string, args ...any) {
		fmt.Fprintf(w, "  %-24s %s\n", name, fmt.Sprintf(format, args...))
	}

	title.Fprintln(w, "Workload")
	row("kind", "%s", r.Workload)
	row("requests", "%d (%d reads, %d writes)",
		r.Gen.Requests, r.Gen.Reads, r.Gen.Writes)
	row("transactions", "%d", r.Gen.Transactions)
	row("bytes", "%d read, %d written", r.Gen.BytesRead, r.Gen.BytesWritten)
	row("request latency", "%.2f cycles avg, %d max",
		r.Gen.AverageLatency(), r.Gen.MaxLatency)
	row("stalled cycles", "%d", r.Gen.StalledCycles)

	title.Fprintln(w, "Controller")
	row("scheduler", "%s", r.Config.Scheduler)
	row("cycles", "%d", r.Ctrl.Cycle)
	row("selected", "%d", r.Ctrl.Scheduler.SelectedTransactions)
	row("read/write switches", "%d", r.Ctrl.Scheduler.SwitchModeCount)
	row("access latency", "%.2f cycles", r.Ctrl.Scheduler.AverageAccessLatency())
	row("controller latency", "%.2f cycles", r.CtrlAvg)

	title.Fprintln(w, "Channel")
	row("commands", "%d ACT, %d PRE, %d RD, %d WR",
		r.Ctrl.Channel.ActivateCommands, r.Ctrl.Channel.PrechargeCommands,
		r.Ctrl.Channel.ReadCommands, r.Ctrl.Channel.WriteCommands)
	row("row hit rate", "%.1f%%", 100*r.Ctrl.RowHitRate())
	row("data bus utilization", "%.1f%%", 100*r.Ctrl.DataBusUtilization())

	if r.Recording != "" {
		row("recorded into", "%s", r.Recording)
	}

	if r.Gen.Mismatches == 0 {
		pass.Fprintln(w, "Data check passed")
		return
	}

	fail.Fprintf(w, "Data check failed: %d mismatches\n", r.Gen.Mismatches)

	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "  %v\n", m)
	}
}
