package sched

import (
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

func testTiming() org.Timing {
	return org.Timing{
		TRRD:         2,
		TRCD:         3,
		TWTR:         2,
		TRTW:         1,
		TWR:          2,
		TRP:          3,
		CASLatency:   4,
		WriteLatency: 2,
	}
}

// rig connects a scheduler to a real channel and module, ticking them the
// way the controller component does.
type rig struct {
	state    *org.GDDR3State
	channel  *org.Channel
	module   *org.Module
	requests *signal.Signal[*signal.Command]
	bursts   *signal.Signal[*signal.Burst]
	replies  *signal.Signal[*signal.ChannelTransaction]
	states   *signal.Signal[*signal.SchedulerState]
	base     *Base
	sched    Scheduler

	selected []*signal.ChannelTransaction
	done     []*signal.ChannelTransaction
}

func newRig(banks int, page PagePolicy) *rig {
	r := &rig{
		requests: signal.NewSignal[*signal.Command]("Command"),
		bursts:   signal.NewSignal[*signal.Burst]("Burst"),
		replies:  signal.NewSignal[*signal.ChannelTransaction]("Reply"),
		states:   signal.NewSignal[*signal.SchedulerState]("State"),
	}

	r.state = org.NewGDDR3State(banks, 8, 8, testTiming())
	r.channel = org.NewChannel(r.state, r.requests)
	r.module = org.NewModule("Module", banks, 16, 64, 8, 8, testTiming(),
		r.requests, r.bursts)

	r.base = NewBase(BaseConfig{
		BurstLength:   8,
		BytesPerCycle: 8,
		ReadDelay:     4,
		WriteDelay:    2,
		PagePolicy:    page,
	}, r.channel, r.replies, r.states)
	r.base.OnSelect(func(_ uint64, txn *signal.ChannelTransaction) {
		r.selected = append(r.selected, txn)
	})

	return r
}

func (r *rig) step(cycle uint64) {
	r.state.UpdateState(cycle)

	if reply, ok := r.replies.Consume(cycle); ok {
		r.done = append(r.done, reply)
	}

	if burst, ok := r.bursts.Consume(cycle); ok {
		r.sched.ReceiveData(cycle, burst)
	}

	r.sched.Clock(cycle)
	r.module.Tick(cycle)
}

// run ticks until n replies are back or the cycle limit is hit. It returns
// the next cycle.
func (r *rig) run(from uint64, n int, limit uint64) uint64 {
	cycle := from
	for ; cycle < limit && len(r.done) < n; cycle++ {
		r.step(cycle)
	}

	return cycle
}

func (r *rig) accept(cycle uint64) *signal.SchedulerState {
	s, _ := r.states.Read(cycle)
	return s
}
