package ddrsched

import (
	"bytes"
	"encoding/binary"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
)

// driver submits a list of transactions, one per cycle when the controller
// accepts them, and collects the replies.
type driver struct {
	*sim.TickingComponent

	comp     *Comp
	pending  []*Transaction
	inflight int
	done     []*Transaction
}

func newDriver(engine sim.Engine, comp *Comp) *driver {
	d := &driver{comp: comp}
	d.TickingComponent = sim.NewTickingComponent("Driver", engine, 1*sim.GHz, d)

	return d
}

func (d *driver) Tick() bool {
	cycle := d.Freq.Cycle(d.CurrentTime())
	madeProgress := false

	if txn, ok := d.comp.Reply(cycle); ok {
		d.done = append(d.done, txn)
		d.inflight--
		madeProgress = true
	}

	if len(d.pending) > 0 {
		next := d.pending[0]
		if d.comp.CanAccept(next.Bank, next.IsRead()) {
			d.comp.Submit(cycle, next)
			d.pending = d.pending[1:]
			d.inflight++
			madeProgress = true
		}
	}

	return madeProgress || len(d.pending) > 0 || d.inflight > 0
}

func (d *driver) issue(engine sim.Engine, txns ...*Transaction) {
	d.pending = append(d.pending, txns...)
	d.TickLater()

	Expect(engine.Run()).To(Succeed())
}

func smallBuilder(engine sim.Engine) Builder {
	return MakeBuilder().
		WithEngine(engine).
		WithNumBank(4).
		WithNumRow(16).
		WithNumCol(64).
		WithCapacity(8).
		WithTiming(TimingConfig{
			TRRD:         2,
			TRCD:         3,
			TWTR:         2,
			TRTW:         1,
			TWR:          2,
			TRP:          3,
			CASLatency:   4,
			WriteLatency: 2,
		})
}

func split(c *Comp, read bool, address uint64, data []byte) []*Transaction {
	return c.Splitter().Split(&Request{
		ID:      "req",
		Read:    read,
		Address: address,
		Data:    data,
	})
}

func pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i)
	}

	return data
}

var _ = Describe("Comp", func() {
	var (
		engine sim.Engine
		comp   *Comp
		d      *driver
	)

	build := func(b Builder) {
		comp = b.Build("MemCtrl")
		d = newDriver(engine, comp)
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
	})

	It("should panic on an invalid configuration", func() {
		Expect(func() {
			smallBuilder(engine).WithNumBank(3).Build("MemCtrl")
		}).To(Panic())
	})

	for _, kind := range []SchedulerKind{
		SchedulerBankQueue, SchedulerFifo, SchedulerRWFifo,
	} {
		It("should read back what was written with "+string(kind), func() {
			build(smallBuilder(engine).WithScheduler(kind))

			data := pattern(64, 1)
			d.issue(engine, split(comp, false, 0x100, data)...)
			Expect(d.done).To(HaveLen(1))

			buf := make([]byte, 64)
			d.issue(engine, split(comp, true, 0x100, buf)...)

			Expect(d.done).To(HaveLen(2))
			Expect(buf).To(Equal(data))
			Expect(d.done[1].IsRead()).To(BeTrue())
		})
	}

	It("should split a request into one transaction per row", func() {
		build(smallBuilder(engine))

		txns := split(comp, false, 0xe0, pattern(64, 0))
		Expect(txns).To(HaveLen(2))
		Expect(txns[0].Bank).To(Equal(0))
		Expect(txns[1].Bank).To(Equal(1))
	})

	It("should store the written words in the module", func() {
		build(smallBuilder(engine))

		d.issue(engine, split(comp, false, 0x100, pattern(32, 0x10))...)

		info := comp.Splitter().Locate(0x100)
		words := comp.Peek(info.Bank, info.Row, info.Col, 8)
		Expect(words[0]).To(Equal(binary.LittleEndian.Uint32(
			[]byte{0x10, 0x11, 0x12, 0x13})))
		Expect(words[7]).To(Equal(binary.LittleEndian.Uint32(
			[]byte{0x2c, 0x2d, 0x2e, 0x2f})))
	})

	It("should return poison from memory that was never written", func() {
		build(smallBuilder(engine))

		buf := make([]byte, 8)
		d.issue(engine, split(comp, true, 0x200, buf)...)

		Expect(buf).To(Equal([]byte{0xfe, 0xca, 0xad, 0xde,
			0xfe, 0xca, 0xad, 0xde}))
	})

	It("should read preloaded data", func() {
		build(smallBuilder(engine))

		info := comp.Splitter().Locate(0x40)
		comp.Preload(info.Bank, info.Row, info.Col, []uint32{7, 8})

		buf := make([]byte, 8)
		d.issue(engine, split(comp, true, 0x40, buf)...)

		Expect(buf).To(Equal([]byte{7, 0, 0, 0, 8, 0, 0, 0}))
	})

	It("should count the commands of a run", func() {
		build(smallBuilder(engine))

		txns := split(comp, false, 0, pattern(256, 0))
		txns = append(txns, split(comp, false, 0x400, pattern(32, 0))...)
		d.issue(engine, txns...)

		stats := comp.Stats()
		Expect(stats.Scheduler.SelectedTransactions).To(Equal(uint64(2)))
		Expect(stats.Channel.WriteCommands).To(Equal(uint64(9)))
		Expect(stats.Channel.ActivateCommands).To(Equal(uint64(2)))
		Expect(stats.Channel.RowHits).To(Equal(uint64(7)))
		Expect(stats.RowHitRate()).To(BeNumerically("~", 7.0/9.0))
		Expect(stats.Module.WriteBytes).To(Equal(uint64(288)))
		Expect(comp.Busy()).To(BeFalse())
	})

	It("should panic when two transactions are submitted in a cycle", func() {
		build(smallBuilder(engine))

		txns := split(comp, true, 0, make([]byte, 64))
		txns = append(txns, split(comp, true, 0x400, make([]byte, 32))...)

		comp.Submit(3, txns[0])
		Expect(func() { comp.Submit(3, txns[1]) }).To(Panic())
	})

	It("should start over after a reset", func() {
		build(smallBuilder(engine))

		d.issue(engine, split(comp, false, 0, pattern(32, 9))...)
		comp.Reset()

		Expect(comp.Stats().Channel.WriteCommands).To(BeZero())
		Expect(comp.CanAccept(0, true)).To(BeTrue())

		buf := make([]byte, 4)
		d.issue(engine, split(comp, true, 0, buf)...)
		Expect(buf).To(Equal([]byte{0xfe, 0xca, 0xad, 0xde}))
	})

	It("should log the commands through a hook", func() {
		out := new(bytes.Buffer)
		logger := NewCommandLogger(log.New(out, "", 0))
		build(smallBuilder(engine).WithAdditionalHooks(logger))

		d.issue(engine, split(comp, false, 0, pattern(32, 0))...)

		Expect(out.String()).To(ContainSubstring(
			"MemCtrl,DDR Command Issued,ACT bank=0 row=0"))
		Expect(out.String()).To(ContainSubstring("WR bank=0 col=0"))
		Expect(out.String()).To(ContainSubstring("DDR Command Stalled"))
	})

	It("should trace the transactions", func() {
		build(smallBuilder(engine))

		tracer := tracing.NewAverageTimeTracer(engine,
			func(t tracing.Task) bool { return t.Kind == "req_in" })
		tracing.CollectTrace(comp, tracer)

		txns := split(comp, false, 0, pattern(32, 0))
		txns = append(txns, split(comp, false, 0x400, pattern(32, 0))...)
		d.issue(engine, txns...)

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(BeNumerically(">", 0))
	})
})
