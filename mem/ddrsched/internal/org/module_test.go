package org

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

var _ = Describe("Module", func() {
	var (
		commands *signal.Signal[*signal.Command]
		replies  *signal.Signal[*signal.Burst]
		m        *Module
	)

	BeforeEach(func() {
		commands = signal.NewSignal[*signal.Command]("ModuleRequest")
		replies = signal.NewSignal[*signal.Burst]("ModuleReply")
		m = NewModule("Module", 2, 4, 16, 4, 8, testTiming(),
			commands, replies)
	})

	run := func(from, to uint64, cmds map[uint64]*signal.Command) {
		for c := from; c <= to; c++ {
			if cmd, ok := cmds[c]; ok {
				commands.Write(c, cmd)
			}

			m.Tick(c)
		}
	}

	It("should hold poison until written", func() {
		Expect(m.Peek(1, 3, 15, 1)).To(Equal([]uint32{PoisonWord}))
	})

	It("should read a burst back after CAS and the transfer", func() {
		m.Preload(0, 1, 0, []uint32{1, 2, 3, 4})

		run(0, 11, map[uint64]*signal.Command{
			0: signal.NewActivate(0, 1),
			4: signal.NewReadCommand(0, 0),
		})

		b, ok := replies.Consume(12)
		Expect(ok).To(BeTrue())
		Expect(b.Words).To(Equal([]uint32{1, 2, 3, 4}))

		stats := m.Stats()
		Expect(stats.ActivateCommands).To(Equal(uint64(1)))
		Expect(stats.ReadCycles).To(Equal(uint64(2)))
		Expect(stats.ReadBytes).To(Equal(uint64(16)))
		Expect(stats.CASCycles).To(Equal(uint64(4)))
	})

	It("should store the enabled words of a write burst", func() {
		burst := signal.NewBurst(4)
		burst.SetData([]byte{9, 0, 0, 0, 10, 0, 0, 0})

		run(0, 9, map[uint64]*signal.Command{
			0: signal.NewActivate(0, 1),
			4: signal.NewWriteCommand(0, 0, burst),
		})

		Expect(m.Peek(0, 1, 0, 4)).To(Equal(
			[]uint32{9, 10, PoisonWord, PoisonWord}))
		Expect(m.Stats().WriteCycles).To(Equal(uint64(2)))
	})

	It("should count the cycles with all the banks precharged", func() {
		run(0, 2, nil)

		Expect(m.Stats().AllBanksPrechargedCycles).To(Equal(uint64(3)))
		Expect(m.Stats().IdleCycles).To(Equal(uint64(3)))
	})

	It("should panic on a command that breaks the protocol", func() {
		commands.Write(0, signal.NewReadCommand(0, 0))

		m.Tick(0)
		Expect(func() { m.Tick(1) }).To(Panic())
	})

	It("should not preload across a row", func() {
		Expect(func() {
			m.Preload(0, 0, 15, []uint32{1, 2})
		}).To(Panic())
	})
})
