package org

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

var _ = Describe("Channel", func() {
	var (
		state    *GDDR3State
		requests *signal.Signal[*signal.Command]
		channel  *Channel
		txn      *signal.ChannelTransaction
	)

	BeforeEach(func() {
		state = NewGDDR3State(2, 4, 8, testTiming())
		requests = signal.NewSignal[*signal.Command]("ModuleRequest")
		channel = NewChannel(state, requests)
		txn = signal.NewRead(0, 0, 1, 0, 0, 16)
	})

	It("should forward an accepted command to the module", func() {
		cmd := signal.NewActivate(0, 1)

		Expect(channel.Send(0, cmd, nil)).To(BeTrue())
		Expect(state.ActiveRow(0)).To(Equal(uint32(1)))

		sent, ok := requests.Read(1)
		Expect(ok).To(BeTrue())
		Expect(sent).To(BeIdenticalTo(cmd))
		Expect(channel.Stats().ActivateCommands).To(Equal(uint64(1)))
	})

	It("should reject a command that violates the protocol", func() {
		Expect(channel.Send(0, signal.NewReadCommand(0, 0), txn)).
			To(BeFalse())
		Expect(requests.Busy()).To(BeFalse())
	})

	It("should panic on an access without a transaction", func() {
		Expect(func() {
			channel.Send(0, signal.NewReadCommand(0, 0), nil)
		}).To(Panic())
	})

	It("should accept a dummy only in a cycle with no other command", func() {
		Expect(channel.Send(0, signal.NewActivate(0, 1), nil)).To(BeTrue())
		Expect(channel.Send(0, signal.NewDummy(signal.PCActToAct), nil)).
			To(BeFalse())
		Expect(channel.Send(1, signal.NewDummy(signal.PCActToAct), nil)).
			To(BeTrue())
		Expect(channel.Stats().DummyCommands).To(Equal(uint64(1)))
	})

	It("should count row hits and misses", func() {
		channel.Send(0, signal.NewActivate(0, 1), nil)

		state.UpdateState(3)
		Expect(channel.Send(3, signal.NewReadCommand(0, 0), txn)).To(BeTrue())

		state.UpdateState(5)
		Expect(channel.Send(5, signal.NewReadCommand(0, 4), txn)).To(BeTrue())

		stats := channel.Stats()
		Expect(stats.ReadCommands).To(Equal(uint64(2)))
		Expect(stats.RowMisses).To(Equal(uint64(1)))
		Expect(stats.RowHits).To(Equal(uint64(1)))
	})
})
