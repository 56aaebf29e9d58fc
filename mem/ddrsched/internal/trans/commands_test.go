package trans

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

var _ = Describe("ToCommands", func() {
	It("should create one read per burst", func() {
		txn := signal.NewRead(0, 3, 1, 8, 0, 40)

		cmds := ToCommands(txn, 4)

		Expect(cmds).To(HaveLen(3))

		for i, cmd := range cmds {
			Expect(cmd.Kind).To(Equal(signal.CmdKindRead))
			Expect(cmd.Bank).To(Equal(3))
			Expect(cmd.Col).To(Equal(uint32(8 + 4*i)))
			Expect(cmd.TransactionID).To(Equal(txn.ID))
		}
	})

	It("should carry the byte mask into the write bursts", func() {
		data := make([]byte, 24)
		data[16] = 5

		txn := signal.NewWrite(0, 1, 1, 0, 0, data)
		txn.Mask = []bool{true, false, true, true, true, true}

		cmds := ToCommands(txn, 4)

		Expect(cmds).To(HaveLen(2))
		Expect(cmds[1].Kind).To(Equal(signal.CmdKindWrite))
		Expect(cmds[1].Col).To(Equal(uint32(4)))

		first := cmds[0].Data
		Expect(first.Enabled(1)).To(BeFalse())
		Expect(first.Enabled(2)).To(BeTrue())

		last := cmds[1].Data
		Expect(last.Words[0]).To(Equal(uint32(5)))
		Expect(last.Enabled(1)).To(BeTrue())
		Expect(last.Enabled(2)).To(BeFalse())
		Expect(last.Enabled(3)).To(BeFalse())
	})
})
