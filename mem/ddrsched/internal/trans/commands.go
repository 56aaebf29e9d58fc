package trans

import (
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// ToCommands converts a transaction into the read or write commands of its
// bursts. The last burst is partial if the transaction size is not a multiple
// of the burst size. The row must be opened by the caller.
func ToCommands(
	txn *signal.ChannelTransaction,
	burstLength int,
) []*signal.Command {
	burstBytes := 4 * burstLength
	nBurst := (txn.Size + burstBytes - 1) / burstBytes
	col := txn.Col

	cmds := make([]*signal.Command, 0, nBurst)

	for i := 0; i < nBurst; i++ {
		var cmd *signal.Command

		if txn.IsRead() {
			cmd = signal.NewReadCommand(txn.Bank, col)
		} else {
			cmd = signal.NewWriteCommand(txn.Bank, col,
				writeBurst(txn, i, burstLength))
		}

		cmd.TransactionID = txn.ID
		cmds = append(cmds, cmd)
		col += uint32(burstLength)
	}

	return cmds
}

func writeBurst(
	txn *signal.ChannelTransaction,
	i, burstLength int,
) *signal.Burst {
	burstBytes := 4 * burstLength
	start := i * burstBytes
	end := min(start+burstBytes, txn.Size)

	b := signal.NewBurst(burstLength)
	b.SetData(txn.Data[start:end])

	if txn.IsMasked() {
		b.SetMask(txn.Mask[start/4 : end/4])
	}

	return b
}
