// Package signal defines the objects that flow between the boxes of a memory
// channel.
package signal

import (
	"fmt"

	"github.com/rs/xid"
)

// TransactionType is the direction of a channel transaction.
type TransactionType int

const (
	TransactionTypeRead TransactionType = iota
	TransactionTypeWrite
)

func (t TransactionType) String() string {
	if t == TransactionTypeRead {
		return "read"
	}

	return "write"
}

// ChannelTransaction is a memory access that targets a single row of a single
// bank of a memory channel.
type ChannelTransaction struct {
	ID       string
	ParentID string
	Type     TransactionType

	Channel int
	Bank    int
	Row     uint32
	Col     uint32

	Address uint64
	Size    int

	// Data carries the write payload, or receives the read payload.
	Data []byte

	// Mask, if not nil, has one entry per 32-bit word of Data. Words whose
	// entry is false are not written.
	Mask []bool

	// Origin is an opaque reference to whoever issued the transaction.
	Origin any
}

// NewRead creates a read transaction. The data slice to fill is allocated
// here.
func NewRead(channel, bank int, row, col uint32, address uint64, size int,
) *ChannelTransaction {
	return &ChannelTransaction{
		ID:      xid.New().String(),
		Type:    TransactionTypeRead,
		Channel: channel,
		Bank:    bank,
		Row:     row,
		Col:     col,
		Address: address,
		Size:    size,
		Data:    make([]byte, size),
	}
}

// NewWrite creates a write transaction that writes data.
func NewWrite(channel, bank int, row, col uint32, address uint64, data []byte,
) *ChannelTransaction {
	return &ChannelTransaction{
		ID:      xid.New().String(),
		Type:    TransactionTypeWrite,
		Channel: channel,
		Bank:    bank,
		Row:     row,
		Col:     col,
		Address: address,
		Size:    len(data),
		Data:    data,
	}
}

// IsRead returns true if the transaction is a read transaction.
func (t *ChannelTransaction) IsRead() bool {
	return t.Type == TransactionTypeRead
}

// IsWrite returns true if the transaction is a write transaction.
func (t *ChannelTransaction) IsWrite() bool {
	return t.Type == TransactionTypeWrite
}

// IsMasked returns true if only part of the words are written.
func (t *ChannelTransaction) IsMasked() bool {
	return t.Mask != nil
}

// SetData copies a chunk of bytes into the transaction payload.
func (t *ChannelTransaction) SetData(data []byte, offset int) {
	if offset+len(data) > len(t.Data) {
		panic(fmt.Sprintf(
			"ChannelTransaction.SetData: %d bytes at offset %d overflow a "+
				"%d-byte transaction", len(data), offset, len(t.Data)))
	}

	copy(t.Data[offset:], data)
}

// OverlapsWith checks if two transactions touch at least one common byte.
func (t *ChannelTransaction) OverlapsWith(o *ChannelTransaction) bool {
	if t.Channel != o.Channel {
		return false
	}

	start, end := t.Address, t.Address+uint64(t.Size)
	oStart, oEnd := o.Address, o.Address+uint64(o.Size)

	return start < oEnd && oStart < end
}

func (t *ChannelTransaction) String() string {
	return fmt.Sprintf("%s %s ch=%d bank=%d row=%d col=%d addr=0x%x size=%d",
		t.ID, t.Type, t.Channel, t.Bank, t.Row, t.Col, t.Address, t.Size)
}
