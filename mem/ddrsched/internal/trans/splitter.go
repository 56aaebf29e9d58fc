package trans

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// MemoryRequest is a request as it arrives from the memory clients. It can
// cover any number of bursts in any number of rows.
type MemoryRequest struct {
	ID      string
	Read    bool
	Address uint64

	// Data is the write payload, or the buffer that receives the read data.
	// Its length is the size of the request.
	Data []byte

	// Mask has one entry per 32-bit word. nil means all words are written.
	Mask []bool

	Origin any
}

// AddressInfo is the location of an address in the memory.
type AddressInfo struct {
	Channel int
	Bank    int
	Row     uint32
	Col     uint32
}

// Splitter cuts memory requests into transactions that each touch a single
// row. Addresses are interpreted, from the lowest bits, as the byte offset in
// the row, the channel, the bank, and the row.
type Splitter struct {
	burstBytes int
	channels   int
	banks      int
	rows       int
	cols       int

	colBits     int
	channelBits int
	bankBits    int
}

// NewSplitter creates a splitter. All the sizes must be powers of two.
func NewSplitter(burstLength, channels, banks, rows, cols int) *Splitter {
	for _, v := range []int{burstLength, channels, banks, rows, cols} {
		if v <= 0 || v&(v-1) != 0 {
			panic(fmt.Sprintf("Splitter.New: %d is not a power of two", v))
		}
	}

	return &Splitter{
		burstBytes:  4 * burstLength,
		channels:    channels,
		banks:       banks,
		rows:        rows,
		cols:        cols,
		colBits:     bits.TrailingZeros(uint(cols * 4)),
		channelBits: bits.TrailingZeros(uint(channels)),
		bankBits:    bits.TrailingZeros(uint(banks)),
	}
}

// BurstBytes returns the number of bytes in a burst.
func (s *Splitter) BurstBytes() int {
	return s.burstBytes
}

// Capacity returns the number of bytes addressable through the splitter.
func (s *Splitter) Capacity() uint64 {
	return uint64(s.channels) * uint64(s.banks) * uint64(s.rows) *
		uint64(s.cols) * 4
}

// Locate decodes an address.
func (s *Splitter) Locate(address uint64) AddressInfo {
	a := address

	col := uint32(a&(1<<s.colBits-1)) / 4
	a >>= s.colBits

	channel := int(a & (1<<s.channelBits - 1))
	a >>= s.channelBits

	bank := int(a & (1<<s.bankBits - 1))
	a >>= s.bankBits

	return AddressInfo{
		Channel: channel,
		Bank:    bank,
		Row:     uint32(a),
		Col:     col,
	}
}

// Address encodes a location. It is the inverse of Locate.
func (s *Splitter) Address(info AddressInfo) uint64 {
	a := uint64(info.Row)
	a = a<<s.bankBits | uint64(info.Bank)
	a = a<<s.channelBits | uint64(info.Channel)
	a = a<<s.colBits | uint64(info.Col)*4

	return a
}

type chunk struct {
	address uint64
	size    int
}

// Split cuts a request into channel transactions. Consecutive bursts in the
// same row of the same bank are merged into one transaction. The data of
// read transactions aliases the data of the request.
func (s *Splitter) Split(req *MemoryRequest) []*signal.ChannelTransaction {
	size := len(req.Data)
	if size == 0 {
		panic("Splitter.Split: request size cannot be 0")
	}

	if size%4 != 0 {
		panic("Splitter.Split: request size must be a multiple of 4 bytes")
	}

	if req.Address%uint64(s.burstBytes) != 0 {
		panic(fmt.Sprintf("Splitter.Split: address 0x%x is not aligned to "+
			"the %d-byte burst", req.Address, s.burstBytes))
	}

	chunks := s.chunks(req.Address, size)

	txns := make([]*signal.ChannelTransaction, 0, len(chunks))
	offset := 0

	for _, c := range chunks {
		info := s.Locate(c.address)
		s.mustBeInRange(info)

		data := req.Data[offset : offset+c.size]

		var t *signal.ChannelTransaction
		if req.Read {
			t = signal.NewRead(info.Channel, info.Bank, info.Row, info.Col,
				c.address, c.size)
			t.Data = data
		} else {
			t = signal.NewWrite(info.Channel, info.Bank, info.Row, info.Col,
				c.address, data)
			if req.Mask != nil {
				t.Mask = req.Mask[offset/4 : (offset+c.size)/4]
			}
		}

		t.ParentID = req.ID
		t.Origin = req.Origin
		txns = append(txns, t)

		offset += c.size
	}

	return txns
}

func (s *Splitter) chunks(address uint64, total int) []chunk {
	bytes := min(total, s.burstBytes)
	total -= bytes

	chunks := []chunk{{address: address, size: bytes}}
	prev := s.Locate(address)
	next := address

	for total != 0 {
		next += uint64(bytes)
		info := s.Locate(next)

		bytes = min(total, s.burstBytes)
		total -= bytes

		if info.Channel == prev.Channel &&
			info.Bank == prev.Bank &&
			info.Row == prev.Row {
			chunks[len(chunks)-1].size += bytes
			continue
		}

		chunks = append(chunks, chunk{address: next, size: bytes})
		prev = info
	}

	return chunks
}

func (s *Splitter) mustBeInRange(info AddressInfo) {
	switch {
	case info.Channel >= s.channels:
		panic(fmt.Sprintf("Splitter.Split: channel %d out of bounds",
			info.Channel))
	case info.Bank >= s.banks:
		panic(fmt.Sprintf("Splitter.Split: bank %d out of bounds", info.Bank))
	case int(info.Row) >= s.rows:
		panic(fmt.Sprintf("Splitter.Split: row %d out of bounds", info.Row))
	case int(info.Col) >= s.cols:
		panic(fmt.Sprintf("Splitter.Split: column %d out of bounds",
			info.Col))
	}
}
