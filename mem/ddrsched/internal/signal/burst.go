package signal

import (
	"encoding/binary"
	"fmt"
)

// A Burst is the group of 32-bit words moved by a single read or write
// command.
type Burst struct {
	Words []uint32
	Mask  []bool
}

// NewBurst creates a burst of the given length. All the words are enabled.
func NewBurst(length int) *Burst {
	return &Burst{Words: make([]uint32, length)}
}

// Len returns the number of words in the burst.
func (b *Burst) Len() int {
	return len(b.Words)
}

// SetData loads the first len(data) bytes of the burst. The words not covered
// by data are masked out.
func (b *Burst) SetData(data []byte) {
	if len(data) > 4*len(b.Words) {
		panic(fmt.Sprintf("Burst.SetData: %d bytes do not fit in %d words",
			len(data), len(b.Words)))
	}

	if len(data)%4 != 0 {
		panic("Burst.SetData: data must be a multiple of 4 bytes")
	}

	for i := 0; i < len(data)/4; i++ {
		b.Words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	if len(data) < 4*len(b.Words) {
		b.ensureMask()
		for i := len(data) / 4; i < len(b.Words); i++ {
			b.Mask[i] = false
		}
	}
}

// SetMask disables the words whose mask entry is false. mask may cover only
// the first words of the burst.
func (b *Burst) SetMask(mask []bool) {
	if len(mask) > len(b.Words) {
		panic("Burst.SetMask: mask longer than the burst")
	}

	b.ensureMask()
	for i, m := range mask {
		b.Mask[i] = b.Mask[i] && m
	}
}

func (b *Burst) ensureMask() {
	if b.Mask != nil {
		return
	}

	b.Mask = make([]bool, len(b.Words))
	for i := range b.Mask {
		b.Mask[i] = true
	}
}

// Enabled tells if word i is written.
func (b *Burst) Enabled(i int) bool {
	return b.Mask == nil || b.Mask[i]
}

// Bytes returns the burst content as little-endian bytes.
func (b *Burst) Bytes() []byte {
	buf := make([]byte, 4*len(b.Words))
	for i, w := range b.Words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}

	return buf
}
