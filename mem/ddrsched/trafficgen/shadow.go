package trafficgen

import "encoding/binary"

// poisonWord is what the controller returns for words never written.
const poisonWord uint32 = 0xDEADCAFE

// shadowMemory is the expected content of the memory, one entry per word
// that has been written.
type shadowMemory struct {
	words map[uint64]uint32
}

func newShadowMemory() *shadowMemory {
	return &shadowMemory{words: make(map[uint64]uint32)}
}

// write applies a write payload. Words whose mask entry is false are left
// unchanged.
func (m *shadowMemory) write(address uint64, data []byte, mask []bool) {
	for i := 0; i < len(data); i += 4 {
		w := i / 4
		if mask != nil && (w >= len(mask) || !mask[w]) {
			continue
		}

		var word [4]byte
		copy(word[:], data[i:])
		m.words[address+uint64(i)] = binary.LittleEndian.Uint32(word[:])
	}
}

// read returns the bytes that a read of n bytes from address should see.
func (m *shadowMemory) read(address uint64, n int) []byte {
	out := make([]byte, (n+3)/4*4)

	for i := 0; i < len(out); i += 4 {
		word, ok := m.words[address+uint64(i)]
		if !ok {
			word = poisonWord
		}

		binary.LittleEndian.PutUint32(out[i:], word)
	}

	return out[:n]
}

func (m *shadowMemory) reset() {
	m.words = make(map[uint64]uint32)
}
