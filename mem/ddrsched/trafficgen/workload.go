// Package trafficgen generates memory traffic for a memory channel
// controller and checks the data that comes back.
package trafficgen

import (
	"fmt"
	"math/rand"
)

// Op is one memory request produced by a workload.
type Op struct {
	Read    bool
	Address uint64

	// Size is the number of bytes. For writes, it must match the length of
	// Data when Data is set.
	Size int

	// Data is the write payload. A nil payload is filled by the generator.
	Data []byte

	// Mask has one entry per 32-bit word of a write. nil writes all words.
	Mask []bool
}

func (op Op) String() string {
	kind := "write"
	if op.Read {
		kind = "read"
	}

	return fmt.Sprintf("%s 0x%x %dB", kind, op.Address, op.Size)
}

// A Workload produces memory requests in order.
type Workload interface {
	// Next returns the next request, or false if the workload is exhausted.
	Next() (Op, bool)
}

// Sequential writes a contiguous range of memory, one request at a time,
// and then reads it back in the same order.
type Sequential struct {
	Start uint64
	Size  int
	Count int

	// ReadOnly skips the write pass.
	ReadOnly bool

	next int
}

// NewSequential creates a sequential workload of count requests of size
// bytes in each pass.
func NewSequential(start uint64, size, count int) *Sequential {
	return &Sequential{Start: start, Size: size, Count: count}
}

// Next returns the next request.
func (w *Sequential) Next() (Op, bool) {
	total := 2 * w.Count
	offset := 0

	if w.ReadOnly {
		total = w.Count
		offset = w.Count
	}

	if w.next >= total {
		return Op{}, false
	}

	i := w.next + offset
	w.next++

	return Op{
		Read:    i >= w.Count,
		Address: w.Start + uint64(i%w.Count)*uint64(w.Size),
		Size:    w.Size,
	}, true
}

// RandomConfig parameterizes a Random workload.
type RandomConfig struct {
	Seed  int64
	Count int

	// Span is the number of bytes, from address 0, that the requests touch.
	Span uint64

	// BurstBytes is the alignment and the unit of the request sizes.
	BurstBytes int

	// MaxBursts is the largest request, in bursts.
	MaxBursts int

	// ReadRatio is the probability for a request to be a read.
	ReadRatio float64

	// PartialWords allows the last burst of a request to be cut short, down
	// to a single word.
	PartialWords bool
}

// Random produces requests with random addresses, sizes, and directions.
// The same seed always produces the same requests.
type Random struct {
	cfg  RandomConfig
	rng  *rand.Rand
	done int
}

// NewRandom creates a random workload.
func NewRandom(cfg RandomConfig) *Random {
	if cfg.BurstBytes <= 0 || cfg.MaxBursts <= 0 {
		panic("trafficgen.NewRandom: burst size and max bursts must be > 0")
	}

	if cfg.Span < uint64(cfg.BurstBytes*cfg.MaxBursts) {
		panic(fmt.Sprintf("trafficgen.NewRandom: span %d is smaller than "+
			"the largest request", cfg.Span))
	}

	return &Random{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next returns the next request.
func (w *Random) Next() (Op, bool) {
	if w.done >= w.cfg.Count {
		return Op{}, false
	}

	w.done++

	bursts := 1 + w.rng.Intn(w.cfg.MaxBursts)
	size := bursts * w.cfg.BurstBytes

	if w.cfg.PartialWords {
		size -= 4 * w.rng.Intn(w.cfg.BurstBytes/4)
	}

	slots := (w.cfg.Span - uint64(bursts*w.cfg.BurstBytes)) /
		uint64(w.cfg.BurstBytes)
	address := uint64(w.rng.Int63n(int64(slots)+1)) * uint64(w.cfg.BurstBytes)

	return Op{
		Read:    w.rng.Float64() < w.cfg.ReadRatio,
		Address: address,
		Size:    size,
	}, true
}

// Script replays a fixed list of requests.
type Script struct {
	Ops  []Op
	next int
}

// NewScript creates a workload that replays ops.
func NewScript(ops ...Op) *Script {
	return &Script{Ops: ops}
}

// Next returns the next request.
func (w *Script) Next() (Op, bool) {
	if w.next >= len(w.Ops) {
		return Op{}, false
	}

	op := w.Ops[w.next]
	w.next++

	return op, true
}
