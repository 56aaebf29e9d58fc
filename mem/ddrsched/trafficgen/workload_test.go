package trafficgen

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func drain(w Workload) []Op {
	var ops []Op
	for {
		op, ok := w.Next()
		if !ok {
			return ops
		}

		ops = append(ops, op)
	}
}

var _ = Describe("Sequential", func() {
	It("should write the range and read it back", func() {
		ops := drain(NewSequential(0x100, 32, 3))

		Expect(ops).To(HaveLen(6))
		Expect(ops[0]).To(Equal(Op{Address: 0x100, Size: 32}))
		Expect(ops[2].Address).To(Equal(uint64(0x140)))
		Expect(ops[3]).To(Equal(Op{Read: true, Address: 0x100, Size: 32}))
		Expect(ops[5].Read).To(BeTrue())
		Expect(ops[5].Address).To(Equal(uint64(0x140)))
	})

	It("should only read when asked", func() {
		w := NewSequential(0, 64, 2)
		w.ReadOnly = true

		ops := drain(w)

		Expect(ops).To(HaveLen(2))
		Expect(ops[0].Read).To(BeTrue())
		Expect(ops[1].Address).To(Equal(uint64(64)))
	})
})

var _ = Describe("Random", func() {
	cfg := RandomConfig{
		Seed:       7,
		Count:      500,
		Span:       4096,
		BurstBytes: 32,
		MaxBursts:  4,
		ReadRatio:  0.3,
	}

	It("should stay inside the span and keep the alignment", func() {
		ops := drain(NewRandom(cfg))

		Expect(ops).To(HaveLen(500))
		for _, op := range ops {
			Expect(op.Address % 32).To(BeZero())
			Expect(op.Size % 32).To(BeZero())
			Expect(op.Size).To(BeNumerically("<=", 128))
			Expect(op.Address + uint64(op.Size)).To(BeNumerically("<=", 4096))
		}
	})

	It("should mix reads and writes", func() {
		reads := 0
		for _, op := range drain(NewRandom(cfg)) {
			if op.Read {
				reads++
			}
		}

		Expect(reads).To(BeNumerically(">", 100))
		Expect(reads).To(BeNumerically("<", 200))
	})

	It("should repeat itself with the same seed", func() {
		Expect(drain(NewRandom(cfg))).To(Equal(drain(NewRandom(cfg))))
	})

	It("should cut requests to whole words", func() {
		partial := cfg
		partial.PartialWords = true

		short := 0
		for _, op := range drain(NewRandom(partial)) {
			Expect(op.Size % 4).To(BeZero())
			Expect(op.Size).To(BeNumerically(">", 0))

			if op.Size%32 != 0 {
				short++
			}
		}

		Expect(short).To(BeNumerically(">", 0))
	})

	It("should panic when the span cannot hold a request", func() {
		small := cfg
		small.Span = 64

		Expect(func() { NewRandom(small) }).To(Panic())
	})
})

var _ = Describe("Script", func() {
	It("should replay the ops in order", func() {
		w := NewScript(
			Op{Address: 0, Size: 4},
			Op{Read: true, Address: 0, Size: 4},
		)

		ops := drain(w)

		Expect(ops).To(HaveLen(2))
		Expect(ops[1].Read).To(BeTrue())

		_, ok := w.Next()
		Expect(ok).To(BeFalse())
	})
})
