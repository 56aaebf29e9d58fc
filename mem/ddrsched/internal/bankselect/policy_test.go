package bankselect

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func ids(banks []*BankInfo) []int {
	out := make([]int, len(banks))
	for i, b := range banks {
		out[i] = b.BankID
	}

	return out
}

func makeBanks(n int) []*BankInfo {
	banks := make([]*BankInfo, n)
	for i := range banks {
		banks[i] = &BankInfo{BankID: i}
	}

	return banks
}

var _ = Describe("Policy", func() {
	It("should panic with no comparator", func() {
		Expect(func() { NewPolicy().SortBanks(makeBanks(2)) }).To(Panic())
	})

	It("should rank the oldest front first", func() {
		banks := makeBanks(3)
		banks[0].Age = 9
		banks[1].Age = 4
		banks[2].Age = 6

		ParsePolicy("oldest_first", 3, 0).SortBanks(banks)

		Expect(ids(banks)).To(Equal([]int{1, 2, 0}))
	})

	It("should rank empty banks first with OLDEST_FIRST", func() {
		banks := makeBanks(2)
		banks[0].Age = 3
		banks[0].QueueSize = 1

		ParsePolicy("OLDEST_FIRST", 2, 0).SortBanks(banks)

		Expect(ids(banks)).To(Equal([]int{1, 0}))
	})

	It("should break ties with the next comparator", func() {
		banks := makeBanks(3)
		banks[0].QueueSize, banks[1].QueueSize, banks[2].QueueSize = 1, 3, 3
		banks[1].ConsecutiveHits = 1
		banks[2].ConsecutiveHits = 2

		ParsePolicy("MORE_PENDING_REQUESTS  MORE_CONSECUTIVE_HITS", 3, 0).
			SortBanks(banks)

		Expect(ids(banks)).To(Equal([]int{2, 1, 0}))
	})

	It("should keep the previous order on a full tie", func() {
		banks := makeBanks(3)
		banks[0], banks[2] = banks[2], banks[0]

		ParsePolicy("YOUNGEST_FIRST", 3, 0).SortBanks(banks)

		Expect(ids(banks)).To(Equal([]int{2, 1, 0}))
	})

	It("should put empty queues first with ZERO_PENDING_FIRST", func() {
		banks := makeBanks(4)
		banks[0].QueueSize = 2
		banks[1].QueueSize = 5
		banks[3].QueueSize = 1

		ParsePolicy("ZERO_PENDING_FIRST", 4, 0).SortBanks(banks)

		Expect(ids(banks)).To(Equal([]int{2, 0, 1, 3}))
	})

	It("should rotate the first bank with ROUND_ROBIN", func() {
		p := ParsePolicy("ROUND_ROBIN", 4, 0)
		banks := makeBanks(4)

		p.SortBanks(banks)
		Expect(ids(banks)).To(Equal([]int{1, 2, 3, 0}))

		p.SortBanks(banks)
		Expect(ids(banks)).To(Equal([]int{2, 3, 0, 1}))
	})

	It("should give every bank one first place per rotation", func() {
		const numBanks = 8
		p := ParsePolicy("ROUND_ROBIN", numBanks, 0)
		banks := makeBanks(numBanks)
		firsts := map[int]int{}

		for i := 0; i < numBanks; i++ {
			p.SortBanks(banks)
			firsts[banks[0].BankID]++
		}

		Expect(firsts).To(HaveLen(numBanks))
		for bank, n := range firsts {
			Expect(n).To(Equal(1), "bank %d", bank)
		}
	})

	It("should restart the rotation after a reset", func() {
		p := ParsePolicy("OLDEST_FIRST ROUND_ROBIN", 4, 0)
		banks := makeBanks(4)

		p.SortBanks(banks)
		p.SortBanks(banks)
		p.Reset()

		p.SortBanks(banks)
		Expect(ids(banks)).To(Equal([]int{1, 2, 3, 0}))
	})

	It("should repeat the random rankings after a reset", func() {
		p := ParsePolicy("RANDOM", 8, 42)
		banks := makeBanks(8)

		p.SortBanks(banks)
		first := ids(banks)
		p.SortBanks(banks)

		p.Reset()
		banks = makeBanks(8)
		p.SortBanks(banks)

		Expect(ids(banks)).To(Equal(first))
	})

	It("should be deterministic for a given seed", func() {
		a, b := makeBanks(8), makeBanks(8)

		ParsePolicy("RANDOM", 8, 42).SortBanks(a)
		ParsePolicy("RANDOM", 8, 42).SortBanks(b)

		Expect(ids(a)).To(Equal(ids(b)))
		Expect(ids(a)).To(ConsistOf(0, 1, 2, 3, 4, 5, 6, 7))
	})

	It("should reject unknown names", func() {
		Expect(func() { ParsePolicy("OLDEST_FIRST FASTEST", 2, 0) }).
			To(Panic())
		Expect(ValidatePolicy("FASTEST")).NotTo(Succeed())
		Expect(ValidatePolicy("")).NotTo(Succeed())
		Expect(ValidatePolicy("less_pending_requests")).To(Succeed())
	})
})
