package switchmode

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TwoCounters", func() {
	var m *TwoCounters

	BeforeEach(func() {
		m = NewTwoCounters(3, 2)
	})

	It("should alternate after each full streak", func() {
		var dirs []bool
		for i := 0; i < 10; i++ {
			m.Update(true, true, false, false)
			dirs = append(dirs, m.Reading())
		}

		Expect(dirs).To(Equal([]bool{
			true, true, true, false, false,
			true, true, true, false, false,
		}))
	})

	It("should switch early when the current direction runs out", func() {
		m.Update(true, true, false, false)
		m.Update(false, true, false, false)

		Expect(m.Writing()).To(BeTrue())
		Expect(m.MoreConsecutiveOpsAllowed()).To(Equal(1))
	})

	It("should restart the streak if the other direction is empty", func() {
		for i := 0; i < 3; i++ {
			m.Update(true, false, false, false)
		}
		Expect(m.MoreConsecutiveOpsAllowed()).To(Equal(0))

		m.Update(true, false, false, false)

		Expect(m.Reading()).To(BeTrue())
		Expect(m.MoreConsecutiveOpsAllowed()).To(Equal(2))
	})

	It("should panic on inconsistent candidates", func() {
		Expect(func() { m.Update(false, false, false, false) }).To(Panic())
		Expect(func() { m.Update(false, true, true, false) }).To(Panic())
		Expect(func() { m.Update(true, false, false, true) }).To(Panic())
	})
	It("should start a new read streak after a reset", func() {
		m.Update(true, true, false, false)
		m.Update(true, true, false, false)
		m.Update(false, true, false, false)
		Expect(m.Writing()).To(BeTrue())

		m.Reset()

		Expect(m.Reading()).To(BeTrue())
		Expect(m.MoreConsecutiveOpsAllowed()).To(Equal(3))
	})
})

var _ = Describe("LoadsOverStores", func() {
	var m *LoadsOverStores

	BeforeEach(func() {
		m = NewLoadsOverStores()
	})

	It("should keep reading while reads exist", func() {
		m.Update(true, true, false, true)
		Expect(m.Reading()).To(BeTrue())
	})

	It("should write only when no read exists", func() {
		m.Update(false, true, false, false)
		Expect(m.Writing()).To(BeTrue())
	})

	It("should let writes ride a hit streak", func() {
		m.Update(false, true, false, true)
		m.Update(true, true, false, true)
		Expect(m.Writing()).To(BeTrue())

		m.Update(true, true, true, false)
		Expect(m.Reading()).To(BeTrue())
	})

	It("should go back to reads when writes run out", func() {
		m.Update(false, true, false, false)
		m.Update(true, false, false, false)
		Expect(m.Reading()).To(BeTrue())
	})
	It("should read again after a reset", func() {
		m.Update(false, true, false, false)
		Expect(m.Writing()).To(BeTrue())

		m.Reset()
		Expect(m.Reading()).To(BeTrue())
	})
})

var _ = Describe("New", func() {
	It("should build the configured mode", func() {
		Expect(New(Config{Policy: "two_counters", MaxReads: 4, MaxWrites: 4})).
			To(BeAssignableToTypeOf(&TwoCounters{}))
		Expect(New(Config{Policy: PolicyLoadsOverStores})).
			To(BeAssignableToTypeOf(&LoadsOverStores{}))
		Expect(func() { New(Config{Policy: "FIFO"}) }).To(Panic())
	})

	It("should validate the configuration", func() {
		Expect(Config{Policy: PolicyTwoCounters}.Validate()).NotTo(Succeed())
		Expect(Config{Policy: "FIFO"}.Validate()).NotTo(Succeed())
		Expect(Config{Policy: PolicyLoadsOverStores}.Validate()).To(Succeed())
	})
})
