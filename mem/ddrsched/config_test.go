package ddrsched

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should have a valid default", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	DescribeTable("should reject",
		func(modify func(c *Config)) {
			c := DefaultConfig()
			modify(c)
			Expect(c.Validate()).NotTo(Succeed())
		},
		Entry("zero banks", func(c *Config) { c.Banks = 0 }),
		Entry("a burst length that is not a power of two",
			func(c *Config) { c.BurstLength = 6 }),
		Entry("a pin width that does not divide a burst",
			func(c *Config) { c.BytesPerCycle = 12 }),
		Entry("a capacity that is not a multiple of the banks",
			func(c *Config) { c.Capacity = 30 }),
		Entry("an unknown bank policy",
			func(c *Config) { c.BankPolicy = "OLDEST_FIRST FASTEST" }),
		Entry("an unknown switch mode",
			func(c *Config) { c.SwitchMode.Policy = "STORES_FIRST" }),
		Entry("a manager order above 1",
			func(c *Config) { c.ManagerOrder = 2 }),
		Entry("an unknown scheduler",
			func(c *Config) { c.Scheduler = "frfcfs" }),
		Entry("too many dedicated reads", func(c *Config) {
			c.Scheduler = SchedulerRWFifo
			c.DedicatedReads = c.Capacity
		}),
		Entry("a fifo of one entry", func(c *Config) {
			c.Scheduler = SchedulerFifo
			c.Capacity = 1
		}),
	)

	It("should load YAML on top of the defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ctrl.yaml")
		content := []byte("banks: 4\n" +
			"scheduler: rwfifo\n" +
			"switch_mode:\n" +
			"  policy: LOADS_OVER_STORES\n" +
			"timing:\n" +
			"  t_rcd: 7\n")
		Expect(os.WriteFile(path, content, 0644)).To(Succeed())

		c, err := LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Banks).To(Equal(4))
		Expect(c.Scheduler).To(Equal(SchedulerRWFifo))
		Expect(c.SwitchMode.Policy).To(Equal("LOADS_OVER_STORES"))
		Expect(c.Timing.TRCD).To(Equal(uint64(7)))
		Expect(c.Timing.TRP).To(Equal(uint64(12)))
		Expect(c.Rows).To(Equal(1024))
	})

	It("should save a config that loads back", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ctrl.yaml")
		c := DefaultConfig()
		c.ClosePage = true
		c.BankPolicy = "ROUND_ROBIN"

		Expect(c.SaveConfig(path)).To(Succeed())
		loaded, err := LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should report a missing file", func() {
		_, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).To(MatchError(ContainSubstring("failed to read")))
	})

	It("should report a broken file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ctrl.yaml")
		Expect(os.WriteFile(path, []byte("banks: [1\n"), 0644)).To(Succeed())

		_, err := LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse")))
	})

	Context("with environment overrides", func() {
		setenv := func(name, value string) {
			Expect(os.Setenv(name, value)).To(Succeed())
			DeferCleanup(os.Unsetenv, name)
		}

		It("should apply the ATTILA variables", func() {
			setenv("ATTILA_BANKS", "16")
			setenv("ATTILA_CLOSE_PAGE", "true")
			setenv("ATTILA_SCHEDULER", "FIFO")
			setenv("ATTILA_T_WR", "3")

			c := DefaultConfig()
			Expect(c.ApplyEnv()).To(Succeed())

			Expect(c.Banks).To(Equal(16))
			Expect(c.ClosePage).To(BeTrue())
			Expect(c.Scheduler).To(Equal(SchedulerFifo))
			Expect(c.Timing.TWR).To(Equal(uint64(3)))
		})

		It("should reject a value that does not parse", func() {
			setenv("ATTILA_CAPACITY", "many")

			err := DefaultConfig().ApplyEnv()
			Expect(err).To(MatchError(ContainSubstring("ATTILA_CAPACITY")))
		})
	})
})
