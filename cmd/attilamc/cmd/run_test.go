package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/sarchlab/attila/datarecording"
	"github.com/sarchlab/attila/mem/ddrsched"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const smallConfig = `
banks: 4
rows: 64
cols: 256
capacity: 16
`

var _ = Describe("Run", func() {
	var (
		dir  string
		opts runOptions
		out  *bytes.Buffer
	)

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = new(bytes.Buffer)

		opts = runOptions{
			configPath:   writeFile("ctrl.yaml", smallConfig),
			workload:     "random",
			requests:     200,
			seed:         3,
			samplePeriod: 100,
		}
	})

	It("should run a random workload without mismatches", func() {
		r, err := simulate(opts, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Config.Banks).To(Equal(4))
		Expect(r.Gen.Requests).To(Equal(uint64(200)))
		Expect(r.Gen.Mismatches).To(BeZero())
		Expect(r.Ctrl.Scheduler.SelectedTransactions).
			To(Equal(r.Gen.Transactions))
		Expect(r.CtrlAvg).To(BeNumerically(">", 0))
	})

	It("should run a sequential workload", func() {
		opts.workload = "sequential"
		opts.requests = 64

		r, err := simulate(opts, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Gen.Requests).To(Equal(uint64(64)))
		Expect(r.Gen.Reads).To(Equal(uint64(32)))
		Expect(r.Ctrl.RowHitRate()).To(BeNumerically(">", 0.5))
	})

	It("should run a script", func() {
		opts.workload = "script"
		opts.script = writeFile("ops.yaml", `
- address: 0x40
  size: 64
- read: true
  address: 0x40
  size: 64
`)

		r, err := simulate(opts, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Gen.Requests).To(Equal(uint64(2)))
		Expect(r.Gen.BytesRead).To(Equal(uint64(64)))
		Expect(r.Gen.Mismatches).To(BeZero())
	})

	It("should stop issuing after the cycle budget", func() {
		opts.cycles = 50

		r, err := simulate(opts, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Gen.Requests).To(BeNumerically("<", 200))
	})

	It("should log the commands", func() {
		opts.requests = 4
		opts.logCommands = true

		_, err := simulate(opts, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("DDR Command Issued"))
	})

	It("should record the counters", func() {
		opts.record = filepath.Join(dir, "run")

		r, err := simulate(opts, out)
		Expect(err).ToNot(HaveOccurred())
		Expect(r.Recording).To(Equal(opts.record + ".sqlite3"))

		reader, err := datarecording.NewReader(r.Recording)
		Expect(err).ToNot(HaveOccurred())
		defer reader.Close()

		reader.MapTable("stats_MemCtrl", ddrsched.StatsEntry{})

		entries, _, err := reader.Query(context.Background(), "stats_MemCtrl",
			datarecording.QueryParams{
				Where: "Kind = ?",
				Args:  []any{"summary"},
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))

		summary := entries[0].(*ddrsched.StatsEntry)
		Expect(summary.SelectedTransactions).To(Equal(r.Gen.Transactions))
	})

	It("should reject an unknown workload", func() {
		opts.workload = "bursty"

		_, err := simulate(opts, out)

		Expect(err).To(MatchError(ContainSubstring("unknown workload")))
	})

	It("should reject a script workload without a file", func() {
		opts.workload = "script"

		_, err := simulate(opts, out)

		Expect(err).To(HaveOccurred())
	})

	It("should reject an invalid configuration", func() {
		opts.configPath = writeFile("bad.yaml", "banks: 3\n")

		_, err := simulate(opts, out)

		Expect(err).To(MatchError(ContainSubstring("invalid controller")))
	})

	It("should print a summary", func() {
		r, err := simulate(opts, out)
		Expect(err).ToNot(HaveOccurred())

		summary := new(bytes.Buffer)
		printSummary(summary, r)

		Expect(summary.String()).To(ContainSubstring("row hit rate"))
		Expect(summary.String()).To(ContainSubstring("Data check passed"))
	})
})

var _ = Describe("Defaults", func() {
	It("should print the default configuration", func() {
		out := new(bytes.Buffer)
		defaultsCmd.SetOut(out)

		Expect(defaultsCmd.RunE(defaultsCmd, nil)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("scheduler: bankqueue"))
	})

	It("should save a configuration that loads back", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ctrl.yaml")

		Expect(defaultsCmd.RunE(defaultsCmd, []string{path})).To(Succeed())

		cfg, err := ddrsched.LoadConfig(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg).To(Equal(ddrsched.DefaultConfig()))
	})
})
