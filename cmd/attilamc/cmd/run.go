package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
	"github.com/sarchlab/attila/datarecording"
	"github.com/sarchlab/attila/mem/ddrsched"
	"github.com/sarchlab/attila/mem/ddrsched/trafficgen"
	"github.com/sarchlab/attila/monitoring"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type runOptions struct {
	configPath    string
	cycles        uint64
	workload      string
	requests      int
	seed          int64
	script        string
	record        string
	samplePeriod  uint64
	monitor       bool
	port          int
	openBrowser   bool
	logCommands   bool
	hangThreshold uint64
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller under a synthetic workload.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		r, err := simulate(runOpts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), r)

		if r.Gen.Mismatches > 0 {
			return fmt.Errorf("%d reads returned unexpected data",
				r.Gen.Mismatches)
		}

		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.configPath, "config", "",
		"YAML file with the controller configuration")
	f.Uint64Var(&runOpts.cycles, "cycles", 0,
		"stop issuing new requests after this many cycles, 0 for no limit")
	f.StringVar(&runOpts.workload, "workload", "random",
		"the traffic to generate: sequential, random, or script")
	f.IntVar(&runOpts.requests, "requests", 1000,
		"the number of requests of the sequential and random workloads")
	f.Int64Var(&runOpts.seed, "seed", 0, "the seed of the random workload")
	f.StringVar(&runOpts.script, "script", "",
		"YAML file with the requests of the script workload")
	f.StringVar(&runOpts.record, "record", "",
		"record the counters into this SQLite database, without extension")
	f.Uint64Var(&runOpts.samplePeriod, "sample-period", 1000,
		"the number of cycles between two recorded samples")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"serve the monitoring API while the simulation runs")
	f.IntVar(&runOpts.port, "port", 0, "the port of the monitoring API")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"open the monitoring API in a browser")
	f.BoolVar(&runOpts.logCommands, "log-commands", false,
		"print every DDR command to stderr")
	f.Uint64Var(&runOpts.hangThreshold, "hang-threshold", 1000000,
		"abort when a request is in flight for more cycles, 0 to disable")

	rootCmd.AddCommand(runCmd)
}

type report struct {
	Config     *ddrsched.Config
	Workload   string
	Ctrl       ddrsched.Stats
	Gen        trafficgen.Stats
	CtrlAvg    float64
	Mismatches []trafficgen.Mismatch
	Recording  string
}

func loadConfig(opts runOptions) (*ddrsched.Config, error) {
	cfg := ddrsched.DefaultConfig()

	if opts.configPath != "" {
		var err error

		cfg, err = ddrsched.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller configuration: %w", err)
	}

	return cfg, nil
}

func loadScript(path string) ([]trafficgen.Op, error) {
	if path == "" {
		return nil, fmt.Errorf("the script workload needs --script")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	var ops []trafficgen.Op
	if err := yaml.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("failed to parse script file: %w", err)
	}

	return ops, nil
}

func makeWorkload(
	opts runOptions,
	splitter *ddrsched.Splitter,
) (trafficgen.Workload, int, error) {
	switch opts.workload {
	case "sequential":
		count := max(opts.requests/2, 1)
		size := 4 * splitter.BurstBytes()

		return trafficgen.NewSequential(0, size, count), 2 * count, nil
	case "random":
		w := trafficgen.NewRandom(trafficgen.RandomConfig{
			Seed:         opts.seed,
			Count:        opts.requests,
			Span:         splitter.Capacity(),
			BurstBytes:   splitter.BurstBytes(),
			MaxBursts:    4,
			ReadRatio:    0.5,
			PartialWords: true,
		})

		return w, opts.requests, nil
	case "script":
		ops, err := loadScript(opts.script)
		if err != nil {
			return nil, 0, err
		}

		return trafficgen.NewScript(ops...), len(ops), nil
	default:
		return nil, 0, fmt.Errorf("unknown workload %q", opts.workload)
	}
}

func simulate(opts runOptions, errOut io.Writer) (report, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return report{}, err
	}

	engine := sim.NewSerialEngine()

	b := ddrsched.MakeBuilder().
		WithEngine(engine).
		WithConfig(*cfg)

	var recorder datarecording.DataRecorder
	if opts.record != "" {
		recorder = datarecording.New(opts.record)
		b = b.WithStatsRecorder(recorder, opts.samplePeriod)
	}

	if opts.logCommands {
		b = b.WithAdditionalHooks(
			ddrsched.NewCommandLogger(log.New(errOut, "", 0)))
	}

	ctrl := b.Build("MemCtrl")

	w, total, err := makeWorkload(opts, ctrl.Splitter())
	if err != nil {
		return report{}, err
	}

	gen := trafficgen.MakeBuilder().
		WithEngine(engine).
		WithController(ctrl).
		WithWorkload(w).
		WithMaxCycles(opts.cycles).
		WithHangThreshold(opts.hangThreshold).
		Build("Gen")

	latency := tracing.NewAverageTimeTracer(engine,
		func(t tracing.Task) bool { return t.Kind == "req_in" })
	tracing.CollectTrace(ctrl, latency)

	if opts.monitor {
		if err := startMonitor(opts, engine, ctrl, gen, total); err != nil {
			return report{}, err
		}
	}

	gen.Start()

	if err := engine.Run(); err != nil {
		return report{}, err
	}

	r := report{
		Config:     cfg,
		Workload:   opts.workload,
		Ctrl:       ctrl.Stats(),
		Gen:        gen.Stats(),
		CtrlAvg:    float64(latency.AverageTime()) * float64(1*sim.GHz),
		Mismatches: gen.Mismatches(),
	}

	if recorder != nil {
		ctrl.RecordSummary()

		if err := recorder.Close(); err != nil {
			return report{}, err
		}

		r.Recording = opts.record + ".sqlite3"
	}

	return r, nil
}

type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case tracing.HookPosTaskStart:
		h.bar.IncrementInProgress(1)
	case tracing.HookPosTaskEnd:
		h.bar.MoveInProgressToFinished(1)
	}
}

func startMonitor(
	opts runOptions,
	engine sim.Engine,
	ctrl *ddrsched.Comp,
	gen *trafficgen.Comp,
	total int,
) error {
	m := monitoring.NewMonitor().WithPortNumber(opts.port)
	m.RegisterEngine(engine)
	m.RegisterComponent(ctrl)
	m.RegisterComponent(gen)
	m.RegisterStats(ctrl.Name(), func() any { return ctrl.Stats() })
	m.RegisterStats(gen.Name(), func() any { return gen.Stats() })

	bar := m.CreateProgressBar("Requests", uint64(total))
	gen.AcceptHook(&progressHook{bar: bar})

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	if opts.openBrowser {
		if err := browser.OpenURL(url + "/api/progress"); err != nil {
			log.Printf("failed to open browser: %v", err)
		}
	}

	return nil
}
