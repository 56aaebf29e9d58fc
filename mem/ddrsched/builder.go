package ddrsched

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
	"github.com/sarchlab/attila/datarecording"
	"github.com/sarchlab/attila/mem/ddrsched/internal/bankselect"
	"github.com/sarchlab/attila/mem/ddrsched/internal/org"
	"github.com/sarchlab/attila/mem/ddrsched/internal/sched"
	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
	"github.com/sarchlab/attila/mem/ddrsched/internal/switchmode"
	"github.com/sarchlab/attila/mem/ddrsched/internal/trans"
)

// Builder can build memory channel controllers.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	cfg    Config
	hooks  []sim.Hook

	recorder     datarecording.DataRecorder
	samplePeriod uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
		cfg:  *DefaultConfig(),
	}
}

// WithEngine sets the engine that the controller uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the controller and the memory module.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig replaces all the parameters at once.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithNumBank sets the number of banks.
func (b Builder) WithNumBank(n int) Builder {
	b.cfg.Banks = n
	return b
}

// WithNumRow sets the number of rows in each bank.
func (b Builder) WithNumRow(n int) Builder {
	b.cfg.Rows = n
	return b
}

// WithNumCol sets the number of 32-bit columns in each row.
func (b Builder) WithNumCol(n int) Builder {
	b.cfg.Cols = n
	return b
}

// WithBurstLength sets the number of words that a read or write command
// moves.
func (b Builder) WithBurstLength(n int) Builder {
	b.cfg.BurstLength = n
	return b
}

// WithBytesPerCycle sets the width of the data pins.
func (b Builder) WithBytesPerCycle(n int) Builder {
	b.cfg.BytesPerCycle = n
	return b
}

// WithCapacity sets the number of transactions the scheduler can hold.
func (b Builder) WithCapacity(n int) Builder {
	b.cfg.Capacity = n
	return b
}

// WithScheduler selects the scheduler.
func (b Builder) WithScheduler(kind SchedulerKind) Builder {
	b.cfg.Scheduler = kind
	return b
}

// WithClosePage makes the scheduler precharge the banks with nothing pending.
func (b Builder) WithClosePage(closePage bool) Builder {
	b.cfg.ClosePage = closePage
	return b
}

// WithBankPolicy sets the chain of bank comparators, for example
// "OLDEST_FIRST ROUND_ROBIN".
func (b Builder) WithBankPolicy(policy string) Builder {
	b.cfg.BankPolicy = policy
	return b
}

// WithSeed sets the seed of the RANDOM bank comparator.
func (b Builder) WithSeed(seed int64) Builder {
	b.cfg.Seed = seed
	return b
}

// WithSwitchMode sets the policy that alternates reads and writes.
func (b Builder) WithSwitchMode(policy string, maxReads, maxWrites int) Builder {
	b.cfg.SwitchMode = switchmode.Config{
		Policy:    policy,
		MaxReads:  maxReads,
		MaxWrites: maxWrites,
	}

	return b
}

// WithAggressiveActive lets the active manager open rows for the direction
// that is not being served.
func (b Builder) WithAggressiveActive(aggressive bool) Builder {
	b.cfg.AggressiveActive = aggressive
	return b
}

// WithManagerOrder sets which of the active and precharge managers runs
// first. 0 is active first.
func (b Builder) WithManagerOrder(order int) Builder {
	b.cfg.ManagerOrder = order
	return b
}

// WithDisableActiveManager turns off the early activation of rows.
func (b Builder) WithDisableActiveManager(disable bool) Builder {
	b.cfg.DisableActive = disable
	return b
}

// WithDisablePrechargeManager turns off the early precharge of rows.
func (b Builder) WithDisablePrechargeManager(disable bool) Builder {
	b.cfg.DisablePrecharge = disable
	return b
}

// WithPerBankState makes the scheduler report one accept state per bank.
func (b Builder) WithPerBankState(perBank bool) Builder {
	b.cfg.PerBankState = perBank
	return b
}

// WithDedicatedReads sets the number of read entries of the rwfifo
// scheduler.
func (b Builder) WithDedicatedReads(n int) Builder {
	b.cfg.DedicatedReads = n
	return b
}

// WithTiming sets all the GDDR3 timing parameters.
func (b Builder) WithTiming(t TimingConfig) Builder {
	b.cfg.Timing = t
	return b
}

// WithTRRD sets the activate to activate delay in cycles.
func (b Builder) WithTRRD(cycle uint64) Builder {
	b.cfg.Timing.TRRD = cycle
	return b
}

// WithTRCD sets the activate to read or write delay in cycles.
func (b Builder) WithTRCD(cycle uint64) Builder {
	b.cfg.Timing.TRCD = cycle
	return b
}

// WithTWTR sets the write to read delay in cycles.
func (b Builder) WithTWTR(cycle uint64) Builder {
	b.cfg.Timing.TWTR = cycle
	return b
}

// WithTRTW sets the read to write delay in cycles.
func (b Builder) WithTRTW(cycle uint64) Builder {
	b.cfg.Timing.TRTW = cycle
	return b
}

// WithTWR sets the write recovery time in cycles.
func (b Builder) WithTWR(cycle uint64) Builder {
	b.cfg.Timing.TWR = cycle
	return b
}

// WithTRP sets the row precharge latency in cycles.
func (b Builder) WithTRP(cycle uint64) Builder {
	b.cfg.Timing.TRP = cycle
	return b
}

// WithCASLatency sets the read latency in cycles.
func (b Builder) WithCASLatency(cycle uint64) Builder {
	b.cfg.Timing.CASLatency = cycle
	return b
}

// WithWriteLatency sets the write latency in cycles.
func (b Builder) WithWriteLatency(cycle uint64) Builder {
	b.cfg.Timing.WriteLatency = cycle
	return b
}

// WithAdditionalHooks adds a hook to the controller.
func (b Builder) WithAdditionalHooks(h sim.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// WithStatsRecorder makes the controller write its counters into a recorder
// every period cycles.
func (b Builder) WithStatsRecorder(
	recorder datarecording.DataRecorder,
	period uint64,
) Builder {
	b.recorder = recorder
	b.samplePeriod = period

	return b
}

// Build creates a controller. It panics if the configuration is not valid.
func (b Builder) Build(name string) *Comp {
	if err := b.cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Builder.Build: invalid configuration of %s: %v",
			name, err))
	}

	c := &Comp{cfg: b.cfg}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	b.buildSignals(c, name)
	b.buildChannel(c)
	b.buildScheduler(c)

	c.base.OnSelect(func(_ uint64, txn *signal.ChannelTransaction) {
		tracing.AddTaskStep(txn.ID, c, "select")
	})

	b.attachRecorder(c, name)

	c.AddMiddleware(&middleware{Comp: c})

	for _, hook := range b.hooks {
		c.AcceptHook(hook)
	}

	return c
}

func (b Builder) buildSignals(c *Comp, name string) {
	c.requests = signal.NewSignal[*signal.ChannelTransaction](name + ".Request")
	c.replies = signal.NewSignal[*signal.ChannelTransaction](name + ".Reply")
	c.commands = signal.NewSignal[*signal.Command](name + ".Command")
	c.bursts = signal.NewSignal[*signal.Burst](name + ".Burst")
	c.states = signal.NewSignalWithDefault(name+".State",
		signal.NewSharedState(signal.AcceptBoth))
}

func (b Builder) timing() org.Timing {
	t := b.cfg.Timing

	return org.Timing{
		TRRD:         t.TRRD,
		TRCD:         t.TRCD,
		TWTR:         t.TWTR,
		TRTW:         t.TRTW,
		TWR:          t.TWR,
		TRP:          t.TRP,
		CASLatency:   t.CASLatency,
		WriteLatency: t.WriteLatency,
	}
}

func (b Builder) buildChannel(c *Comp) {
	cfg := b.cfg

	state := org.NewGDDR3State(cfg.Banks, cfg.BurstLength, cfg.BytesPerCycle,
		b.timing())
	c.channel = org.NewChannel(state, c.commands)
	c.module = org.NewModule(c.Name()+".Module",
		cfg.Banks, cfg.Rows, cfg.Cols, cfg.BurstLength, cfg.BytesPerCycle,
		b.timing(), c.commands, c.bursts)
	c.splitter = trans.NewSplitter(cfg.BurstLength, 1,
		cfg.Banks, cfg.Rows, cfg.Cols)
}

func (b Builder) buildScheduler(c *Comp) {
	cfg := b.cfg

	page := sched.OpenPage
	if cfg.ClosePage {
		page = sched.ClosePage
	}

	c.base = sched.NewBase(sched.BaseConfig{
		BurstLength:   cfg.BurstLength,
		BytesPerCycle: cfg.BytesPerCycle,
		ReadDelay:     cfg.Timing.CASLatency,
		WriteDelay:    cfg.Timing.WriteLatency,
		PagePolicy:    page,
	}, hookedChannel{Channel: c.channel, comp: c}, c.replies, c.states)

	switch cfg.Scheduler {
	case SchedulerFifo:
		c.scheduler = sched.NewFifoScheduler(c.base, cfg.Capacity)
	case SchedulerRWFifo:
		c.scheduler = sched.NewRWFifoScheduler(c.base,
			switchmode.New(cfg.SwitchMode), cfg.Capacity, cfg.DedicatedReads)
	case SchedulerBankQueue:
		active := sched.ActiveConservative
		if cfg.AggressiveActive {
			active = sched.ActiveAggressive
		}

		c.scheduler = sched.NewBankQueueScheduler(c.base,
			switchmode.New(cfg.SwitchMode),
			bankselect.ParsePolicy(cfg.BankPolicy, cfg.Banks, cfg.Seed),
			sched.BankQueueConfig{
				Capacity:         cfg.Capacity,
				ActiveManager:    active,
				ManagerOrder:     cfg.ManagerOrder,
				DisableActive:    cfg.DisableActive,
				DisablePrecharge: cfg.DisablePrecharge,
				PerBankState:     cfg.PerBankState,
			})
	default:
		panic(fmt.Sprintf("Builder.Build: unknown scheduler %q",
			cfg.Scheduler))
	}
}

func (b Builder) attachRecorder(c *Comp, name string) {
	if b.recorder == nil {
		return
	}

	c.recorder = b.recorder
	c.samplePeriod = b.samplePeriod
	c.tableName = tableName(name)

	c.recorder.CreateTable(c.tableName, StatsEntry{})
}

func tableName(name string) string {
	out := []byte("stats_")

	for i := 0; i < len(name); i++ {
		ch := name[i]

		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z',
			ch >= '0' && ch <= '9':
			out = append(out, ch)
		default:
			out = append(out, '_')
		}
	}

	return string(out)
}
