package trafficgen

import "github.com/sarchlab/akita/v4/sim"

// Builder can build traffic generators.
type Builder struct {
	engine          sim.Engine
	freq            sim.Freq
	ctrl            Controller
	workload        Workload
	verify          bool
	panicOnMismatch bool
	maxMismatches   int
	maxCycles       uint64
	hangThreshold   uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		verify:        true,
		maxMismatches: 16,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency. It should match the frequency of the
// controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithController sets the controller to drive.
func (b Builder) WithController(ctrl Controller) Builder {
	b.ctrl = ctrl
	return b
}

// WithWorkload sets the requests to generate.
func (b Builder) WithWorkload(w Workload) Builder {
	b.workload = w
	return b
}

// WithVerification turns the check of the read data on or off.
func (b Builder) WithVerification(verify bool) Builder {
	b.verify = verify
	return b
}

// WithPanicOnMismatch makes the generator panic on the first read that does
// not return the expected data.
func (b Builder) WithPanicOnMismatch(p bool) Builder {
	b.panicOnMismatch = p
	return b
}

// WithMaxMismatches sets how many mismatches are kept for reporting.
func (b Builder) WithMaxMismatches(n int) Builder {
	b.maxMismatches = n
	return b
}

// WithMaxCycles makes the generator stop issuing new requests after a number
// of cycles. The requests in flight still complete. 0 means no limit.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.maxCycles = n
	return b
}

// WithHangThreshold makes the generator panic when a request has been in
// flight for more than n cycles. 0 turns the check off.
func (b Builder) WithHangThreshold(n uint64) Builder {
	b.hangThreshold = n
	return b
}

// Build creates a traffic generator.
func (b Builder) Build(name string) *Comp {
	if b.ctrl == nil {
		panic("Builder.Build: a traffic generator needs a controller")
	}

	if b.workload == nil {
		panic("Builder.Build: a traffic generator needs a workload")
	}

	c := &Comp{
		ctrl:            b.ctrl,
		workload:        b.workload,
		outstanding:     newOutstandingIndex(),
		expected:        make(map[string][]byte),
		shadow:          newShadowMemory(),
		verify:          b.verify,
		panicOnMismatch: b.panicOnMismatch,
		maxMismatches:   b.maxMismatches,
		maxCycles:       b.maxCycles,
		hangThreshold:   b.hangThreshold,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
