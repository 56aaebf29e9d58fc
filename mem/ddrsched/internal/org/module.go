package org

import (
	"fmt"
	"sort"

	"github.com/sarchlab/attila/mem/ddrsched/internal/signal"
)

// PoisonWord is the value of every memory word that has never been written.
const PoisonWord uint32 = 0xDEADCAFE

// ModuleStats counts how the data pins of a module were used.
type ModuleStats struct {
	ActivateCommands uint64 `json:"activate_commands"`
	ReadCycles       uint64 `json:"read_cycles"`
	WriteCycles      uint64 `json:"write_cycles"`
	ReadBytes        uint64 `json:"read_bytes"`
	WriteBytes       uint64 `json:"write_bytes"`
	CASCycles        uint64 `json:"cas_cycles"`
	WLCycles         uint64 `json:"wl_cycles"`
	IdleCycles       uint64 `json:"idle_cycles"`
	ConstraintCycles [signal.NumProtocolConstraint]uint64 `json:"constraint_cycles"`

	AllBanksPrechargedCycles uint64 `json:"all_banks_precharged_cycles"`
}

type pinUse int

const (
	pinRead pinUse = iota
	pinWrite
	pinConstraint
)

type pinItem struct {
	cycle      uint64
	use        pinUse
	constraint signal.ProtocolConstraint
}

type timedBurst struct {
	cycle uint64
	bank  int
	row   uint32
	col   uint32
	burst *signal.Burst
}

// Module is a GDDR3 memory chip. It executes the commands that come from the
// command signal and puts read bursts on the reply signal.
type Module struct {
	name  string
	state *GDDR3State
	rows  int
	cols  int

	// data[bank][row*cols+col]
	data [][]uint32

	commands *signal.Signal[*signal.Command]
	replies  *signal.Signal[*signal.Burst]

	readout []timedBurst
	readin  []timedBurst
	pins    []pinItem

	bypass    signal.ProtocolConstraint
	hasBypass bool

	bytesPerCycle uint64
	stats         ModuleStats
}

// NewModule creates a module whose words all hold PoisonWord. The module
// keeps its own copy of the protocol state and panics on any command that
// violates it.
func NewModule(
	name string,
	numBanks, rows, cols, burstLength, bytesPerCycle int,
	timing Timing,
	commands *signal.Signal[*signal.Command],
	replies *signal.Signal[*signal.Burst],
) *Module {
	m := &Module{
		name:          name,
		state:         NewGDDR3State(numBanks, burstLength, bytesPerCycle, timing),
		rows:          rows,
		cols:          cols,
		commands:      commands,
		replies:       replies,
		bytesPerCycle: uint64(bytesPerCycle),
	}

	m.data = make([][]uint32, numBanks)
	for i := range m.data {
		m.data[i] = make([]uint32, rows*cols)
	}

	m.Reset()

	return m
}

// Name returns the name of the module.
func (m *Module) Name() string {
	return m.name
}

// Reset poisons the content and clears all the in-flight bursts.
func (m *Module) Reset() {
	for _, bank := range m.data {
		for i := range bank {
			bank[i] = PoisonWord
		}
	}

	m.state.Reset()
	m.readout = nil
	m.readin = nil
	m.pins = nil
	m.hasBypass = false
	m.stats = ModuleStats{}
}

// Stats returns the data pin statistics.
func (m *Module) Stats() ModuleStats {
	return m.stats
}

// Busy tells if a command or a burst is still in flight.
func (m *Module) Busy() bool {
	return len(m.readout) > 0 ||
		len(m.readin) > 0 ||
		len(m.pins) > 0 ||
		m.commands.Busy()
}

// State returns the protocol state seen by the chip.
func (m *Module) State() *GDDR3State {
	return m.state
}

func (m *Module) wordIndex(op string, bank int, row, col uint32) int {
	if bank < 0 || bank >= len(m.data) {
		panic(fmt.Sprintf("Module.%s: bank %d out of range", op, bank))
	}

	if int(row) >= m.rows || int(col) >= m.cols {
		panic(fmt.Sprintf("Module.%s: row %d col %d out of range",
			op, row, col))
	}

	return int(row)*m.cols + int(col)
}

// Preload writes words into a bank without any timing.
func (m *Module) Preload(bank int, row, col uint32, words []uint32) {
	start := m.wordIndex("Preload", bank, row, col)
	if start+len(words) > int(row+1)*m.cols {
		panic("Module.Preload: data crosses the end of the row")
	}

	copy(m.data[bank][start:], words)
}

// Peek returns a copy of n words starting from a column.
func (m *Module) Peek(bank int, row, col uint32, n int) []uint32 {
	start := m.wordIndex("Peek", bank, row, col)
	out := make([]uint32, n)
	copy(out, m.data[bank][start:start+n])

	return out
}

// Tick advances the module by one cycle.
func (m *Module) Tick(cycle uint64) {
	m.state.UpdateState(cycle)

	allIdle := true
	for i := 0; i < m.state.Banks(); i++ {
		if m.state.State(i) != BankStateIdle {
			allIdle = false
			break
		}
	}

	if allIdle {
		m.stats.AllBanksPrechargedCycles++
	}

	m.retireWrites(cycle)

	if cmd, ok := m.commands.Consume(cycle); ok {
		m.Process(cycle, cmd)
	}

	m.sendReadout(cycle)
	m.countPinUsage(cycle)
}

func (m *Module) sendReadout(cycle uint64) {
	if len(m.readout) == 0 {
		return
	}

	next := m.readout[0]
	if next.cycle < cycle {
		panic(fmt.Sprintf("Module.Tick: burst due in cycle %d not sent, "+
			"current cycle %d", next.cycle, cycle))
	}

	if next.cycle == cycle {
		m.replies.Write(cycle, next.burst)
		m.readout = m.readout[1:]
	}
}

func (m *Module) retireWrites(cycle uint64) {
	if len(m.readin) == 0 {
		return
	}

	next := m.readin[0]
	if next.cycle < cycle {
		panic(fmt.Sprintf("Module.Tick: burst due in cycle %d not written, "+
			"current cycle %d", next.cycle, cycle))
	}

	if next.cycle == cycle {
		m.store(next)
		m.readin = m.readin[1:]
	}
}

func (m *Module) store(w timedBurst) {
	start := m.wordIndex("Tick", w.bank, w.row, w.col)
	bank := m.data[w.bank]

	for i, word := range w.burst.Words {
		if start+i >= len(bank) {
			break
		}

		if w.burst.Enabled(i) {
			bank[start+i] = word
		}
	}
}

func (m *Module) countPinUsage(cycle uint64) {
	if len(m.pins) > 0 && m.pins[0].cycle < cycle {
		panic(fmt.Sprintf("Module.Tick: data pin item of cycle %d lost, "+
			"current cycle %d", m.pins[0].cycle, cycle))
	}

	if len(m.pins) > 0 && m.pins[0].cycle == cycle {
		item := m.pins[0]
		m.pins = m.pins[1:]

		switch item.use {
		case pinRead:
			m.stats.ReadCycles++
			m.stats.ReadBytes += m.bytesPerCycle
		case pinWrite:
			m.stats.WriteCycles++
			m.stats.WriteBytes += m.bytesPerCycle
		case pinConstraint:
			m.stats.ConstraintCycles[item.constraint]++
		}

		m.hasBypass = false

		return
	}

	reading := m.state.lastReadEnd != 0 && m.state.lastReadEnd > cycle
	writing := m.state.lastWriteEnd != 0 && m.state.lastWriteEnd > cycle

	switch {
	case writing:
		m.stats.WLCycles++
	case reading:
		m.stats.CASCycles++
	case m.hasBypass:
		m.stats.ConstraintCycles[m.bypass]++
	default:
		m.stats.IdleCycles++
	}

	m.hasBypass = false
}

// Process executes a command in the given cycle.
func (m *Module) Process(cycle uint64, cmd *signal.Command) {
	if cmd.Constraint != signal.PCNone {
		m.bypass = cmd.Constraint
		m.hasBypass = true
	}

	switch cmd.Kind {
	case signal.CmdKindActivate:
		m.stats.ActivateCommands++
		m.state.PostActivate(cmd.Bank, cmd.Row)
	case signal.CmdKindRead:
		m.processRead(cycle, cmd)
	case signal.CmdKindWrite:
		m.processWrite(cycle, cmd)
	case signal.CmdKindPrecharge:
		m.state.PostPrecharge(cmd.Bank)
	case signal.CmdKindDummy:
		m.processDummy(cycle, cmd)
	default:
		panic(fmt.Sprintf("Module.Process: unexpected command %s", cmd.Kind))
	}
}

func (m *Module) queuePins(start uint64, use pinUse) {
	for i := uint64(0); i < m.state.BurstTransmissionTime(); i++ {
		m.pushPin(pinItem{cycle: start + i, use: use})
	}
}

// pushPin keeps the data pin items sorted by cycle. Data transfers win over
// constraint items that target the same cycle.
func (m *Module) pushPin(item pinItem) {
	i := sort.Search(len(m.pins), func(i int) bool {
		return m.pins[i].cycle >= item.cycle
	})

	if i < len(m.pins) && m.pins[i].cycle == item.cycle {
		switch {
		case item.use == pinConstraint:
			return
		case m.pins[i].use == pinConstraint:
			m.pins[i] = item
			return
		default:
			panic(fmt.Sprintf("Module.Process: data pins already used in "+
				"cycle %d", item.cycle))
		}
	}

	m.pins = append(m.pins, pinItem{})
	copy(m.pins[i+1:], m.pins[i:])
	m.pins[i] = item
}

func (m *Module) processRead(cycle uint64, cmd *signal.Command) {
	if n := len(m.readout); n > 0 &&
		m.readout[n-1].cycle > cycle+m.state.timing.CASLatency {
		panic("Module.Process: data readout collision between two reads")
	}

	m.state.PostRead(cmd.Bank)
	m.queuePins(cycle+m.state.timing.CASLatency, pinRead)

	row := m.state.ActiveRow(cmd.Bank)
	start := m.wordIndex("Process", cmd.Bank, row, cmd.Col)
	bank := m.data[cmd.Bank]

	burst := signal.NewBurst(m.state.BurstLength())
	for i := range burst.Words {
		if start+i < len(bank) {
			burst.Words[i] = bank[start+i]
		}
	}

	m.readout = append(m.readout, timedBurst{
		cycle: cycle + m.state.ReadBurstRequiredCycles(),
		burst: burst,
	})
}

func (m *Module) processWrite(cycle uint64, cmd *signal.Command) {
	if int(cmd.Col) >= m.cols {
		panic(fmt.Sprintf("Module.Process: column %d out of bounds", cmd.Col))
	}

	if cmd.Data == nil {
		panic("Module.Process: write command without data")
	}

	m.state.PostWrite(cmd.Bank)
	m.queuePins(cycle+m.state.timing.WriteLatency, pinWrite)

	m.readin = append(m.readin, timedBurst{
		cycle: cycle + m.state.WriteBurstRequiredCycles(),
		bank:  cmd.Bank,
		row:   m.state.ActiveRow(cmd.Bank),
		col:   cmd.Col,
		burst: cmd.Data,
	})
}

// processDummy moves the constraint of a dummy command to the cycle in which
// it keeps the data pins unused, if the pins are busy now.
func (m *Module) processDummy(cycle uint64, cmd *signal.Command) {
	reading := m.state.lastReadEnd != 0 && m.state.lastReadEnd > cycle
	writing := m.state.lastWriteEnd != 0 && m.state.lastWriteEnd > cycle

	if !reading && !writing {
		return
	}

	var offset uint64

	switch cmd.Constraint {
	case signal.PCReadToWrite, signal.PCActToWrite:
		offset = m.state.timing.WriteLatency
	case signal.PCActToRead:
		offset = m.state.timing.CASLatency
	}

	if offset == 0 {
		return
	}

	m.pushPin(pinItem{
		cycle:      cycle + offset,
		use:        pinConstraint,
		constraint: cmd.Constraint,
	})
}
