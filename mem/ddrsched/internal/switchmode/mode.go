// Package switchmode decides whether a channel scheduler serves reads or
// writes.
package switchmode

import (
	"fmt"
	"math"
	"strings"
)

// A Mode tracks the direction that a scheduler currently serves. Update is
// called once per selected transaction, before the selection is made.
type Mode interface {
	Reading() bool
	Writing() bool
	Update(readExists, writeExists, readIsHit, writeIsHit bool)
	MoreConsecutiveOpsAllowed() int
	MaxConsecutiveReads() int
	MaxConsecutiveWrites() int

	// Reset puts the mode back in its initial reading state.
	Reset()
}

// Policy names.
const (
	PolicyTwoCounters     = "TWO_COUNTERS"
	PolicyLoadsOverStores = "LOADS_OVER_STORES"
)

// Config selects and parameterizes a mode.
type Config struct {
	Policy    string `json:"policy" yaml:"policy"`
	MaxReads  int    `json:"max_consecutive_reads" yaml:"max_consecutive_reads"`
	MaxWrites int    `json:"max_consecutive_writes" yaml:"max_consecutive_writes"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch strings.ToUpper(c.Policy) {
	case PolicyTwoCounters:
		if c.MaxReads <= 0 || c.MaxWrites <= 0 {
			return fmt.Errorf("two counters mode needs positive maximums, "+
				"got %d reads and %d writes", c.MaxReads, c.MaxWrites)
		}
	case PolicyLoadsOverStores:
	default:
		return fmt.Errorf("unknown switch mode policy %q", c.Policy)
	}

	return nil
}

// New creates the mode described by the configuration.
func New(c Config) Mode {
	switch strings.ToUpper(c.Policy) {
	case PolicyTwoCounters:
		return NewTwoCounters(c.MaxReads, c.MaxWrites)
	case PolicyLoadsOverStores:
		return NewLoadsOverStores()
	default:
		panic(fmt.Sprintf("switchmode.New: unknown policy %q", c.Policy))
	}
}

func mustBeConsistent(readExists, writeExists, readIsHit, writeIsHit bool) {
	if !readExists && !writeExists {
		panic("Mode.Update: neither reads nor writes exist")
	}

	if readIsHit && !readExists {
		panic("Mode.Update: read hit without a read candidate")
	}

	if writeIsHit && !writeExists {
		panic("Mode.Update: write hit without a write candidate")
	}
}

// TwoCounters serves up to a maximum number of consecutive operations in one
// direction before it turns to the other one.
type TwoCounters struct {
	maxReads  int
	maxWrites int

	reading bool
	count   int
}

// NewTwoCounters creates a two counters mode that starts reading.
func NewTwoCounters(maxReads, maxWrites int) *TwoCounters {
	return &TwoCounters{
		maxReads:  maxReads,
		maxWrites: maxWrites,
		reading:   true,
	}
}

// Reset starts a new read streak.
func (m *TwoCounters) Reset() {
	m.reading = true
	m.count = 0
}

// Reading tells if reads are being served.
func (m *TwoCounters) Reading() bool {
	return m.reading
}

// Writing tells if writes are being served.
func (m *TwoCounters) Writing() bool {
	return !m.reading
}

func (m *TwoCounters) limit() int {
	if m.reading {
		return m.maxReads
	}

	return m.maxWrites
}

func (m *TwoCounters) switchMode() {
	m.reading = !m.reading
	m.count = 0
}

// Update accounts for one more operation.
func (m *TwoCounters) Update(readExists, writeExists, readIsHit, writeIsHit bool) {
	mustBeConsistent(readExists, writeExists, readIsHit, writeIsHit)

	current, other := readExists, writeExists
	if !m.reading {
		current, other = writeExists, readExists
	}

	switch {
	case !current:
		m.switchMode()
	case m.count >= m.limit():
		if other {
			m.switchMode()
		} else {
			m.count = 0
		}
	}

	m.count++
}

// MoreConsecutiveOpsAllowed returns how many more operations fit in the
// current streak.
func (m *TwoCounters) MoreConsecutiveOpsAllowed() int {
	return max(m.limit()-m.count, 0)
}

// MaxConsecutiveReads returns the read streak length.
func (m *TwoCounters) MaxConsecutiveReads() int {
	return m.maxReads
}

// MaxConsecutiveWrites returns the write streak length.
func (m *TwoCounters) MaxConsecutiveWrites() int {
	return m.maxWrites
}

// LoadsOverStores serves reads whenever possible. Writes are served when
// there is no read, and keep being served while they hit the open row.
type LoadsOverStores struct {
	reading bool
}

// NewLoadsOverStores creates a loads over stores mode that starts reading.
func NewLoadsOverStores() *LoadsOverStores {
	return &LoadsOverStores{reading: true}
}

// Reset turns the mode back to reading.
func (m *LoadsOverStores) Reset() {
	m.reading = true
}

// Reading tells if reads are being served.
func (m *LoadsOverStores) Reading() bool {
	return m.reading
}

// Writing tells if writes are being served.
func (m *LoadsOverStores) Writing() bool {
	return !m.reading
}

// Update picks the direction of the next operation.
func (m *LoadsOverStores) Update(
	readExists, writeExists, readIsHit, writeIsHit bool,
) {
	mustBeConsistent(readExists, writeExists, readIsHit, writeIsHit)

	if m.reading {
		if !readExists {
			m.reading = false
		}

		return
	}

	if !writeExists || (readExists && !writeIsHit) {
		m.reading = true
	}
}

// MoreConsecutiveOpsAllowed is unbounded.
func (m *LoadsOverStores) MoreConsecutiveOpsAllowed() int {
	return math.MaxInt32
}

// MaxConsecutiveReads is unbounded.
func (m *LoadsOverStores) MaxConsecutiveReads() int {
	return math.MaxInt32
}

// MaxConsecutiveWrites is unbounded.
func (m *LoadsOverStores) MaxConsecutiveWrites() int {
	return math.MaxInt32
}
