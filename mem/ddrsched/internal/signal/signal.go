package signal

import "fmt"

// Signal is a wire with a one-cycle latency. A value written in cycle c can
// only be read in cycle c+1. At most one value can be written per cycle.
type Signal[T any] struct {
	name string

	pending      T
	pendingCycle uint64
	hasPending   bool

	latched    T
	hasLatched bool

	def    T
	hasDef bool
}

// NewSignal creates a signal that is initially empty.
func NewSignal[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

// NewSignalWithDefault creates a signal that returns v in every cycle until
// something else is written. Used for state signals.
func NewSignalWithDefault[T any](name string, v T) *Signal[T] {
	s := &Signal[T]{name: name}
	s.latched, s.def = v, v
	s.hasLatched, s.hasDef = true, true

	return s
}

// Name returns the name of the signal.
func (s *Signal[T]) Name() string {
	return s.name
}

// Write puts a value on the wire.
func (s *Signal[T]) Write(cycle uint64, v T) {
	s.advance(cycle)

	if s.hasPending && s.pendingCycle == cycle {
		panic(fmt.Sprintf("Signal.Write: signal %s written twice in cycle %d",
			s.name, cycle))
	}

	s.pending = v
	s.pendingCycle = cycle
	s.hasPending = true
}

// Written tells if a value has been written in the given cycle.
func (s *Signal[T]) Written(cycle uint64) bool {
	return s.hasPending && s.pendingCycle == cycle
}

// Read returns the last value that was written before the given cycle.
func (s *Signal[T]) Read(cycle uint64) (v T, ok bool) {
	s.advance(cycle)

	if !s.hasLatched {
		return v, false
	}

	return s.latched, true
}

// Consume reads a value and removes it from the wire. Used for data signals,
// where a value is delivered once.
func (s *Signal[T]) Consume(cycle uint64) (v T, ok bool) {
	v, ok = s.Read(cycle)
	if ok {
		var zero T
		s.latched = zero
		s.hasLatched = false
	}

	return v, ok
}

// Busy tells if a value is on the wire, written but not yet consumed.
func (s *Signal[T]) Busy() bool {
	return s.hasPending || s.hasLatched
}

// Reset empties the signal. A signal with a default value shows the default
// again.
func (s *Signal[T]) Reset() {
	var zero T
	s.pending = zero
	s.hasPending = false
	s.latched = s.def
	s.hasLatched = s.hasDef
}

func (s *Signal[T]) advance(cycle uint64) {
	if s.hasPending && s.pendingCycle < cycle {
		s.latched = s.pending
		s.hasLatched = true
		var zero T
		s.pending = zero
		s.hasPending = false
	}
}
