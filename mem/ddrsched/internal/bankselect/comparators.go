package bankselect

import "math/rand"

// RandomComparator orders the banks by random weights that are drawn again
// before every ranking. It never reports a tie between two banks with
// different weights.
type RandomComparator struct {
	seed    int64
	rng     *rand.Rand
	weights []uint32
}

// NewRandomComparator creates a random comparator. The same seed always
// gives the same sequence of rankings.
func NewRandomComparator(banks int, seed int64) *RandomComparator {
	return &RandomComparator{
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		weights: make([]uint32, banks),
	}
}

// Update draws new weights.
func (c *RandomComparator) Update() {
	for i := range c.weights {
		c.weights[i] = c.rng.Uint32()
	}
}

// Reset restarts the weight sequence from the seed.
func (c *RandomComparator) Reset() {
	c.rng.Seed(c.seed)
	clear(c.weights)
}

// Compare puts the bank with the lower weight first.
func (c *RandomComparator) Compare(a, b *BankInfo) int {
	if c.weights[a.BankID] < c.weights[b.BankID] {
		return -1
	}

	return 1
}

// RoundRobinComparator gives the first place to each bank in turn.
type RoundRobinComparator struct {
	banks  int
	nextRR int
}

// NewRoundRobinComparator creates a round robin comparator.
func NewRoundRobinComparator(banks int) *RoundRobinComparator {
	return &RoundRobinComparator{banks: banks}
}

// Next returns the bank that currently has the first turn.
func (c *RoundRobinComparator) Next() int {
	return c.nextRR
}

// Update moves the turn to the next bank.
func (c *RoundRobinComparator) Update() {
	c.nextRR = (c.nextRR + 1) % c.banks
}

// Reset gives the first turn back to bank 0.
func (c *RoundRobinComparator) Reset() {
	c.nextRR = 0
}

func (c *RoundRobinComparator) turn(bank int) int {
	return (bank + c.banks - c.nextRR) % c.banks
}

// Compare puts the bank whose turn comes first in front.
func (c *RoundRobinComparator) Compare(a, b *BankInfo) int {
	if a.BankID == b.BankID {
		return 0
	}

	if c.turn(a.BankID) < c.turn(b.BankID) {
		return -1
	}

	return 1
}

// AgeOrder selects which end of the age range goes first.
type AgeOrder int

// Age orders.
const (
	OldestFirst AgeOrder = iota
	YoungestFirst
)

// AgeComparator orders the banks by the enqueue time of their oldest
// transaction. Empty banks have age 0.
type AgeComparator struct {
	Order AgeOrder
}

// Update does nothing.
func (AgeComparator) Update() {}

// Reset does nothing.
func (AgeComparator) Reset() {}

// Compare compares the ages of two banks.
func (c AgeComparator) Compare(a, b *BankInfo) int {
	if a.Age == b.Age {
		return 0
	}

	first := -1
	if c.Order == YoungestFirst {
		first = 1
	}

	if a.Age < b.Age {
		return first
	}

	return -first
}

// HitsOrder selects if banks with more or less consecutive hits go first.
type HitsOrder int

// Consecutive hit orders.
const (
	MoreHitsFirst HitsOrder = iota
	LessHitsFirst
)

// ConsecutiveHitsComparator orders banks by the number of queued
// transactions that hit the row of their front transaction.
type ConsecutiveHitsComparator struct {
	Order HitsOrder
}

// Update does nothing.
func (ConsecutiveHitsComparator) Update() {}

// Reset does nothing.
func (ConsecutiveHitsComparator) Reset() {}

// Compare compares the consecutive hits of two banks.
func (c ConsecutiveHitsComparator) Compare(a, b *BankInfo) int {
	if a.ConsecutiveHits == b.ConsecutiveHits {
		return 0
	}

	first := 1
	if c.Order == LessHitsFirst {
		first = -1
	}

	if a.ConsecutiveHits < b.ConsecutiveHits {
		return first
	}

	return -first
}

// QueueSizeOrder selects how queue sizes are ranked.
type QueueSizeOrder int

// Queue size orders.
const (
	MorePendingFirst QueueSizeOrder = iota
	LessPendingFirst

	// ZeroPendingFirst puts the empty queues first. All the non-empty
	// queues tie.
	ZeroPendingFirst
)

// QueueSizeComparator orders banks by the size of their queues.
type QueueSizeComparator struct {
	Order QueueSizeOrder
}

// Update does nothing.
func (QueueSizeComparator) Update() {}

// Reset does nothing.
func (QueueSizeComparator) Reset() {}

// Compare compares the queue sizes of two banks.
func (c QueueSizeComparator) Compare(a, b *BankInfo) int {
	if c.Order == ZeroPendingFirst {
		switch {
		case a.QueueSize == 0 && b.QueueSize == 0:
			return 0
		case a.QueueSize == 0:
			return -1
		case b.QueueSize == 0:
			return 1
		default:
			return 0
		}
	}

	if a.QueueSize == b.QueueSize {
		return 0
	}

	first := 1
	if c.Order == LessPendingFirst {
		first = -1
	}

	if a.QueueSize < b.QueueSize {
		return first
	}

	return -first
}
