// Package bankselect ranks the banks of a channel to decide which bank
// queue is served first.
package bankselect

import (
	"fmt"
	"sort"
	"strings"
)

// BankInfo is the summary of a bank queue that the comparators look at.
type BankInfo struct {
	BankID int

	// Age is the enqueue timestamp of the oldest transaction, or 0 if the
	// queue is empty.
	Age uint64

	ConsecutiveHits int
	QueueSize       int
}

func (b *BankInfo) String() string {
	return fmt.Sprintf("bank=%d age=%d hits=%d size=%d",
		b.BankID, b.Age, b.ConsecutiveHits, b.QueueSize)
}

// A Comparator orders two banks. Compare returns -1 if a goes first, 1 if b
// goes first and 0 if the comparator cannot tell them apart.
type Comparator interface {
	Compare(a, b *BankInfo) int

	// Update is called once before every ranking.
	Update()

	// Reset restores the state the comparator had when it was created.
	Reset()
}

// Policy is a chain of comparators. The first comparator that tells two
// banks apart decides their order.
type Policy struct {
	comparators []Comparator
}

// NewPolicy creates a policy from a chain of comparators.
func NewPolicy(comparators ...Comparator) *Policy {
	return &Policy{comparators: comparators}
}

// AddComparator appends a comparator to the chain.
func (p *Policy) AddComparator(c Comparator) {
	p.comparators = append(p.comparators, c)
}

// Len returns the number of comparators in the chain.
func (p *Policy) Len() int {
	return len(p.comparators)
}

// Reset resets all the comparators in the chain.
func (p *Policy) Reset() {
	for _, c := range p.comparators {
		c.Reset()
	}
}

// SortBanks updates all the comparators and sorts the banks in place, the
// bank to serve first at index 0.
func (p *Policy) SortBanks(banks []*BankInfo) {
	if len(p.comparators) == 0 {
		panic("Policy.SortBanks: at least one comparator is required")
	}

	for _, c := range p.comparators {
		c.Update()
	}

	sort.SliceStable(banks, func(i, j int) bool {
		return p.compare(banks[i], banks[j]) == -1
	})
}

func (p *Policy) compare(a, b *BankInfo) int {
	result := 0
	for i := 0; i < len(p.comparators) && result == 0; i++ {
		result = p.comparators[i].Compare(a, b)
	}

	return result
}

// ParsePolicy builds a policy from a whitespace-separated list of comparator
// names, such as "OLDEST_FIRST ROUND_ROBIN". Names are case-insensitive. The
// seed is used by the RANDOM comparator.
func ParsePolicy(definition string, banks int, seed int64) *Policy {
	p := NewPolicy()

	for _, name := range strings.Fields(definition) {
		switch strings.ToUpper(name) {
		case "RANDOM":
			p.AddComparator(NewRandomComparator(banks, seed))
		case "ROUND_ROBIN":
			p.AddComparator(NewRoundRobinComparator(banks))
		case "OLDEST_FIRST":
			p.AddComparator(AgeComparator{Order: OldestFirst})
		case "YOUNGEST_FIRST":
			p.AddComparator(AgeComparator{Order: YoungestFirst})
		case "MORE_CONSECUTIVE_HITS":
			p.AddComparator(ConsecutiveHitsComparator{Order: MoreHitsFirst})
		case "LESS_CONSECUTIVE_HITS":
			p.AddComparator(ConsecutiveHitsComparator{Order: LessHitsFirst})
		case "MORE_PENDING_REQUESTS":
			p.AddComparator(QueueSizeComparator{Order: MorePendingFirst})
		case "LESS_PENDING_REQUESTS":
			p.AddComparator(QueueSizeComparator{Order: LessPendingFirst})
		case "ZERO_PENDING_FIRST":
			p.AddComparator(QueueSizeComparator{Order: ZeroPendingFirst})
		default:
			panic(fmt.Sprintf("ParsePolicy: unknown bank selection policy %q",
				name))
		}
	}

	return p
}

// ValidatePolicy returns an error if the definition has an unknown name or no
// name at all.
func ValidatePolicy(definition string) error {
	names := strings.Fields(definition)
	if len(names) == 0 {
		return fmt.Errorf("empty bank selection policy")
	}

	for _, name := range names {
		switch strings.ToUpper(name) {
		case "RANDOM", "ROUND_ROBIN", "OLDEST_FIRST", "YOUNGEST_FIRST",
			"MORE_CONSECUTIVE_HITS", "LESS_CONSECUTIVE_HITS",
			"MORE_PENDING_REQUESTS", "LESS_PENDING_REQUESTS",
			"ZERO_PENDING_FIRST":
		default:
			return fmt.Errorf("unknown bank selection policy %q", name)
		}
	}

	return nil
}
