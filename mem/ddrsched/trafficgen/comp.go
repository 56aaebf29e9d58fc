package trafficgen

import (
	"bytes"
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
	"github.com/sarchlab/attila/mem/ddrsched"
)

// A Controller is the memory channel controller that the generator drives.
type Controller interface {
	CanAccept(bank int, isRead bool) bool
	Submit(cycle uint64, txn *ddrsched.Transaction)
	Reply(cycle uint64) (*ddrsched.Transaction, bool)
	Splitter() *ddrsched.Splitter
}

// Stats counts the traffic of a generator.
type Stats struct {
	Requests      uint64 `json:"requests"`
	Reads         uint64 `json:"reads"`
	Writes        uint64 `json:"writes"`
	Transactions  uint64 `json:"transactions"`
	BytesRead     uint64 `json:"bytes_read"`
	BytesWritten  uint64 `json:"bytes_written"`
	TotalLatency  uint64 `json:"total_latency"`
	MaxLatency    uint64 `json:"max_latency"`
	Mismatches    uint64 `json:"mismatches"`
	StalledCycles uint64 `json:"stalled_cycles"`
}

// AverageLatency returns the mean number of cycles from the submission of
// the first transaction of a request to the reply of its last one.
func (s Stats) AverageLatency() float64 {
	if s.Requests == 0 {
		return 0
	}

	return float64(s.TotalLatency) / float64(s.Requests)
}

// Mismatch describes a read that did not return the expected data.
type Mismatch struct {
	RequestID string
	Address   uint64
	Expected  []byte
	Actual    []byte
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("request %s: read at 0x%x returned % x, expected % x",
		m.RequestID, m.Address, m.Actual, m.Expected)
}

type request struct {
	id   string
	op   Op
	txns []*ddrsched.Transaction
	next int

	remaining int
	entry     *inflight
}

// Comp is a traffic generator. It submits the transactions of its workload
// one per cycle and verifies the read data against a shadow copy of the
// memory.
type Comp struct {
	*sim.TickingComponent

	ctrl     Controller
	workload Workload

	current     *request
	outstanding *outstandingIndex
	expected    map[string][]byte
	shadow      *shadowMemory
	seq         uint64
	exhausted   bool

	verify          bool
	panicOnMismatch bool
	maxMismatches   int
	mismatches      []Mismatch

	maxCycles     uint64
	hangThreshold uint64

	stats Stats
}

// Tick submits a transaction and collects a reply.
func (c *Comp) Tick() bool {
	cycle := c.Freq.Cycle(c.CurrentTime())

	madeProgress := c.collect(cycle)
	madeProgress = c.submit(cycle) || madeProgress

	c.checkHang(cycle)

	return madeProgress || !c.Done()
}

// Done tells if the workload is exhausted and every reply is back.
func (c *Comp) Done() bool {
	return c.exhausted && c.current == nil && c.outstanding.len() == 0
}

// Stats returns the traffic counters.
func (c *Comp) Stats() Stats {
	return c.stats
}

// Mismatches returns the first reads that returned unexpected data.
func (c *Comp) Mismatches() []Mismatch {
	return c.mismatches
}

// Outstanding returns the number of requests in flight.
func (c *Comp) Outstanding() int {
	return c.outstanding.len()
}

// OldestOutstanding returns the ID of the request that has been in flight for
// the longest time and the cycle it was issued in.
func (c *Comp) OldestOutstanding() (id string, issued uint64, ok bool) {
	e, ok := c.outstanding.oldest()
	if !ok {
		return "", 0, false
	}

	return e.req.id, e.issued, true
}

// StuckRequests returns the IDs of the requests issued more than age cycles
// ago.
func (c *Comp) StuckRequests(age uint64) []string {
	now := c.Freq.Cycle(c.CurrentTime())
	if now < age {
		return nil
	}

	var ids []string
	for _, e := range c.outstanding.olderThan(now - age) {
		ids = append(ids, e.req.id)
	}

	return ids
}

// Start makes the generator issue its first request in the next cycle.
func (c *Comp) Start() {
	c.TickLater()
}

// Reset drops the generator's view of the memory. It must be called together
// with the reset of the controller.
func (c *Comp) Reset(workload Workload) {
	c.workload = workload
	c.current = nil
	c.exhausted = false
	c.outstanding.reset()
	c.expected = make(map[string][]byte)
	c.shadow.reset()
	c.mismatches = nil
	c.stats = Stats{}
}

func (c *Comp) checkHang(cycle uint64) {
	if c.hangThreshold == 0 {
		return
	}

	e, ok := c.outstanding.oldest()
	if !ok || cycle-e.issued <= c.hangThreshold {
		return
	}

	panic(fmt.Sprintf("Comp.Tick: %s request %s (%v) is in flight since "+
		"cycle %d, now %d", c.Name(), e.req.id, e.req.op, e.issued, cycle))
}

func (c *Comp) collect(cycle uint64) bool {
	txn, ok := c.ctrl.Reply(cycle)
	if !ok {
		return false
	}

	req, ok := txn.Origin.(*request)
	if !ok {
		panic(fmt.Sprintf("Comp.collect: %s got transaction %s that it did "+
			"not send", c.Name(), txn.ID))
	}

	if txn.IsRead() {
		c.stats.BytesRead += uint64(txn.Size)
		c.check(req, txn)
	}

	req.remaining--
	if req.remaining == 0 && req.next == len(req.txns) {
		c.complete(cycle, req)
	}

	return true
}

func (c *Comp) check(req *request, txn *ddrsched.Transaction) {
	expected := c.expected[txn.ID]
	delete(c.expected, txn.ID)

	if !c.verify || bytes.Equal(expected, txn.Data) {
		return
	}

	c.stats.Mismatches++

	m := Mismatch{
		RequestID: req.id,
		Address:   txn.Address,
		Expected:  expected,
		Actual:    append([]byte(nil), txn.Data...),
	}

	if c.panicOnMismatch {
		panic(fmt.Sprintf("Comp.check: %v", m))
	}

	if len(c.mismatches) < c.maxMismatches {
		c.mismatches = append(c.mismatches, m)
	}
}

func (c *Comp) complete(cycle uint64, req *request) {
	latency := cycle - req.entry.issued

	c.stats.Requests++
	c.stats.TotalLatency += latency
	c.stats.MaxLatency = max(c.stats.MaxLatency, latency)

	c.outstanding.remove(req.entry)
	tracing.EndTask(req.id, c)
}

func (c *Comp) submit(cycle uint64) bool {
	if c.current == nil && !c.nextRequest(cycle) {
		return false
	}

	req := c.current
	txn := req.txns[req.next]

	if !c.ctrl.CanAccept(txn.Bank, txn.IsRead()) {
		c.stats.StalledCycles++
		return false
	}

	if req.next == 0 {
		c.startRequest(cycle, req)
	}

	if txn.IsRead() {
		c.expected[txn.ID] = c.shadow.read(txn.Address, txn.Size)
	} else {
		c.shadow.write(txn.Address, txn.Data, txn.Mask)
		c.stats.BytesWritten += uint64(txn.Size)
	}

	c.ctrl.Submit(cycle, txn)
	c.stats.Transactions++

	req.next++
	req.remaining++

	if req.next == len(req.txns) {
		c.current = nil
	}

	return true
}

func (c *Comp) nextRequest(cycle uint64) bool {
	if c.exhausted {
		return false
	}

	if c.maxCycles > 0 && cycle >= c.maxCycles {
		c.exhausted = true
		return false
	}

	op, ok := c.workload.Next()
	if !ok {
		c.exhausted = true
		return false
	}

	req := &request{id: xid.New().String(), op: op}

	data := op.Data
	if op.Read || data == nil {
		data = make([]byte, op.Size)
	}

	if !op.Read && op.Data == nil {
		fill(data, c.seq)
	}

	req.txns = c.ctrl.Splitter().Split(&ddrsched.Request{
		ID:      req.id,
		Read:    op.Read,
		Address: op.Address,
		Data:    data,
		Mask:    op.Mask,
		Origin:  req,
	})

	c.current = req

	return true
}

func (c *Comp) startRequest(cycle uint64, req *request) {
	c.seq++
	req.entry = &inflight{seq: c.seq, issued: cycle, req: req}
	c.outstanding.add(req.entry)

	what := "write"
	if req.op.Read {
		what = "read"
		c.stats.Reads++
	} else {
		c.stats.Writes++
	}

	tracing.StartTask(req.id, "", c, "req_out", what, req.op)
}

// fill writes a payload that is unique to each request.
func fill(data []byte, seq uint64) {
	for i := range data {
		data[i] = byte(seq*31 + uint64(i)*7 + 1)
	}
}
