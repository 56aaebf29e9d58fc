package trafficgen

import "github.com/google/btree"

// inflight is a request that has at least one transaction submitted and not
// yet replied.
type inflight struct {
	seq    uint64
	issued uint64
	req    *request
}

func inflightLess(a, b *inflight) bool {
	if a.issued != b.issued {
		return a.issued < b.issued
	}

	return a.seq < b.seq
}

// outstandingIndex orders the in-flight requests by the cycle their first
// transaction was submitted.
type outstandingIndex struct {
	tree *btree.BTreeG[*inflight]
}

func newOutstandingIndex() *outstandingIndex {
	return &outstandingIndex{tree: btree.NewG(8, inflightLess)}
}

func (o *outstandingIndex) add(e *inflight) {
	o.tree.ReplaceOrInsert(e)
}

func (o *outstandingIndex) remove(e *inflight) {
	o.tree.Delete(e)
}

func (o *outstandingIndex) len() int {
	return o.tree.Len()
}

func (o *outstandingIndex) oldest() (*inflight, bool) {
	return o.tree.Min()
}

// olderThan lists the requests issued before the given cycle, oldest first.
func (o *outstandingIndex) olderThan(cycle uint64) []*inflight {
	var out []*inflight

	o.tree.AscendLessThan(&inflight{issued: cycle}, func(e *inflight) bool {
		out = append(out, e)
		return true
	})

	return out
}

func (o *outstandingIndex) reset() {
	o.tree.Clear(false)
}
