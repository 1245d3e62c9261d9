package query

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// Union matches the docs present in any child and scores them with the sum
// of the scores of the children positioned on that doc.
type Union struct {
	cursors []*cursor
	heap    cursorHeap
	doc     index.DocID
	started bool
	done    bool
}

// NewUnion returns the disjunction of scorers. A single scorer is returned
// unchanged.
func NewUnion(scorers []Scorer) Scorer {
	switch len(scorers) {
	case 0:
		return EmptyScorer{}
	case 1:
		return scorers[0]
	}
	cursors := make([]*cursor, len(scorers))
	for i, s := range scorers {
		cursors[i] = newCursor(s)
	}
	return &Union{cursors: cursors, heap: make(cursorHeap, 0, len(cursors))}
}

func (u *Union) Advance() bool {
	if u.done {
		return false
	}
	if !u.started {
		u.started = true
		for _, c := range u.cursors {
			if c.advance() {
				u.heap = append(u.heap, c)
			}
		}
		heap.Init(&u.heap)
		return u.settle()
	}
	for len(u.heap) > 0 && u.heap[0].s.Doc() == u.doc {
		if u.heap[0].advance() {
			heap.Fix(&u.heap, 0)
		} else {
			heap.Pop(&u.heap)
		}
	}
	return u.settle()
}

func (u *Union) SkipNext(target index.DocID) SkipResult {
	if u.done {
		return SkipEnd
	}
	if u.started && u.doc >= target {
		if u.Advance() {
			return SkipOverStep
		}
		return SkipEnd
	}
	if !u.started {
		u.started = true
		for _, c := range u.cursors {
			if c.seek(target) != SkipEnd {
				u.heap = append(u.heap, c)
			}
		}
	} else {
		kept := u.heap[:0]
		for _, c := range u.heap {
			if c.seek(target) != SkipEnd {
				kept = append(kept, c)
			}
		}
		u.heap = kept
	}
	heap.Init(&u.heap)
	if !u.settle() {
		return SkipEnd
	}
	return skipResultFor(u.doc, target)
}

func (u *Union) settle() bool {
	if len(u.heap) == 0 {
		u.done = true
		u.doc = index.TerminatedDoc
		return false
	}
	u.doc = u.heap[0].s.Doc()
	return true
}

func (u *Union) Doc() index.DocID {
	return u.doc
}

func (u *Union) SizeHint() uint32 {
	var hint uint32
	for _, c := range u.cursors {
		hint = max(hint, c.s.SizeHint())
	}
	return hint
}

func (u *Union) Score() Score {
	var total Score
	for _, c := range u.heap {
		if c.s.Doc() == u.doc {
			total += c.s.Score()
		}
	}
	return total
}

type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	return h[i].s.Doc() < h[j].s.Doc()
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
