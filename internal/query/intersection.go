package query

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// Intersection matches the docs present in every child and scores them with
// the sum of the children's scores. The child with the smallest SizeHint
// leads.
type Intersection struct {
	cursors []*cursor
	doc     index.DocID
	started bool
	done    bool
}

// NewIntersection returns the conjunction of scorers. A single scorer is
// returned unchanged.
func NewIntersection(scorers []Scorer) Scorer {
	switch len(scorers) {
	case 0:
		return EmptyScorer{}
	case 1:
		return scorers[0]
	}
	sorted := make([]Scorer, len(scorers))
	copy(sorted, scorers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SizeHint() < sorted[j].SizeHint()
	})
	cursors := make([]*cursor, len(sorted))
	for i, s := range sorted {
		cursors[i] = newCursor(s)
	}
	return &Intersection{cursors: cursors}
}

func (x *Intersection) Advance() bool {
	if x.done {
		return false
	}
	x.started = true
	lead := x.cursors[0]
	if !lead.advance() {
		return x.finish()
	}
	return x.align(lead.s.Doc())
}

func (x *Intersection) SkipNext(target index.DocID) SkipResult {
	if x.done {
		return SkipEnd
	}
	if x.started && x.doc >= target {
		if x.Advance() {
			return SkipOverStep
		}
		return SkipEnd
	}
	x.started = true
	lead := x.cursors[0]
	if lead.seek(target) == SkipEnd {
		x.finish()
		return SkipEnd
	}
	if !x.align(lead.s.Doc()) {
		return SkipEnd
	}
	return skipResultFor(x.doc, target)
}

// align leapfrogs the children until they all sit on the same doc, starting
// from candidate.
func (x *Intersection) align(candidate index.DocID) bool {
	for {
		agreed := true
		for _, c := range x.cursors {
			r := c.seek(candidate)
			if r == SkipEnd {
				return x.finish()
			}
			if r == SkipOverStep {
				candidate = c.s.Doc()
				agreed = false
				break
			}
		}
		if agreed {
			x.doc = candidate
			return true
		}
	}
}

func (x *Intersection) finish() bool {
	x.done = true
	x.doc = index.TerminatedDoc
	return false
}

func (x *Intersection) Doc() index.DocID {
	return x.doc
}

func (x *Intersection) SizeHint() uint32 {
	return x.cursors[0].s.SizeHint()
}

func (x *Intersection) Score() Score {
	var total Score
	for _, c := range x.cursors {
		total += c.s.Score()
	}
	return total
}
