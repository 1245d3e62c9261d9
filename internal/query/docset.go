// Package query is the execution core of the search engine. A Query is a
// segment-independent description that compiles into one Weight per segment;
// a Weight builds a Scorer, which walks the matching documents of that
// segment in increasing doc id order and scores them on demand.
//
// Every match stream implements DocSet. SkipNext always behaves as if
// Advance were called first and then repeatedly until the target is reached
// or passed, so mixed Advance and SkipNext calls never move backwards.
package query

import (
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// SkipResult is the outcome of DocSet.SkipNext.
type SkipResult int

const (
	// SkipReached means the set is positioned exactly on the target.
	SkipReached SkipResult = iota
	// SkipOverStep means the set is positioned on the first doc after the
	// target.
	SkipOverStep
	// SkipEnd means no doc at or after the target exists.
	SkipEnd
)

func (r SkipResult) String() string {
	switch r {
	case SkipReached:
		return "reached"
	case SkipOverStep:
		return "overstep"
	case SkipEnd:
		return "end"
	default:
		return "unknown"
	}
}

// DocSet is a forward-only stream of doc ids in strictly increasing order.
//
// Advance must be called (or SkipNext) before the first Doc. Once exhausted,
// Advance keeps returning false and SkipNext keeps returning SkipEnd.
type DocSet interface {
	Advance() bool
	SkipNext(target index.DocID) SkipResult
	Doc() index.DocID
	// SizeHint is a cheap upper bound on the number of docs in the set.
	SizeHint() uint32
}

// SkipByAdvancing implements SkipNext for a DocSet that has no skip
// structure.
func SkipByAdvancing(ds DocSet, target index.DocID) SkipResult {
	if !ds.Advance() {
		return SkipEnd
	}
	for {
		doc := ds.Doc()
		switch {
		case doc == target:
			return SkipReached
		case doc > target:
			return SkipOverStep
		}
		if !ds.Advance() {
			return SkipEnd
		}
	}
}

// Count exhausts ds and returns the number of remaining docs not marked in
// deletes. A nil deletes counts everything.
func Count(ds DocSet, deletes *index.DeleteBitSet) uint32 {
	var n uint32
	for ds.Advance() {
		if !deletes.IsDeleted(ds.Doc()) {
			n++
		}
	}
	return n
}

// CountIncludingDeleted exhausts ds and returns the number of remaining docs.
func CountIncludingDeleted(ds DocSet) uint32 {
	var n uint32
	for ds.Advance() {
		n++
	}
	return n
}

// cursor tracks whether a child scorer has been positioned so combinators
// can seek it without moving it past a doc it already sits on.
type cursor struct {
	s          Scorer
	positioned bool
	ended      bool
}

func newCursor(s Scorer) *cursor {
	return &cursor{s: s}
}

func (c *cursor) advance() bool {
	if c.ended {
		return false
	}
	c.positioned = true
	if !c.s.Advance() {
		c.ended = true
		return false
	}
	return true
}

// seek moves the cursor to the first doc >= target, staying put when it is
// already there.
func (c *cursor) seek(target index.DocID) SkipResult {
	if c.ended {
		return SkipEnd
	}
	if c.positioned {
		doc := c.s.Doc()
		if doc == target {
			return SkipReached
		}
		if doc > target {
			return SkipOverStep
		}
	}
	c.positioned = true
	r := c.s.SkipNext(target)
	if r == SkipEnd {
		c.ended = true
	}
	return r
}

func skipResultFor(doc, target index.DocID) SkipResult {
	if doc == target {
		return SkipReached
	}
	return SkipOverStep
}
