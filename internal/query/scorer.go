package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// Score is a relevance value.
type Score = float64

// Scorer is a DocSet that also scores its current doc.
type Scorer interface {
	DocSet
	Score() Score
}

// ConstScorer gives every doc of a DocSet the same score.
type ConstScorer struct {
	DocSet
	score Score
}

// NewConstScorer returns a scorer over ds scoring every doc as score.
func NewConstScorer(ds DocSet, score Score) *ConstScorer {
	return &ConstScorer{DocSet: ds, score: score}
}

func (s *ConstScorer) Score() Score {
	return s.score
}

// EmptyScorer matches nothing.
type EmptyScorer struct{}

func (EmptyScorer) Advance() bool { return false }
func (EmptyScorer) SkipNext(index.DocID) SkipResult { return SkipEnd }
func (EmptyScorer) Doc() index.DocID { return index.TerminatedDoc }
func (EmptyScorer) SizeHint() uint32 { return 0 }
func (EmptyScorer) Score() Score { return 0 }

// AllScorer matches every doc id in [0, maxDoc) with score 1.
type AllScorer struct {
	doc     index.DocID
	maxDoc  uint32
	started bool
	done    bool
}

// NewAllScorer returns a scorer over [0, maxDoc).
func NewAllScorer(maxDoc uint32) *AllScorer {
	return &AllScorer{maxDoc: maxDoc}
}

func (s *AllScorer) Advance() bool {
	if s.done {
		return false
	}
	if s.started {
		s.doc++
	} else {
		s.started = true
		s.doc = 0
	}
	if s.doc >= s.maxDoc {
		s.done = true
		s.doc = index.TerminatedDoc
		return false
	}
	return true
}

func (s *AllScorer) SkipNext(target index.DocID) SkipResult {
	if s.done {
		return SkipEnd
	}
	if s.started && s.doc >= target {
		if s.Advance() {
			return SkipOverStep
		}
		return SkipEnd
	}
	s.started = true
	if target >= s.maxDoc {
		s.done = true
		s.doc = index.TerminatedDoc
		return SkipEnd
	}
	s.doc = target
	return SkipReached
}

func (s *AllScorer) Doc() index.DocID { return s.doc }
func (s *AllScorer) SizeHint() uint32 { return s.maxDoc }
func (s *AllScorer) Score() Score { return 1 }

// BitSetDocSet walks the docs of a roaring bitmap.
type BitSetDocSet struct {
	bitmap  *roaring.Bitmap
	it      roaring.IntPeekable
	doc     index.DocID
	started bool
	done    bool
}

// NewBitSetDocSet returns a DocSet over the docs in bitmap. The bitmap must
// not be modified while the set is in use.
func NewBitSetDocSet(bitmap *roaring.Bitmap) *BitSetDocSet {
	return &BitSetDocSet{bitmap: bitmap, it: bitmap.Iterator()}
}

func (s *BitSetDocSet) Advance() bool {
	if s.done {
		return false
	}
	if !s.it.HasNext() {
		s.done = true
		s.doc = index.TerminatedDoc
		return false
	}
	s.started = true
	s.doc = s.it.Next()
	return true
}

func (s *BitSetDocSet) SkipNext(target index.DocID) SkipResult {
	if s.done {
		return SkipEnd
	}
	if !s.started || s.doc < target {
		s.it.AdvanceIfNeeded(target)
	}
	if !s.Advance() {
		return SkipEnd
	}
	return skipResultFor(s.doc, target)
}

func (s *BitSetDocSet) Doc() index.DocID { return s.doc }

func (s *BitSetDocSet) SizeHint() uint32 {
	return uint32(s.bitmap.GetCardinality())
}

// SegmentPostings walks a postings list, skipping with binary search.
type SegmentPostings struct {
	docs  []index.DocID
	freqs []uint32
	cur   int
}

// NewSegmentPostings returns a DocSet over p.
func NewSegmentPostings(p *index.Postings) *SegmentPostings {
	return &SegmentPostings{docs: p.Docs, freqs: p.Freqs, cur: -1}
}

// NewVecDocSet returns a DocSet over sorted, distinct docs.
func NewVecDocSet(docs ...index.DocID) *SegmentPostings {
	return &SegmentPostings{docs: docs, cur: -1}
}

func (p *SegmentPostings) Advance() bool {
	if p.cur < len(p.docs) {
		p.cur++
	}
	return p.cur < len(p.docs)
}

func (p *SegmentPostings) SkipNext(target index.DocID) SkipResult {
	if p.cur >= len(p.docs) {
		return SkipEnd
	}
	start := p.cur + 1
	lo, hi := start, len(p.docs)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if p.docs[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	p.cur = lo
	if p.cur >= len(p.docs) {
		return SkipEnd
	}
	return skipResultFor(p.docs[p.cur], target)
}

func (p *SegmentPostings) Doc() index.DocID {
	if p.cur < 0 || p.cur >= len(p.docs) {
		return index.TerminatedDoc
	}
	return p.docs[p.cur]
}

func (p *SegmentPostings) SizeHint() uint32 {
	return uint32(len(p.docs))
}

// Freq returns the term frequency at the current doc.
func (p *SegmentPostings) Freq() uint32 {
	if p.freqs == nil {
		return 1
	}
	return p.freqs[p.cur]
}
