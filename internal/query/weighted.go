package query

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// WeightedOption configures a WeightedQuery.
type WeightedOption func(*WeightedQuery)

// WithOffsetInExplanation makes Explain wrap the inner explanation in a node
// that adds the score offset. By default Explain returns the inner
// explanation unchanged.
func WithOffsetInExplanation() WeightedOption {
	return func(q *WeightedQuery) {
		q.explainOffset = true
	}
}

// WeightedQuery adds a constant offset to the score of every document its
// inner query matches. It never changes which documents match or their
// order.
type WeightedQuery struct {
	inner         Query
	offset        Score
	explainOffset bool
}

// NewWeightedQuery wraps inner with offset.
func NewWeightedQuery(inner Query, offset Score, opts ...WeightedOption) *WeightedQuery {
	q := &WeightedQuery{inner: inner, offset: offset}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Inner returns the wrapped query.
func (q *WeightedQuery) Inner() Query {
	return q.inner
}

// Offset returns the score offset.
func (q *WeightedQuery) Offset() Score {
	return q.offset
}

func (q *WeightedQuery) String() string {
	return fmt.Sprintf("Weighted(%v, %+g)", q.inner, q.offset)
}

func (q *WeightedQuery) Weight(searcher *index.Searcher, scoringEnabled bool) (Weight, error) {
	inner, err := q.inner.Weight(searcher, scoringEnabled)
	if err != nil {
		return nil, err
	}
	return &WeightedWeight{inner: inner, offset: q.offset, explainOffset: q.explainOffset}, nil
}

func (q *WeightedQuery) QueryTerms(terms index.TermSet) {
	q.inner.QueryTerms(terms)
}

// WeightedWeight wraps the scorers of its inner weight in WeightedScorer.
type WeightedWeight struct {
	inner         Weight
	offset        Score
	explainOffset bool
}

func (w *WeightedWeight) Scorer(reader *index.SegmentReader) (Scorer, error) {
	inner, err := w.inner.Scorer(reader)
	if err != nil {
		return nil, err
	}
	return NewWeightedScorer(inner, w.offset), nil
}

func (w *WeightedWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	inner, err := w.inner.Explain(reader, doc)
	if err != nil {
		return nil, err
	}
	if !w.explainOffset {
		return inner, nil
	}
	e := NewExplanation("weighted, sum of:", inner.Value+w.offset)
	e.AddDetail(inner)
	e.AddConst("score offset", w.offset)
	return e, nil
}

func (w *WeightedWeight) Count(reader *index.SegmentReader) (uint32, error) {
	return w.inner.Count(reader)
}

// WeightedScorer forwards traversal to the inner scorer and adds the offset
// to its score.
type WeightedScorer struct {
	Scorer
	offset Score
}

// NewWeightedScorer wraps inner with offset.
func NewWeightedScorer(inner Scorer, offset Score) *WeightedScorer {
	return &WeightedScorer{Scorer: inner, offset: offset}
}

func (s *WeightedScorer) Score() Score {
	return s.Scorer.Score() + s.offset
}
