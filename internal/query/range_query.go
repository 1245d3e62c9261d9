package query

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// RangeQuery matches the documents containing any dictionary term of field
// between lower and upper. Every match scores 1.
type RangeQuery struct {
	field string
	lower index.Bound
	upper index.Bound
}

// NewRangeQuery returns a range query over field.
func NewRangeQuery(field string, lower, upper index.Bound) *RangeQuery {
	return &RangeQuery{field: field, lower: lower, upper: upper}
}

func (q *RangeQuery) String() string {
	return fmt.Sprintf("Range(%s:%s TO %s)", q.field, lowerString(q.lower), upperString(q.upper))
}

func lowerString(bound index.Bound) string {
	switch {
	case bound.Open:
		return "{*"
	case bound.Inclusive:
		return "[" + bound.Value
	default:
		return "{" + bound.Value
	}
}

func upperString(bound index.Bound) string {
	switch {
	case bound.Open:
		return "*}"
	case bound.Inclusive:
		return bound.Value + "]"
	default:
		return bound.Value + "}"
	}
}

func (q *RangeQuery) Weight(searcher *index.Searcher, _ bool) (Weight, error) {
	if _, ok := searcher.Schema().Field(q.field); !ok {
		return nil, apperrors.Newf(apperrors.ErrFieldNotIndexed, "range query on field %q", q.field)
	}
	return &rangeWeight{query: q}, nil
}

// QueryTerms adds nothing: the matching terms depend on each segment's
// dictionary.
func (q *RangeQuery) QueryTerms(index.TermSet) {}

type rangeWeight struct {
	query *RangeQuery
}

func (w *rangeWeight) docs(reader *index.SegmentReader) (*roaring.Bitmap, error) {
	ii, err := reader.InvertedIndex(w.query.field)
	if err != nil {
		return nil, err
	}
	bitmap := roaring.New()
	for _, text := range ii.TermsInRange(w.query.lower, w.query.upper) {
		if p, ok := ii.Postings(text); ok {
			bitmap.AddMany(p.Docs)
		}
	}
	return bitmap, nil
}

func (w *rangeWeight) Scorer(reader *index.SegmentReader) (Scorer, error) {
	bitmap, err := w.docs(reader)
	if err != nil {
		return nil, err
	}
	return NewConstScorer(NewBitSetDocSet(bitmap), 1), nil
}

func (w *rangeWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	bitmap, err := w.docs(reader)
	if err != nil {
		return nil, err
	}
	if !bitmap.Contains(doc) {
		return nil, docNotMatched(reader, doc)
	}
	return NewExplanation(w.query.String(), 1), nil
}

func (w *rangeWeight) Count(reader *index.SegmentReader) (uint32, error) {
	bitmap, err := w.docs(reader)
	if err != nil {
		return 0, err
	}
	if deletes := reader.DeleteBitSet(); deletes != nil {
		bitmap.AndNot(deletes.Bitmap())
	}
	return uint32(bitmap.GetCardinality()), nil
}
