package query

import (
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// AllQuery matches every document with score 1.
type AllQuery struct{}

func (AllQuery) String() string { return "All" }

func (AllQuery) Weight(*index.Searcher, bool) (Weight, error) {
	return allWeight{}, nil
}

func (AllQuery) QueryTerms(index.TermSet) {}

type allWeight struct{}

func (allWeight) Scorer(reader *index.SegmentReader) (Scorer, error) {
	return NewAllScorer(reader.MaxDoc()), nil
}

func (allWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	if doc >= reader.MaxDoc() {
		return nil, docNotMatched(reader, doc)
	}
	return NewExplanation("AllQuery", 1), nil
}

func (allWeight) Count(reader *index.SegmentReader) (uint32, error) {
	return reader.NumDocs(), nil
}

// EmptyQuery matches nothing.
type EmptyQuery struct{}

func (EmptyQuery) String() string { return "Empty" }

func (EmptyQuery) Weight(*index.Searcher, bool) (Weight, error) {
	return emptyWeight{}, nil
}

func (EmptyQuery) QueryTerms(index.TermSet) {}

type emptyWeight struct{}

func (emptyWeight) Scorer(*index.SegmentReader) (Scorer, error) {
	return EmptyScorer{}, nil
}

func (emptyWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	return nil, docNotMatched(reader, doc)
}

func (emptyWeight) Count(*index.SegmentReader) (uint32, error) {
	return 0, nil
}
