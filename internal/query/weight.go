package query

import (
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// Weight is a Query bound to the statistics of one search. It builds the
// per-segment scorers.
//
// Scorer fails with an error wrapping ErrIndexCorrupted or
// ErrMissingTermDictionary when the segment cannot answer the query.
// Explain fails with ErrDocNotMatched when doc does not match. Count must
// exclude deleted documents; CountWeight is the reference implementation.
type Weight interface {
	Scorer(reader *index.SegmentReader) (Scorer, error)
	Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error)
	Count(reader *index.SegmentReader) (uint32, error)
}

// Query is the segment-independent, immutable description of a search.
// Queries may be shared by concurrent searches.
type Query interface {
	// Weight compiles the query against searcher. With scoringEnabled
	// false the resulting scorers need not produce meaningful scores.
	Weight(searcher *index.Searcher, scoringEnabled bool) (Weight, error)
	// QueryTerms adds every term the query needs resolved to terms.
	QueryTerms(terms index.TermSet)
}

// CountWeight counts the documents w matches in reader by exhausting its
// scorer, skipping deleted documents when the segment has any.
func CountWeight(w Weight, reader *index.SegmentReader) (uint32, error) {
	s, err := w.Scorer(reader)
	if err != nil {
		return 0, err
	}
	if deletes := reader.DeleteBitSet(); deletes != nil {
		return Count(s, deletes), nil
	}
	return CountIncludingDeleted(s), nil
}

// matchingScorer returns a scorer of w positioned on doc, or
// ErrDocNotMatched.
func matchingScorer(w Weight, reader *index.SegmentReader, doc index.DocID) (Scorer, error) {
	s, err := w.Scorer(reader)
	if err != nil {
		return nil, err
	}
	if s.SkipNext(doc) != SkipReached {
		return nil, docNotMatched(reader, doc)
	}
	return s, nil
}

func docNotMatched(reader *index.SegmentReader, doc index.DocID) error {
	return apperrors.Newf(apperrors.ErrDocNotMatched, "doc %d in segment %s", doc, reader.ID())
}
