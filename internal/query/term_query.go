package query

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// TermQuery matches the documents containing one term, scored with BM25.
type TermQuery struct {
	term index.Term
}

// NewTermQuery returns a query for term.
func NewTermQuery(term index.Term) *TermQuery {
	return &TermQuery{term: term}
}

// Term returns the queried term.
func (q *TermQuery) Term() index.Term {
	return q.term
}

func (q *TermQuery) String() string {
	return fmt.Sprintf("Term(%s)", q.term)
}

func (q *TermQuery) Weight(searcher *index.Searcher, scoringEnabled bool) (Weight, error) {
	if _, ok := searcher.Schema().Field(q.term.Field); !ok {
		return nil, apperrors.Newf(apperrors.ErrFieldNotIndexed, "term query on field %q", q.term.Field)
	}
	w := &TermWeight{term: q.term}
	if scoringEnabled {
		w.bm25 = NewBM25Weight(
			searcher.DocFreq(q.term),
			searcher.MaxDocs(),
			searcher.AvgFieldNorm(q.term.Field),
		)
	}
	return w, nil
}

func (q *TermQuery) QueryTerms(terms index.TermSet) {
	terms.Add(q.term)
}

// TermWeight is the per-search weight of a TermQuery. A nil bm25 means
// scoring is disabled and every match scores 1.
type TermWeight struct {
	term index.Term
	bm25 *BM25Weight
}

func (w *TermWeight) Scorer(reader *index.SegmentReader) (Scorer, error) {
	s, err := w.termScorer(reader)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return EmptyScorer{}, nil
	}
	return s, nil
}

func (w *TermWeight) termScorer(reader *index.SegmentReader) (*TermScorer, error) {
	ii, err := reader.InvertedIndex(w.term.Field)
	if err != nil {
		return nil, err
	}
	p, ok := ii.Postings(w.term.Text)
	if !ok {
		return nil, nil
	}
	return &TermScorer{
		SegmentPostings: NewSegmentPostings(p),
		norms:           ii,
		bm25:            w.bm25,
	}, nil
}

func (w *TermWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	s, err := w.termScorer(reader)
	if err != nil {
		return nil, err
	}
	if s == nil || s.SkipNext(doc) != SkipReached {
		return nil, docNotMatched(reader, doc)
	}
	if w.bm25 == nil {
		return NewExplanation(fmt.Sprintf("%s, scoring disabled", w.term), 1), nil
	}
	e := w.bm25.Explain(s.Freq(), s.norms.FieldNorm(doc))
	e.Description = fmt.Sprintf("%s, product of...", w.term)
	return e, nil
}

// Count reads the document frequency directly when the segment has no
// deletions.
func (w *TermWeight) Count(reader *index.SegmentReader) (uint32, error) {
	if reader.DeleteBitSet() != nil {
		return CountWeight(w, reader)
	}
	ii, err := reader.InvertedIndex(w.term.Field)
	if err != nil {
		return 0, err
	}
	return ii.DocFreq(w.term.Text), nil
}

// TermScorer scores the postings of one term.
type TermScorer struct {
	*SegmentPostings
	norms *index.InvertedIndexReader
	bm25  *BM25Weight
}

func (s *TermScorer) Score() Score {
	if s.bm25 == nil {
		return 1
	}
	return s.bm25.Score(s.Freq(), s.norms.FieldNorm(s.Doc()))
}
