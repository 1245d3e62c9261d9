package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// Occur is the role of a clause in a BooleanQuery.
type Occur = querygrammar.Occur

const (
	Must    = querygrammar.Must
	Should  = querygrammar.Should
	MustNot = querygrammar.MustNot
)

// BooleanClause is one sub-query with its occurrence.
type BooleanClause struct {
	Occur Occur
	Query Query
}

// BooleanQuery combines sub-queries. A document matches when it matches every
// Must clause, no MustNot clause, and, if there is no Must clause, at least
// one Should clause. A query with only MustNot clauses matches nothing. The
// score is the sum of the scores of the matching Must and Should clauses.
type BooleanQuery struct {
	clauses []BooleanClause
}

// NewBooleanQuery returns a boolean query over clauses.
func NewBooleanQuery(clauses ...BooleanClause) *BooleanQuery {
	return &BooleanQuery{clauses: clauses}
}

// Clauses returns the clauses in order.
func (q *BooleanQuery) Clauses() []BooleanClause {
	return q.clauses
}

func (q *BooleanQuery) String() string {
	parts := make([]string, len(q.clauses))
	for i, c := range q.clauses {
		parts[i] = fmt.Sprintf("%s(%v)", c.Occur, c.Query)
	}
	return "Boolean(" + strings.Join(parts, " ") + ")"
}

func (q *BooleanQuery) Weight(searcher *index.Searcher, scoringEnabled bool) (Weight, error) {
	w := &BooleanWeight{
		clauses:        make([]weightClause, 0, len(q.clauses)),
		scoringEnabled: scoringEnabled,
	}
	for i, c := range q.clauses {
		cw, err := c.Query.Weight(searcher, scoringEnabled)
		if err != nil {
			return nil, fmt.Errorf("boolean clause %d: %w", i, err)
		}
		w.clauses = append(w.clauses, weightClause{occur: c.Occur, weight: cw})
	}
	return w, nil
}

func (q *BooleanQuery) QueryTerms(terms index.TermSet) {
	for _, c := range q.clauses {
		c.Query.QueryTerms(terms)
	}
}

type weightClause struct {
	occur  Occur
	weight Weight
}

// BooleanWeight is the per-search weight of a BooleanQuery.
type BooleanWeight struct {
	clauses        []weightClause
	scoringEnabled bool
}

func (w *BooleanWeight) Scorer(reader *index.SegmentReader) (Scorer, error) {
	var must, should, mustNot []Scorer
	hasMust := false
	for _, c := range w.clauses {
		if c.occur == Must {
			hasMust = true
		}
	}
	for _, c := range w.clauses {
		// Should clauses only affect scores once a Must clause exists.
		if c.occur == Should && hasMust && !w.scoringEnabled {
			continue
		}
		s, err := c.weight.Scorer(reader)
		if err != nil {
			return nil, err
		}
		switch c.occur {
		case Must:
			must = append(must, s)
		case Should:
			should = append(should, s)
		case MustNot:
			mustNot = append(mustNot, s)
		default:
			return nil, apperrors.Newf(apperrors.ErrInternal, "boolean clause with invalid occur %d", int(c.occur))
		}
	}

	var positive Scorer
	switch {
	case len(must) > 0 && len(should) > 0:
		positive = NewRequiredOptional(NewIntersection(must), NewUnion(should))
	case len(must) > 0:
		positive = NewIntersection(must)
	case len(should) > 0:
		positive = NewUnion(should)
	default:
		return EmptyScorer{}, nil
	}
	if len(mustNot) > 0 {
		return NewExclude(positive, NewUnion(mustNot)), nil
	}
	return positive, nil
}

func (w *BooleanWeight) Explain(reader *index.SegmentReader, doc index.DocID) (*Explanation, error) {
	s, err := matchingScorer(w, reader, doc)
	if err != nil {
		return nil, err
	}
	e := NewExplanation("sum of:", s.Score())
	for _, c := range w.clauses {
		if c.occur == MustNot {
			continue
		}
		sub, err := c.weight.Explain(reader, doc)
		if errors.Is(err, apperrors.ErrDocNotMatched) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.AddDetail(sub)
	}
	return e, nil
}

func (w *BooleanWeight) Count(reader *index.SegmentReader) (uint32, error) {
	return CountWeight(w, reader)
}
