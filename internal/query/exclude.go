package query

import (
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// Exclude matches the docs of a scorer that are absent from an excluding
// scorer. Scores come from the underlying scorer alone.
type Exclude struct {
	Scorer
	excluded *cursor
}

// NewExclude returns underlying minus excluded.
func NewExclude(underlying, excluded Scorer) *Exclude {
	return &Exclude{Scorer: underlying, excluded: newCursor(excluded)}
}

func (e *Exclude) isExcluded(doc index.DocID) bool {
	return e.excluded.seek(doc) == SkipReached
}

func (e *Exclude) Advance() bool {
	for e.Scorer.Advance() {
		if !e.isExcluded(e.Scorer.Doc()) {
			return true
		}
	}
	return false
}

func (e *Exclude) SkipNext(target index.DocID) SkipResult {
	r := e.Scorer.SkipNext(target)
	if r == SkipEnd {
		return SkipEnd
	}
	if !e.isExcluded(e.Scorer.Doc()) {
		return r
	}
	if e.Advance() {
		return SkipOverStep
	}
	return SkipEnd
}

// RequiredOptional matches the docs of a required scorer and adds the score
// of an optional scorer when it matches the same doc.
type RequiredOptional struct {
	Scorer
	optional *cursor
}

// NewRequiredOptional returns a scorer driven by required.
func NewRequiredOptional(required, optional Scorer) *RequiredOptional {
	return &RequiredOptional{Scorer: required, optional: newCursor(optional)}
}

func (r *RequiredOptional) Score() Score {
	score := r.Scorer.Score()
	if r.optional.seek(r.Scorer.Doc()) == SkipReached {
		score += r.optional.s.Score()
	}
	return score
}
