package index

import (
	"fmt"
	"sort"
)

// Term is one dictionary entry of one field.
type Term struct {
	Field string
	Text  string
}

// NewTerm returns the term text in field.
func NewTerm(field, text string) Term {
	return Term{Field: field, Text: text}
}

func (t Term) String() string {
	return fmt.Sprintf("%s:%s", t.Field, t.Text)
}

// Less orders terms by field, then text.
func (t Term) Less(other Term) bool {
	if t.Field != other.Field {
		return t.Field < other.Field
	}
	return t.Text < other.Text
}

// TermSet collects the distinct terms a query needs resolved.
type TermSet map[Term]struct{}

// Add inserts term.
func (s TermSet) Add(term Term) {
	s[term] = struct{}{}
}

// Contains reports whether term is in the set.
func (s TermSet) Contains(term Term) bool {
	_, ok := s[term]
	return ok
}

// Sorted returns the terms in Term.Less order.
func (s TermSet) Sorted() []Term {
	terms := make([]Term, 0, len(s))
	for term := range s {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].Less(terms[j])
	})
	return terms
}
