// Package boost holds manual ranking rules: a literal that matches a rule's
// field and phrase has the rule's score offset added to every document it
// matches. Rules are loaded from a SQL table.
package boost

import (
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index/tokenizer"
)

// Rule boosts the literal Phrase in Field. An empty Field matches the phrase
// in any field. When several rules match the same literal the one with the
// highest Rank wins.
type Rule struct {
	Field  string  `json:"field"`
	Phrase string  `json:"phrase"`
	Rank   uint32  `json:"rank"`
	Offset float64 `json:"score_offset"`
}

// Rules is a set of boost rules.
type Rules []Rule

// Match returns the winning rule for phrase in field. Phrases compare after
// case folding. Among rules of equal rank the first one listed wins.
func (rs Rules) Match(field, phrase string) (Rule, bool) {
	want := tokenizer.Normalize(phrase)
	var (
		best  Rule
		found bool
	)
	for _, r := range rs {
		if r.Field != "" && r.Field != field {
			continue
		}
		if tokenizer.Normalize(r.Phrase) != want {
			continue
		}
		if !found || r.Rank > best.Rank {
			best = r
			found = true
		}
	}
	return best, found
}
