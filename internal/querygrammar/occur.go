package querygrammar

import "fmt"

// Occur is the modifier attached to a clause of a boolean query.
type Occur int

const (
	// Must marks a clause that a document is required to match.
	Must Occur = iota + 1
	// Should marks an optional clause; it contributes to the score when it
	// matches.
	Should
	// MustNot excludes every document matching the clause.
	MustNot
)

// String returns the symbol used in query syntax: "+", "" or "-".
func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case Should:
		return ""
	case MustNot:
		return "-"
	}
	panic(fmt.Sprintf("querygrammar: invalid occur %d", int(o)))
}

// Name returns a readable label for logs.
func (o Occur) Name() string {
	switch o {
	case Must:
		return "must"
	case Should:
		return "should"
	case MustNot:
		return "must_not"
	}
	return fmt.Sprintf("occur(%d)", int(o))
}

// Combine returns the occurrence of a clause nested as `inner` under a
// parent clause with occurrence o.
//
//	Should  x inner = inner
//	Must    x inner = MustNot if inner is MustNot, else Must
//	MustNot x inner = Must if inner is MustNot, else MustNot
func (o Occur) Combine(inner Occur) Occur {
	switch o {
	case Should:
		return inner
	case Must:
		if inner == MustNot {
			return MustNot
		}
		return Must
	case MustNot:
		if inner == MustNot {
			return Must
		}
		return MustNot
	}
	panic(fmt.Sprintf("querygrammar: invalid occur %d", int(o)))
}
