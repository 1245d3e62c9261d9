package querygrammar

import (
	"fmt"
	"strings"
)

// UserInputLeaf is a terminal match condition.
type UserInputLeaf interface {
	fmt.Stringer
	leafNode()
}

// UserInputField identifies a field by name plus a rank that orders fields
// sharing a name or needing priority.
type UserInputField struct {
	Name string
	Rank uint32
}

func (f UserInputField) String() string {
	return fmt.Sprintf("%s#%d", f.Name, f.Rank)
}

// UserInputLiteral matches an exact term or phrase, within Field when set
// and against the default fields otherwise.
type UserInputLiteral struct {
	Field  *UserInputField
	Phrase string
}

// All matches every document.
type All struct{}

// Range matches values between Lower and Upper in Field.
type Range struct {
	Field *UserInputField
	Lower UserInputBound
	Upper UserInputBound
}

func (*UserInputLiteral) leafNode() {}
func (*All) leafNode()              {}
func (*Range) leafNode()            {}

func (l *UserInputLiteral) String() string {
	if l.Field != nil {
		return l.Field.String() + ":" + quote(l.Phrase)
	}
	return quote(l.Phrase)
}

// quote wraps text in double quotes without escaping its content.
func quote(text string) string {
	return `"` + text + `"`
}

func (*All) String() string {
	return "*"
}

func (r *Range) String() string {
	var sb strings.Builder
	if r.Field != nil {
		sb.WriteString(r.Field.String())
		sb.WriteByte(':')
	}
	sb.WriteString(r.Lower.lowerString())
	sb.WriteString(" TO ")
	sb.WriteString(r.Upper.upperString())
	return sb.String()
}

// NewLiteral builds a literal leaf node. field may be nil.
func NewLiteral(field *UserInputField, phrase string) *Leaf {
	return NewLeaf(&UserInputLiteral{Field: field, Phrase: phrase})
}

// NewRange builds a range leaf node. field may be nil.
func NewRange(field *UserInputField, lower, upper UserInputBound) *Leaf {
	return NewLeaf(&Range{Field: field, Lower: lower, Upper: upper})
}

// NewAll builds the match-all leaf node.
func NewAll() *Leaf {
	return NewLeaf(&All{})
}

// BoundKind tells how one side of a range constrains values.
type BoundKind int

const (
	BoundUnbounded BoundKind = iota
	BoundInclusive
	BoundExclusive
)

// UserInputBound is one side of a range. The zero value is Unbounded.
type UserInputBound struct {
	Kind  BoundKind
	Value string
}

// Inclusive returns a bound that admits value itself.
func Inclusive(value string) UserInputBound {
	return UserInputBound{Kind: BoundInclusive, Value: value}
}

// Exclusive returns a bound that stops just short of value.
func Exclusive(value string) UserInputBound {
	return UserInputBound{Kind: BoundExclusive, Value: value}
}

// Unbounded returns a bound without a value constraint.
func Unbounded() UserInputBound {
	return UserInputBound{Kind: BoundUnbounded}
}

// IsUnbounded reports whether b places no constraint. Unbounded renders as
// "*" but differs from Inclusive("*").
func (b UserInputBound) IsUnbounded() bool {
	return b.Kind == BoundUnbounded
}

// TermStr returns the raw bound text, "*" for Unbounded.
func (b UserInputBound) TermStr() string {
	if b.Kind == BoundUnbounded {
		return "*"
	}
	return b.Value
}

func (b UserInputBound) lowerString() string {
	switch b.Kind {
	case BoundInclusive:
		return "[" + quote(b.Value)
	case BoundExclusive:
		return "{" + quote(b.Value)
	default:
		return `{"*"`
	}
}

func (b UserInputBound) upperString() string {
	switch b.Kind {
	case BoundInclusive:
		return quote(b.Value) + "]"
	case BoundExclusive:
		return quote(b.Value) + "}"
	default:
		return `"*"}`
	}
}
