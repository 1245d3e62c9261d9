package query

import (
	"fmt"
	"strings"
)

// Explanation describes how the score of one document was computed. The
// value of a node is derived from its details according to its description.
type Explanation struct {
	Value       Score          `json:"value"`
	Description string         `json:"description"`
	Details     []*Explanation `json:"details,omitempty"`
}

// NewExplanation returns a leaf explanation node.
func NewExplanation(description string, value Score) *Explanation {
	return &Explanation{Value: value, Description: description}
}

// AddDetail appends a sub-explanation.
func (e *Explanation) AddDetail(child *Explanation) {
	e.Details = append(e.Details, child)
}

// AddConst appends a leaf sub-explanation.
func (e *Explanation) AddConst(description string, value Score) {
	e.AddDetail(NewExplanation(description, value))
}

// Summary renders this node without its details.
func (e *Explanation) Summary() string {
	return fmt.Sprintf("%v = %s", e.Value, e.Description)
}

// String renders the whole tree, one node per line, indented by depth.
func (e *Explanation) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Explanation) write(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
	sb.WriteString(e.Summary())
	sb.WriteByte('\n')
	for _, d := range e.Details {
		d.write(sb, depth+1)
	}
}
