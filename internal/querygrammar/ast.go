// Package querygrammar holds the in-memory representation of parsed user
// query syntax: boolean clauses carrying per-clause occurrence modifiers,
// field-scoped literals, the match-all leaf and range leaves with
// inclusive, exclusive or unbounded endpoints.
//
// UserInputAST and UserInputLeaf are sealed: only the types declared here
// implement them, so compilers can lower a tree with an exhaustive type
// switch:
//
//	switch n := ast.(type) {
//	case *Clause:
//	case *Unary:
//	case *Leaf:
//	}
//
// String renders every node in a canonical form meant for logs and
// diagnostics. It is not an input format for Parse.
package querygrammar

import (
	"fmt"
	"strings"
)

// UserInputAST is a node of a parsed query.
type UserInputAST interface {
	fmt.Stringer
	astNode()
}

// Clause is an ordered group of sub-nodes, each carrying its own
// occurrence. An empty Clause is the empty query.
type Clause struct {
	Children []UserInputAST
}

// Unary attaches an occurrence modifier to a sub-tree.
type Unary struct {
	Occur Occur
	Node  UserInputAST
}

// Leaf wraps a terminal match condition.
type Leaf struct {
	Leaf UserInputLeaf
}

func (*Clause) astNode() {}
func (*Unary) astNode()  {}
func (*Leaf) astNode()   {}

func (c *Clause) String() string {
	if len(c.Children) == 0 {
		return "<emptyclause>"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, child := range c.Children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(child.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (u *Unary) String() string {
	return fmt.Sprintf("%s(%s)", u.Occur, u.Node)
}

func (l *Leaf) String() string {
	return l.Leaf.String()
}

// IsEmpty reports whether c is the empty query.
func (c *Clause) IsEmpty() bool {
	return len(c.Children) == 0
}

// NewLeaf wraps leaf into an AST node.
func NewLeaf(leaf UserInputLeaf) *Leaf {
	return &Leaf{Leaf: leaf}
}

// WithOccur attaches occur to ast.
func WithOccur(ast UserInputAST, occur Occur) *Unary {
	return &Unary{Occur: occur, Node: ast}
}

// EmptyQuery returns the trivial query: a clause without children. What it
// matches is decided by the compiler.
func EmptyQuery() *Clause {
	return &Clause{}
}

// Compose folds sibling nodes under a single occurrence. A one-element list
// is returned as is, without a wrapper; longer lists become a Clause whose
// members are each wrapped in a Unary carrying occur.
//
// Compose panics when asts is empty or occur is MustNot: both are
// construction bugs, and returning a tree anyway would silently change what
// the query matches.
func Compose(occur Occur, asts []UserInputAST) UserInputAST {
	if occur == MustNot {
		panic("querygrammar: cannot compose nodes under MustNot")
	}
	if len(asts) == 0 {
		panic("querygrammar: cannot compose an empty list of nodes")
	}
	if len(asts) == 1 {
		return asts[0]
	}
	children := make([]UserInputAST, len(asts))
	for i, ast := range asts {
		children[i] = WithOccur(ast, occur)
	}
	return &Clause{Children: children}
}

// And folds asts under Must.
func And(asts []UserInputAST) UserInputAST {
	return Compose(Must, asts)
}

// Or folds asts under Should.
func Or(asts []UserInputAST) UserInputAST {
	return Compose(Should, asts)
}

// Walk visits ast depth-first, parents before children. Returning false from
// fn skips the children of the current node.
func Walk(ast UserInputAST, fn func(UserInputAST) bool) {
	if !fn(ast) {
		return
	}
	switch n := ast.(type) {
	case *Clause:
		for _, child := range n.Children {
			Walk(child, fn)
		}
	case *Unary:
		Walk(n.Node, fn)
	}
}

// Leaves returns every leaf of ast in depth-first order.
func Leaves(ast UserInputAST) []UserInputLeaf {
	var leaves []UserInputLeaf
	Walk(ast, func(n UserInputAST) bool {
		if leaf, ok := n.(*Leaf); ok {
			leaves = append(leaves, leaf.Leaf)
		}
		return true
	})
	return leaves
}
