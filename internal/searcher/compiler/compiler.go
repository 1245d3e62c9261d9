// Package compiler lowers a parsed UserInputAST into an executable
// query.Query tree.
//
// Literals are analysed with the same analyzer the segment writer uses: one
// token becomes a TermQuery, several tokens a conjunction of TermQuery. A
// literal without a field is searched in every default field. Literals
// matching a boost rule are wrapped in a WeightedQuery.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/boost"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/query"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithDefaultFields sets the fields searched by literals without a field.
func WithDefaultFields(fields ...string) Option {
	return func(c *Compiler) {
		c.defaultFields = fields
	}
}

// WithEmptyQueryMatchAll makes the empty clause match every document. By
// default it matches nothing.
func WithEmptyQueryMatchAll(matchAll bool) Option {
	return func(c *Compiler) {
		c.emptyMatchAll = matchAll
	}
}

// WithBoostRules installs manual boost rules.
func WithBoostRules(rules boost.Rules) Option {
	return func(c *Compiler) {
		c.rules = rules
	}
}

// WithExplainOffsets makes boosted literals show their offset in
// explanations.
func WithExplainOffsets(enabled bool) Option {
	return func(c *Compiler) {
		c.explainOffsets = enabled
	}
}

// Compiler turns ASTs into queries for one schema. It is immutable and safe
// for concurrent use.
type Compiler struct {
	schema         index.Schema
	defaultFields  []string
	emptyMatchAll  bool
	rules          boost.Rules
	explainOffsets bool
	logger         *slog.Logger
}

// New returns a compiler for schema. Without WithDefaultFields every schema
// field is a default field.
func New(schema index.Schema, opts ...Option) *Compiler {
	c := &Compiler{
		schema: schema,
		logger: slog.Default().With("component", "query-compiler"),
	}
	for _, f := range schema {
		c.defaultFields = append(c.defaultFields, f.Name)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile lowers ast. Unknown fields fail with ErrFieldNotIndexed; a range
// without a field fails with ErrInvalidArgument.
func (c *Compiler) Compile(ast querygrammar.UserInputAST) (query.Query, error) {
	q, err := c.compile(ast)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("query compiled", "ast", ast.String(), "query", fmt.Sprint(q))
	return q, nil
}

func (c *Compiler) compile(ast querygrammar.UserInputAST) (query.Query, error) {
	switch node := ast.(type) {
	case *querygrammar.Clause:
		return c.compileClause(node)
	case *querygrammar.Unary:
		sub, err := c.compile(node.Node)
		if err != nil {
			return nil, err
		}
		return query.NewBooleanQuery(query.BooleanClause{Occur: node.Occur, Query: sub}), nil
	case *querygrammar.Leaf:
		return c.compileLeaf(node.Leaf)
	default:
		return nil, apperrors.Newf(apperrors.ErrInternal, "unknown ast node %T", ast)
	}
}

func (c *Compiler) compileClause(clause *querygrammar.Clause) (query.Query, error) {
	if clause.IsEmpty() {
		if c.emptyMatchAll {
			return query.AllQuery{}, nil
		}
		return query.EmptyQuery{}, nil
	}
	clauses := make([]query.BooleanClause, 0, len(clause.Children))
	for _, child := range clause.Children {
		occur := querygrammar.Should
		node := child
		if u, ok := child.(*querygrammar.Unary); ok {
			occur = u.Occur
			node = u.Node
		}
		sub, err := c.compile(node)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, query.BooleanClause{Occur: occur, Query: sub})
	}
	return query.NewBooleanQuery(clauses...), nil
}

func (c *Compiler) compileLeaf(leaf querygrammar.UserInputLeaf) (query.Query, error) {
	switch l := leaf.(type) {
	case *querygrammar.UserInputLiteral:
		return c.compileLiteral(l)
	case *querygrammar.All:
		return query.AllQuery{}, nil
	case *querygrammar.Range:
		return c.compileRange(l)
	default:
		return nil, apperrors.Newf(apperrors.ErrInternal, "unknown leaf %T", leaf)
	}
}

func (c *Compiler) compileLiteral(lit *querygrammar.UserInputLiteral) (query.Query, error) {
	if lit.Field != nil {
		return c.fieldLiteral(lit.Field.Name, lit.Phrase)
	}
	if len(c.defaultFields) == 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "literal %q has no field and no default fields are configured", lit.Phrase)
	}
	clauses := make([]query.BooleanClause, 0, len(c.defaultFields))
	for _, field := range c.defaultFields {
		q, err := c.fieldLiteral(field, lit.Phrase)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, query.BooleanClause{Occur: querygrammar.Should, Query: q})
	}
	if len(clauses) == 1 {
		return clauses[0].Query, nil
	}
	return query.NewBooleanQuery(clauses...), nil
}

func (c *Compiler) fieldLiteral(field, phrase string) (query.Query, error) {
	if _, ok := c.schema.Field(field); !ok {
		return nil, apperrors.Newf(apperrors.ErrFieldNotIndexed, "field %q", field)
	}
	terms := index.AnalyzeField(c.schema, field, phrase)
	var q query.Query
	switch len(terms) {
	case 0:
		q = query.EmptyQuery{}
	case 1:
		q = query.NewTermQuery(index.NewTerm(field, terms[0]))
	default:
		clauses := make([]query.BooleanClause, len(terms))
		for i, text := range terms {
			clauses[i] = query.BooleanClause{Occur: querygrammar.Must, Query: query.NewTermQuery(index.NewTerm(field, text))}
		}
		q = query.NewBooleanQuery(clauses...)
	}
	if rule, ok := c.rules.Match(field, phrase); ok {
		var opts []query.WeightedOption
		if c.explainOffsets {
			opts = append(opts, query.WithOffsetInExplanation())
		}
		q = query.NewWeightedQuery(q, rule.Offset, opts...)
	}
	return q, nil
}

func (c *Compiler) compileRange(r *querygrammar.Range) (query.Query, error) {
	if r.Field == nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "range %s requires a field", r)
	}
	if _, ok := c.schema.Field(r.Field.Name); !ok {
		return nil, apperrors.Newf(apperrors.ErrFieldNotIndexed, "field %q", r.Field.Name)
	}
	return query.NewRangeQuery(r.Field.Name, toBound(r.Lower), toBound(r.Upper)), nil
}

func toBound(b querygrammar.UserInputBound) index.Bound {
	switch b.Kind {
	case querygrammar.BoundInclusive:
		return index.Bound{Value: tokenizer.Normalize(b.Value), Inclusive: true}
	case querygrammar.BoundExclusive:
		return index.Bound{Value: tokenizer.Normalize(b.Value)}
	default:
		return index.Bound{Open: true}
	}
}
