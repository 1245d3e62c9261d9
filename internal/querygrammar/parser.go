package querygrammar

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode is the occurrence given to clauses that carry no explicit prefix.
type Mode int

const (
	ModeAND Mode = iota
	ModeOR
)

// Parser turns keyword queries into a UserInputAST. It understands bare
// words, "quoted phrases", field:value, field:[lo TO hi] ranges (with {}
// for exclusive ends and * for open ends), the * match-all leaf, +/- and NOT
// prefixes, and AND/OR keywords switching the default mode for the whole
// query.
//
// Parser stands in for the full query grammar; it only needs to produce
// well-formed trees.
type Parser struct {
	fields map[string]UserInputField
}

// NewParser returns a Parser that recognises the given fields. With no
// fields, any name before a colon is accepted with rank 0.
func NewParser(fields ...UserInputField) *Parser {
	p := &Parser{fields: make(map[string]UserInputField, len(fields))}
	for _, f := range fields {
		p.fields[f.Name] = f
	}
	return p
}

// Parse is NewParser().Parse.
func Parse(query string) (UserInputAST, error) {
	return NewParser().Parse(query)
}

type parsedClause struct {
	occur    Occur
	explicit bool
	node     UserInputAST
}

// Parse builds the AST for query. Clauses without a prefix are folded with
// And or Or according to the mode, which keeps a single bare term a bare
// leaf. As soon as one clause has an explicit prefix the result is a Clause
// of Unary nodes.
func (p *Parser) Parse(query string) (UserInputAST, error) {
	tokens, err := scan(query)
	if err != nil {
		return nil, err
	}
	mode := ModeAND
	var clauses []parsedClause
	negateNext := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !tok.quoted {
			switch strings.ToUpper(tok.text) {
			case "AND":
				mode = ModeAND
				continue
			case "OR":
				mode = ModeOR
				continue
			case "NOT":
				negateNext = true
				continue
			}
		}
		pc := parsedClause{}
		text := tok.text
		if !tok.quoted && len(text) > 1 && (text[0] == '+' || text[0] == '-') {
			pc.explicit = true
			pc.occur = Must
			if text[0] == '-' {
				pc.occur = MustNot
			}
			text = text[1:]
		}
		if negateNext {
			pc.explicit = true
			pc.occur = MustNot
			negateNext = false
		}
		node, err := p.parseTerm(token{text: text, quoted: tok.quoted})
		if err != nil {
			return nil, err
		}
		pc.node = node
		clauses = append(clauses, pc)
	}
	if negateNext {
		return nil, fmt.Errorf("dangling NOT at end of query %q", query)
	}
	return build(clauses, mode), nil
}

func build(clauses []parsedClause, mode Mode) UserInputAST {
	if len(clauses) == 0 {
		return EmptyQuery()
	}
	defaultOccur := Must
	if mode == ModeOR {
		defaultOccur = Should
	}
	anyExplicit := false
	for _, c := range clauses {
		if c.explicit {
			anyExplicit = true
			break
		}
	}
	if !anyExplicit {
		nodes := make([]UserInputAST, len(clauses))
		for i, c := range clauses {
			nodes[i] = c.node
		}
		return Compose(defaultOccur, nodes)
	}
	children := make([]UserInputAST, len(clauses))
	for i, c := range clauses {
		occur := defaultOccur
		if c.explicit {
			occur = c.occur
		}
		children[i] = WithOccur(c.node, occur)
	}
	return &Clause{Children: children}
}

func (p *Parser) parseTerm(tok token) (UserInputAST, error) {
	if tok.quoted {
		return NewLiteral(nil, tok.text), nil
	}
	if tok.text == "*" {
		return NewAll(), nil
	}
	var field *UserInputField
	value := tok.text
	valueQuoted := false
	if idx := strings.IndexByte(tok.text, ':'); idx > 0 {
		if f, ok := p.resolveField(tok.text[:idx]); ok {
			field = &f
			value = tok.text[idx+1:]
		}
	}
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
		valueQuoted = true
	}
	if !valueQuoted && value != "" && (value[0] == '[' || value[0] == '{') {
		return parseRange(field, value)
	}
	return NewLiteral(field, value), nil
}

func (p *Parser) resolveField(name string) (UserInputField, bool) {
	if len(p.fields) == 0 {
		return UserInputField{Name: name}, true
	}
	f, ok := p.fields[name]
	return f, ok
}

func parseRange(field *UserInputField, text string) (UserInputAST, error) {
	closing := text[len(text)-1]
	if closing != ']' && closing != '}' {
		return nil, fmt.Errorf("unterminated range %q", text)
	}
	parts := strings.Fields(text[1 : len(text)-1])
	if len(parts) != 3 || parts[1] != "TO" {
		return nil, fmt.Errorf("malformed range %q: expected [lower TO upper]", text)
	}
	lower := rangeBound(parts[0], text[0] == '[')
	upper := rangeBound(parts[2], closing == ']')
	return NewRange(field, lower, upper), nil
}

func rangeBound(word string, inclusive bool) UserInputBound {
	if word == "*" {
		return Unbounded()
	}
	word = strings.Trim(word, `"`)
	if inclusive {
		return Inclusive(word)
	}
	return Exclusive(word)
}

type token struct {
	text   string
	quoted bool
}

// scan splits query on whitespace, keeping "quoted phrases" and bracketed
// ranges together.
func scan(query string) ([]token, error) {
	var tokens []token
	runes := []rune(query)
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		if runes[i] == '"' {
			end := indexRune(runes, i+1, '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated phrase in %q", query)
			}
			tokens = append(tokens, token{text: string(runes[i+1 : end]), quoted: true})
			i = end + 1
			continue
		}
		start := i
		depth := 0
		inQuote := false
		for i < len(runes) {
			r := runes[i]
			if r == '"' {
				inQuote = !inQuote
			} else if !inQuote {
				if r == '[' || r == '{' {
					depth++
				} else if r == ']' || r == '}' {
					depth--
				} else if depth == 0 && unicode.IsSpace(r) {
					break
				}
			}
			i++
		}
		if depth > 0 || inQuote {
			return nil, fmt.Errorf("unterminated term %q in %q", string(runes[start:]), query)
		}
		tokens = append(tokens, token{text: string(runes[start:i])})
	}
	return tokens, nil
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
