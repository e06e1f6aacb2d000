// Package query implements the where-clause DSL used to select steps:
//
//	where  := clause ("AND" clause)*
//	clause := "exists(" field ")" | field "in" "[" value ("," value)* "]" | field ("=" | "!=") value
//
// Fields come from a fixed whitelist; anything else is a parse error.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

var numberLiteral = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

type parser struct {
	input  string
	tokens []token
	pos    int
}

// ParseWhere parses a where string into clauses. The first malformed clause
// aborts the whole parse.
func ParseWhere(input string) ([]domain.Clause, error) {
	if strings.TrimSpace(input) == "" {
		return nil, domain.NewQueryError(input, "empty where clause")
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}

	var clauses []domain.Clause
	for {
		c, err := p.clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)

		t := p.next()
		if t.kind == tokEOF {
			return clauses, nil
		}
		if t.kind != tokWord || t.text != "AND" {
			return nil, p.errorf(t, "expected AND or end of input, got %s", describe(t))
		}
	}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, got %s", kind, describe(t))
	}
	return t, nil
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &domain.QueryError{Input: p.input, Pos: t.pos, Message: fmt.Sprintf(format, args...)}
}

func describe(t token) string {
	switch t.kind {
	case tokWord:
		return fmt.Sprintf("%q", t.text)
	case tokString:
		return fmt.Sprintf("quoted string %q", t.text)
	default:
		return t.kind.String()
	}
}

func (p *parser) clause() (domain.Clause, error) {
	t := p.peek()
	if t.kind == tokWord && t.text == "exists" && p.tokens[p.pos+1].kind == tokLParen {
		p.pos += 2
		field, err := p.field()
		if err != nil {
			return domain.Clause{}, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return domain.Clause{}, err
		}
		return domain.Clause{Field: field, Op: domain.OpExists}, nil
	}

	field, err := p.field()
	if err != nil {
		return domain.Clause{}, err
	}

	op := p.next()
	switch {
	case op.kind == tokEq || op.kind == tokNeq:
		v, err := p.value()
		if err != nil {
			return domain.Clause{}, err
		}
		kind := domain.OpEquals
		if op.kind == tokNeq {
			kind = domain.OpNotEquals
		}
		return domain.Clause{Field: field, Op: kind, Values: []domain.Value{v}}, nil
	case op.kind == tokWord && op.text == "in":
		if _, err := p.expect(tokLBracket); err != nil {
			return domain.Clause{}, err
		}
		var values []domain.Value
		for {
			v, err := p.value()
			if err != nil {
				return domain.Clause{}, err
			}
			values = append(values, v)
			t := p.next()
			if t.kind == tokRBracket {
				break
			}
			if t.kind != tokComma {
				return domain.Clause{}, p.errorf(t, "expected ',' or ']', got %s", describe(t))
			}
		}
		return domain.Clause{Field: field, Op: domain.OpIn, Values: values}, nil
	default:
		return domain.Clause{}, p.errorf(op, "expected '=', '!=' or 'in' after %s, got %s", field, describe(op))
	}
}

func (p *parser) field() (string, error) {
	t := p.next()
	if t.kind != tokWord {
		return "", p.errorf(t, "expected field name, got %s", describe(t))
	}
	if _, ok := LookupField(t.text); !ok {
		return "", p.errorf(t, "unknown field %q", t.text)
	}
	return t.text, nil
}

func (p *parser) value() (domain.Value, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return domain.StringValue(t.text), nil
	case tokWord:
		return coerceBare(t.text), nil
	default:
		return domain.Value{}, p.errorf(t, "expected value, got %s", describe(t))
	}
}

// coerceBare types an unquoted literal: numbers and true/false become
// numbers and booleans, anything else stays a string.
func coerceBare(s string) domain.Value {
	switch s {
	case "true":
		return domain.BoolValue(true)
	case "false":
		return domain.BoolValue(false)
	}
	if numberLiteral.MatchString(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return domain.NumberValue(n)
		}
	}
	return domain.StringValue(s)
}

// ParseValue parses a single literal using the where-string value rules.
// A fully quoted literal stays a string.
func ParseValue(raw string) (domain.Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.StringValue(""), nil
	}
	if raw[0] == '"' || raw[0] == '\'' {
		text, next, err := lexQuoted([]rune(raw), 0)
		if err != nil {
			return domain.Value{}, domain.NewQueryError(raw, err.Error())
		}
		if next != len([]rune(raw)) {
			return domain.Value{}, domain.NewQueryError(raw, "unexpected text after quoted value")
		}
		return domain.StringValue(text), nil
	}
	return coerceBare(raw), nil
}
