package query

import (
	"strings"
	"unicode"

	"github.com/ludo-technologies/linecheck/domain"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokEq
	tokNeq
	tokLBracket
	tokRBracket
	tokComma
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokWord:
		return "word"
	case tokString:
		return "quoted string"
	case tokEq:
		return "'='"
	case tokNeq:
		return "'!='"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokComma:
		return "','"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a where string into tokens. Quoted strings may use single or
// double quotes and backslash escapes; bare words end at whitespace or at
// any punctuation the grammar uses. Token and error positions are byte
// offsets into input.
func lex(input string) ([]token, error) {
	tokens, err := lexRunes(input)
	if err != nil {
		if qe, ok := err.(*domain.QueryError); ok {
			qe.Pos = byteOffset(input, qe.Pos)
		}
		return nil, err
	}
	for i := range tokens {
		tokens[i].pos = byteOffset(input, tokens[i].pos)
	}
	return tokens, nil
}

// byteOffset converts a rune index into input to a byte offset
func byteOffset(input string, runeIdx int) int {
	n := 0
	for off := range input {
		if n == runeIdx {
			return off
		}
		n++
	}
	return len(input)
}

func lexRunes(input string) ([]token, error) {
	runes := []rune(input)
	var tokens []token
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '[':
			tokens = append(tokens, token{tokLBracket, "[", i})
			i++
		case r == ']':
			tokens = append(tokens, token{tokRBracket, "]", i})
			i++
		case r == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case r == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case r == '=':
			tokens = append(tokens, token{tokEq, "=", i})
			i++
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{tokNeq, "!=", i})
				i += 2
				continue
			}
			return nil, &domain.QueryError{Input: input, Pos: i, Message: "unexpected '!'"}
		case r == '"' || r == '\'':
			text, next, err := lexQuoted(runes, i)
			if err != nil {
				return nil, &domain.QueryError{Input: input, Pos: i, Message: err.Error()}
			}
			tokens = append(tokens, token{tokString, text, i})
			i = next
		default:
			start := i
			for i < len(runes) && !isWordBreak(runes, i) {
				i++
			}
			tokens = append(tokens, token{tokWord, string(runes[start:i]), start})
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(runes)})
	return tokens, nil
}

func isWordBreak(runes []rune, i int) bool {
	r := runes[i]
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '[', ']', '(', ')', ',', '=', '"', '\'':
		return true
	case '!':
		return i+1 < len(runes) && runes[i+1] == '='
	}
	return false
}

type lexError string

func (e lexError) Error() string { return string(e) }

func lexQuoted(runes []rune, start int) (string, int, error) {
	quote := runes[start]
	var b strings.Builder
	for i := start + 1; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 >= len(runes) {
				return "", 0, lexError("unterminated escape sequence")
			}
			i++
			switch runes[i] {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(runes[i])
			}
		case quote:
			return b.String(), i + 1, nil
		default:
			b.WriteRune(r)
		}
	}
	return "", 0, lexError("unterminated quoted string")
}
