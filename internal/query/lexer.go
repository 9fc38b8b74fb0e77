package query

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokColon
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokColon:
		return "':'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return isSpace(ch) || ch == '(' || ch == ')' || ch == ':'
}

// lex splits s into words and punctuation. Words are maximal runs of bytes
// that are not whitespace, parentheses or colons.
func lex(s string) []token {
	var tokens []token
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case isSpace(ch):
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case ch == ':':
			tokens = append(tokens, token{kind: tokColon, text: ":", pos: i})
			i++
		default:
			start := i
			for i < len(s) && !isDelimiter(s[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokWord, text: s[start:i], pos: start})
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(s)})
}

var operators = map[string]struct {
	op   Op
	prec int
}{
	"OR":  {Or, 5},
	"AND": {And, 4},
	"XOR": {Xor, 3},
}

const implicitAndPrec = 1

func isKeyword(word string) bool {
	_, ok := operators[word]
	return ok || word == "NOT"
}

func quoteContext(s string, pos int) string {
	const width = 20
	lo := pos - width
	if lo < 0 {
		lo = 0
	}
	hi := pos + width
	if hi > len(s) {
		hi = len(s)
	}
	return strings.TrimSpace(s[lo:hi])
}
