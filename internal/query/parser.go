package query

import (
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

type parser struct {
	src    string
	tokens []token
	pos    int
}

// Parse parses s into an expression tree. Any lexical or syntactic problem
// yields an error wrapping apperrors.ErrMalformedQuery.
func Parse(s string) (Expr, error) {
	p := &parser{src: s, tokens: lex(s)}
	if p.peek().kind == tokEOF {
		return nil, apperrors.New(apperrors.ErrMalformedQuery, "empty query")
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", t)
	}
	return e, nil
}

// MustParse is Parse for queries known to be valid. It panics on error.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
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

func (p *parser) errorf(t token, format string, args ...any) error {
	args = append(args, t.pos, quoteContext(p.src, t.pos))
	return apperrors.Newf(apperrors.ErrMalformedQuery, format+" at offset %d near %q", args...)
}

// operator reports the binary operator starting at the current token, if
// any. A token that can begin a primary means implicit AND.
func (p *parser) operator() (Op, int, bool) {
	t := p.peek()
	switch t.kind {
	case tokWord:
		if o, ok := operators[t.text]; ok {
			return o.op, o.prec, true
		}
		return And, implicitAndPrec, true
	case tokLParen:
		return And, implicitAndPrec, true
	}
	return 0, 0, false
}

func (p *parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec, ok := p.operator()
		if !ok || prec < minPrec {
			return left, nil
		}
		if prec != implicitAndPrec {
			p.next()
		}
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", closing)
		}
		return e, nil
	case tokWord:
		if t.text == "NOT" {
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &NotExpr{Operand: operand}, nil
		}
		if isKeyword(t.text) {
			return nil, p.errorf(t, "operator %s is missing its left operand", t)
		}
		return p.parseTerm(t)
	default:
		return nil, p.errorf(t, "expected a term but found %s", t)
	}
}

func (p *parser) parseTerm(category token) (Expr, error) {
	if _, ok := patents.ParseCategory(category.text); !ok {
		return nil, p.errorf(category, "unknown category %s", category)
	}
	if colon := p.next(); colon.kind != tokColon {
		return nil, p.errorf(colon, "expected ':' after category but found %s", colon)
	}
	tok := p.next()
	if tok.kind != tokWord {
		return nil, p.errorf(tok, "expected a token after %s: but found %s", category.text, tok)
	}
	return &TermExpr{Term: category.text + ":" + tok.text}, nil
}
