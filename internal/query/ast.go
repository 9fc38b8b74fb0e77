// Package query parses the boolean prior-art query language:
//
//	term    := CATEGORY ':' TOKEN
//	primary := term | '(' expr ')' | 'NOT' primary
//	expr    := primary | expr expr | expr 'XOR' expr | expr 'AND' expr | expr 'OR' expr
//
// Binding from tightest to loosest is OR, AND, XOR, then bare adjacency,
// which is an implicit AND. All binary operators are left-associative.
package query

import "strings"

type Op int

const (
	And Op = iota
	Or
	Xor
)

func (o Op) String() string {
	switch o {
	case Or:
		return "OR"
	case Xor:
		return "XOR"
	default:
		return "AND"
	}
}

// Expr is a node of a parsed query.
type Expr interface {
	node()
}

// TermExpr is a leaf holding a serialized "category:token" term.
type TermExpr struct {
	Term string
}

type NotExpr struct {
	Operand Expr
}

type BinaryExpr struct {
	Op          Op
	Left, Right Expr
}

func (*TermExpr) node()   {}
func (*NotExpr) node()    {}
func (*BinaryExpr) node() {}

// Terms returns the distinct terms referenced by e in first-seen order.
func Terms(e Expr) []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *TermExpr:
			if _, ok := seen[n.Term]; !ok {
				seen[n.Term] = struct{}{}
				out = append(out, n.Term)
			}
		case *NotExpr:
			walk(n.Operand)
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	return out
}

// Format renders e fully parenthesized with explicit operators, so the
// result parses back to the same tree.
func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *TermExpr:
		b.WriteString(n.Term)
	case *NotExpr:
		b.WriteString("NOT ")
		format(b, n.Operand)
	case *BinaryExpr:
		b.WriteByte('(')
		format(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		format(b, n.Right)
		b.WriteByte(')')
	}
}
