package patents

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

// Category is a bitmask over the indexed sections of a patent.
type Category uint8

const (
	Cpc Category = 1 << iota
	Title
	Abstract
	Claims
	Description

	AllCategories = Cpc | Title | Abstract | Claims | Description
)

// Categories lists the single-bit categories in record order.
var Categories = []Category{Cpc, Title, Abstract, Claims, Description}

// Prefix returns the query prefix of a single-bit category.
func (c Category) Prefix() string {
	switch c {
	case Cpc:
		return "cpc"
	case Title:
		return "ti"
	case Abstract:
		return "ab"
	case Claims:
		return "clm"
	case Description:
		return "detd"
	default:
		return ""
	}
}

// Has reports whether every bit of other is set in c.
func (c Category) Has(other Category) bool {
	return c&other == other
}

// String renders a single category as its prefix and a combination as
// "cpc|ti|ab".
func (c Category) String() string {
	if p := c.Prefix(); p != "" {
		return p
	}
	var parts []string
	for _, single := range Categories {
		if c&single != 0 {
			parts = append(parts, single.Prefix())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseCategory maps a query prefix to its category.
func ParseCategory(prefix string) (Category, bool) {
	switch prefix {
	case "cpc":
		return Cpc, true
	case "ti":
		return Title, true
	case "ab":
		return Abstract, true
	case "clm":
		return Claims, true
	case "detd":
		return Description, true
	}
	return 0, false
}

// ParseCategories parses a "|"-separated list of prefixes.
func ParseCategories(s string) (Category, error) {
	var out Category
	for _, part := range strings.Split(s, "|") {
		c, ok := ParseCategory(strings.TrimSpace(part))
		if !ok {
			return 0, apperrors.Newf(apperrors.ErrInvalidInput, "unknown category %q", part)
		}
		out |= c
	}
	return out, nil
}

// Term is a (category, token) pair, serialized as "prefix:token".
type Term struct {
	Category Category
	Token    string
}

func (t Term) String() string {
	return t.Category.Prefix() + ":" + t.Token
}

// ParseTerm splits a serialized term on its first colon.
func ParseTerm(s string) (Term, error) {
	prefix, token, ok := strings.Cut(s, ":")
	if !ok || token == "" {
		return Term{}, apperrors.Newf(apperrors.ErrInvalidInput, "term %q is not of the form category:token", s)
	}
	c, ok := ParseCategory(prefix)
	if !ok {
		return Term{}, apperrors.Newf(apperrors.ErrInvalidInput, "term %q has unknown category %q", s, prefix)
	}
	return Term{Category: c, Token: token}, nil
}

// CategoryOf returns the category of a serialized term, or 0 if it has no
// known prefix.
func CategoryOf(term string) Category {
	prefix, _, ok := strings.Cut(term, ":")
	if !ok {
		return 0
	}
	c, _ := ParseCategory(prefix)
	return c
}

// WildcardOf returns the prefix-wildcard term for a classification code
// term, "cpc:H04L9/32" giving "cpc:H04L9/*".
func WildcardOf(term string) (string, bool) {
	slash := strings.IndexByte(term, '/')
	if slash < 0 {
		return "", false
	}
	return term[:slash] + "/*", true
}

func mustPrefix(c Category) string {
	p := c.Prefix()
	if p == "" {
		panic(fmt.Sprintf("patents: %v is not a single category", c))
	}
	return p + ":"
}
