package patents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"punctuation", "Hello, world!", []string{"hello", "world"}},
		{"single chars dropped", "a b c ab bc abc", []string{"ab", "bc", "abc"}},
		{"embedded periods", "a.thing.a", []string{"a.thing.a"}},
		{"period then space", "a. thing. a", []string{"thing"}},
		{"folds case", "A.THiNG42.A", []string{"a.thing42.a"}},
		{"a.thing", "a.thing", []string{"a.thing"}},
		{"a. thing", "a. thing", []string{"thing"}},
		{"decimal number", "123.456", nil},
		{"trailing period", "123.456.", nil},
		{"number with word", "123.456.a", []string{"123.456.a"}},
		{"number then unit", "1.23 cm", []string{"cm"}},
		{"number glued to unit", "1.23cm", []string{"1.23cm"}},
		{"comma splits", "1,23456", nil},
		{"plain number", "123456", nil},
		{"version number", "1.2.3.4.5", []string{"1.2.3.4.5"}},
		{"stop words", "There are 7 things", []string{"things"}},
		{"and is a stop word", "salt and pepper", []string{"salt", "pepper"}},
		{"leading period", ".abc", []string{"abc"}},
		{"double period", "ab..cd", []string{"ab", "cd"}},
		{"underscore", "snake_case", []string{"snake_case"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTokens(tt.text))
		})
	}
}

func TestCountTokens(t *testing.T) {
	counts := CountTokens("The widget and the Widget, with a WIDGET gear")
	assert.Equal(t, map[string]uint16{"widget": 3, "with": 1, "gear": 1}, counts)
}

func TestCountTokensSaturates(t *testing.T) {
	text := strings.Repeat("gear ", 70000)
	assert.Equal(t, uint16(0xFFFF), CountTokens(text)["gear"])
}

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm("cpc:H04L9/32")
	assert.NoError(t, err)
	assert.Equal(t, Term{Category: Cpc, Token: "H04L9/32"}, term)
	assert.Equal(t, "cpc:H04L9/32", term.String())

	_, err = ParseTerm("xx:foo")
	assert.Error(t, err)
	_, err = ParseTerm("ti:")
	assert.Error(t, err)
	_, err = ParseTerm("title")
	assert.Error(t, err)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "detd", Description.String())
	assert.Equal(t, "cpc|ti|ab", (Cpc | Title | Abstract).String())

	c, err := ParseCategories("cpc|clm")
	assert.NoError(t, err)
	assert.Equal(t, Cpc|Claims, c)

	_, err = ParseCategories("cpc|xyz")
	assert.Error(t, err)
}

func TestWildcardOf(t *testing.T) {
	w, ok := WildcardOf("cpc:H04L9/32")
	assert.True(t, ok)
	assert.Equal(t, "cpc:H04L9/*", w)

	_, ok = WildcardOf("cpc:H04L")
	assert.False(t, ok)
}
