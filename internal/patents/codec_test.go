package patents

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

func writePatents(t *testing.T, dir string, patents ...Patent) {
	t.Helper()
	w, err := Create(dir)
	require.NoError(t, err)
	for _, p := range patents {
		require.NoError(t, w.WritePatent(p))
	}
	require.NoError(t, w.Close())
}

var samplePatent = Patent{
	PublicationNumber: "US-1-A",
	CpcCodes:          []string{"code1", "code2", "code3"},
	Title:             "This is a title title",
	Abstract:          "This is an abstract",
	Claims:            "These are some claims",
	Description:       "This is a description",
}

func TestRoundTripCounts(t *testing.T) {
	dir := t.TempDir()
	writePatents(t, dir, samplePatent)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	counts, err := r.ReadTermsWithCounts("US-1-A", AllCategories)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint16{
		"cpc:code1":        1,
		"cpc:code2":        1,
		"cpc:code3":        1,
		"ti:title":         2,
		"ab:abstract":      1,
		"clm:claims":       1,
		"clm:some":         1,
		"detd:description": 1,
	}, counts)
}

func TestReadTermsSelectsCategories(t *testing.T) {
	dir := t.TempDir()
	writePatents(t, dir, samplePatent)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	terms, err := r.ReadTerms("US-1-A", Title)
	require.NoError(t, err)
	assert.Equal(t, []string{"ti:title"}, terms)

	terms, err = r.ReadTerms("US-1-A", Claims|Description)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clm:claims", "clm:some", "detd:description"}, terms)
}

func TestWildcardTerms(t *testing.T) {
	dir := t.TempDir()
	writePatents(t, dir, Patent{
		PublicationNumber: "US-2-B",
		CpcCodes:          []string{"H04L9/32", "H04L9/08", "G06F21/60", "Y10S"},
	})

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	terms, err := r.ReadTerms("US-2-B", Cpc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cpc:H04L9/32", "cpc:H04L9/08", "cpc:G06F21/60", "cpc:Y10S",
		"cpc:H04L9/*", "cpc:G06F21/*",
	}, terms)

	counts, err := r.ReadTermsWithCounts("US-2-B", Cpc)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), counts["cpc:H04L9/*"])
	assert.Equal(t, uint16(1), counts["cpc:G06F21/*"])
	assert.Equal(t, uint16(1), counts["cpc:H04L9/32"])
	assert.Len(t, counts, 6)
}

func TestMultipleRecordsAndClone(t *testing.T) {
	dir := t.TempDir()
	writePatents(t, dir,
		Patent{PublicationNumber: "US-1", Title: "rotary engine"},
		Patent{PublicationNumber: "US-2", Title: "piston engine", Description: "long text about pistons"},
		Patent{PublicationNumber: "US-3", Abstract: "valve"},
	)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()
	c, err := r.Clone()
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"US-1", "US-2", "US-3"}, r.PublicationNumbers())

	terms, err := c.ReadTerms("US-3", AllCategories)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab:valve"}, terms)

	terms, err = r.ReadTerms("US-2", Title|Description)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ti:engine", "ti:piston", "detd:long", "detd:text", "detd:about", "detd:pistons"}, terms)
}

func TestUnknownPublicationNumber(t *testing.T) {
	dir := t.TempDir()
	writePatents(t, dir, samplePatent)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadTerms("US-404", AllCategories)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownKey))
}

type sliceSource struct {
	patents []Patent
	next    int
}

func (s *sliceSource) Next(context.Context) (*Patent, error) {
	if s.next >= len(s.patents) {
		return nil, io.EOF
	}
	p := s.patents[s.next]
	s.next++
	return &p, nil
}

func TestImportSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir)
	require.NoError(t, err)

	source := &sliceSource{patents: []Patent{
		samplePatent,
		{PublicationNumber: "", Title: "orphan"},
		{PublicationNumber: "US-9", CpcCodes: []string{""}},
		{PublicationNumber: "US-10", Title: "gearbox"},
	}}
	stats, err := Import(context.Background(), source, w, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 2, stats.Skipped)

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"US-1-A", "US-10"}, r.PublicationNumbers())
}

func TestValidate(t *testing.T) {
	err := Validate(&Patent{PublicationNumber: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "publication_number")

	assert.NoError(t, Validate(&samplePatent))
}
