// Package testutil builds small on-disk corpora for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
)

// Corpus is a patent store plus an index over all of it.
type Corpus struct {
	Patents *patents.Reader
	Index   *index.Reader
	Dir     string
}

// IndexerConfig is a small build configuration that still exercises
// multiple blocks and vocabulary groups.
func IndexerConfig() config.IndexerConfig {
	return config.IndexerConfig{
		Workers:           2,
		BlocksPerWorker:   2,
		ClaimsGroups:      2,
		DescriptionGroups: 3,
	}
}

// NewCorpus writes docs to a temporary patent store and indexes all of
// them. Readers are closed when the test ends.
func NewCorpus(t testing.TB, docs []patents.Patent) *Corpus {
	t.Helper()
	dir := t.TempDir()
	patentsDir := filepath.Join(dir, "patents")
	indexDir := filepath.Join(dir, "index")

	w, err := patents.Create(patentsDir)
	require.NoError(t, err)
	pns := make([]string, 0, len(docs))
	for _, d := range docs {
		require.NoError(t, w.WritePatent(d))
		pns = append(pns, d.PublicationNumber)
	}
	require.NoError(t, w.Close())

	pr, err := patents.Open(patentsDir)
	require.NoError(t, err)
	t.Cleanup(func() { pr.Close() })

	_, err = index.Build(context.Background(), IndexerConfig(), pr, pns, indexDir, nil)
	require.NoError(t, err)

	ir, err := index.Open(indexDir)
	require.NoError(t, err)
	t.Cleanup(func() { ir.Close() })

	return &Corpus{Patents: pr, Index: ir, Dir: dir}
}

// SearchIndex opens a session on the corpus index, closed with the test.
func (c *Corpus) SearchIndex(t testing.TB) *index.SearchIndex {
	t.Helper()
	si, err := c.Index.NewSearchIndex()
	require.NoError(t, err)
	t.Cleanup(func() { si.Close() })
	return si
}
