// Package index builds and reads the inverted index: one roaring postings
// bitmap and one sparse count list per term, plus the table mapping
// publication numbers to dense document ids, all stored in a keyed store.
package index

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

const (
	// KeyWidth is the length-prefix width of keys in the index store.
	KeyWidth = store.Width16

	idsKey       = "@ids"
	countsPrefix = "#"
)

func countsKey(term string) string {
	return countsPrefix + term
}

// BuildStats summarises a completed build.
type BuildStats struct {
	Documents int
	Terms     map[patents.Category]int
	Elapsed   time.Duration
}

type builder struct {
	cfg     config.IndexerConfig
	patents *patents.Reader
	ids     []string
	out     *store.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger
	stats   *BuildStats
}

// Build indexes the given publication numbers from the patent store into a
// new index under dir. Duplicates are ignored. Every publication number
// must exist in the patent store. A failed build leaves dir unusable.
func Build(ctx context.Context, cfg config.IndexerConfig, pr *patents.Reader, publicationNumbers []string, dir string, m *metrics.Metrics) (*BuildStats, error) {
	start := time.Now()
	ids, err := assignIDs(pr, publicationNumbers)
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BlocksPerWorker < 1 {
		cfg.BlocksPerWorker = 1
	}
	if cfg.ClaimsGroups < 1 {
		cfg.ClaimsGroups = 1
	}
	if cfg.DescriptionGroups < 1 {
		cfg.DescriptionGroups = 1
	}

	out, err := store.Create(dir, KeyWidth)
	if err != nil {
		return nil, fmt.Errorf("creating index store: %w", err)
	}
	b := &builder{
		cfg:     cfg,
		patents: pr,
		ids:     ids,
		out:     out,
		metrics: m,
		logger:  logger.WithComponent("index-builder"),
		stats:   &BuildStats{Documents: len(ids), Terms: make(map[patents.Category]int)},
	}
	b.logger.Info("building index", "documents", len(ids), "dir", dir, "workers", cfg.Workers)

	if err := b.run(ctx); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("closing index store: %w", err)
	}

	b.stats.Elapsed = time.Since(start)
	m.ObserveIndexBuild(b.stats.Elapsed)
	b.logger.Info("index built",
		"documents", len(ids),
		"keys", out.Keys(),
		"elapsed", b.stats.Elapsed,
	)
	return b.stats, nil
}

// assignIDs dedups the publication numbers and orders them by record
// position in the patent store, which makes every scan a forward read.
func assignIDs(pr *patents.Reader, publicationNumbers []string) ([]string, error) {
	seen := make(map[string]struct{}, len(publicationNumbers))
	ids := make([]string, 0, len(publicationNumbers))
	for _, pn := range publicationNumbers {
		if _, dup := seen[pn]; dup {
			continue
		}
		if !pr.Contains(pn) {
			return nil, apperrors.Newf(apperrors.ErrUnknownKey, "publication number %q is not in the patent store", pn)
		}
		seen[pn] = struct{}{}
		ids = append(ids, pn)
	}
	if len(ids) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "no publication numbers to index")
	}
	if uint64(len(ids)) > uint64(^uint32(0)) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%d documents exceed the uint32 id space", len(ids))
	}
	pr.SortByOffset(ids)
	return ids, nil
}

func (b *builder) run(ctx context.Context) error {
	if err := b.writeIDs(); err != nil {
		return err
	}
	for _, c := range []patents.Category{patents.Cpc, patents.Title, patents.Abstract} {
		if err := b.indexCategory(ctx, c, nil); err != nil {
			return err
		}
	}
	partitioned := []struct {
		category patents.Category
		groups   int
	}{
		{patents.Claims, b.cfg.ClaimsGroups},
		{patents.Description, b.cfg.DescriptionGroups},
	}
	for _, p := range partitioned {
		freq, err := b.countTerms(ctx, p.category)
		if err != nil {
			return err
		}
		groups := freq.partition(p.groups)
		b.logger.Info("partitioned vocabulary",
			"category", p.category,
			"terms", len(freq.counts),
			"groups", p.groups,
		)
		for i, group := range groups {
			b.logger.Debug("indexing group", "category", p.category, "group", i, "terms", len(group))
			if err := b.indexCategory(ctx, p.category, group); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) writeIDs() error {
	if err := b.out.AddKey(idsKey); err != nil {
		return err
	}
	if err := b.out.WriteUint32(uint32(len(b.ids))); err != nil {
		return err
	}
	for id, pn := range b.ids {
		if err := b.out.WriteString(store.Width16, pn); err != nil {
			return err
		}
		if err := b.out.WriteUint32(uint32(id)); err != nil {
			return err
		}
	}
	return nil
}

// forEachBlock splits the id range into Workers*BlocksPerWorker blocks and
// runs fn for each on an ants pool. Each block gets its own patent reader
// clone. It returns after every block has finished.
func (b *builder) forEachBlock(ctx context.Context, fn func(r *patents.Reader, lo, hi int) error) error {
	pool, err := ants.NewPool(b.cfg.Workers)
	if err != nil {
		return fmt.Errorf("creating scan pool: %w", err)
	}
	defer pool.Release()

	n := len(b.ids)
	blocks := b.cfg.Workers * b.cfg.BlocksPerWorker
	if blocks > n {
		blocks = n
	}
	size := (n + blocks - 1) / blocks

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		lo := lo
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			r, err := b.patents.Clone()
			if err != nil {
				fail(fmt.Errorf("cloning patent reader: %w", err))
				return
			}
			defer r.Close()
			if err := fn(r, lo, hi); err != nil {
				fail(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submitting scan block: %w", submitErr))
			break
		}
	}
	wg.Wait()
	return firstErr
}

func (b *builder) countTerms(ctx context.Context, category patents.Category) (*frequencies, error) {
	freq := newFrequencies()
	err := b.forEachBlock(ctx, func(r *patents.Reader, lo, hi int) error {
		local := make(map[string]uint32)
		for i := lo; i < hi; i++ {
			terms, err := r.ReadTerms(b.ids[i], category)
			if err != nil {
				return err
			}
			for _, term := range terms {
				local[term]++
			}
		}
		freq.merge(local)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("counting %s terms: %w", category, err)
	}
	return freq, nil
}

// indexCategory scans one category, optionally restricted to the terms in
// only, and writes the resulting postings.
func (b *builder) indexCategory(ctx context.Context, category patents.Category, only map[string]struct{}) error {
	start := time.Now()
	global := newAccumulator()
	err := b.forEachBlock(ctx, func(r *patents.Reader, lo, hi int) error {
		local := newAccumulator()
		for i := lo; i < hi; i++ {
			counts, err := r.ReadTermsWithCounts(b.ids[i], category)
			if err != nil {
				return err
			}
			for term, count := range counts {
				if only != nil {
					if _, ok := only[term]; !ok {
						continue
					}
				}
				local.add(term, uint32(i), count)
			}
		}
		global.merge(local)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", category, err)
	}

	terms := global.sortedTerms()
	for _, term := range terms {
		if err := b.writeTerm(term, global.postings(term), category != patents.Cpc); err != nil {
			return fmt.Errorf("writing term %q: %w", term, err)
		}
	}
	b.stats.Terms[category] += len(terms)
	b.metrics.AddIndexTerms(category.String(), len(terms))
	b.logger.Info("indexed category",
		"category", category,
		"terms", len(terms),
		"elapsed", time.Since(start),
	)
	return nil
}

func (b *builder) writeTerm(term string, docs []posting, withCounts bool) error {
	bm := roaring.New()
	for _, p := range docs {
		bm.Add(p.id)
	}
	bm.RunOptimize()
	var buf bytes.Buffer
	if _, err := bm.WriteTo(&buf); err != nil {
		return fmt.Errorf("serializing bitmap: %w", err)
	}

	if err := b.out.AddKey(term); err != nil {
		return err
	}
	if err := b.out.WriteUint32(uint32(buf.Len())); err != nil {
		return err
	}
	if err := b.out.WriteRaw(buf.Bytes()); err != nil {
		return err
	}

	if err := b.out.AddKey(countsKey(term)); err != nil {
		return err
	}
	if !withCounts {
		return b.out.WriteUint32(0)
	}
	if err := b.out.WriteUint32(uint32(len(docs))); err != nil {
		return err
	}
	for _, p := range docs {
		if err := b.out.WriteUint32(p.id); err != nil {
			return err
		}
		if err := b.out.WriteUint16(p.count); err != nil {
			return err
		}
	}
	return nil
}
