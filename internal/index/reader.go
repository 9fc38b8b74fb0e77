package index

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
)

// Reader is the immutable, shareable view of a built index: the id table
// and the key table of its store. Per-goroutine access goes through
// SearchIndex values created by NewSearchIndex.
type Reader struct {
	base   *store.Reader
	ids    map[string]uint32
	names  []string
	flight singleflight.Group
	logger *slog.Logger
}

// Open loads the id table of the index stored under dir.
func Open(dir string) (*Reader, error) {
	base, err := store.Open(dir, KeyWidth)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	r := &Reader{
		base:   base,
		logger: logger.WithComponent("index-reader"),
	}
	if err := r.loadIDs(); err != nil {
		base.Close()
		return nil, err
	}
	r.logger.Info("index opened", "dir", dir, "documents", len(r.names), "terms", r.TermCount())
	return r, nil
}

func (r *Reader) loadIDs() error {
	if err := r.base.SeekToKey(idsKey); err != nil {
		return fmt.Errorf("index has no id table: %w", err)
	}
	n, err := r.base.ReadUint32()
	if err != nil {
		return fmt.Errorf("reading id count: %w", err)
	}
	r.ids = make(map[string]uint32, n)
	r.names = make([]string, n)
	for i := uint32(0); i < n; i++ {
		pn, err := r.base.ReadString(store.Width16)
		if err != nil {
			return fmt.Errorf("reading id entry %d: %w", i, err)
		}
		id, err := r.base.ReadUint32()
		if err != nil {
			return fmt.Errorf("reading id entry %d: %w", i, err)
		}
		if id >= n {
			return fmt.Errorf("id %d for %s is outside [0, %d)", id, pn, n)
		}
		r.ids[pn] = id
		r.names[id] = pn
	}
	return nil
}

// DocumentCount returns N, the size of the document id space.
func (r *Reader) DocumentCount() int {
	return len(r.names)
}

// TermCount returns the number of indexed terms.
func (r *Reader) TermCount() int {
	return (r.base.Len() - 1) / 2
}

// PublicationNumbers returns the external keys in document id order. The
// slice must not be modified.
func (r *Reader) PublicationNumbers() []string {
	return r.names
}

func (r *Reader) PublicationNumber(id uint32) (string, bool) {
	if int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

func (r *Reader) DocumentID(publicationNumber string) (uint32, bool) {
	id, ok := r.ids[publicationNumber]
	return id, ok
}

// HasTerm reports whether term is indexed.
func (r *Reader) HasTerm(term string) bool {
	return isTermKey(term) && r.base.Contains(term)
}

func (r *Reader) Close() error {
	return r.base.Close()
}

// NewSearchIndex returns a SearchIndex with its own cursor and empty caches.
func (r *Reader) NewSearchIndex() (*SearchIndex, error) {
	cursor, err := r.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("cloning index store: %w", err)
	}
	return &SearchIndex{
		reader:        r,
		cursor:        cursor,
		bitsets:       make(map[string]*roaring.Bitmap),
		counts:        make(map[string]map[uint32]uint16),
		cardinalities: make(map[string]uint64),
	}, nil
}

func isTermKey(term string) bool {
	return term != "" && term[0] != '@' && term[0] != '#'
}

func unknownTerm(term string) error {
	return apperrors.Newf(apperrors.ErrUnknownTerm, "term %q", term)
}

func (r *Reader) decodeBitmap(cursor *store.Reader, term string) (*roaring.Bitmap, error) {
	v, err, _ := r.flight.Do("b"+term, func() (any, error) {
		if err := cursor.SeekToKey(term); err != nil {
			return nil, err
		}
		n, err := cursor.ReadUint32()
		if err != nil {
			return nil, err
		}
		raw, err := cursor.ReadRaw(int(n))
		if err != nil {
			return nil, err
		}
		bm := roaring.New()
		if _, err := bm.ReadFrom(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("decoding bitmap: %w", err)
		}
		return bm, nil
	})
	if err != nil {
		return nil, wrapLookup(term, err)
	}
	return v.(*roaring.Bitmap), nil
}

func (r *Reader) decodeCounts(cursor *store.Reader, term string) (map[uint32]uint16, error) {
	v, err, _ := r.flight.Do("c"+term, func() (any, error) {
		if err := cursor.SeekToKey(countsKey(term)); err != nil {
			return nil, err
		}
		n, err := cursor.ReadUint32()
		if err != nil {
			return nil, err
		}
		counts := make(map[uint32]uint16, n)
		for i := uint32(0); i < n; i++ {
			id, err := cursor.ReadUint32()
			if err != nil {
				return nil, err
			}
			count, err := cursor.ReadUint16()
			if err != nil {
				return nil, err
			}
			counts[id] = count
		}
		return counts, nil
	})
	if err != nil {
		return nil, wrapLookup(term, err)
	}
	return v.(map[uint32]uint16), nil
}

func wrapLookup(term string, err error) error {
	if errors.Is(err, apperrors.ErrUnknownKey) {
		return unknownTerm(term)
	}
	return fmt.Errorf("reading term %q: %w", term, err)
}
