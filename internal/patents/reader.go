package patents

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/store"
)

// Reader decodes patent records. Like store.Reader it owns a cursor; call
// Clone for each goroutine.
type Reader struct {
	r *store.Reader
}

func Open(dir string) (*Reader, error) {
	r, err := store.Open(dir, KeyWidth)
	if err != nil {
		return nil, fmt.Errorf("opening patent store: %w", err)
	}
	return &Reader{r: r}, nil
}

func (pr *Reader) Clone() (*Reader, error) {
	r, err := pr.r.Clone()
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// PublicationNumbers returns every stored key in write order.
func (pr *Reader) PublicationNumbers() []string {
	return pr.r.Keys()
}

func (pr *Reader) Contains(publicationNumber string) bool {
	return pr.r.Contains(publicationNumber)
}

// SortByOffset orders publication numbers by record position.
func (pr *Reader) SortByOffset(publicationNumbers []string) {
	pr.r.SortByOffset(publicationNumbers)
}

func (pr *Reader) Close() error {
	return pr.r.Close()
}

type sectionOffsets [5]uint64

func (pr *Reader) seekRecord(publicationNumber string) (sectionOffsets, error) {
	var offsets sectionOffsets
	if err := pr.r.SeekToKey(publicationNumber); err != nil {
		return offsets, err
	}
	var sizes [4]uint32
	for i := range sizes {
		v, err := pr.r.ReadUint32()
		if err != nil {
			return offsets, fmt.Errorf("reading header of %s: %w", publicationNumber, err)
		}
		sizes[i] = v
	}
	offsets[0] = pr.r.Position()
	for i, size := range sizes {
		offsets[i+1] = offsets[i] + uint64(size)
	}
	return offsets, nil
}

// ReadTerms returns the serialized terms present in the selected
// categories. Classification codes are followed by one wildcard term per
// distinct code prefix.
func (pr *Reader) ReadTerms(publicationNumber string, categories Category) ([]string, error) {
	offsets, err := pr.seekRecord(publicationNumber)
	if err != nil {
		return nil, err
	}
	var out []string
	for i, c := range Categories {
		if categories&c == 0 {
			continue
		}
		if err := pr.r.Seek(offsets[i]); err != nil {
			return nil, err
		}
		if c == Cpc {
			out, err = pr.readKeywords(out)
		} else {
			out, err = pr.readText(out, mustPrefix(c))
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s of %s: %w", c, publicationNumber, err)
		}
	}
	return out, nil
}

// ReadTermsWithCounts is ReadTerms with occurrence counts. Codes count 1
// each and their wildcard counts once per code sharing the prefix.
func (pr *Reader) ReadTermsWithCounts(publicationNumber string, categories Category) (map[string]uint16, error) {
	offsets, err := pr.seekRecord(publicationNumber)
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint16)
	for i, c := range Categories {
		if categories&c == 0 {
			continue
		}
		if err := pr.r.Seek(offsets[i]); err != nil {
			return nil, err
		}
		if c == Cpc {
			err = pr.readKeywordCounts(out)
		} else {
			err = pr.readTextCounts(out, mustPrefix(c))
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s of %s: %w", c, publicationNumber, err)
		}
	}
	return out, nil
}

func (pr *Reader) readKeywords(out []string) ([]string, error) {
	n, err := pr.r.ReadUint16()
	if err != nil {
		return nil, err
	}
	prefix := mustPrefix(Cpc)
	var wildcards []string
	seen := make(map[string]struct{})
	for i := 0; i < int(n); i++ {
		code, err := pr.r.ReadString(store.Width8)
		if err != nil {
			return nil, err
		}
		term := prefix + code
		out = append(out, term)
		if w, ok := WildcardOf(term); ok {
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				wildcards = append(wildcards, w)
			}
		}
	}
	return append(out, wildcards...), nil
}

func (pr *Reader) readText(out []string, prefix string) ([]string, error) {
	n, err := pr.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		token, err := pr.r.ReadString(store.Width16)
		if err != nil {
			return nil, err
		}
		if _, err := pr.r.ReadUint16(); err != nil {
			return nil, err
		}
		out = append(out, prefix+token)
	}
	return out, nil
}

func (pr *Reader) readKeywordCounts(out map[string]uint16) error {
	n, err := pr.r.ReadUint16()
	if err != nil {
		return err
	}
	prefix := mustPrefix(Cpc)
	for i := 0; i < int(n); i++ {
		code, err := pr.r.ReadString(store.Width8)
		if err != nil {
			return err
		}
		term := prefix + code
		if _, ok := out[term]; !ok {
			out[term] = 1
		}
		if w, ok := WildcardOf(term); ok {
			out[w]++
		}
	}
	return nil
}

func (pr *Reader) readTextCounts(out map[string]uint16, prefix string) error {
	n, err := pr.r.ReadUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		token, err := pr.r.ReadString(store.Width16)
		if err != nil {
			return err
		}
		count, err := pr.r.ReadUint16()
		if err != nil {
			return err
		}
		term := prefix + token
		if _, ok := out[term]; !ok {
			out[term] = count
		}
	}
	return nil
}
