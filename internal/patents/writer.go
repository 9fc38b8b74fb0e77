// Package patents encodes one record per patent on top of the keyed store:
// classification codes verbatim, then the title, abstract, claims and
// description reduced to token counts.
package patents

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/store"
)

// KeyWidth is the length-prefix width of publication numbers in the
// patent store.
const KeyWidth = store.Width8

// Patent is one source document.
type Patent struct {
	PublicationNumber string   `json:"publication_number"`
	CpcCodes          []string `json:"cpc_codes"`
	Title             string   `json:"title"`
	Abstract          string   `json:"abstract"`
	Claims            string   `json:"claims"`
	Description       string   `json:"description"`
}

type tokenCount struct {
	token string
	count uint16
}

// Writer appends patent records to a store directory.
type Writer struct {
	w *store.Writer
}

func Create(dir string) (*Writer, error) {
	w, err := store.Create(dir, KeyWidth)
	if err != nil {
		return nil, fmt.Errorf("creating patent store: %w", err)
	}
	return &Writer{w: w}, nil
}

// WritePatent tokenizes p and appends its record.
func (pw *Writer) WritePatent(p Patent) error {
	if len(p.CpcCodes) > 0xFFFF {
		return fmt.Errorf("patent %s has %d classification codes", p.PublicationNumber, len(p.CpcCodes))
	}
	title := sortedCounts(CountTokens(p.Title))
	abstract := sortedCounts(CountTokens(p.Abstract))
	claims := sortedCounts(CountTokens(p.Claims))
	description := sortedCounts(CountTokens(p.Description))

	cpcSize, err := keywordSectionSize(p.CpcCodes)
	if err != nil {
		return fmt.Errorf("patent %s: %w", p.PublicationNumber, err)
	}

	if err := pw.w.AddKey(p.PublicationNumber); err != nil {
		return err
	}
	for _, size := range []uint32{cpcSize, textSectionSize(title), textSectionSize(abstract), textSectionSize(claims)} {
		if err := pw.w.WriteUint32(size); err != nil {
			return err
		}
	}
	if err := pw.writeKeywords(p.CpcCodes); err != nil {
		return err
	}
	for _, section := range [][]tokenCount{title, abstract, claims, description} {
		if err := pw.writeText(section); err != nil {
			return err
		}
	}
	return nil
}

func (pw *Writer) Close() error {
	return pw.w.Close()
}

func (pw *Writer) writeKeywords(codes []string) error {
	if err := pw.w.WriteUint16(uint16(len(codes))); err != nil {
		return err
	}
	for _, code := range codes {
		if err := pw.w.WriteString(store.Width8, code); err != nil {
			return err
		}
	}
	return nil
}

func (pw *Writer) writeText(tokens []tokenCount) error {
	if err := pw.w.WriteUint32(uint32(len(tokens))); err != nil {
		return err
	}
	for _, tc := range tokens {
		if err := pw.w.WriteString(store.Width16, tc.token); err != nil {
			return err
		}
		if err := pw.w.WriteUint16(tc.count); err != nil {
			return err
		}
	}
	return nil
}

// sortedCounts orders a section by token so records are byte-stable.
func sortedCounts(counts map[string]uint16) []tokenCount {
	out := make([]tokenCount, 0, len(counts))
	for token, count := range counts {
		out = append(out, tokenCount{token: token, count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].token < out[j].token })
	return out
}

func keywordSectionSize(codes []string) (uint32, error) {
	size := uint32(2)
	for _, code := range codes {
		if len(code) > 0xFF {
			return 0, fmt.Errorf("classification code %q longer than 255 bytes", code)
		}
		size += 1 + uint32(len(code))
	}
	return size, nil
}

func textSectionSize(tokens []tokenCount) uint32 {
	size := uint32(4)
	for _, tc := range tokens {
		size += 4 + uint32(len(tc.token))
	}
	return size
}
