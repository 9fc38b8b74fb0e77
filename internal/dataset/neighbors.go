// Package dataset reads the external inputs of the engine: neighbor lists
// that define synthesis tasks, raw patent documents for the patent store,
// and recorded query cases for checking the evaluator.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

// MaxTargets is the most neighbors a row may list.
const MaxTargets = 50

// Neighbors is one row of a neighbor file: a source patent and its
// targets, most relevant first.
type Neighbors struct {
	PublicationNumber string
	Targets           []string
}

// ReadNeighbors reads a CSV file with a header row followed by rows of a
// publication number and up to MaxTargets neighbor publication numbers.
// Empty cells are ignored. maxRows <= 0 reads every row.
func ReadNeighbors(path string, maxRows int) ([]Neighbors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening neighbors file: %w", err)
	}
	defer f.Close()
	return ParseNeighbors(f, maxRows)
}

// ParseNeighbors is ReadNeighbors over an open reader.
func ParseNeighbors(r io.Reader, maxRows int) ([]Neighbors, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var out []Neighbors
	for maxRows <= 0 || len(out) < maxRows {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(out)+1, err)
		}
		pn := strings.TrimSpace(record[0])
		if pn == "" {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "row %d has no publication number", len(out)+1)
		}
		if len(record)-1 > MaxTargets {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput,
				"row %d (%s) lists %d neighbors, at most %d allowed", len(out)+1, pn, len(record)-1, MaxTargets)
		}
		targets := make([]string, 0, len(record)-1)
		for _, cell := range record[1:] {
			if cell = strings.TrimSpace(cell); cell != "" {
				targets = append(targets, cell)
			}
		}
		out = append(out, Neighbors{PublicationNumber: pn, Targets: targets})
	}
	return out, nil
}

// DistinctTargets returns every target named in rows, in first-seen order.
func DistinctTargets(rows []Neighbors) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		for _, t := range row.Targets {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
