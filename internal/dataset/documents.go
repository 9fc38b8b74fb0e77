package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
)

// JSONLDocuments streams patents from newline-delimited JSON, one object
// per line with the fields of patents.Patent.
type JSONLDocuments struct {
	dec    *json.Decoder
	closer io.Closer
	n      int
}

func NewJSONLDocuments(r io.Reader) *JSONLDocuments {
	return &JSONLDocuments{dec: json.NewDecoder(bufio.NewReaderSize(r, 1<<20))}
}

// OpenJSONLDocuments opens path for streaming. Close releases the file.
func OpenJSONLDocuments(path string) (*JSONLDocuments, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening documents file: %w", err)
	}
	d := NewJSONLDocuments(f)
	d.closer = f
	return d, nil
}

// Next returns the next patent, or io.EOF after the last one.
func (d *JSONLDocuments) Next(ctx context.Context) (*patents.Patent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p patents.Patent
	if err := d.dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decoding document %d: %w", d.n+1, err)
	}
	d.n++
	return &p, nil
}

func (d *JSONLDocuments) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
