// Package store implements the keyed binary file pair used for every
// on-disk artifact: data.bin holds record payloads written back to back,
// index.bin holds (length-prefixed key, uint32 delta offset) pairs in write
// order. Absolute offsets are the running sum of the deltas.
package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	DataFileName  = "data.bin"
	IndexFileName = "index.bin"
)

// Width is the size of a length prefix in bytes.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

func (w Width) max() uint64 {
	switch w {
	case Width8:
		return math.MaxUint8
	case Width16:
		return math.MaxUint16
	default:
		return math.MaxUint32
	}
}

// Writer appends records to a store directory. It is not safe for
// concurrent use.
type Writer struct {
	dir      string
	keyWidth Width

	dataFile  *os.File
	indexFile *os.File
	data      *bufio.Writer
	index     *bufio.Writer

	position     uint64
	lastPosition uint64
	keys         int
	scratch      [8]byte
}

// Create truncates (or creates) the store files under dir.
func Create(dir string, keyWidth Width) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	dataFile, err := os.Create(filepath.Join(dir, DataFileName))
	if err != nil {
		return nil, fmt.Errorf("creating data file: %w", err)
	}
	indexFile, err := os.Create(filepath.Join(dir, IndexFileName))
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("creating index file: %w", err)
	}
	return &Writer{
		dir:       dir,
		keyWidth:  keyWidth,
		dataFile:  dataFile,
		indexFile: indexFile,
		data:      bufio.NewWriterSize(dataFile, 1<<20),
		index:     bufio.NewWriterSize(indexFile, 1<<16),
	}, nil
}

// AddKey starts a new record at the current position.
func (w *Writer) AddKey(key string) error {
	delta := w.position - w.lastPosition
	if delta > math.MaxUint32 {
		return fmt.Errorf("record before key %q is %d bytes, exceeds uint32 delta", key, delta)
	}
	w.lastPosition = w.position
	if err := writeString(w.index, w.keyWidth, key, w.scratch[:]); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	binary.LittleEndian.PutUint32(w.scratch[:4], uint32(delta))
	if _, err := w.index.Write(w.scratch[:4]); err != nil {
		return fmt.Errorf("writing offset for key %q: %w", key, err)
	}
	w.keys++
	return nil
}

// Position returns the number of payload bytes written so far.
func (w *Writer) Position() uint64 {
	return w.position
}

// Keys returns how many keys have been added.
func (w *Writer) Keys() int {
	return w.keys
}

func (w *Writer) WriteRaw(b []byte) error {
	n, err := w.data.Write(b)
	w.position += uint64(n)
	return err
}

func (w *Writer) WriteUint8(v uint8) error {
	w.scratch[0] = v
	return w.WriteRaw(w.scratch[:1])
}

func (w *Writer) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(w.scratch[:2], v)
	return w.WriteRaw(w.scratch[:2])
}

func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	return w.WriteRaw(w.scratch[:4])
}

func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.scratch[:8], v)
	return w.WriteRaw(w.scratch[:8])
}

// WriteLength writes n as a length prefix of the given width.
func (w *Writer) WriteLength(width Width, n int) error {
	if uint64(n) > width.max() {
		return fmt.Errorf("length %d does not fit in %d-byte prefix", n, width)
	}
	switch width {
	case Width8:
		return w.WriteUint8(uint8(n))
	case Width16:
		return w.WriteUint16(uint16(n))
	default:
		return w.WriteUint32(uint32(n))
	}
}

// WriteString writes s preceded by its length in the given width.
func (w *Writer) WriteString(width Width, s string) error {
	if err := w.WriteLength(width, len(s)); err != nil {
		return err
	}
	n, err := w.data.WriteString(s)
	w.position += uint64(n)
	return err
}

// Close flushes both streams and closes the files.
func (w *Writer) Close() error {
	var firstErr error
	if err := w.data.Flush(); err != nil {
		firstErr = fmt.Errorf("flushing data file: %w", err)
	}
	if err := w.index.Flush(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("flushing index file: %w", err)
	}
	if err := w.dataFile.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing data file: %w", err)
	}
	if err := w.indexFile.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing index file: %w", err)
	}
	return firstErr
}

func writeString(bw *bufio.Writer, width Width, s string, scratch []byte) error {
	if uint64(len(s)) > width.max() {
		return fmt.Errorf("length %d does not fit in %d-byte prefix", len(s), width)
	}
	switch width {
	case Width8:
		scratch[0] = uint8(len(s))
	case Width16:
		binary.LittleEndian.PutUint16(scratch, uint16(len(s)))
	default:
		binary.LittleEndian.PutUint32(scratch, uint32(len(s)))
	}
	if _, err := bw.Write(scratch[:width]); err != nil {
		return err
	}
	_, err := bw.WriteString(s)
	return err
}
