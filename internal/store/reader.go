package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

// keyTable is loaded once per Open and shared read-only by every clone.
type keyTable struct {
	dir     string
	offsets map[string]uint64
	order   []string
}

// Reader gives seek-by-key access to a store. A Reader owns its cursor and
// must not be shared between goroutines; use Clone to obtain one per worker.
type Reader struct {
	table *keyTable
	file  *os.File
	buf   *bufio.Reader
	pos   uint64

	scratch [8]byte
}

// Open loads index.bin into memory and opens data.bin for reading.
func Open(dir string, keyWidth Width) (*Reader, error) {
	table, err := loadKeyTable(dir, keyWidth)
	if err != nil {
		return nil, err
	}
	return newReader(table)
}

func loadKeyTable(dir string, keyWidth Width) (*keyTable, error) {
	f, err := os.Open(filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, fmt.Errorf("opening key index: %w", err)
	}
	defer f.Close()

	table := &keyTable{
		dir:     dir,
		offsets: make(map[string]uint64),
	}
	br := bufio.NewReaderSize(f, 1<<16)
	var scratch [4]byte
	var offset uint64
	for {
		key, err := readString(br, keyWidth, scratch[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading key %d: %w", len(table.order), err)
		}
		if _, err := io.ReadFull(br, scratch[:4]); err != nil {
			return nil, fmt.Errorf("reading offset for key %q: %w", key, err)
		}
		offset += uint64(binary.LittleEndian.Uint32(scratch[:4]))
		if _, exists := table.offsets[key]; !exists {
			table.order = append(table.order, key)
		}
		table.offsets[key] = offset
	}
	return table, nil
}

func newReader(table *keyTable) (*Reader, error) {
	f, err := os.Open(filepath.Join(table.dir, DataFileName))
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	return &Reader{
		table: table,
		file:  f,
		buf:   bufio.NewReaderSize(f, 1<<16),
	}, nil
}

// Clone returns a Reader with its own file handle and cursor that shares
// the loaded key table.
func (r *Reader) Clone() (*Reader, error) {
	return newReader(r.table)
}

// Len returns the number of distinct keys.
func (r *Reader) Len() int {
	return len(r.table.offsets)
}

// Keys returns the distinct keys in first-write order. The slice must not
// be modified.
func (r *Reader) Keys() []string {
	return r.table.order
}

// Contains reports whether key is present.
func (r *Reader) Contains(key string) bool {
	_, ok := r.table.offsets[key]
	return ok
}

// Offset returns the absolute payload offset of key.
func (r *Reader) Offset(key string) (uint64, error) {
	offset, ok := r.table.offsets[key]
	if !ok {
		return 0, apperrors.Newf(apperrors.ErrUnknownKey, "%q", key)
	}
	return offset, nil
}

// SortByOffset orders keys by their position in data.bin, falling back to
// key order for ties. Unknown keys sort last.
func (r *Reader) SortByOffset(keys []string) {
	offsetOf := func(key string) uint64 {
		if offset, ok := r.table.offsets[key]; ok {
			return offset
		}
		return ^uint64(0)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := offsetOf(keys[i]), offsetOf(keys[j])
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
}

// SeekToKey positions the cursor at the start of key's record.
func (r *Reader) SeekToKey(key string) error {
	offset, err := r.Offset(key)
	if err != nil {
		return err
	}
	return r.Seek(offset)
}

// Seek positions the cursor at an absolute payload offset.
func (r *Reader) Seek(offset uint64) error {
	if offset == r.pos {
		return nil
	}
	// Short forward hops stay inside the buffered window.
	if offset > r.pos && offset-r.pos <= uint64(r.buf.Buffered()) {
		n, err := r.buf.Discard(int(offset - r.pos))
		r.pos += uint64(n)
		return err
	}
	if _, err := r.file.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %d: %w", offset, err)
	}
	r.buf.Reset(r.file)
	r.pos = offset
	return nil
}

// Position returns the current cursor offset.
func (r *Reader) Position() uint64 {
	return r.pos
}

func (r *Reader) ReadRaw(n int) ([]byte, error) {
	out := make([]byte, n)
	read, err := io.ReadFull(r.buf, out)
	r.pos += uint64(read)
	if err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, err)
	}
	return out, nil
}

func (r *Reader) fill(n int) error {
	read, err := io.ReadFull(r.buf, r.scratch[:n])
	r.pos += uint64(read)
	if err != nil {
		return fmt.Errorf("reading scalar at %d: %w", r.pos, err)
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.fill(1); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.scratch[:2]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.fill(8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.scratch[:8]), nil
}

// ReadLength reads a length prefix of the given width.
func (r *Reader) ReadLength(width Width) (int, error) {
	switch width {
	case Width8:
		v, err := r.ReadUint8()
		return int(v), err
	case Width16:
		v, err := r.ReadUint16()
		return int(v), err
	default:
		v, err := r.ReadUint32()
		return int(v), err
	}
}

// ReadString reads a string preceded by a length prefix of the given width.
func (r *Reader) ReadString(width Width) (string, error) {
	n, err := r.ReadLength(width)
	if err != nil {
		return "", err
	}
	b, err := r.ReadRaw(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Close releases this reader's file handle. Other clones stay usable.
func (r *Reader) Close() error {
	return r.file.Close()
}

func readString(br *bufio.Reader, width Width, scratch []byte) (string, error) {
	if _, err := io.ReadFull(br, scratch[:width]); err != nil {
		return "", err
	}
	var n int
	switch width {
	case Width8:
		n = int(scratch[0])
	case Width16:
		n = int(binary.LittleEndian.Uint16(scratch))
	default:
		n = int(binary.LittleEndian.Uint32(scratch))
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(br, b); err != nil {
		return "", fmt.Errorf("truncated key: %w", io.ErrUnexpectedEOF)
	}
	return string(b), nil
}
