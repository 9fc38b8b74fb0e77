package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	w, err := Create(dir, Width16)
	require.NoError(t, err)

	require.NoError(t, w.AddKey("first"))
	require.NoError(t, w.WriteUint32(7))
	require.NoError(t, w.WriteString(Width8, "hello"))

	require.NoError(t, w.AddKey("second"))
	require.NoError(t, w.WriteUint16(42))
	require.NoError(t, w.WriteUint64(1<<40))

	require.NoError(t, w.AddKey("empty"))

	require.NoError(t, w.AddKey("third"))
	require.NoError(t, w.WriteString(Width32, "world"))
	require.NoError(t, w.Close())
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 4, r.Len())
	assert.Equal(t, []string{"first", "second", "empty", "third"}, r.Keys())

	require.NoError(t, r.SeekToKey("third"))
	s, err := r.ReadString(Width32)
	require.NoError(t, err)
	assert.Equal(t, "world", s)

	require.NoError(t, r.SeekToKey("first"))
	v32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v32)
	s, err = r.ReadString(Width8)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	require.NoError(t, r.SeekToKey("second"))
	v16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(42), v16)
	v64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), v64)
}

func TestOffsetsAreDeltaEncoded(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Offset("first")
	require.NoError(t, err)
	second, err := r.Offset("second")
	require.NoError(t, err)
	empty, err := r.Offset("empty")
	require.NoError(t, err)
	third, err := r.Offset("third")
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(4+1+5), second)
	assert.Equal(t, second+2+8, empty)
	assert.Equal(t, empty, third)

	raw, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	require.NoError(t, err)
	// uint16 key length + key + uint32 delta per entry.
	assert.Len(t, raw, (2+5+4)+(2+6+4)+(2+5+4)+(2+5+4))
}

func TestUnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Contains("missing"))
	err = r.SeekToKey("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownKey))
}

func TestCloneHasIndependentCursor(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	c, err := r.Clone()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, r.SeekToKey("third"))
	require.NoError(t, c.SeekToKey("first"))

	s, err := r.ReadString(Width32)
	require.NoError(t, err)
	assert.Equal(t, "world", s)

	v, err := c.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)

	require.NoError(t, c.Close())
	require.NoError(t, r.SeekToKey("first"))
	_, err = r.ReadUint32()
	assert.NoError(t, err)
}

func TestSortByOffset(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	keys := []string{"third", "missing", "first", "empty", "second"}
	r.SortByOffset(keys)
	assert.Equal(t, []string{"first", "second", "empty", "third", "missing"}, keys)
}

func TestKeyTooLong(t *testing.T) {
	w, err := Create(t.TempDir(), Width8)
	require.NoError(t, err)
	defer w.Close()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'k'
	}
	assert.Error(t, w.AddKey(string(long)))
}

func TestSeekWithinBuffer(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, Width16)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, w.AddKey(string(rune('A'+i%26))+string(rune('a'+i/26))))
		require.NoError(t, w.WriteUint32(uint32(i)))
	}
	require.NoError(t, w.Close())

	r, err := Open(dir, Width16)
	require.NoError(t, err)
	defer r.Close()

	for _, i := range []int{0, 3, 50, 10, 99} {
		key := string(rune('A'+i%26)) + string(rune('a'+i/26))
		require.NoError(t, r.SeekToKey(key))
		v, err := r.ReadUint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(i), v, key)
	}
}
