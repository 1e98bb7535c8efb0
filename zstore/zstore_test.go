package zstore

import (
	"bytes"
	"encoding/binary"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/zstore/internal/fb"
)

type file struct {
	path string
	data []byte
}

// buildArchive writes a fresh archive holding files, in order.
func buildArchive(tb testing.TB, files []file) []byte {
	tb.Helper()
	ops := make([]arcfmt.UpdateOp, len(files))
	for i, f := range files {
		ops[i] = arcfmt.UpdateOp{Kind: arcfmt.UpdateAdd, Name: f.path, Data: f.data}
	}
	var buf bytes.Buffer
	written, err := New().Update(bytes.NewReader(nil), 0, ops, &buf, nil, nil)
	require.NoError(tb, err)
	require.Equal(tb, uint64(buf.Len()), written)
	return buf.Bytes()
}

func openArchive(tb testing.TB, raw []byte) *Archive {
	tb.Helper()
	a := New()
	require.NoError(tb, a.Open(bytes.NewReader(raw), uint64(len(raw)), nil))
	return a
}

var testFiles = []file{
	{path: "readme.md", data: []byte("# zstore sample")},
	{path: "data/blob.bin", data: bytes.Repeat([]byte{0x42, 0x13}, 4096)},
	{path: "empty", data: nil},
}

func TestCreateAndOpen(t *testing.T) {
	t.Parallel()

	raw := buildArchive(t, testFiles)
	a := openArchive(t, raw)

	require.Equal(t, len(testFiles), a.Count())
	for i, f := range testFiles {
		item, ok := a.Item(i)
		require.True(t, ok, "item %d", i)
		assert.Equal(t, f.path, item.Path)
		assert.Equal(t, uint64(len(f.data)), item.Size)
		assert.True(t, item.HasPackedSize)
		assert.True(t, item.HasCRC)
		assert.False(t, item.MTime.IsZero())
		assert.False(t, item.IsDir)
	}

	size, ok := a.PhysicalSize()
	require.True(t, ok)
	assert.Equal(t, uint64(len(raw)), size)

	_, ok = a.Item(len(testFiles))
	assert.False(t, ok)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("roundtrip", func(t *testing.T) {
		t.Parallel()

		a := openArchive(t, buildArchive(t, testFiles))
		for i, f := range testFiles {
			var out bytes.Buffer
			require.NoError(t, a.Extract(i, &out, nil))
			assert.Equal(t, f.data, out.Bytes(), "content of %q", f.path)
		}
	})

	t.Run("corrupted block", func(t *testing.T) {
		t.Parallel()

		raw := buildArchive(t, []file{{path: "x", data: bytes.Repeat([]byte("corruptme"), 100)}})
		// Flip a byte inside the compressed block, past the header.
		raw[headerSize+4] ^= 0xFF

		a := openArchive(t, raw)
		var out bytes.Buffer
		assert.Error(t, a.Extract(0, &out, nil))
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()

		a := openArchive(t, buildArchive(t, testFiles))
		var out bytes.Buffer
		assert.ErrorIs(t, a.Extract(99, &out, nil), arcfmt.ErrIndexOutOfRange)
	})

	t.Run("closed archive", func(t *testing.T) {
		t.Parallel()

		a := openArchive(t, buildArchive(t, testFiles))
		require.NoError(t, a.Close())

		var out bytes.Buffer
		assert.ErrorIs(t, a.Extract(0, &out, nil), arcfmt.ErrClosed)
	})
}

func TestOpenRejects(t *testing.T) {
	t.Parallel()

	valid := buildArchive(t, testFiles)

	cases := map[string]func() []byte{
		"too short": func() []byte {
			return []byte("ZS")
		},
		"bad magic": func() []byte {
			raw := append([]byte(nil), valid...)
			copy(raw, "NOPE")
			return raw
		},
		"bad version": func() []byte {
			raw := append([]byte(nil), valid...)
			raw[4] = 99
			return raw
		},
		"bad index magic": func() []byte {
			raw := append([]byte(nil), valid...)
			copy(raw[len(raw)-4:], "XXXX")
			return raw
		},
		"index offset out of bounds": func() []byte {
			raw := append([]byte(nil), valid...)
			for i := len(raw) - footerSize; i < len(raw)-4; i++ {
				raw[i] = 0xFF
			}
			return raw
		},
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			raw := corrupt()
			err := New().Open(bytes.NewReader(raw), uint64(len(raw)), nil)
			assert.ErrorIs(t, err, arcfmt.ErrInvalidFormat)
		})
	}
}

// craftedArchive assembles a structurally valid archive around a single
// attacker-controlled index entry.
func craftedArchive(tb testing.TB, packSize, offset uint64) []byte {
	tb.Helper()

	builder := flatbuffers.NewBuilder(256)
	pathOffset := builder.CreateString("bomb")
	fb.EntryStart(builder)
	fb.EntryAddPath(builder, pathOffset)
	fb.EntryAddSize(builder, 1)
	fb.EntryAddPackSize(builder, packSize)
	fb.EntryAddOffset(builder, offset)
	entryOffset := fb.EntryEnd(builder)

	fb.IndexStartEntriesVector(builder, 1)
	builder.PrependUOffsetT(entryOffset)
	entriesOffset := builder.EndVector(1)
	fb.IndexStart(builder)
	fb.IndexAddEntries(builder, entriesOffset)
	builder.Finish(fb.IndexEnd(builder))

	raw := append([]byte(magic), version)
	indexOffset := uint64(len(raw))
	raw = append(raw, builder.FinishedBytes()...)

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer[:8], indexOffset)
	copy(footer[8:], indexMagic)
	return append(raw, footer...)
}

func TestOpenRejectsHostileIndex(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		packSize uint64
		offset   uint64
	}{
		"oversized packed size":          {packSize: 1 << 60, offset: headerSize},
		"block offset past the archive":  {packSize: 8, offset: 1 << 40},
		"block offset inside the header": {packSize: 1, offset: 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			raw := craftedArchive(t, tc.packSize, tc.offset)
			err := New().Open(bytes.NewReader(raw), uint64(len(raw)), nil)
			assert.ErrorIs(t, err, arcfmt.ErrInvalidFormat)
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("copy keeps raw blocks and metadata", func(t *testing.T) {
		t.Parallel()

		raw := buildArchive(t, testFiles)
		old := openArchive(t, raw)
		oldItem, ok := old.Item(1)
		require.True(t, ok)

		ops := []arcfmt.UpdateOp{
			{Kind: arcfmt.UpdateCopy, SourceIndex: 1},
			{Kind: arcfmt.UpdateAdd, Name: "added.txt", Data: []byte("new content")},
		}
		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(raw), uint64(len(raw)), ops, &buf, nil, nil)
		require.NoError(t, err)

		a := openArchive(t, buf.Bytes())
		require.Equal(t, 2, a.Count())

		copied, _ := a.Item(0)
		assert.Equal(t, oldItem.Path, copied.Path)
		assert.Equal(t, oldItem.Size, copied.Size)
		assert.Equal(t, oldItem.CRC, copied.CRC)

		var out bytes.Buffer
		require.NoError(t, a.Extract(0, &out, nil))
		assert.Equal(t, testFiles[1].data, out.Bytes())

		out.Reset()
		require.NoError(t, a.Extract(1, &out, nil))
		assert.Equal(t, "new content", out.String())
	})

	t.Run("copy with rename", func(t *testing.T) {
		t.Parallel()

		raw := buildArchive(t, testFiles)
		ops := []arcfmt.UpdateOp{
			{Kind: arcfmt.UpdateCopy, SourceIndex: 0, NewName: "renamed.md"},
		}
		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(raw), uint64(len(raw)), ops, &buf, nil, nil)
		require.NoError(t, err)

		a := openArchive(t, buf.Bytes())
		item, _ := a.Item(0)
		assert.Equal(t, "renamed.md", item.Path)
	})

	t.Run("copy source out of range", func(t *testing.T) {
		t.Parallel()

		raw := buildArchive(t, testFiles)
		ops := []arcfmt.UpdateOp{{Kind: arcfmt.UpdateCopy, SourceIndex: 42}}
		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(raw), uint64(len(raw)), ops, &buf, nil, nil)
		assert.ErrorIs(t, err, arcfmt.ErrIndexOutOfRange)
	})

	t.Run("progress reports every entry", func(t *testing.T) {
		t.Parallel()

		var calls [][2]uint64
		progress := func(completed, total uint64) bool {
			calls = append(calls, [2]uint64{completed, total})
			return true
		}

		ops := []arcfmt.UpdateOp{
			{Kind: arcfmt.UpdateAdd, Name: "a", Data: []byte("1")},
			{Kind: arcfmt.UpdateAdd, Name: "b", Data: []byte("2")},
		}
		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(nil), 0, ops, &buf, progress, nil)
		require.NoError(t, err)
		assert.Equal(t, [][2]uint64{{1, 2}, {2, 2}}, calls)
	})

	t.Run("cancellation", func(t *testing.T) {
		t.Parallel()

		ops := []arcfmt.UpdateOp{
			{Kind: arcfmt.UpdateAdd, Name: "a", Data: []byte("1")},
			{Kind: arcfmt.UpdateAdd, Name: "b", Data: []byte("2")},
		}
		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(nil), 0, ops, &buf, func(completed, total uint64) bool {
			return completed < 1
		}, nil)
		assert.ErrorIs(t, err, ErrCancelled)
	})

	t.Run("encryption is unsupported", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := New().Update(bytes.NewReader(nil), 0, nil, &buf, nil, func() (string, bool, error) {
			return "pw", true, nil
		})
		assert.ErrorIs(t, err, arcfmt.ErrNotSupported)
	})

	t.Run("empty archive roundtrips", func(t *testing.T) {
		t.Parallel()

		raw := buildArchive(t, nil)
		a := openArchive(t, raw)
		assert.Zero(t, a.Count())
	})
}
