package engine

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/hostio"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/internal/hosttest"
	"github.com/ferrum-io/hostarc/variant"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("attaches stream and caches size", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newObject(t, impl)
		s := hostio.NewInStream(bytes.NewReader([]byte("archive bytes")))

		st := open(o, s, nil, nil)
		require.Equal(t, hostapi.StatusOK, st)

		assert.True(t, o.IsOpen())
		assert.Equal(t, uint64(13), o.Size())
		assert.Equal(t, uint64(13), impl.OpenedSize)
		assert.Equal(t, int32(2), s.Refs())
	})

	t.Run("parse failure reports false without keeping the stream", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{OpenErr: arcfmt.ErrInvalidFormat}
		o := newObject(t, impl)
		s := hostio.NewInStream(bytes.NewReader([]byte("not an archive")))

		st := open(o, s, nil, nil)
		assert.Equal(t, hostapi.StatusFalse, st)
		assert.False(t, o.IsOpen())
		assert.Equal(t, int32(1), s.Refs())
	})

	t.Run("nil stream", func(t *testing.T) {
		t.Parallel()

		o := newObject(t, &hosttest.FakeFormat{})
		assert.Equal(t, hostapi.StatusInvalidArg, open(o, nil, nil, nil))
	})

	t.Run("reopen drops the stale stream reference", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newObject(t, impl)
		first := hostio.NewInStream(bytes.NewReader([]byte("one")))
		second := hostio.NewInStream(bytes.NewReader([]byte("two")))

		require.Equal(t, hostapi.StatusOK, open(o, first, nil, nil))
		require.Equal(t, hostapi.StatusOK, open(o, second, nil, nil))

		assert.Equal(t, int32(1), first.Refs())
		assert.Equal(t, int32(2), second.Refs())
	})

	t.Run("password flows to the format", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newObject(t, impl)
		s := hostio.NewInStream(bytes.NewReader([]byte("enc")))
		cb := &hosttest.OpenRecorder{Password: &hosttest.PasswordCap{Password: "secret"}}

		require.Equal(t, hostapi.StatusOK, open(o, s, nil, cb))

		assert.True(t, impl.PasswordAsked)
		assert.True(t, impl.PasswordOK)
		assert.Equal(t, "secret", impl.Password)
		assert.Equal(t, int32(1), cb.Password.Releases.Load())
	})

	t.Run("password cancel means no password", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newObject(t, impl)
		s := hostio.NewInStream(bytes.NewReader([]byte("enc")))
		cb := &hosttest.OpenRecorder{Password: &hosttest.PasswordCap{Cancel: true}}

		require.Equal(t, hostapi.StatusOK, open(o, s, nil, cb))

		assert.True(t, impl.PasswordAsked)
		assert.False(t, impl.PasswordOK)
		assert.Equal(t, int32(1), cb.Password.Releases.Load())
	})

	t.Run("no capability means nil password callback", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newObject(t, impl)
		s := hostio.NewInStream(bytes.NewReader([]byte("plain")))

		require.Equal(t, hostapi.StatusOK, open(o, s, nil, nil))
		assert.False(t, impl.PasswordAsked)
	})
}

func TestCloseArchive(t *testing.T) {
	t.Parallel()

	impl := &hosttest.FakeFormat{}
	o, s := newOpenObject(t, impl, []byte("archive"))

	st := closeArchive(o)
	require.Equal(t, hostapi.StatusOK, st)

	assert.False(t, o.IsOpen())
	assert.Zero(t, o.Size())
	assert.Equal(t, 1, impl.Closed)
	assert.Equal(t, int32(1), s.Refs())
}

func TestGetNumberOfItems(t *testing.T) {
	t.Parallel()

	impl := &hosttest.FakeFormat{Entries: make([]arcfmt.Item, 4)}
	o, _ := newOpenObject(t, impl, nil)

	n, st := getNumberOfItems(o)
	require.Equal(t, hostapi.StatusOK, st)
	assert.Equal(t, uint32(4), n)
}

func TestGetProperty(t *testing.T) {
	t.Parallel()

	mtime := mustTime(t, "2024-05-01T10:30:00Z")
	impl := &hosttest.FakeFormat{
		Entries: []arcfmt.Item{
			{
				Path:          "docs/readme.txt",
				Size:          1234,
				PackedSize:    777,
				HasPackedSize: true,
				MTime:         mtime,
				Attributes:    0x20,
				HasAttributes: true,
				CRC:           0xDEADBEEF,
				HasCRC:        true,
			},
			{Path: "docs", IsDir: true},
		},
	}
	o, _ := newOpenObject(t, impl, nil)
	a := variant.NewArena()

	t.Run("string property", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropPath, &v, a))
		got, ok := v.String(a)
		require.True(t, ok)
		assert.Equal(t, "docs/readme.txt", got)
		v.Clear(a)
	})

	t.Run("numeric properties", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropSize, &v, a))
		size, ok := v.Uint64()
		require.True(t, ok)
		assert.Equal(t, uint64(1234), size)

		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropPackSize, &v, a))
		packed, ok := v.Uint64()
		require.True(t, ok)
		assert.Equal(t, uint64(777), packed)

		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropCRC, &v, a))
		crc, ok := v.Uint32()
		require.True(t, ok)
		assert.Equal(t, uint32(0xDEADBEEF), crc)
	})

	t.Run("timestamp", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropMTime, &v, a))
		ticks, ok := v.FileTime()
		require.True(t, ok)
		assert.True(t, variant.TimeFromFileTime(ticks).Equal(mtime))
	})

	t.Run("absent optionals are empty", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 1, hostapi.PropPackSize, &v, a))
		assert.Equal(t, variant.TagEmpty, v.Tag)

		require.Equal(t, hostapi.StatusOK, getProperty(o, 1, hostapi.PropMTime, &v, a))
		assert.Equal(t, variant.TagEmpty, v.Tag)

		require.Equal(t, hostapi.StatusOK, getProperty(o, 1, hostapi.PropCRC, &v, a))
		assert.Equal(t, variant.TagEmpty, v.Tag)
	})

	t.Run("directory flag", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 1, hostapi.PropIsDir, &v, a))
		isDir, ok := v.Bool()
		require.True(t, ok)
		assert.True(t, isDir)
	})

	t.Run("index out of range", func(t *testing.T) {
		var v variant.Variant
		assert.Equal(t, hostapi.StatusInvalidArg, getProperty(o, 9, hostapi.PropPath, &v, a))
	})

	t.Run("unknown property is empty", func(t *testing.T) {
		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropID(999), &v, a))
		assert.Equal(t, variant.TagEmpty, v.Tag)
	})
}

func TestGetArchiveProperty(t *testing.T) {
	t.Parallel()

	t.Run("format-tracked physical size wins", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{PhySize: 4096, PhySizeOK: true}
		o, _ := newOpenObject(t, impl, make([]byte, 100))
		a := variant.NewArena()

		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getArchiveProperty(o, hostapi.PropPhySize, &v, a))
		size, ok := v.Uint64()
		require.True(t, ok)
		assert.Equal(t, uint64(4096), size)
	})

	t.Run("falls back to the stream size", func(t *testing.T) {
		t.Parallel()

		o, _ := newOpenObject(t, &hosttest.FakeFormat{}, make([]byte, 100))
		a := variant.NewArena()

		var v variant.Variant
		require.Equal(t, hostapi.StatusOK, getArchiveProperty(o, hostapi.PropPhySize, &v, a))
		size, ok := v.Uint64()
		require.True(t, ok)
		assert.Equal(t, uint64(100), size)
	})
}

func TestPropertyEnumeration(t *testing.T) {
	t.Parallel()

	o, _ := newOpenObject(t, &hosttest.FakeFormat{}, nil)

	n, st := getNumberOfProperties(o)
	require.Equal(t, hostapi.StatusOK, st)
	assert.Equal(t, uint32(len(itemProps)), n)

	info, st := getPropertyInfo(o, 0)
	require.Equal(t, hostapi.StatusOK, st)
	assert.Equal(t, hostapi.PropPath, info.ID)
	assert.Equal(t, variant.TagString, info.Type)

	_, st = getPropertyInfo(o, n)
	assert.Equal(t, hostapi.StatusInvalidArg, st)

	n, st = getNumberOfArchiveProperties(o)
	require.Equal(t, hostapi.StatusOK, st)
	assert.Equal(t, uint32(1), n)

	info, st = getArchivePropertyInfo(o, 0)
	require.Equal(t, hostapi.StatusOK, st)
	assert.Equal(t, hostapi.PropPhySize, info.ID)

	_, st = getArchivePropertyInfo(o, 1)
	assert.Equal(t, hostapi.StatusInvalidArg, st)
}

func TestGetPropertyArenaHygiene(t *testing.T) {
	t.Parallel()

	impl := &hosttest.FakeFormat{Entries: []arcfmt.Item{{Path: "a", Size: 1}}}
	o, _ := newOpenObject(t, impl, nil)
	a := variant.NewArena()

	var v variant.Variant
	for i := 0; i < 100; i++ {
		require.Equal(t, hostapi.StatusOK, getProperty(o, 0, hostapi.PropPath, &v, a))
		v.Clear(a)
	}
	assert.Zero(t, a.Len())
}

func mustTime(tb testing.TB, value string) time.Time {
	tb.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(tb, err)
	return parsed
}
