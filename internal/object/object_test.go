package object

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/hostio"
	"github.com/ferrum-io/hostarc/internal/hosttest"
)

func newTestObject(impl *hosttest.FakeFormat) *Object {
	return New(impl, &hostapi.InArchiveTable{}, &hostapi.OutArchiveTable{}, nil)
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("starts with one reference", func(t *testing.T) {
		t.Parallel()

		o := newTestObject(&hosttest.FakeFormat{})
		assert.Equal(t, int32(1), o.Refs())
	})

	t.Run("release destroys exactly once", func(t *testing.T) {
		t.Parallel()

		impl := &hosttest.FakeFormat{}
		o := newTestObject(impl)

		assert.Equal(t, uint32(2), o.AddRef())
		assert.Equal(t, uint32(1), o.Release())
		assert.Zero(t, impl.Closed)

		assert.Equal(t, uint32(0), o.Release())
		assert.Equal(t, 1, impl.Closed)
	})

	t.Run("concurrent releases destroy once", func(t *testing.T) {
		t.Parallel()

		const extra = 99
		impl := &hosttest.FakeFormat{}
		o := newTestObject(impl)
		for i := 0; i < extra; i++ {
			o.AddRef()
		}

		var wg sync.WaitGroup
		for i := 0; i < extra+1; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o.Release()
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(0), o.Refs())
		assert.Equal(t, 1, impl.Closed)
	})

	t.Run("destroy releases attached stream", func(t *testing.T) {
		t.Parallel()

		s := hostio.NewInStream(bytes.NewReader([]byte("data")))
		o := newTestObject(&hosttest.FakeFormat{})
		o.AttachStream(s)
		assert.Equal(t, int32(2), s.Refs())

		o.Release()
		assert.Equal(t, int32(1), s.Refs())
	})
}

func TestAttachStream(t *testing.T) {
	t.Parallel()

	t.Run("replacing releases the prior stream", func(t *testing.T) {
		t.Parallel()

		first := hostio.NewInStream(bytes.NewReader(nil))
		second := hostio.NewInStream(bytes.NewReader(nil))
		o := newTestObject(&hosttest.FakeFormat{})

		o.AttachStream(first)
		o.AttachStream(second)
		assert.Equal(t, int32(1), first.Refs())
		assert.Equal(t, int32(2), second.Refs())
	})

	t.Run("detach is idempotent", func(t *testing.T) {
		t.Parallel()

		s := hostio.NewInStream(bytes.NewReader(nil))
		o := newTestObject(&hosttest.FakeFormat{})
		o.AttachStream(s)

		o.DetachStream()
		o.DetachStream()
		assert.Equal(t, int32(1), s.Refs())
	})
}

func TestQueryInterface(t *testing.T) {
	t.Parallel()

	t.Run("base and read identifiers return the object", func(t *testing.T) {
		t.Parallel()

		o := newTestObject(&hosttest.FakeFormat{})

		h, st := o.QueryInterface(hostapi.IIDUnknown)
		require.Equal(t, hostapi.StatusOK, st)
		assert.Same(t, o, h)
		assert.Equal(t, int32(2), o.Refs())

		h, st = o.QueryInterface(hostapi.IIDInArchive)
		require.Equal(t, hostapi.StatusOK, st)
		assert.Same(t, o, h)
		assert.Equal(t, int32(3), o.Refs())
	})

	t.Run("write identifier needs update support", func(t *testing.T) {
		t.Parallel()

		o := newTestObject(&hosttest.FakeFormat{})
		h, st := o.QueryInterface(hostapi.IIDOutArchive)
		assert.Equal(t, hostapi.StatusNoInterface, st)
		assert.Nil(t, h)
		assert.Equal(t, int32(1), o.Refs())
	})

	t.Run("write facet resolves to the same object", func(t *testing.T) {
		t.Parallel()

		o := newTestObject(&hosttest.FakeFormat{Updatable: true})
		h, st := o.QueryInterface(hostapi.IIDOutArchive)
		require.Equal(t, hostapi.StatusOK, st)
		assert.Equal(t, int32(2), o.Refs())

		facet, ok := h.(*WriteFacet)
		require.True(t, ok)

		resolved, ok := Resolve(facet)
		require.True(t, ok)
		assert.Same(t, o, resolved)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		t.Parallel()

		o := newTestObject(&hosttest.FakeFormat{})
		_, st := o.QueryInterface(hostapi.IIDCryptoGetTextPassword)
		assert.Equal(t, hostapi.StatusNoInterface, st)
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	o := newTestObject(&hosttest.FakeFormat{})

	got, ok := Resolve(o)
	require.True(t, ok)
	assert.Same(t, o, got)

	got, ok = Resolve(o.Facet())
	require.True(t, ok)
	assert.Same(t, o, got)

	_, ok = Resolve(nil)
	assert.False(t, ok)
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	in := &hostapi.InArchiveTable{}
	out := &hostapi.OutArchiveTable{}
	o := New(&hosttest.FakeFormat{}, in, out, nil)

	assert.Same(t, in, o.Dispatch())
	assert.Same(t, out, o.Facet().Dispatch())
}
