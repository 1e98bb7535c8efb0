package engine

import (
	"bytes"
	"testing"

	"github.com/ferrum-io/hostarc/hostio"
	"github.com/ferrum-io/hostarc/internal/hosttest"
	"github.com/ferrum-io/hostarc/internal/object"
)

// newObject wraps impl in a plugin object with fully wired dispatch tables.
func newObject(tb testing.TB, impl *hosttest.FakeFormat) *object.Object {
	tb.Helper()
	return object.New(impl, BuildInTable(), BuildOutTable(impl.Updatable), nil)
}

// newOpenObject additionally marks the object open over an in-memory archive
// stream, the state extract and update normally start from.
func newOpenObject(tb testing.TB, impl *hosttest.FakeFormat, archive []byte) (*object.Object, *hostio.InStream) {
	tb.Helper()
	o := newObject(tb, impl)
	s := hostio.NewInStream(bytes.NewReader(archive))
	o.AttachStream(s)
	o.SetSize(uint64(len(archive)))
	o.SetOpen(true)
	return o, s
}
