// Package object implements the plugin object: the single allocated unit the
// host holds a handle to. It owns the wrapped format implementation, an
// atomic reference count, an optional reference to the attached host input
// stream, and the two host-visible facets (read and write) backed by the one
// object.
package object

import (
	"log/slog"
	"sync/atomic"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/variant"
)

// Object is one plugin object. Its first field is the read-interface
// dispatch-table pointer, the host's minimal contract for recognizing the
// object; the write facet carries the write table the same way.
type Object struct {
	in    *hostapi.InArchiveTable
	facet *WriteFacet

	refs atomic.Int32

	impl   arcfmt.Reader
	arena  *variant.Arena
	stream hostapi.InStream
	size   uint64
	open   bool

	logger *slog.Logger
}

// WriteFacet is the secondary allocation presenting the write interface.
// Its first field is the write dispatch-table pointer; base resolves back to
// the owning object in O(1) without allocating.
type WriteFacet struct {
	out  *hostapi.OutArchiveTable
	base *Object
}

// New creates an object wrapping impl with a reference count of 1.
func New(impl arcfmt.Reader, in *hostapi.InArchiveTable, out *hostapi.OutArchiveTable, logger *slog.Logger) *Object {
	o := &Object{
		in:     in,
		impl:   impl,
		arena:  variant.NewArena(),
		logger: logger,
	}
	o.facet = &WriteFacet{out: out, base: o}
	o.refs.Store(1)
	return o
}

// Dispatch implements hostapi.Handle for the read facet.
func (o *Object) Dispatch() any { return o.in }

// Dispatch implements hostapi.Handle for the write facet.
func (f *WriteFacet) Dispatch() any { return f.out }

// Base returns the owning object of a write facet.
func (f *WriteFacet) Base() *Object { return f.base }

// Resolve recovers the owning object from either facet handle.
func Resolve(h hostapi.Handle) (*Object, bool) {
	switch v := h.(type) {
	case *Object:
		return v, true
	case *WriteFacet:
		return v.base, true
	default:
		return nil, false
	}
}

// Impl returns the wrapped format implementation.
func (o *Object) Impl() arcfmt.Reader { return o.impl }

// Arena returns the payload arena used for property marshaling on this
// object.
func (o *Object) Arena() *variant.Arena { return o.arena }

// Log returns the object's logger, falling back to a discard logger.
func (o *Object) Log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

// IsOpen reports whether open succeeded and close has not run since.
func (o *Object) IsOpen() bool { return o.open }

// SetOpen records the open/closed state.
func (o *Object) SetOpen(open bool) { o.open = open }

// Size returns the cached archive byte size.
func (o *Object) Size() uint64 { return o.size }

// SetSize caches the archive byte size.
func (o *Object) SetSize(size uint64) { o.size = size }

// Stream returns the attached host input stream, or nil.
func (o *Object) Stream() hostapi.InStream { return o.stream }

// AttachStream takes a shared reference on s (when it participates in the
// host's reference counting) and releases any previously attached stream.
// The object holds exactly one reference per attached stream.
func (o *Object) AttachStream(s hostapi.InStream) {
	o.DetachStream()
	if s == nil {
		return
	}
	if u, ok := s.(hostapi.Unknown); ok {
		u.AddRef()
	}
	o.stream = s
}

// DetachStream releases the held stream reference, exactly once.
func (o *Object) DetachStream() {
	if o.stream == nil {
		return
	}
	if u, ok := o.stream.(hostapi.Unknown); ok {
		u.Release()
	}
	o.stream = nil
}

// AddRef increments the reference count and returns the new count.
func (o *Object) AddRef() uint32 {
	return uint32(o.refs.Add(1))
}

// Release decrements the reference count and destroys the object when it
// reaches zero. The atomic decrement makes the zero transition observable by
// exactly one caller, so destruction runs exactly once even under concurrent
// releases.
func (o *Object) Release() uint32 {
	n := o.refs.Add(-1)
	if n == 0 {
		o.destroy()
	}
	return uint32(n)
}

// Refs reports the current reference count.
func (o *Object) Refs() int32 { return o.refs.Load() }

func (o *Object) destroy() {
	o.DetachStream()
	if err := o.impl.Close(); err != nil {
		o.Log().Debug("format close on destroy failed", "error", err)
	}
	o.open = false
}

// QueryInterface implements identity-query over both facets. The base and
// read identifiers resolve to the object itself; the write identifier
// resolves to the write facet when the format supports update. Every
// successful query adds one reference.
func (o *Object) QueryInterface(iid hostapi.IID) (hostapi.Handle, hostapi.Status) {
	switch iid {
	case hostapi.IIDUnknown, hostapi.IIDInArchive:
		o.AddRef()
		return o, hostapi.StatusOK
	case hostapi.IIDOutArchive:
		if !o.impl.SupportsUpdate() {
			return nil, hostapi.StatusNoInterface
		}
		o.AddRef()
		return o.facet, hostapi.StatusOK
	default:
		return nil, hostapi.StatusNoInterface
	}
}

// Facet returns the write facet without adding a reference. Callers that
// hand it to the host add the reference themselves.
func (o *Object) Facet() *WriteFacet { return o.facet }
