// Package hostio provides ready-made host stream handles over standard io
// values. An embedding host (or a test harness) uses these to hand archive
// data to plugin objects without writing its own handle plumbing.
//
// Input handles follow the host's reference-counting convention: they are
// created with one reference, the bridge adds one while an object holds the
// stream, and the underlying closer runs when the count reaches zero.
package hostio

import (
	"errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/ferrum-io/hostarc/hostapi"
)

// InStream is a reference-counted hostapi.InStream over an io.ReadSeeker.
type InStream struct {
	refs   atomic.Int32
	r      io.ReadSeeker
	closer io.Closer
}

var _ hostapi.InStream = (*InStream)(nil)
var _ hostapi.Unknown = (*InStream)(nil)

// NewInStream wraps r as a host input stream handle with one reference.
func NewInStream(r io.ReadSeeker) *InStream {
	s := &InStream{r: r}
	s.refs.Store(1)
	return s
}

// OpenFile opens path and wraps it as a host input stream handle. The file
// closes when the last reference is released.
func OpenFile(path string) (*InStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := NewInStream(f)
	s.closer = f
	return s, nil
}

// QueryInterface implements hostapi.Unknown. Streams expose no secondary
// capabilities.
func (s *InStream) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown {
		s.AddRef()
		return s, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

// AddRef implements hostapi.Unknown.
func (s *InStream) AddRef() uint32 {
	return uint32(s.refs.Add(1))
}

// Release implements hostapi.Unknown, closing the underlying file when the
// last reference drops.
func (s *InStream) Release() uint32 {
	n := s.refs.Add(-1)
	if n == 0 && s.closer != nil {
		_ = s.closer.Close()
	}
	return uint32(n)
}

// Refs reports the current reference count.
func (s *InStream) Refs() int32 { return s.refs.Load() }

// Read implements hostapi.SequentialInStream.
func (s *InStream) Read(p []byte) (uint32, hostapi.Status) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return uint32(n), hostapi.StatusFail
	}
	return uint32(n), hostapi.StatusOK
}

// Seek implements hostapi.InStream.
func (s *InStream) Seek(offset int64, origin hostapi.SeekOrigin) (uint64, hostapi.Status) {
	var whence int
	switch origin {
	case hostapi.SeekOriginStart:
		whence = io.SeekStart
	case hostapi.SeekOriginCurrent:
		whence = io.SeekCurrent
	case hostapi.SeekOriginEnd:
		whence = io.SeekEnd
	default:
		return 0, hostapi.StatusInvalidArg
	}
	pos, err := s.r.Seek(offset, whence)
	if err != nil {
		return 0, hostapi.StatusFail
	}
	return uint64(pos), hostapi.StatusOK
}

// OutStream is a hostapi.SequentialOutStream over an io.Writer.
type OutStream struct {
	w io.Writer
}

var _ hostapi.SequentialOutStream = (*OutStream)(nil)

// NewOutStream wraps w as a host output stream handle.
func NewOutStream(w io.Writer) *OutStream {
	return &OutStream{w: w}
}

// Write implements hostapi.SequentialOutStream.
func (s *OutStream) Write(p []byte) (uint32, hostapi.Status) {
	n, err := s.w.Write(p)
	if err != nil {
		return uint32(n), hostapi.StatusFail
	}
	return uint32(n), hostapi.StatusOK
}
