package hosttest

import (
	"bytes"
	"sync/atomic"

	"github.com/ferrum-io/hostarc/hostapi"
)

// OutStream is a counted in-memory output stream handle. Tests assert on
// Releases to verify the bridge drops exactly one reference per stream.
type OutStream struct {
	Buf      bytes.Buffer
	Releases atomic.Int32

	// ShortAfter, when positive, makes writes report zero bytes once that
	// many bytes have been accepted.
	ShortAfter int
}

var _ hostapi.SequentialOutStream = (*OutStream)(nil)
var _ hostapi.Unknown = (*OutStream)(nil)

func (s *OutStream) Write(p []byte) (uint32, hostapi.Status) {
	if s.ShortAfter > 0 && s.Buf.Len() >= s.ShortAfter {
		return 0, hostapi.StatusOK
	}
	n, _ := s.Buf.Write(p)
	return uint32(n), hostapi.StatusOK
}

func (s *OutStream) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown {
		s.AddRef()
		return s, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (s *OutStream) AddRef() uint32  { return 1 }
func (s *OutStream) Release() uint32 { s.Releases.Add(1); return 0 }

// InStream is a counted in-memory sequential input stream handle.
type InStream struct {
	r        *bytes.Reader
	Releases atomic.Int32

	// FailRead makes every read report a failure status.
	FailRead bool
}

var _ hostapi.SequentialInStream = (*InStream)(nil)
var _ hostapi.Unknown = (*InStream)(nil)

// NewInStream returns a counted stream over data.
func NewInStream(data []byte) *InStream {
	return &InStream{r: bytes.NewReader(data)}
}

func (s *InStream) Read(p []byte) (uint32, hostapi.Status) {
	if s.FailRead {
		return 0, hostapi.StatusFail
	}
	n, _ := s.r.Read(p)
	return uint32(n), hostapi.StatusOK
}

func (s *InStream) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown {
		s.AddRef()
		return s, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (s *InStream) AddRef() uint32  { return 1 }
func (s *InStream) Release() uint32 { s.Releases.Add(1); return 0 }
