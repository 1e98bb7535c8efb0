// Package stream adapts opaque host stream handles to the io interfaces
// format logic consumes. The adapters are thin and allocation-free per call;
// format implementations never see the host's handle representation.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/ferrum-io/hostarc/hostapi"
)

// Sentinel errors for host stream faults.
var (
	// ErrNilStream is returned when a required host stream handle is nil.
	ErrNilStream = errors.New("hostarc: nil host stream")

	// ErrWriteFault is returned when the host reports zero bytes written for
	// a non-empty write attempt.
	ErrWriteFault = errors.New("hostarc: host stream refused write")
)

// Reader presents a host input stream handle as an io.ReadSeeker.
//
// Construction discovers the total size by seeking to the end and back,
// because the host does not pass size as a separate field.
type Reader struct {
	src  hostapi.InStream
	size uint64
}

// NewReader wraps src, leaving its cursor at the start.
func NewReader(src hostapi.InStream) (*Reader, error) {
	if src == nil {
		return nil, ErrNilStream
	}
	size, st := src.Seek(0, hostapi.SeekOriginEnd)
	if !st.Ok() {
		return nil, fmt.Errorf("hostarc: query stream size: %v", st)
	}
	if _, st := src.Seek(0, hostapi.SeekOriginStart); !st.Ok() {
		return nil, fmt.Errorf("hostarc: rewind stream: %v", st)
	}
	return &Reader{src: src, size: size}, nil
}

// Size returns the total stream size in bytes.
func (r *Reader) Size() uint64 { return r.size }

// Read implements io.Reader. Host short reads pass through; a zero-byte read
// on a non-empty buffer maps to io.EOF.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, st := r.src.Read(p)
	if !st.Ok() {
		return 0, fmt.Errorf("hostarc: host stream read: %v", st)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

// Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var origin hostapi.SeekOrigin
	switch whence {
	case io.SeekStart:
		origin = hostapi.SeekOriginStart
	case io.SeekCurrent:
		origin = hostapi.SeekOriginCurrent
	case io.SeekEnd:
		origin = hostapi.SeekOriginEnd
	default:
		return 0, fmt.Errorf("hostarc: invalid seek whence %d", whence)
	}
	pos, st := r.src.Seek(offset, origin)
	if !st.Ok() {
		return 0, fmt.Errorf("hostarc: host stream seek: %v", st)
	}
	return int64(pos), nil
}

// ReadAll drains a sequential host stream to memory. Update collection uses
// this because the host does not guarantee the stream outlives the call that
// received it.
func ReadAll(src hostapi.SequentialInStream) ([]byte, error) {
	if src == nil {
		return nil, ErrNilStream
	}
	var out []byte
	buf := make([]byte, 64*1024)
	for {
		n, st := src.Read(buf)
		if !st.Ok() {
			return nil, fmt.Errorf("hostarc: host stream read: %v", st)
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, buf[:n]...)
	}
}
