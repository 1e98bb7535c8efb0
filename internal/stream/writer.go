package stream

import (
	"fmt"

	"github.com/ferrum-io/hostarc/hostapi"
)

// Writer presents a host output stream handle as an io.Writer that
// accumulates all bytes or fails.
type Writer struct {
	dst hostapi.SequentialOutStream
}

// NewWriter wraps dst.
func NewWriter(dst hostapi.SequentialOutStream) *Writer {
	return &Writer{dst: dst}
}

// Write implements io.Writer. Host partial writes are retried until the
// buffer is consumed; a zero-byte report on a non-empty chunk is a write
// fault.
func (w *Writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, st := w.dst.Write(p[written:])
		if !st.Ok() {
			return written, fmt.Errorf("hostarc: host stream write: %v", st)
		}
		if n == 0 {
			return written, ErrWriteFault
		}
		written += int(n)
	}
	return written, nil
}
