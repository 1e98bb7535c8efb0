// Package hosttest provides a scriptable fake format implementation and
// recording host callbacks for exercising the dispatch and protocol layers
// without a real archive format.
package hosttest

import (
	"io"

	"github.com/google/uuid"

	"github.com/ferrum-io/hostarc/internal/arcfmt"
)

// FakeFormat is an in-memory format implementation. Zero-value fields give a
// minimal read-only format; tests script behavior through the exported
// fields and inspect what the bridge drove into it afterwards.
type FakeFormat struct {
	FormatName string
	Ext        string
	ID         uuid.UUID
	Magic      []byte
	Updatable  bool
	SkipDirs   bool

	// Entries and Content describe the opened archive. Content is indexed
	// like Entries; missing content extracts as empty.
	Entries []arcfmt.Item
	Content [][]byte

	PhySize   uint64
	PhySizeOK bool

	OpenErr    error
	ExtractErr map[int]error
	UpdateErr  error

	// Recorded by the calls the bridge makes.
	Opened          bool
	OpenedSize      uint64
	Closed          int
	PasswordAsked   bool
	Password        string
	PasswordOK      bool
	RecordedOps     []arcfmt.UpdateOp
	UpdateExistSize uint64

	// ProgressTicks controls how many progress reports Update emits; the
	// reports step evenly toward ProgressTicks units of total.
	ProgressTicks uint64
}

var _ arcfmt.Updater = (*FakeFormat)(nil)

func (f *FakeFormat) Name() string {
	if f.FormatName == "" {
		return "fake"
	}
	return f.FormatName
}

func (f *FakeFormat) Extension() string   { return f.Ext }
func (f *FakeFormat) ClassID() uuid.UUID  { return f.ID }
func (f *FakeFormat) Signature() []byte   { return f.Magic }
func (f *FakeFormat) SupportsUpdate() bool { return f.Updatable }
func (f *FakeFormat) SkipDirEntries() bool { return f.SkipDirs }

func (f *FakeFormat) Open(_ io.ReadSeeker, size uint64, password arcfmt.PasswordFunc) error {
	f.OpenedSize = size
	if password != nil {
		f.PasswordAsked = true
		f.Password, f.PasswordOK, _ = password()
	}
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.Opened = true
	return nil
}

func (f *FakeFormat) Count() int { return len(f.Entries) }

func (f *FakeFormat) Item(index int) (arcfmt.Item, bool) {
	if index < 0 || index >= len(f.Entries) {
		return arcfmt.Item{}, false
	}
	return f.Entries[index], true
}

func (f *FakeFormat) Extract(index int, w io.Writer, _ arcfmt.PasswordFunc) error {
	if err := f.ExtractErr[index]; err != nil {
		return err
	}
	if index < len(f.Content) {
		if _, err := w.Write(f.Content[index]); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeFormat) PhysicalSize() (uint64, bool) { return f.PhySize, f.PhySizeOK }

func (f *FakeFormat) Close() error {
	f.Closed++
	f.Opened = false
	return nil
}

func (f *FakeFormat) Update(existing io.ReadSeeker, existingSize uint64, ops []arcfmt.UpdateOp, w io.Writer, progress arcfmt.ProgressFunc, password arcfmt.PasswordFunc) (uint64, error) {
	f.RecordedOps = ops
	f.UpdateExistSize = existingSize
	if password != nil {
		f.PasswordAsked = true
		f.Password, f.PasswordOK, _ = password()
	}

	if progress != nil && f.ProgressTicks > 0 {
		for i := uint64(1); i <= f.ProgressTicks; i++ {
			progress(i, f.ProgressTicks)
		}
	}

	if f.UpdateErr != nil {
		return 0, f.UpdateErr
	}

	var written uint64
	for _, op := range ops {
		switch op.Kind {
		case arcfmt.UpdateAdd:
			n, err := w.Write(op.Data)
			if err != nil {
				return written, err
			}
			written += uint64(n)
		case arcfmt.UpdateCopy:
			if op.SourceIndex < 0 || op.SourceIndex >= len(f.Entries) {
				return written, arcfmt.ErrIndexOutOfRange
			}
			if op.SourceIndex < len(f.Content) {
				n, err := w.Write(f.Content[op.SourceIndex])
				if err != nil {
					return written, err
				}
				written += uint64(n)
			}
		}
	}
	return written, nil
}
