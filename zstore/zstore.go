//go:generate flatc --go --go-namespace fb -o internal schema/index.fbs

// Package zstore implements a small archive format with zstd-compressed
// entry blocks and a trailing index, as a complete format plugin. Layout:
// a 5-byte header (magic plus version), one compressed block per file entry,
// a FlatBuffers index describing every entry, and a 12-byte footer holding
// the index offset and the index magic.
package zstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/zstore/internal/fb"
)

const (
	magic      = "ZSTR"
	indexMagic = "ZSIX"
	version    = 1

	headerSize = 5
	footerSize = 12
)

// ErrCancelled is returned when the progress callback requests cancellation
// during an update.
var ErrCancelled = errors.New("zstore: update cancelled")

var classID = hostapi.FormatClassID(0xE7)

// Shared coders; EncodeAll and DecodeAll are safe for concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
}

type entry struct {
	item   arcfmt.Item
	offset uint64
}

// Archive is a zstore format instance, one per plugin object.
type Archive struct {
	r       io.ReadSeeker
	size    uint64
	entries []entry
	open    bool
}

var _ arcfmt.Updater = (*Archive)(nil)

// New returns an unopened zstore instance, suitable as a registry factory.
func New() *Archive { return &Archive{} }

func (a *Archive) Name() string         { return "zstore" }
func (a *Archive) Extension() string    { return "zsr" }
func (a *Archive) ClassID() uuid.UUID   { return classID }
func (a *Archive) Signature() []byte    { return []byte(magic) }
func (a *Archive) SupportsUpdate() bool { return true }

// SkipDirEntries reports true: directories exist only through entry paths.
func (a *Archive) SkipDirEntries() bool { return true }

// Open parses the index. zstore does not encrypt, so the password callback is
// ignored.
func (a *Archive) Open(r io.ReadSeeker, size uint64, _ arcfmt.PasswordFunc) error {
	entries, err := parse(r, size)
	if err != nil {
		return err
	}
	a.r = r
	a.size = size
	a.entries = entries
	a.open = true
	return nil
}

func parse(r io.ReadSeeker, size uint64) ([]entry, error) {
	if size < headerSize+footerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", arcfmt.ErrInvalidFormat, size)
	}

	header := make([]byte, headerSize)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if string(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", arcfmt.ErrInvalidFormat)
	}
	if header[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", arcfmt.ErrInvalidFormat, header[4])
	}

	footer := make([]byte, footerSize)
	if _, err := r.Seek(-footerSize, io.SeekEnd); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, footer); err != nil {
		return nil, err
	}
	if string(footer[8:]) != indexMagic {
		return nil, fmt.Errorf("%w: bad index magic", arcfmt.ErrInvalidFormat)
	}
	indexOffset := binary.LittleEndian.Uint64(footer[:8])
	if indexOffset < headerSize || indexOffset > size-footerSize {
		return nil, fmt.Errorf("%w: index offset %d out of bounds", arcfmt.ErrInvalidFormat, indexOffset)
	}

	if _, err := r.Seek(int64(indexOffset), io.SeekStart); err != nil {
		return nil, err
	}
	index := make([]byte, size-footerSize-indexOffset)
	if _, err := io.ReadFull(r, index); err != nil {
		return nil, err
	}
	return decodeIndex(index, indexOffset)
}

// decodeIndex parses the FlatBuffers index. dataEnd is the offset the index
// starts at; every entry's block must fit entirely inside [header, dataEnd)
// so a hostile index cannot drive reads or allocations past the archive.
func decodeIndex(b []byte, dataEnd uint64) ([]entry, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: truncated index", arcfmt.ErrInvalidFormat)
	}
	root := fb.GetRootAsIndex(b, 0)
	count := root.EntriesLength()

	entries := make([]entry, 0, count)
	var fe fb.Entry
	for i := 0; i < count; i++ {
		if !root.Entries(&fe, i) {
			return nil, fmt.Errorf("%w: missing index entry %d", arcfmt.ErrInvalidFormat, i)
		}
		item := arcfmt.Item{
			Path:          string(fe.Path()),
			Size:          fe.Size(),
			PackedSize:    fe.PackSize(),
			HasPackedSize: true,
			IsDir:         fe.Flags()&1 != 0,
		}
		if ns := fe.MtimeNs(); ns != 0 {
			item.MTime = time.Unix(0, ns).UTC()
		}
		offset := fe.Offset()
		if !item.IsDir {
			item.CRC = fe.Crc()
			item.HasCRC = true
			if offset < headerSize || offset > dataEnd || item.PackedSize > dataEnd-offset {
				return nil, fmt.Errorf("%w: entry %q block out of bounds", arcfmt.ErrInvalidFormat, item.Path)
			}
		}
		entries = append(entries, entry{item: item, offset: offset})
	}
	return entries, nil
}

// Count implements the read side.
func (a *Archive) Count() int { return len(a.entries) }

// Item implements the read side.
func (a *Archive) Item(index int) (arcfmt.Item, bool) {
	if index < 0 || index >= len(a.entries) {
		return arcfmt.Item{}, false
	}
	return a.entries[index].item, true
}

// Extract decompresses one entry into w, verifying the stored checksum.
func (a *Archive) Extract(index int, w io.Writer, _ arcfmt.PasswordFunc) error {
	if !a.open {
		return arcfmt.ErrClosed
	}
	if index < 0 || index >= len(a.entries) {
		return arcfmt.ErrIndexOutOfRange
	}
	e := a.entries[index]
	if e.item.IsDir {
		return nil
	}

	raw, err := a.readBlock(e)
	if err != nil {
		return err
	}
	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("zstore: decompress %q: %w", e.item.Path, err)
	}
	if crc32.ChecksumIEEE(data) != e.item.CRC {
		return fmt.Errorf("%w: checksum mismatch for %q", arcfmt.ErrInvalidFormat, e.item.Path)
	}
	_, err = w.Write(data)
	return err
}

// readBlock reads an entry's raw compressed block.
func (a *Archive) readBlock(e entry) ([]byte, error) {
	return readBlockFrom(a.r, e)
}

// PhysicalSize reports the parsed archive size.
func (a *Archive) PhysicalSize() (uint64, bool) {
	if !a.open {
		return 0, false
	}
	return a.size, true
}

// Close drops parse state. Idempotent.
func (a *Archive) Close() error {
	a.r = nil
	a.entries = nil
	a.size = 0
	a.open = false
	return nil
}
