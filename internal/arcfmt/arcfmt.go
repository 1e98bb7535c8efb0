// Package arcfmt holds the format implementation contract and the item and
// update descriptor types shared between the bridge layers. The root package
// re-exports these for plugin authors.
package arcfmt

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by format implementations and the bridge.
var (
	// ErrInvalidFormat is returned when archive data cannot be parsed.
	ErrInvalidFormat = errors.New("hostarc: invalid archive format")

	// ErrIndexOutOfRange is returned for an item index beyond the archive.
	ErrIndexOutOfRange = errors.New("hostarc: item index out of range")

	// ErrNotSupported is returned for operations a format does not support.
	ErrNotSupported = errors.New("hostarc: operation not supported")

	// ErrClosed is returned for content operations on a closed object.
	ErrClosed = errors.New("hostarc: archive is closed")
)

// Item describes a single entry of an opened archive. Items are produced and
// owned by the format implementation; the bridge reads them only.
type Item struct {
	// Path is the entry's name within the archive.
	Path string

	// Size is the uncompressed size in bytes.
	Size uint64

	// PackedSize is the stored size. Valid only when HasPackedSize is set.
	PackedSize    uint64
	HasPackedSize bool

	// Timestamps. The zero time means absent.
	MTime time.Time
	CTime time.Time
	ATime time.Time

	// Attributes carries host-style file attributes when HasAttributes is set.
	Attributes    uint32
	HasAttributes bool

	// CRC is the CRC32 checksum of the content when HasCRC is set.
	CRC    uint32
	HasCRC bool

	IsDir     bool
	Encrypted bool
}

// PasswordFunc obtains a password from the host. ok is false when no
// password is available, which is not an error: cancellation and "no
// encryption requested" both surface as ok == false with a nil error.
type PasswordFunc func() (password string, ok bool, err error)

// ProgressFunc receives (completed, total) progress in whatever unit the
// reporter chooses and returns false to request cancellation.
type ProgressFunc func(completed, total uint64) bool

// UpdateKind discriminates update descriptors.
type UpdateKind uint8

const (
	// UpdateCopy copies an existing item from the source archive.
	UpdateCopy UpdateKind = iota

	// UpdateAdd adds new content to the archive.
	UpdateAdd
)

// UpdateOp is one collected update descriptor. Deleted items have no
// descriptor at all: deletion is expressed by omission.
type UpdateOp struct {
	Kind UpdateKind

	// SourceIndex is the existing item backing an UpdateCopy.
	SourceIndex int

	// NewName renames a copied item when non-empty.
	NewName string

	// Name and Data carry an UpdateAdd's path and content.
	Name string
	Data []byte
}

// Format describes the static metadata of an archive format.
type Format interface {
	Name() string

	// Extension is the file extension without the dot.
	Extension() string

	// ClassID uniquely identifies this format to the host.
	ClassID() uuid.UUID

	// Signature returns the magic bytes for detection, or nil when the
	// format cannot be detected by signature.
	Signature() []byte

	// SupportsUpdate reports whether the format can create or modify
	// archives. The write interface is only exposed when this is true.
	SupportsUpdate() bool
}

// Reader is the read side of a format implementation.
type Reader interface {
	Format

	// Open parses the archive from r. The password callback is nil when the
	// host offers no decryption capability; implementations default to the
	// unencrypted path.
	Open(r io.ReadSeeker, size uint64, password PasswordFunc) error

	// Count returns the number of items in the open archive.
	Count() int

	// Item returns the item at index. ok is false when the index is out of
	// range.
	Item(index int) (Item, bool)

	// Extract writes the item's uncompressed content to w.
	Extract(index int, w io.Writer, password PasswordFunc) error

	// PhysicalSize reports the archive's physical byte size when the format
	// tracks it; ok is false to fall back to the stream size.
	PhysicalSize() (size uint64, ok bool)

	// Close releases parse state. Close is idempotent.
	Close() error
}

// Updater is the write side of a format implementation.
type Updater interface {
	Reader

	// SkipDirEntries reports whether the bridge should omit directory slots
	// during update collection. Formats that encode directories implicitly
	// through path separators return true.
	SkipDirEntries() bool

	// Update writes a new archive to w from the existing archive and the
	// collected descriptors. existing reads the current archive content and
	// existingSize is its byte size; both are zero-valued when creating a
	// new archive. The progress callback, when non-nil, receives
	// implementation-defined units.
	Update(existing io.ReadSeeker, existingSize uint64, ops []UpdateOp, w io.Writer, progress ProgressFunc, password PasswordFunc) (written uint64, err error)
}
