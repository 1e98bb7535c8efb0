package hostarc

import "github.com/ferrum-io/hostarc/internal/arcfmt"

// Re-export the format implementation contract for plugin authors.
type (
	// Format describes the static metadata of an archive format.
	Format = arcfmt.Format

	// Reader is the read side of a format implementation.
	Reader = arcfmt.Reader

	// Updater is the write side of a format implementation.
	Updater = arcfmt.Updater

	// Item describes a single entry of an opened archive.
	Item = arcfmt.Item

	// UpdateOp is one collected update descriptor.
	UpdateOp = arcfmt.UpdateOp

	// UpdateKind discriminates update descriptors.
	UpdateKind = arcfmt.UpdateKind

	// PasswordFunc obtains a password from the host.
	PasswordFunc = arcfmt.PasswordFunc

	// ProgressFunc receives (completed, total) progress updates.
	ProgressFunc = arcfmt.ProgressFunc
)

// Update descriptor kinds.
const (
	UpdateCopy = arcfmt.UpdateCopy
	UpdateAdd  = arcfmt.UpdateAdd
)

// Sentinel errors re-exported from the shared types.
var (
	// ErrInvalidFormat is returned when archive data cannot be parsed.
	ErrInvalidFormat = arcfmt.ErrInvalidFormat

	// ErrIndexOutOfRange is returned for an item index beyond the archive.
	ErrIndexOutOfRange = arcfmt.ErrIndexOutOfRange

	// ErrNotSupported is returned for operations a format does not support.
	ErrNotSupported = arcfmt.ErrNotSupported

	// ErrClosed is returned for content operations on a closed object.
	ErrClosed = arcfmt.ErrClosed
)
