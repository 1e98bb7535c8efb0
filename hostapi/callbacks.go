package hostapi

import "github.com/ferrum-io/hostarc/variant"

// OpenCallback is the host object passed to open. The bridge only uses it to
// negotiate the decryption-password capability; the progress methods exist
// for hosts that report open progress.
type OpenCallback interface {
	SetTotal(files, bytes *uint64) Status
	SetCompleted(files, bytes *uint64) Status
}

// ExtractCallback is the host object driving the extraction protocol.
type ExtractCallback interface {
	// SetTotal declares the total number of bytes the batch will produce.
	SetTotal(total uint64) Status

	// SetCompleted reports cumulative progress toward the declared total.
	SetCompleted(completed uint64) Status

	// GetStream requests the output stream for one item. A nil stream with a
	// success status means the host wants the item skipped or tested.
	GetStream(index uint32, mode AskMode) (SequentialOutStream, Status)

	// PrepareOperation signals that work on the current item is starting.
	PrepareOperation(mode AskMode) Status

	// SetOperationResult signals the per-item outcome. These results, not
	// the overall return status, are authoritative per file.
	SetOperationResult(result OperationResult) Status
}

// UpdateItemInfo describes one slot of an update request.
type UpdateItemInfo struct {
	// NewData is set when the slot carries new content.
	NewData bool

	// NewProperties is set when the slot carries new metadata.
	NewProperties bool

	// IndexInArchive refers to the existing item backing this slot, or
	// NoSourceIndex when there is none.
	IndexInArchive uint32
}

// UpdateCallback is the host object driving the two-pass update protocol.
type UpdateCallback interface {
	SetTotal(total uint64) Status
	SetCompleted(completed uint64) Status

	// GetUpdateItemInfo reports the descriptor flags for one slot.
	GetUpdateItemInfo(index uint32) (UpdateItemInfo, Status)

	// GetProperty marshals one typed property of a slot into v, allocating
	// string payloads in a. The caller owns the resulting payload.
	GetProperty(index uint32, prop PropID, v *variant.Variant, a *variant.Arena) Status

	// GetStream provides the content stream for a new-data slot. The stream
	// is only guaranteed valid until the call that received it returns.
	GetStream(index uint32) (SequentialInStream, Status)

	SetOperationResult(result OperationResult) Status
}

// CryptoGetTextPassword is the decryption-password capability. A failure
// status means the user cancelled or no password is available; it is not a
// hard error.
type CryptoGetTextPassword interface {
	CryptoGetTextPassword() (password string, st Status)
}

// CryptoGetTextPassword2 is the encryption-password capability. defined
// reports whether the user requested encryption at all, which is distinct
// from an empty password string.
type CryptoGetTextPassword2 interface {
	CryptoGetTextPassword2() (defined bool, password string, st Status)
}
