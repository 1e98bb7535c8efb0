package hostapi

// Unknown is the base identity contract. Host callback objects and stream
// handles may implement it to expose secondary capabilities and participate
// in reference counting; plugin object facets always implement it through
// their dispatch tables.
type Unknown interface {
	// QueryInterface asks for a secondary capability by identifier. On
	// success the returned value is usable as that capability and one
	// reference has been added on the caller's behalf.
	QueryInterface(iid IID) (any, Status)
	AddRef() uint32
	Release() uint32
}

// SequentialInStream is an opaque host input stream handle.
type SequentialInStream interface {
	// Read reads up to len(p) bytes into p. Short reads are normal; n == 0
	// with a success status means end of stream and is not an error.
	Read(p []byte) (n uint32, st Status)
}

// InStream is a seekable host input stream handle. The handle does not carry
// its size; callers discover it by seeking to the end.
type InStream interface {
	SequentialInStream
	Seek(offset int64, origin SeekOrigin) (pos uint64, st Status)
}

// SequentialOutStream is an opaque host output stream handle. A report of
// zero bytes written for a non-empty buffer is a write fault.
type SequentialOutStream interface {
	Write(p []byte) (n uint32, st Status)
}
