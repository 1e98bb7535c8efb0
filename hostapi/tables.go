package hostapi

import "github.com/ferrum-io/hostarc/variant"

// Handle is an opaque reference to one facet of a plugin object. The
// concrete value behind a Handle stores its dispatch-table pointer as its
// first field; Dispatch returns that pointer without allocating. The host
// treats distinct facets of one object as distinct object pointers.
type Handle interface {
	// Dispatch returns the facet's dispatch table: *InArchiveTable for read
	// handles, *OutArchiveTable for write handles.
	Dispatch() any
}

// PropertyInfo describes one slot of the property enumeration.
type PropertyInfo struct {
	Name string
	ID   PropID
	Type variant.Tag
}

// InArchiveTable is the read-interface dispatch table. Slot order is fixed
// by the host: the three base identity methods first, then the archive
// methods. Each slot recovers the owning object from its Handle argument.
type InArchiveTable struct {
	QueryInterface func(h Handle, iid IID) (Handle, Status)
	AddRef         func(h Handle) uint32
	Release        func(h Handle) uint32

	Open                         func(h Handle, stream InStream, maxCheckStart *uint64, callback OpenCallback) Status
	Close                        func(h Handle) Status
	GetNumberOfItems             func(h Handle) (uint32, Status)
	GetProperty                  func(h Handle, index uint32, prop PropID, v *variant.Variant, a *variant.Arena) Status
	Extract                      func(h Handle, indices []uint32, testMode bool, callback ExtractCallback) Status
	GetArchiveProperty           func(h Handle, prop PropID, v *variant.Variant, a *variant.Arena) Status
	GetNumberOfProperties        func(h Handle) (uint32, Status)
	GetPropertyInfo              func(h Handle, index uint32) (PropertyInfo, Status)
	GetNumberOfArchiveProperties func(h Handle) (uint32, Status)
	GetArchivePropertyInfo       func(h Handle, index uint32) (PropertyInfo, Status)
}

// OutArchiveTable is the write-interface dispatch table: base identity
// methods, then the update methods. Its slots translate the write facet back
// to the base object before acting.
type OutArchiveTable struct {
	QueryInterface func(h Handle, iid IID) (Handle, Status)
	AddRef         func(h Handle) uint32
	Release        func(h Handle) uint32

	UpdateItems     func(h Handle, out SequentialOutStream, numItems uint32, callback UpdateCallback) Status
	GetFileTimeType func(h Handle) (uint32, Status)
}
