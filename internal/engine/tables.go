package engine

import (
	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/object"
)

// identity returns the three base slots shared by both tables. Resolve
// accepts either facet, so the write-table slots translate back to the base
// object through the same path.
func identityQuery(h hostapi.Handle, iid hostapi.IID) (hostapi.Handle, hostapi.Status) {
	o, ok := object.Resolve(h)
	if !ok {
		return nil, hostapi.StatusInvalidArg
	}
	return o.QueryInterface(iid)
}

func identityAddRef(h hostapi.Handle) uint32 {
	o, ok := object.Resolve(h)
	if !ok {
		return 0
	}
	return o.AddRef()
}

func identityRelease(h hostapi.Handle) uint32 {
	o, ok := object.Resolve(h)
	if !ok {
		return 0
	}
	return o.Release()
}

// BuildInTable constructs the read-interface dispatch table for a format
// type. Slot order is the host's contract and must not change.
func BuildInTable() *hostapi.InArchiveTable {
	return &hostapi.InArchiveTable{
		QueryInterface: identityQuery,
		AddRef:         identityAddRef,
		Release:        identityRelease,

		Open:                         open,
		Close:                        closeArchive,
		GetNumberOfItems:             getNumberOfItems,
		GetProperty:                  getProperty,
		Extract:                      extract,
		GetArchiveProperty:           getArchiveProperty,
		GetNumberOfProperties:        getNumberOfProperties,
		GetPropertyInfo:              getPropertyInfo,
		GetNumberOfArchiveProperties: getNumberOfArchiveProperties,
		GetArchivePropertyInfo:       getArchivePropertyInfo,
	}
}

// BuildOutTable constructs the write-interface dispatch table. Formats
// without update support get a stub UpdateItems slot that reports
// not-implemented, mirroring the read-only table variant of the host
// contract.
func BuildOutTable(updatable bool) *hostapi.OutArchiveTable {
	update := updateItems
	if !updatable {
		update = updateItemsStub
	}
	return &hostapi.OutArchiveTable{
		QueryInterface: identityQuery,
		AddRef:         identityAddRef,
		Release:        identityRelease,

		UpdateItems:     update,
		GetFileTimeType: getFileTimeType,
	}
}

func updateItemsStub(hostapi.Handle, hostapi.SequentialOutStream, uint32, hostapi.UpdateCallback) hostapi.Status {
	return hostapi.StatusNotImplemented
}
