package engine

import (
	"time"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/object"
	"github.com/ferrum-io/hostarc/internal/stream"
	"github.com/ferrum-io/hostarc/variant"
)

// itemProps enumerates the item properties every object reports, in the
// host's display order.
var itemProps = []hostapi.PropertyInfo{
	{ID: hostapi.PropPath, Type: variant.TagString},
	{ID: hostapi.PropSize, Type: variant.TagUint64},
	{ID: hostapi.PropPackSize, Type: variant.TagUint64},
	{ID: hostapi.PropIsDir, Type: variant.TagBool},
	{ID: hostapi.PropMTime, Type: variant.TagFileTime},
	{ID: hostapi.PropCTime, Type: variant.TagFileTime},
	{ID: hostapi.PropATime, Type: variant.TagFileTime},
	{ID: hostapi.PropAttrib, Type: variant.TagUint32},
	{ID: hostapi.PropCRC, Type: variant.TagUint32},
	{ID: hostapi.PropEncrypted, Type: variant.TagBool},
}

var archiveProps = []hostapi.PropertyInfo{
	{ID: hostapi.PropPhySize, Type: variant.TagUint64},
}

// open attaches a host input stream to the object and parses the archive.
// A parse failure reports StatusFalse, the host's "not this format" answer.
func open(h hostapi.Handle, in hostapi.InStream, _ *uint64, cb hostapi.OpenCallback) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok {
		return hostapi.StatusInvalidArg
	}
	if in == nil {
		return hostapi.StatusInvalidArg
	}

	// The host may reopen after an update; drop any stale stream reference
	// before adopting the new one.
	o.DetachStream()

	r, err := stream.NewReader(in)
	if err != nil {
		o.Log().Debug("open: stream adapter failed", "error", err)
		return hostapi.StatusFalse
	}

	password, release := readPassword(cb)
	defer release()

	if err := o.Impl().Open(r, r.Size(), password); err != nil {
		o.Log().Debug("open: format rejected archive", "error", err)
		return hostapi.StatusFalse
	}

	o.AttachStream(in)
	o.SetSize(r.Size())
	o.SetOpen(true)
	return hostapi.StatusOK
}

func closeArchive(h hostapi.Handle) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok {
		return hostapi.StatusInvalidArg
	}
	if err := o.Impl().Close(); err != nil {
		o.Log().Debug("close: format close failed", "error", err)
	}
	o.DetachStream()
	o.SetOpen(false)
	o.SetSize(0)
	return hostapi.StatusOK
}

func getNumberOfItems(h hostapi.Handle) (uint32, hostapi.Status) {
	o, ok := object.Resolve(h)
	if !ok {
		return 0, hostapi.StatusInvalidArg
	}
	return uint32(o.Impl().Count()), hostapi.StatusOK
}

func getProperty(h hostapi.Handle, index uint32, prop hostapi.PropID, v *variant.Variant, a *variant.Arena) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok || v == nil || a == nil {
		return hostapi.StatusInvalidArg
	}
	item, ok := o.Impl().Item(int(index))
	if !ok {
		return hostapi.StatusInvalidArg
	}

	switch prop {
	case hostapi.PropPath:
		v.SetString(a, item.Path)
	case hostapi.PropSize:
		v.SetUint64(a, item.Size)
	case hostapi.PropPackSize:
		if item.HasPackedSize {
			v.SetUint64(a, item.PackedSize)
		} else {
			v.SetEmpty(a)
		}
	case hostapi.PropIsDir:
		v.SetBool(a, item.IsDir)
	case hostapi.PropMTime:
		setTime(v, a, item.MTime)
	case hostapi.PropCTime:
		setTime(v, a, item.CTime)
	case hostapi.PropATime:
		setTime(v, a, item.ATime)
	case hostapi.PropAttrib:
		if item.HasAttributes {
			v.SetUint32(a, item.Attributes)
		} else {
			v.SetEmpty(a)
		}
	case hostapi.PropCRC:
		if item.HasCRC {
			v.SetUint32(a, item.CRC)
		} else {
			v.SetEmpty(a)
		}
	case hostapi.PropEncrypted:
		v.SetBool(a, item.Encrypted)
	default:
		v.SetEmpty(a)
	}
	return hostapi.StatusOK
}

// setTime encodes a timestamp, treating the zero time as absent.
func setTime(v *variant.Variant, a *variant.Arena, t time.Time) {
	if t.IsZero() {
		v.SetEmpty(a)
		return
	}
	v.SetFileTime(a, variant.FileTimeFromTime(t))
}

func getArchiveProperty(h hostapi.Handle, prop hostapi.PropID, v *variant.Variant, a *variant.Arena) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok || v == nil || a == nil {
		return hostapi.StatusInvalidArg
	}
	switch prop {
	case hostapi.PropPhySize:
		if size, ok := o.Impl().PhysicalSize(); ok {
			v.SetUint64(a, size)
		} else {
			v.SetUint64(a, o.Size())
		}
	default:
		v.SetEmpty(a)
	}
	return hostapi.StatusOK
}

func getNumberOfProperties(h hostapi.Handle) (uint32, hostapi.Status) {
	return uint32(len(itemProps)), hostapi.StatusOK
}

func getPropertyInfo(h hostapi.Handle, index uint32) (hostapi.PropertyInfo, hostapi.Status) {
	if int(index) >= len(itemProps) {
		return hostapi.PropertyInfo{}, hostapi.StatusInvalidArg
	}
	return itemProps[index], hostapi.StatusOK
}

func getNumberOfArchiveProperties(h hostapi.Handle) (uint32, hostapi.Status) {
	return uint32(len(archiveProps)), hostapi.StatusOK
}

func getArchivePropertyInfo(h hostapi.Handle, index uint32) (hostapi.PropertyInfo, hostapi.Status) {
	if int(index) >= len(archiveProps) {
		return hostapi.PropertyInfo{}, hostapi.StatusInvalidArg
	}
	return archiveProps[index], hostapi.StatusOK
}
