package engine

import (
	"bytes"
	"io"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/internal/object"
	"github.com/ferrum-io/hostarc/internal/stream"
	"github.com/ferrum-io/hostarc/variant"
)

// updateItems drives the two-pass update protocol and the write phase.
// Once the update starts, the object ends this call closed whatever the
// outcome: the format implementation is closed and the held input-stream
// reference released. An object whose format cannot update is left untouched.
func updateItems(h hostapi.Handle, out hostapi.SequentialOutStream, numItems uint32, cb hostapi.UpdateCallback) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok {
		return hostapi.StatusInvalidArg
	}
	if out == nil || cb == nil {
		return hostapi.StatusInvalidArg
	}
	up, ok := o.Impl().(arcfmt.Updater)
	if !ok {
		return hostapi.StatusNotImplemented
	}

	st := updateInner(o, up, out, numItems, cb)

	if err := o.Impl().Close(); err != nil {
		o.Log().Debug("update: format close failed", "error", err)
	}
	o.SetOpen(false)
	o.DetachStream()

	return st
}

func updateInner(o *object.Object, up arcfmt.Updater, out hostapi.SequentialOutStream, numItems uint32, cb hostapi.UpdateCallback) hostapi.Status {
	a := o.Arena()

	// Pass 1: size every slot for progress accounting before any data moves.
	var total uint64
	for i := uint32(0); i < numItems; i++ {
		info, st := cb.GetUpdateItemInfo(i)
		if !st.Ok() {
			return st
		}
		switch {
		case info.NewData:
			var v variant.Variant
			_ = cb.GetProperty(i, hostapi.PropSize, &v, a)
			if size, ok := v.Uint64(); ok {
				total += size
			}
			v.Clear(a)
		case info.IndexInArchive != hostapi.NoSourceIndex:
			if item, ok := up.Item(int(info.IndexInArchive)); ok {
				total += item.Size
			}
		}
	}
	_ = cb.SetTotal(total)

	// Pass 2: collect descriptors. Slots with neither flag are deletions and
	// produce no descriptor.
	var ops []arcfmt.UpdateOp
	for i := uint32(0); i < numItems; i++ {
		info, st := cb.GetUpdateItemInfo(i)
		if !st.Ok() {
			return st
		}
		switch {
		case info.NewData:
			if up.SkipDirEntries() {
				var v variant.Variant
				_ = cb.GetProperty(i, hostapi.PropIsDir, &v, a)
				isDir, _ := v.Bool()
				v.Clear(a)
				if isDir {
					_ = cb.SetOperationResult(hostapi.OpResultOK)
					continue
				}
			}

			var v variant.Variant
			if st := cb.GetProperty(i, hostapi.PropPath, &v, a); !st.Ok() {
				return st
			}
			name, _ := v.String(a)
			v.Clear(a)

			in, st := cb.GetStream(i)
			if !st.Ok() {
				return st
			}
			var data []byte
			if in != nil {
				// The host does not guarantee the stream stays valid after
				// this call returns, so drain it now.
				d, err := stream.ReadAll(in)
				if u, ok := in.(hostapi.Unknown); ok {
					u.Release()
				}
				if err != nil {
					o.Log().Debug("update: slot stream read failed", "slot", i, "error", err)
				} else {
					data = d
				}
			}

			ops = append(ops, arcfmt.UpdateOp{Kind: arcfmt.UpdateAdd, Name: name, Data: data})
			_ = cb.SetOperationResult(hostapi.OpResultOK)

		case info.IndexInArchive != hostapi.NoSourceIndex:
			ops = append(ops, arcfmt.UpdateOp{Kind: arcfmt.UpdateCopy, SourceIndex: int(info.IndexInArchive)})
			_ = cb.SetOperationResult(hostapi.OpResultOK)
		}
	}

	password, release := writePassword(cb)
	defer release()

	// The format reports (completed, total) in its own units; rescale onto
	// the total declared to the host, clamped so the indicator only advances
	// toward the declared end value.
	progress := func(completed, writeTotal uint64) bool {
		var scaled uint64
		if writeTotal > 0 {
			ratio := float64(completed) / float64(writeTotal)
			s := ratio * float64(total)
			if s > float64(total) {
				s = float64(total)
			}
			scaled = uint64(s)
		}
		_ = cb.SetCompleted(scaled)
		return true
	}

	var existing io.ReadSeeker
	var existingSize uint64
	if s := o.Stream(); s != nil {
		r, err := stream.NewReader(s)
		if err != nil {
			o.Log().Debug("update: existing archive adapter failed", "error", err)
			return hostapi.StatusFalse
		}
		existing = r
		existingSize = r.Size()
	} else {
		existing = bytes.NewReader(nil)
	}

	w := stream.NewWriter(out)
	if _, err := up.Update(existing, existingSize, ops, w, progress, password); err != nil {
		o.Log().Debug("update: write phase failed", "error", err)
		return hostapi.StatusFalse
	}

	// Ratio scaling can round short; pin completion to the declared total.
	_ = cb.SetCompleted(total)
	return hostapi.StatusOK
}

func getFileTimeType(h hostapi.Handle) (uint32, hostapi.Status) {
	return hostapi.FileTimeTypeWindows, hostapi.StatusOK
}
