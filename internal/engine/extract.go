package engine

import (
	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/object"
	"github.com/ferrum-io/hostarc/internal/stream"
)

// extract drives the extraction protocol. A nil indices slice is the
// "all items" sentinel. Failure to obtain an output stream is fatal to the
// whole call; a failure inside a single item's extraction is downgraded to a
// per-item data-error result and the batch continues.
func extract(h hostapi.Handle, indices []uint32, testMode bool, cb hostapi.ExtractCallback) hostapi.Status {
	o, ok := object.Resolve(h)
	if !ok || cb == nil {
		return hostapi.StatusInvalidArg
	}
	if !o.IsOpen() {
		return hostapi.StatusFail
	}
	impl := o.Impl()

	password, release := readPassword(cb)
	defer release()

	resolved := indices
	if resolved == nil {
		resolved = make([]uint32, impl.Count())
		for i := range resolved {
			resolved[i] = uint32(i)
		}
	}

	var total uint64
	for _, idx := range resolved {
		if item, ok := impl.Item(int(idx)); ok {
			total += item.Size
		}
	}
	_ = cb.SetTotal(total)

	var completed uint64
	for _, idx := range resolved {
		item, ok := impl.Item(int(idx))
		if !ok {
			continue
		}

		out, st := cb.GetStream(idx, hostapi.AskExtract)
		if !st.Ok() {
			return st
		}
		_ = cb.PrepareOperation(hostapi.AskExtract)

		result := hostapi.OpResultOK
		if !testMode && out != nil {
			w := stream.NewWriter(out)
			if err := impl.Extract(int(idx), w, password); err != nil {
				o.Log().Debug("extract: item failed", "index", idx, "path", item.Path, "error", err)
				result = hostapi.OpResultDataError
			}
		}

		if out != nil {
			if u, ok := out.(hostapi.Unknown); ok {
				u.Release()
			}
		}

		if st := cb.SetOperationResult(result); !st.Ok() {
			return st
		}

		completed += item.Size
		_ = cb.SetCompleted(completed)
	}

	return hostapi.StatusOK
}
