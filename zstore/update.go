package zstore

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"runtime"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/sync/errgroup"

	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/zstore/internal/fb"
)

// Update writes a new archive to w from the existing archive and the
// collected descriptors. Copied entries move as raw compressed blocks; new
// entries are compressed concurrently before the sequential write phase.
func (a *Archive) Update(existing io.ReadSeeker, existingSize uint64, ops []arcfmt.UpdateOp, w io.Writer, progress arcfmt.ProgressFunc, password arcfmt.PasswordFunc) (uint64, error) {
	if password != nil {
		if _, defined, err := password(); err != nil {
			return 0, err
		} else if defined {
			return 0, fmt.Errorf("%w: zstore does not encrypt", arcfmt.ErrNotSupported)
		}
	}

	var oldEntries []entry
	if existingSize > 0 {
		parsed, err := parse(existing, existingSize)
		if err != nil {
			return 0, err
		}
		oldEntries = parsed
	}

	blocks := make([][]byte, len(ops))
	items := make([]arcfmt.Item, len(ops))

	// Compress new content in parallel; copies are raw block moves and read
	// the existing stream sequentially afterwards.
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	now := time.Now().UTC()
	for i, op := range ops {
		if op.Kind != arcfmt.UpdateAdd {
			continue
		}
		g.Go(func() error {
			blocks[i] = encoder.EncodeAll(op.Data, nil)
			items[i] = arcfmt.Item{
				Path:          op.Name,
				Size:          uint64(len(op.Data)),
				PackedSize:    uint64(len(blocks[i])),
				HasPackedSize: true,
				MTime:         now,
				CRC:           crc32.ChecksumIEEE(op.Data),
				HasCRC:        true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, op := range ops {
		if op.Kind != arcfmt.UpdateCopy {
			continue
		}
		if op.SourceIndex < 0 || op.SourceIndex >= len(oldEntries) {
			return 0, fmt.Errorf("%w: copy source %d", arcfmt.ErrIndexOutOfRange, op.SourceIndex)
		}
		src := oldEntries[op.SourceIndex]
		raw, err := readBlockFrom(existing, src)
		if err != nil {
			return 0, err
		}
		blocks[i] = raw
		items[i] = src.item
		if op.NewName != "" {
			items[i].Path = op.NewName
		}
	}

	cw := &countingWriter{w: w}
	header := append([]byte(magic), version)
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	offsets := make([]uint64, len(ops))
	for i, block := range blocks {
		offsets[i] = cw.n
		if _, err := cw.Write(block); err != nil {
			return cw.n, err
		}
		if progress != nil && !progress(uint64(i+1), uint64(len(ops))) {
			return cw.n, ErrCancelled
		}
	}

	indexOffset := cw.n
	if _, err := cw.Write(encodeIndex(items, offsets)); err != nil {
		return cw.n, err
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer[:8], indexOffset)
	copy(footer[8:], indexMagic)
	if _, err := cw.Write(footer); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func readBlockFrom(r io.ReadSeeker, e entry) ([]byte, error) {
	if _, err := r.Seek(int64(e.offset), io.SeekStart); err != nil {
		return nil, err
	}
	raw := make([]byte, e.item.PackedSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func encodeIndex(items []arcfmt.Item, offsets []uint64) []byte {
	builder := flatbuffers.NewBuilder(1024)

	entryOffsets := make([]flatbuffers.UOffsetT, len(items))
	for i, item := range items {
		pathOffset := builder.CreateString(item.Path)

		var flags byte
		if item.IsDir {
			flags |= 1
		}
		var mtimeNs int64
		if !item.MTime.IsZero() {
			mtimeNs = item.MTime.UnixNano()
		}

		fb.EntryStart(builder)
		fb.EntryAddPath(builder, pathOffset)
		fb.EntryAddFlags(builder, flags)
		fb.EntryAddMtimeNs(builder, mtimeNs)
		fb.EntryAddCrc(builder, item.CRC)
		fb.EntryAddSize(builder, item.Size)
		fb.EntryAddPackSize(builder, item.PackedSize)
		fb.EntryAddOffset(builder, offsets[i])
		entryOffsets[i] = fb.EntryEnd(builder)
	}

	fb.IndexStartEntriesVector(builder, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(entryOffsets[i])
	}
	entriesOffset := builder.EndVector(len(items))

	fb.IndexStart(builder)
	fb.IndexAddEntries(builder, entriesOffset)
	builder.Finish(fb.IndexEnd(builder))
	return builder.FinishedBytes()
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}
