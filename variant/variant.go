// Package variant implements the fixed 16-byte tagged property value
// exchanged across the host boundary: a 2-byte type tag, 6 reserved bytes,
// and an 8-byte payload. Numeric values are stored inline; string and blob
// values store a handle into an Arena that models the host's shared
// allocator.
//
// A variant produced for the host transfers payload ownership to the host:
// the producer must not free the allocation, the consumer clears the variant
// when done. Setting a new value on a variant always releases any prior
// self-allocated payload first.
package variant

import (
	"encoding/binary"
	"sync"
	"unicode/utf16"
)

// Tag identifies the type of value a variant carries.
type Tag uint16

// Variant type tags, matching the host's numeric values.
const (
	TagEmpty    Tag = 0
	TagString   Tag = 8
	TagBool     Tag = 11
	TagUint32   Tag = 19
	TagUint64   Tag = 21
	TagFileTime Tag = 64
)

// Boolean payload encoding. The host uses all-ones for true, not 1.
const (
	boolTrue  uint64 = 0xFFFF
	boolFalse uint64 = 0x0000
)

// Variant is the 16-byte tagged value.
type Variant struct {
	Tag      Tag
	Reserved [6]byte
	Data     uint64
}

// Arena allocates string and blob payloads referenced by variants. It stands
// in for the host's shared allocator: allocations made by one side may be
// freed by the other. The zero Arena is not usable; construct with NewArena.
type Arena struct {
	mu     sync.Mutex
	next   uint64
	blocks map[uint64][]byte
}

// NewArena returns an empty payload arena.
func NewArena() *Arena {
	return &Arena{next: 1, blocks: make(map[uint64][]byte)}
}

// Len reports the number of live allocations. Useful for leak checks.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}

// Free releases the allocation behind handle. It reports whether the handle
// referenced a live allocation.
func (a *Arena) Free(handle uint64) bool {
	if handle == 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.blocks[handle]; !ok {
		return false
	}
	delete(a.blocks, handle)
	return true
}

func (a *Arena) alloc(b []byte) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.next
	a.next++
	a.blocks[h] = b
	return h
}

func (a *Arena) bytes(handle uint64) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.blocks[handle]
	return b, ok
}

// Clear releases any payload the variant owns in a and resets it to empty.
// Clearing an already-empty variant is a no-op.
func (v *Variant) Clear(a *Arena) {
	if v.Tag == TagString && v.Data != 0 && a != nil {
		a.Free(v.Data)
	}
	v.Tag = TagEmpty
	v.Data = 0
}

// SetEmpty clears the variant to the empty value.
func (v *Variant) SetEmpty(a *Arena) {
	v.Clear(a)
}

// SetUint32 stores an unsigned 32-bit value.
func (v *Variant) SetUint32(a *Arena, val uint32) {
	v.Clear(a)
	v.Tag = TagUint32
	v.Data = uint64(val)
}

// SetUint64 stores an unsigned 64-bit value.
func (v *Variant) SetUint64(a *Arena, val uint64) {
	v.Clear(a)
	v.Tag = TagUint64
	v.Data = val
}

// SetBool stores a boolean using the host's 0xFFFF/0x0000 encoding.
func (v *Variant) SetBool(a *Arena, val bool) {
	v.Clear(a)
	v.Tag = TagBool
	if val {
		v.Data = boolTrue
	} else {
		v.Data = boolFalse
	}
}

// SetFileTime stores a 64-bit FILETIME tick count.
func (v *Variant) SetFileTime(a *Arena, ticks uint64) {
	v.Clear(a)
	v.Tag = TagFileTime
	v.Data = ticks
}

// SetString stores a string, allocating a UTF-16 payload in a.
func (v *Variant) SetString(a *Arena, s string) {
	v.Clear(a)
	v.Tag = TagString
	v.Data = a.alloc(encodeUTF16(s))
}

// SetBytes stores a raw byte blob. Blobs share the string tag, matching the
// host's convention for binary handler properties like class IDs and
// signatures.
func (v *Variant) SetBytes(a *Arena, b []byte) {
	v.Clear(a)
	v.Tag = TagString
	v.Data = a.alloc(append([]byte(nil), b...))
}

// Uint64 extracts an unsigned 64-bit value. A 32-bit value widens, matching
// the host's reading of size properties. ok is false on any other tag.
func (v *Variant) Uint64() (val uint64, ok bool) {
	switch v.Tag {
	case TagUint64:
		return v.Data, true
	case TagUint32:
		return v.Data & 0xFFFFFFFF, true
	default:
		return 0, false
	}
}

// Uint32 extracts an unsigned 32-bit value.
func (v *Variant) Uint32() (val uint32, ok bool) {
	if v.Tag != TagUint32 {
		return 0, false
	}
	return uint32(v.Data), true
}

// Bool extracts a boolean. Any nonzero payload is true.
func (v *Variant) Bool() (val, ok bool) {
	if v.Tag != TagBool {
		return false, false
	}
	return v.Data != 0, true
}

// FileTime extracts a FILETIME tick count.
func (v *Variant) FileTime() (ticks uint64, ok bool) {
	if v.Tag != TagFileTime {
		return 0, false
	}
	return v.Data, true
}

// String extracts a string payload from a. ok is false on a tag mismatch or
// a dangling handle.
func (v *Variant) String(a *Arena) (string, bool) {
	if v.Tag != TagString || v.Data == 0 {
		return "", false
	}
	b, ok := a.bytes(v.Data)
	if !ok {
		return "", false
	}
	return decodeUTF16(b), true
}

// Bytes extracts a raw blob payload from a. The returned slice is a copy.
func (v *Variant) Bytes(a *Arena) ([]byte, bool) {
	if v.Tag != TagString || v.Data == 0 {
		return nil, false
	}
	b, ok := a.bytes(v.Data)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Encode returns the variant's 16-byte wire form, little-endian.
func (v *Variant) Encode() [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint16(out[0:2], uint16(v.Tag))
	copy(out[2:8], v.Reserved[:])
	binary.LittleEndian.PutUint64(out[8:16], v.Data)
	return out
}

// Decode overwrites the variant from its 16-byte wire form. The variant must
// not own a payload; callers Clear first when reusing.
func (v *Variant) Decode(b [16]byte) {
	v.Tag = Tag(binary.LittleEndian.Uint16(b[0:2]))
	copy(v.Reserved[:], b[2:8])
	v.Data = binary.LittleEndian.Uint64(b[8:16])
}

func encodeUTF16(s string) []byte {
	u := utf16.Encode([]rune(s))
	b := make([]byte, len(u)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[i*2:], c)
	}
	return b
}

func decodeUTF16(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u))
}
