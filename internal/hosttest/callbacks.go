package hosttest

import (
	"sync/atomic"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/variant"
)

// PasswordCap is a counted decryption-password capability. Tests assert on
// Releases to verify the negotiated capability reference is dropped exactly
// once.
type PasswordCap struct {
	Password string
	Cancel   bool

	Releases atomic.Int32
}

var _ hostapi.CryptoGetTextPassword = (*PasswordCap)(nil)
var _ hostapi.Unknown = (*PasswordCap)(nil)

func (c *PasswordCap) CryptoGetTextPassword() (string, hostapi.Status) {
	if c.Cancel {
		return "", hostapi.StatusFail
	}
	return c.Password, hostapi.StatusOK
}

func (c *PasswordCap) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown || iid == hostapi.IIDCryptoGetTextPassword {
		c.AddRef()
		return c, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (c *PasswordCap) AddRef() uint32  { return 1 }
func (c *PasswordCap) Release() uint32 { c.Releases.Add(1); return 0 }

// Password2Cap is a counted encryption-password capability.
type Password2Cap struct {
	Defined  bool
	Password string
	Cancel   bool

	Releases atomic.Int32
}

var _ hostapi.CryptoGetTextPassword2 = (*Password2Cap)(nil)
var _ hostapi.Unknown = (*Password2Cap)(nil)

func (c *Password2Cap) CryptoGetTextPassword2() (bool, string, hostapi.Status) {
	if c.Cancel {
		return false, "", hostapi.StatusFail
	}
	return c.Defined, c.Password, hostapi.StatusOK
}

func (c *Password2Cap) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown || iid == hostapi.IIDCryptoGetTextPassword2 {
		c.AddRef()
		return c, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (c *Password2Cap) AddRef() uint32  { return 1 }
func (c *Password2Cap) Release() uint32 { c.Releases.Add(1); return 0 }

// OpenRecorder is a host open callback, optionally carrying a decryption
// capability.
type OpenRecorder struct {
	Password *PasswordCap
}

var _ hostapi.OpenCallback = (*OpenRecorder)(nil)
var _ hostapi.Unknown = (*OpenRecorder)(nil)

func (r *OpenRecorder) SetTotal(_, _ *uint64) hostapi.Status     { return hostapi.StatusOK }
func (r *OpenRecorder) SetCompleted(_, _ *uint64) hostapi.Status { return hostapi.StatusOK }

func (r *OpenRecorder) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDCryptoGetTextPassword && r.Password != nil {
		return r.Password.QueryInterface(iid)
	}
	if iid == hostapi.IIDUnknown {
		r.AddRef()
		return r, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (r *OpenRecorder) AddRef() uint32  { return 1 }
func (r *OpenRecorder) Release() uint32 { return 0 }

// ExtractRecorder is a recording host extract callback. It hands out counted
// output streams and remembers everything the bridge reported.
type ExtractRecorder struct {
	Total     uint64
	Completed []uint64
	Prepared  []hostapi.AskMode
	Results   []hostapi.OperationResult

	// Streams holds the handed-out stream per requested index.
	Streams map[uint32]*OutStream

	// FailStreamAt makes GetStream fail for those indexes; NullStreamAt
	// yields a nil stream with a success status instead.
	FailStreamAt map[uint32]bool
	NullStreamAt map[uint32]bool

	// FailResults makes every SetOperationResult report failure.
	FailResults bool

	Password *PasswordCap
}

var _ hostapi.ExtractCallback = (*ExtractRecorder)(nil)
var _ hostapi.Unknown = (*ExtractRecorder)(nil)

func (r *ExtractRecorder) SetTotal(total uint64) hostapi.Status {
	r.Total = total
	return hostapi.StatusOK
}

func (r *ExtractRecorder) SetCompleted(completed uint64) hostapi.Status {
	r.Completed = append(r.Completed, completed)
	return hostapi.StatusOK
}

func (r *ExtractRecorder) GetStream(index uint32, _ hostapi.AskMode) (hostapi.SequentialOutStream, hostapi.Status) {
	if r.FailStreamAt[index] {
		return nil, hostapi.StatusFail
	}
	if r.NullStreamAt[index] {
		return nil, hostapi.StatusOK
	}
	if r.Streams == nil {
		r.Streams = make(map[uint32]*OutStream)
	}
	s := &OutStream{}
	r.Streams[index] = s
	return s, hostapi.StatusOK
}

func (r *ExtractRecorder) PrepareOperation(mode hostapi.AskMode) hostapi.Status {
	r.Prepared = append(r.Prepared, mode)
	return hostapi.StatusOK
}

func (r *ExtractRecorder) SetOperationResult(result hostapi.OperationResult) hostapi.Status {
	r.Results = append(r.Results, result)
	if r.FailResults {
		return hostapi.StatusFail
	}
	return hostapi.StatusOK
}

func (r *ExtractRecorder) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDCryptoGetTextPassword && r.Password != nil {
		return r.Password.QueryInterface(iid)
	}
	if iid == hostapi.IIDUnknown {
		r.AddRef()
		return r, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (r *ExtractRecorder) AddRef() uint32  { return 1 }
func (r *ExtractRecorder) Release() uint32 { return 0 }

// UpdateSlot scripts one slot of an update request.
type UpdateSlot struct {
	NewData        bool
	NewProperties  bool
	IndexInArchive uint32

	Path  string
	Size  uint64
	IsDir bool
	Data  []byte

	// FailStream makes GetStream fail for this slot; FailRead hands out a
	// stream whose reads fail.
	FailStream bool
	FailRead   bool
}

// NewDataSlot scripts an add-new slot carrying data.
func NewDataSlot(path string, data []byte) UpdateSlot {
	return UpdateSlot{
		NewData:        true,
		NewProperties:  true,
		IndexInArchive: hostapi.NoSourceIndex,
		Path:           path,
		Size:           uint64(len(data)),
		Data:           data,
	}
}

// CopySlot scripts a copy-existing slot.
func CopySlot(index uint32) UpdateSlot {
	return UpdateSlot{IndexInArchive: index}
}

// UpdateRecorder is a recording host update callback driven by scripted
// slots.
type UpdateRecorder struct {
	Slots []UpdateSlot

	Total     uint64
	Completed []uint64
	Results   []hostapi.OperationResult

	// Streams holds every handed-out content stream, in request order.
	Streams []*InStream

	// FailInfo makes every GetUpdateItemInfo fail; FailPathAt makes the
	// path property query fail for those slots.
	FailInfo   bool
	FailPathAt map[uint32]bool

	Password2 *Password2Cap
}

var _ hostapi.UpdateCallback = (*UpdateRecorder)(nil)
var _ hostapi.Unknown = (*UpdateRecorder)(nil)

func (r *UpdateRecorder) SetTotal(total uint64) hostapi.Status {
	r.Total = total
	return hostapi.StatusOK
}

func (r *UpdateRecorder) SetCompleted(completed uint64) hostapi.Status {
	r.Completed = append(r.Completed, completed)
	return hostapi.StatusOK
}

func (r *UpdateRecorder) GetUpdateItemInfo(index uint32) (hostapi.UpdateItemInfo, hostapi.Status) {
	if r.FailInfo || int(index) >= len(r.Slots) {
		return hostapi.UpdateItemInfo{}, hostapi.StatusFail
	}
	slot := r.Slots[index]
	return hostapi.UpdateItemInfo{
		NewData:        slot.NewData,
		NewProperties:  slot.NewProperties,
		IndexInArchive: slot.IndexInArchive,
	}, hostapi.StatusOK
}

func (r *UpdateRecorder) GetProperty(index uint32, prop hostapi.PropID, v *variant.Variant, a *variant.Arena) hostapi.Status {
	if int(index) >= len(r.Slots) {
		return hostapi.StatusInvalidArg
	}
	slot := r.Slots[index]
	switch prop {
	case hostapi.PropPath:
		if r.FailPathAt[index] {
			return hostapi.StatusFail
		}
		v.SetString(a, slot.Path)
	case hostapi.PropSize:
		v.SetUint64(a, slot.Size)
	case hostapi.PropIsDir:
		v.SetBool(a, slot.IsDir)
	default:
		v.SetEmpty(a)
	}
	return hostapi.StatusOK
}

func (r *UpdateRecorder) GetStream(index uint32) (hostapi.SequentialInStream, hostapi.Status) {
	if int(index) >= len(r.Slots) {
		return nil, hostapi.StatusInvalidArg
	}
	slot := r.Slots[index]
	if slot.FailStream {
		return nil, hostapi.StatusFail
	}
	s := NewInStream(slot.Data)
	s.FailRead = slot.FailRead
	r.Streams = append(r.Streams, s)
	return s, hostapi.StatusOK
}

func (r *UpdateRecorder) SetOperationResult(result hostapi.OperationResult) hostapi.Status {
	r.Results = append(r.Results, result)
	return hostapi.StatusOK
}

func (r *UpdateRecorder) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDCryptoGetTextPassword2 && r.Password2 != nil {
		return r.Password2.QueryInterface(iid)
	}
	if iid == hostapi.IIDUnknown {
		r.AddRef()
		return r, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (r *UpdateRecorder) AddRef() uint32  { return 1 }
func (r *UpdateRecorder) Release() uint32 { return 0 }
