// Package hostapi defines the boundary contract between the host
// application and plugin objects: status codes, 16-byte interface and class
// identifiers, property identifiers, stream handle interfaces, callback
// interfaces, and the fixed-slot dispatch tables the host drives.
//
// The layout rules the host relies on are preserved in Go form: every facet
// value a Handle refers to carries its dispatch-table pointer as the first
// field, table slot order is fixed, and each slot takes the opaque Handle as
// its first argument and recovers the owning object in O(1) without
// allocating.
package hostapi

// Status is the host's status-code convention. Zero and positive values are
// success; negative values are failures.
type Status int32

// Well-known status values.
const (
	StatusOK    Status = 0
	StatusFalse Status = 1

	StatusNotImplemented    Status = -2147467263 // 0x80004001
	StatusNoInterface       Status = -2147467262 // 0x80004002
	StatusFail              Status = -2147467259 // 0x80004005
	StatusInvalidArg        Status = -2147024809 // 0x80070057
	StatusClassNotAvailable Status = -2147221231 // 0x80040111
)

// Ok reports whether the status is a success code. Note that StatusFalse is
// a success code carrying a negative answer, not a failure.
func (s Status) Ok() bool { return s >= 0 }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFalse:
		return "false"
	case StatusNotImplemented:
		return "not implemented"
	case StatusNoInterface:
		return "no interface"
	case StatusFail:
		return "unspecified failure"
	case StatusInvalidArg:
		return "invalid argument"
	case StatusClassNotAvailable:
		return "class not available"
	default:
		return "unknown status"
	}
}
