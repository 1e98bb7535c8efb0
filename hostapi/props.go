package hostapi

// PropID identifies an item or archive property.
type PropID uint32

// Item property identifiers.
const (
	PropPath      PropID = 3
	PropIsDir     PropID = 6
	PropSize      PropID = 7
	PropPackSize  PropID = 8
	PropAttrib    PropID = 9
	PropCTime     PropID = 10
	PropATime     PropID = 11
	PropMTime     PropID = 12
	PropEncrypted PropID = 15
	PropCRC       PropID = 19
)

// Archive-level property identifiers.
const (
	PropPhySize PropID = 4
)

// HandlerPropID identifies format handler metadata, queried before any
// object exists.
type HandlerPropID uint32

// Handler metadata identifiers.
const (
	HandlerPropName            HandlerPropID = 0
	HandlerPropClassID         HandlerPropID = 1
	HandlerPropExtension       HandlerPropID = 2
	HandlerPropAddExtension    HandlerPropID = 3
	HandlerPropUpdate          HandlerPropID = 4
	HandlerPropKeepName        HandlerPropID = 5
	HandlerPropSignature       HandlerPropID = 6
	HandlerPropMultiSignature  HandlerPropID = 7
	HandlerPropSignatureOffset HandlerPropID = 8
)

// AskMode tells the extract callback why a stream is requested.
type AskMode int32

const (
	AskExtract AskMode = 0
	AskTest    AskMode = 1
	AskSkip    AskMode = 2
)

// OperationResult is the per-item outcome signaled after each item.
type OperationResult int32

const (
	OpResultOK        OperationResult = 0
	OpResultDataError OperationResult = 1
)

// SeekOrigin selects the reference point of a host stream seek.
type SeekOrigin uint32

const (
	SeekOriginStart   SeekOrigin = 0
	SeekOriginCurrent SeekOrigin = 1
	SeekOriginEnd     SeekOrigin = 2
)

// FileTimeTypeWindows is the only timestamp representation produced by this
// layer: 100ns ticks since 1601-01-01.
const FileTimeTypeWindows uint32 = 0

// NoSourceIndex marks an update slot with no corresponding item in the
// existing archive.
const NoSourceIndex = ^uint32(0)
