package variant

import "time"

// FileTimeEpochDelta is the number of 100ns ticks between the FILETIME epoch
// (1601-01-01) and the Unix epoch (1970-01-01).
const FileTimeEpochDelta uint64 = 116444736000000000

const ticksPerSecond = 10_000_000

// FileTimeFromTime converts t to a FILETIME tick count. Times before the
// Unix epoch are not representable and encode as 0.
func FileTimeFromTime(t time.Time) uint64 {
	sec := t.Unix()
	if t.IsZero() || sec < 0 {
		return 0
	}
	return FileTimeEpochDelta + uint64(sec)*ticksPerSecond + uint64(t.Nanosecond())/100
}

// TimeFromFileTime converts a FILETIME tick count back to a time.Time.
// Ticks before the Unix epoch (including the 0 sentinel) yield the zero time.
func TimeFromFileTime(ticks uint64) time.Time {
	if ticks < FileTimeEpochDelta {
		return time.Time{}
	}
	rem := ticks - FileTimeEpochDelta
	return time.Unix(int64(rem/ticksPerSecond), int64(rem%ticksPerSecond)*100).UTC()
}
