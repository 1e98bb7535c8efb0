package variant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileTimeFromTime(t *testing.T) {
	t.Parallel()

	t.Run("unix epoch", func(t *testing.T) {
		t.Parallel()
		got := FileTimeFromTime(time.Unix(0, 0))
		assert.Equal(t, uint64(116444736000000000), got)
	})

	t.Run("one second before the epoch", func(t *testing.T) {
		t.Parallel()
		got := FileTimeFromTime(time.Unix(-1, 0))
		assert.Equal(t, uint64(0), got, "pre-epoch times encode as 0, never underflow")
	})

	t.Run("zero time", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, uint64(0), FileTimeFromTime(time.Time{}))
	})

	t.Run("sub-second precision", func(t *testing.T) {
		t.Parallel()
		ts := time.Unix(1, 500) // 500ns = 5 ticks
		assert.Equal(t, FileTimeEpochDelta+ticksPerSecond+5, FileTimeFromTime(ts))
	})
}

func TestFileTimeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, ts := range []time.Time{
		time.Unix(0, 0),
		time.Unix(1700000000, 123456700),
		time.Date(2038, time.January, 19, 3, 14, 7, 0, time.UTC),
	} {
		got := TimeFromFileTime(FileTimeFromTime(ts))
		assert.True(t, got.Equal(ts), "round trip mismatch for %v: got %v", ts, got)
	}
}

func TestTimeFromFileTimeSentinel(t *testing.T) {
	t.Parallel()

	assert.True(t, TimeFromFileTime(0).IsZero())
	assert.True(t, TimeFromFileTime(FileTimeEpochDelta-1).IsZero())
}
