package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseDeadline(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, time.February, 18, 21, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{"event layout", "02/18/2026 21:30:00"},
		{"iso layout", "2026-02-18 21:30:00"},
		{"surrounding space", "  02/18/2026 21:30:00\n"},
		{"rfc3339 in event zone", "2026-02-18T21:30:00+05:30"},
		{"rfc3339 in utc", "2026-02-18T16:00:00Z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDeadline(tc.value, EventOffset)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func Test_ParseDeadline_errors(t *testing.T) {
	t.Parallel()

	_, err := ParseDeadline("  ", EventOffset)
	assert.ErrorIs(t, err, ErrEmptyDeadline)

	_, err = ParseDeadline("tomorrow at noon", EventOffset)
	assert.Error(t, err)
}

func Test_ParseDeadline_matchesClock(t *testing.T) {
	t.Parallel()

	c, fc := newTestClock()
	// 12:00 UTC is 17:30 event time
	deadline, err := ParseDeadline("02/18/2026 17:30:05", EventOffset)
	require.NoError(t, err)
	assert.Equal(t, "00m 05s", c.Format(deadline))

	fc.Advance(5 * time.Second)
	assert.True(t, c.Ended(deadline))
}

func Test_WallTime(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, time.February, 18, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.February, 19, 1, 30, 0, 0, time.UTC), WallTime(in, EventOffset))
}
