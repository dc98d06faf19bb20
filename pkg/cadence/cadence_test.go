package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(unix int64) time.Time { return time.Unix(unix, 0).UTC() }

func TestNextFire_FiveMinutes(t *testing.T) {
	now := at(1740568588) // 2025-02-26T11:16:28Z
	d := Duration{Unit: Minutes, N: 5}
	got := NextFire(now, d)
	assert.Equal(t, "2025-02-26T11:20:00Z", got.Format(time.RFC3339))
}

func TestNextFire_24Hours(t *testing.T) {
	now := at(1740568588)
	d := Duration{Unit: Hours, N: 24}
	got := NextFire(now, d)
	assert.Equal(t, "2025-02-27T00:00:00Z", got.Format(time.RFC3339))
}

func TestNextFire_72Hours(t *testing.T) {
	now := at(1740568588)
	d := Duration{Unit: Hours, N: 72}
	got := NextFire(now, d)
	assert.Equal(t, "2025-02-27T00:00:00Z", got.Format(time.RFC3339))
}

func TestNextFire_15Seconds_Sequence(t *testing.T) {
	now := int64(1740568588)
	d := Duration{Unit: Seconds, N: 15}

	cases := []struct {
		delta int64
		want  string
	}{
		{0, "11:16:30"},
		{15, "11:16:45"},
		{30, "11:17:00"},
		{45, "11:17:15"},
	}
	for _, c := range cases {
		got := NextFire(at(now+c.delta), d)
		assert.Equal(t, c.want, got.Format("15:04:05"))
	}
}

func TestNextFire_AlwaysAtOrAfterNow_WithinCadence(t *testing.T) {
	d := Duration{Unit: Seconds, N: 10}
	now := at(1740568588)
	next := NextFire(now, d)
	assert.True(t, !next.Before(now))
	assert.Less(t, next.Sub(now), 10*time.Second+time.Nanosecond)
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		unit Unit
		n    int64
	}{
		{"15s", Seconds, 15},
		{"5m", Minutes, 5},
		{"24h", Hours, 24},
		{"72h", Hours, 72},
	}
	for _, tt := range tests {
		d, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.unit, d.Unit)
		assert.Equal(t, tt.n, d.N)
	}
}

func TestParse_RejectsNonDivisibleCadences(t *testing.T) {
	_, err := Parse("7m") // 60 % 7 != 0
	assert.Error(t, err)

	_, err = Parse("5h") // 24 % 5 != 0
	assert.Error(t, err)

	_, err = Parse("30h") // >24, not a multiple of 24
	assert.Error(t, err)
}

func TestToSeconds(t *testing.T) {
	assert.Equal(t, int64(15), Duration{Unit: Seconds, N: 15}.ToSeconds())
	assert.Equal(t, int64(300), Duration{Unit: Minutes, N: 5}.ToSeconds())
	assert.Equal(t, int64(86400), Duration{Unit: Hours, N: 24}.ToSeconds())
}
