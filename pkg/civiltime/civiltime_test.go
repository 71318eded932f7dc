package civiltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate_RollsOverAtOffsetBoundary(t *testing.T) {
	// 18:30:00 UTC is exactly midnight the next day at +5:30.
	tests := []struct {
		name   string
		utc    time.Time
		offset int
		want   string
	}{
		{
			name:   "just before boundary stays on same day",
			utc:    time.Date(2024, 3, 15, 18, 29, 59, 0, time.UTC),
			offset: 330,
			want:   "2024-03-15",
		},
		{
			name:   "boundary rolls to next day",
			utc:    time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
			offset: 330,
			want:   "2024-03-16",
		},
		{
			name:   "midday unaffected",
			utc:    time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC),
			offset: 330,
			want:   "2024-03-15",
		},
		{
			name:   "zero offset matches UTC date",
			utc:    time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC),
			offset: 0,
			want:   "2024-03-15",
		},
		{
			name:   "negative offset rolls back",
			utc:    time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC),
			offset: -300,
			want:   "2024-03-14",
		},
		{
			name:   "year boundary",
			utc:    time.Date(2023, 12, 31, 19, 0, 0, 0, time.UTC),
			offset: 330,
			want:   "2024-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.utc, tt.offset))
		})
	}
}

func TestTimeOfDay(t *testing.T) {
	utc := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "00:00:00", TimeOfDay(utc, 330))

	utc = time.Date(2024, 3, 15, 4, 15, 42, 0, time.UTC)
	assert.Equal(t, "09:45:42", TimeOfDay(utc, 330))
}

func TestTimestamp(t *testing.T) {
	utc := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	got := Timestamp(utc, 330)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-15")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "15-03-2024", "2024/03/15", "2024-13-01", "2024-03-15T00:00:00Z", "not-a-date"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	var c Clock = FixedClock{T: instant}
	assert.Equal(t, instant, c.Now())
}
