package civiltime

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultOffsetMinutes is the fallback UTC offset (+5:30) applied when a
// business has no offset configured.
const DefaultOffsetMinutes = 330

const (
	// DateLayout is the wire format for civil dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for times of day.
	ClockLayout = "15:04:05"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Clock abstracts the time source so services can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Shift applies a fixed minute offset to a UTC instant. The result carries a
// fixed-zone location so date and clock extraction reflect the shifted value.
func Shift(t time.Time, offsetMinutes int) time.Time {
	loc := time.FixedZone("", offsetMinutes*60)
	return t.UTC().In(loc)
}

// Date returns the civil calendar date of t under the given offset,
// formatted as YYYY-MM-DD.
func Date(t time.Time, offsetMinutes int) string {
	return Shift(t, offsetMinutes).Format(DateLayout)
}

// TimeOfDay returns the civil wall-clock time of t under the given offset,
// formatted as HH:MM:SS.
func TimeOfDay(t time.Time, offsetMinutes int) string {
	return Shift(t, offsetMinutes).Format(ClockLayout)
}

// Timestamp returns the shifted civil timestamp of t under the given offset.
// Used for qr_scanned_at, which records local time rather than UTC.
func Timestamp(t time.Time, offsetMinutes int) time.Time {
	s := Shift(t, offsetMinutes)
	return time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), s.Minute(), s.Second(), 0, time.UTC)
}

// DayStart returns the UTC instant at which t's civil day began under the
// given offset. Records created at or after this instant belong to the same
// civil day as t.
func DayStart(t time.Time, offsetMinutes int) time.Time {
	s := Shift(t, offsetMinutes)
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location()).UTC()
}

// ParseDate validates and parses a YYYY-MM-DD civil date string.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
