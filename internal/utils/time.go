package contextutils

import (
	"time"
)

// TimestampLayout is the layout used for every persisted and exported timestamp.
const TimestampLayout = time.RFC3339Nano

// Day is the length of a calendar day used by relative timestamp arithmetic.
const Day = 24 * time.Hour

// DaysAgo returns the instant the given number of whole days before now.
func DaysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * Day)
}

// DurationInDays returns the fractional number of days between from and to.
// A negative span is reported as a negative number of days.
func DurationInDays(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(Day)
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a timestamp written by FormatTimestamp.
// RFC 3339 values without fractional seconds are accepted as well.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, WrapError(err, "invalid timestamp format")
	}
	return t, nil
}
