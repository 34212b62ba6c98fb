// Package bitemporal holds the time conventions shared by every versioned table:
// rows are valid over the half-open interval [valid_from, valid_until).
package bitemporal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TimeLayout is the textual form used by the API and the cache keys.
	TimeLayout = "2006-01-02 15:04:05.000000"
	// shortTimeLayout is accepted on input for callers that drop the microseconds.
	shortTimeLayout = "2006-01-02 15:04:05"
)

var (
	// TimeZero marks "no time given"; a version can never start at TimeZero.
	TimeZero = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	// EndOfTimes is the valid_until of every row that is still current.
	EndOfTimes = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

var ErrInvalidTimeString = errors.New("invalid time string")

// Now returns the current time truncated to the precision the store keeps.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to UTC with microsecond precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func IsZero(t time.Time) bool {
	return t.IsZero() || Normalize(t).Equal(TimeZero)
}

func FormatTime(t time.Time) string {
	return Normalize(t).Format(TimeLayout)
}

// ParseTime accepts both microsecond and second precision strings.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, shortTimeLayout, time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
}

// ParseTimeOrNow returns Now() for an empty string.
func ParseTimeOrNow(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return Now(), nil
	}
	return ParseTime(s)
}
