package bitemporal

import (
	"fmt"
	"time"
)

// Interval is a half-open validity interval: From is inclusive, Until exclusive.
type Interval struct {
	From  time.Time `json:"from"`
	Until time.Time `json:"until"`
}

func NewInterval(from, until time.Time) Interval {
	return Interval{From: Normalize(from), Until: Normalize(until)}
}

// Current is the interval of a row written at t that has not been superseded.
func Current(from time.Time) Interval {
	return NewInterval(from, EndOfTimes)
}

func (i Interval) Contains(t time.Time) bool {
	t = Normalize(t)
	return !t.Before(i.From) && t.Before(i.Until)
}

func (i Interval) IsCurrent() bool {
	return i.Until.Equal(EndOfTimes)
}

func (i Interval) IsEmpty() bool {
	return !i.From.Before(i.Until)
}

func (i Interval) Overlaps(o Interval) bool {
	return i.From.Before(o.Until) && o.From.Before(i.Until)
}

// IsBoundary reports whether t coincides with either end of the interval.
func (i Interval) IsBoundary(t time.Time) bool {
	t = Normalize(t)
	return t.Equal(i.From) || t.Equal(i.Until)
}

// Truncate closes the interval at until. It fails if until is not inside the interval.
func (i Interval) Truncate(until time.Time) (Interval, error) {
	until = Normalize(until)
	if until.Before(i.From) || until.After(i.Until) {
		return i, fmt.Errorf("cannot truncate %s at %s", i, FormatTime(until))
	}
	return Interval{From: i.From, Until: until}, nil
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", FormatTime(i.From), FormatTime(i.Until))
}

// Before reports whether i ends at or before o starts.
func (i Interval) Before(o Interval) bool {
	return !i.Until.After(o.From)
}
