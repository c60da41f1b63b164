// Package partition enumerates date-partitioned training data. Partitions are
// identified by a (year, month) key; a partition source is a root location
// containing <YYYY>/<MM>/ subdirectories with zero or more data files each.
package partition

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date form used throughout the trainer.
const DateLayout = "2006-01-02"

// Key identifies one month of training data.
type Key struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// KeyOf returns the key for the month containing t.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: int(t.Month())}
}

func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Before reports whether k is chronologically before other.
func (k Key) Before(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the key for the following month.
func (k Key) Next() Key {
	if k.Month == 12 {
		return Key{Year: k.Year + 1, Month: 1}
	}
	return Key{Year: k.Year, Month: k.Month + 1}
}

// Ref is one partition file together with its month key.
type Ref struct {
	Location string `json:"location"`
	Key      Key    `json:"key"`
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %v", s, err)
	}
	return t, nil
}

// ParseRange parses an inclusive date range from YYYY-MM-DD bounds.
func ParseRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s precedes start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}
