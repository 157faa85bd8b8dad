package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the ISO layout used for days in storage and on the wire.
const DateFormat = "2006-01-02"

// Day is a calendar date without a time of day or a zone. The zero Day means
// "no date" and is stored as NULL.
type Day struct {
	t time.Time // always midnight UTC, or the zero time
}

// Date builds a Day from its components. Out-of-range values are normalized
// the way time.Date normalizes them.
func Date(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the day on which t falls when observed in loc. A nil loc
// uses t's own location.
func FromTime(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	return Date(t.Year(), t.Month(), t.Day())
}

// Today returns the current day in loc.
func Today(loc *time.Location) Day {
	return FromTime(time.Now(), loc)
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Day, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Day{t: t}, nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(s string) Day {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateFormat)
}

func (d Day) Year() int { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }
func (d Day) DayOfMonth() int { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Yesterday returns the day before d.
func (d Day) Yesterday() Day {
	return d.AddDays(-1)
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Start returns midnight at the beginning of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, loc)
}

// End returns midnight at the beginning of the following day in loc, the
// exclusive upper bound of d.
func (d Day) End(loc *time.Location) time.Time {
	return d.AddDays(1).Start(loc)
}

// Contains reports whether t falls within d as observed in loc.
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	return !t.Before(d.Start(loc)) && t.Before(d.End(loc))
}

// DaysBetween returns the number of whole days from a to b (b - a). The
// result is negative when b is before a.
func DaysBetween(a, b Day) int {
	// Both values sit at midnight UTC, so the division is exact.
	return int(b.t.Sub(a.t).Hours() / 24)
}

// Value implements driver.Valuer.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case time.Time:
		*d = FromTime(v, time.UTC)
		return nil
	default:
		return fmt.Errorf("scan day: unsupported type %T", src)
	}
}

func (d *Day) scanString(s string) error {
	if s == "" {
		*d = Day{}
		return nil
	}
	if len(s) > len(DateFormat) {
		s = s[:len(DateFormat)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Day{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.scanString(s)
}
