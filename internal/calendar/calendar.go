// Package calendar provides the civil date and time-of-day values used by
// reservations. Neither type carries a time zone.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"

	// MinYear and MaxYear bound the years a Date can encode as YYYY-MM-DD.
	MinYear = 1
	MaxYear = 9999
)

var (
	// ErrInvalidDate is returned when a value does not follow the YYYY-MM-DD layout.
	ErrInvalidDate = errors.New("calendar: invalid date")
	// ErrInvalidTimeOfDay is returned when a value does not follow the HH:MM layout.
	ErrInvalidTimeOfDay = errors.New("calendar: invalid time of day")
)

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalises the supplied components, so February 30 becomes March 1 or 2.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Valid reports whether d is a normalised day between MinYear and MaxYear.
// The zero Date is not valid.
func (d Date) Valid() bool {
	if d.Year < MinYear || d.Year > MaxYear {
		return false
	}
	return NewDate(d.Year, d.Month, d.Day) == d
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display formats the date the way notification messages show it (M/D/YYYY).
func (d Date) Display() string {
	return fmt.Sprintf("%d/%d/%d", int(d.Month), d.Day, d.Year)
}

// AddDays returns the date n days after d; n may be negative.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// MarshalJSON encodes the date as a YYYY-MM-DD string and the zero Date as "".
// Dates that do not satisfy Valid are rejected so every encoded value decodes.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string. An empty string decodes to the
// zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time within a day at minute precision.
//
// Ordering is by minutes since midnight, which gives the same result as
// comparing the zero-padded HH:MM strings.
type TimeOfDay struct {
	minutes int
}

// NewTimeOfDay builds a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay is like ParseTimeOfDay but panics on malformed input. Intended
// for literals.
func MustTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses a 24-hour HH:MM value. Both fields must be zero padded.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	if len(value) != len(timeOfDayLayout) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	t, err := time.Parse(timeOfDayLayout, value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return NewTimeOfDay(t.Hour(), t.Minute())
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return t.minutes / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return t.minutes % 60 }

// String formats the value as zero padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or after other.
func (t TimeOfDay) Compare(other TimeOfDay) int {
	return sign(t.minutes - other.minutes)
}

// Before reports whether t is strictly before other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }

// Until returns the duration from t to other. It is negative when other is earlier.
func (t TimeOfDay) Until(other TimeOfDay) time.Duration {
	return time.Duration(other.minutes-t.minutes) * time.Minute
}

// MarshalJSON encodes the value as an HH:MM string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an HH:MM string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeOfDay, err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
