package fiscal

import (
	"time"
)

// =============================================================================
// DATE - Calendar day, always UTC midnight
// =============================================================================

// Date is a calendar day. The zero value is the zero date.
// Dates are comparable and safe to use as map keys because every
// constructor normalizes to UTC midnight.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &InputError{Field: "date", Value: s, Reason: "want YYYY-MM-DD"}
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date {
	t := d.Time.AddDate(0, 0, n)
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string    { return d.Time.Format("2006-01-02") }
func (d Date) DayName() string   { return d.Weekday().String() }
func (d Date) MonthName() string { return d.Month().String() }

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns the signed day count from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return NewDate(t.Year(), t.Month(), t.Day())
}
