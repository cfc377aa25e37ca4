package fiscal

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE RANGE - Inclusive [Start, End] window
// =============================================================================

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// SpanDays returns the inclusive day count (a one-day range spans 1).
func (r DateRange) SpanDays() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Days returns every day in the range, ascending.
func (r DateRange) Days() []Date {
	var days []Date
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// Validate rejects inverted or oversized windows before any computation.
// maxDays <= 0 disables the span check.
func (r DateRange) Validate(maxDays int) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return &RangeError{Start: r.Start, End: r.End, Reason: "start and end are required"}
	}
	if r.End.Before(r.Start) {
		return &RangeError{Start: r.Start, End: r.End, Reason: "end before start"}
	}
	if maxDays > 0 && r.SpanDays() > maxDays {
		return &RangeError{
			Start:    r.Start,
			End:      r.End,
			SpanDays: r.SpanDays(),
			MaxDays:  maxDays,
			Reason:   fmt.Sprintf("window of %d days exceeds maximum of %d", r.SpanDays(), maxDays),
		}
	}
	return nil
}

// =============================================================================
// PERIOD KEY - (fiscal year label, calendar month) for ledger grouping
// =============================================================================

// PeriodKey identifies one ledger export period. The fiscal year label is
// derived from the calendar year of the date ("FY26" for 2026 dates); the
// planning system treats it as an opaque tag.
type PeriodKey struct {
	FiscalYear string
	Month      time.Month
}

// PeriodFor returns the period key a date belongs to.
func PeriodFor(d Date) PeriodKey {
	return PeriodKey{
		FiscalYear: fmt.Sprintf("FY%02d", d.Year()%100),
		Month:      d.Month(),
	}
}

// Label renders the planning-system period name, e.g. "FY25_Aug".
func (k PeriodKey) Label() string {
	return fmt.Sprintf("%s_%s", k.FiscalYear, k.Month.String()[:3])
}

// MonthName returns the short month form used in exports ("Aug").
func (k PeriodKey) MonthName() string {
	return k.Month.String()[:3]
}
