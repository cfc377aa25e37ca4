package pricing

import (
	"fmt"
	"time"

	"github.com/warp/cashflow-engine/fiscal"
)

// === TIER TABLES ===

// Tier is one band of a threshold table: values at or below Threshold
// that did not match an earlier tier belong to it.
type Tier struct {
	Name       string
	Threshold  float64
	Adjustment float64
}

// TierTable is an ordered first-match lookup. Order encodes the
// tie-break rule (boundary values resolve to the earlier tier), so the
// table is a slice, never a map. The final tier is unbounded: its
// Threshold is not consulted and it catches everything above the rest.
type TierTable []Tier

// Pick returns the first tier whose threshold is >= v, or the last
// tier when v is above every listed threshold.
func (t TierTable) Pick(v float64) Tier {
	for i, tier := range t {
		if i == len(t)-1 {
			return tier
		}
		if v <= tier.Threshold {
			return tier
		}
	}
	return Tier{}
}

// Validate checks the table is usable: at least one tier, named bands,
// and strictly increasing thresholds so the first-match scan is a
// partition. The label names the table in error messages.
func (t TierTable) Validate(label string) error {
	if len(t) == 0 {
		return &fiscal.InputError{Field: label, Value: "[]", Reason: "tier table must not be empty"}
	}
	for i, tier := range t {
		if tier.Name == "" {
			return &fiscal.InputError{
				Field:  label,
				Value:  fmt.Sprintf("tier %d", i),
				Reason: "tier name must not be empty",
			}
		}
		if i > 0 && tier.Threshold <= t[i-1].Threshold {
			return &fiscal.InputError{
				Field:  label,
				Value:  tier.Name,
				Reason: fmt.Sprintf("threshold %.2f not above previous %.2f", tier.Threshold, t[i-1].Threshold),
			}
		}
	}
	return nil
}

// DefaultOccupancyTiers returns the standard occupancy bands.
// Boundaries are inclusive upper bounds: exactly 0.70 is still
// moderate, exactly 0.85 is still high.
func DefaultOccupancyTiers() TierTable {
	return TierTable{
		{Name: "critical_low", Threshold: 0.30, Adjustment: -0.25},
		{Name: "low", Threshold: 0.50, Adjustment: -0.15},
		{Name: "moderate", Threshold: 0.70, Adjustment: 0.0},
		{Name: "high", Threshold: 0.85, Adjustment: 0.15},
		{Name: "very_high", Threshold: 0.95, Adjustment: 0.30},
		{Name: "sold_out", Threshold: 1.0, Adjustment: 0.50},
	}
}

// DefaultLeadTiers returns the booking lead-time bands in days before
// arrival. Shorter lead raises the rate. The far_advance band is
// unbounded and catches bookings beyond a year out.
func DefaultLeadTiers() TierTable {
	return TierTable{
		{Name: "same_day", Threshold: 0, Adjustment: 0.30},
		{Name: "last_minute", Threshold: 3, Adjustment: 0.15},
		{Name: "short", Threshold: 7, Adjustment: 0.05},
		{Name: "standard", Threshold: 14, Adjustment: 0.0},
		{Name: "advance", Threshold: 30, Adjustment: -0.05},
		{Name: "early_bird", Threshold: 60, Adjustment: -0.10},
		{Name: "far_advance", Threshold: 365, Adjustment: -0.15},
	}
}

// === CALENDAR ADJUSTMENTS ===

// CalendarAdjust holds the two date-driven adjustment dimensions:
// day of week and month seasonality. Both maps must be exhaustive.
type CalendarAdjust struct {
	DayOfWeek map[time.Weekday]float64
	Month     map[time.Month]float64
}

func (c CalendarAdjust) Validate() error {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if _, ok := c.DayOfWeek[wd]; !ok {
			return &fiscal.InputError{Field: "calendar.day_of_week", Value: wd.String(), Reason: "missing weekday entry"}
		}
	}
	for m := time.January; m <= time.December; m++ {
		if _, ok := c.Month[m]; !ok {
			return &fiscal.InputError{Field: "calendar.month", Value: m.String(), Reason: "missing month entry"}
		}
	}
	return nil
}

// Clone returns an independent copy safe to mutate in scenario runs.
func (c CalendarAdjust) Clone() CalendarAdjust {
	out := CalendarAdjust{
		DayOfWeek: make(map[time.Weekday]float64, len(c.DayOfWeek)),
		Month:     make(map[time.Month]float64, len(c.Month)),
	}
	for k, v := range c.DayOfWeek {
		out.DayOfWeek[k] = v
	}
	for k, v := range c.Month {
		out.Month[k] = v
	}
	return out
}

// DefaultCalendar returns the standard weekday and seasonality
// adjustments for an urban leisure-plus-convention market: weekends
// and summer run hot, deep winter runs cold.
func DefaultCalendar() CalendarAdjust {
	return CalendarAdjust{
		DayOfWeek: map[time.Weekday]float64{
			time.Monday:    -0.10,
			time.Tuesday:   -0.12,
			time.Wednesday: -0.05,
			time.Thursday:  0.05,
			time.Friday:    0.20,
			time.Saturday:  0.25,
			time.Sunday:    0.0,
		},
		Month: map[time.Month]float64{
			time.January:   -0.20,
			time.February:  -0.20,
			time.March:     0.05,
			time.April:     0.10,
			time.May:       0.15,
			time.June:      0.25,
			time.July:      0.30,
			time.August:    0.25,
			time.September: 0.10,
			time.October:   0.15,
			time.November:  -0.15,
			time.December:  0.35,
		},
	}
}
