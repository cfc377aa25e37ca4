package cashflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// Seasonality drives the static revenue path: listed months scale
// gross room revenue by their multiplier, everything else runs at 1.0.
type Seasonality struct {
	HighMonths     []time.Month
	LowMonths      []time.Month
	HighMultiplier float64
	LowMultiplier  float64
}

// Multiplier returns the seasonal revenue factor for a month.
func (s Seasonality) Multiplier(m time.Month) float64 {
	for _, hm := range s.HighMonths {
		if hm == m {
			return s.HighMultiplier
		}
	}
	for _, lm := range s.LowMonths {
		if lm == m {
			return s.LowMultiplier
		}
	}
	return 1.0
}

func (s Seasonality) Validate() error {
	if s.HighMultiplier <= 0 || s.LowMultiplier <= 0 {
		return &fiscal.InputError{
			Field:  "seasonality",
			Value:  fmt.Sprintf("high=%.2f low=%.2f", s.HighMultiplier, s.LowMultiplier),
			Reason: "multipliers must be positive",
		}
	}
	for _, hm := range s.HighMonths {
		for _, lm := range s.LowMonths {
			if hm == lm {
				return &fiscal.InputError{Field: "seasonality", Value: hm.String(), Reason: "month listed as both high and low season"}
			}
		}
	}
	return nil
}

// Dimensions is the planning point of view a unit reports under.
// Years and Period are placeholders here: ledger export overrides them
// per month from the aggregated data.
type Dimensions struct {
	Account    string
	Entity     string
	Scenario   string
	Years      string
	Period     string
	Version    string
	Currency   string
	Future1    string
	CostCenter string
	Region     string
}

// UnitConfig describes one property: identity, planning POV, physical
// size, cash thresholds and the pricing setup. The pricing base rate
// doubles as the unit's average daily rate and the pricing default
// occupancy as its average occupancy.
type UnitConfig struct {
	HotelName  string
	EntityID   string
	Region     string
	RegionName string
	CostCenter string
	Scenario   string
	Version    string
	Currency   string
	FiscalYear string

	RoomCount      int
	OpeningBalance decimal.Decimal
	MinimumReserve decimal.Decimal

	// MaxWindowDays bounds every ranged operation: projections,
	// pricing windows and rate pushes all refuse longer spans.
	MaxWindowDays int

	Seasonality Seasonality
	Dimensions  Dimensions
	Pricing     pricing.Config
}

// DefaultUnit returns the bundled demo property, a downtown Chicago
// hotel reporting under entity E501.
func DefaultUnit() UnitConfig {
	return UnitConfig{
		HotelName:      "501-L7 Chicago Hotel",
		EntityID:       "E501",
		Region:         "R131",
		RegionName:     "Illinois",
		CostCenter:     "CC1121",
		Scenario:       "Actual",
		Version:        "Final",
		Currency:       "USD",
		FiscalYear:     "FY25",
		RoomCount:      250,
		OpeningBalance: fiscal.MustDecimal("350000.00"),
		MinimumReserve: fiscal.MustDecimal("75000.00"),
		MaxWindowDays:  90,
		Seasonality: Seasonality{
			HighMonths:     []time.Month{time.June, time.July, time.August, time.December},
			LowMonths:      []time.Month{time.January, time.February, time.November},
			HighMultiplier: 1.35,
			LowMultiplier:  0.65,
		},
		Dimensions: Dimensions{
			Account:    "400000",
			Entity:     "E501",
			Scenario:   "Actual",
			Years:      "FY25",
			Period:     "YearTotal",
			Version:    "Final",
			Currency:   "USD",
			Future1:    "No Future1",
			CostCenter: "CC1121",
			Region:     "R131",
		},
		Pricing: pricing.Default(),
	}
}

func (c UnitConfig) Validate() error {
	if c.HotelName == "" {
		return &fiscal.InputError{Field: "hotel_name", Value: "", Reason: "must not be empty"}
	}
	if c.RoomCount <= 0 {
		return &fiscal.InputError{Field: "room_count", Value: fmt.Sprintf("%d", c.RoomCount), Reason: "must be positive"}
	}
	if c.MinimumReserve.IsNegative() {
		return &fiscal.InputError{Field: "minimum_cash_reserve", Value: c.MinimumReserve.String(), Reason: "must not be negative"}
	}
	if c.MaxWindowDays <= 0 {
		return &fiscal.InputError{Field: "max_window_days", Value: fmt.Sprintf("%d", c.MaxWindowDays), Reason: "must be positive"}
	}
	if err := c.Seasonality.Validate(); err != nil {
		return err
	}
	return c.Pricing.Validate()
}

// Clone deep-copies the config so scenario runs can adjust their copy
// freely.
func (c UnitConfig) Clone() UnitConfig {
	out := c
	out.Seasonality.HighMonths = append([]time.Month(nil), c.Seasonality.HighMonths...)
	out.Seasonality.LowMonths = append([]time.Month(nil), c.Seasonality.LowMonths...)
	out.Pricing = c.Pricing.Clone()
	return out
}
