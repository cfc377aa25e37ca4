/*
generator.go - Daily Cash Flow Projection

PURPOSE:
Projects a unit's cash movements day by day across a bounded window:
revenue split into planning accounts, expenses on their payment
calendar, a running balance threaded through the whole window, and a
below-reserve flag per day.

KEY CONCEPTS:
- Two revenue paths. The static path prices every night at the
  configured average rate and occupancy, scaled by season and weekend
  multipliers; it is the deterministic backbone used by forecasts,
  exports and scenario runs. The dynamic path quotes each night
  through the rate engine and lets elasticity estimate occupancy when
  no observation is supplied.
- Contiguity. A window is projected whole or not at all: one failed
  date aborts the projection, because aggregation downstream assumes a
  gap-free daily sequence.
- Money discipline. Every account amount is rounded to cents at
  generation; totals are sums of those rounded amounts, so daily,
  monthly and ledger figures reconcile exactly.

DESIGN PRINCIPLES:
- The generator owns no clock and no RNG: dates come from the caller
  and randomness from the injected Noise, making projections
  reproducible under a deterministic Noise.
- Validation happens at the edges. The window is checked against the
  configured maximum before any day is computed.

USAGE:
    gen, err := cashflow.NewGenerator(cashflow.DefaultUnit(), nil)
    proj, err := gen.Project(window, cashflow.ProjectOptions{})

SEE ALSO:
- aggregate.go: daily to monthly roll-up
- ledger.go: monthly records to planning ledger rows
- scenario.go: baseline vs adjusted what-if runs
*/
package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// weekendLift scales static gross revenue on Saturdays and Sundays.
// expenseLoad sizes the daily expense base against room capacity at
// the average rate.
const (
	weekendLift = 1.15
	expenseLoad = 0.6
)

// DailyRecord is one projected day. Inflows and Outflows carry every
// chart account (zero when not due), each rounded to cents. On the
// dynamic path DynamicRate holds the quoted rate; on the static path
// it stays zero.
type DailyRecord struct {
	Date      fiscal.Date
	DayOfWeek string

	Inflows  map[string]decimal.Decimal
	Outflows map[string]decimal.Decimal

	TotalInflows  decimal.Decimal
	TotalOutflows decimal.Decimal
	NetCashFlow   decimal.Decimal

	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	BelowMinimum   bool

	DynamicRate decimal.Decimal
	Occupancy   float64
}

// Projection is a full window of daily records plus window totals.
type Projection struct {
	Window fiscal.DateRange

	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalInflows   decimal.Decimal
	TotalOutflows  decimal.Decimal
	NetChange      decimal.Decimal

	DaysBelowMinimum int
	Days             []DailyRecord
}

// ProjectOptions selects the revenue path. Occupancy, when set on the
// dynamic path, is the observed occupancy for every night in the
// window; when nil the elasticity model estimates it per night.
type ProjectOptions struct {
	Dynamic   bool
	Occupancy *float64
}

// dayBook computes single days for a config without any engine
// wiring, so scenario legs can run adjusted configs that only the
// static path will read.
type dayBook struct {
	cfg   UnitConfig
	noise pricing.Noise
}

// Generator projects windows for one validated unit.
type Generator struct {
	book dayBook
	eng  *pricing.Engine
}

// NewGenerator validates the unit and readies both revenue paths.
// A nil noise falls back to a system-seeded source.
func NewGenerator(cfg UnitConfig, noise pricing.Noise) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = pricing.NewSystemNoise(0)
	}
	eng, err := pricing.NewEngine(cfg.Pricing, noise)
	if err != nil {
		return nil, err
	}
	return &Generator{book: dayBook{cfg: cfg, noise: noise}, eng: eng}, nil
}

// Unit returns the generator's unit configuration.
func (g *Generator) Unit() UnitConfig {
	return g.book.cfg
}

// Engine exposes the rate engine sharing this generator's config and
// noise.
func (g *Generator) Engine() *pricing.Engine {
	return g.eng
}

// Project computes the whole window with a running balance. The
// window must be valid and inside the unit's maximum span.
func (g *Generator) Project(window fiscal.DateRange, opts ProjectOptions) (*Projection, error) {
	if err := window.Validate(g.book.cfg.MaxWindowDays); err != nil {
		return nil, err
	}

	proj := &Projection{
		Window:         window,
		OpeningBalance: g.book.cfg.OpeningBalance,
	}
	balance := g.book.cfg.OpeningBalance

	for day := window.Start; day.BeforeOrEqual(window.End); day = day.AddDays(1) {
		rec, err := g.day(day, opts)
		if err != nil {
			return nil, err
		}

		rec.OpeningBalance = balance
		balance = balance.Add(rec.NetCashFlow)
		rec.ClosingBalance = balance
		rec.BelowMinimum = balance.LessThan(g.book.cfg.MinimumReserve)

		proj.Days = append(proj.Days, rec)
		proj.TotalInflows = proj.TotalInflows.Add(rec.TotalInflows)
		proj.TotalOutflows = proj.TotalOutflows.Add(rec.TotalOutflows)
		if rec.BelowMinimum {
			proj.DaysBelowMinimum++
		}
	}

	proj.ClosingBalance = balance
	proj.NetChange = proj.TotalInflows.Sub(proj.TotalOutflows)
	return proj, nil
}

func (g *Generator) day(date fiscal.Date, opts ProjectOptions) (DailyRecord, error) {
	rec := DailyRecord{Date: date, DayOfWeek: date.DayName()}

	if opts.Dynamic {
		quote, err := g.eng.Quote(pricing.QuoteRequest{Date: date, Occupancy: opts.Occupancy})
		if err != nil {
			return rec, err
		}
		occupancy := 0.0
		if opts.Occupancy != nil {
			occupancy = *opts.Occupancy
		} else {
			occupancy = pricing.EstimateOccupancy(g.book.cfg.Pricing, quote.Optimized)
		}
		rec.Inflows = g.book.dynamicInflows(quote.Optimized, occupancy)
		rec.DynamicRate = quote.Optimized
		rec.Occupancy = occupancy
	} else {
		rec.Inflows = g.book.staticInflows(date)
		rec.Occupancy = g.book.cfg.Pricing.DefaultOccupancy
	}

	rec.Outflows = g.book.outflows(date)
	rec.TotalInflows = sumAccounts(rec.Inflows)
	rec.TotalOutflows = sumAccounts(rec.Outflows)
	rec.NetCashFlow = rec.TotalInflows.Sub(rec.TotalOutflows)
	return rec, nil
}

// staticInflows prices the night at the average rate and occupancy,
// scaled by season and weekend, then splits it across the revenue
// accounts under one shared variance draw.
func (b dayBook) staticInflows(date fiscal.Date) map[string]decimal.Decimal {
	multiplier := b.cfg.Seasonality.Multiplier(date.Month())
	if date.IsWeekend() {
		multiplier *= weekendLift
	}

	gross := b.cfg.Pricing.BaseRate.
		Mul(decimal.NewFromInt(int64(b.cfg.RoomCount))).
		Mul(decimal.NewFromFloat(b.cfg.Pricing.DefaultOccupancy * multiplier))

	variance := b.noise.Uniform(0.95, 1.05)
	return splitRevenue(gross, variance)
}

// dynamicInflows books the night at the quoted rate and effective
// occupancy with a tighter variance band.
func (b dayBook) dynamicInflows(rate decimal.Decimal, occupancy float64) map[string]decimal.Decimal {
	gross := rate.
		Mul(decimal.NewFromInt(int64(b.cfg.RoomCount))).
		Mul(decimal.NewFromFloat(occupancy))

	variance := b.noise.Uniform(0.97, 1.03)
	return splitRevenue(gross, variance)
}

func splitRevenue(gross decimal.Decimal, variance float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(inflowSplit))
	for _, s := range inflowSplit {
		out[s.Code] = fiscal.Round2(gross.Mul(decimal.NewFromFloat(s.Share * variance)))
	}
	return out
}

// outflows spreads the daily expense base across the expense accounts
// on their payment calendar. Accounts not due today appear with a
// zero amount so every record carries the full chart.
func (b dayBook) outflows(date fiscal.Date) map[string]decimal.Decimal {
	base := b.cfg.Pricing.BaseRate.
		Mul(decimal.NewFromInt(int64(b.cfg.RoomCount))).
		Mul(decimal.NewFromFloat(expenseLoad))

	out := make(map[string]decimal.Decimal, len(outflowSchedule))
	for _, rule := range outflowSchedule {
		if !rule.When.due(date.Day()) {
			out[rule.Code] = decimal.Zero
			continue
		}
		share := rule.Share
		if rule.Jitter > 0 {
			share *= b.noise.Uniform(1-rule.Jitter, 1+rule.Jitter)
		}
		out[rule.Code] = fiscal.Round2(base.Mul(decimal.NewFromFloat(share)))
	}
	return out
}

func sumAccounts(amounts map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amt := range amounts {
		total = total.Add(amt)
	}
	return total
}
