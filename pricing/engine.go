/*
engine.go - Multi-Factor Room Rate Engine

PURPOSE:
Computes the optimized nightly rate for one unit on one date. Five
additive factor dimensions (occupancy tier, day of week, month
seasonality, booking lead time, local events) produce a single total
adjustment fraction applied to the base rate, which is then clamped to
the configured floor and ceiling and capped against the day's shopped
competitor average.

KEY CONCEPTS:
- Additive factors: each dimension contributes a fraction; fractions
  sum before the base rate is multiplied once. A +20% Friday and +25%
  August make +45%, not 1.2*1.25.
- Ordered tier tables: occupancy and lead-time bands are first-match
  scans over sorted thresholds, so boundary values resolve to the
  earlier band.
- Market cap: the rate may sit at most PremiumAllowed above the
  shopped competitor average. The cap only ever lowers a quote, and
  the configured minimum rate wins over the cap.

DESIGN PRINCIPLES:
- The engine is pure: no clock reads, no global state, and all
  randomness (competitor rate jitter) comes through the injected
  Noise, so a deterministic Noise makes quotes reproducible.
- Inputs are rejected, not repaired. Out-of-range occupancy or a
  negative lead never clamps silently; the min/max clamp applies to
  the computed rate only.
- Money stays in decimal.Decimal until the final rounding to cents.

USAGE:
    eng, err := pricing.NewEngine(pricing.Default(), pricing.NewSystemNoise(0))
    quote, err := eng.Quote(pricing.QuoteRequest{Date: d, Breakdown: true})

SEE ALSO:
- tables.go: tier tables and calendar adjustments
- competitors.go: rate shopping and market positioning
- elasticity.go: demand response to the quoted rate
*/
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// === CONFIGURATION ===

// Config carries the full factor-table set and global bounds for one
// unit. Scenario runs mutate a Clone, never the original.
type Config struct {
	BaseRate decimal.Decimal
	MinRate  decimal.Decimal
	MaxRate  decimal.Decimal

	// DefaultOccupancy is assumed when a quote has no occupancy
	// observation. PremiumAllowed bounds how far above the shopped
	// competitor average a quote may land.
	DefaultOccupancy float64
	PremiumAllowed   float64

	// Elasticity converts a relative rate change into a relative
	// occupancy change (negative: pricier rooms sell slower).
	// Estimated occupancy is clamped to [OccupancyFloor,
	// OccupancyCeiling].
	Elasticity       float64
	OccupancyFloor   float64
	OccupancyCeiling float64

	OccupancyTiers TierTable
	LeadTiers      TierTable
	Calendar       CalendarAdjust
	Events         EventCalendar
	Competitors    CompetitorSet
}

// Default returns the demo configuration: a 189.00 base rate bounded
// to [99.00, 449.00] with the standard tier tables, the Chicago 2026
// event calendar and the downtown shop list.
func Default() Config {
	return Config{
		BaseRate:         fiscal.MustDecimal("189.00"),
		MinRate:          fiscal.MustDecimal("99.00"),
		MaxRate:          fiscal.MustDecimal("449.00"),
		DefaultOccupancy: 0.75,
		PremiumAllowed:   0.15,
		Elasticity:       -0.3,
		OccupancyFloor:   0.20,
		OccupancyCeiling: 0.98,
		OccupancyTiers:   DefaultOccupancyTiers(),
		LeadTiers:        DefaultLeadTiers(),
		Calendar:         DefaultCalendar(),
		Events:           DefaultEvents(),
		Competitors:      DefaultCompetitors(),
	}
}

func (c Config) Validate() error {
	if !c.BaseRate.IsPositive() {
		return &fiscal.InputError{Field: "base_rate", Value: c.BaseRate.String(), Reason: "must be positive"}
	}
	if !c.MinRate.IsPositive() {
		return &fiscal.InputError{Field: "min_rate", Value: c.MinRate.String(), Reason: "must be positive"}
	}
	if c.MaxRate.LessThan(c.MinRate) {
		return &fiscal.InputError{Field: "max_rate", Value: c.MaxRate.String(), Reason: "must not be below min_rate"}
	}
	if c.BaseRate.LessThan(c.MinRate) || c.BaseRate.GreaterThan(c.MaxRate) {
		return &fiscal.InputError{Field: "base_rate", Value: c.BaseRate.String(), Reason: "must sit within [min_rate, max_rate]"}
	}
	if c.DefaultOccupancy < 0 || c.DefaultOccupancy > 1 {
		return &fiscal.InputError{Field: "default_occupancy", Value: fmt.Sprintf("%.2f", c.DefaultOccupancy), Reason: "must be within [0, 1]"}
	}
	if c.PremiumAllowed < 0 {
		return &fiscal.InputError{Field: "premium_allowed", Value: fmt.Sprintf("%.2f", c.PremiumAllowed), Reason: "must not be negative"}
	}
	if c.Elasticity > 0 {
		return &fiscal.InputError{Field: "elasticity", Value: fmt.Sprintf("%.2f", c.Elasticity), Reason: "must not be positive"}
	}
	if c.OccupancyFloor <= 0 || c.OccupancyCeiling > 1 || c.OccupancyFloor >= c.OccupancyCeiling {
		return &fiscal.InputError{
			Field:  "occupancy_bounds",
			Value:  fmt.Sprintf("[%.2f, %.2f]", c.OccupancyFloor, c.OccupancyCeiling),
			Reason: "floor must be positive and below ceiling, ceiling at most 1",
		}
	}
	if err := c.OccupancyTiers.Validate("occupancy_tiers"); err != nil {
		return err
	}
	if err := c.LeadTiers.Validate("lead_time_tiers"); err != nil {
		return err
	}
	if err := c.Calendar.Validate(); err != nil {
		return err
	}
	return c.Competitors.Validate()
}

// Clone deep-copies the config so scenario adjustments cannot leak
// back into the baseline.
func (c Config) Clone() Config {
	out := c
	out.OccupancyTiers = append(TierTable(nil), c.OccupancyTiers...)
	out.LeadTiers = append(TierTable(nil), c.LeadTiers...)
	out.Calendar = c.Calendar.Clone()
	out.Events = c.Events.Clone()
	out.Competitors = c.Competitors.Clone()
	return out
}

// === QUOTES ===

// QuoteRequest names the inputs of one rate computation. Occupancy
// and LeadDays are optional: nil means "use the config default" and
// "pricing for tonight" respectively.
type QuoteRequest struct {
	Date      fiscal.Date
	Occupancy *float64
	LeadDays  *int
	Breakdown bool
}

// OccupancyFactor, DayFactor, SeasonFactor, LeadFactor and
// EventFactor itemize one dimension each inside a FactorBreakdown.
type OccupancyFactor struct {
	Level      float64 // percent
	Tier       string
	Adjustment float64
}

type DayFactor struct {
	Day        string
	Adjustment float64
}

type SeasonFactor struct {
	Month      string
	Adjustment float64
}

type LeadFactor struct {
	Days       int
	Tier       string
	Adjustment float64
}

type EventFactor struct {
	Name       string
	Type       string
	Adjustment float64
}

// FactorBreakdown itemizes every adjustment that shaped a quote.
// Event is nil on quiet days.
type FactorBreakdown struct {
	Occupancy OccupancyFactor
	DayOfWeek DayFactor
	Season    SeasonFactor
	LeadTime  LeadFactor
	Event     *EventFactor
}

// RateQuote is the engine's answer for one date. Optimized is rounded
// to cents; CompetitorAvg is the rounded mean of the day's shopped
// rates, which ride along for market positioning.
type RateQuote struct {
	Date               fiscal.Date
	DayOfWeek          string
	BaseRate           decimal.Decimal
	Optimized          decimal.Decimal
	TotalAdjustmentPct float64
	RateChange         decimal.Decimal
	CompetitorAvg      decimal.Decimal
	PositionVsMarket   string
	MarketCapApplied   bool
	Competitors        []CompetitorRate
	Breakdown          *FactorBreakdown
}

// === ENGINE ===

// Engine binds a validated config to a noise source. It is safe for
// concurrent use as long as the Noise implementation is.
type Engine struct {
	cfg   Config
	noise Noise
}

// NewEngine validates the config and returns a ready engine.
func NewEngine(cfg Config, noise Noise) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = NewSystemNoise(0)
	}
	return &Engine{cfg: cfg, noise: noise}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Quote computes the optimized rate for one date.
//
// The five factor adjustments are summed, the base rate is scaled by
// the total, the result is clamped to [MinRate, MaxRate] and then
// capped at PremiumAllowed above the day's competitor average. The
// minimum rate wins over the market cap, so the final rate never
// drops below MinRate.
func (e *Engine) Quote(req QuoteRequest) (RateQuote, error) {
	if req.Date.IsZero() {
		return RateQuote{}, &fiscal.InputError{Field: "date", Value: "zero", Reason: "must be a valid calendar date"}
	}

	occupancy := e.cfg.DefaultOccupancy
	if req.Occupancy != nil {
		occupancy = *req.Occupancy
		if occupancy < 0 || occupancy > 1 {
			return RateQuote{}, &fiscal.InputError{
				Field:  "occupancy",
				Value:  fmt.Sprintf("%.4f", occupancy),
				Reason: "must be within [0, 1]",
			}
		}
	}

	leadDays := 0
	if req.LeadDays != nil {
		leadDays = *req.LeadDays
		if leadDays < 0 {
			return RateQuote{}, &fiscal.InputError{
				Field:  "lead_days",
				Value:  fmt.Sprintf("%d", leadDays),
				Reason: "must not be negative",
			}
		}
	}

	occTier := e.cfg.OccupancyTiers.Pick(occupancy)
	dayAdj := e.cfg.Calendar.DayOfWeek[req.Date.Weekday()]
	seasonAdj := e.cfg.Calendar.Month[req.Date.Month()]
	leadTier := e.cfg.LeadTiers.Pick(float64(leadDays))

	eventImpact := 0.0
	event, hasEvent := e.cfg.Events.On(req.Date)
	if hasEvent {
		eventImpact = event.Impact
	}

	total := occTier.Adjustment + dayAdj + seasonAdj + leadTier.Adjustment + eventImpact

	rates := e.cfg.Competitors.Sample(dayAdj, eventImpact, e.noise)
	avg := AverageRate(rates)

	raw := e.cfg.BaseRate.Mul(fiscal.Frac(total))
	optimized := decimal.Max(e.cfg.MinRate, decimal.Min(e.cfg.MaxRate, raw))

	capApplied := false
	cap := avg.Mul(fiscal.Frac(e.cfg.PremiumAllowed))
	if optimized.GreaterThan(cap) {
		capApplied = true
		optimized = decimal.Max(cap, e.cfg.MinRate)
	}

	optimized = fiscal.Round2(optimized)

	quote := RateQuote{
		Date:               req.Date,
		DayOfWeek:          req.Date.DayName(),
		BaseRate:           e.cfg.BaseRate,
		Optimized:          optimized,
		TotalAdjustmentPct: round1(total * 100),
		RateChange:         fiscal.Round2(optimized.Sub(e.cfg.BaseRate)),
		CompetitorAvg:      fiscal.Round2(avg),
		PositionVsMarket:   marketSide(optimized, avg),
		MarketCapApplied:   capApplied,
		Competitors:        rates,
	}

	if req.Breakdown {
		quote.Breakdown = &FactorBreakdown{
			Occupancy: OccupancyFactor{
				Level:      round1(occupancy * 100),
				Tier:       occTier.Name,
				Adjustment: occTier.Adjustment,
			},
			DayOfWeek: DayFactor{Day: quote.DayOfWeek, Adjustment: dayAdj},
			Season:    SeasonFactor{Month: req.Date.MonthName(), Adjustment: seasonAdj},
			LeadTime:  LeadFactor{Days: leadDays, Tier: leadTier.Name, Adjustment: leadTier.Adjustment},
		}
		if hasEvent {
			quote.Breakdown.Event = &EventFactor{Name: event.Name, Type: event.Type, Adjustment: event.Impact}
		}
	}
	return quote, nil
}

func marketSide(ours, avg decimal.Decimal) string {
	switch {
	case ours.GreaterThan(avg):
		return "above"
	case ours.LessThan(avg):
		return "below"
	default:
		return "at"
	}
}
