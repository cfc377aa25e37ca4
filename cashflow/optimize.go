package cashflow

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// RateRecommendation is one quoted night plus its revenue impact at
// the assumed sell-through.
type RateRecommendation struct {
	pricing.RateQuote

	ProjectedRooms   int
	BaseRevenue      decimal.Decimal
	OptimizedRevenue decimal.Decimal
	RevenueUplift    decimal.Decimal
}

// PricingPlan is a window of rate recommendations with revenue
// totals comparing optimized rates against the flat base rate.
type PricingPlan struct {
	Window fiscal.DateRange
	Days   int

	BaseRate         decimal.Decimal
	MinRate          decimal.Decimal
	MaxRate          decimal.Decimal
	OccupancyUsedPct float64
	LeadDays         int

	AvgOptimizedRate      decimal.Decimal
	TotalBaseRevenue      decimal.Decimal
	TotalOptimizedRevenue decimal.Decimal
	TotalUplift           decimal.Decimal
	UpliftPct             float64

	Recommendations []RateRecommendation
}

// OptimizeWindow quotes every night in the window and sizes the
// revenue opportunity. Occupancy, when given, fixes the sell-through
// for both quoting and revenue math; otherwise the unit's average
// occupancy is assumed.
func (g *Generator) OptimizeWindow(window fiscal.DateRange, occupancy *float64, leadDays int, breakdown bool) (*PricingPlan, error) {
	if err := window.Validate(g.book.cfg.MaxWindowDays); err != nil {
		return nil, err
	}

	cfg := g.book.cfg
	effective := cfg.Pricing.DefaultOccupancy
	if occupancy != nil {
		effective = *occupancy
	}
	roomsSold := float64(cfg.RoomCount) * effective
	roomsDec := decimal.NewFromFloat(roomsSold)

	plan := &PricingPlan{
		Window:           window,
		BaseRate:         cfg.Pricing.BaseRate,
		MinRate:          cfg.Pricing.MinRate,
		MaxRate:          cfg.Pricing.MaxRate,
		OccupancyUsedPct: math.Round(effective*1000) / 10,
		LeadDays:         leadDays,
	}

	totalBase := decimal.Zero
	totalOptimized := decimal.Zero
	rateSum := decimal.Zero

	for day := window.Start; day.BeforeOrEqual(window.End); day = day.AddDays(1) {
		quote, err := g.eng.Quote(pricing.QuoteRequest{
			Date:      day,
			Occupancy: occupancy,
			LeadDays:  &leadDays,
			Breakdown: breakdown,
		})
		if err != nil {
			return nil, err
		}

		baseRevenue := roomsDec.Mul(cfg.Pricing.BaseRate)
		optimizedRevenue := roomsDec.Mul(quote.Optimized)
		totalBase = totalBase.Add(baseRevenue)
		totalOptimized = totalOptimized.Add(optimizedRevenue)
		rateSum = rateSum.Add(quote.Optimized)

		plan.Recommendations = append(plan.Recommendations, RateRecommendation{
			RateQuote:        quote,
			ProjectedRooms:   int(math.Round(roomsSold)),
			BaseRevenue:      fiscal.Round2(baseRevenue),
			OptimizedRevenue: fiscal.Round2(optimizedRevenue),
			RevenueUplift:    fiscal.Round2(optimizedRevenue.Sub(baseRevenue)),
		})
	}

	plan.Days = len(plan.Recommendations)
	plan.AvgOptimizedRate = fiscal.Round2(rateSum.Div(decimal.NewFromInt(int64(plan.Days))))
	plan.TotalBaseRevenue = fiscal.Round2(totalBase)
	plan.TotalOptimizedRevenue = fiscal.Round2(totalOptimized)
	plan.TotalUplift = fiscal.Round2(totalOptimized.Sub(totalBase))
	if totalBase.IsPositive() {
		uplift, _ := totalOptimized.Sub(totalBase).Div(totalBase).Float64()
		plan.UpliftPct = math.Round(uplift*1000) / 10
	}
	return plan, nil
}
