package cashflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/fiscal"
)

// =============================================================================
// PRICING WINDOW TESTS
// =============================================================================

func TestOptimizeWindow_SizesRevenueOpportunity(t *testing.T) {
	// GIVEN: a quiet market, 70% sell-through and same-day pricing on
	//        a high-season Friday and Saturday
	// WHEN: optimizing the window
	// THEN: the nights quote at 330.75 and 340.20 and the uplift
	//       against the flat 189.00 base is 77.5%

	gen := newMidpointGenerator(t, quietUnit())

	plan, err := gen.OptimizeWindow(span(t, "2026-08-07", "2026-08-08"), fp(0.70), 0, true)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Days)
	assert.Equal(t, "189.00", plan.BaseRate.String())
	assert.Equal(t, 70.0, plan.OccupancyUsedPct)
	assert.Equal(t, 0, plan.LeadDays)

	require.Len(t, plan.Recommendations, 2)
	friday, saturday := plan.Recommendations[0], plan.Recommendations[1]

	assert.Equal(t, "330.75", friday.Optimized.String())
	assert.Equal(t, 175, friday.ProjectedRooms)
	assert.Equal(t, "33075.00", friday.BaseRevenue.String())
	assert.Equal(t, "57881.25", friday.OptimizedRevenue.String())
	assert.Equal(t, "24806.25", friday.RevenueUplift.String())

	require.NotNil(t, friday.Breakdown)
	assert.Equal(t, "moderate", friday.Breakdown.Occupancy.Tier)
	assert.Equal(t, 0.2, friday.Breakdown.DayOfWeek.Adjustment)
	assert.Equal(t, 0.25, friday.Breakdown.Season.Adjustment)
	assert.Equal(t, "same_day", friday.Breakdown.LeadTime.Tier)
	assert.Nil(t, friday.Breakdown.Event)

	assert.Equal(t, "340.20", saturday.Optimized.String())
	assert.Equal(t, "26460.00", saturday.RevenueUplift.String())

	assert.Equal(t, "335.48", plan.AvgOptimizedRate.String())
	assert.Equal(t, "66150.00", plan.TotalBaseRevenue.String())
	assert.Equal(t, "117416.25", plan.TotalOptimizedRevenue.String())
	assert.Equal(t, "51266.25", plan.TotalUplift.String())
	assert.InDelta(t, 77.5, plan.UpliftPct, 1e-9)
}

func TestOptimizeWindow_DefaultsToAverageOccupancy(t *testing.T) {
	// GIVEN: no observed occupancy and a week of lead time
	// WHEN: optimizing a single shoulder-season night
	// THEN: the unit's average occupancy drives the plan and the lead
	//       tier resolves to "short"

	cfg := quietUnit()
	gen := newMidpointGenerator(t, cfg)

	plan, err := gen.OptimizeWindow(span(t, "2026-03-03", "2026-03-03"), nil, 7, true)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Days)
	assert.Equal(t, 75.0, plan.OccupancyUsedPct)
	assert.Equal(t, 7, plan.LeadDays)

	rec := plan.Recommendations[0]
	assert.Equal(t, 188, rec.ProjectedRooms, "250 rooms at 75% rounds to 188")
	require.NotNil(t, rec.Breakdown)
	assert.Equal(t, "high", rec.Breakdown.Occupancy.Tier)
	assert.Equal(t, 7, rec.Breakdown.LeadTime.Days)
	assert.Equal(t, "short", rec.Breakdown.LeadTime.Tier)

	assert.True(t, rec.Optimized.GreaterThanOrEqual(cfg.Pricing.MinRate))
	assert.True(t, rec.Optimized.LessThanOrEqual(cfg.Pricing.MaxRate))
}

func TestOptimizeWindow_WindowBound(t *testing.T) {
	gen := newMidpointGenerator(t, quietUnit())

	_, err := gen.OptimizeWindow(span(t, "2026-01-01", "2026-04-01"), nil, 0, false)
	assert.True(t, fiscal.IsInvalidRange(err), "91 day window should be InvalidRange, got %v", err)
}
