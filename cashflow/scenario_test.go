package cashflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// =============================================================================
// SCENARIO COMPARISON TESTS
// =============================================================================

func TestRunScenario_ExpenseDeltaExactArithmetic(t *testing.T) {
	// GIVEN: two shoulder-season weekdays and a +10% expense delta
	// WHEN: running the scenario
	// THEN: the scenario leg pays exactly 10% more on each day's
	//       11623.50 expense base, 1162.35 per day

	res, err := cashflow.RunScenario(cashflow.DefaultUnit(), cashflow.ScenarioRequest{
		Name:             "vendor repricing",
		Window:           span(t, "2026-03-03", "2026-03-04"),
		ExpenseChangePct: 10,
	}, pricing.Midpoint{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Days)
	assert.Equal(t, "72434.26", res.Baseline.TotalNetCashFlow.String())
	assert.Equal(t, "422434.26", res.Baseline.FinalBalance.String())
	assert.Equal(t, "420109.56", res.Scenario.FinalBalance.String())
	assert.Equal(t, "-2324.70", res.CashFlowDifference.String())
	assert.Equal(t, "-2324.70", res.FinalBalanceDifference.String())

	require.Len(t, res.Daily, 2)
	assert.Equal(t, "386217.13", res.Daily[0].BaselineBalance.String())
	assert.Equal(t, "-1162.35", res.Daily[0].Difference.String())
	assert.Equal(t, "-2324.70", res.Daily[1].Difference.String(), "differences compound day over day")
}

func TestRunScenario_RateDeltaFlowsThroughRevenue(t *testing.T) {
	// GIVEN: a +10% rate delta and unchanged occupancy and expenses
	// WHEN: running the scenario
	// THEN: scenario revenue books at 207.90 instead of 189.00 and
	//       the two-day cash flow gains exactly 9568.16

	res, err := cashflow.RunScenario(cashflow.DefaultUnit(), cashflow.ScenarioRequest{
		Name:          "rate push",
		Window:        span(t, "2026-03-03", "2026-03-04"),
		RateChangePct: 10,
	}, pricing.Midpoint{})
	require.NoError(t, err)

	assert.Equal(t, "72434.26", res.Baseline.TotalNetCashFlow.String())
	assert.Equal(t, "82002.42", res.Scenario.TotalNetCashFlow.String())
	assert.Equal(t, "9568.16", res.CashFlowDifference.String())
	assert.Equal(t, "9568.16", res.FinalBalanceDifference.String())
}

func TestRunScenario_BaselineMatchesStaticProjection(t *testing.T) {
	// GIVEN: the same unit, window and deterministic noise
	// WHEN: running a scenario and a plain static projection
	// THEN: the baseline leg and the projection agree exactly, and a
	//       positive occupancy delta lifts only the scenario leg

	cfg := cashflow.DefaultUnit()
	window := span(t, "2026-03-03", "2026-03-06")

	gen := newMidpointGenerator(t, cfg)
	proj, err := gen.Project(window, cashflow.ProjectOptions{})
	require.NoError(t, err)

	res, err := cashflow.RunScenario(cfg, cashflow.ScenarioRequest{
		Name:               "demand surge",
		Window:             window,
		OccupancyChangePct: 10,
	}, pricing.Midpoint{})
	require.NoError(t, err)

	assert.True(t, res.Baseline.TotalNetCashFlow.Equal(proj.NetChange),
		"baseline %s should equal projection net %s", res.Baseline.TotalNetCashFlow, proj.NetChange)
	assert.True(t, res.Baseline.FinalBalance.Equal(proj.ClosingBalance))
	assert.Equal(t, proj.DaysBelowMinimum, res.Baseline.DaysBelowMinimum)

	assert.True(t, res.Scenario.FinalBalance.GreaterThan(res.Baseline.FinalBalance),
		"higher occupancy should close higher")
	assert.True(t, res.CashFlowDifference.IsPositive())
}

func TestRunScenario_CountsDaysBelowReserve(t *testing.T) {
	// GIVEN: a unit opening exactly at its reserve and a 5x expense
	//        scenario
	// WHEN: running two days
	// THEN: only the scenario leg dips under the reserve, on both days

	cfg := cashflow.DefaultUnit()
	cfg.OpeningBalance = dec("75000.00")

	res, err := cashflow.RunScenario(cfg, cashflow.ScenarioRequest{
		Name:             "cost blowout",
		Window:           span(t, "2026-03-03", "2026-03-04"),
		ExpenseChangePct: 400,
	}, pricing.Midpoint{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Baseline.DaysBelowMinimum)
	assert.Equal(t, 2, res.Scenario.DaysBelowMinimum)
	assert.Equal(t, "64723.13", res.Daily[0].ScenarioBalance.String())
	assert.Equal(t, "54446.26", res.Scenario.FinalBalance.String())
}

func TestRunScenario_RequiresNameAndBoundedWindow(t *testing.T) {
	cfg := cashflow.DefaultUnit()

	_, err := cashflow.RunScenario(cfg, cashflow.ScenarioRequest{
		Window: span(t, "2026-03-03", "2026-03-04"),
	}, pricing.Midpoint{})
	assert.True(t, fiscal.IsInvalidInput(err), "unnamed scenario should be InvalidInput, got %v", err)

	_, err = cashflow.RunScenario(cfg, cashflow.ScenarioRequest{
		Name:   "too long",
		Window: span(t, "2026-01-01", "2026-04-01"),
	}, pricing.Midpoint{})
	assert.True(t, fiscal.IsInvalidRange(err), "91 day window should be InvalidRange, got %v", err)
}
