/*
scenarios_test.go - HTTP tests for the scenario endpoints

PURPOSE:
	Tests the preset catalog and both scenario runners:
	- Presets are listed with their adjustment definitions
	- Inline definitions run and compare against the baseline
	- Preset runs accept window overrides but keep the adjustments
	- Malformed definitions and unknown presets are rejected
*/
package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/api"
)

func TestListScenarios_PresetCatalog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]api.ScenarioPresetDTO](t, rec)

	require.Len(t, presets, 3)
	ids := []string{presets[0].ID, presets[1].ID, presets[2].ID}
	assert.Equal(t, []string{"conservative", "aggressive-event-pricing", "cost-shock"}, ids)

	conservative := presets[0]
	assert.Equal(t, "Conservative Outlook", conservative.Name)
	assert.Equal(t, "demand", conservative.Category)
	assert.InDelta(t, -10.0, conservative.Definition.OccupancyChange, 0.001)
	assert.InDelta(t, -5.0, conservative.Definition.RateChange, 0.001)
	assert.InDelta(t, 5.0, conservative.Definition.ExpenseChange, 0.001)
}

func TestRunScenario_InlineDefinition(t *testing.T) {
	// GIVEN: a two-week occupancy dip defined inline
	// WHEN: running it
	// THEN: the scenario leg trails the baseline and the daily
	//       comparison covers every day

	env := newTestEnv(t)

	body := `{
		"scenario_name": "Summer Slump",
		"start_date": "2026-08-10",
		"end_date": "2026-08-23",
		"occupancy_change": -10
	}`
	rec := env.do(t, http.MethodPost, "/api/scenarios/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ScenarioResponse](t, rec)

	assert.Equal(t, "Summer Slump", resp.ScenarioName)
	assert.Equal(t, "2026-08-10", resp.Period.Start)
	assert.Equal(t, "2026-08-23", resp.Period.End)
	assert.Equal(t, 14, resp.Period.Days)
	assert.Equal(t, "-10%", resp.Adjustments.OccupancyChange)
	assert.Equal(t, "0%", resp.Adjustments.RateChange)

	cmp := resp.Comparison
	assert.Less(t, cmp.Scenario.FinalBalance, cmp.Baseline.FinalBalance,
		"lower occupancy must cost cash")
	assert.InDelta(t, cmp.Scenario.FinalBalance-cmp.Baseline.FinalBalance,
		cmp.Impact.FinalBalanceDifference, 0.01)
	assert.InDelta(t, cmp.Scenario.TotalNetCashFlow-cmp.Baseline.TotalNetCashFlow,
		cmp.Impact.CashFlowDifference, 0.01)

	require.Len(t, resp.DailyComparison, 14)
	lastDay := resp.DailyComparison[13]
	assert.InDelta(t, cmp.Impact.FinalBalanceDifference, lastDay.Difference, 0.01,
		"the final day's gap is the scenario impact")
	assert.InDelta(t, cmp.Baseline.FinalBalance, lastDay.BaselineBalance, 0.01)
}

func TestRunScenario_Deterministic(t *testing.T) {
	env := newTestEnv(t)

	body := `{"scenario_name":"Repeatable","start_date":"2026-08-01","end_date":"2026-08-07","rate_change":5}`
	first := decode[api.ScenarioResponse](t, env.do(t, http.MethodPost, "/api/scenarios/run", body))
	second := decode[api.ScenarioResponse](t, env.do(t, http.MethodPost, "/api/scenarios/run", body))

	assert.Equal(t, first.Comparison, second.Comparison)
}

func TestRunScenario_RejectsBadDefinitions(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"scenario_name": `},
		{"missing name", `{"start_date":"2026-08-01","end_date":"2026-08-07"}`},
		{"negative days", `{"scenario_name":"x","days":-3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/scenarios/run", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRunScenarioPreset_WithWindowOverride(t *testing.T) {
	env := newTestEnv(t)

	body := `{"start_date":"2026-08-01","end_date":"2026-08-14"}`
	rec := env.do(t, http.MethodPost, "/api/scenarios/cost-shock/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ScenarioResponse](t, rec)

	assert.Equal(t, "Cost Shock", resp.ScenarioName)
	assert.Equal(t, "2026-08-01", resp.Period.Start)
	assert.Equal(t, 14, resp.Period.Days)
	assert.Equal(t, "20%", resp.Adjustments.ExpenseChange)
	assert.Less(t, resp.Comparison.Impact.FinalBalanceDifference, 0.0,
		"a pure cost increase always burns cash")
}

func TestRunScenarioPreset_DefaultWindow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/scenarios/conservative/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ScenarioResponse](t, rec)

	assert.Equal(t, "Conservative Outlook", resp.ScenarioName)
	assert.Equal(t, 30, resp.Period.Days)
}

func TestRunScenarioPreset_Unknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/scenarios/moonshot/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
