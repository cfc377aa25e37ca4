package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/fiscal"
)

// pinned returns a factory anchored on 2026-08-01 so floating windows
// are deterministic.
func pinned(t *testing.T) *factory.ScenarioFactory {
	t.Helper()
	anchor, err := fiscal.ParseDate("2026-08-01")
	require.NoError(t, err)
	f := factory.NewScenarioFactory()
	f.Today = func() fiscal.Date { return anchor }
	return f
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseScenario_FloatingWindowDefaults(t *testing.T) {
	// GIVEN: a definition with no dates and no day count
	// WHEN: parsing it
	// THEN: the window floats from today for thirty days

	f := pinned(t)

	req, err := f.ParseScenario(`{"scenario_name": "Soft Demand", "occupancy_change": -10}`)
	require.NoError(t, err)

	assert.Equal(t, "Soft Demand", req.Name)
	assert.Equal(t, "2026-08-01", req.Window.Start.String())
	assert.Equal(t, "2026-08-30", req.Window.End.String())
	assert.Equal(t, 30, req.Window.SpanDays())
	assert.Equal(t, -10.0, req.OccupancyChangePct)
	assert.Zero(t, req.RateChangePct)
	assert.Zero(t, req.ExpenseChangePct)
}

func TestParseScenario_ExplicitDatesWin(t *testing.T) {
	f := pinned(t)

	req, err := f.ParseScenario(`{
		"scenario_name": "Labor Day Push",
		"start_date": "2026-09-01",
		"end_date": "2026-09-14",
		"days": 5,
		"rate_change": 12.5
	}`)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", req.Window.Start.String())
	assert.Equal(t, "2026-09-14", req.Window.End.String(), "an explicit end date overrides the day count")
	assert.Equal(t, 12.5, req.RateChangePct)
}

func TestFromJSON_DayCountAnchorsOnToday(t *testing.T) {
	f := pinned(t)

	req, err := f.FromJSON(factory.ScenarioJSON{Name: "One Week", Days: 7})
	require.NoError(t, err)

	assert.Equal(t, "2026-08-01", req.Window.Start.String())
	assert.Equal(t, "2026-08-07", req.Window.End.String())
	assert.Equal(t, 7, req.Window.SpanDays())
}

func TestFromJSON_StartDateWithDayCount(t *testing.T) {
	f := pinned(t)

	req, err := f.FromJSON(factory.ScenarioJSON{Name: "Window", StartDate: "2026-12-01", Days: 10})
	require.NoError(t, err)

	assert.Equal(t, "2026-12-01", req.Window.Start.String())
	assert.Equal(t, "2026-12-10", req.Window.End.String())
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestFromJSON_RejectsUnresolvableDefinitions(t *testing.T) {
	f := pinned(t)

	cases := []struct {
		name string
		sj   factory.ScenarioJSON
	}{
		{"missing name", factory.ScenarioJSON{Days: 10}},
		{"negative days", factory.ScenarioJSON{Name: "X", Days: -5}},
		{"bad start date", factory.ScenarioJSON{Name: "X", StartDate: "09/01/2026"}},
		{"bad end date", factory.ScenarioJSON{Name: "X", StartDate: "2026-09-01", EndDate: "tomorrow"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.FromJSON(tc.sj)
			require.Error(t, err)
			assert.True(t, fiscal.IsInvalidInput(err), "want InvalidInput, got %v", err)
		})
	}
}

func TestParseScenario_MalformedJSON(t *testing.T) {
	f := pinned(t)

	_, err := f.ParseScenario(`{"scenario_name": `)
	require.Error(t, err)
	assert.True(t, fiscal.IsInvalidInput(err))
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestToJSON_EchoesResolvedWindow(t *testing.T) {
	f := pinned(t)

	req, err := f.FromJSON(factory.ScenarioJSON{
		Name:            "Cost Shock",
		Days:            14,
		ExpenseChange:   20,
		OccupancyChange: -2,
	})
	require.NoError(t, err)

	sj := f.ToJSON(req)
	assert.Equal(t, "Cost Shock", sj.Name)
	assert.Equal(t, "2026-08-01", sj.StartDate)
	assert.Equal(t, "2026-08-14", sj.EndDate)
	assert.Equal(t, 14, sj.Days)
	assert.Equal(t, 20.0, sj.ExpenseChange)
	assert.Equal(t, -2.0, sj.OccupancyChange)
}
