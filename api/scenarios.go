/*
scenarios.go - What-if scenario presets and runners

PURPOSE:

	Exposes the scenario engine over HTTP. A scenario re-projects a
	window with occupancy, rate and expense adjustments applied and
	compares the result against the unadjusted baseline.

AVAILABLE PRESETS:

	conservative:             Soft demand, discounted rates, cost creep
	aggressive-event-pricing: Push rates hard into event-driven demand
	cost-shock:               Expenses jump with revenue unchanged

USAGE VIA API:

	POST /api/scenarios/run
	{"scenario_name": "Summer Slump", "days": 30, "occupancy_change": -10}

	POST /api/scenarios/conservative/run
	{"start_date": "2026-08-01", "end_date": "2026-08-31"}

ADDING NEW PRESETS:
 1. Add to the 'scenarioPresets' slice with ID, name, description
 2. Fill the Definition with the adjustment percentages

SEE ALSO:
  - factory/scenario.go: Scenario JSON definitions
  - cashflow/scenario.go: The baseline/scenario comparison itself
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
)

// =============================================================================
// PRESET DEFINITIONS
// =============================================================================

var scenarioPresets = []ScenarioPresetDTO{
	{
		ID:          "conservative",
		Name:        "Conservative Outlook",
		Description: "Occupancy down 10%, rates discounted 5%, expenses up 5%",
		Category:    "demand",
		Definition: factory.ScenarioJSON{
			Name:            "Conservative Outlook",
			Days:            30,
			OccupancyChange: -10,
			RateChange:      -5,
			ExpenseChange:   5,
		},
	},
	{
		ID:          "aggressive-event-pricing",
		Name:        "Aggressive Event Pricing",
		Description: "Rates up 15% betting on event demand, small occupancy dip",
		Category:    "pricing",
		Definition: factory.ScenarioJSON{
			Name:            "Aggressive Event Pricing",
			Days:            30,
			OccupancyChange: -3,
			RateChange:      15,
		},
	},
	{
		ID:          "cost-shock",
		Name:        "Cost Shock",
		Description: "Operating expenses up 20% with revenue unchanged",
		Category:    "expense",
		Definition: factory.ScenarioJSON{
			Name:          "Cost Shock",
			Days:          30,
			ExpenseChange: 20,
		},
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available presets.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarioPresets)
}

// RunScenario runs a scenario defined inline in the request body.
// POST /api/scenarios/run
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Scenarios.ParseScenario(string(body))
	if err != nil {
		h.fail(w, "Invalid scenario", err)
		return
	}

	h.runScenario(w, req)
}

// RunScenarioPreset runs one of the named presets. The body may
// override the preset's window; adjustments stay fixed.
// POST /api/scenarios/{id}/run
func (h *Handler) RunScenarioPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var preset *ScenarioPresetDTO
	for i := range scenarioPresets {
		if scenarioPresets[i].ID == id {
			preset = &scenarioPresets[i]
			break
		}
	}
	if preset == nil {
		writeError(w, http.StatusNotFound, "Unknown scenario preset: "+id, nil)
		return
	}

	definition := preset.Definition
	var override factory.ScenarioJSON
	if err := json.NewDecoder(r.Body).Decode(&override); err == nil {
		if override.StartDate != "" {
			definition.StartDate = override.StartDate
		}
		if override.EndDate != "" {
			definition.EndDate = override.EndDate
		}
		if override.Days > 0 {
			definition.Days = override.Days
		}
	}

	req, err := h.Scenarios.FromJSON(definition)
	if err != nil {
		h.fail(w, "Invalid scenario", err)
		return
	}

	h.runScenario(w, req)
}

func (h *Handler) runScenario(w http.ResponseWriter, req cashflow.ScenarioRequest) {
	result, err := cashflow.RunScenario(h.unit(), req, h.Noise)
	if err != nil {
		h.fail(w, "Failed to run scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioResponse(result))
}
