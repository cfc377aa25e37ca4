/*
Package factory provides JSON to Go scenario conversion.

PURPOSE:
  Converts JSON scenario definitions into cashflow.ScenarioRequest
  values. This keeps one wire schema for what-if runs across every
  surface: the API request body, the canned demo presets and the CLI
  scenario subcommand all parse through here.

JSON SCHEMA:
  {
    "id": "cost-shock",
    "scenario_name": "Cost Shock",
    "description": "Operating expenses jump twenty percent",
    "category": "expense",
    "start_date": "2026-08-01",
    "end_date": "2026-08-30",
    "days": 30,
    "occupancy_change": -10,
    "rate_change": 5,
    "expense_change": 20
  }

WINDOW RESOLUTION:
  Explicit start_date/end_date win. A definition without dates is a
  floating window: it starts today and runs for "days" days (30 when
  unset), which is what lets presets ship without hardcoded dates.

KEY FEATURES:
  - Validates the definition and resolves the window
  - Sets sensible defaults (today, 30 days)
  - Round-trips requests back to JSON for the API surface

USAGE:
  f := factory.NewScenarioFactory()

  // From a JSON request body
  req, err := f.ParseScenario(body)

  // From a preset definition
  req, err := f.FromJSON(preset)

  result, err := cashflow.RunScenario(unit, req, noise)

SEE ALSO:
  - cashflow/scenario.go: ScenarioRequest and the comparison run
  - api/scenarios.go: the canned preset definitions
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/fiscal"
)

// DefaultScenarioDays is the floating-window length used when a
// definition names neither an end date nor a day count.
const DefaultScenarioDays = 30

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScenarioJSON is the JSON representation of a what-if scenario. The
// change fields are percentages: -10 means ten percent less.
type ScenarioJSON struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"scenario_name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`

	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Days      int    `json:"days,omitempty"`

	OccupancyChange float64 `json:"occupancy_change,omitempty"`
	RateChange      float64 `json:"rate_change,omitempty"`
	ExpenseChange   float64 `json:"expense_change,omitempty"`
}

// =============================================================================
// SCENARIO FACTORY
// =============================================================================

// ScenarioFactory converts JSON scenario definitions to requests.
// Today is the floating-window anchor; tests pin it.
type ScenarioFactory struct {
	Today func() fiscal.Date
}

// NewScenarioFactory creates a factory anchored on the real calendar.
func NewScenarioFactory() *ScenarioFactory {
	return &ScenarioFactory{Today: fiscal.Today}
}

// ParseScenario parses a JSON string into a ScenarioRequest.
func (f *ScenarioFactory) ParseScenario(jsonStr string) (cashflow.ScenarioRequest, error) {
	var sj ScenarioJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return cashflow.ScenarioRequest{}, &fiscal.InputError{
			Field:  "scenario",
			Value:  jsonStr,
			Reason: fmt.Sprintf("malformed JSON: %v", err),
		}
	}
	return f.FromJSON(sj)
}

// FromJSON converts a ScenarioJSON definition to a ScenarioRequest,
// resolving the window. Range rules (span cap, ordering against the
// unit) stay with RunScenario; this only rejects what cannot be
// resolved at all.
func (f *ScenarioFactory) FromJSON(sj ScenarioJSON) (cashflow.ScenarioRequest, error) {
	if sj.Name == "" {
		return cashflow.ScenarioRequest{}, &fiscal.InputError{Field: "scenario_name", Value: "", Reason: "must not be empty"}
	}
	if sj.Days < 0 {
		return cashflow.ScenarioRequest{}, &fiscal.InputError{Field: "days", Value: fmt.Sprintf("%d", sj.Days), Reason: "must not be negative"}
	}

	window, err := f.resolveWindow(sj)
	if err != nil {
		return cashflow.ScenarioRequest{}, err
	}

	return cashflow.ScenarioRequest{
		Name:               sj.Name,
		Window:             window,
		OccupancyChangePct: sj.OccupancyChange,
		RateChangePct:      sj.RateChange,
		ExpenseChangePct:   sj.ExpenseChange,
	}, nil
}

// ToJSON converts a ScenarioRequest back to its JSON definition.
func (f *ScenarioFactory) ToJSON(req cashflow.ScenarioRequest) ScenarioJSON {
	return ScenarioJSON{
		Name:            req.Name,
		StartDate:       req.Window.Start.String(),
		EndDate:         req.Window.End.String(),
		Days:            req.Window.SpanDays(),
		OccupancyChange: req.OccupancyChangePct,
		RateChange:      req.RateChangePct,
		ExpenseChange:   req.ExpenseChangePct,
	}
}

// =============================================================================
// WINDOW RESOLUTION
// =============================================================================

func (f *ScenarioFactory) resolveWindow(sj ScenarioJSON) (fiscal.DateRange, error) {
	days := sj.Days
	if days == 0 {
		days = DefaultScenarioDays
	}

	start := f.today()
	if sj.StartDate != "" {
		parsed, err := fiscal.ParseDate(sj.StartDate)
		if err != nil {
			return fiscal.DateRange{}, &fiscal.InputError{Field: "start_date", Value: sj.StartDate, Reason: "must be YYYY-MM-DD"}
		}
		start = parsed
	}

	end := start.AddDays(days - 1)
	if sj.EndDate != "" {
		parsed, err := fiscal.ParseDate(sj.EndDate)
		if err != nil {
			return fiscal.DateRange{}, &fiscal.InputError{Field: "end_date", Value: sj.EndDate, Reason: "must be YYYY-MM-DD"}
		}
		end = parsed
	}

	return fiscal.DateRange{Start: start, End: end}, nil
}

func (f *ScenarioFactory) today() fiscal.Date {
	if f.Today != nil {
		return f.Today()
	}
	return fiscal.Today()
}
