package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// ScenarioRequest describes a what-if run: percentage deltas applied
// to occupancy, rate and expenses over a window. A +10 rate change
// means rooms sell for ten percent more in the scenario leg.
type ScenarioRequest struct {
	Name   string
	Window fiscal.DateRange

	OccupancyChangePct float64
	RateChangePct      float64
	ExpenseChangePct   float64
}

// ScenarioLeg summarizes one side of the comparison.
type ScenarioLeg struct {
	TotalNetCashFlow decimal.Decimal
	FinalBalance     decimal.Decimal
	DaysBelowMinimum int
}

// DayComparison pairs the two closing balances for one date.
type DayComparison struct {
	Date            fiscal.Date
	BaselineBalance decimal.Decimal
	ScenarioBalance decimal.Decimal
	Difference      decimal.Decimal
}

// ScenarioResult is the full baseline-versus-scenario comparison.
type ScenarioResult struct {
	Name   string
	Window fiscal.DateRange
	Days   int

	OccupancyChangePct float64
	RateChangePct      float64
	ExpenseChangePct   float64

	Baseline ScenarioLeg
	Scenario ScenarioLeg

	CashFlowDifference     decimal.Decimal
	FinalBalanceDifference decimal.Decimal

	Daily []DayComparison
}

// RunScenario projects the window twice: once against the unit as
// configured and once with the requested adjustments. Revenue deltas
// flow through the scenario config; the expense delta scales the
// baseline expense schedule directly, payment calendar intact. Both
// legs run the static revenue path so the comparison isolates the
// requested changes.
func RunScenario(cfg UnitConfig, req ScenarioRequest, noise pricing.Noise) (*ScenarioResult, error) {
	if req.Name == "" {
		return nil, &fiscal.InputError{Field: "scenario_name", Value: "", Reason: "must not be empty"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := req.Window.Validate(cfg.MaxWindowDays); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = pricing.NewSystemNoise(0)
	}

	// The adjusted copy skips revalidation: an aggressive occupancy
	// bump may push past 1.0, which is exactly the stress being
	// modeled, and only the static path reads it.
	scenCfg := cfg.Clone()
	scenCfg.Pricing.BaseRate = cfg.Pricing.BaseRate.Mul(fiscal.Frac(req.RateChangePct / 100))
	scenCfg.Pricing.DefaultOccupancy = cfg.Pricing.DefaultOccupancy * (1 + req.OccupancyChangePct/100)

	baseBook := dayBook{cfg: cfg, noise: noise}
	scenBook := dayBook{cfg: scenCfg, noise: noise}
	expenseScale := fiscal.Frac(req.ExpenseChangePct / 100)

	result := &ScenarioResult{
		Name:               req.Name,
		Window:             req.Window,
		OccupancyChangePct: req.OccupancyChangePct,
		RateChangePct:      req.RateChangePct,
		ExpenseChangePct:   req.ExpenseChangePct,
	}

	baseBalance := cfg.OpeningBalance
	scenBalance := cfg.OpeningBalance
	baseNet := decimal.Zero
	scenNet := decimal.Zero

	for day := req.Window.Start; day.BeforeOrEqual(req.Window.End); day = day.AddDays(1) {
		baseIn := sumAccounts(baseBook.staticInflows(day))
		baseOut := sumAccounts(baseBook.outflows(day))
		dayBaseNet := baseIn.Sub(baseOut)
		baseBalance = baseBalance.Add(dayBaseNet)
		baseNet = baseNet.Add(dayBaseNet)

		scenIn := sumAccounts(scenBook.staticInflows(day))
		scenOut := sumAccounts(baseBook.outflows(day)).Mul(expenseScale)
		dayScenNet := scenIn.Sub(scenOut)
		scenBalance = scenBalance.Add(dayScenNet)
		scenNet = scenNet.Add(dayScenNet)

		baseClosing := fiscal.Round2(baseBalance)
		scenClosing := fiscal.Round2(scenBalance)
		result.Daily = append(result.Daily, DayComparison{
			Date:            day,
			BaselineBalance: baseClosing,
			ScenarioBalance: scenClosing,
			Difference:      scenClosing.Sub(baseClosing),
		})

		if baseClosing.LessThan(cfg.MinimumReserve) {
			result.Baseline.DaysBelowMinimum++
		}
		if scenClosing.LessThan(cfg.MinimumReserve) {
			result.Scenario.DaysBelowMinimum++
		}
	}

	result.Days = len(result.Daily)
	result.Baseline.TotalNetCashFlow = fiscal.Round2(baseNet)
	result.Baseline.FinalBalance = fiscal.Round2(baseBalance)
	result.Scenario.TotalNetCashFlow = fiscal.Round2(scenNet)
	result.Scenario.FinalBalance = fiscal.Round2(scenBalance)
	result.CashFlowDifference = fiscal.Round2(scenNet.Sub(baseNet))
	result.FinalBalanceDifference = fiscal.Round2(scenBalance.Sub(baseBalance))
	return result, nil
}
