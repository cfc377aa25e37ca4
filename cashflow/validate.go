package cashflow

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// Variance directions and forecast assessments.
const (
	DirectionFavorable   = "favorable"
	DirectionUnfavorable = "unfavorable"

	AssessmentAcceptable  = "ACCEPTABLE"
	AssessmentNeedsReview = "NEEDS REVIEW"

	// acceptableAccuracy is the overall accuracy floor below which a
	// forecast is flagged for review.
	acceptableAccuracy = 85.0
)

// ActualsEntry is a recorded day of real totals to measure a forecast
// against.
type ActualsEntry struct {
	Date     fiscal.Date
	Inflows  decimal.Decimal
	Outflows decimal.Decimal
}

// VarianceLine is actual minus forecast for one side of the ledger.
// Direction reads from the unit's perspective: extra revenue is
// favorable, extra spend is not.
type VarianceLine struct {
	Amount    decimal.Decimal
	Percent   float64
	Direction string
}

// Validation scores one forecast day against actuals. Accuracy is 100
// minus the absolute variance percentage, floored at zero; the overall
// figure averages both sides.
type Validation struct {
	Date fiscal.Date

	ForecastInflows  decimal.Decimal
	ForecastOutflows decimal.Decimal
	ForecastNet      decimal.Decimal

	ActualInflows  decimal.Decimal
	ActualOutflows decimal.Decimal
	ActualNet      decimal.Decimal

	InflowVariance  VarianceLine
	OutflowVariance VarianceLine
	NetImpact       decimal.Decimal

	InflowAccuracy  float64
	OutflowAccuracy float64
	OverallAccuracy float64
	Assessment      string
}

// ValidateAgainst projects the date fresh and scores the recorded
// actuals against it.
func (g *Generator) ValidateAgainst(actuals ActualsEntry) (Validation, error) {
	if actuals.Date.IsZero() {
		return Validation{}, &fiscal.InputError{Field: "forecast_date", Value: "zero", Reason: "must be a valid calendar date"}
	}

	rec, err := g.day(actuals.Date, ProjectOptions{})
	if err != nil {
		return Validation{}, err
	}

	inflowVar := actuals.Inflows.Sub(rec.TotalInflows)
	outflowVar := actuals.Outflows.Sub(rec.TotalOutflows)
	inflowPct := variancePct(inflowVar, rec.TotalInflows)
	outflowPct := variancePct(outflowVar, rec.TotalOutflows)

	inflowAcc := math.Max(0, 100-math.Abs(inflowPct))
	outflowAcc := math.Max(0, 100-math.Abs(outflowPct))
	overall := (inflowAcc + outflowAcc) / 2

	assessment := AssessmentNeedsReview
	if overall >= acceptableAccuracy {
		assessment = AssessmentAcceptable
	}

	return Validation{
		Date:             actuals.Date,
		ForecastInflows:  rec.TotalInflows,
		ForecastOutflows: rec.TotalOutflows,
		ForecastNet:      rec.NetCashFlow,
		ActualInflows:    actuals.Inflows,
		ActualOutflows:   actuals.Outflows,
		ActualNet:        fiscal.Round2(actuals.Inflows.Sub(actuals.Outflows)),
		InflowVariance: VarianceLine{
			Amount:    fiscal.Round2(inflowVar),
			Percent:   round2f(inflowPct),
			Direction: direction(inflowVar.IsPositive(), DirectionFavorable, DirectionUnfavorable),
		},
		OutflowVariance: VarianceLine{
			Amount:    fiscal.Round2(outflowVar),
			Percent:   round2f(outflowPct),
			Direction: direction(outflowVar.IsPositive(), DirectionUnfavorable, DirectionFavorable),
		},
		NetImpact:       fiscal.Round2(actuals.Inflows.Sub(actuals.Outflows).Sub(rec.NetCashFlow)),
		InflowAccuracy:  round2f(inflowAcc),
		OutflowAccuracy: round2f(outflowAcc),
		OverallAccuracy: round2f(overall),
		Assessment:      assessment,
	}, nil
}

func variancePct(variance, forecast decimal.Decimal) float64 {
	if forecast.IsZero() {
		return 0
	}
	pct, _ := variance.Div(forecast).Float64()
	return pct * 100
}

func direction(positive bool, whenPositive, otherwise string) string {
	if positive {
		return whenPositive
	}
	return otherwise
}

func round2f(x float64) float64 {
	return math.Round(x*100) / 100
}
