package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// === COMPETITOR SET ===

// Competitor is one rival property in the rate shop. Variance is the
// half-width of its daily uniform jitter: a 0.10 variance means the
// shopped rate swings up to ten percent either side of base before
// calendar and event lifts.
type Competitor struct {
	Name     string
	BaseRate decimal.Decimal
	Variance float64
}

// CompetitorSet is the fixed shop list for a unit. It must never be
// empty: the market average divides by its length, and an empty set is
// a configuration error, not an arithmetic edge case to survive.
type CompetitorSet []Competitor

func (cs CompetitorSet) Validate() error {
	if len(cs) == 0 {
		return &fiscal.InputError{Field: "competitors", Value: "[]", Reason: "competitor set must not be empty"}
	}
	for _, c := range cs {
		if c.Name == "" {
			return &fiscal.InputError{Field: "competitors", Value: "?", Reason: "competitor name must not be empty"}
		}
		if !c.BaseRate.IsPositive() {
			return &fiscal.InputError{Field: "competitors", Value: c.Name, Reason: "base rate must be positive"}
		}
		if c.Variance < 0 {
			return &fiscal.InputError{Field: "competitors", Value: c.Name, Reason: "variance must not be negative"}
		}
	}
	return nil
}

// Clone returns an independent copy safe to mutate in scenario runs.
func (cs CompetitorSet) Clone() CompetitorSet {
	out := make(CompetitorSet, len(cs))
	copy(out, cs)
	return out
}

// CompetitorRate is one shopped rate on a given day.
type CompetitorRate struct {
	Name string
	Rate decimal.Decimal
}

// Sample shops the set for one day. Each competitor gets an
// independent jitter draw, then the same day-of-week and event lifts
// the market is reacting to. Rates come back rounded to cents in set
// order.
func (cs CompetitorSet) Sample(dayAdj, eventImpact float64, noise Noise) []CompetitorRate {
	out := make([]CompetitorRate, 0, len(cs))
	for _, c := range cs {
		jitter := noise.Uniform(-c.Variance, c.Variance)
		rate := c.BaseRate.Mul(fiscal.Frac(jitter + dayAdj + eventImpact))
		out = append(out, CompetitorRate{Name: c.Name, Rate: fiscal.Round2(rate)})
	}
	return out
}

// AverageRate is the plain mean of the shopped rates, unrounded so the
// market-cap threshold keeps full precision.
func AverageRate(rates []CompetitorRate) decimal.Decimal {
	values := make([]decimal.Decimal, len(rates))
	for i, r := range rates {
		values[i] = r.Rate
	}
	return fiscal.Mean(values)
}

// DefaultCompetitors returns the bundled downtown Chicago shop list.
func DefaultCompetitors() CompetitorSet {
	return CompetitorSet{
		{Name: "Marriott Downtown", BaseRate: fiscal.MustDecimal("199.00"), Variance: 0.10},
		{Name: "Hilton Chicago", BaseRate: fiscal.MustDecimal("209.00"), Variance: 0.12},
		{Name: "Hyatt Regency", BaseRate: fiscal.MustDecimal("195.00"), Variance: 0.08},
		{Name: "Palmer House", BaseRate: fiscal.MustDecimal("185.00"), Variance: 0.15},
	}
}

// === MARKET ANALYSIS ===

// MarketPosition summarizes where a quoted rate sits against the
// day's shopped competitor rates.
type MarketPosition struct {
	Rates        []CompetitorRate
	Average      decimal.Decimal
	Minimum      decimal.Decimal
	Maximum      decimal.Decimal
	Spread       decimal.Decimal
	VsAverage    decimal.Decimal
	VsAveragePct float64
	Rank         int
	Positioning  string

	Recommendations []string
}

// AnalyzeMarket positions ours against the shopped rates. Rank 1 is
// the highest rate on the street; ties rank above the tied
// competitor. The event, when present, adds a demand-surge note.
func AnalyzeMarket(ours decimal.Decimal, rates []CompetitorRate, event *Event) MarketPosition {
	avg := AverageRate(rates)
	min, max := rates[0].Rate, rates[0].Rate
	rank := 1
	for _, r := range rates {
		if r.Rate.LessThan(min) {
			min = r.Rate
		}
		if r.Rate.GreaterThan(max) {
			max = r.Rate
		}
		if r.Rate.GreaterThan(ours) {
			rank++
		}
	}

	pos := MarketPosition{
		Rates:        rates,
		Average:      fiscal.Round2(avg),
		Minimum:      min,
		Maximum:      max,
		Spread:       max.Sub(min),
		VsAverage:    fiscal.Round2(ours.Sub(avg)),
		VsAveragePct: round1(ours.Sub(avg).Div(avg).InexactFloat64() * 100),
		Rank:         rank,
		Positioning:  positioning(ours, avg),
	}

	switch {
	case ours.GreaterThan(max.Mul(fiscal.Frac(0.1))):
		pos.Recommendations = append(pos.Recommendations,
			"Rate significantly above market - consider reducing to maintain competitiveness")
	case ours.LessThan(min.Mul(fiscal.Frac(-0.1))):
		pos.Recommendations = append(pos.Recommendations,
			"Rate below market floor - opportunity to increase rates")
	default:
		pos.Recommendations = append(pos.Recommendations,
			"Rate well-positioned within market range")
	}
	if event != nil {
		pos.Recommendations = append(pos.Recommendations,
			fmt.Sprintf("Event '%s' - ensure rate captures demand surge", event.Name))
	}
	return pos
}

func positioning(ours, avg decimal.Decimal) string {
	switch {
	case ours.GreaterThan(avg):
		return "premium"
	case ours.LessThan(avg):
		return "value"
	default:
		return "market"
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
