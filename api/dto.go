/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: the domain
  computes on decimals, the wire carries rounded float64 amounts, so
  clients never see decimal internals.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Top-level response wrappers
  - *DTO:      Nested response fragments

CONVERSION:
  Every domain result has a to*Response/to*DTO converter in this file.
  Amounts are rounded to cents in the domain before conversion, so the
  float64 here is presentation only, never arithmetic input.

SEE ALSO:
  - handlers.go: Uses these types
  - cashflow/: The domain results being converted
*/
package api

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/planning"
	"github.com/warp/cashflow-engine/pms"
	"github.com/warp/cashflow-engine/pricing"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// =============================================================================
// SHARED FRAGMENTS
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// PeriodDTO frames a date window. Days is omitted on responses that
// only carry the bounds.
type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days,omitempty"`
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func moneyMap(amounts map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(amounts))
	for code, amount := range amounts {
		out[code] = money(amount)
	}
	return out
}

// pctString renders a signed percentage the way the adjustment fields
// report it: "-10%", "12.5%", "0%".
func pctString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// impactString renders an event demand impact as "+40%".
func impactString(impact float64) string {
	return fmt.Sprintf("+%.0f%%", impact*100)
}

// =============================================================================
// FORECAST
// =============================================================================

// DayForecastDTO is one projected day on the wire. Detail maps and the
// dynamic-path fields appear only when the projection produced them.
type DayForecastDTO struct {
	Date           string             `json:"date"`
	DayOfWeek      string             `json:"day_of_week"`
	TotalInflows   float64            `json:"total_inflows"`
	TotalOutflows  float64            `json:"total_outflows"`
	NetCashFlow    float64            `json:"net_cash_flow"`
	ClosingBalance float64            `json:"closing_balance"`
	BelowMinimum   bool               `json:"below_minimum"`
	DynamicRate    *float64           `json:"dynamic_rate,omitempty"`
	OccupancyPct   *float64           `json:"occupancy_pct,omitempty"`
	InflowDetails  map[string]float64 `json:"inflow_details,omitempty"`
	OutflowDetails map[string]float64 `json:"outflow_details,omitempty"`
}

// ForecastSummaryDTO rolls a window up to its totals.
type ForecastSummaryDTO struct {
	OpeningBalance   float64 `json:"opening_balance"`
	TotalInflows     float64 `json:"total_inflows"`
	TotalOutflows    float64 `json:"total_outflows"`
	NetChange        float64 `json:"net_change"`
	ClosingBalance   float64 `json:"closing_balance"`
	DaysBelowMinimum int     `json:"days_below_minimum"`
}

// ForecastResponse is the full daily projection payload.
type ForecastResponse struct {
	RunID          string             `json:"run_id"`
	HotelName      string             `json:"hotel_name"`
	ForecastPeriod PeriodDTO          `json:"forecast_period"`
	Summary        ForecastSummaryDTO `json:"summary"`
	DailyForecast  []DayForecastDTO   `json:"daily_forecast"`
}

func toDayForecastDTO(rec cashflow.DailyRecord, details bool) DayForecastDTO {
	dto := DayForecastDTO{
		Date:           rec.Date.String(),
		DayOfWeek:      rec.DayOfWeek,
		TotalInflows:   money(rec.TotalInflows),
		TotalOutflows:  money(rec.TotalOutflows),
		NetCashFlow:    money(rec.NetCashFlow),
		ClosingBalance: money(rec.ClosingBalance),
		BelowMinimum:   rec.BelowMinimum,
	}
	if !rec.DynamicRate.IsZero() {
		rate := money(rec.DynamicRate)
		occ := math.Round(rec.Occupancy*1000) / 10
		dto.DynamicRate = &rate
		dto.OccupancyPct = &occ
	}
	if details {
		dto.InflowDetails = moneyMap(rec.Inflows)
		dto.OutflowDetails = moneyMap(rec.Outflows)
	}
	return dto
}

func toForecastResponse(hotel, runID string, p *cashflow.Projection, details bool) ForecastResponse {
	days := make([]DayForecastDTO, 0, len(p.Days))
	for _, rec := range p.Days {
		days = append(days, toDayForecastDTO(rec, details))
	}
	return ForecastResponse{
		RunID:     runID,
		HotelName: hotel,
		ForecastPeriod: PeriodDTO{
			Start: p.Window.Start.String(),
			End:   p.Window.End.String(),
			Days:  len(p.Days),
		},
		Summary: ForecastSummaryDTO{
			OpeningBalance:   money(p.OpeningBalance),
			TotalInflows:     money(p.TotalInflows),
			TotalOutflows:    money(p.TotalOutflows),
			NetChange:        money(p.NetChange),
			ClosingBalance:   money(p.ClosingBalance),
			DaysBelowMinimum: p.DaysBelowMinimum,
		},
		DailyForecast: days,
	}
}

// =============================================================================
// CASH POSITION
// =============================================================================

// CashPositionDTO is the day's projected movement block.
type CashPositionDTO struct {
	OpeningBalance    float64 `json:"opening_balance"`
	ProjectedInflows  float64 `json:"projected_inflows"`
	ProjectedOutflows float64 `json:"projected_outflows"`
	NetMovement       float64 `json:"net_movement"`
	ProjectedClosing  float64 `json:"projected_closing"`
}

// ThresholdsDTO reports the reserve check.
type ThresholdsDTO struct {
	MinimumReserve float64 `json:"minimum_reserve"`
	Status         string  `json:"status"`
}

// PositionResponse is the single-day cash position payload.
type PositionResponse struct {
	HotelName        string             `json:"hotel_name"`
	AsOfDate         string             `json:"as_of_date"`
	DayOfWeek        string             `json:"day_of_week"`
	CashPosition     CashPositionDTO    `json:"cash_position"`
	Thresholds       ThresholdsDTO      `json:"thresholds"`
	InflowBreakdown  map[string]float64 `json:"inflow_breakdown"`
	OutflowBreakdown map[string]float64 `json:"outflow_breakdown"`
	HasActualData    bool               `json:"has_actual_data"`
}

func toPositionResponse(hotel string, pos cashflow.CashPosition) PositionResponse {
	return PositionResponse{
		HotelName: hotel,
		AsOfDate:  pos.Date.String(),
		DayOfWeek: pos.DayOfWeek,
		CashPosition: CashPositionDTO{
			OpeningBalance:    money(pos.OpeningBalance),
			ProjectedInflows:  money(pos.ProjectedInflows),
			ProjectedOutflows: money(pos.ProjectedOutflows),
			NetMovement:       money(pos.NetMovement),
			ProjectedClosing:  money(pos.ProjectedClosing),
		},
		Thresholds: ThresholdsDTO{
			MinimumReserve: money(pos.MinimumReserve),
			Status:         pos.Status,
		},
		InflowBreakdown:  moneyMap(pos.Inflows),
		OutflowBreakdown: moneyMap(pos.Outflows),
		HasActualData:    pos.HasActuals,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioAdjustmentsDTO echoes the requested deltas as percent strings.
type ScenarioAdjustmentsDTO struct {
	OccupancyChange string `json:"occupancy_change"`
	RateChange      string `json:"rate_change"`
	ExpenseChange   string `json:"expense_change"`
}

// ScenarioLegDTO summarizes one side of the comparison.
type ScenarioLegDTO struct {
	TotalNetCashFlow float64 `json:"total_net_cash_flow"`
	FinalBalance     float64 `json:"final_balance"`
	DaysBelowMinimum int     `json:"days_below_minimum"`
}

// ScenarioImpactDTO is the scenario-minus-baseline delta.
type ScenarioImpactDTO struct {
	CashFlowDifference     float64 `json:"cash_flow_difference"`
	FinalBalanceDifference float64 `json:"final_balance_difference"`
}

// ScenarioComparisonDTO pairs both legs with their delta.
type ScenarioComparisonDTO struct {
	Baseline ScenarioLegDTO    `json:"baseline"`
	Scenario ScenarioLegDTO    `json:"scenario"`
	Impact   ScenarioImpactDTO `json:"impact"`
}

// DayComparisonDTO pairs the two closing balances for one date.
type DayComparisonDTO struct {
	Date            string  `json:"date"`
	BaselineBalance float64 `json:"baseline_balance"`
	ScenarioBalance float64 `json:"scenario_balance"`
	Difference      float64 `json:"difference"`
}

// ScenarioResponse is the full what-if comparison payload.
type ScenarioResponse struct {
	ScenarioName    string                 `json:"scenario_name"`
	Period          PeriodDTO              `json:"period"`
	Adjustments     ScenarioAdjustmentsDTO `json:"adjustments"`
	Comparison      ScenarioComparisonDTO  `json:"comparison"`
	DailyComparison []DayComparisonDTO     `json:"daily_comparison"`
}

// ScenarioPresetDTO is one canned scenario definition.
type ScenarioPresetDTO struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Definition  factory.ScenarioJSON `json:"definition"`
}

func toScenarioLegDTO(leg cashflow.ScenarioLeg) ScenarioLegDTO {
	return ScenarioLegDTO{
		TotalNetCashFlow: money(leg.TotalNetCashFlow),
		FinalBalance:     money(leg.FinalBalance),
		DaysBelowMinimum: leg.DaysBelowMinimum,
	}
}

func toScenarioResponse(res *cashflow.ScenarioResult) ScenarioResponse {
	daily := make([]DayComparisonDTO, 0, len(res.Daily))
	for _, day := range res.Daily {
		daily = append(daily, DayComparisonDTO{
			Date:            day.Date.String(),
			BaselineBalance: money(day.BaselineBalance),
			ScenarioBalance: money(day.ScenarioBalance),
			Difference:      money(day.Difference),
		})
	}
	return ScenarioResponse{
		ScenarioName: res.Name,
		Period: PeriodDTO{
			Start: res.Window.Start.String(),
			End:   res.Window.End.String(),
			Days:  res.Days,
		},
		Adjustments: ScenarioAdjustmentsDTO{
			OccupancyChange: pctString(res.OccupancyChangePct),
			RateChange:      pctString(res.RateChangePct),
			ExpenseChange:   pctString(res.ExpenseChangePct),
		},
		Comparison: ScenarioComparisonDTO{
			Baseline: toScenarioLegDTO(res.Baseline),
			Scenario: toScenarioLegDTO(res.Scenario),
			Impact: ScenarioImpactDTO{
				CashFlowDifference:     money(res.CashFlowDifference),
				FinalBalanceDifference: money(res.FinalBalanceDifference),
			},
		},
		DailyComparison: daily,
	}
}

// =============================================================================
// VALIDATION AND ACTUALS
// =============================================================================

// ValidateRequest scores a forecast day. When both actual amounts are
// omitted the recorded actuals for the date are used instead.
type ValidateRequest struct {
	ForecastDate   string   `json:"forecast_date"`
	ActualInflows  *float64 `json:"actual_inflows"`
	ActualOutflows *float64 `json:"actual_outflows"`
}

// FlowTotalsDTO is one side of the forecast-versus-actuals table.
type FlowTotalsDTO struct {
	TotalInflows  float64 `json:"total_inflows"`
	TotalOutflows float64 `json:"total_outflows"`
	NetCashFlow   float64 `json:"net_cash_flow"`
}

// VarianceLineDTO is actual minus forecast for one flow direction.
type VarianceLineDTO struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Direction  string  `json:"direction"`
}

// VarianceDTO groups both variance lines with the net impact.
type VarianceDTO struct {
	Inflows   VarianceLineDTO `json:"inflows"`
	Outflows  VarianceLineDTO `json:"outflows"`
	NetImpact float64         `json:"net_impact"`
}

// AccuracyDTO reports per-side and overall accuracy.
type AccuracyDTO struct {
	InflowAccuracy  float64 `json:"inflow_accuracy"`
	OutflowAccuracy float64 `json:"outflow_accuracy"`
	OverallAccuracy float64 `json:"overall_accuracy"`
}

// ValidationResponse is the forecast accuracy scorecard.
type ValidationResponse struct {
	Date       string        `json:"date"`
	Forecast   FlowTotalsDTO `json:"forecast"`
	Actuals    FlowTotalsDTO `json:"actuals"`
	Variance   VarianceDTO   `json:"variance"`
	Accuracy   AccuracyDTO   `json:"accuracy"`
	Assessment string        `json:"assessment"`
}

func toVarianceLineDTO(line cashflow.VarianceLine) VarianceLineDTO {
	return VarianceLineDTO{
		Amount:     money(line.Amount),
		Percentage: line.Percent,
		Direction:  line.Direction,
	}
}

func toValidationResponse(v cashflow.Validation) ValidationResponse {
	return ValidationResponse{
		Date: v.Date.String(),
		Forecast: FlowTotalsDTO{
			TotalInflows:  money(v.ForecastInflows),
			TotalOutflows: money(v.ForecastOutflows),
			NetCashFlow:   money(v.ForecastNet),
		},
		Actuals: FlowTotalsDTO{
			TotalInflows:  money(v.ActualInflows),
			TotalOutflows: money(v.ActualOutflows),
			NetCashFlow:   money(v.ActualNet),
		},
		Variance: VarianceDTO{
			Inflows:   toVarianceLineDTO(v.InflowVariance),
			Outflows:  toVarianceLineDTO(v.OutflowVariance),
			NetImpact: money(v.NetImpact),
		},
		Accuracy: AccuracyDTO{
			InflowAccuracy:  v.InflowAccuracy,
			OutflowAccuracy: v.OutflowAccuracy,
			OverallAccuracy: v.OverallAccuracy,
		},
		Assessment: v.Assessment,
	}
}

// RecordActualsRequest records per-account amounts for a date.
type RecordActualsRequest struct {
	Date   string             `json:"date"`
	Source string             `json:"source,omitempty"`
	Rows   []ActualRowRequest `json:"rows"`
}

// ActualRowRequest is one account amount inside a recording.
type ActualRowRequest struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

// =============================================================================
// REPORT EXPORT
// =============================================================================

// ReportDayDTO is one day inside a JSON report export.
type ReportDayDTO struct {
	Date           string             `json:"date"`
	Inflows        float64            `json:"inflows"`
	Outflows       float64            `json:"outflows"`
	Net            float64            `json:"net"`
	Balance        float64            `json:"balance"`
	InflowDetails  map[string]float64 `json:"inflow_details"`
	OutflowDetails map[string]float64 `json:"outflow_details"`
}

// ReportResponse is the JSON rendering of a report export.
type ReportResponse struct {
	ReportType     string         `json:"report_type"`
	HotelName      string         `json:"hotel_name"`
	GeneratedAt    string         `json:"generated_at"`
	Period         PeriodDTO      `json:"period"`
	OpeningBalance float64        `json:"opening_balance"`
	Data           []ReportDayDTO `json:"data"`
}

func toReportDayDTO(rec cashflow.DailyRecord) ReportDayDTO {
	return ReportDayDTO{
		Date:           rec.Date.String(),
		Inflows:        money(rec.TotalInflows),
		Outflows:       money(rec.TotalOutflows),
		Net:            money(rec.NetCashFlow),
		Balance:        money(rec.ClosingBalance),
		InflowDetails:  moneyMap(rec.Inflows),
		OutflowDetails: moneyMap(rec.Outflows),
	}
}

// =============================================================================
// PRICING
// =============================================================================

// OccupancyFactorDTO through EventFactorDTO itemize one adjustment
// dimension each inside a factor breakdown.
type OccupancyFactorDTO struct {
	Level      float64 `json:"level"`
	Tier       string  `json:"tier"`
	Adjustment float64 `json:"adjustment"`
}

type DayFactorDTO struct {
	Day        string  `json:"day"`
	Adjustment float64 `json:"adjustment"`
}

type SeasonFactorDTO struct {
	Month      string  `json:"month"`
	Adjustment float64 `json:"adjustment"`
}

type LeadFactorDTO struct {
	Days       int     `json:"days"`
	Tier       string  `json:"tier"`
	Adjustment float64 `json:"adjustment"`
}

type EventFactorDTO struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Adjustment float64 `json:"adjustment"`
}

// CompetitorsFactorDTO carries the day's shopped rates.
type CompetitorsFactorDTO struct {
	Rates   map[string]float64 `json:"rates"`
	Average float64            `json:"average"`
}

// BreakdownDTO itemizes every adjustment behind a quote. Event is
// null on quiet days.
type BreakdownDTO struct {
	Occupancy        OccupancyFactorDTO   `json:"occupancy"`
	DayOfWeek        DayFactorDTO         `json:"day_of_week"`
	Seasonality      SeasonFactorDTO      `json:"seasonality"`
	LeadTime         LeadFactorDTO        `json:"lead_time"`
	Event            *EventFactorDTO      `json:"event"`
	Competitors      CompetitorsFactorDTO `json:"competitors"`
	MarketCapApplied bool                 `json:"market_cap_applied"`
}

// RateQuoteDTO is one quoted night.
type RateQuoteDTO struct {
	Date               string        `json:"date"`
	DayOfWeek          string        `json:"day_of_week"`
	BaseRate           float64       `json:"base_rate"`
	OptimizedRate      float64       `json:"optimized_rate"`
	TotalAdjustmentPct float64       `json:"total_adjustment_pct"`
	RateChange         float64       `json:"rate_change"`
	CompetitorAvg      float64       `json:"competitor_avg"`
	PositionVsMarket   string        `json:"position_vs_market"`
	FactorBreakdown    *BreakdownDTO `json:"factor_breakdown,omitempty"`
}

// RateRecommendationDTO is a quote plus its revenue impact.
type RateRecommendationDTO struct {
	RateQuoteDTO
	ProjectedRooms   int     `json:"projected_rooms"`
	BaseRevenue      float64 `json:"base_revenue"`
	OptimizedRevenue float64 `json:"optimized_revenue"`
	RevenueUplift    float64 `json:"revenue_uplift"`
}

// PricingParametersDTO echoes the engine settings a plan ran under.
type PricingParametersDTO struct {
	BaseRate      float64 `json:"base_rate"`
	MinRate       float64 `json:"min_rate"`
	MaxRate       float64 `json:"max_rate"`
	OccupancyUsed float64 `json:"occupancy_used"`
	LeadDays      int     `json:"lead_days"`
}

// PricingSummaryDTO totals the revenue opportunity across a plan.
type PricingSummaryDTO struct {
	AvgBaseRate           float64 `json:"avg_base_rate"`
	AvgOptimizedRate      float64 `json:"avg_optimized_rate"`
	TotalBaseRevenue      float64 `json:"total_base_revenue"`
	TotalOptimizedRevenue float64 `json:"total_optimized_revenue"`
	TotalRevenueUplift    float64 `json:"total_revenue_uplift"`
	UpliftPercentage      float64 `json:"uplift_percentage"`
}

// PricingPlanResponse is the full optimization payload.
type PricingPlanResponse struct {
	HotelName            string                  `json:"hotel_name"`
	Period               PeriodDTO               `json:"period"`
	PricingParameters    PricingParametersDTO    `json:"pricing_parameters"`
	Summary              PricingSummaryDTO       `json:"summary"`
	DailyRecommendations []RateRecommendationDTO `json:"daily_recommendations"`
}

func competitorRatesMap(rates []pricing.CompetitorRate) map[string]float64 {
	out := make(map[string]float64, len(rates))
	for _, r := range rates {
		out[r.Name] = money(r.Rate)
	}
	return out
}

func toRateQuoteDTO(q pricing.RateQuote) RateQuoteDTO {
	dto := RateQuoteDTO{
		Date:               q.Date.String(),
		DayOfWeek:          q.DayOfWeek,
		BaseRate:           money(q.BaseRate),
		OptimizedRate:      money(q.Optimized),
		TotalAdjustmentPct: q.TotalAdjustmentPct,
		RateChange:         money(q.RateChange),
		CompetitorAvg:      money(q.CompetitorAvg),
		PositionVsMarket:   q.PositionVsMarket,
	}
	if q.Breakdown != nil {
		b := q.Breakdown
		dto.FactorBreakdown = &BreakdownDTO{
			Occupancy: OccupancyFactorDTO{
				Level:      b.Occupancy.Level,
				Tier:       b.Occupancy.Tier,
				Adjustment: b.Occupancy.Adjustment,
			},
			DayOfWeek: DayFactorDTO{
				Day:        b.DayOfWeek.Day,
				Adjustment: b.DayOfWeek.Adjustment,
			},
			Seasonality: SeasonFactorDTO{
				Month:      b.Season.Month,
				Adjustment: b.Season.Adjustment,
			},
			LeadTime: LeadFactorDTO{
				Days:       b.LeadTime.Days,
				Tier:       b.LeadTime.Tier,
				Adjustment: b.LeadTime.Adjustment,
			},
			Competitors: CompetitorsFactorDTO{
				Rates:   competitorRatesMap(q.Competitors),
				Average: money(q.CompetitorAvg),
			},
			MarketCapApplied: q.MarketCapApplied,
		}
		if b.Event != nil {
			dto.FactorBreakdown.Event = &EventFactorDTO{
				Name:       b.Event.Name,
				Type:       b.Event.Type,
				Adjustment: b.Event.Adjustment,
			}
		}
	}
	return dto
}

func toPricingPlanResponse(hotel string, plan *cashflow.PricingPlan) PricingPlanResponse {
	recs := make([]RateRecommendationDTO, 0, len(plan.Recommendations))
	for _, rec := range plan.Recommendations {
		recs = append(recs, RateRecommendationDTO{
			RateQuoteDTO:     toRateQuoteDTO(rec.RateQuote),
			ProjectedRooms:   rec.ProjectedRooms,
			BaseRevenue:      money(rec.BaseRevenue),
			OptimizedRevenue: money(rec.OptimizedRevenue),
			RevenueUplift:    money(rec.RevenueUplift),
		})
	}
	return PricingPlanResponse{
		HotelName: hotel,
		Period: PeriodDTO{
			Start: plan.Window.Start.String(),
			End:   plan.Window.End.String(),
			Days:  plan.Days,
		},
		PricingParameters: PricingParametersDTO{
			BaseRate:      money(plan.BaseRate),
			MinRate:       money(plan.MinRate),
			MaxRate:       money(plan.MaxRate),
			OccupancyUsed: plan.OccupancyUsedPct,
			LeadDays:      plan.LeadDays,
		},
		Summary: PricingSummaryDTO{
			AvgBaseRate:           money(plan.BaseRate),
			AvgOptimizedRate:      money(plan.AvgOptimizedRate),
			TotalBaseRevenue:      money(plan.TotalBaseRevenue),
			TotalOptimizedRevenue: money(plan.TotalOptimizedRevenue),
			TotalRevenueUplift:    money(plan.TotalUplift),
			UpliftPercentage:      plan.UpliftPct,
		},
		DailyRecommendations: recs,
	}
}

// =============================================================================
// EVENTS AND COMPETITORS
// =============================================================================

// EventDTO is one calendar event with its pricing guidance.
type EventDTO struct {
	Date                      string `json:"date"`
	DayOfWeek                 string `json:"day_of_week"`
	Name                      string `json:"name"`
	Type                      string `json:"type"`
	DemandImpact              string `json:"demand_impact"`
	RecommendedRateAdjustment string `json:"recommended_rate_adjustment"`
}

// EventsResponse lists the calendar for a window.
type EventsResponse struct {
	HotelName        string         `json:"hotel_name"`
	Location         string         `json:"location"`
	Period           PeriodDTO      `json:"period"`
	Filter           string         `json:"filter"`
	TotalEvents      int            `json:"total_events"`
	Events           []EventDTO     `json:"events"`
	EventTypeSummary map[string]int `json:"event_type_summary"`
}

// OurPricingDTO is the unit's own rate block in a market comparison.
type OurPricingDTO struct {
	BaseRate      float64 `json:"base_rate"`
	OptimizedRate float64 `json:"optimized_rate"`
	Adjustment    float64 `json:"adjustment"`
}

// MarketAnalysisDTO summarizes the shopped competitor rates.
type MarketAnalysisDTO struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
	Spread  float64 `json:"spread"`
}

// MarketPositionDTO places our rate inside the competitive set.
type MarketPositionDTO struct {
	VsAverage    float64 `json:"vs_average"`
	VsAveragePct float64 `json:"vs_average_pct"`
	Rank         int     `json:"rank"`
	Positioning  string  `json:"positioning"`
}

// EventImpactDTO rides along when the date has a calendar event.
type EventImpactDTO struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Adjustment string `json:"adjustment"`
}

// CompetitorsResponse is the market analysis payload for one date.
type CompetitorsResponse struct {
	HotelName       string             `json:"hotel_name"`
	Date            string             `json:"date"`
	DayOfWeek       string             `json:"day_of_week"`
	OurPricing      OurPricingDTO      `json:"our_pricing"`
	CompetitorRates map[string]float64 `json:"competitor_rates"`
	MarketAnalysis  MarketAnalysisDTO  `json:"market_analysis"`
	OurPosition     MarketPositionDTO  `json:"our_position"`
	Recommendations []string           `json:"recommendations"`
	EventImpact     *EventImpactDTO    `json:"event_impact,omitempty"`
}

// =============================================================================
// PROPERTY SYSTEM (OPERA)
// =============================================================================

// RateSyncRequest pushes a window of optimized rates.
type RateSyncRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	RateCode    string `json:"rate_code,omitempty"`
	RoomType    string `json:"room_type,omitempty"`
	PreviewOnly bool   `json:"preview_only,omitempty"`
}

// RatePushDTO is one night inside a sync payload.
type RatePushDTO struct {
	Date          string  `json:"date"`
	RateCode      string  `json:"rate_code"`
	RoomType      string  `json:"room_type"`
	Amount        float64 `json:"amount"`
	DayOfWeek     string  `json:"day_of_week"`
	AdjustmentPct float64 `json:"adjustment_pct"`
}

// RateSyncSummaryDTO describes a previewed batch.
type RateSyncSummaryDTO struct {
	AvgRate float64 `json:"avg_rate"`
	MinRate float64 `json:"min_rate"`
	MaxRate float64 `json:"max_rate"`
}

// SyncResultDTO reports a live push outcome.
type SyncResultDTO struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// RateSyncResponse is the sync payload, preview or live.
type RateSyncResponse struct {
	HotelName    string              `json:"hotel_name"`
	OperaHotelID string              `json:"opera_hotel_id"`
	Period       PeriodDTO           `json:"period"`
	RateCode     string              `json:"rate_code"`
	RoomType     string              `json:"room_type"`
	PreviewOnly  bool                `json:"preview_only"`
	Rates        []RatePushDTO       `json:"rates"`
	Status       string              `json:"status"`
	Summary      *RateSyncSummaryDTO `json:"summary,omitempty"`
	SyncResult   *SyncResultDTO      `json:"sync_result,omitempty"`
	BatchID      string              `json:"batch_id,omitempty"`
}

// RateComparisonDTO diffs one loaded night against its recommendation.
type RateComparisonDTO struct {
	Date            string  `json:"date"`
	DayOfWeek       string  `json:"day_of_week"`
	OperaRate       float64 `json:"opera_rate"`
	RecommendedRate float64 `json:"recommended_rate"`
	Difference      float64 `json:"difference"`
	DifferencePct   float64 `json:"difference_pct"`
	Action          string  `json:"action"`
}

// RateComparisonSummaryDTO totals a comparison window.
type RateComparisonSummaryDTO struct {
	RatesToIncrease      int     `json:"rates_to_increase"`
	RatesToDecrease      int     `json:"rates_to_decrease"`
	RatesOK              int     `json:"rates_ok"`
	AvgOperaRate         float64 `json:"avg_opera_rate"`
	AvgRecommendedRate   float64 `json:"avg_recommended_rate"`
	PotentialDailyUplift float64 `json:"potential_daily_uplift"`
}

// RateComparisonResponse is the loaded-versus-recommended payload.
type RateComparisonResponse struct {
	HotelName    string                   `json:"hotel_name"`
	OperaHotelID string                   `json:"opera_hotel_id"`
	Period       PeriodDTO                `json:"period"`
	RateCode     string                   `json:"rate_code"`
	Summary      RateComparisonSummaryDTO `json:"summary"`
	Comparison   []RateComparisonDTO      `json:"comparison"`
}

// InventoryDayDTO is one day of availability with pricing guidance.
type InventoryDayDTO struct {
	Date            string  `json:"date"`
	DayOfWeek       string  `json:"day_of_week"`
	TotalRooms      int     `json:"total_rooms"`
	Available       int     `json:"available"`
	Occupied        int     `json:"occupied"`
	OccupancyPct    float64 `json:"occupancy_pct"`
	OccupancyTier   string  `json:"occupancy_tier"`
	RecommendedRate float64 `json:"recommended_rate"`
	RateAdjustment  string  `json:"rate_adjustment"`
}

// InventorySummaryDTO totals an inventory window. RevenueOpportunity
// prices the unsold rooms at the recommended rates.
type InventorySummaryDTO struct {
	TotalRoomNights    int     `json:"total_room_nights"`
	TotalAvailable     int     `json:"total_available"`
	TotalOccupied      int     `json:"total_occupied"`
	AvgOccupancy       float64 `json:"avg_occupancy"`
	HighDemandDays     int     `json:"high_demand_days"`
	LowDemandDays      int     `json:"low_demand_days"`
	RevenueOpportunity float64 `json:"revenue_opportunity"`
}

// InventoryResponse is the availability payload.
type InventoryResponse struct {
	HotelName      string              `json:"hotel_name"`
	OperaHotelID   string              `json:"opera_hotel_id"`
	Period         PeriodDTO           `json:"period"`
	Summary        InventorySummaryDTO `json:"summary"`
	DailyInventory []InventoryDayDTO   `json:"daily_inventory"`
}

// =============================================================================
// PLANNING LEDGER
// =============================================================================

// MonthlySummaryDTO is one aggregated fiscal period.
type MonthlySummaryDTO struct {
	Year           string             `json:"year"`
	Period         string             `json:"period"`
	Month          int                `json:"month"`
	DaysInPeriod   int                `json:"days_in_period"`
	Inflows        map[string]float64 `json:"inflows"`
	Outflows       map[string]float64 `json:"outflows"`
	TotalInflows   float64            `json:"total_inflows"`
	TotalOutflows  float64            `json:"total_outflows"`
	NetCashFlow    float64            `json:"net_cash_flow"`
	OpeningBalance float64            `json:"opening_balance"`
	ClosingBalance float64            `json:"closing_balance"`
}

// LedgerRecordDTO is one fully qualified ledger cell.
type LedgerRecordDTO struct {
	Entity     string  `json:"Entity"`
	Scenario   string  `json:"Scenario"`
	Years      string  `json:"Years"`
	Version    string  `json:"Version"`
	Currency   string  `json:"Currency"`
	Future1    string  `json:"Future1"`
	CostCenter string  `json:"CostCenter"`
	Region     string  `json:"Region"`
	Period     string  `json:"Period"`
	Account    string  `json:"Account"`
	Amount     float64 `json:"Amount"`
}

// PlanningExportResponse is the JSON rendering of a monthly export.
type PlanningExportResponse struct {
	Status           string              `json:"status"`
	Message          string              `json:"message"`
	Scenario         string              `json:"scenario"`
	Periods          []string            `json:"periods"`
	RecordsGenerated int                 `json:"records_generated"`
	MonthlySummary   []MonthlySummaryDTO `json:"monthly_summary"`
	PlanningRecords  []LedgerRecordDTO   `json:"planning_records,omitempty"`
}

// PlanningSyncRequest loads a window of monthly records into the
// planning ledger.
type PlanningSyncRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Scenario    string `json:"scenario,omitempty"`
	LoadMethod  string `json:"load_method,omitempty"`
	PreviewOnly bool   `json:"preview_only,omitempty"`
}

// PlanningSyncResponse reports a load, preview or live.
type PlanningSyncResponse struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	Scenario       string              `json:"scenario"`
	LoadMethod     string              `json:"load_method"`
	Periods        []string            `json:"periods"`
	RecordsToLoad  int                 `json:"records_to_load,omitempty"`
	RecordsLoaded  int                 `json:"records_loaded,omitempty"`
	JobID          string              `json:"job_id,omitempty"`
	SyncID         string              `json:"sync_id,omitempty"`
	MonthlySummary []MonthlySummaryDTO `json:"monthly_summary,omitempty"`
	SampleRecords  []LedgerRecordDTO   `json:"sample_records,omitempty"`
}

// AccountAmountDTO is one account's actual amount with its chart name.
type AccountAmountDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ActualsBlockDTO groups fetched actuals by flow direction.
type ActualsBlockDTO struct {
	Inflows       map[string]AccountAmountDTO `json:"inflows"`
	Outflows      map[string]AccountAmountDTO `json:"outflows"`
	TotalInflows  float64                     `json:"total_inflows"`
	TotalOutflows float64                     `json:"total_outflows"`
	NetCashFlow   float64                     `json:"net_cash_flow"`
}

// PlanningActualsResponse is the fetched-actuals payload.
type PlanningActualsResponse struct {
	Status         string          `json:"status"`
	Period         string          `json:"period"`
	Entity         string          `json:"entity"`
	Actuals        ActualsBlockDTO `json:"actuals"`
	RecordsFetched int             `json:"records_fetched"`
	UseFor         string          `json:"use_for"`
}

func toMonthlySummaryDTO(m cashflow.MonthlyRecord) MonthlySummaryDTO {
	return MonthlySummaryDTO{
		Year:           m.Period.FiscalYear,
		Period:         m.Period.MonthName(),
		Month:          int(m.Period.Month),
		DaysInPeriod:   m.Days,
		Inflows:        moneyMap(m.Inflows),
		Outflows:       moneyMap(m.Outflows),
		TotalInflows:   money(m.TotalInflows),
		TotalOutflows:  money(m.TotalOutflows),
		NetCashFlow:    money(m.NetCashFlow),
		OpeningBalance: money(m.OpeningBalance),
		ClosingBalance: money(m.ClosingBalance),
	}
}

func toLedgerRecordDTO(row cashflow.LedgerRow) LedgerRecordDTO {
	return LedgerRecordDTO{
		Entity:     row.Entity,
		Scenario:   row.Scenario,
		Years:      row.Years,
		Version:    row.Version,
		Currency:   row.Currency,
		Future1:    row.Future1,
		CostCenter: row.CostCenter,
		Region:     row.Region,
		Period:     row.Period,
		Account:    row.Account,
		Amount:     money(row.Amount),
	}
}

func toPlanningRecord(row cashflow.LedgerRow) planning.Record {
	return planning.Record{
		Entity:     row.Entity,
		Scenario:   row.Scenario,
		Years:      row.Years,
		Version:    row.Version,
		Currency:   row.Currency,
		Future1:    row.Future1,
		CostCenter: row.CostCenter,
		Region:     row.Region,
		Period:     row.Period,
		Account:    row.Account,
		Amount:     row.Amount,
	}
}

// =============================================================================
// AUDIT HISTORY
// =============================================================================

// RunDTO is one persisted forecast run.
type RunDTO struct {
	ID               string  `json:"id"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Dynamic          bool    `json:"dynamic"`
	Days             int     `json:"days"`
	DaysBelowMinimum int     `json:"days_below_minimum"`
	OpeningBalance   float64 `json:"opening_balance"`
	ClosingBalance   float64 `json:"closing_balance"`
	TotalInflows     float64 `json:"total_inflows"`
	TotalOutflows    float64 `json:"total_outflows"`
	NetChange        float64 `json:"net_change"`
	CreatedAt        string  `json:"created_at"`
}

// RatePushRecordDTO is one persisted rate push night.
type RatePushRecordDTO struct {
	ID        string  `json:"id"`
	BatchID   string  `json:"batch_id"`
	Night     string  `json:"night"`
	Amount    float64 `json:"amount"`
	Success   bool    `json:"success"`
	CreatedAt string  `json:"created_at"`
}

// PlanningSyncRecordDTO is one persisted ledger load job.
type PlanningSyncRecordDTO struct {
	ID        string   `json:"id"`
	Scenario  string   `json:"scenario"`
	Method    string   `json:"method"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Periods   []string `json:"periods"`
	Records   int      `json:"records"`
	JobID     string   `json:"job_id"`
	Message   string   `json:"message"`
	CreatedAt string   `json:"created_at"`
}

func toRunDTO(run sqlite.ForecastRun) RunDTO {
	return RunDTO{
		ID:               run.ID,
		StartDate:        run.Window.Start.String(),
		EndDate:          run.Window.End.String(),
		Dynamic:          run.Dynamic,
		Days:             run.Days,
		DaysBelowMinimum: run.DaysBelow,
		OpeningBalance:   money(run.OpeningBalance),
		ClosingBalance:   money(run.ClosingBalance),
		TotalInflows:     money(run.TotalInflows),
		TotalOutflows:    money(run.TotalOutflows),
		NetChange:        money(run.NetChange),
		CreatedAt:        run.CreatedAt.Format(timestampLayout),
	}
}

func toRatePushRecordDTO(push sqlite.RatePush) RatePushRecordDTO {
	return RatePushRecordDTO{
		ID:        push.ID,
		BatchID:   push.BatchID,
		Night:     push.Night.String(),
		Amount:    money(push.Amount),
		Success:   push.Success,
		CreatedAt: push.CreatedAt.Format(timestampLayout),
	}
}

func toPlanningSyncRecordDTO(job sqlite.PlanningSync) PlanningSyncRecordDTO {
	return PlanningSyncRecordDTO{
		ID:        job.ID,
		Scenario:  job.Scenario,
		Method:    job.Method,
		StartDate: job.Window.Start.String(),
		EndDate:   job.Window.End.String(),
		Periods:   job.Periods,
		Records:   job.Records,
		JobID:     job.JobID,
		Message:   job.Message,
		CreatedAt: job.CreatedAt.Format(timestampLayout),
	}
}

// toRateUpdates converts a pricing plan into the PMS push payload.
func toRateUpdates(plan *cashflow.PricingPlan, rateCode, roomType string) []pms.RateUpdate {
	updates := make([]pms.RateUpdate, 0, len(plan.Recommendations))
	for _, rec := range plan.Recommendations {
		updates = append(updates, pms.RateUpdate{
			Date:     rec.Date,
			RateCode: rateCode,
			RoomType: roomType,
			Amount:   rec.Optimized,
		})
	}
	return updates
}
