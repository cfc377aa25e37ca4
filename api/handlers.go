/*
handlers.go - HTTP handlers for the cash flow engine

PURPOSE:
  Implements every API endpoint: daily forecasts, the single-day cash
  position, what-if scenarios, forecast validation, report export, rate
  optimization, the Opera rate/inventory surface, planning ledger
  export/sync/actuals, and the persisted audit history.

ARCHITECTURE:
  HTTP Request -> Router (server.go) -> Handler -> domain packages
                                          |
                                          +-> cashflow.Generator (projections)
                                          +-> pms.Client          (Opera)
                                          +-> planning.Client     (ledger)
                                          +-> sqlite.Store        (audit)

ERROR MAPPING:
  Invalid input and window errors        -> 400
  Collaborator (Opera/Planning) failures -> 502
  Everything else                        -> 500

SEE ALSO:
  - dto.go: Request/response types
  - scenarios.go: Scenario presets and runners
  - server.go: Route definitions
*/
package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/planning"
	"github.com/warp/cashflow-engine/pms"
	"github.com/warp/cashflow-engine/pricing"
	"github.com/warp/cashflow-engine/store/sqlite"
)

const timestampLayout = time.RFC3339

// defaultOperaHotelID labels responses when no property id is
// configured, matching the bundled demo property.
const defaultOperaHotelID = "CHICAGOL7"

// Handler holds the dependencies every endpoint works against.
type Handler struct {
	Store     *sqlite.Store
	Generator *cashflow.Generator
	PMS       pms.Client
	Planning  planning.Client
	Scenarios *factory.ScenarioFactory
	Noise     pricing.Noise
	Logger    zerolog.Logger

	// OperaHotelID is the property id echoed on Opera responses.
	OperaHotelID string
}

// NewHandler validates the unit, readies the projection engine and
// wires the collaborator clients.
func NewHandler(store *sqlite.Store, unit cashflow.UnitConfig, pmsClient pms.Client, planningClient planning.Client, noise pricing.Noise, logger zerolog.Logger) (*Handler, error) {
	gen, err := cashflow.NewGenerator(unit, noise)
	if err != nil {
		return nil, err
	}
	return &Handler{
		Store:     store,
		Generator: gen,
		PMS:       pmsClient,
		Planning:  planningClient,
		Scenarios: factory.NewScenarioFactory(),
		Noise:     noise,
		Logger:    logger,
	}, nil
}

func (h *Handler) unit() cashflow.UnitConfig {
	return h.Generator.Unit()
}

func (h *Handler) hotel() string {
	return h.unit().HotelName
}

func (h *Handler) operaID() string {
	if h.OperaHotelID == "" {
		return defaultOperaHotelID
	}
	return h.OperaHotelID
}

// =============================================================================
// FORECAST ENDPOINTS
// =============================================================================

// GenerateForecast projects a window of daily cash flow and records
// the run.
// GET /api/forecast?start_date&end_date&dynamic&include_details
func (h *Handler) GenerateForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid forecast window", err)
		return
	}
	includeDetails := r.URL.Query().Get("include_details") != "false"
	dynamic := r.URL.Query().Get("dynamic") == "true"

	proj, err := h.Generator.Project(window, cashflow.ProjectOptions{Dynamic: dynamic})
	if err != nil {
		h.fail(w, "Failed to generate forecast", err)
		return
	}

	run, err := h.Store.SaveRun(ctx, sqlite.ForecastRun{
		Window:         proj.Window,
		Dynamic:        dynamic,
		Days:           len(proj.Days),
		DaysBelow:      proj.DaysBelowMinimum,
		OpeningBalance: proj.OpeningBalance,
		ClosingBalance: proj.ClosingBalance,
		TotalInflows:   proj.TotalInflows,
		TotalOutflows:  proj.TotalOutflows,
		NetChange:      proj.NetChange,
	})
	if err != nil {
		h.fail(w, "Failed to record forecast run", err)
		return
	}

	writeJSON(w, http.StatusOK, toForecastResponse(h.hotel(), run.ID, proj, includeDetails))
}

// GetPosition reports the cash position for one day, defaulting to
// today.
// GET /api/position?as_of_date
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := fiscal.Today()
	if raw := r.URL.Query().Get("as_of_date"); raw != "" {
		var err error
		date, err = parseDateField("as_of_date", raw)
		if err != nil {
			h.fail(w, "Invalid as_of_date", err)
			return
		}
	}

	pos, err := h.Generator.PositionOn(date)
	if err != nil {
		h.fail(w, "Failed to compute cash position", err)
		return
	}

	hasActuals, err := h.Store.HasActuals(ctx, date)
	if err != nil {
		h.fail(w, "Failed to check recorded actuals", err)
		return
	}
	pos.HasActuals = hasActuals

	writeJSON(w, http.StatusOK, toPositionResponse(h.hotel(), pos))
}

// =============================================================================
// VALIDATION AND ACTUALS
// =============================================================================

// ValidateForecast scores a forecast day against actuals. Amounts may
// be supplied inline; otherwise the recorded actuals for the date are
// used.
// POST /api/forecast/validate
func (h *Handler) ValidateForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDateField("forecast_date", req.ForecastDate)
	if err != nil {
		h.fail(w, "Invalid forecast_date", err)
		return
	}

	entry := cashflow.ActualsEntry{Date: date}
	if req.ActualInflows != nil && req.ActualOutflows != nil {
		entry.Inflows = decimal.NewFromFloat(*req.ActualInflows)
		entry.Outflows = decimal.NewFromFloat(*req.ActualOutflows)
	} else {
		day, err := h.Store.ActualsOn(ctx, date)
		if err != nil {
			h.fail(w, "Failed to load recorded actuals", err)
			return
		}
		if day == nil {
			writeError(w, http.StatusNotFound, "No actuals recorded for "+date.String(), nil)
			return
		}
		entry.Inflows = day.TotalInflows
		entry.Outflows = day.TotalOutflows
	}

	validation, err := h.Generator.ValidateAgainst(entry)
	if err != nil {
		h.fail(w, "Failed to validate forecast", err)
		return
	}

	writeJSON(w, http.StatusOK, toValidationResponse(validation))
}

// RecordActuals stores per-account amounts for a date, overwriting
// anything already recorded for the same day and account.
// POST /api/actuals
func (h *Handler) RecordActuals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecordActualsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDateField("date", req.Date)
	if err != nil {
		h.fail(w, "Invalid date", err)
		return
	}
	if len(req.Rows) == 0 {
		h.fail(w, "Invalid actuals", &fiscal.InputError{Field: "rows", Value: "[]", Reason: "must not be empty"})
		return
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	rows := make([]sqlite.ActualRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		if row.Account == "" {
			h.fail(w, "Invalid actuals", &fiscal.InputError{Field: "account", Value: "", Reason: "must not be empty"})
			return
		}
		rows = append(rows, sqlite.ActualRow{
			Date:    date,
			Account: row.Account,
			Amount:  fiscal.Round2(decimal.NewFromFloat(row.Amount)),
			Source:  source,
		})
	}

	if err := h.Store.UpsertActuals(ctx, rows); err != nil {
		h.fail(w, "Failed to record actuals", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"date":          date.String(),
		"rows_recorded": len(rows),
	})
}

// =============================================================================
// REPORT EXPORT
// =============================================================================

// ExportReport renders a forecast window as JSON, CSV or a text
// summary.
// GET /api/reports/export?start_date&end_date&format
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid report window", err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "summary"
	}

	proj, err := h.Generator.Project(window, cashflow.ProjectOptions{})
	if err != nil {
		h.fail(w, "Failed to generate report", err)
		return
	}

	switch format {
	case "json":
		days := make([]ReportDayDTO, 0, len(proj.Days))
		for _, rec := range proj.Days {
			days = append(days, toReportDayDTO(rec))
		}
		writeJSON(w, http.StatusOK, ReportResponse{
			ReportType:  "Daily Cash Flow Forecast",
			HotelName:   h.hotel(),
			GeneratedAt: time.Now().Format(timestampLayout),
			Period: PeriodDTO{
				Start: window.Start.String(),
				End:   window.End.String(),
			},
			OpeningBalance: money(proj.OpeningBalance),
			Data:           days,
		})
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		cw := csv.NewWriter(w)
		cw.Write([]string{"Date", "Day", "Inflows", "Outflows", "Net Cash Flow", "Closing Balance"})
		for _, rec := range proj.Days {
			cw.Write([]string{
				rec.Date.String(),
				rec.DayOfWeek,
				rec.TotalInflows.StringFixed(2),
				rec.TotalOutflows.StringFixed(2),
				rec.NetCashFlow.StringFixed(2),
				rec.ClosingBalance.StringFixed(2),
			})
		}
		cw.Flush()
	case "summary":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, h.summaryReport(proj))
	default:
		h.fail(w, "Invalid format", &fiscal.InputError{Field: "format", Value: format, Reason: "must be json, csv or summary"})
	}
}

// summaryReport renders the window as the plain-text block the
// original reporting surface produced.
func (h *Handler) summaryReport(proj *cashflow.Projection) string {
	unit := h.unit()
	days := decimal.NewFromInt(int64(len(proj.Days)))

	status := "HEALTHY"
	if proj.ClosingBalance.LessThan(unit.MinimumReserve) {
		status = "ATTENTION REQUIRED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CASH FLOW FORECAST SUMMARY REPORT\n\n")
	fmt.Fprintf(&b, "Hotel:     %s\n", unit.HotelName)
	fmt.Fprintf(&b, "Period:    %s to %s\n", proj.Window.Start, proj.Window.End)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "CASH POSITION\n")
	fmt.Fprintf(&b, "  Opening Balance:     $%s\n", formatAmount(proj.OpeningBalance))
	fmt.Fprintf(&b, "  Total Inflows:       $%s\n", formatAmount(proj.TotalInflows))
	fmt.Fprintf(&b, "  Total Outflows:      $%s\n", formatAmount(proj.TotalOutflows))
	fmt.Fprintf(&b, "  Net Change:          $%s\n", formatAmount(proj.NetChange))
	fmt.Fprintf(&b, "  Closing Balance:     $%s\n\n", formatAmount(proj.ClosingBalance))

	fmt.Fprintf(&b, "DAILY AVERAGES\n")
	fmt.Fprintf(&b, "  Avg Daily Inflows:   $%s\n", formatAmount(fiscal.Round2(proj.TotalInflows.Div(days))))
	fmt.Fprintf(&b, "  Avg Daily Outflows:  $%s\n", formatAmount(fiscal.Round2(proj.TotalOutflows.Div(days))))
	fmt.Fprintf(&b, "  Avg Daily Net:       $%s\n\n", formatAmount(fiscal.Round2(proj.NetChange.Div(days))))

	fmt.Fprintf(&b, "RISK INDICATORS\n")
	fmt.Fprintf(&b, "  Minimum Reserve:     $%s\n", formatAmount(unit.MinimumReserve))
	fmt.Fprintf(&b, "  Days Below Minimum:  %d\n", proj.DaysBelowMinimum)
	fmt.Fprintf(&b, "  Status:              %s\n", status)
	return b.String()
}

// =============================================================================
// PRICING ENDPOINTS
// =============================================================================

// OptimizePricing quotes every night in a window and sizes the revenue
// opportunity against the flat base rate.
// GET /api/pricing/optimize?start_date&end_date&current_occupancy&lead_days&include_breakdown
func (h *Handler) OptimizePricing(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid pricing window", err)
		return
	}
	q := r.URL.Query()

	var occupancy *float64
	if raw := q.Get("current_occupancy"); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 0 || pct > 100 {
			h.fail(w, "Invalid current_occupancy", &fiscal.InputError{Field: "current_occupancy", Value: raw, Reason: "must be a percentage between 0 and 100"})
			return
		}
		occ := pct / 100
		occupancy = &occ
	}

	leadDays := 0
	if raw := q.Get("lead_days"); raw != "" {
		leadDays, err = strconv.Atoi(raw)
		if err != nil || leadDays < 0 {
			h.fail(w, "Invalid lead_days", &fiscal.InputError{Field: "lead_days", Value: raw, Reason: "must be a non-negative integer"})
			return
		}
	}

	breakdown := q.Get("include_breakdown") != "false"

	plan, err := h.Generator.OptimizeWindow(window, occupancy, leadDays, breakdown)
	if err != nil {
		h.fail(w, "Failed to optimize pricing", err)
		return
	}

	writeJSON(w, http.StatusOK, toPricingPlanResponse(h.hotel(), plan))
}

// ListEvents slices the event calendar for a window, optionally
// filtered by type.
// GET /api/pricing/events?start_date&end_date&event_type
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid events window", err)
		return
	}
	if err := window.Validate(0); err != nil {
		h.fail(w, "Invalid events window", err)
		return
	}

	filter := r.URL.Query().Get("event_type")
	if filter == "" {
		filter = "all"
	}

	events := []EventDTO{}
	typeSummary := map[string]int{}
	for _, dated := range h.unit().Pricing.Events.Between(window) {
		if filter != "all" && dated.Event.Type != filter {
			continue
		}
		events = append(events, EventDTO{
			Date:                      dated.Date.String(),
			DayOfWeek:                 dated.Date.DayName(),
			Name:                      dated.Event.Name,
			Type:                      dated.Event.Type,
			DemandImpact:              impactString(dated.Event.Impact),
			RecommendedRateAdjustment: impactString(dated.Event.Impact),
		})
		typeSummary[dated.Event.Type]++
	}

	writeJSON(w, http.StatusOK, EventsResponse{
		HotelName: h.hotel(),
		Location:  h.unit().RegionName,
		Period: PeriodDTO{
			Start: window.Start.String(),
			End:   window.End.String(),
		},
		Filter:           filter,
		TotalEvents:      len(events),
		Events:           events,
		EventTypeSummary: typeSummary,
	})
}

// Market positioning bands for the competitor analysis: within five
// percent of the shopped average counts as competitive, and undercuts
// beyond ten percent earn a rate-increase recommendation.
const (
	positioningBandPct = 5.0
	undercutThreshold  = 0.10

	PositioningPremium     = "PREMIUM"
	PositioningCompetitive = "COMPETITIVE"
	PositioningValue       = "VALUE"
)

// AnalyzeCompetitors shops the competitive set for one date and
// positions our optimized rate inside it.
// GET /api/pricing/competitors?date
func (h *Handler) AnalyzeCompetitors(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateField("date", r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, "Invalid date", err)
		return
	}

	quote, err := h.Generator.Engine().Quote(pricing.QuoteRequest{Date: date, Breakdown: true})
	if err != nil {
		h.fail(w, "Failed to analyze competitors", err)
		return
	}

	minRate := quote.Competitors[0].Rate
	maxRate := quote.Competitors[0].Rate
	for _, c := range quote.Competitors[1:] {
		if c.Rate.LessThan(minRate) {
			minRate = c.Rate
		}
		if c.Rate.GreaterThan(maxRate) {
			maxRate = c.Rate
		}
	}

	vsAverage := quote.Optimized.Sub(quote.CompetitorAvg)
	vsAveragePct := 0.0
	if quote.CompetitorAvg.IsPositive() {
		pct, _ := vsAverage.Div(quote.CompetitorAvg).Float64()
		vsAveragePct = math.Round(pct*1000) / 10
	}

	rank := 1
	for _, c := range quote.Competitors {
		if c.Rate.GreaterThan(quote.Optimized) {
			rank++
		}
	}

	positioning := PositioningCompetitive
	switch {
	case vsAveragePct > positioningBandPct:
		positioning = PositioningPremium
	case vsAveragePct < -positioningBandPct:
		positioning = PositioningValue
	}

	var recommendations []string
	switch {
	case quote.Optimized.GreaterThan(maxRate.Mul(fiscal.Frac(undercutThreshold))):
		recommendations = append(recommendations, "Rate significantly above market - consider reducing to maintain competitiveness")
	case quote.Optimized.LessThan(quote.CompetitorAvg.Mul(fiscal.Frac(-undercutThreshold))):
		recommendations = append(recommendations, "Rate undercuts the market average by more than 10% - opportunity to increase rates")
	default:
		recommendations = append(recommendations, "Rate well-positioned within market range")
	}

	resp := CompetitorsResponse{
		HotelName: h.hotel(),
		Date:      date.String(),
		DayOfWeek: quote.DayOfWeek,
		OurPricing: OurPricingDTO{
			BaseRate:      money(quote.BaseRate),
			OptimizedRate: money(quote.Optimized),
			Adjustment:    quote.TotalAdjustmentPct,
		},
		CompetitorRates: competitorRatesMap(quote.Competitors),
		MarketAnalysis: MarketAnalysisDTO{
			Average: money(quote.CompetitorAvg),
			Minimum: money(minRate),
			Maximum: money(maxRate),
			Spread:  money(fiscal.Round2(maxRate.Sub(minRate))),
		},
		OurPosition: MarketPositionDTO{
			VsAverage:    money(fiscal.Round2(vsAverage)),
			VsAveragePct: vsAveragePct,
			Rank:         rank,
			Positioning:  positioning,
		},
	}

	if quote.Breakdown != nil && quote.Breakdown.Event != nil {
		ev := quote.Breakdown.Event
		resp.EventImpact = &EventImpactDTO{
			Name:       ev.Name,
			Type:       ev.Type,
			Adjustment: impactString(ev.Adjustment),
		}
		recommendations = append(recommendations, fmt.Sprintf("Event '%s' - ensure rate captures demand surge", ev.Name))
	}
	resp.Recommendations = recommendations

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// OPERA ENDPOINTS
// =============================================================================

// SyncRates pushes optimized rates for a window into the property
// system. Preview mode returns the would-be payload without calling
// Opera.
// POST /api/opera/rates/sync
func (h *Handler) SyncRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RateSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	window, err := windowFrom(req.StartDate, req.EndDate)
	if err != nil {
		h.fail(w, "Invalid sync window", err)
		return
	}

	rateCode := req.RateCode
	if rateCode == "" {
		rateCode = pms.DefaultRateCode
	}
	roomType := req.RoomType
	if roomType == "" {
		roomType = pms.DefaultRoomType
	}

	plan, err := h.Generator.OptimizeWindow(window, nil, 0, false)
	if err != nil {
		h.fail(w, "Failed to compute rates", err)
		return
	}

	rates := make([]RatePushDTO, 0, len(plan.Recommendations))
	for _, rec := range plan.Recommendations {
		rates = append(rates, RatePushDTO{
			Date:          rec.Date.String(),
			RateCode:      rateCode,
			RoomType:      roomType,
			Amount:        money(rec.Optimized),
			DayOfWeek:     rec.DayOfWeek,
			AdjustmentPct: rec.TotalAdjustmentPct,
		})
	}

	resp := RateSyncResponse{
		HotelName:    h.hotel(),
		OperaHotelID: h.operaID(),
		Period: PeriodDTO{
			Start: window.Start.String(),
			End:   window.End.String(),
			Days:  plan.Days,
		},
		RateCode:    rateCode,
		RoomType:    roomType,
		PreviewOnly: req.PreviewOnly,
		Rates:       rates,
	}

	if req.PreviewOnly {
		resp.Status = "PREVIEW - rates not synced to Opera"
		resp.Summary = previewSummary(plan)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	result, batchID, err := h.pushRates(ctx, plan, rateCode, roomType)
	if err != nil {
		h.fail(w, "Failed to sync rates to Opera", err)
		return
	}

	resp.Status = fmt.Sprintf("SYNCED - %d/%d rates updated in Opera", result.Succeeded, result.Total)
	resp.SyncResult = &SyncResultDTO{
		Total:   result.Total,
		Success: result.Succeeded,
		Failed:  result.Failed,
	}
	resp.BatchID = batchID

	writeJSON(w, http.StatusOK, resp)
}

// pushRates performs the live leg of a rate sync: the bulk update
// against the property system plus the per-night audit records. The
// scheduler shares this path.
func (h *Handler) pushRates(ctx context.Context, plan *cashflow.PricingPlan, rateCode, roomType string) (pms.BulkResult, string, error) {
	result, err := h.PMS.BulkUpdateRates(ctx, toRateUpdates(plan, rateCode, roomType))
	observeCollaborator("opera", "bulk_update_rates", err)
	if err != nil {
		return pms.BulkResult{}, "", err
	}

	pushes := make([]sqlite.RatePush, 0, len(result.Details))
	for _, detail := range result.Details {
		pushes = append(pushes, sqlite.RatePush{
			Night:   detail.Date,
			Amount:  detail.Amount,
			Success: detail.Success,
		})
	}

	batchID, err := h.Store.SaveRatePushes(ctx, pushes)
	if err != nil {
		return result, "", err
	}
	return result, batchID, nil
}

func previewSummary(plan *cashflow.PricingPlan) *RateSyncSummaryDTO {
	minRate := plan.Recommendations[0].Optimized
	maxRate := plan.Recommendations[0].Optimized
	for _, rec := range plan.Recommendations[1:] {
		if rec.Optimized.LessThan(minRate) {
			minRate = rec.Optimized
		}
		if rec.Optimized.GreaterThan(maxRate) {
			maxRate = rec.Optimized
		}
	}
	return &RateSyncSummaryDTO{
		AvgRate: money(plan.AvgOptimizedRate),
		MinRate: money(minRate),
		MaxRate: money(maxRate),
	}
}

// CompareRates fetches the rates loaded in the property system and
// diffs them against the engine's recommendations.
// GET /api/opera/rates?start_date&end_date&rate_code
func (h *Handler) CompareRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid comparison window", err)
		return
	}
	rateCode := r.URL.Query().Get("rate_code")
	if rateCode == "" {
		rateCode = pms.DefaultRateCode
	}

	records, err := h.PMS.CurrentRates(ctx, window, rateCode)
	observeCollaborator("opera", "current_rates", err)
	if err != nil {
		h.fail(w, "Failed to fetch Opera rates", err)
		return
	}

	comparison := make([]RateComparisonDTO, 0, len(records))
	increases, decreases := 0, 0
	operaRates := make([]decimal.Decimal, 0, len(records))
	recommended := make([]decimal.Decimal, 0, len(records))
	uplift := decimal.Zero

	for _, record := range records {
		quote, err := h.Generator.Engine().Quote(pricing.QuoteRequest{Date: record.Date})
		if err != nil {
			h.fail(w, "Failed to quote rates", err)
			return
		}

		diff := fiscal.Round2(quote.Optimized.Sub(record.Amount))
		diffPct := 0.0
		if record.Amount.IsPositive() {
			pct, _ := diff.Div(record.Amount).Float64()
			diffPct = math.Round(pct*1000) / 10
		}

		action := pricing.RateAction(quote.Optimized, record.Amount)
		switch action {
		case pricing.ActionIncrease:
			increases++
		case pricing.ActionDecrease:
			decreases++
		}
		if diff.IsPositive() {
			uplift = uplift.Add(diff)
		}

		operaRates = append(operaRates, record.Amount)
		recommended = append(recommended, quote.Optimized)
		comparison = append(comparison, RateComparisonDTO{
			Date:            record.Date.String(),
			DayOfWeek:       quote.DayOfWeek,
			OperaRate:       money(record.Amount),
			RecommendedRate: money(quote.Optimized),
			Difference:      money(diff),
			DifferencePct:   diffPct,
			Action:          action,
		})
	}

	summary := RateComparisonSummaryDTO{
		RatesToIncrease: increases,
		RatesToDecrease: decreases,
		RatesOK:         len(comparison) - increases - decreases,
	}
	if len(comparison) > 0 {
		days := decimal.NewFromInt(int64(len(comparison)))
		summary.AvgOperaRate = money(fiscal.Round2(fiscal.Mean(operaRates)))
		summary.AvgRecommendedRate = money(fiscal.Round2(fiscal.Mean(recommended)))
		summary.PotentialDailyUplift = money(fiscal.Round2(uplift.Div(days)))
	}

	writeJSON(w, http.StatusOK, RateComparisonResponse{
		HotelName:    h.hotel(),
		OperaHotelID: h.operaID(),
		Period: PeriodDTO{
			Start: window.Start.String(),
			End:   window.End.String(),
			Days:  len(comparison),
		},
		RateCode:   rateCode,
		Summary:    summary,
		Comparison: comparison,
	})
}

// Occupancy tier labels for the inventory view.
func occupancyTier(occupancy float64) string {
	switch {
	case occupancy > 0.95:
		return "sold_out"
	case occupancy > 0.85:
		return "very_high"
	case occupancy > 0.70:
		return "high"
	case occupancy > 0.50:
		return "moderate"
	default:
		return "low"
	}
}

// GetInventory reads room availability from the property system and
// prices the unsold rooms.
// GET /api/opera/inventory?start_date&end_date
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid inventory window", err)
		return
	}

	days, err := h.PMS.Inventory(ctx, window)
	observeCollaborator("opera", "inventory", err)
	if err != nil {
		h.fail(w, "Failed to fetch Opera inventory", err)
		return
	}

	daily := make([]InventoryDayDTO, 0, len(days))
	totalRooms, totalAvailable := 0, 0
	occupancySum := 0.0
	highDemand, lowDemand := 0, 0
	opportunity := decimal.Zero

	for _, day := range days {
		occ := day.OccupancyPct / 100
		quote, err := h.Generator.Engine().Quote(pricing.QuoteRequest{Date: day.Date, Occupancy: &occ})
		if err != nil {
			h.fail(w, "Failed to quote rates", err)
			return
		}

		totalRooms += day.TotalRooms
		totalAvailable += day.Available
		occupancySum += day.OccupancyPct
		if day.OccupancyPct > 85 {
			highDemand++
		}
		if day.OccupancyPct < 50 {
			lowDemand++
		}
		opportunity = opportunity.Add(decimal.NewFromInt(int64(day.Available)).Mul(quote.Optimized))

		daily = append(daily, InventoryDayDTO{
			Date:            day.Date.String(),
			DayOfWeek:       day.Date.DayName(),
			TotalRooms:      day.TotalRooms,
			Available:       day.Available,
			Occupied:        day.Occupied,
			OccupancyPct:    day.OccupancyPct,
			OccupancyTier:   occupancyTier(occ),
			RecommendedRate: money(quote.Optimized),
			RateAdjustment:  fmt.Sprintf("%+.1f%%", quote.TotalAdjustmentPct),
		})
	}

	summary := InventorySummaryDTO{
		TotalRoomNights:    totalRooms,
		TotalAvailable:     totalAvailable,
		TotalOccupied:      totalRooms - totalAvailable,
		HighDemandDays:     highDemand,
		LowDemandDays:      lowDemand,
		RevenueOpportunity: money(fiscal.Round2(opportunity)),
	}
	if len(daily) > 0 {
		summary.AvgOccupancy = math.Round(occupancySum/float64(len(daily))*10) / 10
	}

	writeJSON(w, http.StatusOK, InventoryResponse{
		HotelName:    h.hotel(),
		OperaHotelID: h.operaID(),
		Period: PeriodDTO{
			Start: window.Start.String(),
			End:   window.End.String(),
			Days:  len(daily),
		},
		Summary:        summary,
		DailyInventory: daily,
	})
}

// =============================================================================
// PLANNING ENDPOINTS
// =============================================================================

// monthlyLedger projects a window on the static path and rolls it up
// into monthly records plus the ledger rows they flatten to.
func (h *Handler) monthlyLedger(window fiscal.DateRange, scenario string) ([]cashflow.MonthlyRecord, []cashflow.LedgerRow, error) {
	proj, err := h.Generator.Project(window, cashflow.ProjectOptions{})
	if err != nil {
		return nil, nil, err
	}
	months := cashflow.AggregateMonthly(proj.Days)
	rows := cashflow.BuildLedger(months, h.unit().Dimensions, scenario)
	return months, rows, nil
}

func periodLabels(months []cashflow.MonthlyRecord) []string {
	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, fmt.Sprintf("%s:%s", m.Period.FiscalYear, m.Period.MonthName()))
	}
	return labels
}

// ExportForPlanning renders the monthly roll-up in the planning import
// shape as JSON, CSV or a text summary.
// GET /api/planning/export?start_date&end_date&scenario&format
func (h *Handler) ExportForPlanning(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r)
	if err != nil {
		h.fail(w, "Invalid export window", err)
		return
	}

	q := r.URL.Query()
	scenario := q.Get("scenario")
	if scenario == "" {
		scenario = cashflow.DefaultLedgerScenario
	}
	format := q.Get("format")
	if format == "" {
		format = "json"
	}

	months, rows, err := h.monthlyLedger(window, scenario)
	if err != nil {
		h.fail(w, "Failed to build planning export", err)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := cashflow.WriteLedgerCSV(w, rows); err != nil {
			h.Logger.Error().Err(err).Msg("writing ledger csv failed")
		}
	case "summary":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, planningSummary(window, scenario, months))
	case "json":
		monthly := make([]MonthlySummaryDTO, 0, len(months))
		for _, m := range months {
			monthly = append(monthly, toMonthlySummaryDTO(m))
		}
		preview := rows
		if len(preview) > 5 {
			preview = preview[:5]
		}
		records := make([]LedgerRecordDTO, 0, len(preview))
		for _, row := range preview {
			records = append(records, toLedgerRecordDTO(row))
		}
		writeJSON(w, http.StatusOK, PlanningExportResponse{
			Status:           "success",
			Message:          "Monthly forecast exported for Planning",
			Scenario:         scenario,
			Periods:          periodLabels(months),
			RecordsGenerated: len(rows),
			MonthlySummary:   monthly,
			PlanningRecords:  records,
		})
	default:
		h.fail(w, "Invalid format", &fiscal.InputError{Field: "format", Value: format, Reason: "must be json, csv or summary"})
	}
}

func planningSummary(window fiscal.DateRange, scenario string, months []cashflow.MonthlyRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MONTHLY FORECAST FOR PLANNING\n")
	fmt.Fprintf(&b, "Scenario: %s\n", scenario)
	fmt.Fprintf(&b, "Period:   %s to %s\n", window.Start, window.End)
	for _, m := range months {
		fmt.Fprintf(&b, "\n%s - %s (%d days)\n", m.Period.FiscalYear, m.Period.MonthName(), m.Days)
		fmt.Fprintf(&b, "  Total Inflows:   $%s\n", formatAmount(m.TotalInflows))
		fmt.Fprintf(&b, "  Total Outflows:  $%s\n", formatAmount(m.TotalOutflows))
		fmt.Fprintf(&b, "  Net Cash Flow:   $%s\n", formatAmount(m.NetCashFlow))
		fmt.Fprintf(&b, "  Closing Balance: $%s\n", formatAmount(m.ClosingBalance))
	}
	return b.String()
}

// SyncToPlanning aggregates a window to monthly records and loads them
// into the planning ledger. Preview mode skips the load.
// POST /api/planning/sync
func (h *Handler) SyncToPlanning(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlanningSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	window, err := windowFrom(req.StartDate, req.EndDate)
	if err != nil {
		h.fail(w, "Invalid sync window", err)
		return
	}

	scenario := req.Scenario
	if scenario == "" {
		scenario = cashflow.DefaultLedgerScenario
	}
	rawMethod := req.LoadMethod
	if rawMethod == "" {
		rawMethod = string(planning.Replace)
	}
	method, err := planning.ParseLoadMethod(rawMethod)
	if err != nil {
		h.fail(w, "Invalid load_method", err)
		return
	}

	months, rows, err := h.monthlyLedger(window, scenario)
	if err != nil {
		h.fail(w, "Failed to build planning records", err)
		return
	}

	records := make([]planning.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toPlanningRecord(row))
	}
	periods := periodLabels(months)

	if req.PreviewOnly {
		monthly := make([]MonthlySummaryDTO, 0, len(months))
		for _, m := range months {
			monthly = append(monthly, toMonthlySummaryDTO(m))
		}
		sample := rows
		if len(sample) > 10 {
			sample = sample[:10]
		}
		sampleRecords := make([]LedgerRecordDTO, 0, len(sample))
		for _, row := range sample {
			sampleRecords = append(sampleRecords, toLedgerRecordDTO(row))
		}
		writeJSON(w, http.StatusOK, PlanningSyncResponse{
			Status:         "preview",
			Message:        "Preview mode - no data synced to Planning",
			Scenario:       scenario,
			LoadMethod:     string(method),
			Periods:        periods,
			RecordsToLoad:  len(records),
			MonthlySummary: monthly,
			SampleRecords:  sampleRecords,
		})
		return
	}

	result, err := h.Planning.LoadRecords(ctx, records, method)
	observeCollaborator("planning", "load_records", err)
	if err != nil {
		h.fail(w, "Failed to sync to Planning", err)
		return
	}

	job, err := h.Store.SavePlanningSync(ctx, sqlite.PlanningSync{
		Scenario: scenario,
		Method:   string(method),
		Window:   window,
		Periods:  periods,
		Records:  result.RecordsLoaded,
		JobID:    result.JobID,
		Message:  result.Message,
	})
	if err != nil {
		h.fail(w, "Failed to record planning sync", err)
		return
	}

	writeJSON(w, http.StatusOK, PlanningSyncResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Successfully synced %d records to Planning", result.RecordsLoaded),
		Scenario:      scenario,
		LoadMethod:    string(method),
		Periods:       periods,
		RecordsLoaded: result.RecordsLoaded,
		JobID:         result.JobID,
		SyncID:        job.ID,
	})
}

// GetPlanningActuals fetches recorded actuals from the planning ledger
// for one period, grouped by chart account.
// GET /api/planning/actuals?period&entity&years
func (h *Handler) GetPlanningActuals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		h.fail(w, "Invalid period", &fiscal.InputError{Field: "period", Value: "", Reason: "must name a planning period, e.g. Aug"})
		return
	}
	entity := q.Get("entity")
	if entity == "" {
		entity = h.unit().EntityID
	}

	pov := planning.POV{
		Scenario: "Actual",
		Entity:   entity,
		Version:  "Final",
		Period:   period,
		Years:    q.Get("years"),
	}

	accounts := make([]string, 0, len(cashflow.InflowCategories)+len(cashflow.OutflowCategories))
	for _, c := range cashflow.InflowCategories {
		accounts = append(accounts, c.Code)
	}
	for _, c := range cashflow.OutflowCategories {
		accounts = append(accounts, c.Code)
	}

	records, err := h.Planning.Actuals(ctx, pov, accounts)
	observeCollaborator("planning", "actuals", err)
	if err != nil {
		h.fail(w, "Failed to fetch Planning actuals", err)
		return
	}

	inflowTotals := map[string]decimal.Decimal{}
	outflowTotals := map[string]decimal.Decimal{}
	fetched := 0
	for _, rec := range records {
		if rec.Period != "" && rec.Period != period {
			continue
		}
		fetched++
		switch {
		case cashflow.IsInflowAccount(rec.Account):
			inflowTotals[rec.Account] = inflowTotals[rec.Account].Add(rec.Amount)
		case cashflow.IsOutflowAccount(rec.Account):
			outflowTotals[rec.Account] = outflowTotals[rec.Account].Add(rec.Amount.Abs())
		}
	}

	inflows := make(map[string]AccountAmountDTO, len(inflowTotals))
	totalIn := decimal.Zero
	for code, amount := range inflowTotals {
		inflows[code] = AccountAmountDTO{Name: cashflow.CategoryName(code), Amount: money(amount)}
		totalIn = totalIn.Add(amount)
	}
	outflows := make(map[string]AccountAmountDTO, len(outflowTotals))
	totalOut := decimal.Zero
	for code, amount := range outflowTotals {
		outflows[code] = AccountAmountDTO{Name: cashflow.CategoryName(code), Amount: money(amount)}
		totalOut = totalOut.Add(amount)
	}

	writeJSON(w, http.StatusOK, PlanningActualsResponse{
		Status: "success",
		Period: period,
		Entity: entity,
		Actuals: ActualsBlockDTO{
			Inflows:       inflows,
			Outflows:      outflows,
			TotalInflows:  money(fiscal.Round2(totalIn)),
			TotalOutflows: money(fiscal.Round2(totalOut)),
			NetCashFlow:   money(fiscal.Round2(totalIn.Sub(totalOut))),
		},
		RecordsFetched: fetched,
		UseFor:         "Baseline data to calibrate forecast accuracy",
	})
}

// =============================================================================
// HISTORY AND ADMIN
// =============================================================================

// ListRuns returns the most recent forecast runs.
// GET /api/runs?limit
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), limitFromQuery(r))
	if err != nil {
		h.fail(w, "Failed to list forecast runs", err)
		return
	}
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one forecast run by id.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to load forecast run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Forecast run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// ListRatePushes returns the most recent per-night rate pushes.
// GET /api/rates/pushes?limit
func (h *Handler) ListRatePushes(w http.ResponseWriter, r *http.Request) {
	pushes, err := h.Store.ListRatePushes(r.Context(), limitFromQuery(r))
	if err != nil {
		h.fail(w, "Failed to list rate pushes", err)
		return
	}
	dtos := make([]RatePushRecordDTO, 0, len(pushes))
	for _, push := range pushes {
		dtos = append(dtos, toRatePushRecordDTO(push))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPlanningSyncs returns the most recent ledger load jobs.
// GET /api/planning/syncs?limit
func (h *Handler) ListPlanningSyncs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListPlanningSyncs(r.Context(), limitFromQuery(r))
	if err != nil {
		h.fail(w, "Failed to list planning syncs", err)
		return
	}
	dtos := make([]PlanningSyncRecordDTO, 0, len(jobs))
	for _, job := range jobs {
		dtos = append(dtos, toPlanningSyncRecordDTO(job))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"hotel":  h.hotel(),
	})
}

// Reset clears every persisted table. Dev only.
// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset store", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// errorStatus maps the domain error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case fiscal.IsClientError(err):
		return http.StatusBadRequest
	case fiscal.IsCollaborator(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail classifies the error, logs server-side failures and writes the
// error envelope.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Msg(message)
	} else {
		h.Logger.Debug().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}

func parseDateField(field, raw string) (fiscal.Date, error) {
	d, err := fiscal.ParseDate(raw)
	if err != nil {
		return fiscal.Date{}, &fiscal.InputError{Field: field, Value: raw, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func windowFrom(start, end string) (fiscal.DateRange, error) {
	s, err := parseDateField("start_date", start)
	if err != nil {
		return fiscal.DateRange{}, err
	}
	e, err := parseDateField("end_date", end)
	if err != nil {
		return fiscal.DateRange{}, err
	}
	return fiscal.DateRange{Start: s, End: e}, nil
}

func windowFromQuery(r *http.Request) (fiscal.DateRange, error) {
	q := r.URL.Query()
	return windowFrom(q.Get("start_date"), q.Get("end_date"))
}

func limitFromQuery(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// formatAmount renders a decimal with thousands separators for the
// text reports, e.g. 350000 -> "350,000.00".
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
