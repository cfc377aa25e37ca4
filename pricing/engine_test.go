package pricing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(t *testing.T, s string) fiscal.Date {
	t.Helper()
	date, err := fiscal.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return date
}

func dec(s string) decimal.Decimal {
	return fiscal.MustDecimal(s)
}

func fp(f float64) *float64 { return &f }
func ip(i int) *int         { return &i }

// quietMarket keeps the competitor average high enough that the
// market cap never binds, so factor math can be asserted exactly.
func quietMarket() pricing.Config {
	cfg := pricing.Default()
	cfg.Competitors = pricing.CompetitorSet{
		{Name: "Grand Plaza", BaseRate: dec("800.00"), Variance: 0},
		{Name: "Lakeshore Tower", BaseRate: dec("820.00"), Variance: 0},
	}
	return cfg
}

func newEngine(t *testing.T, cfg pricing.Config) *pricing.Engine {
	t.Helper()
	eng, err := pricing.NewEngine(cfg, pricing.Midpoint{})
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return eng
}

// =============================================================================
// FACTOR MATH
// =============================================================================

func TestQuote_FridayAugustNonEvent_AddsFactorsOnce(t *testing.T) {
	// GIVEN: base 189.00, moderate occupancy (0.70 boundary), same-day
	//        lead, a quiet Friday in August
	// WHEN: quoting
	// THEN: +0.20 Friday, +0.25 August, 0.0 moderate, +0.30 same-day
	//       sum to +0.75 and the rate is 189.00 * 1.75 = 330.75

	eng := newEngine(t, quietMarket())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-08-07"),
		Occupancy: fp(0.70),
		Breakdown: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !quote.Optimized.Equal(dec("330.75")) {
		t.Errorf("expected optimized 330.75, got %v", quote.Optimized)
	}
	if quote.TotalAdjustmentPct != 75.0 {
		t.Errorf("expected total adjustment 75.0%%, got %v", quote.TotalAdjustmentPct)
	}
	if !quote.RateChange.Equal(dec("141.75")) {
		t.Errorf("expected rate change 141.75, got %v", quote.RateChange)
	}
	if quote.MarketCapApplied {
		t.Error("market cap should not bind against a high-rate market")
	}
	if quote.Breakdown == nil {
		t.Fatal("expected factor breakdown")
	}
	if quote.Breakdown.Occupancy.Tier != "moderate" {
		t.Errorf("expected moderate tier at the 0.70 boundary, got %q", quote.Breakdown.Occupancy.Tier)
	}
	if quote.Breakdown.LeadTime.Tier != "same_day" {
		t.Errorf("expected same_day lead tier, got %q", quote.Breakdown.LeadTime.Tier)
	}
	if quote.Breakdown.Event != nil {
		t.Errorf("expected no event on 2026-08-07, got %q", quote.Breakdown.Event.Name)
	}
}

func TestQuote_EventDay_AddsEventImpact(t *testing.T) {
	// Lollapalooza Saturday: moderate 0.0 + Sat 0.25 + Aug 0.25 +
	// same-day 0.30 + event 0.45 = +1.25, so 189.00 * 2.25 = 425.25.
	eng := newEngine(t, quietMarket())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-08-01"),
		Occupancy: fp(0.70),
		Breakdown: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.Breakdown.Event == nil {
		t.Fatal("expected event factor on 2026-08-01")
	}
	if quote.Breakdown.Event.Name != "Lollapalooza Day 1" {
		t.Errorf("unexpected event %q", quote.Breakdown.Event.Name)
	}
	if quote.Breakdown.Event.Adjustment != 0.45 {
		t.Errorf("expected event adjustment 0.45, got %v", quote.Breakdown.Event.Adjustment)
	}
	if !quote.Optimized.Equal(dec("425.25")) {
		t.Errorf("expected optimized 425.25, got %v", quote.Optimized)
	}
}

func TestQuote_RateCeiling_Clamps(t *testing.T) {
	// New Year's Eve, sold out, same day: +0.50 +0.05 +0.35 +0.30
	// +0.50 pushes the raw rate past 449.00.
	eng := newEngine(t, quietMarket())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-12-31"),
		Occupancy: fp(0.96),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Optimized.Equal(dec("449.00")) {
		t.Errorf("expected ceiling 449.00, got %v", quote.Optimized)
	}
}

func TestQuote_RateFloor_Clamps(t *testing.T) {
	// A dead January Monday booked over a year out: -0.25 -0.10 -0.20
	// -0.15 drops the raw rate below 99.00.
	eng := newEngine(t, quietMarket())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-01-05"),
		Occupancy: fp(0.25),
		LeadDays:  ip(400),
		Breakdown: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Optimized.Equal(dec("99.00")) {
		t.Errorf("expected floor 99.00, got %v", quote.Optimized)
	}
	if quote.Breakdown.LeadTime.Tier != "far_advance" {
		t.Errorf("expected far_advance to catch 400-day leads, got %q", quote.Breakdown.LeadTime.Tier)
	}
}

// =============================================================================
// MARKET CAP
// =============================================================================

func TestQuote_MarketCap_CapsAtPremiumAboveAverage(t *testing.T) {
	// GIVEN: the default shop list on a quiet Friday; with midpoint
	//        noise every competitor sits at base * 1.20
	// WHEN: factor math alone would quote 330.75
	// THEN: the quote is capped at avg 236.40 * 1.15 = 271.86

	eng := newEngine(t, pricing.Default())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-08-07"),
		Occupancy: fp(0.70),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !quote.CompetitorAvg.Equal(dec("236.40")) {
		t.Errorf("expected competitor average 236.40, got %v", quote.CompetitorAvg)
	}
	if !quote.MarketCapApplied {
		t.Error("expected market cap to bind")
	}
	if !quote.Optimized.Equal(dec("271.86")) {
		t.Errorf("expected capped rate 271.86, got %v", quote.Optimized)
	}
	if quote.PositionVsMarket != "above" {
		t.Errorf("expected position above market, got %q", quote.PositionVsMarket)
	}
}

func TestQuote_MarketCap_NeverDropsBelowFloor(t *testing.T) {
	// A collapsed market cannot drag the quote under the rate floor.
	cfg := pricing.Default()
	cfg.Competitors = pricing.CompetitorSet{
		{Name: "Distressed Inn", BaseRate: dec("10.00"), Variance: 0},
	}
	eng := newEngine(t, cfg)

	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-08-07"),
		Occupancy: fp(0.70),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.MarketCapApplied {
		t.Error("expected market cap to bind")
	}
	if !quote.Optimized.Equal(dec("99.00")) {
		t.Errorf("expected floor 99.00 to win over the cap, got %v", quote.Optimized)
	}
}

func TestQuote_BoundsHoldAcrossWindow(t *testing.T) {
	// Every quote over a 90-day window stays inside [min, max]
	// regardless of noise.
	eng, err := pricing.NewEngine(pricing.Default(), pricing.NewSystemNoise(7))
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}

	cfg := eng.Config()
	day := d(t, "2026-01-01")
	for i := 0; i <= 90; i++ {
		quote, err := eng.Quote(pricing.QuoteRequest{Date: day})
		if err != nil {
			t.Fatalf("quote failed on %s: %v", day, err)
		}
		if quote.Optimized.LessThan(cfg.MinRate) || quote.Optimized.GreaterThan(cfg.MaxRate) {
			t.Fatalf("rate %v on %s escaped [%v, %v]", quote.Optimized, day, cfg.MinRate, cfg.MaxRate)
		}
		day = day.AddDays(1)
	}
}

// =============================================================================
// INPUT CONTRACT
// =============================================================================

func TestQuote_RejectsOutOfRangeInputs(t *testing.T) {
	eng := newEngine(t, quietMarket())
	cases := []struct {
		name string
		req  pricing.QuoteRequest
	}{
		{"occupancy below zero", pricing.QuoteRequest{Date: d(t, "2026-08-07"), Occupancy: fp(-0.1)}},
		{"occupancy above one", pricing.QuoteRequest{Date: d(t, "2026-08-07"), Occupancy: fp(1.1)}},
		{"negative lead", pricing.QuoteRequest{Date: d(t, "2026-08-07"), LeadDays: ip(-1)}},
		{"zero date", pricing.QuoteRequest{}},
	}

	for _, tc := range cases {
		_, err := eng.Quote(tc.req)
		if err == nil {
			t.Errorf("%s: expected rejection", tc.name)
			continue
		}
		if !errors.Is(err, fiscal.ErrInvalidInput) {
			t.Errorf("%s: expected invalid-input classification, got %v", tc.name, err)
		}
	}
}

func TestQuote_DefaultsOccupancyAndLead(t *testing.T) {
	eng := newEngine(t, quietMarket())
	quote, err := eng.Quote(pricing.QuoteRequest{
		Date:      d(t, "2026-08-07"),
		Breakdown: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Breakdown.Occupancy.Level != 75.0 {
		t.Errorf("expected default occupancy 75%%, got %v", quote.Breakdown.Occupancy.Level)
	}
	if quote.Breakdown.Occupancy.Tier != "high" {
		t.Errorf("expected high tier for 0.75, got %q", quote.Breakdown.Occupancy.Tier)
	}
	if quote.Breakdown.LeadTime.Days != 0 || quote.Breakdown.LeadTime.Tier != "same_day" {
		t.Errorf("expected same-day lead default, got %+v", quote.Breakdown.LeadTime)
	}
}

// =============================================================================
// ELASTICITY AND RATE ADVICE
// =============================================================================

func TestEstimateOccupancy_DemandRespondsToPrice(t *testing.T) {
	cfg := quietMarket()

	// +75% rate with -0.3 elasticity: 0.75 * (1 + 0.75*-0.3) = 0.58125
	got := pricing.EstimateOccupancy(cfg, dec("330.75"))
	if math.Abs(got-0.58125) > 1e-9 {
		t.Errorf("expected estimated occupancy 0.58125, got %v", got)
	}

	// Floor binds for an already weak property quoting high.
	cfg.DefaultOccupancy = 0.25
	if got := pricing.EstimateOccupancy(cfg, dec("449.00")); got != cfg.OccupancyFloor {
		t.Errorf("expected floor %v, got %v", cfg.OccupancyFloor, got)
	}

	// Ceiling binds for a strong property quoting low.
	cfg.DefaultOccupancy = 0.97
	if got := pricing.EstimateOccupancy(cfg, dec("99.00")); got != cfg.OccupancyCeiling {
		t.Errorf("expected ceiling %v, got %v", cfg.OccupancyCeiling, got)
	}
}

func TestRateAction_DeadBandAroundLoadedRate(t *testing.T) {
	loaded := dec("100.00")
	cases := []struct {
		recommended string
		want        string
	}{
		{"102.01", pricing.ActionIncrease},
		{"102.00", pricing.ActionOK},
		{"100.00", pricing.ActionOK},
		{"98.00", pricing.ActionOK},
		{"97.99", pricing.ActionDecrease},
	}
	for _, tc := range cases {
		if got := pricing.RateAction(dec(tc.recommended), loaded); got != tc.want {
			t.Errorf("RateAction(%s, 100.00) = %s, want %s", tc.recommended, got, tc.want)
		}
	}
}

// =============================================================================
// MARKET ANALYSIS
// =============================================================================

func TestAnalyzeMarket_PositionAndRank(t *testing.T) {
	rates := []pricing.CompetitorRate{
		{Name: "Marriott Downtown", Rate: dec("238.80")},
		{Name: "Hilton Chicago", Rate: dec("250.80")},
		{Name: "Hyatt Regency", Rate: dec("234.00")},
		{Name: "Palmer House", Rate: dec("222.00")},
	}

	pos := pricing.AnalyzeMarket(dec("250.00"), rates, nil)

	if !pos.Average.Equal(dec("236.40")) {
		t.Errorf("expected average 236.40, got %v", pos.Average)
	}
	if !pos.Spread.Equal(dec("28.80")) {
		t.Errorf("expected spread 28.80, got %v", pos.Spread)
	}
	if pos.Rank != 2 {
		t.Errorf("expected rank 2 (only Hilton above), got %d", pos.Rank)
	}
	if pos.Positioning != "premium" {
		t.Errorf("expected premium positioning, got %q", pos.Positioning)
	}
	if !pos.VsAverage.Equal(dec("13.60")) {
		t.Errorf("expected +13.60 vs average, got %v", pos.VsAverage)
	}
	if pos.VsAveragePct != 5.8 {
		t.Errorf("expected +5.8%% vs average, got %v", pos.VsAveragePct)
	}
	if len(pos.Recommendations) != 1 || pos.Recommendations[0] != "Rate well-positioned within market range" {
		t.Errorf("unexpected recommendations %v", pos.Recommendations)
	}
}

func TestAnalyzeMarket_EventAddsSurgeNote(t *testing.T) {
	rates := []pricing.CompetitorRate{{Name: "Solo", Rate: dec("200.00")}}
	ev := &pricing.Event{Name: "Chicago Marathon", Impact: 0.40, Type: "sports"}

	pos := pricing.AnalyzeMarket(dec("500.00"), rates, ev)

	if len(pos.Recommendations) != 2 {
		t.Fatalf("expected two recommendations, got %v", pos.Recommendations)
	}
	if pos.Recommendations[0] != "Rate significantly above market - consider reducing to maintain competitiveness" {
		t.Errorf("unexpected first recommendation %q", pos.Recommendations[0])
	}
	if pos.Recommendations[1] != "Event 'Chicago Marathon' - ensure rate captures demand surge" {
		t.Errorf("unexpected event recommendation %q", pos.Recommendations[1])
	}
}
