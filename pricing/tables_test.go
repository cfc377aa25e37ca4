package pricing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

func TestOccupancyTiers_PartitionWithInclusiveUpperBounds(t *testing.T) {
	tiers := pricing.DefaultOccupancyTiers()
	cases := []struct {
		occupancy float64
		want      string
	}{
		{0.0, "critical_low"},
		{0.30, "critical_low"},
		{0.31, "low"},
		{0.50, "low"},
		{0.51, "moderate"},
		{0.70, "moderate"},
		{0.71, "high"},
		{0.85, "high"},
		{0.86, "very_high"},
		{0.95, "very_high"},
		{0.96, "sold_out"},
		{1.0, "sold_out"},
	}
	for _, tc := range cases {
		if got := tiers.Pick(tc.occupancy).Name; got != tc.want {
			t.Errorf("Pick(%.2f) = %q, want %q", tc.occupancy, got, tc.want)
		}
	}
}

func TestLeadTiers_FinalTierCatchesEverythingAbove(t *testing.T) {
	tiers := pricing.DefaultLeadTiers()
	cases := []struct {
		days int
		want string
	}{
		{0, "same_day"},
		{1, "last_minute"},
		{3, "last_minute"},
		{7, "short"},
		{14, "standard"},
		{30, "advance"},
		{60, "early_bird"},
		{365, "far_advance"},
		{366, "far_advance"},
		{1000, "far_advance"},
	}
	for _, tc := range cases {
		if got := tiers.Pick(float64(tc.days)).Name; got != tc.want {
			t.Errorf("Pick(%d) = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestTierTable_ValidateRejectsMalformedTables(t *testing.T) {
	cases := []struct {
		name  string
		table pricing.TierTable
	}{
		{"empty table", pricing.TierTable{}},
		{"unnamed tier", pricing.TierTable{{Name: "", Threshold: 0.5, Adjustment: 0}}},
		{"non-increasing thresholds", pricing.TierTable{
			{Name: "a", Threshold: 0.5, Adjustment: 0},
			{Name: "b", Threshold: 0.5, Adjustment: 0.1},
		}},
	}
	for _, tc := range cases {
		err := tc.table.Validate("test_table")
		if err == nil {
			t.Errorf("%s: expected rejection", tc.name)
			continue
		}
		if !errors.Is(err, fiscal.ErrInvalidInput) {
			t.Errorf("%s: expected invalid-input classification, got %v", tc.name, err)
		}
	}
}

func TestDefaultCalendar_CoversEveryWeekdayAndMonth(t *testing.T) {
	cal := pricing.DefaultCalendar()
	if err := cal.Validate(); err != nil {
		t.Fatalf("default calendar invalid: %v", err)
	}
	if cal.DayOfWeek[time.Friday] != 0.20 {
		t.Errorf("expected Friday +0.20, got %v", cal.DayOfWeek[time.Friday])
	}
	if cal.Month[time.December] != 0.35 {
		t.Errorf("expected December +0.35, got %v", cal.Month[time.December])
	}
}

func TestEventCalendar_BetweenReturnsDateOrder(t *testing.T) {
	cal := pricing.DefaultEvents()
	window := fiscal.DateRange{Start: d(t, "2026-08-01"), End: d(t, "2026-08-10")}

	events := cal.Between(window)

	if len(events) != 4 {
		t.Fatalf("expected 4 festival days, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if !events[i-1].Date.Before(events[i].Date) {
			t.Errorf("events out of order: %s before %s", events[i-1].Date, events[i].Date)
		}
	}
	if events[0].Name != "Lollapalooza Day 1" {
		t.Errorf("unexpected first event %q", events[0].Name)
	}
}

func TestConfig_ValidateRejectsBrokenSetups(t *testing.T) {
	base := quietMarket()

	aboveMax := base.Clone()
	aboveMax.BaseRate = dec("500.00")
	if err := aboveMax.Validate(); err == nil {
		t.Error("expected rejection of base rate above ceiling")
	}

	noShops := base.Clone()
	noShops.Competitors = nil
	if err := noShops.Validate(); err == nil {
		t.Error("expected rejection of empty competitor set")
	}

	wrongWay := base.Clone()
	wrongWay.Elasticity = 0.3
	if err := wrongWay.Validate(); err == nil {
		t.Error("expected rejection of positive elasticity")
	}
}
