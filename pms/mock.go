package pms

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// MockClient is the in-memory PMS used when Opera is not configured.
// Unpushed nights price at the published base rate with a weekend
// lift; pushed rates are remembered per date and rate plan.
type MockClient struct {
	hotelID string
	rooms   int
	noise   pricing.Noise

	mu    sync.Mutex
	rates map[string]decimal.Decimal
}

var _ Client = (*MockClient)(nil)

// NewMock builds a mock PMS for the given property size. A nil noise
// falls back to a system-seeded source.
func NewMock(hotelID string, rooms int, noise pricing.Noise) *MockClient {
	if hotelID == "" {
		hotelID = "CHICAGOL7"
	}
	if rooms <= 0 {
		rooms = 250
	}
	if noise == nil {
		noise = pricing.NewSystemNoise(0)
	}
	return &MockClient{
		hotelID: hotelID,
		rooms:   rooms,
		noise:   noise,
		rates:   make(map[string]decimal.Decimal),
	}
}

func rateKey(date fiscal.Date, code string) string {
	return date.String() + "_" + code
}

// defaultMockRate lifts Friday through Sunday nights 20% over the
// published 189.00 base.
func defaultMockRate(date fiscal.Date) decimal.Decimal {
	base := fiscal.MustDecimal("189.00")
	switch date.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return fiscal.Round2(base.Mul(fiscal.MustDecimal("1.20")))
	default:
		return base
	}
}

func (m *MockClient) CurrentRates(ctx context.Context, window fiscal.DateRange, rateCode string) ([]RateRecord, error) {
	if err := window.Validate(0); err != nil {
		return nil, err
	}
	if rateCode == "" {
		rateCode = DefaultRateCode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var records []RateRecord
	for day := window.Start; day.BeforeOrEqual(window.End); day = day.AddDays(1) {
		amount, ok := m.rates[rateKey(day, rateCode)]
		if !ok {
			amount = defaultMockRate(day)
		}
		records = append(records, RateRecord{
			Date:         day,
			RatePlanCode: rateCode,
			RoomType:     DefaultRoomType,
			Amount:       amount,
			Currency:     DefaultCurrency,
		})
	}
	return records, nil
}

func (m *MockClient) UpdateRate(ctx context.Context, update RateUpdate) error {
	update = update.withDefaults()
	if err := update.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rateKey(update.Date, update.RateCode)] = fiscal.Round2(update.Amount)
	return nil
}

func (m *MockClient) BulkUpdateRates(ctx context.Context, updates []RateUpdate) (BulkResult, error) {
	result := BulkResult{Total: len(updates)}

	for _, update := range updates {
		err := m.UpdateRate(ctx, update)
		if err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Details = append(result.Details, UpdateDetail{
			Date:    update.Date,
			Amount:  update.Amount,
			Success: err == nil,
		})
	}
	return result, nil
}

func (m *MockClient) Inventory(ctx context.Context, window fiscal.DateRange) ([]InventoryDay, error) {
	if err := window.Validate(0); err != nil {
		return nil, err
	}

	var days []InventoryDay
	for day := window.Start; day.BeforeOrEqual(window.End); day = day.AddDays(1) {
		occupancy := m.noise.Uniform(0.65, 0.90)
		available := int(float64(m.rooms) * (1 - occupancy))
		days = append(days, InventoryDay{
			Date:         day,
			TotalRooms:   m.rooms,
			Available:    available,
			Occupied:     m.rooms - available,
			OccupancyPct: math.Round(occupancy*1000) / 10,
		})
	}
	return days, nil
}

func (m *MockClient) Occupancy(ctx context.Context, date fiscal.Date) (float64, error) {
	if date.IsZero() {
		return 0, &fiscal.InputError{Field: "date", Value: "zero", Reason: "must be a valid calendar date"}
	}
	return m.noise.Uniform(0.65, 0.90), nil
}

func (m *MockClient) RateCodes(ctx context.Context) ([]RateCode, error) {
	return []RateCode{
		{Code: "BAR", Name: "Best Available Rate", Description: "Dynamic pricing rate"},
		{Code: "RACK", Name: "Rack Rate", Description: "Standard published rate"},
		{Code: "CORP", Name: "Corporate Rate", Description: "Negotiated corporate rate"},
		{Code: "AAA", Name: "AAA Rate", Description: "AAA member discount"},
		{Code: "GOVT", Name: "Government Rate", Description: "Government per diem rate"},
	}, nil
}
