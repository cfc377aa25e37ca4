/*
pms.go - Property Management System Client

PURPOSE:
Defines the property management system (PMS) surface the engine talks
to: reading current room rates, pushing optimized rates back, and
reading inventory and occupancy. Oracle Opera Cloud is the live
implementation; a deterministic in-memory mock covers demo and test
runs.

KEY CONCEPTS:
- One interface, two clients. Handlers and commands depend on Client
  only; the factory picks Opera when a base URL and OAuth client are
  configured and the mock otherwise, so a unit runs identically with
  or without a reachable PMS.
- Collaborator errors. Every live failure surfaces as a collaborator
  error carrying the service and operation, so transport problems map
  to 502s instead of masquerading as bad requests.

USAGE:
    client := pms.New(cfg, rooms, noise, logger)
    rates, err := client.CurrentRates(ctx, window, pms.DefaultRateCode)

SEE ALSO:
- opera.go: live Opera Cloud client (OAuth, breaker, rate limit)
- mock.go: in-memory stand-in with day-of-week default rates
*/
package pms

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pricing"
)

// Defaults applied when a rate update leaves fields empty.
const (
	DefaultRateCode = "BAR"
	DefaultRoomType = "STD"
	DefaultCurrency = "USD"
)

// RateRecord is one night's published rate as the PMS reports it.
type RateRecord struct {
	Date         fiscal.Date
	RatePlanCode string
	RoomType     string
	Amount       decimal.Decimal
	Currency     string
}

// RateUpdate is one night's rate push. Zero-value code, room type and
// currency fall back to the defaults above.
type RateUpdate struct {
	Date     fiscal.Date
	RateCode string
	RoomType string
	Amount   decimal.Decimal
	Currency string
}

func (u RateUpdate) withDefaults() RateUpdate {
	if u.RateCode == "" {
		u.RateCode = DefaultRateCode
	}
	if u.RoomType == "" {
		u.RoomType = DefaultRoomType
	}
	if u.Currency == "" {
		u.Currency = DefaultCurrency
	}
	return u
}

func (u RateUpdate) validate() error {
	if u.Date.IsZero() {
		return &fiscal.InputError{Field: "date", Value: "zero", Reason: "must be a valid calendar date"}
	}
	if !u.Amount.IsPositive() {
		return &fiscal.InputError{Field: "amount", Value: u.Amount.String(), Reason: "must be positive"}
	}
	return nil
}

// UpdateDetail reports the outcome of one update inside a bulk push.
type UpdateDetail struct {
	Date    fiscal.Date
	Amount  decimal.Decimal
	Success bool
}

// BulkResult summarizes a bulk rate push.
type BulkResult struct {
	Total     int
	Succeeded int
	Failed    int
	Details   []UpdateDetail
}

// InventoryDay is one day of room availability.
type InventoryDay struct {
	Date         fiscal.Date
	TotalRooms   int
	Available    int
	Occupied     int
	OccupancyPct float64
}

// RateCode describes one rate plan the PMS sells.
type RateCode struct {
	Code        string
	Name        string
	Description string
}

// Client is the PMS operations the engine needs. Implementations must
// be safe for concurrent use.
type Client interface {
	CurrentRates(ctx context.Context, window fiscal.DateRange, rateCode string) ([]RateRecord, error)
	UpdateRate(ctx context.Context, update RateUpdate) error
	BulkUpdateRates(ctx context.Context, updates []RateUpdate) (BulkResult, error)
	Inventory(ctx context.Context, window fiscal.DateRange) ([]InventoryDay, error)
	Occupancy(ctx context.Context, date fiscal.Date) (float64, error)
	RateCodes(ctx context.Context) ([]RateCode, error)
}

// Config carries the Opera Cloud connection settings. Leaving URL or
// ClientID empty selects the mock client.
type Config struct {
	URL          string
	Username     string
	Password     string
	HotelID      string
	ClientID     string
	ClientSecret string

	Timeout           time.Duration
	RequestsPerSecond float64
}

// Live reports whether the config points at a real Opera deployment.
func (c Config) Live() bool {
	return c.URL != "" && c.ClientID != ""
}

// New picks the live Opera client when configured and the mock
// otherwise. rooms and noise only drive the mock's inventory answers.
func New(cfg Config, rooms int, noise pricing.Noise, logger zerolog.Logger) Client {
	if cfg.Live() {
		return NewOperaClient(cfg, logger)
	}
	logger.Info().Str("hotel_id", cfg.HotelID).Msg("opera not configured, using mock PMS client")
	return NewMock(cfg.HotelID, rooms, noise)
}
