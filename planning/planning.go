/*
planning.go - Corporate Planning Ledger Client

PURPOSE:
Defines the planning ledger surface the engine talks to: loading
monthly forecast records into a POV-addressed grid and fetching booked
actuals back out. Oracle Planning Cloud (EPBCS) is the live
implementation; an in-memory mock with scenario buckets covers demo
and test runs.

KEY CONCEPTS:
- POV addressing. Every cell lives at a point of view: eight ordered
  dimensions (Entity, Scenario, Years, Version, Currency, Future1,
  CostCenter, Region) plus the Account and Period axes of the grid.
- Load methods. REPLACE clears the target scenario before writing;
  ACCUMULATE adds onto whatever is already stored. Both clients honor
  the same contract.
- Collaborator errors. Live failures surface as collaborator errors
  carrying the service and operation, same as the PMS client.

USAGE:
    client := planning.New(cfg, logger)
    result, err := client.LoadRecords(ctx, records, planning.Replace)

SEE ALSO:
- cloud.go: live Planning Cloud client (basic auth, breaker, grid wire)
- mock.go: in-memory scenario buckets with a sequential job log
*/
package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// LoadMethod selects how a load lands on existing cells.
type LoadMethod string

const (
	Replace    LoadMethod = "REPLACE"
	Accumulate LoadMethod = "ACCUMULATE"
)

// ParseLoadMethod reads a load method from user input. Empty input
// means REPLACE.
func ParseLoadMethod(s string) (LoadMethod, error) {
	switch LoadMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return Replace, nil
	case Replace:
		return Replace, nil
	case Accumulate:
		return Accumulate, nil
	default:
		return "", &fiscal.InputError{Field: "load_method", Value: s, Reason: "must be REPLACE or ACCUMULATE"}
	}
}

func (m LoadMethod) valid() bool {
	return m == Replace || m == Accumulate
}

// Dimension defaults applied when a record or POV leaves them empty.
const (
	DefaultEntity     = "E501"
	DefaultYears      = "FY25"
	DefaultVersion    = "Final"
	DefaultCurrency   = "USD"
	DefaultFuture1    = "No Future1"
	DefaultCostCenter = "CC1121"
	DefaultRegion     = "R131"
	DefaultPeriod     = "Jan"
)

// Record is one grid cell: the eight POV dimensions plus the Account
// and Period axes and the amount stored at their intersection.
type Record struct {
	Entity     string
	Scenario   string
	Years      string
	Version    string
	Currency   string
	Future1    string
	CostCenter string
	Region     string
	Period     string
	Account    string
	Amount     decimal.Decimal
}

// POV is the fixed point of view for one grid operation. Zero-value
// dimensions fall back to the defaults above; the scenario default
// depends on the operation (Forecast for loads, Actual for fetches).
type POV struct {
	Entity     string
	Scenario   string
	Years      string
	Version    string
	Currency   string
	Future1    string
	CostCenter string
	Region     string
	Period     string
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (p POV) withDefaults(scenario string) POV {
	p.Entity = fallback(p.Entity, DefaultEntity)
	p.Scenario = fallback(p.Scenario, scenario)
	p.Years = fallback(p.Years, DefaultYears)
	p.Version = fallback(p.Version, DefaultVersion)
	p.Currency = fallback(p.Currency, DefaultCurrency)
	p.Future1 = fallback(p.Future1, DefaultFuture1)
	p.CostCenter = fallback(p.CostCenter, DefaultCostCenter)
	p.Region = fallback(p.Region, DefaultRegion)
	p.Period = fallback(p.Period, DefaultPeriod)
	return p
}

// array renders the POV in the wire order the grid APIs expect.
func (p POV) array() []string {
	return []string{
		p.Entity, p.Scenario, p.Years, p.Version,
		p.Currency, p.Future1, p.CostCenter, p.Region,
	}
}

func povFromRecord(r Record) POV {
	return POV{
		Entity:     r.Entity,
		Scenario:   r.Scenario,
		Years:      r.Years,
		Version:    r.Version,
		Currency:   r.Currency,
		Future1:    r.Future1,
		CostCenter: r.CostCenter,
		Region:     r.Region,
	}
}

// LoadResult summarizes one completed load.
type LoadResult struct {
	Status        string
	JobID         string
	RecordsLoaded int
	Accounts      int
	Periods       []string
	Message       string
}

// StatusCompleted is the terminal status of a successful load.
const StatusCompleted = "COMPLETED"

// Client is the planning ledger operations the engine needs.
// Implementations must be safe for concurrent use.
type Client interface {
	// LoadRecords writes the records into the ledger grid. The POV is
	// taken from the first record; all records should share one.
	LoadRecords(ctx context.Context, records []Record, method LoadMethod) (LoadResult, error)

	// Actuals reads the stored amounts for the given accounts at the
	// POV. The scenario defaults to Actual.
	Actuals(ctx context.Context, pov POV, accounts []string) ([]Record, error)
}

func validateLoad(records []Record, method LoadMethod) error {
	if len(records) == 0 {
		return &fiscal.InputError{Field: "records", Value: "empty", Reason: "at least one record required"}
	}
	if !method.valid() {
		return &fiscal.InputError{Field: "load_method", Value: string(method), Reason: "must be REPLACE or ACCUMULATE"}
	}
	return nil
}

// Config carries the Planning Cloud connection settings. Leaving URL,
// Username or Password empty selects the mock client.
type Config struct {
	URL         string
	Username    string
	Password    string
	Application string

	Timeout time.Duration
}

// Live reports whether the config points at a real Planning deployment.
func (c Config) Live() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

// New picks the live Planning Cloud client when configured and the
// mock otherwise.
func New(cfg Config, logger zerolog.Logger) Client {
	if cfg.Live() {
		return NewCloudClient(cfg, logger)
	}
	logger.Info().Str("application", cfg.Application).Msg("planning not configured, using mock client")
	return NewMock(cfg.Application)
}

func collaborator(op string, err error) error {
	return &fiscal.CollaboratorError{Service: "planning", Op: op, Err: err}
}

func loadMessage(n int, target string) string {
	return fmt.Sprintf("loaded %d records to %s", n, target)
}
