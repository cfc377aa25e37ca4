package planning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/warp/cashflow-engine/fiscal"
)

const (
	apiRoot         = "/HyperionPlanning/rest/v3/applications/"
	planTypeFinPlan = "FinPlan"
)

// CloudClient talks to Oracle Planning Cloud over its REST grid APIs.
// Requests authenticate with basic credentials and ride a circuit
// breaker.
type CloudClient struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	auth    string
	log     zerolog.Logger
}

var _ Client = (*CloudClient)(nil)

// NewCloudClient readies a live client. Timeout defaults to 30s; grid
// loads are slower than point reads.
func NewCloudClient(cfg Config, logger zerolog.Logger) *CloudClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	logger = logger.With().Str("component", "planning").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "planning",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("planning circuit state changed")
		},
	})

	return &CloudClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password)),
		log:     logger,
	}
}

// === WIRE TYPES ===

type wireDataRow struct {
	Headers []string  `json:"headers"`
	Data    []float64 `json:"data"`
}

type wireImportGrid struct {
	POV     []string      `json:"pov"`
	Columns [][]string    `json:"columns"`
	Rows    []wireDataRow `json:"rows"`
}

type wireImport struct {
	AggregateEssbaseData bool           `json:"aggregateEssbaseData"`
	CellNotesOption      string         `json:"cellNotesOption"`
	DataGrid             wireImportGrid `json:"dataGrid"`
}

type wireExportGrid struct {
	POV     []string   `json:"pov"`
	Columns [][]string `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type wireExport struct {
	ExportPlanningData bool           `json:"exportPlanningData"`
	GridDefinition     wireExportGrid `json:"gridDefinition"`
}

type wireCellRow struct {
	Headers []string          `json:"headers"`
	Data    []json.RawMessage `json:"data"`
}

// gridAxes returns the distinct accounts and periods across the
// records, each sorted.
func gridAxes(records []Record) (accounts, periods []string) {
	accountSet := map[string]bool{}
	periodSet := map[string]bool{}
	for _, r := range records {
		accountSet[r.Account] = true
		periodSet[r.Period] = true
	}
	for a := range accountSet {
		accounts = append(accounts, a)
	}
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Strings(accounts)
	sort.Strings(periods)
	return accounts, periods
}

// buildImportGrid lays the records out as the import API wants them:
// accounts across the columns, one row per period, the POV from the
// first record. Duplicate cells keep the first amount seen.
func buildImportGrid(records []Record) (wireImportGrid, []string) {
	accounts, periods := gridAxes(records)

	cells := map[string]decimal.Decimal{}
	for _, r := range records {
		key := r.Period + "|" + r.Account
		if _, ok := cells[key]; !ok {
			cells[key] = r.Amount
		}
	}

	rows := make([]wireDataRow, 0, len(periods))
	for _, period := range periods {
		data := make([]float64, len(accounts))
		for i, account := range accounts {
			if amount, ok := cells[period+"|"+account]; ok {
				data[i], _ = amount.Float64()
			}
		}
		rows = append(rows, wireDataRow{Headers: []string{period}, Data: data})
	}

	pov := povFromRecord(records[0]).withDefaults("Forecast")
	return wireImportGrid{
		POV:     pov.array(),
		Columns: [][]string{accounts},
		Rows:    rows,
	}, periods
}

// parseCell reads one grid cell, which the API serves as a number, a
// quoted string, or an empty placeholder.
func parseCell(raw json.RawMessage) (decimal.Decimal, error) {
	cell := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if cell == "" || cell == "null" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cell)
}

// === TRANSPORT ===

func (c *CloudClient) send(req *http.Request) ([]byte, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *CloudClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.auth)

	raw, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// === OPERATIONS ===

// LoadRecords imports the records through the data slice API.
func (c *CloudClient) LoadRecords(ctx context.Context, records []Record, method LoadMethod) (LoadResult, error) {
	if err := validateLoad(records, method); err != nil {
		return LoadResult{}, err
	}

	grid, periods := buildImportGrid(records)
	payload := wireImport{
		AggregateEssbaseData: method == Accumulate,
		CellNotesOption:      "Overwrite",
		DataGrid:             grid,
	}

	target := c.cfg.Application + "/" + planTypeFinPlan
	path := apiRoot + c.cfg.Application + "/plantypes/" + planTypeFinPlan + "/importdataslice"
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return LoadResult{}, collaborator("load_records", err)
	}

	c.log.Info().
		Int("records", len(records)).
		Strs("periods", periods).
		Str("method", string(method)).
		Msg("planning load completed")

	return LoadResult{
		Status:        StatusCompleted,
		RecordsLoaded: len(records),
		Accounts:      len(grid.Columns[0]),
		Periods:       periods,
		Message:       loadMessage(len(records), target),
	}, nil
}

// Actuals exports the stored amounts for the accounts at the POV.
func (c *CloudClient) Actuals(ctx context.Context, pov POV, accounts []string) ([]Record, error) {
	if len(accounts) == 0 {
		return nil, &fiscal.InputError{Field: "accounts", Value: "empty", Reason: "at least one account required"}
	}
	pov = pov.withDefaults("Actual")

	payload := wireExport{
		ExportPlanningData: false,
		GridDefinition: wireExportGrid{
			POV:     pov.array(),
			Columns: [][]string{accounts},
			Rows:    [][]string{{pov.Period}},
		},
	}

	var out struct {
		Rows []wireCellRow `json:"rows"`
	}
	path := apiRoot + c.cfg.Application + "/plantypes/" + planTypeFinPlan + "/exportdataslice"
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, collaborator("actuals", err)
	}

	records := make([]Record, 0, len(out.Rows))
	for _, row := range out.Rows {
		if len(row.Headers) == 0 {
			continue
		}
		amount := decimal.Zero
		if len(row.Data) > 0 {
			parsed, err := parseCell(row.Data[0])
			if err != nil {
				return nil, collaborator("actuals", fmt.Errorf("bad cell for %s: %w", row.Headers[0], err))
			}
			amount = parsed
		}
		records = append(records, Record{
			Entity:     pov.Entity,
			Scenario:   pov.Scenario,
			Years:      pov.Years,
			Version:    pov.Version,
			Currency:   pov.Currency,
			Future1:    pov.Future1,
			CostCenter: pov.CostCenter,
			Region:     pov.Region,
			Period:     pov.Period,
			Account:    row.Headers[0],
			Amount:     amount,
		})
	}
	return records, nil
}
