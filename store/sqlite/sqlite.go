/*
Package sqlite persists the engine's audit trail.

PURPOSE:
  Keeps durable history around the pure projection core: forecast runs
  served, recorded daily actuals, rate pushes to the property system
  and ledger sync jobs. The projection itself never reads this store;
  the API's history and actuals endpoints do.

KEY TABLES:
  forecast_runs:  One row per projection served (window, totals, id)
  actuals:        Recorded amounts per day and account, upserted
  rate_pushes:    Per-night outcomes of PMS rate syncs, batched
  planning_syncs: Ledger load jobs with method, periods and job id

MONEY AS TEXT:
  Amounts are stored as decimal strings, never floats. A stored
  "47840.63" scans back to the identical decimal.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  run, err := store.SaveRun(ctx, run)

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.

SEE ALSO:
  - cashflow/generator.go: the projections these runs record
  - api/handlers.go: history and actuals endpoints
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/fiscal"
)

// Store implements the audit persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Forecast runs (one row per projection served)
	CREATE TABLE IF NOT EXISTS forecast_runs (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		dynamic BOOLEAN DEFAULT FALSE,
		days INTEGER NOT NULL,
		days_below_minimum INTEGER DEFAULT 0,
		opening_balance TEXT NOT NULL,
		closing_balance TEXT NOT NULL,
		total_inflows TEXT NOT NULL,
		total_outflows TEXT NOT NULL,
		net_change TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created
		ON forecast_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_window
		ON forecast_runs(start_date, end_date);

	-- Recorded actuals, one row per day and account. Re-recording a
	-- day overwrites in place; history lives upstream in the ledger.
	CREATE TABLE IF NOT EXISTS actuals (
		date TEXT NOT NULL,
		account TEXT NOT NULL,
		amount TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'manual',
		created_at TEXT NOT NULL,
		PRIMARY KEY (date, account)
	);

	CREATE INDEX IF NOT EXISTS idx_actuals_date
		ON actuals(date);

	-- Rate pushes, one row per night inside a sync batch
	CREATE TABLE IF NOT EXISTS rate_pushes (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		night TEXT NOT NULL,
		amount TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_pushes_batch
		ON rate_pushes(batch_id);
	CREATE INDEX IF NOT EXISTS idx_rate_pushes_night
		ON rate_pushes(night);

	-- Planning ledger sync jobs
	CREATE TABLE IF NOT EXISTS planning_syncs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		method TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		periods TEXT NOT NULL,
		records INTEGER NOT NULL,
		job_id TEXT,
		message TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planning_syncs_created
		ON planning_syncs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FORECAST RUNS
// =============================================================================

// ForecastRun is the audit record of one served projection.
type ForecastRun struct {
	ID             string
	Window         fiscal.DateRange
	Dynamic        bool
	Days           int
	DaysBelow      int
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalInflows   decimal.Decimal
	TotalOutflows  decimal.Decimal
	NetChange      decimal.Decimal
	CreatedAt      time.Time
}

// SaveRun stores a run, assigning an id and timestamp when absent, and
// returns the stored record.
func (s *Store) SaveRun(ctx context.Context, run ForecastRun) (ForecastRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO forecast_runs
		(id, start_date, end_date, dynamic, days, days_below_minimum,
		 opening_balance, closing_balance, total_inflows, total_outflows, net_change, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Window.Start.String(),
		run.Window.End.String(),
		run.Dynamic,
		run.Days,
		run.DaysBelow,
		run.OpeningBalance.String(),
		run.ClosingBalance.String(),
		run.TotalInflows.String(),
		run.TotalOutflows.String(),
		run.NetChange.String(),
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return ForecastRun{}, fmt.Errorf("failed to save forecast run: %w", err)
	}
	return run, nil
}

// GetRun retrieves one run by id. Returns nil when not found.
func (s *Store) GetRun(ctx context.Context, id string) (*ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs, err := s.queryRuns(ctx, `
		SELECT id, start_date, end_date, dynamic, days, days_below_minimum,
		       opening_balance, closing_balance, total_inflows, total_outflows, net_change, created_at
		FROM forecast_runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	return s.queryRuns(ctx, `
		SELECT id, start_date, end_date, dynamic, days, days_below_minimum,
		       opening_balance, closing_balance, total_inflows, total_outflows, net_change, created_at
		FROM forecast_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]ForecastRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast runs: %w", err)
	}
	defer rows.Close()

	var runs []ForecastRun
	for rows.Next() {
		var (
			run                                   ForecastRun
			start, end                            string
			opening, closing, in, out, net, stamp string
		)
		if err := rows.Scan(
			&run.ID, &start, &end, &run.Dynamic, &run.Days, &run.DaysBelow,
			&opening, &closing, &in, &out, &net, &stamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan forecast run: %w", err)
		}

		run.Window.Start, _ = fiscal.ParseDate(start)
		run.Window.End, _ = fiscal.ParseDate(end)
		run.OpeningBalance = fiscal.MustDecimal(opening)
		run.ClosingBalance = fiscal.MustDecimal(closing)
		run.TotalInflows = fiscal.MustDecimal(in)
		run.TotalOutflows = fiscal.MustDecimal(out)
		run.NetChange = fiscal.MustDecimal(net)
		run.CreatedAt, _ = time.Parse(time.RFC3339, stamp)

		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// ACTUALS
// =============================================================================

// ActualRow is one recorded amount for a day and account.
type ActualRow struct {
	Date    fiscal.Date
	Account string
	Amount  decimal.Decimal
	Source  string
}

// ActualsDay is everything recorded for one date, with the amounts
// classified against the chart of accounts.
type ActualsDay struct {
	Date          fiscal.Date
	Rows          []ActualRow
	TotalInflows  decimal.Decimal
	TotalOutflows decimal.Decimal
}

// UpsertActuals records the rows, overwriting any amount already
// recorded for the same day and account.
func (s *Store) UpsertActuals(ctx context.Context, rows []ActualRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO actuals (date, account, amount, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, account) DO UPDATE SET
			amount = excluded.amount,
			source = excluded.source,
			created_at = excluded.created_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, row := range rows {
		if row.Date.IsZero() {
			return &fiscal.InputError{Field: "date", Value: "zero", Reason: "must be a valid calendar date"}
		}
		if row.Account == "" {
			return &fiscal.InputError{Field: "account", Value: "empty", Reason: "account code required"}
		}
		source := row.Source
		if source == "" {
			source = "manual"
		}
		if _, err := tx.ExecContext(ctx, query,
			row.Date.String(), row.Account, row.Amount.String(), source, now,
		); err != nil {
			return fmt.Errorf("failed to upsert actuals: %w", err)
		}
	}

	return tx.Commit()
}

// ActualsOn returns the recorded rows for a date with inflow and
// outflow totals split by the chart of accounts. Returns nil when
// nothing is recorded.
func (s *Store) ActualsOn(ctx context.Context, date fiscal.Date) (*ActualsDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, account, amount, source FROM actuals WHERE date = ? ORDER BY account",
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query actuals: %w", err)
	}
	defer rows.Close()

	day := &ActualsDay{Date: date, TotalInflows: decimal.Zero, TotalOutflows: decimal.Zero}
	for rows.Next() {
		var row ActualRow
		var dateStr, amount string
		if err := rows.Scan(&dateStr, &row.Account, &amount, &row.Source); err != nil {
			return nil, fmt.Errorf("failed to scan actuals row: %w", err)
		}
		row.Date, _ = fiscal.ParseDate(dateStr)
		row.Amount = fiscal.MustDecimal(amount)

		switch {
		case cashflow.IsInflowAccount(row.Account):
			day.TotalInflows = day.TotalInflows.Add(row.Amount)
		case cashflow.IsOutflowAccount(row.Account):
			day.TotalOutflows = day.TotalOutflows.Add(row.Amount.Abs())
		}
		day.Rows = append(day.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(day.Rows) == 0 {
		return nil, nil
	}
	return day, nil
}

// HasActuals reports whether anything is recorded for the date.
func (s *Store) HasActuals(ctx context.Context, date fiscal.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM actuals WHERE date = ?", date.String(),
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// RATE PUSHES
// =============================================================================

// RatePush is one night's outcome inside a sync batch.
type RatePush struct {
	ID        string
	BatchID   string
	Night     fiscal.Date
	Amount    decimal.Decimal
	Success   bool
	CreatedAt time.Time
}

// SaveRatePushes stores a batch of per-night outcomes atomically under
// one batch id and returns it.
func (s *Store) SaveRatePushes(ctx context.Context, pushes []RatePush) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batchID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rate_pushes (id, batch_id, night, amount, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, push := range pushes {
		if _, err := tx.ExecContext(ctx, query,
			uuid.NewString(), batchID, push.Night.String(),
			push.Amount.String(), push.Success, now,
		); err != nil {
			return "", fmt.Errorf("failed to save rate push: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// ListRatePushes returns the most recent pushes, newest first.
func (s *Store) ListRatePushes(ctx context.Context, limit int) ([]RatePush, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, night, amount, success, created_at
		FROM rate_pushes
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate pushes: %w", err)
	}
	defer rows.Close()

	var pushes []RatePush
	for rows.Next() {
		var push RatePush
		var night, amount, stamp string
		if err := rows.Scan(&push.ID, &push.BatchID, &night, &amount, &push.Success, &stamp); err != nil {
			return nil, fmt.Errorf("failed to scan rate push: %w", err)
		}
		push.Night, _ = fiscal.ParseDate(night)
		push.Amount = fiscal.MustDecimal(amount)
		push.CreatedAt, _ = time.Parse(time.RFC3339, stamp)
		pushes = append(pushes, push)
	}
	return pushes, rows.Err()
}

// =============================================================================
// PLANNING SYNCS
// =============================================================================

// PlanningSync is the audit record of one ledger load job.
type PlanningSync struct {
	ID        string
	Scenario  string
	Method    string
	Window    fiscal.DateRange
	Periods   []string
	Records   int
	JobID     string
	Message   string
	CreatedAt time.Time
}

// SavePlanningSync stores a sync job, assigning an id and timestamp
// when absent, and returns the stored record.
func (s *Store) SavePlanningSync(ctx context.Context, job PlanningSync) (PlanningSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO planning_syncs
		(id, scenario, method, start_date, end_date, periods, records, job_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Scenario,
		job.Method,
		job.Window.Start.String(),
		job.Window.End.String(),
		strings.Join(job.Periods, ","),
		job.Records,
		job.JobID,
		job.Message,
		job.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return PlanningSync{}, fmt.Errorf("failed to save planning sync: %w", err)
	}
	return job, nil
}

// ListPlanningSyncs returns the most recent sync jobs, newest first.
func (s *Store) ListPlanningSyncs(ctx context.Context, limit int) ([]PlanningSync, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, method, start_date, end_date, periods, records, job_id, message, created_at
		FROM planning_syncs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query planning syncs: %w", err)
	}
	defer rows.Close()

	var syncs []PlanningSync
	for rows.Next() {
		var (
			job                 PlanningSync
			start, end, periods string
			jobID, message      sql.NullString
			stamp               string
		)
		if err := rows.Scan(
			&job.ID, &job.Scenario, &job.Method, &start, &end,
			&periods, &job.Records, &jobID, &message, &stamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan planning sync: %w", err)
		}
		job.Window.Start, _ = fiscal.ParseDate(start)
		job.Window.End, _ = fiscal.ParseDate(end)
		if periods != "" {
			job.Periods = strings.Split(periods, ",")
		}
		job.JobID = jobID.String
		job.Message = message.String
		job.CreatedAt, _ = time.Parse(time.RFC3339, stamp)
		syncs = append(syncs, job)
	}
	return syncs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"forecast_runs", "actuals", "rate_pushes", "planning_syncs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
