package sqlite_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(t *testing.T, s string) fiscal.Date {
	t.Helper()
	d, err := fiscal.ParseDate(s)
	require.NoError(t, err)
	return d
}

func span(t *testing.T, from, to string) fiscal.DateRange {
	t.Helper()
	return fiscal.DateRange{Start: day(t, from), End: day(t, to)}
}

// =============================================================================
// FORECAST RUN TESTS
// =============================================================================

func TestRuns_SaveAndList(t *testing.T) {
	// GIVEN: two saved runs
	// WHEN: reading them back
	// THEN: ids are assigned, amounts survive as exact decimals and
	//       the list comes back newest first

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, sqlite.ForecastRun{
		Window:         span(t, "2026-03-01", "2026-03-03"),
		Days:           3,
		DaysBelow:      1,
		OpeningBalance: fiscal.MustDecimal("350000.00"),
		ClosingBalance: fiscal.MustDecimal("458651.39"),
		TotalInflows:   fiscal.MustDecimal("143521.89"),
		TotalOutflows:  fiscal.MustDecimal("34870.50"),
		NetChange:      fiscal.MustDecimal("108651.39"),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "saved run should carry a uuid")
	assert.False(t, first.CreatedAt.IsZero())

	second, err := store.SaveRun(ctx, sqlite.ForecastRun{
		Window:         span(t, "2026-08-07", "2026-08-08"),
		Dynamic:        true,
		Days:           2,
		OpeningBalance: fiscal.MustDecimal("350000.00"),
		ClosingBalance: fiscal.MustDecimal("483032.72"),
		TotalInflows:   fiscal.MustDecimal("156279.42"),
		TotalOutflows:  fiscal.MustDecimal("23246.70"),
		NetChange:      fiscal.MustDecimal("133032.72"),
	})
	require.NoError(t, err)

	got, err := store.GetRun(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-01", got.Window.Start.String())
	assert.Equal(t, "2026-03-03", got.Window.End.String())
	assert.False(t, got.Dynamic)
	assert.Equal(t, 1, got.DaysBelow)
	assert.Equal(t, "458651.39", got.ClosingBalance.String())
	assert.Equal(t, "143521.89", got.TotalInflows.String())

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest run lists first")
	assert.True(t, runs[0].Dynamic)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	missing, err := store.GetRun(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// =============================================================================
// ACTUALS TESTS
// =============================================================================

func TestActuals_UpsertAndClassify(t *testing.T) {
	// GIVEN: recorded amounts for revenue and expense accounts
	// WHEN: reading the day back
	// THEN: totals split by the chart of accounts with expenses
	//       reported as positive outflows

	store := newTestStore(t)
	ctx := context.Background()
	when := day(t, "2026-07-31")

	err := store.UpsertActuals(ctx, []sqlite.ActualRow{
		{Date: when, Account: "411110", Amount: fiscal.MustDecimal("120000.50"), Source: "planning"},
		{Date: when, Account: "421100", Amount: fiscal.MustDecimal("1500.00"), Source: "planning"},
		{Date: when, Account: "612110", Amount: fiscal.MustDecimal("-30000.25"), Source: "planning"},
	})
	require.NoError(t, err)

	dayRec, err := store.ActualsOn(ctx, when)
	require.NoError(t, err)
	require.NotNil(t, dayRec)
	require.Len(t, dayRec.Rows, 3)
	assert.Equal(t, "411110", dayRec.Rows[0].Account)
	assert.Equal(t, "612110", dayRec.Rows[2].Account)
	assert.Equal(t, "121500.50", dayRec.TotalInflows.String())
	assert.Equal(t, "30000.25", dayRec.TotalOutflows.String(), "outflow totals read positive")

	has, err := store.HasActuals(ctx, when)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasActuals(ctx, day(t, "2026-08-01"))
	require.NoError(t, err)
	assert.False(t, has)

	empty, err := store.ActualsOn(ctx, day(t, "2026-08-01"))
	require.NoError(t, err)
	assert.Nil(t, empty, "a day with nothing recorded reads as nil")

	// Re-recording the same day and account overwrites in place.
	err = store.UpsertActuals(ctx, []sqlite.ActualRow{
		{Date: when, Account: "411110", Amount: fiscal.MustDecimal("100000.00")},
	})
	require.NoError(t, err)

	dayRec, err = store.ActualsOn(ctx, when)
	require.NoError(t, err)
	require.Len(t, dayRec.Rows, 3)
	assert.Equal(t, "101500.00", dayRec.TotalInflows.String())
}

func TestActuals_RejectsBadRows(t *testing.T) {
	store := newTestStore(t)

	err := store.UpsertActuals(context.Background(), []sqlite.ActualRow{
		{Account: "411110", Amount: fiscal.MustDecimal("1.00")},
	})
	assert.True(t, fiscal.IsInvalidInput(err), "zero date should be InvalidInput, got %v", err)

	err = store.UpsertActuals(context.Background(), []sqlite.ActualRow{
		{Date: day(t, "2026-07-31"), Amount: fiscal.MustDecimal("1.00")},
	})
	assert.True(t, fiscal.IsInvalidInput(err), "empty account should be InvalidInput, got %v", err)
}

// =============================================================================
// RATE PUSH TESTS
// =============================================================================

func TestRatePushes_BatchShareOneID(t *testing.T) {
	// GIVEN: one sync batch with a failed night
	// WHEN: listing pushes
	// THEN: every row carries the batch id and the outcome survives

	store := newTestStore(t)
	ctx := context.Background()

	batchID, err := store.SaveRatePushes(ctx, []sqlite.RatePush{
		{Night: day(t, "2026-08-07"), Amount: fiscal.MustDecimal("330.75"), Success: true},
		{Night: day(t, "2026-08-08"), Amount: fiscal.MustDecimal("340.20"), Success: false},
		{Night: day(t, "2026-08-09"), Amount: fiscal.MustDecimal("226.80"), Success: true},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(batchID)
	require.NoError(t, err)

	pushes, err := store.ListRatePushes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pushes, 3)

	failed := 0
	for _, push := range pushes {
		assert.Equal(t, batchID, push.BatchID)
		if !push.Success {
			failed++
			assert.Equal(t, "2026-08-08", push.Night.String())
			assert.Equal(t, "340.20", push.Amount.String())
		}
	}
	assert.Equal(t, 1, failed)

	secondBatch, err := store.SaveRatePushes(ctx, []sqlite.RatePush{
		{Night: day(t, "2026-08-10"), Amount: fiscal.MustDecimal("189.00"), Success: true},
	})
	require.NoError(t, err)
	assert.NotEqual(t, batchID, secondBatch)

	pushes, err = store.ListRatePushes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pushes, 4)
	assert.Equal(t, secondBatch, pushes[0].BatchID, "newest batch lists first")
}

// =============================================================================
// PLANNING SYNC TESTS
// =============================================================================

func TestPlanningSyncs_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SavePlanningSync(ctx, sqlite.PlanningSync{
		Scenario: "Forecast",
		Method:   "REPLACE",
		Window:   span(t, "2026-07-01", "2026-08-31"),
		Periods:  []string{"FY26:Jul", "FY26:Aug"},
		Records:  40,
		JobID:    "JOB_00001",
		Message:  "loaded 40 records to CashFlow",
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	syncs, err := store.ListPlanningSyncs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, syncs, 1)

	got := syncs[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "REPLACE", got.Method)
	assert.Equal(t, []string{"FY26:Jul", "FY26:Aug"}, got.Periods)
	assert.Equal(t, 40, got.Records)
	assert.Equal(t, "JOB_00001", got.JobID)
	assert.Equal(t, "2026-07-01", got.Window.Start.String())
}

// =============================================================================
// RESET TESTS
// =============================================================================

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveRun(ctx, sqlite.ForecastRun{
		Window:         span(t, "2026-03-01", "2026-03-01"),
		Days:           1,
		OpeningBalance: fiscal.MustDecimal("350000.00"),
		ClosingBalance: fiscal.MustDecimal("386217.13"),
		TotalInflows:   fiscal.MustDecimal("47840.63"),
		TotalOutflows:  fiscal.MustDecimal("11623.50"),
		NetChange:      fiscal.MustDecimal("36217.13"),
	})
	require.NoError(t, err)

	err = store.UpsertActuals(ctx, []sqlite.ActualRow{
		{Date: day(t, "2026-03-01"), Account: "411110", Amount: fiscal.MustDecimal("46000.00")},
	})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	has, err := store.HasActuals(ctx, day(t, "2026-03-01"))
	require.NoError(t, err)
	assert.False(t, has)
}
