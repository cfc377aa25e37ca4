package planning_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/planning"
)

// =============================================================================
// LOAD METHOD TESTS
// =============================================================================

func TestParseLoadMethod(t *testing.T) {
	m, err := planning.ParseLoadMethod("")
	require.NoError(t, err)
	assert.Equal(t, planning.Replace, m, "empty input defaults to REPLACE")

	m, err = planning.ParseLoadMethod("accumulate")
	require.NoError(t, err)
	assert.Equal(t, planning.Accumulate, m)

	_, err = planning.ParseLoadMethod("MERGE")
	assert.True(t, fiscal.IsInvalidInput(err), "unknown method should be InvalidInput, got %v", err)
}

// =============================================================================
// MOCK CLIENT TESTS
// =============================================================================

func TestMock_ReplaceThenAccumulate(t *testing.T) {
	// GIVEN: a forecast load of two accounts in one period
	// WHEN: accumulating onto one cell and then replacing the scenario
	// THEN: amounts add under ACCUMULATE and reset under REPLACE, with
	//       sequential job ids across loads

	client := planning.NewMock("CashFlow")
	ctx := context.Background()

	first, err := client.LoadRecords(ctx, []planning.Record{
		{Scenario: "Forecast", Account: "411110", Period: "Aug", Amount: fiscal.MustDecimal("1000.00")},
		{Scenario: "Forecast", Account: "612110", Period: "Aug", Amount: fiscal.MustDecimal("-250.00")},
	}, planning.Replace)
	require.NoError(t, err)

	assert.Equal(t, planning.StatusCompleted, first.Status)
	assert.Equal(t, "JOB_00001", first.JobID)
	assert.Equal(t, 2, first.RecordsLoaded)
	assert.Equal(t, 2, first.Accounts)
	assert.Equal(t, []string{"Aug"}, first.Periods)

	second, err := client.LoadRecords(ctx, []planning.Record{
		{Scenario: "Forecast", Account: "411110", Period: "Aug", Amount: fiscal.MustDecimal("500.00")},
	}, planning.Accumulate)
	require.NoError(t, err)
	assert.Equal(t, "JOB_00002", second.JobID)

	records, err := client.Actuals(ctx, planning.POV{Scenario: "Forecast"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "411110", records[0].Account)
	assert.Equal(t, "1500.00", records[0].Amount.String(), "ACCUMULATE adds onto the stored cell")
	assert.Equal(t, "612110", records[1].Account)

	third, err := client.LoadRecords(ctx, []planning.Record{
		{Scenario: "Forecast", Account: "421100", Period: "Sep", Amount: fiscal.MustDecimal("75.00")},
	}, planning.Replace)
	require.NoError(t, err)
	assert.Equal(t, "JOB_00003", third.JobID)

	records, err = client.Actuals(ctx, planning.POV{Scenario: "Forecast"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1, "REPLACE clears the scenario bucket")
	assert.Equal(t, "421100", records[0].Account)

	log := client.LoadLog()
	require.Len(t, log, 3)
	assert.Equal(t, "JOB_00001", log[0].JobID)
	assert.Equal(t, "JOB_00003", log[2].JobID)
}

func TestMock_ScenarioBucketsAreIsolated(t *testing.T) {
	// GIVEN: loads into the Actual and Forecast scenarios
	// WHEN: fetching actuals with the default POV
	// THEN: only the Actual bucket answers

	client := planning.NewMock("")
	ctx := context.Background()

	_, err := client.LoadRecords(ctx, []planning.Record{
		{Scenario: "Actual", Account: "411110", Period: "Jul", Amount: fiscal.MustDecimal("98000.00")},
	}, planning.Replace)
	require.NoError(t, err)

	_, err = client.LoadRecords(ctx, []planning.Record{
		{Scenario: "Forecast", Account: "411110", Period: "Jul", Amount: fiscal.MustDecimal("105000.00")},
	}, planning.Replace)
	require.NoError(t, err)

	records, err := client.Actuals(ctx, planning.POV{}, []string{"411110"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "98000.00", records[0].Amount.String())
	assert.Equal(t, "Actual", records[0].Scenario)
}

func TestMock_AccumulateIntoEmptyScenario(t *testing.T) {
	client := planning.NewMock("")

	result, err := client.LoadRecords(context.Background(), []planning.Record{
		{Scenario: "Budget", Account: "612110", Period: "Jan", Amount: fiscal.MustDecimal("-400.00")},
	}, planning.Accumulate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsLoaded)
}

func TestMock_RejectsBadLoads(t *testing.T) {
	client := planning.NewMock("")
	ctx := context.Background()

	_, err := client.LoadRecords(ctx, nil, planning.Replace)
	assert.True(t, fiscal.IsInvalidInput(err), "empty load should be InvalidInput, got %v", err)

	_, err = client.LoadRecords(ctx, []planning.Record{
		{Account: "411110", Period: "Jan", Amount: fiscal.MustDecimal("1.00")},
	}, planning.LoadMethod("UPSERT"))
	assert.True(t, fiscal.IsInvalidInput(err), "unknown method should be InvalidInput, got %v", err)
}

// =============================================================================
// FACTORY TESTS
// =============================================================================

func TestNew_PicksClientFromConfig(t *testing.T) {
	mock := planning.New(planning.Config{Application: "CashPlan"}, zerolog.Nop())
	_, isMock := mock.(*planning.MockClient)
	assert.True(t, isMock, "missing credentials should select the mock client")

	live := planning.New(planning.Config{
		URL: "https://planning.example.com", Username: "svc", Password: "pw", Application: "CashPlan",
	}, zerolog.Nop())
	_, isLive := live.(*planning.CloudClient)
	assert.True(t, isLive, "full credentials should select the live client")
}

// =============================================================================
// CLOUD CLIENT TESTS
// =============================================================================

func TestCloud_LoadBuildsImportGrid(t *testing.T) {
	// GIVEN: three records spanning two periods with one empty cell
	// WHEN: loading with REPLACE
	// THEN: the import payload carries the shared POV, sorted account
	//       columns and one row per period with zeros for gaps

	var body struct {
		AggregateEssbaseData bool   `json:"aggregateEssbaseData"`
		CellNotesOption      string `json:"cellNotesOption"`
		DataGrid             struct {
			POV     []string   `json:"pov"`
			Columns [][]string `json:"columns"`
			Rows    []struct {
				Headers []string  `json:"headers"`
				Data    []float64 `json:"data"`
			} `json:"rows"`
		} `json:"dataGrid"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/HyperionPlanning/rest/v3/applications/CashPlan/plantypes/FinPlan/importdataslice",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)

			wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("svc:pw"))
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			fmt.Fprint(w, `{}`)
		})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := planning.NewCloudClient(planning.Config{
		URL: ts.URL, Username: "svc", Password: "pw", Application: "CashPlan",
	}, zerolog.Nop())

	result, err := client.LoadRecords(context.Background(), []planning.Record{
		{Scenario: "Forecast", Years: "FY26", Account: "411110", Period: "Jul", Amount: fiscal.MustDecimal("120000.50")},
		{Scenario: "Forecast", Years: "FY26", Account: "612110", Period: "Jul", Amount: fiscal.MustDecimal("-30000.00")},
		{Scenario: "Forecast", Years: "FY26", Account: "411110", Period: "Aug", Amount: fiscal.MustDecimal("99000.25")},
	}, planning.Replace)
	require.NoError(t, err)

	assert.False(t, body.AggregateEssbaseData, "REPLACE does not aggregate")
	assert.Equal(t, "Overwrite", body.CellNotesOption)
	assert.Equal(t,
		[]string{"E501", "Forecast", "FY26", "Final", "USD", "No Future1", "CC1121", "R131"},
		body.DataGrid.POV)
	require.Equal(t, [][]string{{"411110", "612110"}}, body.DataGrid.Columns)

	require.Len(t, body.DataGrid.Rows, 2)
	assert.Equal(t, []string{"Aug"}, body.DataGrid.Rows[0].Headers)
	assert.InDelta(t, 99000.25, body.DataGrid.Rows[0].Data[0], 1e-9)
	assert.Zero(t, body.DataGrid.Rows[0].Data[1], "missing cell fills with zero")
	assert.Equal(t, []string{"Jul"}, body.DataGrid.Rows[1].Headers)
	assert.InDelta(t, -30000.00, body.DataGrid.Rows[1].Data[1], 1e-9)

	assert.Equal(t, planning.StatusCompleted, result.Status)
	assert.Equal(t, 3, result.RecordsLoaded)
	assert.Equal(t, 2, result.Accounts)
	assert.Equal(t, []string{"Aug", "Jul"}, result.Periods)

	_, err = client.LoadRecords(context.Background(), []planning.Record{
		{Scenario: "Forecast", Account: "411110", Period: "Sep", Amount: fiscal.MustDecimal("1.00")},
	}, planning.Accumulate)
	require.NoError(t, err)
	assert.True(t, body.AggregateEssbaseData, "ACCUMULATE sets the aggregate flag")
}

func TestCloud_ActualsParsesGrid(t *testing.T) {
	// GIVEN: an export endpoint serving numeric, quoted and empty cells
	// WHEN: fetching actuals for July
	// THEN: every cell parses exactly and records carry the POV

	var body struct {
		ExportPlanningData bool `json:"exportPlanningData"`
		GridDefinition     struct {
			POV     []string   `json:"pov"`
			Columns [][]string `json:"columns"`
			Rows    [][]string `json:"rows"`
		} `json:"gridDefinition"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/HyperionPlanning/rest/v3/applications/CashPlan/plantypes/FinPlan/exportdataslice",
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			fmt.Fprint(w, `{"rows":[
				{"headers":["411110"],"data":[125000.50]},
				{"headers":["612110"],"data":["-31000.25"]},
				{"headers":["710310"],"data":[""]}
			]}`)
		})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := planning.NewCloudClient(planning.Config{
		URL: ts.URL, Username: "svc", Password: "pw", Application: "CashPlan",
	}, zerolog.Nop())

	records, err := client.Actuals(context.Background(),
		planning.POV{Period: "Jul"},
		[]string{"411110", "612110", "710310"})
	require.NoError(t, err)

	assert.False(t, body.ExportPlanningData)
	assert.Equal(t,
		[]string{"E501", "Actual", "FY25", "Final", "USD", "No Future1", "CC1121", "R131"},
		body.GridDefinition.POV, "fetch POV defaults the scenario to Actual")
	assert.Equal(t, [][]string{{"411110", "612110", "710310"}}, body.GridDefinition.Columns)
	assert.Equal(t, [][]string{{"Jul"}}, body.GridDefinition.Rows)

	require.Len(t, records, 3)
	assert.Equal(t, "411110", records[0].Account)
	assert.Equal(t, "125000.50", records[0].Amount.String())
	assert.Equal(t, "-31000.25", records[1].Amount.String())
	assert.True(t, records[2].Amount.IsZero(), "empty cell reads as zero")
	assert.Equal(t, "Jul", records[0].Period)
	assert.Equal(t, "Actual", records[0].Scenario)
	assert.Equal(t, "E501", records[0].Entity)
}

func TestCloud_FailureTaxonomy(t *testing.T) {
	// GIVEN: an unreachable Planning endpoint
	// WHEN: loading and fetching
	// THEN: transport failures are collaborator errors and input
	//       problems stay InvalidInput

	ts := httptest.NewServer(http.NewServeMux())
	ts.Close()

	client := planning.NewCloudClient(planning.Config{
		URL: ts.URL, Username: "svc", Password: "pw", Application: "CashPlan",
	}, zerolog.Nop())
	ctx := context.Background()

	_, err := client.LoadRecords(ctx, []planning.Record{
		{Account: "411110", Period: "Jan", Amount: fiscal.MustDecimal("1.00")},
	}, planning.Replace)
	assert.True(t, fiscal.IsCollaborator(err), "transport failure should be a collaborator error, got %v", err)

	_, err = client.Actuals(ctx, planning.POV{}, nil)
	assert.True(t, fiscal.IsInvalidInput(err), "empty account list should be InvalidInput, got %v", err)
}
