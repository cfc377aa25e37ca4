package planning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockClient is the in-memory planning ledger used when Planning Cloud
// is not configured. Records live in per-scenario buckets keyed by
// entity, account and period; every load lands in a sequential job
// log.
type MockClient struct {
	application string

	mu      sync.Mutex
	buckets map[string]map[string]Record
	jobs    []LoadResult
}

var _ Client = (*MockClient)(nil)

// NewMock builds an empty mock ledger.
func NewMock(application string) *MockClient {
	if application == "" {
		application = "CashFlow"
	}
	return &MockClient{
		application: application,
		buckets:     make(map[string]map[string]Record),
	}
}

func bucketKey(r Record) string {
	return fallback(r.Entity, DefaultEntity) + "_" + fallback(r.Account, "400000") + "_" + fallback(r.Period, DefaultPeriod)
}

// LoadRecords stores the records in the scenario bucket named by the
// first record. REPLACE clears the bucket first; ACCUMULATE adds onto
// cells already present.
func (m *MockClient) LoadRecords(ctx context.Context, records []Record, method LoadMethod) (LoadResult, error) {
	if err := validateLoad(records, method); err != nil {
		return LoadResult{}, err
	}

	scenario := strings.ToLower(fallback(records[0].Scenario, "Forecast"))

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.buckets[scenario]
	if method == Replace || bucket == nil {
		bucket = make(map[string]Record)
		m.buckets[scenario] = bucket
	}

	for _, r := range records {
		key := bucketKey(r)
		if method == Accumulate {
			if existing, ok := bucket[key]; ok {
				existing.Amount = existing.Amount.Add(r.Amount)
				bucket[key] = existing
				continue
			}
		}
		bucket[key] = r
	}

	accounts, periods := gridAxes(records)
	result := LoadResult{
		Status:        StatusCompleted,
		JobID:         fmt.Sprintf("JOB_%05d", len(m.jobs)+1),
		RecordsLoaded: len(records),
		Accounts:      len(accounts),
		Periods:       periods,
		Message:       loadMessage(len(records), m.application),
	}
	m.jobs = append(m.jobs, result)
	return result, nil
}

// Actuals returns every stored record for the POV's entity and
// scenario. The account list only narrows the live grid; the mock
// keeps whole records and returns them all, sorted by account then
// period.
func (m *MockClient) Actuals(ctx context.Context, pov POV, accounts []string) ([]Record, error) {
	pov = pov.withDefaults("Actual")

	m.mu.Lock()
	defer m.mu.Unlock()

	var records []Record
	for _, r := range m.buckets[strings.ToLower(pov.Scenario)] {
		if fallback(r.Entity, DefaultEntity) == pov.Entity {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Account != records[j].Account {
			return records[i].Account < records[j].Account
		}
		return records[i].Period < records[j].Period
	})
	return records, nil
}

// LoadLog returns the loads applied so far, oldest first.
func (m *MockClient) LoadLog() []LoadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LoadResult, len(m.jobs))
	copy(out, m.jobs)
	return out
}
