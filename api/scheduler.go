/*
scheduler.go - Automated rate sync scheduler

PURPOSE:
  Periodically pushes the engine's optimized rates for a rolling
  horizon into the property system so loaded rates track demand
  without manual syncs.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Pushes rates for today through today+Horizon-1
  - Skips the push when a batch already went out today
  - Records every per-night outcome for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Horizon: Nights per push (default: 14)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRateSyncScheduler(handler, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SyncRates endpoint (manual push, shares pushRates)
  - store/sqlite: Rate push audit records
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/pms"
)

// RateSyncScheduler handles automated rate pushes to the property
// system.
type RateSyncScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Horizon       int
	Enabled       bool
	Logger        zerolog.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRateSyncScheduler creates a new scheduler.
func NewRateSyncScheduler(handler *Handler, logger zerolog.Logger) *RateSyncScheduler {
	return &RateSyncScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Horizon:       14,
		Enabled:       true,
		Logger:        logger,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RateSyncScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info().Msg("rate sync scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info().
		Dur("check_interval", rs.CheckInterval).
		Int("horizon_days", rs.Horizon).
		Msg("rate sync scheduler started")
}

// Stop stops the scheduler.
func (rs *RateSyncScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Logger.Info().Msg("rate sync scheduler stopped")
	}
}

func (rs *RateSyncScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndSync()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndSync()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RateSyncScheduler) checkAndSync() {
	ctx := context.Background()
	today := fiscal.Today()

	// Check if a batch already went out today
	done, err := rs.pushedToday(ctx, today)
	if err != nil {
		rs.Logger.Error().Err(err).Msg("rate sync scheduler: checking push history failed")
		return
	}
	if done {
		rs.Logger.Debug().Str("date", today.String()).Msg("rate sync scheduler: batch already pushed today")
		return
	}

	window := fiscal.DateRange{Start: today, End: today.AddDays(rs.Horizon - 1)}

	plan, err := rs.Handler.Generator.OptimizeWindow(window, nil, 0, false)
	if err != nil {
		rs.Logger.Error().Err(err).Msg("rate sync scheduler: computing rates failed")
		return
	}

	result, batchID, err := rs.Handler.pushRates(ctx, plan, pms.DefaultRateCode, pms.DefaultRoomType)
	if err != nil {
		rs.Logger.Error().Err(err).Msg("rate sync scheduler: push failed")
		return
	}

	rs.Logger.Info().
		Str("batch_id", batchID).
		Str("start", window.Start.String()).
		Str("end", window.End.String()).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("rate sync scheduler: rates pushed")
}

// pushedToday reports whether the latest recorded batch was created on
// the given date.
func (rs *RateSyncScheduler) pushedToday(ctx context.Context, today fiscal.Date) (bool, error) {
	pushes, err := rs.Handler.Store.ListRatePushes(ctx, 1)
	if err != nil {
		return false, err
	}
	if len(pushes) == 0 {
		return false, nil
	}
	y1, m1, d1 := pushes[0].CreatedAt.UTC().Date()
	y2, m2, d2 := today.Time.Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *RateSyncScheduler) RunNow() {
	rs.checkAndSync()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *RateSyncScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}
