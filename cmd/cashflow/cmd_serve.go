/*
cmd_serve.go - HTTP server command

PURPOSE:
  Boots the full engine: SQLite audit store, Opera and Planning
  clients (live or mock per config), the forecast generator behind
  the chi router, and the hourly rate sync scheduler. Shuts down
  gracefully on SIGINT/SIGTERM.

STARTUP SEQUENCE:
  1. Load configuration, apply flag overrides, build the logger
  2. Open the SQLite store
  3. Pick Opera / Planning clients (mock unless credentials are set)
  4. Wire the API handler and router
  5. Start the rate sync scheduler when --rate-sync is set
  6. Serve until interrupted, then drain within the shutdown timeout

FLAGS:
  --addr       Listen address override (default from config, :8080)
  --db         SQLite path override (":memory:" for throwaway runs)
  --rate-sync  Enable the hourly Opera rate push scheduler

SEE ALSO:
  - api/server.go: route table and middleware
  - api/scheduler.go: rate sync loop
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/planning"
	"github.com/warp/cashflow-engine/pms"
	"github.com/warp/cashflow-engine/pricing"
	"github.com/warp/cashflow-engine/store/sqlite"
)

var (
	serveAddr     string
	serveDB       string
	serveRateSync bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cash flow engine HTTP server",
	Long: `Start the HTTP API. Without --config the server hosts the demo
property against mock Opera and Planning clients, which is enough to
exercise every endpoint locally.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (overrides config)")
	serveCmd.Flags().BoolVar(&serveRateSync, "rate-sync", false, "Push optimized rates to Opera on a schedule")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.Database.Path = serveDB
	}

	logger := newLogger(cfg)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	defer store.Close()

	unit, err := cfg.ToUnit()
	if err != nil {
		return err
	}

	noise := pricing.NewSystemNoise(0)
	pmsClient := pms.New(cfg.ToPMS(), unit.RoomCount, noise, logger)
	planningClient := planning.New(cfg.ToPlanning(), logger)

	handler, err := api.NewHandler(store, unit, pmsClient, planningClient, noise, logger)
	if err != nil {
		return err
	}
	handler.OperaHotelID = cfg.Opera.HotelID

	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	scheduler := api.NewRateSyncScheduler(handler, logger)
	scheduler.Enabled = serveRateSync
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("hotel", unit.HotelName).
			Str("database", cfg.Database.Path).
			Msg("cash flow engine listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
