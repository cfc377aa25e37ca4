/*
main.go - Command-line entry point

PURPOSE:
  Hosts the cashflow CLI: a cobra root command with subcommands for
  serving the HTTP API and for one-shot forecast, scenario and
  Planning sync runs straight from a terminal.

COMMANDS:
  serve      Start the HTTP API server (cmd_serve.go)
  forecast   Print a daily cash flow projection (cmd_forecast.go)
  scenario   Compare a what-if scenario to the baseline (cmd_scenario.go)
  sync       Load the monthly forecast into Planning (cmd_sync.go)

CONFIGURATION:
  --config points at a YAML file (schema in config/config.go). When
  omitted the engine serves the bundled Chicago demo property with
  mock Opera and Planning clients. OPERA_* and PLANNING_* environment
  variables override credentials after the file is read.

EXAMPLES:
  # Serve the demo property on :8080 with a throwaway database
  cashflow serve --db=":memory:"

  # Thirty-day dynamic forecast starting today
  cashflow forecast --dynamic

  # Occupancy shock over two weeks
  cashflow scenario --name "Summer Slump" --days 14 --occupancy-change=-10

  # Preview the monthly load for Planning
  cashflow sync --preview

SEE ALSO:
  - config/config.go: YAML schema, defaults, env overrides
  - api/server.go: the routes the serve command exposes
*/
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/fiscal"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Hotel cash flow forecasting engine",
	Long: `Cash flow engine for hotel properties: daily inflow/outflow
projection with dynamic room pricing, what-if scenarios, Opera rate
sync and Planning Cloud export.

Run 'cashflow serve' to start the HTTP API, or use the forecast,
scenario and sync subcommands for one-shot runs without a server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file (empty serves the demo property)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file over the defaults. An empty path
// yields the validated demo configuration.
func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the process logger from the logging section. The
// console writer is for terminals; the default JSON stream is for
// collectors.
func newLogger(cfg config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	var out io.Writer = os.Stderr
	if cfg.Logging.Console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(cfg.LogLevel())
}

// windowFlags resolves --start/--end into a date range. Start falls
// back to today, end to start plus days-1 nights.
func windowFlags(start, end string, days int) (fiscal.DateRange, error) {
	from := fiscal.Today()
	if start != "" {
		d, err := fiscal.ParseDate(start)
		if err != nil {
			return fiscal.DateRange{}, fmt.Errorf("--start: %w", err)
		}
		from = d
	}
	to := from.AddDays(days - 1)
	if end != "" {
		d, err := fiscal.ParseDate(end)
		if err != nil {
			return fiscal.DateRange{}, fmt.Errorf("--end: %w", err)
		}
		to = d
	}
	return fiscal.DateRange{Start: from, End: to}, nil
}
