/*
cmd_sync.go - Planning sync command

PURPOSE:
  Builds the monthly forecast ledger and loads it into Planning Cloud
  (or the mock when no credentials are configured) without starting
  the server. --preview prints the rows as CSV instead of loading.

FLAGS:
  --start, --end  Forecast window (default today + 89 days)
  --days          Window length when --end is omitted
  --scenario      Planning scenario member (default Forecast)
  --method        REPLACE or ACCUMULATE
  --preview       Print the ledger rows instead of loading them
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/planning"
	"github.com/warp/cashflow-engine/pricing"
)

var (
	syncStart    string
	syncEnd      string
	syncDays     int
	syncScenario string
	syncMethod   string
	syncPreview  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load the monthly forecast into Planning",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncStart, "start", "", "First day (YYYY-MM-DD, default today)")
	syncCmd.Flags().StringVar(&syncEnd, "end", "", "Last day (YYYY-MM-DD)")
	syncCmd.Flags().IntVar(&syncDays, "days", 90, "Window length when --end is omitted")
	syncCmd.Flags().StringVar(&syncScenario, "scenario", cashflow.DefaultLedgerScenario, "Planning scenario member")
	syncCmd.Flags().StringVar(&syncMethod, "method", string(planning.Replace), "Load method: REPLACE or ACCUMULATE")
	syncCmd.Flags().BoolVar(&syncPreview, "preview", false, "Print the ledger rows as CSV instead of loading")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	unit, err := cfg.ToUnit()
	if err != nil {
		return err
	}
	window, err := windowFlags(syncStart, syncEnd, syncDays)
	if err != nil {
		return err
	}
	method, err := planning.ParseLoadMethod(syncMethod)
	if err != nil {
		return err
	}

	gen, err := cashflow.NewGenerator(unit, pricing.NewSystemNoise(0))
	if err != nil {
		return err
	}
	proj, err := gen.Project(window, cashflow.ProjectOptions{})
	if err != nil {
		return err
	}
	months := cashflow.AggregateMonthly(proj.Days)
	rows := cashflow.BuildLedger(months, unit.Dimensions, syncScenario)

	if syncPreview {
		fmt.Fprintf(os.Stderr, "%d rows across %d periods, %s to %s\n",
			len(rows), len(months), window.Start, window.End)
		return cashflow.WriteLedgerCSV(os.Stdout, rows)
	}

	records := make([]planning.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, planning.Record{
			Entity:     row.Entity,
			Scenario:   row.Scenario,
			Years:      row.Years,
			Version:    row.Version,
			Currency:   row.Currency,
			Future1:    row.Future1,
			CostCenter: row.CostCenter,
			Region:     row.Region,
			Period:     row.Period,
			Account:    row.Account,
			Amount:     row.Amount,
		})
	}

	logger := newLogger(cfg)
	client := planning.New(cfg.ToPlanning(), logger)

	result, err := client.LoadRecords(context.Background(), records, method)
	if err != nil {
		return err
	}

	fmt.Printf("Status:  %s\n", result.Status)
	fmt.Printf("Job:     %s\n", result.JobID)
	fmt.Printf("Records: %d\n", result.RecordsLoaded)
	fmt.Printf("Periods: %d\n", len(result.Periods))
	if result.Message != "" {
		fmt.Printf("Message: %s\n", result.Message)
	}
	return nil
}
