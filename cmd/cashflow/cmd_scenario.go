/*
cmd_scenario.go - What-if scenario command

PURPOSE:
  Runs a scenario comparison from the terminal: baseline forecast
  versus the same window with occupancy, rate and expense deltas
  applied. Definitions come either from a JSON file (the same format
  the API accepts) or from individual flags.

FLAGS:
  --file              JSON scenario definition (overrides other flags)
  --name              Scenario name (required without --file)
  --start, --end      Window (default today + 29 days)
  --days              Window length when --end is omitted
  --occupancy-change  Occupancy delta in percent, e.g. -10
  --rate-change       Room rate delta in percent
  --expense-change    Operating expense delta in percent
*/
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/pricing"
)

var (
	scenarioFile      string
	scenarioName      string
	scenarioStart     string
	scenarioEnd       string
	scenarioDays      int
	scenarioOccDelta  float64
	scenarioRateDelta float64
	scenarioExpDelta  float64
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Compare a what-if scenario against the baseline forecast",
	RunE:  runScenarioCommand,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)

	scenarioCmd.Flags().StringVar(&scenarioFile, "file", "", "JSON scenario definition file")
	scenarioCmd.Flags().StringVar(&scenarioName, "name", "", "Scenario name")
	scenarioCmd.Flags().StringVar(&scenarioStart, "start", "", "First day (YYYY-MM-DD, default today)")
	scenarioCmd.Flags().StringVar(&scenarioEnd, "end", "", "Last day (YYYY-MM-DD)")
	scenarioCmd.Flags().IntVar(&scenarioDays, "days", 30, "Window length when --end is omitted")
	scenarioCmd.Flags().Float64Var(&scenarioOccDelta, "occupancy-change", 0, "Occupancy change in percent, e.g. -10")
	scenarioCmd.Flags().Float64Var(&scenarioRateDelta, "rate-change", 0, "Room rate change in percent")
	scenarioCmd.Flags().Float64Var(&scenarioExpDelta, "expense-change", 0, "Operating expense change in percent")
}

func runScenarioCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	unit, err := cfg.ToUnit()
	if err != nil {
		return err
	}

	parser := factory.NewScenarioFactory()
	var req cashflow.ScenarioRequest
	if scenarioFile != "" {
		data, err := os.ReadFile(scenarioFile)
		if err != nil {
			return fmt.Errorf("reading scenario %s: %w", scenarioFile, err)
		}
		req, err = parser.ParseScenario(string(data))
		if err != nil {
			return err
		}
	} else {
		req, err = parser.FromJSON(factory.ScenarioJSON{
			Name:            scenarioName,
			StartDate:       scenarioStart,
			EndDate:         scenarioEnd,
			Days:            scenarioDays,
			OccupancyChange: scenarioOccDelta,
			RateChange:      scenarioRateDelta,
			ExpenseChange:   scenarioExpDelta,
		})
		if err != nil {
			return err
		}
	}

	result, err := cashflow.RunScenario(unit, req, pricing.NewSystemNoise(0))
	if err != nil {
		return err
	}

	printScenario(unit.HotelName, result)
	return nil
}

func printScenario(hotel string, res *cashflow.ScenarioResult) {
	fmt.Printf("Scenario: %s\n", res.Name)
	fmt.Printf("%s, %s to %s (%d days)\n", hotel, res.Window.Start, res.Window.End, res.Days)
	fmt.Printf("Adjustments: occupancy %+.0f%%, rate %+.0f%%, expenses %+.0f%%\n\n",
		res.OccupancyChangePct, res.RateChangePct, res.ExpenseChangePct)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tBaseline\tScenario")
	fmt.Fprintf(w, "Net cash flow\t%s\t%s\n",
		res.Baseline.TotalNetCashFlow.StringFixed(2), res.Scenario.TotalNetCashFlow.StringFixed(2))
	fmt.Fprintf(w, "Final balance\t%s\t%s\n",
		res.Baseline.FinalBalance.StringFixed(2), res.Scenario.FinalBalance.StringFixed(2))
	fmt.Fprintf(w, "Days below reserve\t%d\t%d\n",
		res.Baseline.DaysBelowMinimum, res.Scenario.DaysBelowMinimum)
	w.Flush()

	fmt.Printf("\nCash flow impact:     %s\n", res.CashFlowDifference.StringFixed(2))
	fmt.Printf("Final balance impact: %s\n", res.FinalBalanceDifference.StringFixed(2))
}
