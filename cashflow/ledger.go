package cashflow

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
)

// DefaultLedgerScenario is used when a ledger build names no scenario.
const DefaultLedgerScenario = "Forecast"

// LedgerRow is one fully qualified planning cell: the unit's point of
// view plus the period, account and amount. Expense amounts are
// negated so the ledger nets correctly.
type LedgerRow struct {
	Entity     string
	Scenario   string
	Years      string
	Version    string
	Currency   string
	Future1    string
	CostCenter string
	Region     string
	Period     string
	Account    string
	Amount     decimal.Decimal
}

// BuildLedger flattens monthly records into ledger rows: per period,
// revenue accounts in chart order followed by negated expense
// accounts. Zero amounts produce no row.
func BuildLedger(months []MonthlyRecord, dims Dimensions, scenario string) []LedgerRow {
	if scenario == "" {
		scenario = DefaultLedgerScenario
	}

	var rows []LedgerRow
	for _, month := range months {
		pov := LedgerRow{
			Entity:     dims.Entity,
			Scenario:   scenario,
			Years:      month.Period.FiscalYear,
			Version:    dims.Version,
			Currency:   dims.Currency,
			Future1:    dims.Future1,
			CostCenter: dims.CostCenter,
			Region:     dims.Region,
			Period:     month.Period.MonthName(),
		}

		for _, c := range InflowCategories {
			amount := month.Inflows[c.Code]
			if amount.IsZero() {
				continue
			}
			row := pov
			row.Account = c.Code
			row.Amount = amount
			rows = append(rows, row)
		}
		for _, c := range OutflowCategories {
			amount := month.Outflows[c.Code]
			if amount.IsZero() {
				continue
			}
			row := pov
			row.Account = c.Code
			row.Amount = amount.Neg()
			rows = append(rows, row)
		}
	}
	return rows
}

var ledgerHeader = []string{
	"Entity", "Scenario", "Years", "Version", "Currency",
	"Future1", "CostCenter", "Region", "Period", "Account", "Amount",
}

// WriteLedgerCSV emits rows in the planning import column order.
func WriteLedgerCSV(w io.Writer, rows []LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Entity, row.Scenario, row.Years, row.Version, row.Currency,
			row.Future1, row.CostCenter, row.Region, row.Period, row.Account,
			row.Amount.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
