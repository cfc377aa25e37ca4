package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// MonthlyRecord is one fiscal period rolled up from daily records.
// Opening comes from the first day seen in the period, closing from
// the last, and every account sum reconciles to the penny with the
// daily records it was built from.
type MonthlyRecord struct {
	Period fiscal.PeriodKey
	Days   int

	Inflows  map[string]decimal.Decimal
	Outflows map[string]decimal.Decimal

	TotalInflows  decimal.Decimal
	TotalOutflows decimal.Decimal
	NetCashFlow   decimal.Decimal

	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
}

// AggregateMonthly rolls daily records up into fiscal periods, in the
// order the periods first appear in the input. Amounts are summed at
// full precision and rounded once after summing; since every daily
// amount is already cents, the sums are exact.
func AggregateMonthly(days []DailyRecord) []MonthlyRecord {
	var order []fiscal.PeriodKey
	byPeriod := make(map[fiscal.PeriodKey]*MonthlyRecord)

	for _, day := range days {
		key := fiscal.PeriodFor(day.Date)
		rec, ok := byPeriod[key]
		if !ok {
			rec = &MonthlyRecord{
				Period:         key,
				Inflows:        make(map[string]decimal.Decimal, len(InflowCategories)),
				Outflows:       make(map[string]decimal.Decimal, len(OutflowCategories)),
				OpeningBalance: day.OpeningBalance,
			}
			for _, c := range InflowCategories {
				rec.Inflows[c.Code] = decimal.Zero
			}
			for _, c := range OutflowCategories {
				rec.Outflows[c.Code] = decimal.Zero
			}
			byPeriod[key] = rec
			order = append(order, key)
		}

		for code, amount := range day.Inflows {
			rec.Inflows[code] = rec.Inflows[code].Add(amount)
		}
		for code, amount := range day.Outflows {
			rec.Outflows[code] = rec.Outflows[code].Add(amount)
		}

		rec.TotalInflows = rec.TotalInflows.Add(day.TotalInflows)
		rec.TotalOutflows = rec.TotalOutflows.Add(day.TotalOutflows)
		rec.NetCashFlow = rec.NetCashFlow.Add(day.NetCashFlow)
		rec.ClosingBalance = day.ClosingBalance
		rec.Days++
	}

	out := make([]MonthlyRecord, 0, len(order))
	for _, key := range order {
		rec := byPeriod[key]
		rec.TotalInflows = fiscal.Round2(rec.TotalInflows)
		rec.TotalOutflows = fiscal.Round2(rec.TotalOutflows)
		rec.NetCashFlow = fiscal.Round2(rec.NetCashFlow)
		rec.ClosingBalance = fiscal.Round2(rec.ClosingBalance)
		for code, amount := range rec.Inflows {
			rec.Inflows[code] = fiscal.Round2(amount)
		}
		for code, amount := range rec.Outflows {
			rec.Outflows[code] = fiscal.Round2(amount)
		}
		out = append(out, *rec)
	}
	return out
}
