package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// Cash position statuses.
const (
	StatusOK           = "OK"
	StatusBelowMinimum = "BELOW MINIMUM"
)

// CashPosition is a one-day snapshot: the opening balance, the day's
// projected movements and where that leaves the unit against its
// reserve. HasActuals is filled by callers that track recorded
// actuals for the date.
type CashPosition struct {
	Date      fiscal.Date
	DayOfWeek string

	OpeningBalance    decimal.Decimal
	ProjectedInflows  decimal.Decimal
	ProjectedOutflows decimal.Decimal
	NetMovement       decimal.Decimal
	ProjectedClosing  decimal.Decimal

	MinimumReserve decimal.Decimal
	Status         string

	Inflows  map[string]decimal.Decimal
	Outflows map[string]decimal.Decimal

	HasActuals bool
}

// PositionOn projects a single day's movements from the opening
// balance.
func (g *Generator) PositionOn(date fiscal.Date) (CashPosition, error) {
	if date.IsZero() {
		return CashPosition{}, &fiscal.InputError{Field: "as_of_date", Value: "zero", Reason: "must be a valid calendar date"}
	}

	rec, err := g.day(date, ProjectOptions{})
	if err != nil {
		return CashPosition{}, err
	}

	closing := g.book.cfg.OpeningBalance.Add(rec.NetCashFlow)
	status := StatusOK
	if closing.LessThan(g.book.cfg.MinimumReserve) {
		status = StatusBelowMinimum
	}

	return CashPosition{
		Date:              date,
		DayOfWeek:         rec.DayOfWeek,
		OpeningBalance:    g.book.cfg.OpeningBalance,
		ProjectedInflows:  rec.TotalInflows,
		ProjectedOutflows: rec.TotalOutflows,
		NetMovement:       rec.NetCashFlow,
		ProjectedClosing:  closing,
		MinimumReserve:    g.book.cfg.MinimumReserve,
		Status:            status,
		Inflows:           rec.Inflows,
		Outflows:          rec.Outflows,
	}, nil
}
