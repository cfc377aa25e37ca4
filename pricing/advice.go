package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/fiscal"
)

// Rate actions recommended when comparing an engine quote against the
// rate currently loaded in the property system.
const (
	ActionIncrease = "INCREASE"
	ActionDecrease = "DECREASE"
	ActionOK       = "OK"
)

// driftTolerance is the dead band around the loaded rate: quotes
// within two percent either way are left alone to avoid churning the
// property system with noise-level corrections.
const driftTolerance = 0.02

// RateAction compares a recommended rate to the loaded rate and says
// whether the loaded rate should move.
func RateAction(recommended, loaded decimal.Decimal) string {
	switch {
	case recommended.GreaterThan(loaded.Mul(fiscal.Frac(driftTolerance))):
		return ActionIncrease
	case recommended.LessThan(loaded.Mul(fiscal.Frac(-driftTolerance))):
		return ActionDecrease
	default:
		return ActionOK
	}
}
