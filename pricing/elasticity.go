package pricing

import (
	"github.com/shopspring/decimal"
)

// EstimateOccupancy projects occupancy demand response to a quoted
// rate. The relative rate change against base scales by the config
// elasticity (negative, so pricier nights sell slower) and shifts the
// default occupancy, clamped to the configured floor and ceiling.
//
// Callers with a real occupancy observation should use it directly;
// this estimate only fills the gap when none exists.
func EstimateOccupancy(cfg Config, quoted decimal.Decimal) float64 {
	diff, _ := quoted.Sub(cfg.BaseRate).Div(cfg.BaseRate).Float64()
	occupancy := cfg.DefaultOccupancy * (1 + diff*cfg.Elasticity)
	if occupancy < cfg.OccupancyFloor {
		return cfg.OccupancyFloor
	}
	if occupancy > cfg.OccupancyCeiling {
		return cfg.OccupancyCeiling
	}
	return occupancy
}
