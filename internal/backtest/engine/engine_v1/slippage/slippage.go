// Package slippage provides the price impact models applied to fills. The
// adjusted price always moves against the trader: up for buys, down for
// sells.
package slippage

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// Model adjusts a reference price for slippage.
type Model interface {
	// Apply returns the fill price for an order of the given quantity and
	// side against the given bar, starting from the reference price.
	Apply(price float64, quantity float64, side types.Side, bar types.Bar) float64
}

type ModelName string

const (
	ModelZero         ModelName = "zero"
	ModelFixedBps     ModelName = "fixed_bps"
	ModelVolumeImpact ModelName = "volume_impact"
)

var AllModels = []any{
	ModelZero,
	ModelFixedBps,
	ModelVolumeImpact,
}

// ValidModel reports whether the name maps to a model. The empty name is
// valid and means no slippage.
func ValidModel(name ModelName) bool {
	switch name {
	case "", ModelZero, ModelFixedBps, ModelVolumeImpact:
		return true
	default:
		return false
	}
}

// GetModel resolves a model name. bps applies to the fixed model and acts
// as the impact coefficient for the volume model.
func GetModel(name ModelName, bps float64) Model {
	switch name {
	case ModelFixedBps:
		return NewFixedBpsSlippage(bps)
	case ModelVolumeImpact:
		return NewVolumeImpactSlippage(bps)
	default:
		return NewZeroSlippage()
	}
}

// adverse applies a fractional move against the trader.
func adverse(price, fraction float64, side types.Side) float64 {
	if side == types.SideBuy {
		return price * (1 + fraction)
	}

	return price * (1 - fraction)
}
