package slippage

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// VolumeImpactSlippage scales the impact with the order's share of the
// bar's volume: impact fraction = coefficient * quantity / volume. Bars
// without volume fill at the reference price.
type VolumeImpactSlippage struct {
	coefficient float64
}

func NewVolumeImpactSlippage(coefficient float64) Model {
	return &VolumeImpactSlippage{coefficient: coefficient}
}

func (s *VolumeImpactSlippage) Apply(price float64, quantity float64, side types.Side, bar types.Bar) float64 {
	if s.coefficient <= 0 || bar.Volume <= 0 {
		return price
	}

	return adverse(price, s.coefficient*quantity/bar.Volume, side)
}
