package slippage

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// FixedBpsSlippage moves the price a fixed number of basis points against
// the trader regardless of order size.
type FixedBpsSlippage struct {
	bps float64
}

func NewFixedBpsSlippage(bps float64) Model {
	return &FixedBpsSlippage{bps: bps}
}

func (s *FixedBpsSlippage) Apply(price float64, quantity float64, side types.Side, bar types.Bar) float64 {
	if s.bps <= 0 {
		return price
	}

	return adverse(price, s.bps/10000, side)
}
