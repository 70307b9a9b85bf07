package slippage

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// ZeroSlippage fills at the reference price.
type ZeroSlippage struct{}

func NewZeroSlippage() Model {
	return &ZeroSlippage{}
}

func (s *ZeroSlippage) Apply(price float64, quantity float64, side types.Side, bar types.Bar) float64 {
	return price
}
