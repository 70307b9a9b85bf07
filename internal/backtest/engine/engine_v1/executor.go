package engine

import (
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/commission"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/slippage"
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// executeOrder fills an order at the bar's open, adjusted by the slippage
// model, with the commission computed on the fill. Pure: no portfolio
// state is touched here.
func executeOrder(order types.Order, bar types.Bar, fees commission.Model, slip slippage.Model) types.Fill {
	price := slip.Apply(bar.Open, order.Quantity, order.Side, bar)
	fee := fees.Calculate(order.Quantity, price)

	return types.Fill{
		OrderID:    order.ID,
		Instrument: order.Instrument,
		Side:       order.Side,
		Quantity:   order.Quantity,
		Price:      price,
		Fee:        fee,
		Time:       bar.Time,
		Closing:    order.Closing,
		Reason:     order.Reason,
	}
}
