package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderReasonStrategy            string = "strategy"
	OrderReasonStopLoss            string = "stop_loss"
	OrderReasonMaxPositions        string = "max_concurrent_positions"
	OrderReasonPositionSize        string = "max_position_size"
	OrderReasonDrawdownLatch       string = "drawdown_latch"
	OrderReasonInsufficientCapital string = "insufficient_capital"
	OrderReasonDuplicatePosition   string = "position_already_open"
	OrderReasonNoPosition          string = "no_position_to_close"
)

// Reason records why an order was created or rejected.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// Order is a risk-approved, sized instruction produced from a Signal.
// The executor turns it into a Fill against the next bar.
type Order struct {
	ID          string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Instrument  string    `yaml:"instrument" json:"instrument" csv:"instrument" validate:"required"`
	Side        Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity    float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	SignalPrice float64   `yaml:"signal_price" json:"signal_price" csv:"signal_price" validate:"required,gt=0"`
	Time        time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	// Closing marks an order that exits an existing position rather than
	// opening a new one.
	Closing      bool   `yaml:"closing" json:"closing" csv:"closing"`
	Reason       Reason `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName string `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Fill is the simulated execution of an Order against a bar. The price is
// the bar's open adjusted by slippage, and the fee is computed on the
// filled notional. A Fill carries no side effects; applying it to the
// portfolio is the engine's job.
type Fill struct {
	OrderID    string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	Instrument string    `yaml:"instrument" json:"instrument" csv:"instrument"`
	Side       Side      `yaml:"side" json:"side" csv:"side"`
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price      float64   `yaml:"price" json:"price" csv:"price"`
	Fee        float64   `yaml:"fee" json:"fee" csv:"fee"`
	Time       time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Closing    bool      `yaml:"closing" json:"closing" csv:"closing"`
	Reason     Reason    `yaml:"reason" json:"reason" csv:"reason"`
}

// Notional returns price * quantity.
func (f *Fill) Notional() float64 {
	return f.Price * f.Quantity
}
