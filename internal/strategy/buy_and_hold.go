package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

const StrategyNameBuyAndHold = "buy_and_hold"

// BuyAndHold buys on the first bar it sees and never exits. Useful as a
// benchmark cell in a matrix sweep.
type BuyAndHold struct{}

// NewBuyAndHold builds the strategy. It takes no parameters.
func NewBuyAndHold(_ Params) (Strategy, error) {
	return &BuyAndHold{}, nil
}

// Name implements Strategy.
func (s *BuyAndHold) Name() string {
	return StrategyNameBuyAndHold
}

// Version implements Strategy.
func (s *BuyAndHold) Version() string {
	return APIVersion
}

// OnBar implements Strategy.
func (s *BuyAndHold) OnBar(history []types.Bar) (types.Signal, error) {
	current := history[len(history)-1]

	if len(history) == 1 {
		return types.Signal{
			Instrument: current.Instrument,
			Action:     types.SignalActionBuy,
			Strength:   optional.Some(1.0),
			Time:       current.Time,
			Reason:     "initial entry",
		}, nil
	}

	return holdSignal(current), nil
}
