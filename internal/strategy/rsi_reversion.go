package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/indicator"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

const StrategyNameRSIReversion = "rsi_reversion"

// RSIReversion buys when RSI drops below the oversold threshold and closes
// the position when RSI rises above the overbought threshold.
type RSIReversion struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIReversion builds the strategy. Parameters: period (default 14),
// oversold (default 30), overbought (default 70).
func NewRSIReversion(params Params) (Strategy, error) {
	period := params.Int("period", 14)
	oversold := params.Float("oversold", 30)
	overbought := params.Float("overbought", 70)

	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "rsi_reversion period must be positive, got %d", period)
	}

	if oversold >= overbought {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"rsi_reversion requires oversold < overbought, got %f >= %f", oversold, overbought)
	}

	return &RSIReversion{period: period, oversold: oversold, overbought: overbought}, nil
}

// Name implements Strategy.
func (s *RSIReversion) Name() string {
	return StrategyNameRSIReversion
}

// Version implements Strategy.
func (s *RSIReversion) Version() string {
	return APIVersion
}

// OnBar implements Strategy.
func (s *RSIReversion) OnBar(history []types.Bar) (types.Signal, error) {
	current := history[len(history)-1]

	if len(history) < s.period+1 {
		return holdSignal(current), nil
	}

	rsi, err := indicator.RSI(indicator.Closes(history), s.period)
	if err != nil {
		return types.Signal{}, err
	}

	switch {
	case rsi < s.oversold:
		return types.Signal{
			Instrument: current.Instrument,
			Action:     types.SignalActionBuy,
			Strength:   optional.Some(thresholdStrength(s.oversold, rsi, s.oversold)),
			Time:       current.Time,
			Reason:     "RSI oversold",
		}, nil
	case rsi > s.overbought:
		return types.Signal{
			Instrument: current.Instrument,
			Action:     types.SignalActionClose,
			Strength:   optional.Some(thresholdStrength(rsi, s.overbought, 100-s.overbought)),
			Time:       current.Time,
			Reason:     "RSI overbought",
		}, nil
	default:
		return holdSignal(current), nil
	}
}

// thresholdStrength normalizes the distance past a threshold into [0, 1].
func thresholdStrength(a, b, scale float64) float64 {
	if scale <= 0 {
		return 0
	}

	return math.Min((a-b)/scale, 1)
}
