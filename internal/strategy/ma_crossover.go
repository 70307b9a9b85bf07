package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/indicator"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

const StrategyNameMACrossover = "ma_crossover"

// MACrossover goes long when the fast moving average crosses above the
// slow one and closes the position on the opposite cross.
type MACrossover struct {
	fast int
	slow int
}

// NewMACrossover builds the strategy. Parameters: fast (default 10) and
// slow (default 30) moving average periods.
func NewMACrossover(params Params) (Strategy, error) {
	fast := params.Int("fast", 10)
	slow := params.Int("slow", 30)

	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"ma_crossover requires 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}

	return &MACrossover{fast: fast, slow: slow}, nil
}

// Name implements Strategy.
func (s *MACrossover) Name() string {
	return StrategyNameMACrossover
}

// Version implements Strategy.
func (s *MACrossover) Version() string {
	return APIVersion
}

// OnBar implements Strategy.
func (s *MACrossover) OnBar(history []types.Bar) (types.Signal, error) {
	current := history[len(history)-1]

	// One extra bar so the previous cross state is observable
	if len(history) < s.slow+1 {
		return holdSignal(current), nil
	}

	closes := indicator.Closes(history)
	prevCloses := closes[:len(closes)-1]

	fastNow, err := indicator.SMA(closes, s.fast)
	if err != nil {
		return types.Signal{}, err
	}

	slowNow, err := indicator.SMA(closes, s.slow)
	if err != nil {
		return types.Signal{}, err
	}

	fastPrev, err := indicator.SMA(prevCloses, s.fast)
	if err != nil {
		return types.Signal{}, err
	}

	slowPrev, err := indicator.SMA(prevCloses, s.slow)
	if err != nil {
		return types.Signal{}, err
	}

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow

	switch {
	case crossedUp:
		return types.Signal{
			Instrument: current.Instrument,
			Action:     types.SignalActionBuy,
			Strength:   optional.Some(crossStrength(fastNow, slowNow)),
			Time:       current.Time,
			Reason:     "fast MA crossed above slow MA",
		}, nil
	case crossedDown:
		return types.Signal{
			Instrument: current.Instrument,
			Action:     types.SignalActionClose,
			Strength:   optional.Some(crossStrength(fastNow, slowNow)),
			Time:       current.Time,
			Reason:     "fast MA crossed below slow MA",
		}, nil
	default:
		return holdSignal(current), nil
	}
}

// crossStrength normalizes the MA separation into [0, 1].
func crossStrength(fast, slow float64) float64 {
	if slow == 0 {
		return 0
	}

	return math.Min(math.Abs(fast-slow)/slow*100, 1)
}
