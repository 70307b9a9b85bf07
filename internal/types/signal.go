package types

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

type SignalAction string

const (
	// SignalActionBuy tells the engine to open a long position
	SignalActionBuy SignalAction = "BUY"
	// SignalActionSell tells the engine to open a short position
	SignalActionSell SignalAction = "SELL"
	// SignalActionHold tells the engine to take no action
	SignalActionHold SignalAction = "HOLD"
	// SignalActionClose tells the engine to close the open position for the instrument
	SignalActionClose SignalAction = "CLOSE"
)

// Signal is a strategy's verdict for one instrument at one timestamp.
// It is a read-only input to the engine.
type Signal struct {
	// Instrument is the symbol the signal applies to.
	Instrument string
	// Action is what the strategy wants done.
	Action SignalAction
	// Strength is an optional confidence in [0, 1]. Stronger signals win
	// capital when several instruments signal on the same bar.
	Strength optional.Option[float64]
	// Time is the timestamp of the bar the signal was produced on.
	Time time.Time
	// Reason is a free-form note from the strategy.
	Reason string
}

// Validate checks that the signal names an instrument and a known action.
func (s *Signal) Validate() error {
	if s.Instrument == "" {
		return errors.New(errors.ErrCodeInvalidSignal, "signal has no instrument")
	}

	switch s.Action {
	case SignalActionBuy, SignalActionSell, SignalActionHold, SignalActionClose:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidSignal, "unknown signal action %q", s.Action)
	}
}

// StrengthOrZero unwraps Strength clamped to [0, 1], defaulting to 0.
func (s *Signal) StrengthOrZero() float64 {
	if !s.Strength.IsSome() {
		return 0
	}

	strength := s.Strength.Unwrap()
	if strength < 0 {
		return 0
	}

	if strength > 1 {
		return 1
	}

	return strength
}
