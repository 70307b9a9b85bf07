// Package strategy defines the trading strategy capability interface and
// an explicit registry for the closed set of built-in strategies. Strategy
// selection is by name at run setup; there is no runtime reflection.
package strategy

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// APIVersion is the strategy API version implemented by this engine.
// Strategies declaring an incompatible version are rejected at creation.
const APIVersion = "v1.0.0"

// Params carries a strategy's tunable parameters, typically decoded from
// the YAML run configuration.
type Params map[string]any

// Int reads an integer parameter, accepting YAML's int and float decodings.
func (p Params) Int(key string, fallback int) int {
	value, ok := p[key]
	if !ok {
		return fallback
	}

	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Float reads a float parameter.
func (p Params) Float(key string, fallback float64) float64 {
	value, ok := p[key]
	if !ok {
		return fallback
	}

	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// Strategy turns bar history into trading signals. Implementations may
// hold internal state across calls within one run, so the engine creates
// a fresh instance per run; they must not reach outside the run.
type Strategy interface {
	// Name identifies the strategy in reports and the registry.
	Name() string
	// Version is the strategy API version this implementation targets.
	Version() string
	// OnBar receives one instrument's history up to and including the
	// current bar and returns at most one signal for that timestamp.
	// A HOLD signal means no action.
	OnBar(history []types.Bar) (types.Signal, error)
}

func holdSignal(bar types.Bar) types.Signal {
	return types.Signal{
		Instrument: bar.Instrument,
		Action:     types.SignalActionHold,
		Time:       bar.Time,
	}
}
