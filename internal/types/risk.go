package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// RiskLimits is the per-run risk configuration. Immutable for a run.
type RiskLimits struct {
	// MaxPositionSizePct caps a new position's notional as a fraction of
	// current equity, in (0, 1].
	MaxPositionSizePct float64 `yaml:"max_position_size_pct" json:"max_position_size_pct" validate:"gt=0,lte=1"`
	// StopLossPct force-closes a position whose unrealized loss reaches
	// this percentage. Zero disables the stop.
	StopLossPct float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gte=0"`
	// MaxDrawdownPct latches off all new entries once drawdown from the
	// equity peak reaches this percentage. Zero disables the latch.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct" validate:"gte=0"`
	// MaxConcurrentPositions caps the number of simultaneously open
	// positions.
	MaxConcurrentPositions int `yaml:"max_concurrent_positions" json:"max_concurrent_positions" validate:"gte=1"`
}

// Validate validates the RiskLimits struct.
func (r *RiskLimits) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRiskLimits, "invalid risk limits", err)
	}

	return nil
}

// DefaultRiskLimits returns permissive limits: full sizing, no stop, no
// drawdown latch, one position per instrument in a large universe.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSizePct:     1.0,
		StopLossPct:            0,
		MaxDrawdownPct:         0,
		MaxConcurrentPositions: 100,
	}
}
