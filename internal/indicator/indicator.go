// Package indicator provides windowed technical calculations over bar
// history. Indicators are pure functions of the history slice they are
// given; they hold no state between calls.
package indicator

import (
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// Closes extracts the close series from a bar history.
func Closes(bars []types.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}

func requirePeriod(name string, values []float64, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s period must be positive, got %d", name, period)
	}

	if len(values) < period {
		return errors.Newf(errors.ErrCodeNoDataFound, "%s needs %d values, have %d", name, period, len(values))
	}

	return nil
}
