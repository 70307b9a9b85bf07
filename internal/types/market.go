package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// Bar is one OHLCV sample for an instrument at a timestamp.
type Bar struct {
	Instrument string    `yaml:"instrument" json:"instrument" csv:"instrument" validate:"required"`
	Time       time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	Open       float64   `yaml:"open" json:"open" csv:"open" validate:"gt=0"`
	High       float64   `yaml:"high" json:"high" csv:"high" validate:"gt=0"`
	Low        float64   `yaml:"low" json:"low" csv:"low" validate:"gt=0"`
	Close      float64   `yaml:"close" json:"close" csv:"close" validate:"gt=0"`
	Volume     float64   `yaml:"volume" json:"volume" csv:"volume" validate:"gte=0"`
}

// Validate checks field constraints and OHLC containment:
// low <= min(open, close) and max(open, close) <= high.
func (b *Bar) Validate() error {
	validate := validator.New()
	if err := validate.Struct(b); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBar, "invalid bar", err)
	}

	lo, hi := b.Open, b.Open
	if b.Close < lo {
		lo = b.Close
	}

	if b.Close > hi {
		hi = b.Close
	}

	if b.Low > lo || b.High < hi {
		return errors.Newf(errors.ErrCodeInvalidBar,
			"bar for %s at %s violates OHLC containment (o=%f h=%f l=%f c=%f)",
			b.Instrument, b.Time.Format(time.RFC3339), b.Open, b.High, b.Low, b.Close)
	}

	return nil
}

// TypicalPrice returns (high + low + close) / 3.
func (b *Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Range returns high - low.
func (b *Bar) Range() float64 {
	return b.High - b.Low
}
