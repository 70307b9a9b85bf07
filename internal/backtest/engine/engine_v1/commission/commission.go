// Package commission provides the fee models charged on every fill, at
// entry and at exit.
package commission

// Model calculates the commission for a fill.
type Model interface {
	// Calculate returns the fee in account currency for a fill of the
	// given quantity at the given price.
	Calculate(quantity float64, price float64) float64
}

type ModelName string

const (
	ModelZero              ModelName = "zero"
	ModelPercentage        ModelName = "percentage"
	ModelInteractiveBroker ModelName = "interactive_broker"
)

var AllModels = []any{
	ModelZero,
	ModelPercentage,
	ModelInteractiveBroker,
}

// ValidModel reports whether the name maps to a model. The empty name is
// valid and means zero commission.
func ValidModel(name ModelName) bool {
	switch name {
	case "", ModelZero, ModelPercentage, ModelInteractiveBroker:
		return true
	default:
		return false
	}
}

// GetModel resolves a model name. bps only applies to the percentage
// model. Unknown names fall back to zero commission; reject them earlier
// with ValidModel.
func GetModel(name ModelName, bps float64) Model {
	switch name {
	case ModelPercentage:
		return NewPercentageCommission(bps)
	case ModelInteractiveBroker:
		return NewInteractiveBrokerCommission()
	default:
		return NewZeroCommission()
	}
}
