package commission

// ZeroCommission charges nothing.
type ZeroCommission struct{}

func NewZeroCommission() Model {
	return &ZeroCommission{}
}

// Calculate returns 0 for any fill.
func (c *ZeroCommission) Calculate(quantity float64, price float64) float64 {
	return 0.0
}
