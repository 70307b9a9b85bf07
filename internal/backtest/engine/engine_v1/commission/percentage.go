package commission

// PercentageCommission charges a fixed number of basis points on the fill
// notional.
type PercentageCommission struct {
	bps float64
}

func NewPercentageCommission(bps float64) Model {
	return &PercentageCommission{bps: bps}
}

func (c *PercentageCommission) Calculate(quantity float64, price float64) float64 {
	if c.bps <= 0 {
		return 0
	}

	return quantity * price * c.bps / 10000
}
