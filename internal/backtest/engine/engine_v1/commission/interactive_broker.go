package commission

// InteractiveBrokerCommission models the IBKR fixed US equity schedule:
// half a cent per share with a one dollar minimum per order.
type InteractiveBrokerCommission struct{}

func NewInteractiveBrokerCommission() Model {
	return &InteractiveBrokerCommission{}
}

func (c *InteractiveBrokerCommission) Calculate(quantity float64, price float64) float64 {
	fee := 0.005 * quantity
	if fee < 1.0 {
		return 1.0
	}

	return fee
}
