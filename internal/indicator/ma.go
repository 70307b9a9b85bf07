package indicator

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := requirePeriod("SMA", values, period); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}

	return sum / float64(period), nil
}

// EMA returns the exponential moving average over the full series, seeded
// with an SMA of the first period values.
func EMA(values []float64, period int) (float64, error) {
	if err := requirePeriod("EMA", values, period); err != nil {
		return 0, err
	}

	seed, err := SMA(values[:period], period)
	if err != nil {
		return 0, err
	}

	multiplier := 2.0 / (float64(period) + 1.0)
	ema := seed

	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
	}

	return ema, nil
}
