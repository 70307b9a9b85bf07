package indicator

// RSI returns the Wilder relative strength index of the last period
// changes. Returns 100 when there are no losses in the window.
func RSI(values []float64, period int) (float64, error) {
	if err := requirePeriod("RSI", values, period+1); err != nil {
		return 0, err
	}

	window := values[len(values)-period-1:]

	var gains, losses float64

	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}
