// Package kpi computes standardized performance statistics from a
// completed run's trade log and equity curve. Every function is total:
// empty input yields a zero value, never an error or NaN.
package kpi

import (
	"math"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// DefaultPeriodsPerYear annualizes per-bar returns assuming daily bars.
const DefaultPeriodsPerYear = 252.0

// Compute derives a full PerformanceReport from a run's outputs.
func Compute(trades []types.Trade, equityCurve []types.EquityPoint, initialCapital float64, periodsPerYear float64) types.PerformanceReport {
	avg, best, worst := TradeStats(trades)

	return types.PerformanceReport{
		TotalReturnPct: TotalReturnPct(equityCurve, initialCapital),
		SharpeRatio:    SharpeRatio(equityCurve, periodsPerYear),
		MaxDrawdownPct: MaxDrawdownPct(equityCurve),
		WinRatePct:     WinRatePct(trades),
		AvgTradePct:    avg,
		TotalTrades:    len(trades),
		BestTradePct:   best,
		WorstTradePct:  worst,
	}
}

// TotalReturnPct returns (final equity / initial capital - 1) * 100.
// Zero when the curve is empty or the capital is not positive.
func TotalReturnPct(equityCurve []types.EquityPoint, initialCapital float64) float64 {
	if len(equityCurve) == 0 || initialCapital <= 0 {
		return 0
	}

	final := equityCurve[len(equityCurve)-1].Equity

	return (final/initialCapital - 1) * 100
}

// MaxDrawdownPct returns the largest percentage decline from a running
// equity peak over the curve.
func MaxDrawdownPct(equityCurve []types.EquityPoint) float64 {
	maxDrawdown := 0.0
	peak := math.Inf(-1)

	for _, point := range equityCurve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - point.Equity) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// SharpeRatio annualizes mean/stddev of per-period equity returns. Zero
// when the curve has fewer than two points or the returns have no
// variance, rather than NaN or infinity.
func SharpeRatio(equityCurve []types.EquityPoint, periodsPerYear float64) float64 {
	returns := periodReturns(equityCurve)
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}

	return mean / stddev * math.Sqrt(periodsPerYear)
}

// WinRatePct returns winning trades / total trades * 100, zero when there
// are no trades.
func WinRatePct(trades []types.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	wins := 0

	for _, trade := range trades {
		if trade.RealizedPnL > 0 {
			wins++
		}
	}

	return float64(wins) / float64(len(trades)) * 100
}

// TradeStats returns the mean, best and worst realized return across all
// closed trades. All zero when there are no trades.
func TradeStats(trades []types.Trade) (avg, best, worst float64) {
	if len(trades) == 0 {
		return 0, 0, 0
	}

	best = math.Inf(-1)
	worst = math.Inf(1)
	sum := 0.0

	for _, trade := range trades {
		sum += trade.RealizedPct

		if trade.RealizedPct > best {
			best = trade.RealizedPct
		}

		if trade.RealizedPct < worst {
			worst = trade.RealizedPct
		}
	}

	return sum / float64(len(trades)), best, worst
}

// periodReturns computes per-period relative changes of the equity curve,
// skipping periods that start at or below zero equity.
func periodReturns(equityCurve []types.EquityPoint) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equityCurve)-1)

	for i := 1; i < len(equityCurve); i++ {
		prev := equityCurve[i-1].Equity
		if prev <= 0 {
			continue
		}

		returns = append(returns, equityCurve[i].Equity/prev-1)
	}

	return returns
}
