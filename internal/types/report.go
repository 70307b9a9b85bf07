package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EquityPoint is one sample of the equity curve: total portfolio value
// (cash plus mark-to-market positions) at a bar's timestamp.
type EquityPoint struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Equity float64   `yaml:"equity" json:"equity" csv:"equity"`
}

// PerformanceReport is the standardized result of one backtest run. It is
// derived entirely from the closed trades and the equity curve at run end
// and never mutated afterward.
type PerformanceReport struct {
	// TotalReturnPct is (final equity / initial capital - 1) * 100.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// SharpeRatio is the annualized mean/stddev of per-bar returns. Zero
	// when the equity curve is flat.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdownPct is the largest percentage decline from a running
	// equity peak.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// WinRatePct is winning trades / total trades * 100. Zero when there
	// are no trades.
	WinRatePct float64 `yaml:"win_rate_pct" json:"win_rate_pct"`
	// AvgTradePct is the mean realized return per trade.
	AvgTradePct float64 `yaml:"avg_trade_pct" json:"avg_trade_pct"`
	// TotalTrades is the number of closed trades.
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// BestTradePct is the highest realized return of any trade.
	BestTradePct float64 `yaml:"best_trade_pct" json:"best_trade_pct"`
	// WorstTradePct is the lowest realized return of any trade.
	WorstTradePct float64 `yaml:"worst_trade_pct" json:"worst_trade_pct"`
}

// WritePerformanceReport marshals a report to YAML at the given path.
func WritePerformanceReport(path string, report PerformanceReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal performance report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance report to file: %w", err)
	}

	return nil
}
