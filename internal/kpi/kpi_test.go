package kpi

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

type KPITestSuite struct {
	suite.Suite
}

func TestKPISuite(t *testing.T) {
	suite.Run(t, new(KPITestSuite))
}

func curve(values ...float64) []types.EquityPoint {
	points := make([]types.EquityPoint, len(values))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, v := range values {
		points[i] = types.EquityPoint{Time: start.AddDate(0, 0, i), Equity: v}
	}

	return points
}

func (suite *KPITestSuite) TestEmptyInputs() {
	report := Compute(nil, nil, 100000, DefaultPeriodsPerYear)
	suite.Zero(report.TotalReturnPct)
	suite.Zero(report.SharpeRatio)
	suite.Zero(report.MaxDrawdownPct)
	suite.Zero(report.WinRatePct)
	suite.Zero(report.AvgTradePct)
	suite.Zero(report.TotalTrades)
	suite.Zero(report.BestTradePct)
	suite.Zero(report.WorstTradePct)

	// No NaN anywhere on empty input
	suite.False(math.IsNaN(report.SharpeRatio))
}

func (suite *KPITestSuite) TestTotalReturnPct() {
	suite.InDelta(10.0, TotalReturnPct(curve(100000, 105000, 110000), 100000), 1e-9)
	suite.InDelta(-25.0, TotalReturnPct(curve(100000, 75000), 100000), 1e-9)
	suite.Zero(TotalReturnPct(nil, 100000))
	suite.Zero(TotalReturnPct(curve(100000), 0))
}

func (suite *KPITestSuite) TestMaxDrawdownPct() {
	// Peak 120, trough 90: 25%
	suite.InDelta(25.0, MaxDrawdownPct(curve(100, 120, 90, 110)), 1e-9)
	// Monotonic rise: no drawdown
	suite.Zero(MaxDrawdownPct(curve(100, 110, 120)))
	suite.Zero(MaxDrawdownPct(nil))
}

func (suite *KPITestSuite) TestMaxDrawdownRecoveryDoesNotErase() {
	// Recovery to a new high must not reduce the recorded drawdown
	dd := MaxDrawdownPct(curve(100, 50, 200))
	suite.InDelta(50.0, dd, 1e-9)
}

func (suite *KPITestSuite) TestSharpeFlatCurveIsZero() {
	suite.Zero(SharpeRatio(curve(100, 100, 100, 100), DefaultPeriodsPerYear))
	suite.Zero(SharpeRatio(curve(100), DefaultPeriodsPerYear))
	suite.Zero(SharpeRatio(nil, DefaultPeriodsPerYear))
}

func (suite *KPITestSuite) TestSharpeSignFollowsTrend() {
	up := SharpeRatio(curve(100, 101, 103, 104, 107), DefaultPeriodsPerYear)
	suite.Positive(up)

	down := SharpeRatio(curve(107, 104, 103, 101, 100), DefaultPeriodsPerYear)
	suite.Negative(down)
}

func (suite *KPITestSuite) TestWinRatePct() {
	trades := []types.Trade{
		{RealizedPnL: 100, RealizedPct: 1},
		{RealizedPnL: -50, RealizedPct: -0.5},
		{RealizedPnL: 200, RealizedPct: 2},
		{RealizedPnL: 0, RealizedPct: 0},
	}
	// Break-even trades do not count as wins
	suite.InDelta(50.0, WinRatePct(trades), 1e-9)
	suite.Zero(WinRatePct(nil))
}

func (suite *KPITestSuite) TestTradeStats() {
	trades := []types.Trade{
		{RealizedPct: 2},
		{RealizedPct: -1},
		{RealizedPct: 5},
	}

	avg, best, worst := TradeStats(trades)
	suite.InDelta(2.0, avg, 1e-9)
	suite.InDelta(5.0, best, 1e-9)
	suite.InDelta(-1.0, worst, 1e-9)

	avg, best, worst = TradeStats(nil)
	suite.Zero(avg)
	suite.Zero(best)
	suite.Zero(worst)
}

func (suite *KPITestSuite) TestComputeFullReport() {
	trades := []types.Trade{
		{RealizedPnL: 5000, RealizedPct: 5},
		{RealizedPnL: 5000, RealizedPct: 5},
	}
	equity := curve(100000, 104000, 110000)

	report := Compute(trades, equity, 100000, DefaultPeriodsPerYear)
	suite.InDelta(10.0, report.TotalReturnPct, 1e-9)
	suite.InDelta(100.0, report.WinRatePct, 1e-9)
	suite.Equal(2, report.TotalTrades)
	suite.InDelta(5.0, report.AvgTradePct, 1e-9)
	suite.InDelta(5.0, report.BestTradePct, 1e-9)
	suite.InDelta(5.0, report.WorstTradePct, 1e-9)
	suite.Positive(report.SharpeRatio)
}
