package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestSMA() {
	values := []float64{1, 2, 3, 4, 5}

	sma, err := SMA(values, 5)
	suite.Require().NoError(err)
	suite.InDelta(3.0, sma, 1e-9)

	sma, err = SMA(values, 2)
	suite.Require().NoError(err)
	suite.InDelta(4.5, sma, 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAInsufficientData() {
	_, err := SMA([]float64{1, 2}, 5)
	suite.Error(err)

	_, err = SMA([]float64{1, 2}, 0)
	suite.Error(err)
}

func (suite *IndicatorTestSuite) TestEMAConstantSeries() {
	values := []float64{10, 10, 10, 10, 10, 10}

	ema, err := EMA(values, 3)
	suite.Require().NoError(err)
	suite.InDelta(10.0, ema, 1e-9)
}

func (suite *IndicatorTestSuite) TestEMAFollowsTrend() {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	ema, err := EMA(up, 3)
	suite.Require().NoError(err)

	sma, err := SMA(up, 8)
	suite.Require().NoError(err)

	// EMA weights recent values more, so it sits above the full-series mean
	suite.Greater(ema, sma)
}

func (suite *IndicatorTestSuite) TestRSIAllGains() {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	rsi, err := RSI(values, 14)
	suite.Require().NoError(err)
	suite.InDelta(100.0, rsi, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIBalanced() {
	// Alternating +1/-1 changes: average gain equals average loss
	values := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}

	rsi, err := RSI(values, 10)
	suite.Require().NoError(err)
	suite.InDelta(50.0, rsi, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIInsufficientData() {
	_, err := RSI([]float64{1, 2, 3}, 14)
	suite.Error(err)
}

func (suite *IndicatorTestSuite) TestCloses() {
	bars := []types.Bar{
		{Instrument: "AAPL", Close: 10},
		{Instrument: "AAPL", Close: 11},
	}
	suite.Equal([]float64{10, 11}, Closes(bars))
}
