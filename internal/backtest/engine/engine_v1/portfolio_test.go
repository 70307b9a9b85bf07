package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

type PortfolioTestSuite struct {
	suite.Suite
	portfolio *Portfolio
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

func (suite *PortfolioTestSuite) SetupTest() {
	suite.portfolio = NewPortfolio(100000, logger.NewNopLogger())
}

func fillAt(instrument string, side types.Side, quantity, price, fee float64, day int, closing bool) types.Fill {
	return types.Fill{
		OrderID:    uuid.New().String(),
		Instrument: instrument,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Fee:        fee,
		Time:       time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Closing:    closing,
		Reason:     types.Reason{Reason: types.OrderReasonStrategy},
	}
}

func (suite *PortfolioTestSuite) TestOpenLong() {
	err := suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 100, 100, 1, 2, false))
	suite.Require().NoError(err)

	suite.InDelta(89999.0, suite.portfolio.Cash(), 1e-9)
	suite.Equal(1, suite.portfolio.OpenPositionCount())

	position, ok := suite.portfolio.Position("AAPL")
	suite.Require().True(ok)
	suite.Equal(100.0, position.Quantity)
	suite.Equal(100.0, position.EntryPrice)

	// equity = cash + position value = initial - fee
	suite.InDelta(99999.0, suite.portfolio.Equity(), 1e-6)
}

func (suite *PortfolioTestSuite) TestOpenShort() {
	err := suite.portfolio.Open(fillAt("AAPL", types.SideSell, 100, 100, 0, 2, false))
	suite.Require().NoError(err)

	// short sale proceeds land in cash
	suite.InDelta(110000.0, suite.portfolio.Cash(), 1e-9)

	position, ok := suite.portfolio.Position("AAPL")
	suite.Require().True(ok)
	suite.Equal(-100.0, position.Quantity)

	suite.InDelta(100000.0, suite.portfolio.Equity(), 1e-6)
}

func (suite *PortfolioTestSuite) TestOpenDuplicateFails() {
	suite.Require().NoError(suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 100, 100, 0, 2, false)))

	err := suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 50, 101, 0, 3, false))
	suite.Error(err)
}

func (suite *PortfolioTestSuite) TestCloseLongRoundTrip() {
	suite.Require().NoError(suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 100, 100, 1, 2, false)))

	trade, err := suite.portfolio.Close(fillAt("AAPL", types.SideSell, 100, 110, 1, 5, true), "buy_and_hold")
	suite.Require().NoError(err)

	// (110-100)*100 - 2 fees
	suite.InDelta(998.0, trade.RealizedPnL, 1e-9)
	suite.Equal("buy_and_hold", trade.StrategyName)
	suite.Zero(suite.portfolio.OpenPositionCount())
	suite.InDelta(100998.0, suite.portfolio.Cash(), 1e-9)
	suite.InDelta(100998.0, suite.portfolio.Equity(), 1e-6)
	suite.Len(suite.portfolio.Trades(), 1)
}

func (suite *PortfolioTestSuite) TestCloseShortRoundTrip() {
	suite.Require().NoError(suite.portfolio.Open(fillAt("AAPL", types.SideSell, 100, 100, 0, 2, false)))

	trade, err := suite.portfolio.Close(fillAt("AAPL", types.SideBuy, 100, 90, 0, 5, true), "short_test")
	suite.Require().NoError(err)

	// (90-100)*(-100)
	suite.InDelta(1000.0, trade.RealizedPnL, 1e-9)
	suite.InDelta(101000.0, suite.portfolio.Equity(), 1e-6)
}

func (suite *PortfolioTestSuite) TestCloseWithoutPositionFails() {
	_, err := suite.portfolio.Close(fillAt("AAPL", types.SideSell, 100, 110, 0, 5, true), "s")
	suite.Error(err)
}

func (suite *PortfolioTestSuite) TestMarkToMarketAppendsEquityPoints() {
	suite.Require().NoError(suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 100, 100, 0, 2, false)))

	bar := types.Bar{
		Instrument: "AAPL",
		Time:       time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Open:       100, High: 106, Low: 100, Close: 105, Volume: 1000,
	}
	suite.portfolio.ObservePrice(bar)

	point, err := suite.portfolio.MarkToMarket(bar)
	suite.Require().NoError(err)
	suite.InDelta(100500.0, point.Equity, 1e-6)
	suite.Len(suite.portfolio.EquityCurve(), 1)

	_, err = suite.portfolio.MarkToMarket(bar)
	suite.Require().NoError(err)
	suite.Len(suite.portfolio.EquityCurve(), 2)
}

func (suite *PortfolioTestSuite) TestReconciliationHoldsAcrossFlow() {
	suite.Require().NoError(suite.portfolio.Open(fillAt("AAPL", types.SideBuy, 100, 100, 2, 2, false)))
	suite.Require().NoError(suite.portfolio.Open(fillAt("MSFT", types.SideSell, 50, 200, 2, 2, false)))

	marks := []struct {
		day   int
		price float64
	}{{3, 105}, {4, 95}}

	for _, mark := range marks {
		day, price := mark.day, mark.price
		bar := types.Bar{
			Instrument: "AAPL",
			Time:       time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
			Open:       price, High: price + 1, Low: price - 1, Close: price, Volume: 1000,
		}
		suite.portfolio.ObservePrice(bar)

		_, err := suite.portfolio.MarkToMarket(bar)
		suite.Require().NoError(err)
	}

	_, err := suite.portfolio.Close(fillAt("AAPL", types.SideSell, 100, 95, 2, 5, true), "s")
	suite.Require().NoError(err)

	_, err = suite.portfolio.Close(fillAt("MSFT", types.SideBuy, 50, 190, 2, 5, true), "s")
	suite.Require().NoError(err)

	// initial - 4 entry fees - 4 exit fees are all accounted for
	// AAPL pnl: -500 gross, MSFT pnl: +500 gross, fees total 8
	suite.InDelta(99992.0, suite.portfolio.Equity(), 1e-6)
}
