package matrix

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-lab/tradeforge/internal/backtest"
	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/strategy"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

type MatrixTestSuite struct {
	suite.Suite
}

func TestMatrixSuite(t *testing.T) {
	suite.Run(t, new(MatrixTestSuite))
}

func sweepBars(instrument string, prices ...float64) []types.Bar {
	bars := make([]types.Bar, len(prices))
	for i, price := range prices {
		bars[i] = types.Bar{
			Instrument: instrument,
			Time:       time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Open:       price,
			High:       price + 1,
			Low:        price - 1,
			Close:      price,
			Volume:     100000,
		}
	}

	return bars
}

func sweepConfig() backtest.Config {
	return backtest.Config{
		InitialCapital: 100000,
		Universe:       []string{"unused"},
		Risk: types.RiskLimits{
			MaxPositionSizePct:     0.5,
			MaxConcurrentPositions: 10,
		},
	}
}

func (suite *MatrixTestSuite) TestCellsExpandDeterministically() {
	sweep := Sweep{
		Strategies:  []string{"a", "b"},
		Instruments: []string{"X", "Y", "Z"},
	}

	cells := sweep.Cells()
	suite.Require().Len(cells, 6)
	suite.Equal(Cell{Strategy: "a", Instrument: "X"}, cells[0])
	suite.Equal(Cell{Strategy: "a", Instrument: "Y"}, cells[1])
	suite.Equal(Cell{Strategy: "a", Instrument: "Z"}, cells[2])
	suite.Equal(Cell{Strategy: "b", Instrument: "X"}, cells[3])

	// identical on re-expansion
	suite.Equal(cells, sweep.Cells())
}

func (suite *MatrixTestSuite) TestSweepIsolatesFailedCells() {
	var bars []types.Bar
	bars = append(bars, sweepBars("AAPL", 100, 101, 102, 103, 104, 105)...)
	bars = append(bars, sweepBars("MSFT", 200, 202, 204, 206, 208, 210)...)
	// GHOST has no bars at all

	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold, strategy.StrategyNameMACrossover},
		Instruments: []string{"AAPL", "GHOST", "MSFT"},
	}

	results, err := runner.Run(context.Background(), sweepConfig(), sweep, nil)
	suite.Require().NoError(err)
	suite.Require().Len(results, 6)

	for _, result := range results {
		if result.Cell.Instrument == "GHOST" {
			suite.Require().Error(result.Err, "cell %v", result.Cell)
			suite.True(errors.HasCode(result.Err, errors.ErrCodeNoDataFound))
			suite.Nil(result.Result)

			continue
		}

		suite.Require().NoError(result.Err, "cell %v", result.Cell)
		suite.Require().NotNil(result.Result, "cell %v", result.Cell)
		suite.Len(result.Result.EquityCurve, 6)
	}
}

func (suite *MatrixTestSuite) TestSweepIsDeterministic() {
	bars := sweepBars("AAPL", 100, 101, 102, 103, 104, 105)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold},
		Instruments: []string{"AAPL"},
	}

	first, err := runner.Run(context.Background(), sweepConfig(), sweep, nil)
	suite.Require().NoError(err)

	second, err := runner.Run(context.Background(), sweepConfig(), sweep, nil)
	suite.Require().NoError(err)

	suite.Require().Len(first, 1)
	suite.Require().Len(second, 1)
	suite.Equal(first[0].Result.Report, second[0].Result.Report)
	suite.Equal(first[0].Result.EquityCurve, second[0].Result.EquityCurve)
}

func (suite *MatrixTestSuite) TestProgressCallback() {
	bars := sweepBars("AAPL", 100, 101, 102)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold, strategy.StrategyNameRSIReversion},
		Instruments: []string{"AAPL"},
	}

	var calls atomic.Int32
	callback := OnCellDoneCallback(func(completed int, total int) {
		calls.Add(1)
		suite.Equal(2, total)
	})

	_, err := runner.Run(context.Background(), sweepConfig(), sweep, optional.Some(callback))
	suite.Require().NoError(err)
	suite.Equal(int32(2), calls.Load())
}

func (suite *MatrixTestSuite) TestEmptyConfigUniverseDefaultsToSweepInstruments() {
	bars := sweepBars("AAPL", 100, 101, 102)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	config := sweepConfig()
	config.Universe = nil

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold},
		Instruments: []string{"AAPL"},
	}

	results, err := runner.Run(context.Background(), config, sweep, nil)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.NoError(results[0].Err)
	suite.NotNil(results[0].Result)
}

func (suite *MatrixTestSuite) TestInvalidSharedConfigFailsSweep() {
	bars := sweepBars("AAPL", 100, 101, 102)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	config := sweepConfig()
	config.InitialCapital = -1

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold},
		Instruments: []string{"AAPL"},
	}

	_, err := runner.Run(context.Background(), config, sweep, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInitialCapital))
}

func (suite *MatrixTestSuite) TestJournalDirExportsPerCell() {
	bars := sweepBars("AAPL", 100, 101, 102, 103)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())
	journalDir := suite.T().TempDir()
	runner.SetJournalDir(journalDir)

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold},
		Instruments: []string{"AAPL"},
	}

	results, err := runner.Run(context.Background(), sweepConfig(), sweep, nil)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Require().NoError(results[0].Err)

	cellDir := filepath.Join(journalDir, CellDir(results[0].Cell, 0))
	for _, name := range []string{"orders.parquet", "trades.parquet", "equity.parquet"} {
		_, statErr := os.Stat(filepath.Join(cellDir, name))
		suite.NoError(statErr, name)
	}
}

func (suite *MatrixTestSuite) TestCancelledSweepSurfacesError() {
	bars := sweepBars("AAPL", 100, 101, 102)
	runner := NewRunner(strategy.NewDefaultRegistry(), bars, logger.NewNopLogger())

	sweep := Sweep{
		Strategies:  []string{strategy.StrategyNameBuyAndHold},
		Instruments: []string{"AAPL"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runner.Run(ctx, sweepConfig(), sweep, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestCancelled))

	// the cancelled cell carries an error, no partial report
	suite.Require().Len(results, 1)
	suite.Error(results[0].Err)
	suite.Nil(results[0].Result)
}
