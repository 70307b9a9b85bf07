// Package matrix sweeps the cartesian product of strategies, instruments
// and parameter sets, running one isolated backtest per cell. The sweep is
// the only concurrency boundary: each cell owns its engine, portfolio and
// data source.
package matrix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/moznion/go-optional"
	"golang.org/x/sync/errgroup"

	"github.com/tradeforge-lab/tradeforge/internal/backtest"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine"
	enginev1 "github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/journal"
	"github.com/tradeforge-lab/tradeforge/internal/datasource"
	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/strategy"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// Cell is one combination in the sweep.
type Cell struct {
	Strategy   string          `yaml:"strategy" json:"strategy"`
	Instrument string          `yaml:"instrument" json:"instrument"`
	Params     strategy.Params `yaml:"params" json:"params"`
}

// CellResult pairs a cell with its outcome. Exactly one of Result and Err
// is set: a failed or cancelled cell carries its error and no report.
type CellResult struct {
	Cell   Cell
	Result *engine.Result
	Err    error
}

// Sweep describes the product to run. Empty param sets means one run per
// strategy/instrument pair with default parameters.
type Sweep struct {
	Strategies  []string          `yaml:"strategies" json:"strategies"`
	Instruments []string          `yaml:"instruments" json:"instruments"`
	ParamSets   []strategy.Params `yaml:"param_sets" json:"param_sets"`
}

// Cells expands the sweep in deterministic order: strategies, then
// instruments, then parameter sets.
func (s Sweep) Cells() []Cell {
	paramSets := s.ParamSets
	if len(paramSets) == 0 {
		paramSets = []strategy.Params{nil}
	}

	cells := make([]Cell, 0, len(s.Strategies)*len(s.Instruments)*len(paramSets))

	for _, strategyName := range s.Strategies {
		for _, instrument := range s.Instruments {
			for _, params := range paramSets {
				cells = append(cells, Cell{
					Strategy:   strategyName,
					Instrument: instrument,
					Params:     params,
				})
			}
		}
	}

	return cells
}

// OnCellDoneCallback reports sweep progress after each cell completes.
type OnCellDoneCallback func(completed int, total int)

// Runner executes sweeps against a shared bar set.
type Runner struct {
	registry   strategy.Registry
	bars       []types.Bar
	log        *logger.Logger
	journalDir string
}

// NewRunner builds a sweep runner. The bar slice is shared read-only
// across cells; each cell filters its own instrument out of it.
func NewRunner(registry strategy.Registry, bars []types.Bar, log *logger.Logger) *Runner {
	return &Runner{
		registry: registry,
		bars:     bars,
		log:      log,
	}
}

// SetJournalDir enables per-cell journaling: each cell's order flow,
// trades and equity curve are exported as Parquet files under
// dir/<strategy>_<instrument>_<cell index>.
func (r *Runner) SetJournalDir(dir string) {
	r.journalDir = dir
}

// CellDir returns the export directory for a cell, relative to the
// journal dir.
func CellDir(cell Cell, index int) string {
	return fmt.Sprintf("%s_%s_%d", cell.Strategy, cell.Instrument, index)
}

// Run executes every cell of the sweep with bounded parallelism. The
// shared config is validated once up front; an invalid config fails the
// sweep before any cell starts. Cell failures are recorded in their
// CellResult and never affect sibling cells; cancellation discards the
// unfinished cells' partial results and surfaces the context error.
func (r *Runner) Run(ctx context.Context, config backtest.Config, sweep Sweep, onCellDone optional.Option[OnCellDoneCallback]) ([]CellResult, error) {
	cells := sweep.Cells()
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNotRunnable, "sweep expands to zero cells")
	}

	if len(config.Universe) == 0 {
		config.Universe = sweep.Instruments
	}

	baseCtx, err := backtest.NewContext(config)
	if err != nil {
		return nil, err
	}

	results := make([]CellResult, len(cells))

	var (
		mu        sync.Mutex
		completed int
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for i, cell := range cells {
		group.Go(func() error {
			results[i] = r.runCell(gctx, baseCtx, cell, i)

			if callback, err := onCellDone.Take(); err == nil {
				mu.Lock()
				completed++
				current := completed
				mu.Unlock()

				callback(current, len(cells))
			}

			// cell isolation: errors stay in the result slot
			return nil
		})
	}

	// goroutines never return errors, Wait only joins them
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return results, errors.Wrap(errors.ErrCodeBacktestCancelled, "sweep cancelled", err)
	}

	return results, nil
}

func (r *Runner) runCell(ctx context.Context, baseCtx *backtest.Context, cell Cell, index int) CellResult {
	result := CellResult{Cell: cell}

	strat, err := r.registry.Create(cell.Strategy, cell.Params)
	if err != nil {
		result.Err = err
		return result
	}

	runCtx, err := baseCtx.WithUniverse(cell.Instrument)
	if err != nil {
		result.Err = err
		return result
	}

	source, err := datasource.NewMemoryDataSource(r.instrumentBars(cell.Instrument))
	if err != nil {
		result.Err = err
		return result
	}

	e := enginev1.NewBacktestEngineV1(logger.NewNopLogger())
	if err := e.Initialize(runCtx, strat, source); err != nil {
		result.Err = err
		return result
	}

	var cellJournal *journal.Journal

	if r.journalDir != "" {
		cellJournal, err = journal.NewJournal(r.log)
		if err != nil {
			result.Err = err
			return result
		}

		defer cellJournal.Close()

		e.SetJournal(cellJournal)
	}

	runResult, err := e.Run(ctx, engine.LifecycleCallbacks{})
	if err != nil {
		result.Err = err
		return result
	}

	if cellJournal != nil {
		exportDir := filepath.Join(r.journalDir, CellDir(cell, index))
		if err := os.MkdirAll(exportDir, 0755); err != nil {
			result.Err = errors.Wrap(errors.ErrCodeJournalFailed, "failed to create cell export dir", err)
			return result
		}

		if err := cellJournal.Write(exportDir); err != nil {
			result.Err = err
			return result
		}
	}

	result.Result = runResult

	return result
}

func (r *Runner) instrumentBars(instrument string) []types.Bar {
	var bars []types.Bar

	for _, bar := range r.bars {
		if bar.Instrument == instrument {
			bars = append(bars, bar)
		}
	}

	return bars
}
