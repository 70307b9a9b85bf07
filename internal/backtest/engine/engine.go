package engine

import (
	"context"

	"github.com/tradeforge-lab/tradeforge/internal/backtest"
	"github.com/tradeforge-lab/tradeforge/internal/datasource"
	"github.com/tradeforge-lab/tradeforge/internal/strategy"
	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// State is the engine lifecycle state. Transitions are one-way:
// Idle -> Running -> Finished | Failed.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// Lifecycle callback types for backtest phases.
// Callbacks with an error return can abort execution by returning one.

// OnRunStartCallback is called once before the first bar, after the total
// bar count is known.
type OnRunStartCallback func(runID string, strategyName string, totalBars int) error

// OnProcessDataCallback is called after each bar is processed.
type OnProcessDataCallback func(current int, total int) error

// OnRunEndCallback is called when the run ends, with the run error if any
// (always called, via defer).
type OnRunEndCallback func(runID string, err error)

// LifecycleCallbacks holds the lifecycle callbacks for a run.
// All fields are pointers; nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnRunEnd      *OnRunEndCallback
}

// Result is the output of one completed run.
type Result struct {
	RunID         string                  `yaml:"run_id" json:"run_id"`
	StrategyName  string                  `yaml:"strategy_name" json:"strategy_name"`
	Report        types.PerformanceReport `yaml:"report" json:"report"`
	EquityCurve   []types.EquityPoint     `yaml:"equity_curve" json:"equity_curve"`
	Trades        []types.Trade           `yaml:"trades" json:"trades"`
	BarsProcessed int                     `yaml:"bars_processed" json:"bars_processed"`
}

// Engine replays market data through a strategy and produces a Result.
type Engine interface {
	// Initialize binds the validated run context, the strategy instance and
	// the data source. Must be called before Run.
	Initialize(runCtx *backtest.Context, strat strategy.Strategy, source datasource.DataSource) error
	// Run executes the replay. The context cancels the run between bars.
	// Use LifecycleCallbacks to receive progress notifications.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (*Result, error)
	// State returns the current lifecycle state.
	State() State
	// GetConfigSchema returns the JSON schema of the run configuration.
	GetConfigSchema() (string, error)
}
