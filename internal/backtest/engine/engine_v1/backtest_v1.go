package engine

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeforge-lab/tradeforge/internal/backtest"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/commission"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/journal"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/slippage"
	"github.com/tradeforge-lab/tradeforge/internal/datasource"
	"github.com/tradeforge-lab/tradeforge/internal/kpi"
	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/risk"
	"github.com/tradeforge-lab/tradeforge/internal/strategy"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// forcedCloseStrength sorts risk-forced closes ahead of any strategy
// order when fills compete at the same timestamp. Strategy strengths are
// clamped to [0, 1].
const forcedCloseStrength = 2.0

// pendingOrder is an order waiting for its instrument's next bar, where
// it fills at the open.
type pendingOrder struct {
	order    types.Order
	strength float64
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

type BacktestEngineV1 struct {
	runCtx   *backtest.Context
	strategy strategy.Strategy
	source   datasource.DataSource
	log      *logger.Logger
	journal  *journal.Journal

	state     engine.State
	portfolio *Portfolio
	riskMgr   *risk.Manager
	fees      commission.Model
	slip      slippage.Model

	// per-run replay state
	history   map[string][]types.Bar
	lastSeen  map[string]time.Time
	pending   map[string][]pendingOrder
	barCount  int
	totalBars int
}

func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	return &BacktestEngineV1{
		log:   log,
		state: engine.StateIdle,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(runCtx *backtest.Context, strat strategy.Strategy, source datasource.DataSource) error {
	if runCtx == nil {
		return errors.New(errors.ErrCodeBacktestNotRunnable, "run context is nil")
	}

	if strat == nil {
		return errors.New(errors.ErrCodeBacktestNotRunnable, "strategy is nil")
	}

	if source == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "data source is nil")
	}

	b.runCtx = runCtx
	b.strategy = strat
	b.source = source
	b.fees = runCtx.FeeModel()
	b.slip = runCtx.SlippageModel()
	b.state = engine.StateIdle

	b.log.Debug("Backtest engine initialized",
		zap.String("strategy", strat.Name()),
		zap.Strings("universe", runCtx.Universe()),
	)

	return nil
}

// SetJournal attaches an optional run journal. Must be called before Run.
func (b *BacktestEngineV1) SetJournal(j *journal.Journal) {
	b.journal = j
}

// State implements engine.Engine.
func (b *BacktestEngineV1) State() engine.State {
	return b.state
}

// Portfolio exposes the run's portfolio. After a failed run it holds the
// state as of the failing bar.
func (b *BacktestEngineV1) Portfolio() *Portfolio {
	return b.portfolio
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	schema := (&backtest.Config{}).GenerateSchema()

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to marshal config schema", err)
	}

	return string(out), nil
}

// Run implements engine.Engine. Each call replays the full data set from
// a fresh portfolio; the previous run's state is discarded.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result *engine.Result, err error) {
	if b.runCtx == nil || b.strategy == nil || b.source == nil {
		return nil, errors.New(errors.ErrCodeBacktestNotRunnable, "engine is not initialized")
	}

	if b.state == engine.StateRunning {
		return nil, errors.New(errors.ErrCodeBacktestNotRunnable, "engine is already running")
	}

	runID := uuid.New().String()

	b.state = engine.StateRunning
	b.portfolio = NewPortfolio(b.runCtx.InitialCapital(), b.log)
	b.riskMgr = risk.NewManager(b.runCtx.Risk(), b.runCtx.InitialCapital())
	b.history = make(map[string][]types.Bar)
	b.lastSeen = make(map[string]time.Time)
	b.pending = make(map[string][]pendingOrder)
	b.barCount = 0

	defer func() {
		if err != nil {
			b.state = engine.StateFailed
		} else {
			b.state = engine.StateFinished
		}

		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(runID, err)
		}
	}()

	total, err := b.source.Count(b.runCtx.StartTime(), b.runCtx.EndTime())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to count bars", err)
	}

	b.totalBars = total

	if callbacks.OnRunStart != nil {
		if err = (*callbacks.OnRunStart)(runID, b.strategy.Name(), total); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestAborted, "aborted by run start callback", err)
		}
	}

	if err = b.replay(ctx, callbacks); err != nil {
		return nil, err
	}

	report := kpi.Compute(b.portfolio.Trades(), b.portfolio.EquityCurve(), b.runCtx.InitialCapital(), b.runCtx.PeriodsPerYear())

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("bars", b.barCount),
		zap.Int("trades", report.TotalTrades),
		zap.Float64("total_return_pct", report.TotalReturnPct),
	)

	return &engine.Result{
		RunID:         runID,
		StrategyName:  b.strategy.Name(),
		Report:        report,
		EquityCurve:   b.portfolio.EquityCurve(),
		Trades:        b.portfolio.Trades(),
		BarsProcessed: b.barCount,
	}, nil
}

// replay walks the merged timeline in groups of bars sharing a timestamp.
// Orders created in one group fill at their instrument's next bar open.
func (b *BacktestEngineV1) replay(ctx context.Context, callbacks engine.LifecycleCallbacks) error {
	var (
		group     []types.Bar
		groupTime time.Time
	)

	for bar, err := range b.source.ReadAll(b.runCtx.StartTime(), b.runCtx.EndTime()) {
		if err != nil {
			return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "data source read failed", err)
		}

		if len(group) > 0 && !bar.Time.Equal(groupTime) {
			if bar.Time.Before(groupTime) {
				return errors.Newf(errors.ErrCodeDataOutOfOrder,
					"bar for %s at %s arrives after timestamp %s", bar.Instrument, bar.Time, groupTime)
			}

			if err := b.processGroup(ctx, group, callbacks); err != nil {
				return err
			}

			group = group[:0]
		}

		groupTime = bar.Time
		group = append(group, bar)
	}

	if len(group) > 0 {
		if err := b.processGroup(ctx, group, callbacks); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) processGroup(ctx context.Context, group []types.Bar, callbacks engine.LifecycleCallbacks) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", err)
	}

	if err := b.executePending(group); err != nil {
		return err
	}

	for _, bar := range group {
		if last, seen := b.lastSeen[bar.Instrument]; seen && !bar.Time.After(last) {
			return errors.Newf(errors.ErrCodeDataOutOfOrder,
				"bar for %s at %s does not advance past %s", bar.Instrument, bar.Time, last)
		}

		b.lastSeen[bar.Instrument] = bar.Time

		if !b.runCtx.InUniverse(bar.Instrument) {
			continue
		}

		b.history[bar.Instrument] = append(b.history[bar.Instrument], bar)
		b.portfolio.ObservePrice(bar)

		b.checkStopLoss(bar)

		if err := b.runStrategy(bar); err != nil {
			return err
		}

		point, err := b.portfolio.MarkToMarket(bar)
		if err != nil {
			return err
		}

		b.riskMgr.ObserveEquity(point.Equity)

		if b.journal != nil {
			if err := b.journal.RecordEquity(point); err != nil {
				return err
			}
		}

		b.barCount++

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(b.barCount, b.totalBars); err != nil {
				return errors.Wrap(errors.ErrCodeBacktestAborted, "aborted by progress callback", err)
			}
		}
	}

	return nil
}

// executePending fills every queued order whose instrument trades in this
// group. Fills are ordered by strength, highest first, then instrument,
// so capital contention at one timestamp resolves deterministically.
func (b *BacktestEngineV1) executePending(group []types.Bar) error {
	barByInstrument := make(map[string]types.Bar, len(group))
	for _, bar := range group {
		barByInstrument[bar.Instrument] = bar
	}

	type executable struct {
		pending pendingOrder
		bar     types.Bar
	}

	var due []executable

	for instrument, queue := range b.pending {
		bar, trades := barByInstrument[instrument]
		if !trades {
			continue
		}

		for _, pending := range queue {
			due = append(due, executable{pending: pending, bar: bar})
		}

		delete(b.pending, instrument)
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].pending.strength != due[j].pending.strength {
			return due[i].pending.strength > due[j].pending.strength
		}

		return due[i].pending.order.Instrument < due[j].pending.order.Instrument
	})

	for _, item := range due {
		if err := b.fill(item.pending.order, item.bar); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) fill(order types.Order, bar types.Bar) error {
	f := executeOrder(order, bar, b.fees, b.slip)

	if order.Closing {
		trade, err := b.portfolio.Close(f, order.StrategyName)
		if err != nil {
			return err
		}

		return b.journalTrade(order, trade)
	}

	// the entry was approved a bar ago; sibling fills or the latch can have
	// invalidated it since
	if decision := b.riskMgr.ApproveFill(order.Instrument, b.portfolio); !decision.Approved {
		b.log.Debug("Order rejected at fill",
			zap.String("instrument", order.Instrument),
			zap.String("reason", decision.Reason.Reason),
		)

		order.Reason = decision.Reason

		return b.journalOrder(order, journal.OrderStatusRejected)
	}

	// cash can fall short of the sized notional when other fills at this
	// timestamp consumed it first
	required := f.Fee
	if f.Side == types.SideBuy {
		required += f.Notional()
	}

	if required > b.portfolio.Cash() {
		b.log.Debug("Order rejected at fill",
			zap.String("instrument", order.Instrument),
			zap.Float64("required", required),
			zap.Float64("cash", b.portfolio.Cash()),
		)

		order.Reason = types.Reason{
			Reason:  types.OrderReasonInsufficientCapital,
			Message: "cash exhausted by earlier fills at this timestamp",
		}

		return b.journalOrder(order, journal.OrderStatusRejected)
	}

	if err := b.portfolio.Open(f); err != nil {
		return err
	}

	return b.journalOrder(order, journal.OrderStatusFilled)
}

// checkStopLoss queues a forced close when the bar's adverse extreme
// breaches the stop. The close fills at the next bar open.
func (b *BacktestEngineV1) checkStopLoss(bar types.Bar) {
	position, open := b.portfolio.Position(bar.Instrument)
	if !open || b.hasPendingClose(bar.Instrument) {
		return
	}

	adverse := bar.Low
	if position.Type() == types.PositionTypeShort {
		adverse = bar.High
	}

	if !b.riskMgr.StopLossBreached(position, adverse) {
		return
	}

	b.enqueue(types.Order{
		ID:          uuid.New().String(),
		Instrument:  bar.Instrument,
		Side:        closingSide(position),
		Quantity:    absQuantity(position),
		SignalPrice: bar.Close,
		Time:        bar.Time,
		Closing:     true,
		Reason: types.Reason{
			Reason:  types.OrderReasonStopLoss,
			Message: "stop loss breached",
		},
		StrategyName: b.strategy.Name(),
	}, forcedCloseStrength)
}

func (b *BacktestEngineV1) runStrategy(bar types.Bar) error {
	signal, err := b.strategy.OnBar(b.history[bar.Instrument])
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed on %s", b.strategy.Name(), bar.Instrument)
	}

	if signal.Instrument == "" {
		signal.Instrument = bar.Instrument
	}

	switch signal.Action {
	case types.SignalActionHold:
		return nil
	case types.SignalActionClose:
		return b.handleClose(signal, bar)
	case types.SignalActionBuy, types.SignalActionSell:
		return b.handleEntry(signal, bar)
	default:
		return errors.Newf(errors.ErrCodeInvalidSignal, "strategy %s produced unknown action %q", b.strategy.Name(), signal.Action)
	}
}

func (b *BacktestEngineV1) handleClose(signal types.Signal, bar types.Bar) error {
	position, open := b.portfolio.Position(signal.Instrument)
	if !open {
		return b.journalOrder(types.Order{
			ID:          uuid.New().String(),
			Instrument:  signal.Instrument,
			Side:        types.SideSell,
			Quantity:    1,
			SignalPrice: bar.Close,
			Time:        bar.Time,
			Closing:     true,
			Reason: types.Reason{
				Reason:  types.OrderReasonNoPosition,
				Message: "close signal with no open position",
			},
			StrategyName: b.strategy.Name(),
		}, journal.OrderStatusRejected)
	}

	if b.hasPendingClose(signal.Instrument) {
		return nil
	}

	b.enqueue(types.Order{
		ID:          uuid.New().String(),
		Instrument:  signal.Instrument,
		Side:        closingSide(position),
		Quantity:    absQuantity(position),
		SignalPrice: bar.Close,
		Time:        bar.Time,
		Closing:     true,
		Reason: types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: signal.Reason,
		},
		StrategyName: b.strategy.Name(),
	}, signal.StrengthOrZero())

	return nil
}

func (b *BacktestEngineV1) handleEntry(signal types.Signal, bar types.Bar) error {
	if len(b.pending[signal.Instrument]) > 0 {
		return nil
	}

	decision := b.riskMgr.EvaluateEntry(signal, bar.Close, b.portfolio)

	side := types.SideBuy
	if signal.Action == types.SignalActionSell {
		side = types.SideSell
	}

	if !decision.Approved {
		b.log.Debug("Entry rejected",
			zap.String("instrument", signal.Instrument),
			zap.String("reason", decision.Reason.Reason),
		)

		return b.journalOrder(types.Order{
			ID:           uuid.New().String(),
			Instrument:   signal.Instrument,
			Side:         side,
			Quantity:     1,
			SignalPrice:  bar.Close,
			Time:         bar.Time,
			Reason:       decision.Reason,
			StrategyName: b.strategy.Name(),
		}, journal.OrderStatusRejected)
	}

	b.enqueue(types.Order{
		ID:           uuid.New().String(),
		Instrument:   signal.Instrument,
		Side:         side,
		Quantity:     decision.Quantity,
		SignalPrice:  bar.Close,
		Time:         bar.Time,
		Reason:       decision.Reason,
		StrategyName: b.strategy.Name(),
	}, signal.StrengthOrZero())

	return nil
}

func (b *BacktestEngineV1) enqueue(order types.Order, strength float64) {
	b.pending[order.Instrument] = append(b.pending[order.Instrument], pendingOrder{
		order:    order,
		strength: strength,
	})
}

func (b *BacktestEngineV1) hasPendingClose(instrument string) bool {
	for _, pending := range b.pending[instrument] {
		if pending.order.Closing {
			return true
		}
	}

	return false
}

func (b *BacktestEngineV1) journalOrder(order types.Order, status journal.OrderStatus) error {
	if b.journal == nil {
		return nil
	}

	return b.journal.RecordOrder(order, status)
}

func (b *BacktestEngineV1) journalTrade(order types.Order, trade types.Trade) error {
	if b.journal == nil {
		return nil
	}

	if err := b.journal.RecordOrder(order, journal.OrderStatusFilled); err != nil {
		return err
	}

	return b.journal.RecordTrade(trade)
}

func closingSide(position types.Position) types.Side {
	if position.Type() == types.PositionTypeLong {
		return types.SideSell
	}

	return types.SideBuy
}

func absQuantity(position types.Position) float64 {
	if position.Quantity < 0 {
		return -position.Quantity
	}

	return position.Quantity
}
