// Package risk gates strategy signals against the configured limits before
// they become orders. A Manager is created per run: the drawdown latch is
// run-scoped state and must not leak between backtests.
package risk

import (
	"math"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// PortfolioView is the read-only slice of portfolio state the risk rules
// need. The engine's portfolio satisfies it.
type PortfolioView interface {
	// Equity returns cash plus the mark-to-market value of all open positions.
	Equity() float64
	// OpenPositionCount returns the number of instruments with an open position.
	OpenPositionCount() int
	// Position returns the open position for an instrument, if any.
	Position(instrument string) (types.Position, bool)
}

// Decision is the outcome of evaluating one entry signal. A rejected
// decision carries the rule that fired; a rejected signal is a normal
// outcome, not an error.
type Decision struct {
	Approved bool
	// Quantity is the approved position size in units. Meaningful only
	// when Approved.
	Quantity float64
	Reason   types.Reason
}

func reject(reason, message string) Decision {
	return Decision{Approved: false, Reason: types.Reason{Reason: reason, Message: message}}
}

// Manager applies the risk limits to one backtest run.
type Manager struct {
	limits types.RiskLimits

	peakEquity float64
	latched    bool
}

// NewManager returns a Manager for a fresh run with the latch open and the
// equity peak seeded from the initial capital.
func NewManager(limits types.RiskLimits, initialCapital float64) *Manager {
	return &Manager{
		limits:     limits,
		peakEquity: initialCapital,
	}
}

// EvaluateEntry runs the entry rules in order against a BUY or SELL
// signal: the duplicate position check (the single-lot invariant), the
// concurrent position cap, position sizing, then the drawdown latch. The
// returned decision carries the approved quantity or the first rule that
// rejected the signal.
func (m *Manager) EvaluateEntry(signal types.Signal, price float64, view PortfolioView) Decision {
	if rejection, ok := m.checkEntry(signal.Instrument, view); !ok {
		return rejection
	}

	quantity := m.Size(view.Equity(), price)
	if quantity <= 0 {
		return reject(types.OrderReasonInsufficientCapital, "sized quantity is zero at current equity")
	}

	if m.latched {
		return reject(types.OrderReasonDrawdownLatch, "drawdown limit reached, new entries disabled for the rest of the run")
	}

	return Decision{
		Approved: true,
		Quantity: quantity,
		Reason:   types.Reason{Reason: types.OrderReasonStrategy, Message: signal.Reason},
	}
}

// ApproveFill re-checks the structural entry rules when a pending order
// reaches its fill bar. Orders fill a bar after they were approved, so a
// sibling fill can consume the last position slot and the latch can trip
// while the order is queued. Sizing is not repeated; the executor verifies
// cash against the fill price.
func (m *Manager) ApproveFill(instrument string, view PortfolioView) Decision {
	if rejection, ok := m.checkEntry(instrument, view); !ok {
		return rejection
	}

	if m.latched {
		return reject(types.OrderReasonDrawdownLatch, "drawdown limit reached, new entries disabled for the rest of the run")
	}

	return Decision{Approved: true}
}

func (m *Manager) checkEntry(instrument string, view PortfolioView) (Decision, bool) {
	if _, ok := view.Position(instrument); ok {
		return reject(types.OrderReasonDuplicatePosition, "position already open for "+instrument), false
	}

	if view.OpenPositionCount() >= m.limits.MaxConcurrentPositions {
		return reject(types.OrderReasonMaxPositions, "concurrent position limit reached"), false
	}

	return Decision{}, true
}

// Size returns the whole number of units affordable under the position
// size cap: floor(equity * max_position_size_pct / price). Zero when the
// price is not positive or equity cannot cover a single unit.
func (m *Manager) Size(equity, price float64) float64 {
	if price <= 0 || equity <= 0 {
		return 0
	}

	return math.Floor(equity * m.limits.MaxPositionSizePct / price)
}

// StopLossBreached reports whether the position's unrealized loss at the
// given price has reached the stop loss threshold. A zero threshold
// disables the stop.
func (m *Manager) StopLossBreached(position types.Position, price float64) bool {
	if m.limits.StopLossPct <= 0 {
		return false
	}

	return position.UnrealizedPnLPct(price) <= -m.limits.StopLossPct
}

// ObserveEquity feeds the end-of-bar equity into the drawdown tracker and
// closes the latch once drawdown from the peak reaches the limit. The
// latch is one-way: a later recovery never reopens entries within the run.
func (m *Manager) ObserveEquity(equity float64) {
	if equity > m.peakEquity {
		m.peakEquity = equity
	}

	if m.latched || m.limits.MaxDrawdownPct <= 0 || m.peakEquity <= 0 {
		return
	}

	drawdownPct := (m.peakEquity - equity) / m.peakEquity * 100
	if drawdownPct >= m.limits.MaxDrawdownPct {
		m.latched = true
	}
}

// Latched reports whether the drawdown latch has fired.
func (m *Manager) Latched() bool {
	return m.latched
}
