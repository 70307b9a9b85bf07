package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// reconcileTolerance is the relative tolerance for the accounting
// identity cash + sum(position value) == equity.
const reconcileTolerance = 1e-6

// Portfolio tracks cash, open positions, closed trades and the equity
// curve for one run. Not safe for concurrent use; the engine owns it.
type Portfolio struct {
	initialCapital float64
	cash           float64
	positions      map[string]types.Position
	trades         []types.Trade
	equityCurve    []types.EquityPoint
	lastPrices     map[string]float64
	log            *logger.Logger
}

func NewPortfolio(initialCapital float64, log *logger.Logger) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]types.Position),
		lastPrices:     make(map[string]float64),
		log:            log,
	}
}

func (p *Portfolio) Cash() float64 { return p.cash }

// Equity returns cash plus the mark-to-market value of all open
// positions at the last observed prices.
func (p *Portfolio) Equity() float64 {
	equity := decimal.NewFromFloat(p.cash)

	for instrument, position := range p.positions {
		price, ok := p.lastPrices[instrument]
		if !ok {
			price = position.EntryPrice
		}

		equity = equity.Add(decimal.NewFromFloat(position.MarketValue(price)))
	}

	value, _ := equity.Float64()

	return value
}

func (p *Portfolio) OpenPositionCount() int { return len(p.positions) }

func (p *Portfolio) Position(instrument string) (types.Position, bool) {
	position, ok := p.positions[instrument]
	return position, ok
}

// Positions returns the open positions in no particular order.
func (p *Portfolio) Positions() []types.Position {
	positions := make([]types.Position, 0, len(p.positions))
	for _, position := range p.positions {
		positions = append(positions, position)
	}

	return positions
}

func (p *Portfolio) Trades() []types.Trade { return p.trades }

func (p *Portfolio) EquityCurve() []types.EquityPoint { return p.equityCurve }

// ObservePrice records the latest close for mark-to-market valuation.
func (p *Portfolio) ObservePrice(bar types.Bar) {
	p.lastPrices[bar.Instrument] = bar.Close
}

// Open books an entry fill: cash pays the signed notional plus the fee
// and the position carries the entry fee until the round trip closes.
func (p *Portfolio) Open(fill types.Fill) error {
	if _, exists := p.positions[fill.Instrument]; exists {
		return errors.Newf(errors.ErrCodeOrderFailed, "position already open for %s", fill.Instrument)
	}

	signedQty := fill.Quantity
	if fill.Side == types.SideSell {
		signedQty = -signedQty
	}

	cost := decimal.NewFromFloat(signedQty).
		Mul(decimal.NewFromFloat(fill.Price)).
		Add(decimal.NewFromFloat(fill.Fee))

	cashDec := decimal.NewFromFloat(p.cash).Sub(cost)
	p.cash, _ = cashDec.Float64()

	p.positions[fill.Instrument] = types.Position{
		Instrument: fill.Instrument,
		Quantity:   signedQty,
		EntryPrice: fill.Price,
		EntryTime:  fill.Time,
		EntryFee:   fill.Fee,
	}
	p.lastPrices[fill.Instrument] = fill.Price

	p.log.Debug("Position opened",
		zap.String("instrument", fill.Instrument),
		zap.Float64("quantity", signedQty),
		zap.Float64("price", fill.Price),
	)

	return p.reconcile()
}

// Close books an exit fill: the whole lot is liquidated at the fill
// price, cash receives the signed notional minus the fee, and the
// realized round trip is appended to the trade log.
func (p *Portfolio) Close(fill types.Fill, strategyName string) (types.Trade, error) {
	position, exists := p.positions[fill.Instrument]
	if !exists {
		return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "no position to close for %s", fill.Instrument)
	}

	proceeds := decimal.NewFromFloat(position.Quantity).
		Mul(decimal.NewFromFloat(fill.Price)).
		Sub(decimal.NewFromFloat(fill.Fee))

	cashDec := decimal.NewFromFloat(p.cash).Add(proceeds)
	p.cash, _ = cashDec.Float64()

	trade := types.NewTrade(uuid.New().String(), position, fill.Price, fill.Time, fill.Fee, fill.Reason, strategyName)

	delete(p.positions, fill.Instrument)
	p.lastPrices[fill.Instrument] = fill.Price
	p.trades = append(p.trades, trade)

	p.log.Debug("Position closed",
		zap.String("instrument", fill.Instrument),
		zap.Float64("pnl", trade.RealizedPnL),
		zap.String("reason", trade.Reason.Reason),
	)

	if err := p.reconcile(); err != nil {
		return types.Trade{}, err
	}

	return trade, nil
}

// MarkToMarket appends one equity point for the bar and re-checks the
// accounting identity.
func (p *Portfolio) MarkToMarket(bar types.Bar) (types.EquityPoint, error) {
	point := types.EquityPoint{Time: bar.Time, Equity: p.Equity()}
	p.equityCurve = append(p.equityCurve, point)

	return point, p.reconcile()
}

// reconcile cross-checks cash + position value against the capital flow
// ledger: initial capital, plus realized pnl (net of fees), plus
// unrealized pnl, minus entry fees still carried by open positions. A
// mismatch beyond the relative tolerance means the bookkeeping is
// corrupt and the run must die.
func (p *Portfolio) reconcile() error {
	actual := p.Equity()

	expected := decimal.NewFromFloat(p.initialCapital)
	for _, trade := range p.trades {
		expected = expected.Add(decimal.NewFromFloat(trade.RealizedPnL))
	}

	for instrument, position := range p.positions {
		price, ok := p.lastPrices[instrument]
		if !ok {
			price = position.EntryPrice
		}

		expected = expected.
			Add(decimal.NewFromFloat(position.UnrealizedPnL(price))).
			Sub(decimal.NewFromFloat(position.EntryFee))
	}

	expectedValue, _ := expected.Float64()

	scale := math.Max(math.Abs(expectedValue), math.Abs(actual))
	if scale < 1 {
		scale = 1
	}

	if math.Abs(expectedValue-actual)/scale > reconcileTolerance {
		return errors.Newf(errors.ErrCodeReconciliation,
			"portfolio reconciliation failed: cash %v + positions != expected equity %v (got %v)",
			p.cash, expectedValue, actual)
	}

	return nil
}
