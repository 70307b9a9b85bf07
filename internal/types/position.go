package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionType string

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

// Position is the open interest for one instrument: a single aggregate lot.
// Quantity is signed, positive for long and negative for short. Positions
// are owned exclusively by the portfolio.
type Position struct {
	Instrument string    `yaml:"instrument" json:"instrument" csv:"instrument"`
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryFee   float64   `yaml:"entry_fee" json:"entry_fee" csv:"entry_fee"`
}

// Type returns LONG for positive quantity, SHORT otherwise.
func (p *Position) Type() PositionType {
	if p.Quantity >= 0 {
		return PositionTypeLong
	}

	return PositionTypeShort
}

// MarketValue returns the signed mark-to-market value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	value, _ := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(price)).Float64()

	return value
}

// UnrealizedPnL returns (price - entry) * quantity. Quantity is signed,
// so a falling price yields a gain on a short.
func (p *Position) UnrealizedPnL(price float64) float64 {
	deltaDec := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(p.EntryPrice))
	pnl, _ := deltaDec.Mul(decimal.NewFromFloat(p.Quantity)).Float64()

	return pnl
}

// UnrealizedPnLPct returns the unrealized return relative to the entry
// notional, in percent. Zero when the entry notional is zero.
func (p *Position) UnrealizedPnLPct(price float64) float64 {
	entryDec := decimal.NewFromFloat(p.EntryPrice).Mul(decimal.NewFromFloat(p.Quantity)).Abs()
	if entryDec.IsZero() {
		return 0
	}

	pnlDec := decimal.NewFromFloat(p.UnrealizedPnL(price))
	pct, _ := pnlDec.Div(entryDec).Mul(decimal.NewFromInt(100)).Float64()

	return pct
}

// Trade is one closed round trip. Immutable once created; appended to the
// portfolio's trade log on exit.
type Trade struct {
	ID           string    `yaml:"id" json:"id" csv:"id"`
	Instrument   string    `yaml:"instrument" json:"instrument" csv:"instrument"`
	EntryTime    time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime     time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	EntryPrice   float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice    float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Quantity     float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Fees         float64   `yaml:"fees" json:"fees" csv:"fees"`
	RealizedPnL  float64   `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	RealizedPct  float64   `yaml:"realized_pnl_pct" json:"realized_pnl_pct" csv:"realized_pnl_pct"`
	Reason       Reason    `yaml:"reason" json:"reason" csv:"reason"`
	StrategyName string    `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
}

// NewTrade computes the realized result of closing a position. The pnl is
// (exit - entry) * quantity - total fees, with the signed quantity keeping
// the arithmetic correct for shorts.
func NewTrade(id string, pos Position, exitPrice float64, exitTime time.Time, exitFee float64, reason Reason, strategyName string) Trade {
	entryDec := decimal.NewFromFloat(pos.EntryPrice)
	exitDec := decimal.NewFromFloat(exitPrice)
	qtyDec := decimal.NewFromFloat(pos.Quantity)
	feesDec := decimal.NewFromFloat(pos.EntryFee).Add(decimal.NewFromFloat(exitFee))

	grossDec := exitDec.Sub(entryDec).Mul(qtyDec)
	netDec := grossDec.Sub(feesDec)
	pnl, _ := netDec.Float64()
	fees, _ := feesDec.Float64()

	pct := 0.0

	entryNotionalDec := entryDec.Mul(qtyDec).Abs()
	if !entryNotionalDec.IsZero() {
		pct, _ = netDec.Div(entryNotionalDec).Mul(decimal.NewFromInt(100)).Float64()
	}

	return Trade{
		ID:           id,
		Instrument:   pos.Instrument,
		EntryTime:    pos.EntryTime,
		ExitTime:     exitTime,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    exitPrice,
		Quantity:     pos.Quantity,
		Fees:         fees,
		RealizedPnL:  pnl,
		RealizedPct:  pct,
		Reason:       reason,
		StrategyName: strategyName,
	}
}
