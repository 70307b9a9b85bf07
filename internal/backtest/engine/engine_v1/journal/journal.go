// Package journal records the order flow, closed trades and equity curve
// of a run in an in-memory duckdb database and exports them as Parquet
// files for offline analysis.
package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// OrderStatus records what happened to an order after the risk gate.
type OrderStatus string

const (
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
)

type Journal struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewJournal opens an in-memory duckdb database and creates the run
// tables.
func NewJournal(log *logger.Logger) (*Journal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "failed to open journal database", err)
	}

	j := &Journal{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return j, nil
}

func (j *Journal) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			instrument TEXT,
			side TEXT,
			quantity DOUBLE,
			signal_price DOUBLE,
			timestamp TIMESTAMP,
			closing BOOLEAN,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			instrument TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			fees DOUBLE,
			realized_pnl DOUBLE,
			realized_pct DOUBLE,
			reason TEXT,
			strategy_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS equity (
			timestamp TIMESTAMP,
			equity DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := j.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeJournalFailed, "failed to create journal tables", err)
		}
	}

	return nil
}

// RecordOrder inserts one order with its post-risk status.
func (j *Journal) RecordOrder(order types.Order, status OrderStatus) error {
	query := j.sq.
		Insert("orders").
		Columns(
			"order_id", "instrument", "side", "quantity", "signal_price",
			"timestamp", "closing", "status", "reason", "message", "strategy_name",
		).
		Values(
			order.ID, order.Instrument, string(order.Side), order.Quantity, order.SignalPrice,
			order.Time, order.Closing, string(status), order.Reason.Reason, order.Reason.Message, order.StrategyName,
		)

	if _, err := query.RunWith(j.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "failed to record order", err)
	}

	return nil
}

// RecordTrade inserts one closed trade.
func (j *Journal) RecordTrade(trade types.Trade) error {
	query := j.sq.
		Insert("trades").
		Columns(
			"trade_id", "instrument", "entry_time", "exit_time", "entry_price",
			"exit_price", "quantity", "fees", "realized_pnl", "realized_pct",
			"reason", "strategy_name",
		).
		Values(
			trade.ID, trade.Instrument, trade.EntryTime, trade.ExitTime, trade.EntryPrice,
			trade.ExitPrice, trade.Quantity, trade.Fees, trade.RealizedPnL, trade.RealizedPct,
			trade.Reason.Reason, trade.StrategyName,
		)

	if _, err := query.RunWith(j.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "failed to record trade", err)
	}

	return nil
}

// RecordEquity inserts one equity curve point.
func (j *Journal) RecordEquity(point types.EquityPoint) error {
	query := j.sq.
		Insert("equity").
		Columns("timestamp", "equity").
		Values(point.Time, point.Equity)

	if _, err := query.RunWith(j.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "failed to record equity point", err)
	}

	return nil
}

// CountOrders returns the number of recorded orders with the given status.
func (j *Journal) CountOrders(status OrderStatus) (int, error) {
	var count int

	err := j.sq.
		Select("COUNT(*)").
		From("orders").
		Where(squirrel.Eq{"status": string(status)}).
		RunWith(j.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count orders", err)
	}

	return count, nil
}

// Write exports the journal tables to Parquet files under path. The
// directory must exist.
func (j *Journal) Write(path string) error {
	// COPY has no placeholder support in squirrel, raw SQL per table
	exports := map[string]string{
		"orders": filepath.Join(path, "orders.parquet"),
		"trades": filepath.Join(path, "trades.parquet"),
		"equity": filepath.Join(path, "equity.parquet"),
	}

	for table, target := range exports {
		_, err := j.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, target))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeJournalFailed, err, "failed to export %s", table)
		}
	}

	j.log.Debug("Journal exported",
		zap.String("path", path),
	)

	return nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
