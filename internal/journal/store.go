// Package journal persists order lifecycle events to SQLite for audit.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"market_quoter/internal/core"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event TEXT NOT NULL,
	symbol TEXT,
	side TEXT,
	order_type TEXT,
	price TEXT,
	quantity INTEGER,
	client_order_id TEXT,
	order_id TEXT,
	success INTEGER NOT NULL,
	error TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_events_symbol ON order_events(symbol);
`

// Store is a SQLite-backed order journal. Journal writes are best-effort:
// a failed insert is logged and the trading path continues.
type Store struct {
	db     *sql.DB
	logger core.ILogger
}

// NewStore opens (and if needed creates) the journal database
func NewStore(dbPath string, logger core.ILogger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.WithField("component", "journal"),
	}, nil
}

// RecordSubmission journals one InsertOrder outcome
func (s *Store) RecordSubmission(ctx context.Context, req *core.OrderRequest, res *core.OrderResult, submitErr error) {
	var (
		orderID string
		success bool
	)
	if res != nil {
		orderID = res.OrderID
		success = res.Success
	}

	query := `INSERT INTO order_events
		(event, symbol, side, order_type, price, quantity, client_order_id, order_id, success, error, created_at)
		VALUES ('submission', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		req.Symbol, string(req.Side), string(req.Type), req.Price.String(), req.Quantity,
		req.ClientOrderID, orderID, boolToInt(success && submitErr == nil), errString(submitErr),
		time.Now().UnixNano())
	if err != nil {
		s.logger.Error("Failed to journal submission", "symbol", req.Symbol, "error", err.Error())
	}
}

// RecordCancellation journals one CancelOrder outcome
func (s *Store) RecordCancellation(ctx context.Context, orderID string, cancelErr error) {
	query := `INSERT INTO order_events (event, order_id, success, error, created_at)
		VALUES ('cancellation', ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		orderID, boolToInt(cancelErr == nil), errString(cancelErr), time.Now().UnixNano())
	if err != nil {
		s.logger.Error("Failed to journal cancellation", "order_id", orderID, "error", err.Error())
	}
}

// Event is one journaled row
type Event struct {
	Event         string
	Symbol        string
	Side          string
	OrderType     string
	Price         string
	Quantity      int64
	ClientOrderID string
	OrderID       string
	Success       bool
	Error         string
}

// Events returns all journaled events for a symbol in insertion order.
// Cancellations carry no symbol and are excluded; use EventsByOrderID.
func (s *Store) Events(ctx context.Context, symbol string) ([]Event, error) {
	query := `SELECT event, symbol, side, order_type, price, quantity, client_order_id, order_id, success, error
		FROM order_events WHERE symbol = ? ORDER BY id`
	return s.queryEvents(ctx, query, symbol)
}

// EventsByOrderID returns all journaled events for one venue order ID
func (s *Store) EventsByOrderID(ctx context.Context, orderID string) ([]Event, error) {
	query := `SELECT event, symbol, side, order_type, price, quantity, client_order_id, order_id, success, error
		FROM order_events WHERE order_id = ? ORDER BY id`
	return s.queryEvents(ctx, query, orderID)
}

func (s *Store) queryEvents(ctx context.Context, query string, arg interface{}) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			symbol  sql.NullString
			side    sql.NullString
			otype   sql.NullString
			price   sql.NullString
			qty     sql.NullInt64
			coid    sql.NullString
			oid     sql.NullString
			success int
			errStr  sql.NullString
		)
		if err := rows.Scan(&e.Event, &symbol, &side, &otype, &price, &qty, &coid, &oid, &success, &errStr); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Symbol = symbol.String
		e.Side = side.String
		e.OrderType = otype.String
		e.Price = price.String
		e.Quantity = qty.Int64
		e.ClientOrderID = coid.String
		e.OrderID = oid.String
		e.Success = success == 1
		e.Error = errStr.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
