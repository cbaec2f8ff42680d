// Package core defines the shared types and port interfaces of the quoting engine
package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// IMarketData is the market-data port. Implementations are safe for
// concurrent use by every engine loop; the price getters read a locally
// maintained snapshot and must not block on I/O, which is why Start runs as
// a long-lived task that keeps that snapshot fresh.
type IMarketData interface {
	// Start runs until ctx is done, keeping the snapshot current.
	Start(ctx context.Context) error

	GetLastMidPrice(symbol string) (decimal.Decimal, error)
	GetLastTradePrice(symbol string) (decimal.Decimal, error)
	GetLastQuote(symbol string) (Quote, error)

	// GetPosition returns the signed position quantity, zero when flat.
	GetPosition(symbol string) int64
	// GetPositionEntry returns the full position record including the
	// average entry price; apperrors.ErrNoPosition when flat.
	GetPositionEntry(ctx context.Context, symbol string) (*Position, error)
}

// IOrderManager is the order-management port shared by all engines.
// Implementations must tolerate concurrent calls from 2N loop tasks.
type IOrderManager interface {
	// Start runs until ctx is done (session keepalive, fill processing).
	Start(ctx context.Context) error

	InsertOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAllOrders and CloseAllPositions are idempotent and used for the
	// one-time safety reset before any engine starts.
	CancelAllOrders(ctx context.Context) error
	CloseAllPositions(ctx context.Context) error
}

// IOrderJournal records order lifecycle events for audit. A nil journal is
// valid and means journaling is disabled.
type IOrderJournal interface {
	RecordSubmission(ctx context.Context, req *OrderRequest, res *OrderResult, submitErr error)
	RecordCancellation(ctx context.Context, orderID string, cancelErr error)
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
