package core

import (
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType controls the resting behaviour of an order at the venue.
type OrderType string

const (
	// OrderTypeDay rests until explicitly cancelled or market close.
	OrderTypeDay OrderType = "DAY"
	// OrderTypeIOC fills immediately (fully or partially) or is cancelled
	// by the venue; no follow-up cancel is needed.
	OrderTypeIOC OrderType = "IOC"
)

// Quote is a top-of-book snapshot for one symbol.
type Quote struct {
	BidPrice decimal.Decimal
	BidSize  int64
	AskPrice decimal.Decimal
	AskSize  int64
}

// Snapshot is an ephemeral market-data view, fetched fresh each cycle and
// never cached by the engine. Zero-valued prices mean "absent".
type Snapshot struct {
	LastTradePrice decimal.Decimal
	LastMidPrice   decimal.Decimal
	Quote          Quote
}

// Position is the externally-owned inventory record for one symbol. The
// engine only ever reads it; fills mutate it on the order-management side.
type Position struct {
	Symbol        string
	Qty           int64
	AvgEntryPrice decimal.Decimal
}

// OrderRequest is constructed fresh for every submission and never reused.
type OrderRequest struct {
	Symbol        string
	Price         decimal.Decimal
	Quantity      int64
	Side          Side
	Type          OrderType
	ClientOrderID string
}

// OrderResult reports the outcome of a submission. The engine keeps the
// identifier only long enough to cancel the order within the same cycle.
type OrderResult struct {
	Success bool
	OrderID string
}
