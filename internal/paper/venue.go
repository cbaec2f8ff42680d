// Package paper provides an in-process trading venue and simulated market
// for running the quoter without external connectivity.
package paper

import (
	"context"
	"fmt"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"sync"

	"github.com/shopspring/decimal"
)

type restingOrder struct {
	id  string
	req core.OrderRequest
}

// Venue implements the order-management port against an in-memory book.
// DAY orders rest until the market crosses them or they are cancelled; IOC
// orders fill against the current quote or die immediately. Fills maintain
// signed positions with average entry prices.
type Venue struct {
	mu       sync.Mutex
	logger   core.ILogger
	orderSeq int64

	resting   map[string]*restingOrder
	positions map[string]*core.Position
	quotes    map[string]core.Quote
}

// NewVenue creates an empty paper venue
func NewVenue(logger core.ILogger) *Venue {
	return &Venue{
		logger:    logger.WithField("component", "paper_venue"),
		orderSeq:  1000,
		resting:   make(map[string]*restingOrder),
		positions: make(map[string]*core.Position),
		quotes:    make(map[string]core.Quote),
	}
}

// Start blocks until ctx is done; the venue has no background work of its own
func (v *Venue) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// MarkPrice publishes a new top of book for a symbol and fills any resting
// order the new quote crosses. The simulated market calls this every tick.
func (v *Venue) MarkPrice(symbol string, quote core.Quote) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.quotes[symbol] = quote

	for id, ro := range v.resting {
		if ro.req.Symbol != symbol {
			continue
		}
		if crossed, px := crossPrice(ro.req, quote); crossed {
			delete(v.resting, id)
			v.applyFill(ro.req.Symbol, ro.req.Side, ro.req.Quantity, px)
			v.logger.Debug("Resting order filled",
				"symbol", symbol, "order_id", id, "side", ro.req.Side, "price", px.String())
		}
	}
}

// crossPrice reports whether the quote crosses the order, and the fill price.
// A buy fills when the ask trades at or under its limit, a sell when the bid
// trades at or over it. Fills happen at the market side, never worse than the
// limit.
func crossPrice(req core.OrderRequest, q core.Quote) (bool, decimal.Decimal) {
	switch req.Side {
	case core.SideBuy:
		if q.AskPrice.IsPositive() && q.AskPrice.LessThanOrEqual(req.Price) {
			return true, q.AskPrice
		}
	case core.SideSell:
		if q.BidPrice.IsPositive() && q.BidPrice.GreaterThanOrEqual(req.Price) {
			return true, q.BidPrice
		}
	}
	return false, decimal.Zero
}

// InsertOrder accepts a limit order
func (v *Venue) InsertOrder(ctx context.Context, req *core.OrderRequest) (*core.OrderResult, error) {
	if req.Quantity <= 0 || !req.Price.IsPositive() {
		return &core.OrderResult{Success: false},
			fmt.Errorf("%w: price %s qty %d", apperrors.ErrOrderRejected, req.Price, req.Quantity)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.orderSeq++
	id := fmt.Sprintf("paper-%d", v.orderSeq)
	quote := v.quotes[req.Symbol]

	switch req.Type {
	case core.OrderTypeIOC:
		if crossed, px := crossPrice(*req, quote); crossed {
			v.applyFill(req.Symbol, req.Side, req.Quantity, px)
			v.logger.Debug("IOC order filled",
				"symbol", req.Symbol, "order_id", id, "side", req.Side, "price", px.String())
		} else {
			v.logger.Debug("IOC order cancelled unfilled",
				"symbol", req.Symbol, "order_id", id, "side", req.Side)
		}
		return &core.OrderResult{Success: true, OrderID: id}, nil

	case core.OrderTypeDay:
		// Marketable DAY orders fill on arrival, the rest go on the book.
		if crossed, px := crossPrice(*req, quote); crossed {
			v.applyFill(req.Symbol, req.Side, req.Quantity, px)
		} else {
			v.resting[id] = &restingOrder{id: id, req: *req}
		}
		return &core.OrderResult{Success: true, OrderID: id}, nil

	default:
		return &core.OrderResult{Success: false},
			fmt.Errorf("%w: unsupported order type %q", apperrors.ErrOrderRejected, req.Type)
	}
}

// CancelOrder removes a resting order from the book
func (v *Venue) CancelOrder(ctx context.Context, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.resting[orderID]; !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	delete(v.resting, orderID)
	return nil
}

// CancelAllOrders clears the whole book
func (v *Venue) CancelAllOrders(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := len(v.resting)
	v.resting = make(map[string]*restingOrder)
	if n > 0 {
		v.logger.Info("Cancelled all working orders", "count", n)
	}
	return nil
}

// CloseAllPositions flattens every position at the current mark
func (v *Venue) CloseAllPositions(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := len(v.positions)
	v.positions = make(map[string]*core.Position)
	if n > 0 {
		v.logger.Info("Closed all positions", "count", n)
	}
	return nil
}

// PositionQty returns the signed position for a symbol, zero when flat
func (v *Venue) PositionQty(symbol string) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.positions[symbol]; ok {
		return p.Qty
	}
	return 0
}

// PositionEntry returns the position record for a symbol
func (v *Venue) PositionEntry(symbol string) (*core.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.positions[symbol]
	if !ok || p.Qty == 0 {
		return nil, apperrors.ErrNoPosition
	}
	cp := *p
	return &cp, nil
}

// RestingCount returns how many orders are on the book
func (v *Venue) RestingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.resting)
}

// applyFill mutates the position for one fill. Caller holds the lock.
// Increasing a position reprices the average entry by size weighting;
// reducing keeps it; crossing through zero restarts it at the fill price.
func (v *Venue) applyFill(symbol string, side core.Side, qty int64, price decimal.Decimal) {
	signed := qty
	if side == core.SideSell {
		signed = -qty
	}

	pos, ok := v.positions[symbol]
	if !ok || pos.Qty == 0 {
		v.positions[symbol] = &core.Position{Symbol: symbol, Qty: signed, AvgEntryPrice: price}
		return
	}

	newQty := pos.Qty + signed
	switch {
	case newQty == 0:
		delete(v.positions, symbol)
	case sameSign(pos.Qty, signed):
		oldAbs := decimal.NewFromInt(abs(pos.Qty))
		addAbs := decimal.NewFromInt(abs(signed))
		totalAbs := oldAbs.Add(addAbs)
		pos.AvgEntryPrice = pos.AvgEntryPrice.Mul(oldAbs).Add(price.Mul(addAbs)).Div(totalAbs)
		pos.Qty = newQty
	case sameSign(pos.Qty, newQty):
		// Partial reduction, entry price unchanged.
		pos.Qty = newQty
	default:
		// Flipped through zero.
		pos.Qty = newQty
		pos.AvgEntryPrice = price
	}
}

func sameSign(a, b int64) bool {
	return (a > 0) == (b > 0)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
