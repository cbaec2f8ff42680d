// Package mock provides in-memory test doubles for the market-data and
// order-management ports.
package mock

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"sync"

	"github.com/shopspring/decimal"
)

// MarketData is a scriptable market-data source. Tests set prices, quotes,
// and positions directly; every getter reads under a lock.
type MarketData struct {
	mu        sync.RWMutex
	mids      map[string]decimal.Decimal
	trades    map[string]decimal.Decimal
	quotes    map[string]core.Quote
	positions map[string]*core.Position
}

// NewMarketData creates an empty mock market-data source
func NewMarketData() *MarketData {
	return &MarketData{
		mids:      make(map[string]decimal.Decimal),
		trades:    make(map[string]decimal.Decimal),
		quotes:    make(map[string]core.Quote),
		positions: make(map[string]*core.Position),
	}
}

// Start blocks until ctx is done
func (m *MarketData) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// SetMidPrice sets the last mid price for a symbol
func (m *MarketData) SetMidPrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids[symbol] = price
}

// SetTradePrice sets the last trade price for a symbol
func (m *MarketData) SetTradePrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[symbol] = price
}

// SetQuote sets the last quote for a symbol
func (m *MarketData) SetQuote(symbol string, quote core.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = quote
}

// SetPosition sets the position for a symbol. Qty zero clears it.
func (m *MarketData) SetPosition(symbol string, qty int64, avgEntry decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qty == 0 {
		delete(m.positions, symbol)
		return
	}
	m.positions[symbol] = &core.Position{Symbol: symbol, Qty: qty, AvgEntryPrice: avgEntry}
}

// ClearPrices removes all price data for a symbol, simulating a feed outage
func (m *MarketData) ClearPrices(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mids, symbol)
	delete(m.trades, symbol)
	delete(m.quotes, symbol)
}

func (m *MarketData) GetLastMidPrice(symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.mids[symbol]
	if !ok {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return p, nil
}

func (m *MarketData) GetLastTradePrice(symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.trades[symbol]
	if !ok {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return p, nil
}

func (m *MarketData) GetLastQuote(symbol string) (core.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[symbol]
	if !ok {
		return core.Quote{}, apperrors.ErrNoQuote
	}
	return q, nil
}

func (m *MarketData) GetPosition(symbol string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.positions[symbol]; ok {
		return p.Qty
	}
	return 0
}

func (m *MarketData) GetPositionEntry(ctx context.Context, symbol string) (*core.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[symbol]
	if !ok {
		return nil, apperrors.ErrNoPosition
	}
	cp := *p
	return &cp, nil
}
