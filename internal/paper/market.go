package paper

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"market_quoter/pkg/tradingutils"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	tickInterval = 250 * time.Millisecond
	// maxStep bounds the per-tick random walk at ±0.05% of the mid.
	maxStep = 0.0005
	// halfSpreadRatio is the simulated half spread as a fraction of the mid.
	halfSpreadRatio = 0.00025
)

type symbolState struct {
	mid       decimal.Decimal
	lastTrade decimal.Decimal
	quote     core.Quote
}

// Market implements the market-data port with a random-walk quote generator.
// Every tick it publishes the new book to the venue so resting orders can
// fill; position queries are delegated to the venue, which owns inventory.
type Market struct {
	venue  *Venue
	logger core.ILogger
	rng    *rand.Rand

	mu     sync.RWMutex
	states map[string]*symbolState
}

// NewMarket creates a simulated market around per-symbol base prices
func NewMarket(venue *Venue, basePrices map[string]decimal.Decimal, logger core.ILogger) *Market {
	states := make(map[string]*symbolState, len(basePrices))
	for sym, base := range basePrices {
		states[sym] = &symbolState{mid: base}
	}
	return &Market{
		venue:  venue,
		logger: logger.WithField("component", "paper_market"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		states: states,
	}
}

// Start generates quotes until ctx is done
func (m *Market) Start(ctx context.Context) error {
	m.logger.Info("Simulated market started", "symbols", len(m.states), "tick", tickInterval.String())
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Simulated market stopped")
			return ctx.Err()
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Market) tick() {
	m.mu.Lock()
	type update struct {
		symbol string
		quote  core.Quote
	}
	updates := make([]update, 0, len(m.states))
	for sym, st := range m.states {
		step := decimal.NewFromFloat((m.rng.Float64()*2 - 1) * maxStep)
		st.mid = st.mid.Mul(decimal.NewFromInt(1).Add(step))

		half := st.mid.Mul(decimal.NewFromFloat(halfSpreadRatio))
		st.quote = core.Quote{
			BidPrice: tradingutils.RoundPrice(st.mid.Sub(half), 2),
			BidSize:  int64(10 + m.rng.Intn(90)),
			AskPrice: tradingutils.RoundPrice(st.mid.Add(half), 2),
			AskSize:  int64(10 + m.rng.Intn(90)),
		}
		// Prints happen somewhere inside the spread.
		frac := decimal.NewFromFloat(m.rng.Float64())
		st.lastTrade = tradingutils.RoundPrice(
			st.quote.BidPrice.Add(st.quote.AskPrice.Sub(st.quote.BidPrice).Mul(frac)), 2)

		updates = append(updates, update{symbol: sym, quote: st.quote})
	}
	m.mu.Unlock()

	// Publish outside the state lock; the venue takes its own.
	for _, u := range updates {
		m.venue.MarkPrice(u.symbol, u.quote)
	}
}

func (m *Market) GetLastMidPrice(symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[symbol]
	if !ok || !st.quote.BidPrice.IsPositive() {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return tradingutils.MidPrice(st.quote.BidPrice, st.quote.AskPrice), nil
}

func (m *Market) GetLastTradePrice(symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[symbol]
	if !ok || !st.lastTrade.IsPositive() {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return st.lastTrade, nil
}

func (m *Market) GetLastQuote(symbol string) (core.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[symbol]
	if !ok || !st.quote.BidPrice.IsPositive() {
		return core.Quote{}, apperrors.ErrNoQuote
	}
	return st.quote, nil
}

func (m *Market) GetPosition(symbol string) int64 {
	return m.venue.PositionQty(symbol)
}

func (m *Market) GetPositionEntry(ctx context.Context, symbol string) (*core.Position, error) {
	return m.venue.PositionEntry(symbol)
}
