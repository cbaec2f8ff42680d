// Package feed adapts a JSON websocket market-data stream to the
// market-data port.
package feed

import (
	"context"
	"encoding/json"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"market_quoter/pkg/websocket"
	"sync"

	"github.com/shopspring/decimal"
)

// PositionSource answers position queries. The feed carries prices only;
// inventory lives wherever orders are executed.
type PositionSource interface {
	PositionQty(symbol string) int64
	PositionEntry(symbol string) (*core.Position, error)
}

// Message is one frame of the feed protocol
type Message struct {
	Type   string          `json:"type"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price,omitempty"`

	Bid     decimal.Decimal `json:"bid,omitempty"`
	BidSize int64           `json:"bid_size,omitempty"`
	Ask     decimal.Decimal `json:"ask,omitempty"`
	AskSize int64           `json:"ask_size,omitempty"`
}

type symbolState struct {
	lastTrade decimal.Decimal
	quote     core.Quote
	hasQuote  bool
}

// Stream implements the market-data port over a websocket feed. Incoming
// trade and quote frames refresh a per-symbol cache the getters read from.
type Stream struct {
	client    *websocket.Client
	positions PositionSource
	logger    core.ILogger

	// QuoteSink, when set, receives every decoded quote. The paper venue
	// hangs off this in feed mode so live prices can fill simulated orders.
	quoteSink func(symbol string, quote core.Quote)

	mu     sync.RWMutex
	states map[string]*symbolState
}

// NewStream creates a stream over the given feed URL
func NewStream(url string, positions PositionSource, logger core.ILogger) *Stream {
	s := &Stream{
		positions: positions,
		logger:    logger.WithField("component", "feed"),
		states:    make(map[string]*symbolState),
	}
	s.client = websocket.NewClient(url, s.handleMessage, logger)
	return s
}

// SetQuoteSink registers a callback invoked for every quote frame. Must be
// called before Start.
func (s *Stream) SetQuoteSink(sink func(symbol string, quote core.Quote)) {
	s.quoteSink = sink
}

// Start runs the feed until ctx is done
func (s *Stream) Start(ctx context.Context) error {
	s.client.Start()
	<-ctx.Done()
	s.client.Stop()
	return ctx.Err()
}

func (s *Stream) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Warn("Dropping malformed feed frame", "error", err.Error())
		return
	}
	if msg.Symbol == "" {
		return
	}

	switch msg.Type {
	case "trade":
		if !msg.Price.IsPositive() {
			return
		}
		s.mu.Lock()
		s.state(msg.Symbol).lastTrade = msg.Price
		s.mu.Unlock()

	case "quote":
		if !msg.Bid.IsPositive() || !msg.Ask.IsPositive() {
			return
		}
		quote := core.Quote{
			BidPrice: msg.Bid,
			BidSize:  msg.BidSize,
			AskPrice: msg.Ask,
			AskSize:  msg.AskSize,
		}
		s.mu.Lock()
		st := s.state(msg.Symbol)
		st.quote = quote
		st.hasQuote = true
		s.mu.Unlock()

		if s.quoteSink != nil {
			s.quoteSink(msg.Symbol, quote)
		}

	default:
		s.logger.Debug("Ignoring feed frame", "type", msg.Type)
	}
}

// state returns the cache entry for a symbol, creating it if needed.
// Caller holds the write lock.
func (s *Stream) state(symbol string) *symbolState {
	st, ok := s.states[symbol]
	if !ok {
		st = &symbolState{}
		s.states[symbol] = st
	}
	return st
}

func (s *Stream) GetLastMidPrice(symbol string) (decimal.Decimal, error) {
	q, err := s.GetLastQuote(symbol)
	if err != nil {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2)), nil
}

func (s *Stream) GetLastTradePrice(symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[symbol]
	if !ok || !st.lastTrade.IsPositive() {
		return decimal.Zero, apperrors.ErrNoPrice
	}
	return st.lastTrade, nil
}

func (s *Stream) GetLastQuote(symbol string) (core.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[symbol]
	if !ok || !st.hasQuote {
		return core.Quote{}, apperrors.ErrNoQuote
	}
	return st.quote, nil
}

func (s *Stream) GetPosition(symbol string) int64 {
	return s.positions.PositionQty(symbol)
}

func (s *Stream) GetPositionEntry(ctx context.Context, symbol string) (*core.Position, error) {
	return s.positions.PositionEntry(symbol)
}
