package feed

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"market_quoter/pkg/logging"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPositions struct {
	qty   int64
	entry decimal.Decimal
}

func (s *stubPositions) PositionQty(symbol string) int64 {
	return s.qty
}

func (s *stubPositions) PositionEntry(symbol string) (*core.Position, error) {
	if s.qty == 0 {
		return nil, apperrors.ErrNoPosition
	}
	return &core.Position{Symbol: symbol, Qty: s.qty, AvgEntryPrice: s.entry}, nil
}

func newStream(pos PositionSource) *Stream {
	return NewStream("ws://localhost:0/stream", pos, logging.NewNop())
}

func TestStreamCachesTradeFrames(t *testing.T) {
	s := newStream(&stubPositions{})

	_, err := s.GetLastTradePrice("AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoPrice)

	s.handleMessage([]byte(`{"type":"trade","symbol":"AAAUSD","price":"201.55"}`))

	price, err := s.GetLastTradePrice("AAAUSD")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("201.55")), "price = %s", price)
}

func TestStreamCachesQuoteFrames(t *testing.T) {
	s := newStream(&stubPositions{})

	_, err := s.GetLastQuote("AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoQuote)
	_, err = s.GetLastMidPrice("AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoPrice)

	s.handleMessage([]byte(`{"type":"quote","symbol":"AAAUSD","bid":"199.90","bid_size":40,"ask":"200.10","ask_size":60}`))

	q, err := s.GetLastQuote("AAAUSD")
	require.NoError(t, err)
	assert.True(t, q.BidPrice.Equal(decimal.RequireFromString("199.90")))
	assert.True(t, q.AskPrice.Equal(decimal.RequireFromString("200.10")))
	assert.Equal(t, int64(40), q.BidSize)
	assert.Equal(t, int64(60), q.AskSize)

	mid, err := s.GetLastMidPrice("AAAUSD")
	require.NoError(t, err)
	assert.True(t, mid.Equal(decimal.RequireFromString("200")), "mid = %s", mid)
}

func TestStreamDropsBadFrames(t *testing.T) {
	s := newStream(&stubPositions{})

	s.handleMessage([]byte(`not json`))
	s.handleMessage([]byte(`{"type":"trade","price":"100"}`))                            // no symbol
	s.handleMessage([]byte(`{"type":"trade","symbol":"AAAUSD","price":"0"}`))            // bad price
	s.handleMessage([]byte(`{"type":"quote","symbol":"AAAUSD","bid":"0","ask":"100"}`))  // bad bid
	s.handleMessage([]byte(`{"type":"heartbeat"}`))                                      // unknown type

	_, err := s.GetLastTradePrice("AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoPrice)
	_, err = s.GetLastQuote("AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoQuote)
}

func TestStreamForwardsQuotesToSink(t *testing.T) {
	s := newStream(&stubPositions{})

	var gotSymbol string
	var gotQuote core.Quote
	s.SetQuoteSink(func(symbol string, quote core.Quote) {
		gotSymbol = symbol
		gotQuote = quote
	})

	s.handleMessage([]byte(`{"type":"quote","symbol":"AAAUSD","bid":"99.5","bid_size":10,"ask":"100.5","ask_size":10}`))

	assert.Equal(t, "AAAUSD", gotSymbol)
	assert.True(t, gotQuote.BidPrice.Equal(decimal.RequireFromString("99.5")))
}

func TestStreamDelegatesPositions(t *testing.T) {
	pos := &stubPositions{qty: 7, entry: decimal.RequireFromString("150")}
	s := newStream(pos)

	assert.Equal(t, int64(7), s.GetPosition("AAAUSD"))

	p, err := s.GetPositionEntry(context.Background(), "AAAUSD")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Qty)

	pos.qty = 0
	_, err = s.GetPositionEntry(context.Background(), "AAAUSD")
	assert.ErrorIs(t, err, apperrors.ErrNoPosition)
}
