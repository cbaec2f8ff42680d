package journal

import (
	"context"
	"errors"
	"market_quoter/internal/core"
	"market_quoter/pkg/logging"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "journal.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordSubmission(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	req := &core.OrderRequest{
		Symbol:        "AAAUSD",
		Price:         decimal.RequireFromString("199.60"),
		Quantity:      10,
		Side:          core.SideBuy,
		Type:          core.OrderTypeDay,
		ClientOrderID: "coid-1",
	}
	s.RecordSubmission(ctx, req, &core.OrderResult{Success: true, OrderID: "ord-1"}, nil)

	events, err := s.Events(ctx, "AAAUSD")
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "submission", e.Event)
	assert.Equal(t, "BUY", e.Side)
	assert.Equal(t, "DAY", e.OrderType)
	assert.Equal(t, "199.6", e.Price)
	assert.Equal(t, int64(10), e.Quantity)
	assert.Equal(t, "coid-1", e.ClientOrderID)
	assert.Equal(t, "ord-1", e.OrderID)
	assert.True(t, e.Success)
	assert.Empty(t, e.Error)
}

func TestRecordFailedSubmission(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	req := &core.OrderRequest{
		Symbol:   "AAAUSD",
		Price:    decimal.RequireFromString("100"),
		Quantity: 5,
		Side:     core.SideSell,
		Type:     core.OrderTypeIOC,
	}
	s.RecordSubmission(ctx, req, &core.OrderResult{Success: false}, errors.New("rejected"))

	events, err := s.Events(ctx, "AAAUSD")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, "rejected", events[0].Error)
}

func TestRecordCancellation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	s.RecordCancellation(ctx, "ord-9", nil)
	s.RecordCancellation(ctx, "ord-9", errors.New("not found"))

	events, err := s.EventsByOrderID(ctx, "ord-9")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "cancellation", events[0].Event)
	assert.True(t, events[0].Success)
	assert.False(t, events[1].Success)
	assert.Equal(t, "not found", events[1].Error)
}

func TestEventsPreserveInsertionOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i, side := range []core.Side{core.SideBuy, core.SideSell, core.SideBuy} {
		s.RecordSubmission(ctx, &core.OrderRequest{
			Symbol:   "AAAUSD",
			Price:    decimal.New(int64(100+i), 0),
			Quantity: 1,
			Side:     side,
			Type:     core.OrderTypeDay,
		}, &core.OrderResult{Success: true, OrderID: "x"}, nil)
	}

	events, err := s.Events(ctx, "AAAUSD")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "BUY", events[0].Side)
	assert.Equal(t, "SELL", events[1].Side)
	assert.Equal(t, "BUY", events[2].Side)
}
