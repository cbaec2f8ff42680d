package paper

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

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func quote(bid, ask string) core.Quote {
	return core.Quote{BidPrice: d(bid), BidSize: 50, AskPrice: d(ask), AskSize: 50}
}

func newVenue() *Venue {
	return NewVenue(logging.NewNop())
}

func TestDayOrderRestsUntilCrossed(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	v.MarkPrice("AAA", quote("199.90", "200.10"))

	res, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("199.60"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeDay,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, v.RestingCount())
	assert.Equal(t, int64(0), v.PositionQty("AAA"))

	// Market drops through the limit.
	v.MarkPrice("AAA", quote("199.40", "199.55"))

	assert.Equal(t, 0, v.RestingCount())
	assert.Equal(t, int64(10), v.PositionQty("AAA"))

	pos, err := v.PositionEntry("AAA")
	require.NoError(t, err)
	assert.True(t, pos.AvgEntryPrice.Equal(d("199.55")), "entry = %s", pos.AvgEntryPrice)
}

func TestIOCFillsOrDiesImmediately(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	v.MarkPrice("AAA", quote("199.90", "200.10"))

	// Non-marketable IOC: accepted, never rests, no fill.
	res, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("199.60"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, v.RestingCount())
	assert.Equal(t, int64(0), v.PositionQty("AAA"))

	// Marketable IOC fills at the ask.
	_, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("200.50"), Quantity: 5,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.PositionQty("AAA"))

	pos, err := v.PositionEntry("AAA")
	require.NoError(t, err)
	assert.True(t, pos.AvgEntryPrice.Equal(d("200.10")), "entry = %s", pos.AvgEntryPrice)
}

func TestAverageEntryWeightsIncreases(t *testing.T) {
	v := newVenue()
	ctx := context.Background()

	v.MarkPrice("AAA", quote("99.90", "100.00"))
	_, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("100.00"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	v.MarkPrice("AAA", quote("109.90", "110.00"))
	_, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("110.00"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	pos, err := v.PositionEntry("AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(20), pos.Qty)
	assert.True(t, pos.AvgEntryPrice.Equal(d("105")), "entry = %s", pos.AvgEntryPrice)
}

func TestReductionKeepsEntryAndFlipRestartsIt(t *testing.T) {
	v := newVenue()
	ctx := context.Background()

	v.MarkPrice("AAA", quote("99.90", "100.00"))
	_, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("100.00"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	// Sell 4 into the bid: reduced, entry unchanged.
	v.MarkPrice("AAA", quote("101.00", "101.10"))
	_, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("101.00"), Quantity: 4,
		Side: core.SideSell, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	pos, err := v.PositionEntry("AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos.Qty)
	assert.True(t, pos.AvgEntryPrice.Equal(d("100.00")), "entry = %s", pos.AvgEntryPrice)

	// Sell 10 more: flips short 4 at the fill price.
	_, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("101.00"), Quantity: 10,
		Side: core.SideSell, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	pos, err = v.PositionEntry("AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(-4), pos.Qty)
	assert.True(t, pos.AvgEntryPrice.Equal(d("101.00")), "entry = %s", pos.AvgEntryPrice)
}

func TestCancelOrder(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	v.MarkPrice("AAA", quote("199.90", "200.10"))

	res, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("199.00"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeDay,
	})
	require.NoError(t, err)

	require.NoError(t, v.CancelOrder(ctx, res.OrderID))
	assert.Equal(t, 0, v.RestingCount())

	assert.Error(t, v.CancelOrder(ctx, res.OrderID), "second cancel should report not found")
}

func TestSafetyResetOperations(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	v.MarkPrice("AAA", quote("199.90", "200.10"))

	_, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("199.00"), Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeDay,
	})
	require.NoError(t, err)
	_, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("200.05"), Quantity: 3,
		Side: core.SideBuy, Type: core.OrderTypeIOC,
	})
	require.NoError(t, err)

	require.NoError(t, v.CancelAllOrders(ctx))
	require.NoError(t, v.CloseAllPositions(ctx))

	assert.Equal(t, 0, v.RestingCount())
	assert.Equal(t, int64(0), v.PositionQty("AAA"))
	_, err = v.PositionEntry("AAA")
	assert.ErrorIs(t, err, apperrors.ErrNoPosition)
}

func TestInsertOrderRejectsInvalid(t *testing.T) {
	v := newVenue()
	ctx := context.Background()

	res, err := v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: decimal.Zero, Quantity: 10,
		Side: core.SideBuy, Type: core.OrderTypeDay,
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderRejected)
	assert.False(t, res.Success)

	res, err = v.InsertOrder(ctx, &core.OrderRequest{
		Symbol: "AAA", Price: d("100"), Quantity: 0,
		Side: core.SideBuy, Type: core.OrderTypeDay,
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderRejected)
	assert.False(t, res.Success)
}
