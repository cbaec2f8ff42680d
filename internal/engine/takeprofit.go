package engine

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/internal/pricing"

	"github.com/shopspring/decimal"
)

// RunTakeProfit runs the exit loop until ctx is done. Whenever a position is
// open it works one offsetting order at the margin above (long) or below
// (short) the average entry price, and logs the position's running PnL
// against the last trade. Returns ctx.Err() on shutdown.
func (e *Engine) RunTakeProfit(ctx context.Context) error {
	e.logger.Info("Take-profit loop started", "interval", e.cfg.TakeProfitInterval.String())

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Take-profit loop stopped")
			return err
		}

		pos, err := e.data.GetPositionEntry(ctx, e.cfg.Symbol)
		if err != nil || pos.Qty == 0 {
			sleepCtx(ctx, e.cfg.TakeProfitInterval)
			continue
		}

		lastTrade, ltErr := e.data.GetLastTradePrice(e.cfg.Symbol)
		if !pos.AvgEntryPrice.IsPositive() || ltErr != nil {
			// Without both the entry and a trade print there is nothing to
			// value the position against, so the whole cycle is skipped.
			e.logger.Debug("Entry or last trade unavailable, skipping exit cycle",
				"position", pos.Qty)
			sleepCtx(ctx, e.cfg.TakeProfitInterval)
			continue
		}

		pnl := lastTrade.Sub(pos.AvgEntryPrice).Mul(decimal.NewFromInt(pos.Qty))
		e.logger.Info("Open position",
			"position", pos.Qty,
			"avg_entry", pos.AvgEntryPrice.String(),
			"last_trade", lastTrade.String(),
			"unrealized_pnl", pnl.String())

		long := pos.Qty > 0
		exitPrice := pricing.TakeProfitPrice(pos.AvgEntryPrice, e.cfg.Margin, long)
		side := core.SideSell
		qty := pos.Qty
		if !long {
			side = core.SideBuy
			qty = -qty
		}

		out := e.orders.Submit(ctx, &core.OrderRequest{
			Symbol:   e.cfg.Symbol,
			Price:    exitPrice,
			Quantity: qty,
			Side:     side,
			Type:     e.cfg.OrderType,
		})

		sleepCtx(ctx, e.cfg.TakeProfitInterval)

		if out.Placed {
			e.cancelDay(ctx, []string{out.OrderID})
		}
	}
}
