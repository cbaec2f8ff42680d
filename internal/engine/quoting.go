package engine

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/internal/pricing"
)

// RunQuoting runs the quoting loop until ctx is done. Each cycle quotes both
// sides of the book when flat and leaves the market alone when a position is
// open; the take-profit loop owns the exit. Returns ctx.Err() on shutdown.
func (e *Engine) RunQuoting(ctx context.Context) error {
	e.logger.Info("Quoting loop started",
		"policy", string(e.cfg.Policy),
		"order_type", string(e.cfg.OrderType),
		"interval", e.cfg.QuotingInterval.String())

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Quoting loop stopped")
			return err
		}

		qty := e.data.GetPosition(e.cfg.Symbol)

		snap := e.readSnapshot()
		ref, err := pricing.ResolveReference(e.cfg.Policy, snap)
		if err != nil {
			e.logger.Warn("No reference price, backing off",
				"error", err.Error(),
				"backoff", e.cfg.NoPriceBackoff.String())
			e.countCycle(ctx, "no_price")
			sleepCtx(ctx, e.cfg.NoPriceBackoff)
			continue
		}

		// Inventory is on; the take-profit loop owns it until flat again.
		if qty != 0 {
			e.logger.Debug("Position open, skipping quote cycle", "position", qty)
			e.countCycle(ctx, "position_open")
			sleepCtx(ctx, e.cfg.QuotingInterval)
			continue
		}

		buyPrice, sellPrice := pricing.QuotePrices(ref, e.cfg.Margin)
		e.logger.Debug("Quoting cycle",
			"buy_price", buyPrice.String(),
			"sell_price", sellPrice.String(),
			"quantity", e.cfg.MaxPosition)
		e.countCycle(ctx, "quoted")

		// Buy leg goes out strictly before the sell leg.
		var placed []string
		buyOut := e.orders.Submit(ctx, &core.OrderRequest{
			Symbol:   e.cfg.Symbol,
			Price:    buyPrice,
			Quantity: e.cfg.MaxPosition,
			Side:     core.SideBuy,
			Type:     e.cfg.OrderType,
		})
		if buyOut.Placed {
			placed = append(placed, buyOut.OrderID)
		}

		if !sleepCtx(ctx, e.cfg.LegSubmitGap) {
			e.cancelDay(ctx, placed)
			continue
		}

		sellOut := e.orders.Submit(ctx, &core.OrderRequest{
			Symbol:   e.cfg.Symbol,
			Price:    sellPrice,
			Quantity: e.cfg.MaxPosition,
			Side:     core.SideSell,
			Type:     e.cfg.OrderType,
		})
		if sellOut.Placed {
			placed = append(placed, sellOut.OrderID)
		}

		sleepCtx(ctx, e.cfg.QuotingInterval)
		e.cancelDay(ctx, placed)
	}
}

// cancelDay cancels resting orders from this cycle. IOC orders are already
// dead at the venue, so only DAY orders get the follow-up cancel.
func (e *Engine) cancelDay(ctx context.Context, orderIDs []string) {
	if e.cfg.OrderType != core.OrderTypeDay {
		return
	}
	for _, id := range orderIDs {
		e.orders.Cancel(ctx, id)
	}
}
