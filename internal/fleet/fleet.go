// Package fleet runs one engine per configured instrument on a shared pool.
package fleet

import (
	"context"
	"fmt"
	"market_quoter/internal/core"
	"market_quoter/internal/engine"
	"market_quoter/pkg/concurrency"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Fleet owns the 2N loop tasks of N engines. All engines share one
// market-data source and one order-management port; the fleet performs the
// startup safety reset before any loop is allowed to trade.
type Fleet struct {
	engines []*engine.Engine
	orders  core.IOrderManager
	logger  core.ILogger

	// StartupSettle is the pause between the safety reset and the first
	// engine cycle, giving the venue time to acknowledge the reset.
	settle time.Duration
}

// New creates a fleet over the given engines
func New(engines []*engine.Engine, orders core.IOrderManager, logger core.ILogger, settle time.Duration) *Fleet {
	return &Fleet{
		engines: engines,
		orders:  orders,
		logger:  logger.WithField("component", "fleet"),
		settle:  settle,
	}
}

// Run performs the safety reset, then runs every engine's quoting and
// take-profit loops until ctx is done. It blocks until all loops have
// returned.
func (f *Fleet) Run(ctx context.Context) error {
	if len(f.engines) == 0 {
		return fmt.Errorf("fleet has no engines")
	}

	if err := f.safetyReset(ctx); err != nil {
		return fmt.Errorf("startup safety reset failed: %w", err)
	}

	if f.settle > 0 {
		f.logger.Info("Settling after safety reset", "settle", f.settle.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.settle):
		}
	}

	// Every loop runs until shutdown, so each of the 2N tasks needs its own
	// pre-spawned worker.
	pool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "engine-loops",
		MinWorkers:  2 * len(f.engines),
		MaxWorkers:  2 * len(f.engines),
		MaxCapacity: 2 * len(f.engines),
	}, f.logger)

	f.logger.Info("Starting engines", "count", len(f.engines))
	for _, e := range f.engines {
		e := e
		_ = pool.Submit(func() {
			if err := e.RunQuoting(ctx); err != nil && ctx.Err() == nil {
				f.logger.Error("Quoting loop exited", "symbol", e.Symbol(), "error", err.Error())
			}
		})
		_ = pool.Submit(func() {
			if err := e.RunTakeProfit(ctx); err != nil && ctx.Err() == nil {
				f.logger.Error("Take-profit loop exited", "symbol", e.Symbol(), "error", err.Error())
			}
		})
	}

	<-ctx.Done()
	f.logger.Info("Shutting down engines", "pool_stats", pool.Stats())
	pool.Stop()
	return ctx.Err()
}

// safetyReset cancels every working order and flattens every position so the
// engines start from a clean book. Venue hiccups here are retried; giving up
// aborts startup because quoting on top of unknown exposure is not safe.
func (f *Fleet) safetyReset(ctx context.Context) error {
	f.logger.Info("Running startup safety reset")

	retryPolicy := retrypolicy.NewBuilder[any]().
		WithBackoff(time.Second, 10*time.Second).
		WithMaxRetries(3).
		Build()
	executor := failsafe.With[any](retryPolicy).WithContext(ctx)

	if err := executor.Run(func() error {
		return f.orders.CancelAllOrders(ctx)
	}); err != nil {
		return fmt.Errorf("cancel all orders: %w", err)
	}

	if err := executor.Run(func() error {
		return f.orders.CloseAllPositions(ctx)
	}); err != nil {
		return fmt.Errorf("close all positions: %w", err)
	}

	f.logger.Info("Safety reset complete")
	return nil
}
