// Package engine implements the per-instrument quoting and take-profit loops.
package engine

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/internal/pricing"
	"market_quoter/internal/trading/lifecycle"
	"market_quoter/pkg/telemetry"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config is the immutable per-instrument configuration an engine runs with.
type Config struct {
	Symbol      string
	Margin      decimal.Decimal
	MaxPosition int64
	Policy      pricing.PolicyKind
	OrderType   core.OrderType

	QuotingInterval    time.Duration
	TakeProfitInterval time.Duration

	// NoPriceBackoff is how long a loop sleeps after a cycle with no usable
	// reference price before trying again.
	NoPriceBackoff time.Duration

	// LegSubmitGap is the enforced pause between the buy and sell legs of a
	// quoting cycle.
	LegSubmitGap time.Duration
}

// Engine runs the two loops for one instrument. All engines of a fleet share
// the market-data source and the lifecycle controller; the config is owned by
// the engine and never mutated after construction.
type Engine struct {
	cfg    Config
	data   core.IMarketData
	orders *lifecycle.Controller
	logger core.ILogger

	cycleCounter metric.Int64Counter
}

// New creates an engine for one instrument
func New(cfg Config, data core.IMarketData, orders *lifecycle.Controller, logger core.ILogger) *Engine {
	meter := telemetry.GetMeter("engine")
	cycleCounter, _ := meter.Int64Counter("quoter_quoting_cycles_total",
		metric.WithDescription("Total number of quoting cycles per symbol"))

	return &Engine{
		cfg:          cfg,
		data:         data,
		orders:       orders,
		logger:       logger.WithField("symbol", cfg.Symbol),
		cycleCounter: cycleCounter,
	}
}

// Symbol returns the instrument this engine quotes
func (e *Engine) Symbol() string {
	return e.cfg.Symbol
}

// readSnapshot assembles a fresh market view. Individual getter failures
// leave the corresponding field zero-valued; the price policy decides whether
// the snapshot is usable.
func (e *Engine) readSnapshot() core.Snapshot {
	var snap core.Snapshot
	if mid, err := e.data.GetLastMidPrice(e.cfg.Symbol); err == nil {
		snap.LastMidPrice = mid
	}
	if ltp, err := e.data.GetLastTradePrice(e.cfg.Symbol); err == nil {
		snap.LastTradePrice = ltp
	}
	if q, err := e.data.GetLastQuote(e.cfg.Symbol); err == nil {
		snap.Quote = q
	}
	return snap
}

func (e *Engine) countCycle(ctx context.Context, outcome string) {
	e.cycleCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", e.cfg.Symbol),
		attribute.String("outcome", outcome),
	))
}

// sleepCtx sleeps for d or until ctx is done, reporting whether the full
// sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
