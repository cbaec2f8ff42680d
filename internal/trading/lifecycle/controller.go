// Package lifecycle provides order submission and cancellation with rate
// limiting, journaling, and failure isolation for the engine loops.
package lifecycle

import (
	"context"
	"market_quoter/internal/core"
	"market_quoter/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Outcome reports what happened to one submission. A failed submission is a
// normal outcome, not an error: the engine logs it and carries on quoting.
type Outcome struct {
	OrderID string
	Placed  bool
}

// Controller mediates every order action the engines take. One instance is
// shared by all loops, so the rate limiter bounds the whole fleet's order
// flow, not a single instrument's.
type Controller struct {
	orders  core.IOrderManager
	journal core.IOrderJournal // nil disables journaling
	logger  core.ILogger

	rateLimiter *rate.Limiter

	tracer        trace.Tracer
	submitCounter metric.Int64Counter
	failCounter   metric.Int64Counter
	cancelCounter metric.Int64Counter
}

// NewController creates a controller around an order manager. journal may be nil.
func NewController(orders core.IOrderManager, journal core.IOrderJournal, logger core.ILogger) *Controller {
	meter := telemetry.GetMeter("order-lifecycle")

	submitCounter, _ := meter.Int64Counter("quoter_order_submissions_total",
		metric.WithDescription("Total number of order submissions"))
	failCounter, _ := meter.Int64Counter("quoter_order_failures_total",
		metric.WithDescription("Total number of failed order submissions"))
	cancelCounter, _ := meter.Int64Counter("quoter_order_cancellations_total",
		metric.WithDescription("Total number of order cancellation attempts"))

	return &Controller{
		orders:        orders,
		journal:       journal,
		logger:        logger.WithField("component", "order_lifecycle"),
		rateLimiter:   rate.NewLimiter(rate.Limit(25), 30), // 25/sec with burst of 30
		tracer:        telemetry.GetTracer("order-lifecycle"),
		submitCounter: submitCounter,
		failCounter:   failCounter,
		cancelCounter: cancelCounter,
	}
}

// Submit places one order. It never returns an error: a rejected or failed
// submission is logged, journaled, counted, and reported as Placed=false so
// the calling loop survives and the sibling leg still goes out.
func (c *Controller) Submit(ctx context.Context, req *core.OrderRequest) Outcome {
	ctx, span := c.tracer.Start(ctx, "SubmitOrder",
		trace.WithAttributes(
			attribute.String("symbol", req.Symbol),
			attribute.String("side", string(req.Side)),
			attribute.String("type", string(req.Type)),
		),
	)
	defer span.End()

	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.logger.Warn("Rate limit wait aborted", "symbol", req.Symbol, "error", err.Error())
		return Outcome{}
	}

	c.submitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("side", string(req.Side)),
	))

	res, err := c.orders.InsertOrder(ctx, req)
	if c.journal != nil {
		c.journal.RecordSubmission(ctx, req, res, err)
	}

	if err != nil || res == nil || !res.Success {
		c.failCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", req.Symbol),
			attribute.String("side", string(req.Side)),
		))
		fields := []interface{}{
			"symbol", req.Symbol,
			"side", req.Side,
			"price", req.Price.String(),
			"quantity", req.Quantity,
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}
		c.logger.Error("Order submission failed", fields...)
		return Outcome{}
	}

	c.logger.Info("Order submitted",
		"symbol", req.Symbol,
		"side", req.Side,
		"price", req.Price.String(),
		"quantity", req.Quantity,
		"order_id", res.OrderID)

	return Outcome{OrderID: res.OrderID, Placed: true}
}

// Cancel cancels one order best-effort. Cancellation failures are logged and
// swallowed; the order either filled in the meantime or will expire at close.
func (c *Controller) Cancel(ctx context.Context, orderID string) {
	ctx, span := c.tracer.Start(ctx, "CancelOrder",
		trace.WithAttributes(attribute.String("order_id", orderID)),
	)
	defer span.End()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.logger.Warn("Rate limit wait aborted", "order_id", orderID, "error", err.Error())
		return
	}

	c.cancelCounter.Add(ctx, 1)

	err := c.orders.CancelOrder(ctx, orderID)
	if c.journal != nil {
		c.journal.RecordCancellation(ctx, orderID, err)
	}
	if err != nil {
		c.logger.Warn("Order cancellation failed", "order_id", orderID, "error", err.Error())
		return
	}

	c.logger.Debug("Order cancelled", "order_id", orderID)
}
