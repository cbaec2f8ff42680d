package mock

import (
	"context"
	"fmt"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"sync"
)

// SubmittedOrder is one recorded InsertOrder call in arrival order
type SubmittedOrder struct {
	Seq     int
	Request core.OrderRequest
	OrderID string
}

// OrderManager records every call it receives, preserving arrival order.
// Tests can make submissions fail per-side and wait on Submitted for a
// target number of orders without polling.
type OrderManager struct {
	mu         sync.Mutex
	seq        int
	submitted  []SubmittedOrder
	cancelled  []string
	failSides  map[core.Side]bool
	resetCalls int
	closeCalls int

	// Submitted receives one signal per accepted order
	Submitted chan SubmittedOrder
}

// NewOrderManager creates an empty recording order manager
func NewOrderManager() *OrderManager {
	return &OrderManager{
		failSides: make(map[core.Side]bool),
		Submitted: make(chan SubmittedOrder, 64),
	}
}

// Start blocks until ctx is done
func (m *OrderManager) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// FailSide makes all future submissions on the given side be rejected
func (m *OrderManager) FailSide(side core.Side, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSides[side] = fail
}

func (m *OrderManager) InsertOrder(ctx context.Context, req *core.OrderRequest) (*core.OrderResult, error) {
	m.mu.Lock()
	if m.failSides[req.Side] {
		m.mu.Unlock()
		return &core.OrderResult{Success: false}, apperrors.ErrOrderRejected
	}
	m.seq++
	rec := SubmittedOrder{
		Seq:     m.seq,
		Request: *req,
		OrderID: fmt.Sprintf("ord-%d", m.seq),
	}
	m.submitted = append(m.submitted, rec)
	m.mu.Unlock()

	select {
	case m.Submitted <- rec:
	default:
	}
	return &core.OrderResult{Success: true, OrderID: rec.OrderID}, nil
}

func (m *OrderManager) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

func (m *OrderManager) CancelAllOrders(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++
	return nil
}

func (m *OrderManager) CloseAllPositions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return nil
}

// SubmittedOrders returns a copy of all recorded submissions
func (m *OrderManager) SubmittedOrders() []SubmittedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubmittedOrder, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// CancelledOrders returns a copy of all cancelled order IDs
func (m *OrderManager) CancelledOrders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}

// ResetCalls returns how many times CancelAllOrders was invoked
func (m *OrderManager) ResetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCalls
}

// CloseCalls returns how many times CloseAllPositions was invoked
func (m *OrderManager) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
