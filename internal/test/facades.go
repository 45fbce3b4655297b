package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/usecase"
)

// CheckoutFacadeStub provides controllable behaviour for checkout endpoints.
type CheckoutFacadeStub struct {
	PlaceFn func(context.Context, int64, usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	RetryFn func(context.Context, int64, string) (*usecase.CheckoutResult, error)
}

// PlaceOrder delegates to provided function or returns a card order with a payment url.
func (s CheckoutFacadeStub) PlaceOrder(ctx context.Context, payerID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, payerID, req)
	}
	return &usecase.CheckoutResult{
		Order:      &model.Order{OrderID: "ORD-1", PayerID: payerID, Status: model.OrderStatusPending},
		PaymentURL: "https://gateway.test/pay/ORD-1",
	}, nil
}

// RetryPayment delegates to provided function or returns a new payment url.
func (s CheckoutFacadeStub) RetryPayment(ctx context.Context, payerID int64, orderID string) (*usecase.CheckoutResult, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, payerID, orderID)
	}
	return &usecase.CheckoutResult{
		Order:      &model.Order{OrderID: orderID, PayerID: payerID},
		PaymentURL: "https://gateway.test/pay/" + orderID,
	}, nil
}

// OrderFacadeStub returns predefined orders.
type OrderFacadeStub struct {
	OrderFn  func(context.Context, int64, string) (*model.Order, error)
	OrdersFn func(context.Context, int64) ([]model.OrderSummary, error)
}

// Order returns an order owned by the caller.
func (s OrderFacadeStub) Order(ctx context.Context, callerID int64, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, callerID, orderID)
	}
	return &model.Order{OrderID: orderID, PayerID: callerID, Status: model.OrderStatusPending}, nil
}

// Orders returns predefined summaries for given payer.
func (s OrderFacadeStub) Orders(ctx context.Context, payerID int64) ([]model.OrderSummary, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, payerID)
	}
	return []model.OrderSummary{{OrderID: "ORD-1", Status: model.OrderStatusPending, CreatedAt: time.Unix(0, 0).UTC()}}, nil
}

// PaymentFacadeStub simulates callback reconciliation.
type PaymentFacadeStub struct {
	SuccessFn func(context.Context, string, string) (*usecase.Outcome, error)
	FailFn    func(context.Context, string, string) (*usecase.Outcome, error)
	CancelFn  func(context.Context, string) (*usecase.Outcome, error)
	NotifyFn  func(context.Context, usecase.IPNPayload) (*usecase.Outcome, error)
}

// SuccessRedirect reports a confirmed payment unless overridden.
func (s PaymentFacadeStub) SuccessRedirect(ctx context.Context, orderID, validationID string) (*usecase.Outcome, error) {
	if s.SuccessFn != nil {
		return s.SuccessFn(ctx, orderID, validationID)
	}
	return &usecase.Outcome{Order: &model.Order{OrderID: orderID}, Applied: true, Result: usecase.ResultConfirmed}, nil
}

// FailRedirect reports a failed payment unless overridden.
func (s PaymentFacadeStub) FailRedirect(ctx context.Context, orderID, reason string) (*usecase.Outcome, error) {
	if s.FailFn != nil {
		return s.FailFn(ctx, orderID, reason)
	}
	return &usecase.Outcome{Order: &model.Order{OrderID: orderID}, Applied: true, Result: usecase.ResultFailed}, nil
}

// CancelRedirect reports a cancelled payment unless overridden.
func (s PaymentFacadeStub) CancelRedirect(ctx context.Context, orderID string) (*usecase.Outcome, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID)
	}
	return &usecase.Outcome{Order: &model.Order{OrderID: orderID}, Applied: true, Result: usecase.ResultCancelled}, nil
}

// Notify accepts every notification unless overridden.
func (s PaymentFacadeStub) Notify(ctx context.Context, ipn usecase.IPNPayload) (*usecase.Outcome, error) {
	if s.NotifyFn != nil {
		return s.NotifyFn(ctx, ipn)
	}
	return &usecase.Outcome{Order: &model.Order{OrderID: ipn.TransactionID}, Result: usecase.ResultPending}, nil
}

// AdminFacadeStub simulates administrative order moves.
type AdminFacadeStub struct {
	ChangeFn  func(context.Context, string, model.OrderStatus, string) (*model.Order, error)
	CollectFn func(context.Context, string, string) (*model.Order, error)
}

// ChangeOrderStatus returns the order in the requested status.
func (s AdminFacadeStub) ChangeOrderStatus(ctx context.Context, orderID string, to model.OrderStatus, note string) (*model.Order, error) {
	if s.ChangeFn != nil {
		return s.ChangeFn(ctx, orderID, to, note)
	}
	return &model.Order{OrderID: orderID, Status: to}, nil
}

// CollectCash returns the order with a completed payment.
func (s AdminFacadeStub) CollectCash(ctx context.Context, orderID, note string) (*model.Order, error) {
	if s.CollectFn != nil {
		return s.CollectFn(ctx, orderID, note)
	}
	return &model.Order{
		OrderID: orderID,
		Status:  model.OrderStatusConfirmed,
		Payment: model.PaymentInfo{Method: model.PaymentMethodCashOnDelivery, Status: model.PaymentStatusCompleted},
	}, nil
}

// HealthFacadeStub reports configured health.
type HealthFacadeStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s HealthFacadeStub) HealthCheck(context.Context) error {
	return s.Err
}

// CheckoutAppFacadeStub aggregates facade dependencies for HTTP layer tests.
type CheckoutAppFacadeStub struct {
	AuthFacadeStub
	CheckoutFacadeStub
	OrderFacadeStub
	PaymentFacadeStub
	AdminFacadeStub
	HealthFacadeStub
}

// SweepFacadeStub feeds the payment sweeper with queued batches.
type SweepFacadeStub struct {
	Batches     [][]string
	PendingFn   func(context.Context, time.Time, int) ([]string, error)
	ReconcileFn func(context.Context, string) (*usecase.Outcome, error)

	mu         sync.Mutex
	calls      int
	Cutoffs    []time.Time
	Reconciled []string
}

// PendingPayments returns the next configured batch.
func (s *SweepFacadeStub) PendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, createdBefore, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cutoffs = append(s.Cutoffs, createdBefore)
	s.calls++
	if s.calls <= len(s.Batches) {
		return s.Batches[s.calls-1], nil
	}
	return nil, nil
}

// ReconcilePayment records the order and reports it settled.
func (s *SweepFacadeStub) ReconcilePayment(ctx context.Context, orderID string) (*usecase.Outcome, error) {
	s.mu.Lock()
	s.Reconciled = append(s.Reconciled, orderID)
	s.mu.Unlock()
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, orderID)
	}
	return &usecase.Outcome{Order: &model.Order{OrderID: orderID}, Applied: true, Result: usecase.ResultConfirmed}, nil
}

// ReconciledIDs returns a copy of reconciled order ids.
func (s *SweepFacadeStub) ReconciledIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Reconciled...)
}
