package app

import (
	"context"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/usecase"
)

// HealthChecker reports whether backing storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type CheckoutFacade struct {
	auth      *usecase.AuthUseCase
	checkout  *usecase.CheckoutUseCase
	orders    *usecase.OrderUseCase
	reconcile *usecase.ReconcileUseCase
	health    HealthChecker
}

func NewCheckoutFacade(
	auth *usecase.AuthUseCase,
	checkout *usecase.CheckoutUseCase,
	orders *usecase.OrderUseCase,
	reconcile *usecase.ReconcileUseCase,
	health HealthChecker,
) *CheckoutFacade {
	return &CheckoutFacade{auth: auth, checkout: checkout, orders: orders, reconcile: reconcile, health: health}
}

func (f *CheckoutFacade) Register(ctx context.Context, in usecase.RegisterInput) (string, error) {
	_, token, err := f.auth.Register(ctx, in)
	return token, err
}

func (f *CheckoutFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CheckoutFacade) ParseToken(token string) (pkgAuth.Claims, error) {
	return f.auth.ParseToken(token)
}

func (f *CheckoutFacade) PlaceOrder(ctx context.Context, payerID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return f.checkout.PlaceOrder(ctx, payerID, req)
}

func (f *CheckoutFacade) RetryPayment(ctx context.Context, payerID int64, orderID string) (*usecase.CheckoutResult, error) {
	return f.checkout.RetryPayment(ctx, payerID, orderID)
}

func (f *CheckoutFacade) Order(ctx context.Context, callerID int64, orderID string) (*model.Order, error) {
	return f.orders.Get(ctx, callerID, orderID)
}

func (f *CheckoutFacade) Orders(ctx context.Context, payerID int64) ([]model.OrderSummary, error) {
	return f.orders.ListByPayer(ctx, payerID)
}

func (f *CheckoutFacade) SuccessRedirect(ctx context.Context, orderID, validationID string) (*usecase.Outcome, error) {
	return f.reconcile.SuccessRedirect(ctx, orderID, validationID)
}

func (f *CheckoutFacade) FailRedirect(ctx context.Context, orderID, reason string) (*usecase.Outcome, error) {
	return f.reconcile.FailRedirect(ctx, orderID, reason)
}

func (f *CheckoutFacade) CancelRedirect(ctx context.Context, orderID string) (*usecase.Outcome, error) {
	return f.reconcile.CancelRedirect(ctx, orderID)
}

func (f *CheckoutFacade) Notify(ctx context.Context, ipn usecase.IPNPayload) (*usecase.Outcome, error) {
	return f.reconcile.Notify(ctx, ipn)
}

func (f *CheckoutFacade) ChangeOrderStatus(ctx context.Context, orderID string, to model.OrderStatus, note string) (*model.Order, error) {
	return f.orders.ChangeStatus(ctx, orderID, to, note)
}

func (f *CheckoutFacade) CollectCash(ctx context.Context, orderID, note string) (*model.Order, error) {
	return f.orders.CollectCash(ctx, orderID, note)
}

func (f *CheckoutFacade) PendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	return f.orders.ClaimStalePending(ctx, createdBefore, limit)
}

func (f *CheckoutFacade) ReconcilePayment(ctx context.Context, orderID string) (*usecase.Outcome, error) {
	return f.reconcile.ReconcileTransaction(ctx, orderID)
}

func (f *CheckoutFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
