package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
	"github.com/polkiloo/checkout/internal/statemachine"
)

// OrderUseCase serves order reads and administrative fulfilment moves.
type OrderUseCase struct {
	transitioner
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{transitioner: transitioner{orders: orders, logger: logger, now: time.Now}}
}

// Get returns the order if callerID placed it.
func (u *OrderUseCase) Get(ctx context.Context, callerID int64, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PayerID != callerID {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// ListByPayer returns the payer's orders, newest first.
func (u *OrderUseCase) ListByPayer(ctx context.Context, payerID int64) ([]model.OrderSummary, error) {
	return u.orders.ListByPayer(ctx, payerID)
}

// ChangeStatus moves the order along the fulfilment table.
func (u *OrderUseCase) ChangeStatus(ctx context.Context, orderID string, to model.OrderStatus, note string) (*model.Order, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, _, err := u.apply(ctx, order, statemachine.StatusChanged{To: to, Note: strings.TrimSpace(note)})
	return next, err
}

// CollectCash marks a cash on delivery payment as completed.
func (u *OrderUseCase) CollectCash(ctx context.Context, orderID, note string) (*model.Order, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, _, err := u.apply(ctx, order, statemachine.CashCollected{Note: strings.TrimSpace(note)})
	return next, err
}

// ClaimStalePending reserves pending gateway payments created before the cutoff for reconciliation.
func (u *OrderUseCase) ClaimStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	return u.orders.ClaimStalePending(ctx, createdBefore, limit)
}
