package repository

import (
	"context"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// Status fields change only through ApplyTransition, which succeeds only while
// the stored order and payment statuses still equal those of prev.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	ListByPayer(ctx context.Context, payerID int64) ([]model.OrderSummary, error)
	AttachSession(ctx context.Context, orderID string, session model.GatewaySession) error
	ApplyTransition(ctx context.Context, prev, next *model.Order) error
	ClaimStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
}
