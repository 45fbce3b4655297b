package handlers

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, in usecase.RegisterInput) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (pkgAuth.Claims, error)
}

// CheckoutFacade turns carts into orders and opens payment sessions.
type CheckoutFacade interface {
	PlaceOrder(ctx context.Context, payerID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	RetryPayment(ctx context.Context, payerID int64, orderID string) (*usecase.CheckoutResult, error)
}

// OrderFacade encapsulates order queries exposed via HTTP.
type OrderFacade interface {
	Order(ctx context.Context, callerID int64, orderID string) (*model.Order, error)
	Orders(ctx context.Context, payerID int64) ([]model.OrderSummary, error)
}

// PaymentFacade reconciles gateway redirects and notifications.
type PaymentFacade interface {
	SuccessRedirect(ctx context.Context, orderID, validationID string) (*usecase.Outcome, error)
	FailRedirect(ctx context.Context, orderID, reason string) (*usecase.Outcome, error)
	CancelRedirect(ctx context.Context, orderID string) (*usecase.Outcome, error)
	Notify(ctx context.Context, ipn usecase.IPNPayload) (*usecase.Outcome, error)
}

// AdminFacade moves orders on behalf of an administrator.
type AdminFacade interface {
	ChangeOrderStatus(ctx context.Context, orderID string, to model.OrderStatus, note string) (*model.Order, error)
	CollectCash(ctx context.Context, orderID, note string) (*model.Order, error)
}

type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// Facade aggregates the full set of operations used across handlers.
type Facade interface {
	AuthFacade
	CheckoutFacade
	OrderFacade
	PaymentFacade
	AdminFacade
	HealthFacade
}
