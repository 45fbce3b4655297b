package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
	"github.com/polkiloo/checkout/internal/pricing"
	"github.com/polkiloo/checkout/internal/statemachine"
)

// PaymentGateway is the part of the payment processor the use cases depend on.
type PaymentGateway interface {
	InitSession(ctx context.Context, req gateway.SessionRequest) (*model.GatewaySession, error)
	Validate(ctx context.Context, validationID string) (*model.Validation, error)
	QueryTransaction(ctx context.Context, transactionID string) ([]model.Validation, error)
}

// CartItem is a single line submitted by the payer.
type CartItem struct {
	ProductRef string
	Quantity   int
}

// CheckoutRequest is the payer's checkout submission.
type CheckoutRequest struct {
	Items           []CartItem
	ShippingAddress model.Address
	PaymentMethod   model.PaymentMethod
	CustomerNotes   string
}

// CheckoutResult is returned by PlaceOrder. Order is set whenever the order was persisted.
type CheckoutResult struct {
	Order      *model.Order
	PaymentURL string
}

// CheckoutUseCase turns carts into priced orders and opens payment sessions.
type CheckoutUseCase struct {
	catalog    repository.CatalogRepository
	orders     repository.OrderRepository
	gateway    PaymentGateway
	calculator *pricing.Calculator
	logger     *slog.Logger
	now        func() time.Time
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(
	catalog repository.CatalogRepository,
	orders repository.OrderRepository,
	gw PaymentGateway,
	calculator *pricing.Calculator,
	logger *slog.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		catalog:    catalog,
		orders:     orders,
		gateway:    gw,
		calculator: calculator,
		logger:     logger,
		now:        time.Now,
	}
}

// PlaceOrder validates and prices the cart, persists a pending order and, for gateway
// methods, opens a hosted payment session.
//
// When the session cannot be opened the persisted order is still returned together
// with an error matching ErrPaymentInitFailed.
func (u *CheckoutUseCase) PlaceOrder(ctx context.Context, payerID int64, req CheckoutRequest) (*CheckoutResult, error) {
	items, err := normalizeCart(req.Items)
	if err != nil {
		return nil, err
	}
	if err := validateAddress(req.ShippingAddress); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, domainErrors.ErrInvalidPaymentMethod
	}

	products, err := u.catalog.GetByRefs(ctx, lo.Map(items, func(item CartItem, _ int) string { return item.ProductRef }))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	lines := make([]pricing.Line, 0, len(items))
	lineItems := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductRef]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnknownProduct, item.ProductRef)
		}
		lines = append(lines, pricing.Line{ProductRef: product.Ref, UnitPrice: product.Price, Quantity: item.Quantity})
		lineItems = append(lineItems, model.LineItem{
			ProductRef:  product.Ref,
			ProductName: product.Name,
			Unit:        product.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			LineTotal:   pricing.LineTotal(product.Price, item.Quantity),
		})
	}

	totals, err := u.calculator.Calculate(lines, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrInvalidCart, err)
	}

	now := u.now().UTC()
	order := &model.Order{
		OrderID:         newOrderID(now),
		PayerID:         payerID,
		Items:           lineItems,
		Pricing:         totals,
		ShippingAddress: req.ShippingAddress,
		CustomerNotes:   strings.TrimSpace(req.CustomerNotes),
		Payment: model.PaymentInfo{
			Method: req.PaymentMethod,
			Status: model.PaymentStatusPending,
		},
		Status:    model.OrderStatusPending,
		History:   statemachine.InitialHistory(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	u.logger.Info("checkout created",
		slog.String("order_id", order.OrderID),
		slog.Int64("payer_id", payerID),
		slog.String("payment_method", string(order.Payment.Method)),
		slog.String("total", order.Pricing.Total.StringFixed(2)),
	)

	result := &CheckoutResult{Order: order}
	if !order.Payment.Method.ViaGateway() {
		return result, nil
	}

	url, err := u.openSession(ctx, order)
	if err != nil {
		return result, err
	}
	result.PaymentURL = url
	return result, nil
}

// RetryPayment opens a new payment session for the payer's own unpaid gateway order.
func (u *CheckoutUseCase) RetryPayment(ctx context.Context, payerID int64, orderID string) (*CheckoutResult, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PayerID != payerID {
		return nil, domainErrors.ErrForbidden
	}
	if !order.Payment.Method.ViaGateway() ||
		order.Payment.Status != model.PaymentStatusPending ||
		order.Status != model.OrderStatusPending {
		return nil, domainErrors.ErrPaymentNotRetryable
	}
	if err := u.calculator.Verify(*order); err != nil {
		return nil, err
	}

	url, err := u.openSession(ctx, order)
	if err != nil {
		return &CheckoutResult{Order: order}, err
	}
	return &CheckoutResult{Order: order, PaymentURL: url}, nil
}

func (u *CheckoutUseCase) openSession(ctx context.Context, order *model.Order) (string, error) {
	session, err := u.gateway.InitSession(ctx, sessionRequest(order))
	if err != nil {
		u.logger.Warn("payment session init failed",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", domainErrors.ErrPaymentInitFailed, err)
	}

	if err := u.orders.AttachSession(ctx, order.OrderID, *session); err != nil {
		if errors.Is(err, domainErrors.ErrStateConflict) {
			return "", domainErrors.ErrPaymentNotRetryable
		}
		return "", fmt.Errorf("persist session: %w", err)
	}
	order.Payment.Session = session
	return session.RedirectURL, nil
}

func sessionRequest(order *model.Order) gateway.SessionRequest {
	addr := order.ShippingAddress
	names := lo.Uniq(lo.Map(order.Items, func(item model.LineItem, _ int) string { return item.ProductName }))
	return gateway.SessionRequest{
		OrderID: order.OrderID,
		Amount:  order.Pricing.Total,
		Customer: gateway.Customer{
			Name:     addr.FullName,
			Email:    addr.Email,
			Phone:    addr.Phone,
			Address1: addr.Line1,
			Address2: addr.Line2,
			City:     addr.City,
			PostCode: addr.PostalCode,
			Country:  addr.Country,
		},
		ProductName: strings.Join(names, ", "),
		NumItems:    lo.SumBy(order.Items, func(item model.LineItem) int { return item.Quantity }),
	}
}

// normalizeCart merges repeated refs keeping first-seen order.
func normalizeCart(items []CartItem) ([]CartItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domainErrors.ErrInvalidCart)
	}

	merged := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		ref := strings.TrimSpace(item.ProductRef)
		if ref == "" {
			return nil, fmt.Errorf("%w: product reference is required", domainErrors.ErrInvalidCart)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of %s must be at least 1", domainErrors.ErrInvalidCart, ref)
		}
		if i, ok := index[ref]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[ref] = len(merged)
		merged = append(merged, CartItem{ProductRef: ref, Quantity: item.Quantity})
	}
	return merged, nil
}

func validateAddress(addr model.Address) error {
	required := map[string]string{
		"fullName": addr.FullName,
		"phone":    addr.Phone,
		"line1":    addr.Line1,
		"city":     addr.City,
	}
	for _, field := range []string{"fullName", "phone", "line1", "city"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("%w: %s is required", domainErrors.ErrInvalidAddress, field)
		}
	}
	return nil
}

// newOrderID returns an id of the form ORD-<unix millis>-<6 hex>-<4 hex>.
func newOrderID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("ORD-%d-%s-%s",
		now.UnixMilli(),
		strings.ToUpper(hex.EncodeToString(u[0:3])),
		strings.ToUpper(hex.EncodeToString(u[3:5])),
	)
}
