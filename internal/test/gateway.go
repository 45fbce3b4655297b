package test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/domain/model"
)

// GatewayStub imitates the payment processor.
type GatewayStub struct {
	InitFn     func(context.Context, gateway.SessionRequest) (*model.GatewaySession, error)
	ValidateFn func(context.Context, string) (*model.Validation, error)
	QueryFn    func(context.Context, string) ([]model.Validation, error)

	mu            sync.Mutex
	Sessions      []gateway.SessionRequest
	ValidateCalls atomic.Int32
	QueryCalls    atomic.Int32
}

// InitSession records the request and returns a hosted page for the order.
func (s *GatewayStub) InitSession(ctx context.Context, req gateway.SessionRequest) (*model.GatewaySession, error) {
	s.mu.Lock()
	s.Sessions = append(s.Sessions, req)
	s.mu.Unlock()
	if s.InitFn != nil {
		return s.InitFn(ctx, req)
	}
	return &model.GatewaySession{
		SessionID:   "session-" + req.OrderID,
		RedirectURL: "https://gateway.test/pay/" + req.OrderID,
		CreatedAt:   time.Unix(0, 0).UTC(),
	}, nil
}

// SessionRequests returns a copy of the recorded InitSession requests.
func (s *GatewayStub) SessionRequests() []gateway.SessionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.SessionRequest(nil), s.Sessions...)
}

// Validate delegates to ValidateFn. Without one every validation id is rejected.
func (s *GatewayStub) Validate(ctx context.Context, validationID string) (*model.Validation, error) {
	s.ValidateCalls.Add(1)
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx, validationID)
	}
	return &model.Validation{Status: "INVALID_TRANSACTION", ValidationID: validationID}, nil
}

// QueryTransaction delegates to QueryFn and reports no records otherwise.
func (s *GatewayStub) QueryTransaction(ctx context.Context, transactionID string) ([]model.Validation, error) {
	s.QueryCalls.Add(1)
	if s.QueryFn != nil {
		return s.QueryFn(ctx, transactionID)
	}
	return nil, nil
}

// ValidPayment builds a verified validation settling order in currency.
func ValidPayment(order model.Order, validationID, currency string) *model.Validation {
	return &model.Validation{
		Verified:      true,
		Status:        "VALID",
		TransactionID: order.OrderID,
		ValidationID:  validationID,
		Amount:        order.Pricing.Total,
		Currency:      strings.ToUpper(currency),
		Raw: map[string]any{
			"status":   "VALID",
			"tran_id":  order.OrderID,
			"val_id":   validationID,
			"amount":   order.Pricing.Total.StringFixed(2),
			"currency": strings.ToUpper(currency),
		},
	}
}
