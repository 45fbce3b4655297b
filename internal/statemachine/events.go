package statemachine

import "github.com/polkiloo/checkout/internal/domain/model"

// Event is an input to Apply.
type Event interface {
	Name() string
}

// PaymentConfirmed is raised only after the processor re-validated the payment.
type PaymentConfirmed struct {
	TransactionID  string
	ValidationID   string
	GatewayPayload map[string]any
}

// PaymentFailed records a negative payment outcome.
type PaymentFailed struct {
	Reason         string
	GatewayPayload map[string]any
}

// PaymentCancelled records a payer-abandoned payment.
type PaymentCancelled struct {
	Reason string
}

// StatusChanged is an administrative fulfilment move.
type StatusChanged struct {
	To   model.OrderStatus
	Note string
}

// CashCollected settles a cash-on-delivery payment.
type CashCollected struct {
	Note string
}

func (PaymentConfirmed) Name() string { return "payment_confirmed" }
func (PaymentFailed) Name() string    { return "payment_failed" }
func (PaymentCancelled) Name() string { return "payment_cancelled" }
func (StatusChanged) Name() string    { return "status_changed" }
func (CashCollected) Name() string    { return "cash_collected" }

// Failure reasons recorded in the order note.
const (
	ReasonValidationFailed = "validation_failed"
	ReasonAmountMismatch   = "amount_mismatch"
	ReasonGatewayFailed    = "gateway_failed"
	ReasonPayerCancelled   = "cancelled_by_payer"
	ReasonAdminCancelled   = "cancelled_by_admin"
)
