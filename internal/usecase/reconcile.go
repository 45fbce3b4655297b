package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
	"github.com/polkiloo/checkout/internal/pricing"
	"github.com/polkiloo/checkout/internal/statemachine"
)

// ErrInvalidNotification is returned for IPN payloads that cannot name an order.
var ErrInvalidNotification = errors.New("invalid payment notification")

// Result summarises the payment state after a callback was handled.
type Result string

const (
	ResultConfirmed Result = "confirmed"
	ResultFailed    Result = "failed"
	ResultCancelled Result = "cancelled"
	ResultPending   Result = "pending"
)

// Outcome is returned by every reconciliation entry point.
type Outcome struct {
	Order   *model.Order
	Applied bool
	Result  Result
}

// IPNPayload is the subset of an instant payment notification the reconciler reads.
type IPNPayload struct {
	TransactionID string
	ValidationID  string
	Status        string
	Raw           map[string]any
}

// Gateway transaction statuses.
const (
	gatewayStatusValid     = "VALID"
	gatewayStatusValidated = "VALIDATED"
	gatewayStatusFailed    = "FAILED"
	gatewayStatusCancelled = "CANCELLED"
)

// ReconcileUseCase settles orders from gateway callbacks, notifications and sweeps.
// Only a successful server-side validation can complete a payment.
type ReconcileUseCase struct {
	transitioner
	gateway    PaymentGateway
	calculator *pricing.Calculator
	currency   string
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(
	orders repository.OrderRepository,
	gw PaymentGateway,
	calculator *pricing.Calculator,
	cfg *config.Config,
	logger *slog.Logger,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		transitioner: transitioner{orders: orders, logger: logger, now: time.Now},
		gateway:      gw,
		calculator:   calculator,
		currency:     cfg.Currency,
	}
}

// SuccessRedirect handles the payer returning from the hosted page with a validation id.
func (u *ReconcileUseCase) SuccessRedirect(ctx context.Context, orderID, validationID string) (*Outcome, error) {
	order, err := u.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status.Terminal() {
		return outcome(order, false), nil
	}
	return u.confirm(ctx, order, validationID)
}

// FailRedirect records a failed payment reported by the hosted page.
func (u *ReconcileUseCase) FailRedirect(ctx context.Context, orderID, reason string) (*Outcome, error) {
	order, err := u.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return u.settle(ctx, order, statemachine.PaymentFailed{Reason: strings.TrimSpace(reason)})
}

// CancelRedirect records a payment abandoned by the payer.
func (u *ReconcileUseCase) CancelRedirect(ctx context.Context, orderID string) (*Outcome, error) {
	order, err := u.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return u.settle(ctx, order, statemachine.PaymentCancelled{Reason: statemachine.ReasonPayerCancelled})
}

// Notify handles an instant payment notification. The notification itself is
// never trusted: a validation id is re-validated, any other final status is
// checked against the gateway's transaction records before it takes effect.
func (u *ReconcileUseCase) Notify(ctx context.Context, ipn IPNPayload) (*Outcome, error) {
	orderID := strings.TrimSpace(ipn.TransactionID)
	if orderID == "" {
		return nil, ErrInvalidNotification
	}

	order, err := u.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status.Terminal() {
		return outcome(order, false), nil
	}

	switch strings.ToUpper(strings.TrimSpace(ipn.Status)) {
	case gatewayStatusValid, gatewayStatusValidated:
		if strings.TrimSpace(ipn.ValidationID) != "" {
			return u.confirm(ctx, order, ipn.ValidationID)
		}
		return u.settleFromRecords(ctx, order)
	case gatewayStatusFailed, gatewayStatusCancelled:
		return u.settleFromRecords(ctx, order)
	default:
		return outcome(order, false), nil
	}
}

// ReconcileTransaction asks the gateway for the transaction of a pending order and
// applies whatever final outcome it reports.
func (u *ReconcileUseCase) ReconcileTransaction(ctx context.Context, orderID string) (*Outcome, error) {
	order, err := u.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status.Terminal() {
		return outcome(order, false), nil
	}
	return u.settleFromRecords(ctx, order)
}

// settleFromRecords applies the final outcome the gateway records for order.
// Without a final record the order stays pending.
func (u *ReconcileUseCase) settleFromRecords(ctx context.Context, order *model.Order) (*Outcome, error) {
	records, err := u.gateway.QueryTransaction(ctx, order.OrderID)
	if err != nil {
		return outcome(order, false), fmt.Errorf("query transaction: %w", err)
	}

	if record, ok := lo.Find(records, func(v model.Validation) bool { return v.Verified }); ok {
		return u.settle(ctx, order, u.eventFor(order, &record))
	}
	if record, ok := lo.Find(records, func(v model.Validation) bool { return v.Status == gatewayStatusFailed }); ok {
		return u.settle(ctx, order, statemachine.PaymentFailed{Reason: failureReason(record.Raw), GatewayPayload: record.Raw})
	}
	if lo.ContainsBy(records, func(v model.Validation) bool { return v.Status == gatewayStatusCancelled }) {
		return u.settle(ctx, order, statemachine.PaymentCancelled{Reason: statemachine.ReasonPayerCancelled})
	}
	return outcome(order, false), nil
}

// failureReason picks the processor's own explanation out of a failed record.
func failureReason(raw map[string]any) string {
	for _, key := range []string{"error", "failedreason"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return statemachine.ReasonGatewayFailed
}

func (u *ReconcileUseCase) load(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Payment.Method.ViaGateway() {
		return nil, fmt.Errorf("%w: order %s is not paid through the gateway", statemachine.ErrIllegalTransition, orderID)
	}
	return order, nil
}

// confirm re-validates validationID. A gateway error leaves the order untouched.
func (u *ReconcileUseCase) confirm(ctx context.Context, order *model.Order, validationID string) (*Outcome, error) {
	validationID = strings.TrimSpace(validationID)
	if validationID == "" {
		return u.settle(ctx, order, statemachine.PaymentFailed{Reason: statemachine.ReasonValidationFailed})
	}

	validation, err := u.gateway.Validate(ctx, validationID)
	if err != nil {
		u.logger.Warn("payment validation unavailable",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		return outcome(order, false), fmt.Errorf("validate payment: %w", err)
	}
	return u.settle(ctx, order, u.eventFor(order, validation))
}

func (u *ReconcileUseCase) eventFor(order *model.Order, v *model.Validation) statemachine.Event {
	if !v.Verified || v.TransactionID != order.OrderID {
		return statemachine.PaymentFailed{Reason: statemachine.ReasonValidationFailed, GatewayPayload: v.Raw}
	}
	if err := u.calculator.Verify(*order); err != nil {
		u.logger.Error("stored pricing drift",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		return statemachine.PaymentFailed{Reason: statemachine.ReasonAmountMismatch, GatewayPayload: v.Raw}
	}
	if !v.Matches(order.OrderID, order.Pricing.Total, u.currency) {
		return statemachine.PaymentFailed{Reason: statemachine.ReasonAmountMismatch, GatewayPayload: v.Raw}
	}
	return statemachine.PaymentConfirmed{
		TransactionID:  v.TransactionID,
		ValidationID:   v.ValidationID,
		GatewayPayload: v.Raw,
	}
}

func (u *ReconcileUseCase) settle(ctx context.Context, order *model.Order, event statemachine.Event) (*Outcome, error) {
	next, applied, err := u.apply(ctx, order, event)
	if err != nil {
		return outcome(next, false), err
	}
	return outcome(next, applied), nil
}

func outcome(order *model.Order, applied bool) *Outcome {
	return &Outcome{Order: order, Applied: applied, Result: resultOf(order.Payment.Status)}
}

func resultOf(status model.PaymentStatus) Result {
	switch status {
	case model.PaymentStatusCompleted:
		return ResultConfirmed
	case model.PaymentStatusFailed:
		return ResultFailed
	case model.PaymentStatusCancelled:
		return ResultCancelled
	default:
		return ResultPending
	}
}
