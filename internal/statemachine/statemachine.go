package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// ErrIllegalTransition is matched by every *TransitionError.
var ErrIllegalTransition = errors.New("illegal order transition")

// TransitionError describes an event that cannot be applied to the order's current state.
type TransitionError struct {
	OrderID string
	Event   string
	Status  model.OrderStatus
	Payment model.PaymentStatus
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot apply %s in %s/%s: %s", e.OrderID, e.Event, e.Status, e.Payment, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
	model.OrderStatusDelivered:  {model.OrderStatusReturned},
}

// CanTransition reports whether the fulfilment table allows from -> to.
func CanTransition(from, to model.OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

// InitialHistory is the audit entry written when an order is placed.
func InitialHistory(now time.Time) []model.StatusEntry {
	return []model.StatusEntry{{Status: model.OrderStatusPending, Timestamp: now, Note: "order placed"}}
}

// Apply returns the order that results from event. The input is never mutated.
// changed is false when the event is absorbed as a replay.
func Apply(order model.Order, event Event, now time.Time) (model.Order, bool, error) {
	if event == nil {
		return order, false, &TransitionError{OrderID: order.OrderID, Event: "none", Status: order.Status, Payment: order.Payment.Status, Reason: "nil event"}
	}
	switch e := event.(type) {
	case PaymentConfirmed:
		return applyPayment(order, e, now)
	case PaymentFailed:
		return applyPayment(order, e, now)
	case PaymentCancelled:
		return applyPayment(order, e, now)
	case StatusChanged:
		return applyStatusChange(order, e, now)
	case CashCollected:
		return applyCashCollected(order, e, now)
	default:
		return order, false, reject(order, event, "unknown event")
	}
}

func applyPayment(order model.Order, event Event, now time.Time) (model.Order, bool, error) {
	if order.Payment.Status.Terminal() {
		return order, false, nil
	}
	if !order.Payment.Method.ViaGateway() {
		return order, false, reject(order, event, "payment method is not settled through the gateway")
	}

	next := order.Clone()
	switch e := event.(type) {
	case PaymentConfirmed:
		paidAt := now
		next.Payment.Status = model.PaymentStatusCompleted
		next.Payment.TransactionID = e.TransactionID
		next.Payment.ValidationID = e.ValidationID
		next.Payment.GatewayPayload = e.GatewayPayload
		next.Payment.PaidAt = &paidAt
		if next.Status == model.OrderStatusPending {
			moveTo(&next, model.OrderStatusConfirmed, "payment confirmed", now)
		}
	case PaymentFailed:
		reason := orDefault(e.Reason, ReasonGatewayFailed)
		next.Payment.Status = model.PaymentStatusFailed
		if e.GatewayPayload != nil {
			next.Payment.GatewayPayload = e.GatewayPayload
		}
		cancelWith(&next, reason, now)
	case PaymentCancelled:
		reason := orDefault(e.Reason, ReasonPayerCancelled)
		next.Payment.Status = model.PaymentStatusCancelled
		cancelWith(&next, reason, now)
	}
	next.UpdatedAt = now
	return next, true, nil
}

func applyStatusChange(order model.Order, e StatusChanged, now time.Time) (model.Order, bool, error) {
	if !e.To.Valid() {
		return order, false, reject(order, e, fmt.Sprintf("unknown status %q", e.To))
	}
	if order.Status == e.To {
		return order, false, nil
	}
	if !CanTransition(order.Status, e.To) {
		return order, false, reject(order, e, fmt.Sprintf("%s cannot follow %s", e.To, order.Status))
	}
	if e.To == model.OrderStatusConfirmed && order.Payment.Method.ViaGateway() &&
		order.Payment.Status != model.PaymentStatusCompleted {
		return order, false, reject(order, e, "payment is not completed")
	}

	next := order.Clone()
	if e.To == model.OrderStatusCancelled {
		if next.Payment.Status == model.PaymentStatusPending {
			next.Payment.Status = model.PaymentStatusCancelled
		}
		next.Note = orDefault(e.Note, ReasonAdminCancelled)
	}
	moveTo(&next, e.To, e.Note, now)
	next.UpdatedAt = now
	return next, true, nil
}

func applyCashCollected(order model.Order, e CashCollected, now time.Time) (model.Order, bool, error) {
	if order.Payment.Method != model.PaymentMethodCashOnDelivery {
		return order, false, reject(order, e, "order is not cash on delivery")
	}
	if order.Payment.Status == model.PaymentStatusCompleted {
		return order, false, nil
	}
	if order.Payment.Status.Terminal() || order.Status == model.OrderStatusCancelled {
		return order, false, reject(order, e, "order is cancelled")
	}

	next := order.Clone()
	paidAt := now
	next.Payment.Status = model.PaymentStatusCompleted
	next.Payment.PaidAt = &paidAt
	if e.Note != "" {
		next.Note = e.Note
	}
	next.UpdatedAt = now
	return next, true, nil
}

func cancelWith(order *model.Order, reason string, now time.Time) {
	order.Note = reason
	if order.Status != model.OrderStatusCancelled {
		moveTo(order, model.OrderStatusCancelled, reason, now)
	}
}

func moveTo(order *model.Order, status model.OrderStatus, note string, now time.Time) {
	order.Status = status
	order.History = append(order.History, model.StatusEntry{Status: status, Timestamp: now, Note: note})
}

func reject(order model.Order, event Event, reason string) error {
	return &TransitionError{
		OrderID: order.OrderID,
		Event:   event.Name(),
		Status:  order.Status,
		Payment: order.Payment.Status,
		Reason:  reason,
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
