package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether no further payment transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// PaymentMethod selects how the payer settles the order.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodMobileBanking  PaymentMethod = "mobile_banking"
	PaymentMethodNetBanking     PaymentMethod = "net_banking"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodCard, PaymentMethodMobileBanking, PaymentMethodNetBanking:
		return true
	}
	return false
}

// ViaGateway reports whether the method is settled by the external processor.
func (m PaymentMethod) ViaGateway() bool {
	return m.Valid() && m != PaymentMethodCashOnDelivery
}

// GatewaySession is the hosted payment page opened for an order.
type GatewaySession struct {
	SessionID   string
	RedirectURL string
	CreatedAt   time.Time
}

// PaymentInfo is the payment sub-document of an order.
type PaymentInfo struct {
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionID  string
	ValidationID   string
	PaidAt         *time.Time
	Session        *GatewaySession
	GatewayPayload map[string]any
}

// Validation is the processor's server-side verdict on a transaction.
type Validation struct {
	Verified          bool
	Status            string
	TransactionID     string
	ValidationID      string
	BankTransactionID string
	Amount            decimal.Decimal
	Currency          string
	Raw               map[string]any
}

// Matches reports whether the validated payment settles the given order exactly.
func (v Validation) Matches(orderID string, total decimal.Decimal, currency string) bool {
	return v.Verified && v.TransactionID == orderID && v.Amount.Equal(total) && v.Currency == currency
}
