package model

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// Valid reports whether s belongs to the closed set of order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// LineItem is a frozen snapshot of a cart line at purchase time.
type LineItem struct {
	ProductRef  string
	ProductName string
	Unit        string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Pricing holds the derived monetary totals of an order.
type Pricing struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Balanced reports whether total equals subtotal + delivery + tax - discount.
func (p Pricing) Balanced() bool {
	return p.Subtotal.Add(p.DeliveryFee).Add(p.Tax).Sub(p.Discount).Equal(p.Total)
}

// Address is the shipping destination captured at checkout.
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// StatusEntry is one row of the append-only status audit log.
type StatusEntry struct {
	Status    OrderStatus
	Timestamp time.Time
	Note      string
}

// Order is the aggregate root of the checkout pipeline.
type Order struct {
	OrderID         string
	PayerID         int64
	Items           []LineItem
	Pricing         Pricing
	ShippingAddress Address
	CustomerNotes   string
	Note            string
	Payment         PaymentInfo
	Status          OrderStatus
	History         []StatusEntry
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers can derive a next state without aliasing.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	c.History = slices.Clone(o.History)
	c.Payment.GatewayPayload = maps.Clone(o.Payment.GatewayPayload)
	if o.Payment.PaidAt != nil {
		paidAt := *o.Payment.PaidAt
		c.Payment.PaidAt = &paidAt
	}
	if o.Payment.Session != nil {
		session := *o.Payment.Session
		c.Payment.Session = &session
	}
	return c
}

// OrderSummary is a list projection used by order history views.
type OrderSummary struct {
	OrderID       string
	Total         decimal.Decimal
	Status        OrderStatus
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}
