package dto

import "time"

// OrderSummaryResponse is one entry of the payer's order list.
type OrderSummaryResponse struct {
	OrderID       string    `json:"orderId"`
	Total         string    `json:"total"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentStatus string    `json:"paymentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

type LineItemResponse struct {
	ProductRef  string `json:"productRef"`
	ProductName string `json:"productName"`
	Unit        string `json:"unit"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

type PricingResponse struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"deliveryFee"`
	Tax         string `json:"tax"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

type PaymentResponse struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	PaymentURL    string     `json:"paymentUrl,omitempty"`
}

type StatusEntryResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// OrderResponse is the full order document.
type OrderResponse struct {
	OrderID         string                `json:"orderId"`
	Status          string                `json:"status"`
	Items           []LineItemResponse    `json:"items"`
	Pricing         PricingResponse       `json:"pricing"`
	ShippingAddress Address               `json:"shippingAddress"`
	CustomerNotes   string                `json:"customerNotes,omitempty"`
	Note            string                `json:"note,omitempty"`
	Payment         PaymentResponse       `json:"payment"`
	History         []StatusEntryResponse `json:"statusHistory"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// RetryPaymentResponse carries the new hosted payment page.
type RetryPaymentResponse struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}
