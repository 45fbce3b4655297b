package dto

// CartItem is one line of the submitted cart.
type CartItem struct {
	ProductRef string `json:"productRef"`
	Quantity   int    `json:"quantity"`
}

// Address is the shipping destination payload.
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

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	Items           []CartItem `json:"items"`
	ShippingAddress Address    `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	CustomerNotes   string     `json:"customerNotes,omitempty"`
}

// CheckoutResponse is returned when an order was persisted.
type CheckoutResponse struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	Total         string `json:"total"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
}

// PaymentErrorResponse reports a persisted order whose payment could not be started.
type PaymentErrorResponse struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}
