package dto

// StatusChangeRequest is the body of PATCH /api/admin/orders/:orderId/status.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// CashCollectedRequest is the optional body of POST /api/admin/orders/:orderId/cash-collected.
type CashCollectedRequest struct {
	Note string `json:"note,omitempty"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
