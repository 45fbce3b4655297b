package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/checkout/internal/usecase"
)

const (
	pageSuccess   = "success"
	pageFailed    = "failed"
	pageCancelled = "cancelled"
	pagePending   = "pending"
)

// PaymentHandler receives gateway redirects and instant payment notifications.
type PaymentHandler struct {
	facade      PaymentFacade
	frontendURL string
	logger      *slog.Logger
}

// NewPaymentHandler creates PaymentHandler instance redirecting payers to frontendURL.
func NewPaymentHandler(facade PaymentFacade, frontendURL string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{facade: facade, frontendURL: strings.TrimRight(frontendURL, "/"), logger: logger}
}

// SuccessRedirect handles GET/POST /payment/success-redirect/:orderId.
func (h *PaymentHandler) SuccessRedirect(c *gin.Context) {
	orderID := c.Param("orderId")
	outcome, err := h.facade.SuccessRedirect(c.Request.Context(), orderID, formValue(c, "val_id"))
	h.redirect(c, orderID, outcome, err)
}

// FailRedirect handles GET/POST /payment/fail-redirect/:orderId.
func (h *PaymentHandler) FailRedirect(c *gin.Context) {
	orderID := c.Param("orderId")
	outcome, err := h.facade.FailRedirect(c.Request.Context(), orderID, failedReason(c))
	h.redirect(c, orderID, outcome, err)
}

// CancelRedirect handles GET/POST /payment/cancel-redirect/:orderId.
func (h *PaymentHandler) CancelRedirect(c *gin.Context) {
	orderID := c.Param("orderId")
	outcome, err := h.facade.CancelRedirect(c.Request.Context(), orderID)
	h.redirect(c, orderID, outcome, err)
}

// Notify handles POST /payment/ipn. The gateway always receives 200.
func (h *PaymentHandler) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.logger.Warn("ipn form unreadable", slog.Any("error", err))
		c.Status(http.StatusOK)
		return
	}

	raw := make(map[string]any, len(c.Request.PostForm))
	for key := range c.Request.PostForm {
		raw[key] = c.Request.PostForm.Get(key)
	}

	ipn := usecase.IPNPayload{
		TransactionID: formValue(c, "tran_id"),
		ValidationID:  formValue(c, "val_id"),
		Status:        formValue(c, "status"),
		Raw:           raw,
	}

	outcome, err := h.facade.Notify(c.Request.Context(), ipn)
	if err != nil {
		h.logger.Error("ipn processing failed",
			slog.String("order_id", ipn.TransactionID),
			slog.String("status", ipn.Status),
			slog.Any("error", err),
		)
	} else {
		h.logger.Info("ipn processed",
			slog.String("order_id", ipn.TransactionID),
			slog.String("result", string(outcome.Result)),
			slog.Bool("applied", outcome.Applied),
		)
	}
	c.Status(http.StatusOK)
}

func (h *PaymentHandler) redirect(c *gin.Context, orderID string, outcome *usecase.Outcome, err error) {
	page := pageFailed
	if outcome != nil {
		page = pageFor(outcome.Result)
	}
	if err != nil {
		h.logger.Warn("payment redirect not reconciled",
			slog.String("order_id", orderID),
			slog.String("page", page),
			slog.Any("error", err),
		)
	}

	target := h.frontendURL + "/checkout/" + page + "?orderId=" + url.QueryEscape(orderID)
	c.Redirect(http.StatusSeeOther, target)
}

func pageFor(result usecase.Result) string {
	switch result {
	case usecase.ResultConfirmed:
		return pageSuccess
	case usecase.ResultCancelled:
		return pageCancelled
	case usecase.ResultPending:
		return pagePending
	default:
		return pageFailed
	}
}

// formValue reads a gateway field from the posted form, falling back to the query string.
// failedReason is the processor's explanation of a failed payment, if it sent one.
func failedReason(c *gin.Context) string {
	if reason := strings.TrimSpace(formValue(c, "error")); reason != "" {
		return reason
	}
	return strings.TrimSpace(formValue(c, "failedreason"))
}

func formValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}
