package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/server/http/dto"
)

// OrderHandler exposes the payer's own orders.
type OrderHandler struct {
	orders   OrderFacade
	checkout CheckoutFacade
}

// NewOrderHandler creates OrderHandler instance.
func NewOrderHandler(orders OrderFacade, checkout CheckoutFacade) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkout}
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.Orders(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, toSummaryResponse))
}

// Get handles GET /payment/order/:orderId.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Order(c.Request.Context(), CurrentUserID(c), c.Param("orderId"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// RetryPayment handles POST /payment/order/:orderId/retry.
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	result, err := h.checkout.RetryPayment(c.Request.Context(), CurrentUserID(c), c.Param("orderId"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrPaymentNotRetryable):
			abortWithError(c, http.StatusConflict, err)
		case errors.Is(err, domainErrors.ErrPaymentInitFailed):
			c.JSON(http.StatusBadGateway, dto.PaymentErrorResponse{OrderID: c.Param("orderId"), Error: err.Error()})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.RetryPaymentResponse{OrderID: result.Order.OrderID, PaymentURL: result.PaymentURL})
}
