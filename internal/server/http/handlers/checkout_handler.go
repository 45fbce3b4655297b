package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/server/http/dto"
)

// CheckoutHandler turns submitted carts into orders.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler creates CheckoutHandler instance.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.facade.PlaceOrder(c.Request.Context(), CurrentUserID(c), toCheckoutRequest(req))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCart),
			errors.Is(err, domainErrors.ErrInvalidAddress),
			errors.Is(err, domainErrors.ErrInvalidPaymentMethod):
			abortWithError(c, http.StatusBadRequest, err)
		case errors.Is(err, domainErrors.ErrUnknownProduct):
			abortWithError(c, http.StatusUnprocessableEntity, err)
		case errors.Is(err, domainErrors.ErrPaymentInitFailed) && result != nil && result.Order != nil:
			c.JSON(http.StatusBadGateway, dto.PaymentErrorResponse{OrderID: result.Order.OrderID, Error: err.Error()})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		OrderID:       result.Order.OrderID,
		Status:        string(result.Order.Status),
		PaymentStatus: string(result.Order.Payment.Status),
		Total:         money(result.Order.Pricing.Total),
		PaymentURL:    result.PaymentURL,
	})
}
