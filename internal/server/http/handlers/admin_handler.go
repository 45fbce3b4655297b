package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/statemachine"
)

// AdminHandler exposes administrative order transitions.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler creates AdminHandler instance.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// ChangeStatus handles PATCH /api/admin/orders/:orderId/status.
func (h *AdminHandler) ChangeStatus(c *gin.Context) {
	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	to := model.OrderStatus(req.Status)
	if !to.Valid() {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.ChangeOrderStatus(c.Request.Context(), c.Param("orderId"), to, req.Note)
	if err != nil {
		writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// CashCollected handles POST /api/admin/orders/:orderId/cash-collected.
func (h *AdminHandler) CashCollected(c *gin.Context) {
	var req dto.CashCollectedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.CollectCash(c.Request.Context(), c.Param("orderId"), req.Note)
	if err != nil {
		writeTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, statemachine.ErrIllegalTransition),
		errors.Is(err, domainErrors.ErrStateConflict):
		abortWithError(c, http.StatusConflict, err)
	default:
		c.Status(http.StatusInternalServerError)
	}
}
