package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/models"
	"github.com/freshfold/freshfold-orders-service/internal/service"
)

// QuoteOrderPrice handles POST /api/v1/pricing/quote.
func (h *Handlers) QuoteOrderPrice(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		h.handleError(c, apperrors.ErrUnauthenticated)
		return
	}

	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.NewValidationError("body", "invalid request body"))
		return
	}

	pricing, err := h.pricing.ComputePrice(c.Request.Context(), req.ServiceType, req.Items)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, pricing)
}

// Checkout handles POST /api/v1/checkout.
func (h *Handlers) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.handleError(c, apperrors.ErrUnauthenticated)
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.NewValidationError("body", "invalid request body"))
		return
	}

	resp, err := h.checkout.InitiateCheckout(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ConfirmPayment handles POST /api/v1/checkout/confirm.
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.handleError(c, apperrors.ErrUnauthenticated)
		return
	}

	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.NewValidationError("body", "invalid request body"))
		return
	}
	if err := service.ValidateConfirmRequest(&req); err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.checkout.ConfirmPayment(c.Request.Context(), userID, req.OrderID, req.PaymentIntentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListOrders handles GET /api/v1/orders.
func (h *Handlers) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.handleError(c, apperrors.ErrUnauthenticated)
		return
	}

	orders, err := h.checkout.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if orders == nil {
		orders = []*models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
