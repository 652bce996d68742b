package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/middleware"
	"github.com/freshfold/freshfold-orders-service/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	checkout *service.CheckoutService
	pricing  *service.PricingEngine
	config   *config.Config
	logger   zerolog.Logger
}

// New creates the handler set.
func New(checkout *service.CheckoutService, pricing *service.PricingEngine, cfg *config.Config, logger zerolog.Logger) *Handlers {
	return &Handlers{
		checkout: checkout,
		pricing:  pricing,
		config:   cfg,
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// currentUserID returns the authenticated caller's id set by the auth
// middleware.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	return userID, userID != ""
}

// handleError maps domain errors to HTTP responses.
func (h *Handlers) handleError(c *gin.Context, err error) {
	var (
		validationErr  *apperrors.ValidationError
		serviceTypeErr *apperrors.InvalidServiceTypeError
		itemTypeErr    *apperrors.UnknownItemTypeError
		upstreamErr    *apperrors.UpstreamError
	)

	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperrors.ErrPaymentNotSuccessful):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment was not successful"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &serviceTypeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": serviceTypeErr.Error()})
	case errors.As(err, &itemTypeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": itemTypeErr.Error()})
	case errors.As(err, &upstreamErr):
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("upstream failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "a dependent service failed"})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
