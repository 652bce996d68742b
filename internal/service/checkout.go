package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/clients"
	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/models"
	"github.com/freshfold/freshfold-orders-service/internal/repository"
)

// OrderEventPublisher publishes order lifecycle events. Publishing is
// best-effort; failures never fail the request.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderConfirmed(ctx context.Context, order *models.Order) error
}

// CheckoutService orchestrates checkout: customer provisioning, pricing,
// payment authorization, order persistence, and payment confirmation.
type CheckoutService struct {
	users     repository.UserRepository
	orders    repository.OrderRepository
	cache     repository.OrderCache
	pricing   *PricingEngine
	payments  clients.PaymentClient
	publisher OrderEventPublisher
	config    *config.Config
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	users repository.UserRepository,
	orders repository.OrderRepository,
	cache repository.OrderCache,
	pricing *PricingEngine,
	payments clients.PaymentClient,
	publisher OrderEventPublisher,
	cfg *config.Config,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		users:     users,
		orders:    orders,
		cache:     cache,
		pricing:   pricing,
		payments:  payments,
		publisher: publisher,
		config:    cfg,
		logger:    logger.With().Str("component", "checkout-service").Logger(),
	}
}

// InitiateCheckout prices the order, authorizes payment with the provider,
// and persists the order in pending status. The provider call precedes the
// local write: a write failure after a successful authorization leaves an
// orphaned intent for the external reconciliation job, logged here with its
// id.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, userID string, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	s.logger.Info().
		Str("user_id", userID).
		Str("service_type", string(req.ServiceType)).
		Msg("initiating checkout")

	now := time.Now().UTC()
	if err := ValidateCheckoutRequest(req, now); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("user read", err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	pricing, err := s.pricing.ComputePrice(ctx, req.ServiceType, req.Items)
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, &models.CreatePaymentIntentRequest{
		Amount:     int64(math.Round(pricing.Total * 100)),
		Currency:   s.config.Payment.Currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			"userId":      userID,
			"serviceType": string(req.ServiceType),
		},
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("payment intent create", err)
	}

	order := &models.Order{
		ID:               newOrderID(),
		UserID:           userID,
		ServiceType:      req.ServiceType,
		Items:            req.Items,
		Pricing:          *pricing,
		PaymentIntentID:  intent.ID,
		Status:           models.OrderStatusPending,
		PickupDateTime:   req.PickupDateTime,
		DeliveryDateTime: EstimateDelivery(req.ServiceType, req.PickupDateTime),
		PickupAddress:    req.PickupAddress,
		DeliveryAddress:  req.DeliveryAddress,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// The intent already exists provider-side with no order row behind
		// it. Reconciliation of orphaned intents is an external job.
		s.logger.Error().
			Err(err).
			Str("intent_id", intent.ID).
			Str("user_id", userID).
			Msg("order write failed after payment authorization, intent orphaned")
		return nil, apperrors.NewUpstreamError("order write", err)
	}

	s.invalidateUserCache(ctx, userID)

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to publish order created event")
		}
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("intent_id", intent.ID).
		Float64("total", pricing.Total).
		Msg("checkout initiated")

	return &models.CheckoutResponse{
		ClientSecret: intent.ClientSecret,
		OrderID:      order.ID,
	}, nil
}

// ConfirmPayment reconciles an order against the provider-reported payment
// outcome. The order must belong to the caller and the supplied intent id
// must match the one stored at checkout; the caller-supplied pairing is not
// trusted on its own.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, userID, orderID, paymentIntentID string) (*models.ConfirmPaymentResponse, error) {
	s.logger.Info().
		Str("order_id", orderID).
		Str("intent_id", paymentIntentID).
		Msg("confirming payment")

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("order read", err)
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.ErrNotFound
	}

	if order.PaymentIntentID != paymentIntentID {
		return nil, apperrors.NewValidationError("paymentIntentId", "payment intent does not belong to this order")
	}

	intent, err := s.payments.RetrievePaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("payment intent read", err)
	}
	if intent == nil {
		return nil, apperrors.ErrNotFound
	}

	if intent.Status != models.PaymentIntentSucceeded {
		s.logger.Info().
			Str("order_id", orderID).
			Str("intent_status", string(intent.Status)).
			Msg("payment not successful, order status unchanged")
		return nil, apperrors.ErrPaymentNotSuccessful
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusConfirmed)
	if err != nil {
		return nil, apperrors.NewUpstreamError("order status update", err)
	}
	if updated == nil {
		return nil, apperrors.ErrNotFound
	}

	s.invalidateUserCache(ctx, userID)

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderConfirmed(ctx, updated); err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to publish order confirmed event")
		}
	}

	s.logger.Info().Str("order_id", orderID).Msg("order confirmed")

	return &models.ConfirmPaymentResponse{
		Success: true,
		Status:  updated.Status,
	}, nil
}

// ListOrders returns every order belonging to the user, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	if s.config.Features.EnableOrderCaching {
		if orders, err := s.cache.GetByUserID(ctx, userID); err == nil && orders != nil {
			return orders, nil
		}
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("order list", err)
	}

	if s.config.Features.EnableOrderCaching {
		if err := s.cache.SetByUserID(ctx, userID, orders); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to cache order list")
		}
	}

	return orders, nil
}

// EnsureCustomer provisions a payment customer for the user if one is not
// stored yet, and returns the customer id. Also invoked by the user-signup
// event consumer.
func (s *CheckoutService) EnsureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", apperrors.NewUpstreamError("user read", err)
	}
	if user == nil {
		return "", apperrors.ErrNotFound
	}

	return s.ensureCustomer(ctx, user)
}

// ensureCustomer lazily provisions the provider customer. Two concurrent
// callers may both provision; the stored id resolves last-write-wins with no
// duplicate detection.
func (s *CheckoutService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	s.logger.Info().Str("user_id", user.ID).Msg("provisioning payment customer")

	customer, err := s.payments.CreateCustomer(ctx, &models.CreateCustomerRequest{
		Email: user.Email,
		Name:  user.Name,
		Metadata: map[string]string{
			"userId": user.ID,
		},
	})
	if err != nil {
		return "", apperrors.NewUpstreamError("customer create", err)
	}

	if err := s.users.SetStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", apperrors.NewUpstreamError("customer id write", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("customer_id", customer.ID).
		Msg("payment customer provisioned")

	return customer.ID, nil
}

func (s *CheckoutService) invalidateUserCache(ctx context.Context, userID string) {
	if !s.config.Features.EnableOrderCaching {
		return
	}
	if err := s.cache.InvalidateByUserID(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to invalidate order cache")
	}
}

func newOrderID() string {
	return "ord_" + uuid.NewString()
}
