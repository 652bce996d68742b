package service

import (
	"time"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// ValidateOrderItems checks the item payload against the service type's
// expected shape.
func ValidateOrderItems(serviceType models.ServiceType, items models.OrderItems) error {
	if !serviceType.Valid() {
		return &apperrors.InvalidServiceTypeError{ServiceType: string(serviceType)}
	}

	if serviceType == models.ServiceDryCleaning {
		if len(items.DryCleanItems) == 0 {
			return apperrors.NewValidationError("items", "at least one item is required for dry cleaning")
		}
		for _, item := range items.DryCleanItems {
			if item.Type == "" {
				return apperrors.NewValidationError("items", "item type is required")
			}
			if item.Quantity <= 0 {
				return apperrors.NewValidationError("items", "item quantity must be positive")
			}
		}
		return nil
	}

	if items.EstimatedWeight <= 0 {
		return apperrors.NewValidationError("items", "a valid laundry weight is required")
	}

	return nil
}

// ValidateCheckoutRequest validates the full checkout payload. Item-shape
// errors surface here before any external call is made.
func ValidateCheckoutRequest(req *models.CheckoutRequest, now time.Time) error {
	if err := ValidateOrderItems(req.ServiceType, req.Items); err != nil {
		return err
	}

	if err := ValidatePickup(req.PickupDateTime, now); err != nil {
		return err
	}

	if req.PickupAddress == "" {
		return apperrors.NewValidationError("pickupAddress", "pickup address is required")
	}
	if req.DeliveryAddress == "" {
		return apperrors.NewValidationError("deliveryAddress", "delivery address is required")
	}

	return nil
}

// ValidateConfirmRequest validates a payment confirmation payload.
func ValidateConfirmRequest(req *models.ConfirmPaymentRequest) error {
	if req.OrderID == "" {
		return apperrors.NewValidationError("orderId", "order ID is required")
	}
	if req.PaymentIntentID == "" {
		return apperrors.NewValidationError("paymentIntentId", "payment intent ID is required")
	}
	return nil
}
