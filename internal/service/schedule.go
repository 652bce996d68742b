package service

import (
	"time"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// Turnaround between pickup and estimated delivery.
const (
	expressTurnaround  = 24 * time.Hour
	standardTurnaround = 48 * time.Hour
)

// EstimateDelivery returns the delivery estimate for a pickup time: 24 hours
// for express, 48 hours for everything else.
func EstimateDelivery(serviceType models.ServiceType, pickup time.Time) time.Time {
	if serviceType == models.ServiceExpressWashFold {
		return pickup.Add(expressTurnaround)
	}
	return pickup.Add(standardTurnaround)
}

// ValidatePickup checks that a pickup time is set and lies in the future.
func ValidatePickup(pickup time.Time, now time.Time) error {
	if pickup.IsZero() {
		return apperrors.NewValidationError("pickupDateTime", "pickup date and time are required")
	}
	if !pickup.After(now) {
		return apperrors.NewValidationError("pickupDateTime", "pickup must be in the future")
	}
	return nil
}
