package models

import "time"

// ServiceType selects both the pricing formula and the item shape of an order.
type ServiceType string

const (
	ServiceWashFold        ServiceType = "wash-fold"
	ServiceExpressWashFold ServiceType = "express-wash-fold"
	ServiceDryCleaning     ServiceType = "dry-cleaning"
)

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceWashFold, ServiceExpressWashFold, ServiceDryCleaning:
		return true
	}
	return false
}

// WeightBased reports whether the service is priced by estimated weight
// rather than by a per-item list.
func (s ServiceType) WeightBased() bool {
	return s != ServiceDryCleaning
}

// DryCleanItem is a single dry-cleaning line: a garment kind and a count.
type DryCleanItem struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// OrderItems is a tagged union keyed by the order's service type.
// Weight-based services populate EstimatedWeight; dry cleaning populates
// DryCleanItems. Exactly one variant is meaningful per order.
type OrderItems struct {
	EstimatedWeight float64        `json:"estimatedWeight,omitempty"`
	DryCleanItems   []DryCleanItem `json:"dryCleanItems,omitempty"`
}

// PricingResult is the computed price breakdown, each field rounded to cents.
type PricingResult struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type OrderStatus string

const (
	// OrderStatusPending is assigned at checkout, before the payment settles.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed is assigned once the provider reports the payment succeeded.
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// Order is the persisted order entity.
type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"userId"`
	ServiceType      ServiceType   `json:"serviceType"`
	Items            OrderItems    `json:"items"`
	Pricing          PricingResult `json:"pricing"`
	PaymentIntentID  string        `json:"paymentIntentId"`
	Status           OrderStatus   `json:"status"`
	PickupDateTime   time.Time     `json:"pickupDateTime"`
	DeliveryDateTime time.Time     `json:"deliveryDateTime"`
	PickupAddress    string        `json:"pickupAddress"`
	DeliveryAddress  string        `json:"deliveryAddress"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// QuoteRequest asks for a live price for the given selection.
type QuoteRequest struct {
	ServiceType ServiceType `json:"serviceType"`
	Items       OrderItems  `json:"items"`
}

// CheckoutRequest is the order payload submitted at checkout.
// The delivery estimate is computed server-side from the pickup time.
type CheckoutRequest struct {
	ServiceType     ServiceType `json:"serviceType"`
	Items           OrderItems  `json:"items"`
	PickupDateTime  time.Time   `json:"pickupDateTime"`
	PickupAddress   string      `json:"pickupAddress"`
	DeliveryAddress string      `json:"deliveryAddress"`
}

// CheckoutResponse carries what the browser needs to collect card details.
type CheckoutResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
}

type ConfirmPaymentRequest struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmPaymentResponse struct {
	Success bool        `json:"success"`
	Status  OrderStatus `json:"status"`
}
