package models

// PaymentIntentStatus is the provider-reported state of a payment intent.
type PaymentIntentStatus string

const (
	PaymentIntentSucceeded  PaymentIntentStatus = "succeeded"
	PaymentIntentProcessing PaymentIntentStatus = "processing"
	PaymentIntentCanceled   PaymentIntentStatus = "canceled"
)

// Customer is the provider-side payment account for a user.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PaymentIntent is a payment authorization. Amount is in minor units.
type PaymentIntent struct {
	ID           string              `json:"id"`
	ClientSecret string              `json:"clientSecret"`
	Status       PaymentIntentStatus `json:"status"`
	Amount       int64               `json:"amount"`
	Currency     string              `json:"currency"`
	CustomerID   string              `json:"customerId"`
}

// CreateCustomerRequest provisions a customer with the provider.
type CreateCustomerRequest struct {
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreatePaymentIntentRequest asks the provider to authorize a payment.
type CreatePaymentIntentRequest struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	CustomerID string            `json:"customerId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
