package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// PaymentClient abstracts the payment provider: customer provisioning,
// payment-intent creation, and intent status lookup. Card collection happens
// between the browser and the provider directly via the client secret.
type PaymentClient interface {
	CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
	CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
}

// Ensure HTTPPaymentClient implements PaymentClient
var _ PaymentClient = (*HTTPPaymentClient)(nil)

// HTTPPaymentClient implements PaymentClient against the provider's HTTP API.
type HTTPPaymentClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     zerolog.Logger
}

// NewHTTPPaymentClient creates a new HTTP-based payment client.
func NewHTTPPaymentClient(cfg config.PaymentConfig, logger zerolog.Logger) *HTTPPaymentClient {
	return &HTTPPaymentClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger.With().Str("component", "payment-client").Logger(),
	}
}

// CreateCustomer provisions a payment account for a user.
func (c *HTTPPaymentClient) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	c.logger.Debug().Str("email", req.Email).Msg("creating customer")

	var customer models.Customer
	if err := c.post(ctx, "/v1/customers", req, &customer); err != nil {
		c.logger.Error().Err(err).Str("email", req.Email).Msg("customer creation failed")
		return nil, err
	}

	c.logger.Info().Str("customer_id", customer.ID).Msg("customer created")
	return &customer, nil
}

// CreatePaymentIntent requests a payment authorization for the given amount
// in minor units.
func (c *HTTPPaymentClient) CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntent, error) {
	c.logger.Debug().
		Int64("amount", req.Amount).
		Str("currency", req.Currency).
		Str("customer_id", req.CustomerID).
		Msg("creating payment intent")

	var intent models.PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", req, &intent); err != nil {
		c.logger.Error().Err(err).Str("customer_id", req.CustomerID).Msg("payment intent creation failed")
		return nil, err
	}

	c.logger.Info().
		Str("intent_id", intent.ID).
		Int64("amount", intent.Amount).
		Msg("payment intent created")

	return &intent, nil
}

// RetrievePaymentIntent fetches the current state of a payment intent;
// (nil, nil) if the provider does not know the id.
func (c *HTTPPaymentClient) RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	url := fmt.Sprintf("%s/v1/payment_intents/%s", c.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("intent_id", id).Msg("payment intent lookup failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var intent models.PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

func (c *HTTPPaymentClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPPaymentClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// MockPaymentClient is an in-memory implementation for testing.
type MockPaymentClient struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
	intents   map[string]*models.PaymentIntent

	// IntentStatus is assigned to every created intent; defaults to processing.
	IntentStatus models.PaymentIntentStatus

	// CreateIntentErr, when set, is returned from CreatePaymentIntent.
	CreateIntentErr error

	CreatedIntents []*models.CreatePaymentIntentRequest
}

// NewMockPaymentClient creates a mock payment client.
func NewMockPaymentClient() *MockPaymentClient {
	return &MockPaymentClient{
		customers:    make(map[string]*models.Customer),
		intents:      make(map[string]*models.PaymentIntent),
		IntentStatus: models.PaymentIntentProcessing,
	}
}

func (m *MockPaymentClient) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customer := &models.Customer{
		ID:    "cus_" + uuid.NewString(),
		Email: req.Email,
		Name:  req.Name,
	}
	m.customers[customer.ID] = customer
	return customer, nil
}

func (m *MockPaymentClient) CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateIntentErr != nil {
		return nil, m.CreateIntentErr
	}

	intent := &models.PaymentIntent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		Status:       m.IntentStatus,
		Amount:       req.Amount,
		Currency:     req.Currency,
		CustomerID:   req.CustomerID,
	}
	m.intents[intent.ID] = intent
	m.CreatedIntents = append(m.CreatedIntents, req)
	return intent, nil
}

func (m *MockPaymentClient) RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if intent, ok := m.intents[id]; ok {
		return intent, nil
	}
	return nil, nil
}

// SetIntentStatus overrides the stored status of an existing intent.
func (m *MockPaymentClient) SetIntentStatus(id string, status models.PaymentIntentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if intent, ok := m.intents[id]; ok {
		intent.Status = status
	}
}
