package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/clients"
	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *mockUserRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.StripeCustomerID = customerID
	return nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	createErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*models.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type mockCache struct {
	mu          sync.Mutex
	entries     map[string][]*models.Order
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]*models.Order)}
}

func (m *mockCache) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[userID], nil
}

func (m *mockCache) SetByUserID(ctx context.Context, userID string, orders []*models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = orders
	return nil
}

func (m *mockCache) InvalidateByUserID(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.invalidated = append(m.invalidated, userID)
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	created   []string
	confirmed []string
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, order.ID)
	return nil
}

func (m *mockPublisher) PublishOrderConfirmed(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, order.ID)
	return nil
}

type checkoutFixture struct {
	service   *CheckoutService
	users     *mockUserRepo
	orders    *mockOrderRepo
	cache     *mockCache
	payments  *clients.MockPaymentClient
	publisher *mockPublisher
}

func newCheckoutFixture(users ...*models.User) *checkoutFixture {
	userRepo := newMockUserRepo(users...)
	orderRepo := newMockOrderRepo()
	cache := newMockCache()
	payments := clients.NewMockPaymentClient()
	publisher := &mockPublisher{}

	cfg := &config.Config{
		Payment: config.PaymentConfig{Currency: "usd"},
		Features: config.FeatureFlags{
			EnableOrderCaching: true,
			EnableOrderEvents:  true,
		},
	}

	engine := NewPricingEngine(seededRepo(), zerolog.Nop())
	svc := NewCheckoutService(userRepo, orderRepo, cache, engine, payments, publisher, cfg, zerolog.Nop())

	return &checkoutFixture{
		service:   svc,
		users:     userRepo,
		orders:    orderRepo,
		cache:     cache,
		payments:  payments,
		publisher: publisher,
	}
}

func washFoldCheckout() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		ServiceType:     models.ServiceWashFold,
		Items:           models.OrderItems{EstimatedWeight: 10},
		PickupDateTime:  time.Now().UTC().Add(24 * time.Hour),
		PickupAddress:   "12 Main St",
		DeliveryAddress: "12 Main St",
	}
}

func TestInitiateCheckout(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", Email: "a@example.com", Name: "Ada", StripeCustomerID: "cus_existing"})

	resp, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}

	if resp.ClientSecret == "" {
		t.Error("expected a client secret")
	}
	if resp.OrderID == "" {
		t.Fatal("expected an order id")
	}

	order, _ := f.orders.GetByID(context.Background(), resp.OrderID)
	if order == nil {
		t.Fatal("order was not persisted")
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %q, want %q", order.Status, models.OrderStatusPending)
	}
	if order.Pricing.Total != 21.49 {
		t.Errorf("total = %v, want 21.49", order.Pricing.Total)
	}
	if order.PaymentIntentID == "" {
		t.Error("order is missing its payment intent id")
	}

	wantDelivery := order.PickupDateTime.Add(48 * time.Hour)
	if !order.DeliveryDateTime.Equal(wantDelivery) {
		t.Errorf("delivery = %v, want %v", order.DeliveryDateTime, wantDelivery)
	}

	if len(f.payments.CreatedIntents) != 1 {
		t.Fatalf("created intents = %d, want 1", len(f.payments.CreatedIntents))
	}
	intent := f.payments.CreatedIntents[0]
	if intent.Amount != 2149 {
		t.Errorf("intent amount = %d, want 2149", intent.Amount)
	}
	if intent.Currency != "usd" {
		t.Errorf("intent currency = %q, want usd", intent.Currency)
	}
	if intent.CustomerID != "cus_existing" {
		t.Errorf("intent customer = %q, want cus_existing", intent.CustomerID)
	}
	if intent.Metadata["userId"] != "user-1" {
		t.Errorf("intent metadata userId = %q, want user-1", intent.Metadata["userId"])
	}

	if len(f.publisher.created) != 1 || f.publisher.created[0] != resp.OrderID {
		t.Errorf("order created events = %v, want [%s]", f.publisher.created, resp.OrderID)
	}
}

func TestInitiateCheckoutProvisionsCustomer(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", Email: "a@example.com", Name: "Ada"})

	if _, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout()); err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}

	user, _ := f.users.GetByID(context.Background(), "user-1")
	if user.StripeCustomerID == "" {
		t.Error("customer id was not stored on the user")
	}

	if got := f.payments.CreatedIntents[0].CustomerID; got != user.StripeCustomerID {
		t.Errorf("intent customer = %q, want %q", got, user.StripeCustomerID)
	}
}

func TestInitiateCheckoutUnknownUser(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.InitiateCheckout(context.Background(), "ghost", washFoldCheckout())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestInitiateCheckoutValidationShortCircuits(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	tests := []struct {
		name   string
		mutate func(*models.CheckoutRequest)
	}{
		{"zero weight", func(r *models.CheckoutRequest) { r.Items.EstimatedWeight = 0 }},
		{"past pickup", func(r *models.CheckoutRequest) { r.PickupDateTime = time.Now().UTC().Add(-time.Hour) }},
		{"zero pickup", func(r *models.CheckoutRequest) { r.PickupDateTime = time.Time{} }},
		{"missing pickup address", func(r *models.CheckoutRequest) { r.PickupAddress = "" }},
		{"missing delivery address", func(r *models.CheckoutRequest) { r.DeliveryAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := washFoldCheckout()
			tt.mutate(req)

			_, err := f.service.InitiateCheckout(context.Background(), "user-1", req)

			var vErr *apperrors.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v (%T), want ValidationError", err, err)
			}
		})
	}

	if len(f.payments.CreatedIntents) != 0 {
		t.Errorf("created intents = %d, want 0 after rejected requests", len(f.payments.CreatedIntents))
	}
}

func TestInitiateCheckoutOrderWriteFailure(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})
	f.orders.createErr = errors.New("disk full")

	_, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())

	var upstreamErr *apperrors.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("error = %v (%T), want UpstreamError", err, err)
	}

	// The intent was already authorized; it stays behind as an orphan.
	if len(f.payments.CreatedIntents) != 1 {
		t.Errorf("created intents = %d, want 1", len(f.payments.CreatedIntents))
	}
}

func TestConfirmPayment(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})
	f.payments.IntentStatus = models.PaymentIntentSucceeded

	resp, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}
	order, _ := f.orders.GetByID(context.Background(), resp.OrderID)

	confirm, err := f.service.ConfirmPayment(context.Background(), "user-1", order.ID, order.PaymentIntentID)
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}

	if !confirm.Success {
		t.Error("expected success")
	}
	if confirm.Status != models.OrderStatusConfirmed {
		t.Errorf("status = %q, want %q", confirm.Status, models.OrderStatusConfirmed)
	}

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	if stored.Status != models.OrderStatusConfirmed {
		t.Errorf("stored status = %q, want %q", stored.Status, models.OrderStatusConfirmed)
	}

	if len(f.publisher.confirmed) != 1 || f.publisher.confirmed[0] != order.ID {
		t.Errorf("order confirmed events = %v, want [%s]", f.publisher.confirmed, order.ID)
	}
}

func TestConfirmPaymentNotSucceeded(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	resp, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}
	order, _ := f.orders.GetByID(context.Background(), resp.OrderID)

	_, err = f.service.ConfirmPayment(context.Background(), "user-1", order.ID, order.PaymentIntentID)
	if !errors.Is(err, apperrors.ErrPaymentNotSuccessful) {
		t.Fatalf("error = %v, want ErrPaymentNotSuccessful", err)
	}

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	if stored.Status != models.OrderStatusPending {
		t.Errorf("stored status = %q, want pending after failed confirmation", stored.Status)
	}
}

func TestConfirmPaymentIntentMismatch(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})
	f.payments.IntentStatus = models.PaymentIntentSucceeded

	resp, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}

	_, err = f.service.ConfirmPayment(context.Background(), "user-1", resp.OrderID, "pi_somebody_elses")

	var vErr *apperrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want ValidationError", err, err)
	}
}

func TestConfirmPaymentForeignOrder(t *testing.T) {
	f := newCheckoutFixture(
		&models.User{ID: "user-1", StripeCustomerID: "cus_1"},
		&models.User{ID: "user-2", StripeCustomerID: "cus_2"},
	)
	f.payments.IntentStatus = models.PaymentIntentSucceeded

	resp, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout())
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}
	order, _ := f.orders.GetByID(context.Background(), resp.OrderID)

	_, err = f.service.ConfirmPayment(context.Background(), "user-2", order.ID, order.PaymentIntentID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	_, err := f.service.ConfirmPayment(context.Background(), "user-1", "ord_missing", "pi_missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListOrders(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	if _, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout()); err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}

	orders, err := f.service.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListOrders returned error: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}

	// The first read warms the cache; a second read hits it.
	f.cache.mu.Lock()
	cached := f.cache.entries["user-1"]
	f.cache.mu.Unlock()
	if len(cached) != 1 {
		t.Errorf("cached orders = %d, want 1", len(cached))
	}

	again, err := f.service.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second ListOrders returned error: %v", err)
	}
	if len(again) != 1 {
		t.Errorf("orders on cached read = %d, want 1", len(again))
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ord_a", "ord_b", "ord_c"} {
		f.orders.Create(context.Background(), &models.Order{
			ID:        id,
			UserID:    "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	// Another user's order must never leak into the listing.
	f.orders.Create(context.Background(), &models.Order{
		ID:        "ord_other",
		UserID:    "user-2",
		CreatedAt: base.Add(10 * time.Hour),
	})

	orders, err := f.service.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListOrders returned error: %v", err)
	}

	if len(orders) != 3 {
		t.Fatalf("orders = %d, want 3", len(orders))
	}
	want := []string{"ord_c", "ord_b", "ord_a"}
	for i, o := range orders {
		if o.ID != want[i] {
			t.Errorf("orders[%d] = %s, want %s", i, o.ID, want[i])
		}
		if o.UserID != "user-1" {
			t.Errorf("orders[%d] belongs to %s, want user-1", i, o.UserID)
		}
	}
	for i := 1; i < len(orders); i++ {
		if orders[i].CreatedAt.After(orders[i-1].CreatedAt) {
			t.Errorf("orders[%d] is newer than orders[%d]", i, i-1)
		}
	}
}

func TestCheckoutInvalidatesOrderCache(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", StripeCustomerID: "cus_1"})

	f.cache.SetByUserID(context.Background(), "user-1", []*models.Order{{ID: "stale"}})

	if _, err := f.service.InitiateCheckout(context.Background(), "user-1", washFoldCheckout()); err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}

	if len(f.cache.invalidated) == 0 {
		t.Error("checkout did not invalidate the order cache")
	}
}

func TestEnsureCustomerIdempotent(t *testing.T) {
	f := newCheckoutFixture(&models.User{ID: "user-1", Email: "a@example.com", Name: "Ada"})

	first, err := f.service.EnsureCustomer(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("EnsureCustomer returned error: %v", err)
	}
	if first == "" {
		t.Fatal("expected a customer id")
	}

	second, err := f.service.EnsureCustomer(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second EnsureCustomer returned error: %v", err)
	}
	if second != first {
		t.Errorf("second provisioning returned %q, want %q", second, first)
	}
}

func TestEnsureCustomerUnknownUser(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.EnsureCustomer(context.Background(), "ghost")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
