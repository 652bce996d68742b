package repository

import (
	"context"

	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// Compile-time checks that the Postgres and Redis implementations satisfy
// their contracts.
var (
	_ OrderRepository = (*PostgresOrderRepository)(nil)
	_ UserRepository  = (*PostgresUserRepository)(nil)
	_ RateRepository  = (*PostgresRateRepository)(nil)
	_ OrderCache      = (*RedisOrderCache)(nil)
)

// OrderRepository persists orders. Lookups return (nil, nil) when the order
// does not exist; mapping to a not-found error is the caller's concern.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
}

// UserRepository reads user accounts and upserts the provider customer id.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
}

// RateRepository stores the singleton rate table. Seed is first-write-wins:
// a concurrent seed that loses the race is a silent no-op.
type RateRepository interface {
	GetRateTable(ctx context.Context) (*models.RateTable, error)
	SeedRateTable(ctx context.Context, table *models.RateTable) error
}

// OrderCache caches a user's order list. Cache failures are advisory; callers
// log and move on.
type OrderCache interface {
	GetByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	SetByUserID(ctx context.Context, userID string, orders []*models.Order) error
	InvalidateByUserID(ctx context.Context, userID string) error
}
