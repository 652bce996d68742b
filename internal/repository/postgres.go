package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
// Items and pricing are stored as JSONB blobs alongside the queryable columns.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger zerolog.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger.With().Str("component", "order-repository").Logger(),
	}
}

// Create inserts a new order row.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.logger.Debug().Str("order_id", order.ID).Str("user_id", order.UserID).Msg("creating order")

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	pricingJSON, err := json.Marshal(order.Pricing)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			id, user_id, service_type, items, pricing, payment_intent_id,
			status, pickup_at, delivery_at, pickup_address, delivery_address,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.ServiceType,
		itemsJSON,
		pricingJSON,
		order.PaymentIntentID,
		order.Status,
		order.PickupDateTime,
		order.DeliveryDateTime,
		order.PickupAddress,
		order.DeliveryAddress,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return err
	}

	r.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Float64("total", order.Pricing.Total).
		Msg("order created")

	return nil
}

// GetByID retrieves an order by its identifier, or (nil, nil) if absent.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrderColumns+" FROM orders WHERE id = $1", id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to fetch order")
		return nil, err
	}

	return order, nil
}

// UpdateStatus sets the order status and bumps updated_at, returning the
// refreshed row, or (nil, nil) if the order does not exist.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	r.logger.Debug().Str("order_id", id).Str("new_status", string(status)).Msg("updating order status")

	query := `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRowContext(ctx, query, id, status, time.Now().UTC()).Scan(&returnedID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to update order status")
		return nil, err
	}

	r.logger.Info().Str("order_id", id).Str("new_status", string(status)).Msg("order status updated")

	return r.GetByID(ctx, id)
}

// ListByUser retrieves every order belonging to a user, newest first.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	query := selectOrderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug().Str("user_id", userID).Int("count", len(orders)).Msg("orders listed")

	return orders, nil
}

const selectOrderColumns = `
	SELECT id, user_id, service_type, items, pricing, payment_intent_id,
	       status, pickup_at, delivery_at, pickup_address, delivery_address,
	       created_at, updated_at
`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON, pricingJSON []byte
	var pickupAt, deliveryAt sql.NullTime
	var paymentIntentID, pickupAddr, deliveryAddr sql.NullString

	err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.ServiceType,
		&itemsJSON,
		&pricingJSON,
		&paymentIntentID,
		&order.Status,
		&pickupAt,
		&deliveryAt,
		&pickupAddr,
		&deliveryAddr,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricingJSON, &order.Pricing); err != nil {
		return nil, err
	}

	if paymentIntentID.Valid {
		order.PaymentIntentID = paymentIntentID.String
	}
	if pickupAt.Valid {
		order.PickupDateTime = pickupAt.Time
	}
	if deliveryAt.Valid {
		order.DeliveryDateTime = deliveryAt.Time
	}
	if pickupAddr.Valid {
		order.PickupAddress = pickupAddr.String
	}
	if deliveryAddr.Valid {
		order.DeliveryAddress = deliveryAddr.String
	}

	return &order, nil
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(db *sql.DB, logger zerolog.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:     db,
		logger: logger.With().Str("component", "user-repository").Logger(),
	}
}

// GetByID retrieves a user account, or (nil, nil) if absent.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, stripe_customer_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	var customerID sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&customerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id).Msg("failed to fetch user")
		return nil, err
	}

	if customerID.Valid {
		user.StripeCustomerID = customerID.String
	}

	return &user, nil
}

// SetStripeCustomerID upserts the provider customer id onto the user row.
// Concurrent provisioning races resolve last-write-wins.
func (r *PostgresUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	query := `
		UPDATE users
		SET stripe_customer_id = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, userID, customerID, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to set customer id")
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Info().Str("user_id", userID).Str("customer_id", customerID).Msg("customer id stored")

	return nil
}

// PostgresRateRepository implements RateRepository using PostgreSQL. The
// rate table lives in a single JSONB row keyed 'current'; an external
// pricing-admin process owns updates to it.
type PostgresRateRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

const rateTableKey = "current"

// NewPostgresRateRepository creates a new PostgreSQL rate repository.
func NewPostgresRateRepository(db *sql.DB, logger zerolog.Logger) *PostgresRateRepository {
	return &PostgresRateRepository{
		db:     db,
		logger: logger.With().Str("component", "rate-repository").Logger(),
	}
}

// GetRateTable reads the current rate table, or (nil, nil) if never seeded.
func (r *PostgresRateRepository) GetRateTable(ctx context.Context) (*models.RateTable, error) {
	var ratesJSON []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT rates FROM service_pricing WHERE id = $1`, rateTableKey,
	).Scan(&ratesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to fetch rate table")
		return nil, err
	}

	var table models.RateTable
	if err := json.Unmarshal(ratesJSON, &table); err != nil {
		return nil, err
	}

	return &table, nil
}

// SeedRateTable writes the table only if none exists yet. ON CONFLICT DO
// NOTHING makes concurrent first reads first-write-wins.
func (r *PostgresRateRepository) SeedRateTable(ctx context.Context, table *models.RateTable) error {
	ratesJSON, err := json.Marshal(table)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO service_pricing (id, rates, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, rateTableKey, ratesJSON, time.Now().UTC()); err != nil {
		r.logger.Error().Err(err).Msg("failed to seed rate table")
		return err
	}

	r.logger.Info().Msg("rate table seeded with defaults")

	return nil
}
