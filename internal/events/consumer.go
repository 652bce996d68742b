package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/service"
)

// EventTypeUserCreated is emitted by the accounts service on signup.
const EventTypeUserCreated = "user.created"

// UserEvent is the envelope consumed from the users topic.
type UserEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// UserSignupConsumer provisions a payment customer for each newly signed-up
// user so the first checkout does not pay the provisioning latency. Checkout
// provisions lazily as well, so missed or late events are harmless.
type UserSignupConsumer struct {
	reader   *kafka.Reader
	checkout *service.CheckoutService
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewUserSignupConsumer creates a consumer for the users topic.
func NewUserSignupConsumer(cfg config.KafkaConfig, checkout *service.CheckoutService, logger zerolog.Logger) *UserSignupConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.UsersTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 1e6,
	})

	return &UserSignupConsumer{
		reader:   reader,
		checkout: checkout,
		logger:   logger.With().Str("component", "user-signup-consumer").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start consumes until Stop is called. Blocks; run in a goroutine.
func (c *UserSignupConsumer) Start(ctx context.Context) {
	c.logger.Info().Msg("user signup consumer started")

	for {
		select {
		case <-c.stopCh:
			c.logger.Info().Msg("user signup consumer stopped")
			return
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				c.logger.Info().Msg("user signup consumer stopped")
				return
			}
			c.logger.Error().Err(err).Msg("failed to read message")
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop signals the consumer loop to exit and closes the reader.
func (c *UserSignupConsumer) Stop() {
	close(c.stopCh)
	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("failed to close reader")
	}
}

func (c *UserSignupConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event UserEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Msg("failed to decode user event, skipping")
		return
	}

	if event.Type != EventTypeUserCreated {
		return
	}

	c.logger.Info().
		Str("event_id", event.ID).
		Str("user_id", event.UserID).
		Msg("provisioning customer for new user")

	if _, err := c.checkout.EnsureCustomer(ctx, event.UserID); err != nil {
		// Checkout provisions lazily on first use, so failing here only
		// costs latency later.
		c.logger.Error().
			Err(err).
			Str("user_id", event.UserID).
			Msg("failed to provision customer for new user")
	}
}
