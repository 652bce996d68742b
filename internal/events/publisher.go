package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

// Order event types.
const (
	EventTypeOrderCreated   = "order.created"
	EventTypeOrderConfirmed = "order.confirmed"
)

// OrderEvent is the envelope published to the orders topic.
type OrderEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// KafkaPublisher publishes order lifecycle events to Kafka. Messages are
// keyed by order id so events for one order stay in partition order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for the orders topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "order-publisher").Logger(),
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, EventTypeOrderCreated, order)
}

// PublishOrderConfirmed publishes an order.confirmed event.
func (p *KafkaPublisher) PublishOrderConfirmed(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, EventTypeOrderConfirmed, order)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	event := OrderEvent{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("order_id", order.ID).
			Msg("failed to publish event")
		return err
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("order_id", order.ID).
		Msg("event published")

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
