package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	domorder "example.com/food-ordering/internal/domain/order"
)

const publishTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type orderEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// KafkaPublisher writes order lifecycle events to one topic, keyed by order
// id so each order's events stay in one partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt domorder.Event) error {
	msg, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("order event published",
		zap.String("event_id", evt.ID),
		zap.String("event_type", string(evt.Type)),
		zap.String("order_id", evt.OrderID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func encodeEvent(evt domorder.Event) (kafka.Message, error) {
	value, err := json.Marshal(orderEvent{
		ID:         evt.ID,
		Type:       string(evt.Type),
		OrderID:    evt.OrderID,
		UserID:     evt.UserID,
		Amount:     evt.Amount.String(),
		Status:     string(evt.Status),
		OccurredAt: evt.OccurredAt,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	}, nil
}

// NopPublisher drops events. It stands in when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domorder.Event) error { return nil }
