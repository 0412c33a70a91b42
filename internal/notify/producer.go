package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/logging"
)

// OrderEvent is the record written to the order event topic.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	OrderType      string    `json:"order_type"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    string    `json:"total_amount"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func newOrderEvent(eventType string, o database.Order, previous string) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        o.ID.String(),
		UserID:         o.UserID.String(),
		OrderType:      o.OrderType,
		Status:         o.Status,
		PreviousStatus: previous,
		TotalAmount:    database.NumericToDecimal(o.TotalAmount).String(),
		OccurredAt:     time.Now().UTC(),
	}
}

// EventProducer publishes order events to a broker.
type EventProducer interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// KafkaProducer writes order events keyed by order id, so every event of
// one order lands on the same partition.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaConfig returns the producer settings used for order events.
func NewKafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	return config
}

// NewKafkaProducer connects a sync producer to brokers.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	logging.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka producer connected")
	return NewKafkaProducerFrom(producer, topic), nil
}

// NewKafkaProducerFrom wraps an existing producer.
func NewKafkaProducerFrom(producer sarama.SyncProducer, topic string) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic}
}

func (p *KafkaProducer) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send to %s: %w", p.topic, err)
	}
	logging.Ctx(ctx).Debug().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("event", event.Type).
		Msg("order event published")
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
