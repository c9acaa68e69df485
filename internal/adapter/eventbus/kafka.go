package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// NewKafkaWriter builds a writer for the pricing events topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher implements domain.EventPublisher on a kafka topic.
// Events are JSON-marshalled and keyed by aggregate ID so all events for
// one aggregate land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		log:    log.With().Str("component", "eventbus").Logger(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventName(), err)
	}

	p.log.Debug().
		Str("event", event.EventName()).
		Str("aggregate_id", event.AggregateID().String()).
		Msg("event published")
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event domain.DomainEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s: %w", event.EventName(), err)
	}

	return kafka.Message{
		Key:   []byte(event.AggregateID().String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-name", Value: []byte(event.EventName())},
		},
	}, nil
}
