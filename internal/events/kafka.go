package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	headerEventID   = "event-id"
	headerEventType = "event-type"
)

// KafkaPublisher writes events to one topic keyed by Event.Key, so all
// events of a booking land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		MaxAttempts:            5,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Logger:                 kafka.LoggerFunc(func(string, ...interface{}) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("kafka writer", "detail", fmt.Sprintf(msg, args...))
		}),
	}
	return &KafkaPublisher{writer: w}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := kafkaMessage(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func kafkaMessage(evt Event) (kafka.Message, error) {
	body, err := evt.Encode()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", evt.Type, err)
	}
	return kafka.Message{
		Key:   []byte(evt.Key),
		Value: body,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(evt.ID)},
			{Key: headerEventType, Value: []byte(evt.Type)},
		},
	}, nil
}
