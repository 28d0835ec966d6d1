package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/pkg/id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaNotifier publishes each message to one topic, keyed by user so a
// user's notices stay ordered within a partition.
type KafkaNotifier struct {
	w     messageWriter
	topic string
	now   func() time.Time
}

type envelope struct {
	ID         string `json:"id"`
	OccurredAt string `json:"occurred_at"`
	notification.Message
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
		topic: topic,
		now:   time.Now,
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, m notification.Message) error {
	payload, err := json.Marshal(envelope{
		ID:         id.NewID32(),
		OccurredAt: k.now().UTC().Format(time.RFC3339Nano),
		Message:    m,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = k.w.WriteMessages(ctx, kafkago.Message{
		Key:     []byte(m.UserID),
		Value:   payload,
		Headers: []kafkago.Header{{Key: "event", Value: []byte(m.Event)}},
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error { return k.w.Close() }
