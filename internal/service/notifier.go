package service

import (
	"context"
	"time"

	"github.com/veeraphan/tour-booking-engine/pkg/kafka"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

// BookingNotification is published after a booking reaches a terminal state.
// Consumed by the notification worker; delivery is best effort and never
// blocks or fails the state transition that produced it.
type BookingNotification struct {
	BookingID    string    `json:"booking_id"`
	UserID       string    `json:"user_id"`
	ContactEmail string    `json:"contact_email"`
	Event        string    `json:"event"` // confirmed, failed, expired
	Reason       string    `json:"reason,omitempty"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier publishes booking notifications
type Notifier interface {
	Notify(ctx context.Context, n BookingNotification)
}

// KafkaNotifier publishes notifications to a Kafka topic
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewKafkaNotifier creates a notifier publishing to topic
func NewKafkaNotifier(producer *kafka.Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With(zap.String("component", "notifier")),
	}
}

// Notify publishes the notification. Errors are logged and swallowed: the
// booking state change already committed and must not be rolled back for a
// broker hiccup.
func (n *KafkaNotifier) Notify(ctx context.Context, notification BookingNotification) {
	err := n.producer.ProduceJSON(ctx, n.topic, notification.BookingID, notification, nil)
	if err != nil {
		n.log.Error("failed to publish booking notification",
			zap.String("booking_id", notification.BookingID),
			zap.String("event", notification.Event),
			zap.Error(err),
		)
		return
	}
	n.log.Debug("booking notification published",
		zap.String("booking_id", notification.BookingID),
		zap.String("event", notification.Event),
	)
}

// NoopNotifier discards notifications; used when Kafka is not configured
type NoopNotifier struct{}

// Notify does nothing
func (NoopNotifier) Notify(context.Context, BookingNotification) {}

var (
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = NoopNotifier{}
)
