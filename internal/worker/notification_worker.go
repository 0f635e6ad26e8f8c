package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/veeraphan/tour-booking-engine/internal/notification"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/pkg/kafka"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

// NotificationWorker consumes booking notifications from Kafka and sends
// emails. Delivery is best effort: a malformed or unsendable message is
// logged and committed rather than retried forever.
type NotificationWorker struct {
	consumer *kafka.Consumer
	sender   notification.Sender
	log      *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotificationWorker creates a notification worker
func NewNotificationWorker(consumer *kafka.Consumer, sender notification.Sender) *NotificationWorker {
	return &NotificationWorker{
		consumer: consumer,
		sender:   sender,
		log:      logger.Get().With(zap.String("component", "notification_worker")),
	}
}

// Start begins consuming in the background
func (w *NotificationWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)
	w.log.Info("notification worker started")
}

// Stop cancels the poll loop and waits for the in-flight batch to finish
func (w *NotificationWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("notification worker stopped")
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		records, err := w.consumer.Poll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error("poll failed", zap.Error(err))
			continue
		}
		if len(records) == 0 {
			continue
		}

		for _, record := range records {
			w.handle(ctx, record.Value)
		}

		if err := w.consumer.CommitRecords(ctx, records); err != nil {
			w.log.Error("failed to commit offsets", zap.Error(err))
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, value []byte) {
	var n service.BookingNotification
	if err := json.Unmarshal(value, &n); err != nil {
		w.log.Warn("discarding malformed notification", zap.Error(err))
		return
	}
	if n.ContactEmail == "" {
		w.log.Warn("discarding notification without contact email",
			zap.String("booking_id", n.BookingID),
		)
		return
	}

	var msg notification.Message
	switch n.Event {
	case "confirmed":
		msg = notification.BookingConfirmedMessage(n.ContactEmail, n.BookingID, n.AmountCents, n.Currency)
	case "failed":
		msg = notification.BookingFailedMessage(n.ContactEmail, n.BookingID, n.Reason)
	case "expired":
		msg = notification.BookingExpiredMessage(n.ContactEmail, n.BookingID)
	default:
		w.log.Warn("discarding notification with unknown event",
			zap.String("booking_id", n.BookingID),
			zap.String("event", n.Event),
		)
		return
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		w.log.Error("failed to send notification",
			zap.String("booking_id", n.BookingID),
			zap.String("event", n.Event),
			zap.Error(err),
		)
	}
}
