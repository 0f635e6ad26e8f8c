package notification

import (
	"context"
	"fmt"

	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

// Message is one outbound email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notification messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the log instead of delivering them.
// Stands in for a real email provider in development and tests.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender() *LogSender {
	return &LogSender{log: logger.Get().With(zap.String("component", "email_sender"))}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// BookingConfirmedMessage builds the confirmation email
func BookingConfirmedMessage(to, bookingID string, amountCents int64, currency string) Message {
	return Message{
		To:      to,
		Subject: "Your booking is confirmed",
		Body: fmt.Sprintf(
			"Booking %s is confirmed. Amount paid: %d.%02d %s. Have a great trip!",
			bookingID, amountCents/100, amountCents%100, currency,
		),
	}
}

// BookingFailedMessage builds the failure email
func BookingFailedMessage(to, bookingID, reason string) Message {
	return Message{
		To:      to,
		Subject: "Your booking could not be completed",
		Body: fmt.Sprintf(
			"Booking %s could not be completed: %s. Any held seats have been released and no charge applies.",
			bookingID, reason,
		),
	}
}

// BookingExpiredMessage builds the expiry email
func BookingExpiredMessage(to, bookingID string) Message {
	return Message{
		To:      to,
		Subject: "Your booking has expired",
		Body: fmt.Sprintf(
			"Booking %s expired before payment was completed. The seats have been released; please book again.",
			bookingID,
		),
	}
}

var _ Sender = (*LogSender)(nil)
