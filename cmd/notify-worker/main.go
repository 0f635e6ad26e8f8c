package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/veeraphan/tour-booking-engine/internal/notification"
	"github.com/veeraphan/tour-booking-engine/internal/worker"
	"github.com/veeraphan/tour-booking-engine/pkg/config"
	"github.com/veeraphan/tour-booking-engine/pkg/kafka"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: "notify-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting notification worker")

	ctx := context.Background()

	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		ClientID:      "notify-worker",
		Topics:        []string{cfg.Kafka.NotificationsTopic},
	})
	if err != nil {
		appLog.Fatal("failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	w := worker.NewNotificationWorker(consumer, notification.NewLogSender())
	w.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")
	w.Stop()
	appLog.Info("worker exited")
}
