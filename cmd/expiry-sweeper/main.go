package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/internal/worker"
	"github.com/veeraphan/tour-booking-engine/pkg/config"
	"github.com/veeraphan/tour-booking-engine/pkg/database"
	"github.com/veeraphan/tour-booking-engine/pkg/kafka"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

// Standalone expiry sweeper. The API binary runs the same worker in-process;
// this binary exists for deployments that scale the API horizontally and
// want exactly one sweeper.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: "expiry-sweeper",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting expiry sweeper")

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      10,
		MinConns:      2,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	bookingRepo := repository.NewPostgresBookingRepository(db.Pool())

	var notifier service.Notifier = service.NoopNotifier{}
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: "expiry-sweeper",
	})
	if err != nil {
		appLog.Warn("kafka unavailable, notifications disabled", zap.Error(err))
	} else {
		defer producer.Close()
		notifier = service.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)
	}

	sweeper := worker.NewExpiryWorker(bookingRepo, notifier, metrics.New(), worker.ExpiryWorkerConfig{
		HoldTTL:       cfg.Booking.HoldTTL,
		SweepInterval: cfg.Booking.SweepInterval,
		BatchSize:     cfg.Booking.SweepBatchSize,
	})
	sweeper.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")
	sweeper.Stop()
	appLog.Info("sweeper exited")
}
