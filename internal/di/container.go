package di

import (
	"context"
	"fmt"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/handler"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/internal/worker"
	"github.com/veeraphan/tour-booking-engine/pkg/config"
	"github.com/veeraphan/tour-booking-engine/pkg/database"
	"github.com/veeraphan/tour-booking-engine/pkg/kafka"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/redis"
	"go.uber.org/zap"
)

// Container holds all dependencies for the booking engine API
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories
	TourRepo    repository.TourRepository
	BookingRepo repository.BookingRepository

	// Gateway
	Gateway gateway.PaymentGateway

	// Services
	Metrics        *metrics.Metrics
	Notifier       service.Notifier
	BookingService *service.BookingService
	Reconciliation *service.ReconciliationService

	// Workers
	ExpiryWorker *worker.ExpiryWorker

	// Handlers
	HealthHandler  *handler.HealthHandler
	TourHandler    *handler.TourHandler
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	WebhookHandler *handler.WebhookHandler
}

// NewContainer wires the full dependency graph. Kafka is optional: when the
// broker cannot be reached, notifications degrade to no-ops rather than
// blocking startup.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	rdb, err := redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	c.TourRepo = repository.NewPostgresTourRepository(db.Pool())
	c.BookingRepo = repository.NewPostgresBookingRepository(db.Pool())

	if cfg.Gateway.UseMock {
		c.Gateway = gateway.NewMockGateway(cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret)
		log.Warn("using mock payment gateway")
	} else {
		c.Gateway = gateway.NewHTTPGateway(cfg.Gateway)
	}

	c.Metrics = metrics.New()

	c.Notifier = service.NoopNotifier{}
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		log.Warn("kafka unavailable, notifications disabled", zap.Error(err))
	} else {
		c.Producer = producer
		c.Notifier = service.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)
	}

	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.TourRepo,
		c.Gateway,
		c.Metrics,
		service.BookingServiceConfig{
			HoldTTL:           cfg.Booking.HoldTTL,
			MaxPassengers:     cfg.Booking.MaxPassengers,
			PANThresholdCents: cfg.Booking.PANThresholdCents,
		},
	)
	c.Reconciliation = service.NewReconciliationService(c.BookingRepo, c.Notifier, c.Metrics)

	c.ExpiryWorker = worker.NewExpiryWorker(c.BookingRepo, c.Notifier, c.Metrics, worker.ExpiryWorkerConfig{
		HoldTTL:       cfg.Booking.HoldTTL,
		SweepInterval: cfg.Booking.SweepInterval,
		BatchSize:     cfg.Booking.SweepBatchSize,
	})

	c.HealthHandler = handler.NewHealthHandler(db, rdb, cfg.App.Version)
	c.TourHandler = handler.NewTourHandler(c.TourRepo)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.PaymentHandler = handler.NewPaymentHandler(c.Gateway, c.Metrics)
	c.WebhookHandler = handler.NewWebhookHandler(c.Gateway, c.Reconciliation, c.Metrics)

	return c, nil
}

// Close releases all infrastructure connections
func (c *Container) Close() {
	if c.Producer != nil {
		c.Producer.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
