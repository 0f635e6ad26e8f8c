package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/di"
	"github.com/veeraphan/tour-booking-engine/pkg/config"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/middleware"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting booking engine", zap.String("version", cfg.App.Version))

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal("failed to initialize tracing", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		appLog.Fatal("failed to build container", zap.Error(err))
	}
	defer container.Close()

	container.ExpiryWorker.Start()

	router := buildRouter(cfg, container)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("forced shutdown", zap.Error(err))
	}

	container.ExpiryWorker.Stop()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Error("tracing shutdown failed", zap.Error(err))
	}

	appLog.Info("server exited")
}

func buildRouter(cfg *config.Config, container *di.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health/live", container.HealthHandler.Live)
	router.GET("/health/ready", container.HealthHandler.Ready)

	// The webhook authenticates with its body signature, not a bearer token
	router.POST("/webhooks/payment", container.WebhookHandler.HandlePayment)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tours", container.TourHandler.List)
		v1.GET("/tours/:id", container.TourHandler.Get)

		v1.POST("/payments/callback-verify", container.PaymentHandler.VerifyCallback)

		bookings := v1.Group("/bookings")
		bookings.Use(middleware.Auth(&middleware.AuthConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
		}))

		idempotencyConfig := middleware.DefaultIdempotencyConfig(container.Redis.Client())
		bookings.POST("", middleware.Idempotency(idempotencyConfig), container.BookingHandler.Create)
		bookings.GET("/:id", container.BookingHandler.Get)
	}

	return router
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
