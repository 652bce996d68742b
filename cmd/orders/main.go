package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/clients"
	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/events"
	"github.com/freshfold/freshfold-orders-service/internal/handlers"
	"github.com/freshfold/freshfold-orders-service/internal/logging"
	"github.com/freshfold/freshfold-orders-service/internal/repository"
	"github.com/freshfold/freshfold-orders-service/internal/server"
	"github.com/freshfold/freshfold-orders-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New("orders-service", cfg.Log.Level)
	logger.Info().Msg("starting orders service")

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	userRepo := repository.NewPostgresUserRepository(db, logger)
	rateRepo := repository.NewPostgresRateRepository(db, logger)
	cache := repository.NewRedisOrderCache(cfg.Redis, logger)

	paymentClient := clients.NewHTTPPaymentClient(cfg.Payment, logger)
	publisher := events.NewKafkaPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	pricingEngine := service.NewPricingEngine(rateRepo, logger)
	checkout := service.NewCheckoutService(userRepo, orderRepo, cache, pricingEngine, paymentClient, publisher, cfg, logger)

	h := handlers.New(checkout, pricingEngine, cfg, logger)
	srv := server.NewServer(cfg, h, logger)

	consumer := events.NewUserSignupConsumer(cfg.Kafka, checkout, logger)
	go consumer.Start(context.Background())

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	waitForShutdown(srv, consumer, logger)
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func waitForShutdown(srv *server.Server, consumer *events.UserSignupConsumer, logger zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutdown signal received")

	consumer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("orders service stopped")
}
