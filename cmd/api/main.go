package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"budgeteer/internal/config"
	"budgeteer/internal/database"
	"budgeteer/internal/events"
	"budgeteer/internal/expenses"
	"budgeteer/internal/logger"
	"budgeteer/internal/server"
	"budgeteer/internal/services"
)

// @title           Budgeteer API
// @version         1.0
// @description     Budgeteer keeps per-user spending categories in step with the expense service and tracks monthly budgets against them.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 30 * time.Second

func main() {
	log := logger.New(os.Getenv("ENV"))
	defer logger.Sync(log)

	if err := run(log); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(log *zap.SugaredLogger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Initialize services
	db := dbManager.DB()
	fetcher := expenses.NewHTTPClient(
		expenses.Candidates(cfg.ExpenseServiceURL, cfg.ExpenseInternalURL, cfg.ExpenseLocalURL),
		cfg.ExpenseTimeout,
		log,
	)
	store := services.NewCategoryStore(db)

	router := server.NewRouter(server.Deps{
		JWTSecret:  cfg.JWTSecret,
		Log:        log,
		Categories: services.NewCategoryService(store, fetcher, publisher, log),
		Budgets:    services.NewBudgetService(db, store, publisher, log),
		Audit:      services.NewAuditService(db, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Budgeteer server on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Infow("Shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}

// newPublisher connects to the broker when one is configured; otherwise events are dropped.
func newPublisher(cfg *config.Config, log *zap.SugaredLogger) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL not set, domain events are disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to event broker: %w", err)
	}
	log.Infow("Publishing domain events", "exchange", cfg.AMQPExchange)

	return p, func() {
		if err := p.Close(); err != nil {
			log.Warnf("event publisher close error: %v", err)
		}
	}, nil
}
