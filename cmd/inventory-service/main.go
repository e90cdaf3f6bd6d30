package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/consumers"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/events"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/handler"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/auth"
	"github.com/stocktrace/stocktrace-backend/pkg/config"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/httputil"
	"github.com/stocktrace/stocktrace-backend/pkg/logger"
	"github.com/stocktrace/stocktrace-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	msgPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	publisher := events.NewInventoryEventPublisher(msgPublisher, log)

	// Initialize repositories
	batchRepo := repository.NewBatchRepository(db)
	itemRepo := repository.NewItemRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	bulkOpRepo := repository.NewBulkOperationRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	userCacheRepo := repository.NewUserCacheRepository(db)

	// Initialize service
	inventoryService := service.NewInventoryService(
		db, batchRepo, itemRepo, ledgerRepo, bulkOpRepo, deliveryRepo,
		publisher, log, cfg.Engine,
	)

	// Initialize handlers
	batchHandler := handler.NewBatchHandler(inventoryService)
	serialHandler := handler.NewSerialHandler(inventoryService)
	deliveryHandler := handler.NewDeliveryHandler(inventoryService)
	dashboardHandler := handler.NewDashboardHandler(inventoryService)

	// Start user event consumer
	userConsumer, err := consumers.NewUserConsumer(rmq, userCacheRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := userConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start user event consumer")
	}

	verifier := auth.NewVerifier(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.Authenticator(verifier))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", batchHandler.List)
			r.Post("/", batchHandler.Create)
			r.Get("/{id}", batchHandler.Get)
			r.Get("/{id}/items", batchHandler.ListItems)
			r.Post("/{id}/serials/bulk", serialHandler.BulkAssign)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/available", deliveryHandler.AvailableItems)
			r.Post("/{id}/serial", serialHandler.Assign)
		})

		r.Route("/serials", func(r chi.Router) {
			r.Get("/{serial}", serialHandler.Validate)
			r.Get("/{serial}/history", serialHandler.History)
		})

		r.Get("/bulk-operations/{id}", serialHandler.GetBulkOperation)

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", deliveryHandler.List)
			r.Post("/", deliveryHandler.Create)
			r.Get("/{id}", deliveryHandler.Get)
		})

		r.Get("/dashboard/summary", dashboardHandler.Summary)
		r.Get("/dashboard/stats", dashboardHandler.Stats)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
