package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/auth"
	"github.com/harborview-tech/fieldops-api/internal/clientrates"
	"github.com/harborview-tech/fieldops-api/internal/config"
	"github.com/harborview-tech/fieldops-api/internal/database"
	"github.com/harborview-tech/fieldops-api/internal/http/handler"
	"github.com/harborview-tech/fieldops-api/internal/http/middleware"
	"github.com/harborview-tech/fieldops-api/internal/http/router"
	"github.com/harborview-tech/fieldops-api/internal/legacy"
	"github.com/harborview-tech/fieldops-api/internal/logger"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// @title Harborview FieldOps API
// @version 1.0
// @description Operational backend for field service: work orders, labor time, FIFO warehouse inventory and invoicing.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations are goose-managed (cmd/migrate); AutoMigrate
	// covers local development only
	if cfg.App.Environment == "development" || cfg.App.Environment == "local" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Auto-migration complete")
	}

	// Legacy flat-ticket store (optional). The app runs without it;
	// legacy tickets then never surface as unbilled.
	var legacyClient *legacy.Client
	if cfg.Legacy.Enabled {
		legacyClient, err = legacy.NewClient(&cfg.Legacy, log)
		if err != nil {
			log.Warn("Legacy ticket store connection failed, continuing without it", zap.Error(err))
		} else if legacyClient != nil {
			log.Info("Legacy ticket store connected",
				zap.Int("max_open_conns", cfg.Legacy.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Legacy.QueryTimeout),
			)
		}
	} else {
		log.Info("Legacy ticket store not configured, skipping")
	}

	// Client rate table for legacy labor pricing
	rateTable, err := clientrates.Load(cfg.ClientRates.Path)
	if err != nil {
		log.Warn("Client rate table not loaded, legacy rates fall back to ticket totals",
			zap.String("path", cfg.ClientRates.Path),
			zap.Error(err),
		)
		rateTable = clientrates.Empty()
	} else {
		log.Info("Client rate table loaded",
			zap.String("path", cfg.ClientRates.Path),
			zap.Int("entries", rateTable.Len()),
		)
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	laborRoleRepo := repository.NewLaborRoleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	lotRepo := repository.NewLotRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)
	partUsageRepo := repository.NewPartUsageRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(catalogRepo, ledgerRepo, log)
	stockService := service.NewStockService(db, lotRepo, ledgerRepo, warehouseRepo, catalogService, log)
	directoryService := service.NewDirectoryService(clientRepo, laborRoleRepo, warehouseRepo, log)
	workService := service.NewWorkService(db, workOrderRepo, timeEntryRepo, partUsageRepo, laborRoleRepo, clientRepo, stockService, catalogService, rateTable, log)

	var ticketStore legacy.TicketStore
	if legacyClient != nil {
		ticketStore = legacyClient
	}
	billingService := service.NewBillingService(db, invoiceRepo, timeEntryRepo, partUsageRepo, workOrderRepo, clientRepo, laborRoleRepo, catalogRepo, ticketStore, rateTable, log)
	reportService := service.NewReportService(timeEntryRepo, partUsageRepo, invoiceRepo, ledgerRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	clientHandler := handler.NewClientHandler(directoryService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	inventoryHandler := handler.NewInventoryHandler(stockService, log)
	workHandler := handler.NewWorkHandler(workService, log)
	billingHandler := handler.NewBillingHandler(billingService, log)
	reportHandler := handler.NewReportHandler(reportService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		legacyClient,
		authMiddleware,
		rateLimiter,
		clientHandler,
		catalogHandler,
		inventoryHandler,
		workHandler,
		billingHandler,
		reportHandler,
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close legacy store connection if initialized
		if legacyClient != nil {
			if err := legacyClient.Close(); err != nil {
				log.Warn("Error closing legacy ticket store connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
