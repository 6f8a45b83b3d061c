package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harborview-tech/fieldops-api/internal/auth"
	"github.com/harborview-tech/fieldops-api/internal/config"
	"github.com/harborview-tech/fieldops-api/internal/database"
	"github.com/harborview-tech/fieldops-api/internal/http/handler"
	"github.com/harborview-tech/fieldops-api/internal/http/middleware"
	"github.com/harborview-tech/fieldops-api/internal/legacy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	legacyClient     *legacy.Client
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	clientHandler    *handler.ClientHandler
	catalogHandler   *handler.CatalogHandler
	inventoryHandler *handler.InventoryHandler
	workHandler      *handler.WorkHandler
	billingHandler   *handler.BillingHandler
	reportHandler    *handler.ReportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	legacyClient *legacy.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	clientHandler *handler.ClientHandler,
	catalogHandler *handler.CatalogHandler,
	inventoryHandler *handler.InventoryHandler,
	workHandler *handler.WorkHandler,
	billingHandler *handler.BillingHandler,
	reportHandler *handler.ReportHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		legacyClient:     legacyClient,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		clientHandler:    clientHandler,
		catalogHandler:   catalogHandler,
		inventoryHandler: inventoryHandler,
		workHandler:      workHandler,
		billingHandler:   billingHandler,
		reportHandler:    reportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check: the main database is required, the legacy
	// ticket store is reported but never fails readiness
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		if rt.legacyClient != nil && rt.legacyClient.IsEnabled() {
			checks["legacy_tickets"] = rt.legacyClient.HealthCheck(r.Context())
		} else {
			checks["legacy_tickets"] = map[string]interface{}{
				"status": "disabled",
			}
		}

		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.RequireAPIKey)

		// Clients and projects
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", rt.clientHandler.List)
			r.Post("/", rt.clientHandler.Create)
			r.Get("/{id}", rt.clientHandler.GetByID)
			r.Put("/{id}", rt.clientHandler.Update)
			r.Get("/{id}/projects", rt.clientHandler.ListProjects)
			r.Get("/{id}/work-orders", rt.workHandler.ListForClient)
		})
		r.Post("/projects", rt.clientHandler.CreateProject)

		// Reference data
		r.Route("/labor-roles", func(r chi.Router) {
			r.Get("/", rt.clientHandler.ListLaborRoles)
			r.Post("/", rt.clientHandler.CreateLaborRole)
		})
		r.Route("/warehouses", func(r chi.Router) {
			r.Get("/", rt.clientHandler.ListWarehouses)
			r.Post("/", rt.clientHandler.CreateWarehouse)
		})

		// Catalog
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", rt.catalogHandler.List)
			r.Post("/items", rt.catalogHandler.Create)
			r.Get("/items/{id}", rt.catalogHandler.GetByID)
			r.Put("/items/{id}", rt.catalogHandler.Update)
			r.Get("/items/{id}/aliases", rt.catalogHandler.ListAliases)
			r.Post("/items/{id}/aliases", rt.catalogHandler.CreateAlias)
			r.Delete("/items/{id}/aliases/{alias}", rt.catalogHandler.DeleteAlias)
			r.Get("/resolve/{code}", rt.catalogHandler.Resolve)
			r.Get("/flat-tasks", rt.catalogHandler.ListFlatTasks)
		})

		// Inventory
		r.Route("/inventory", func(r chi.Router) {
			r.Post("/receive", rt.inventoryHandler.Receive)
			r.Post("/adjust", rt.inventoryHandler.Adjust)
			r.Post("/issue", rt.inventoryHandler.Issue)
			r.Get("/levels", rt.inventoryHandler.Levels)
			r.Get("/items/{id}/ledger", rt.inventoryHandler.Ledger)
		})

		// Work execution
		r.Route("/work-orders", func(r chi.Router) {
			r.Post("/", rt.workHandler.Create)
			r.Get("/{id}", rt.workHandler.GetByID)
			r.Post("/{id}/close", rt.workHandler.Close)
			r.Post("/{id}/billing-state", rt.workHandler.AdvanceBillingState)
			r.Get("/{id}/time", rt.workHandler.ListTime)
			r.Post("/{id}/time/start", rt.workHandler.StartTime)
			r.Post("/{id}/time/stop", rt.workHandler.StopTime)
			r.Get("/{id}/parts", rt.workHandler.ListParts)
			r.Post("/{id}/parts", rt.workHandler.IssuePart)
		})

		// Scanner quick flows
		r.Route("/quick", func(r chi.Router) {
			r.Post("/issue", rt.workHandler.QuickIssue)
			r.Post("/time/start", rt.workHandler.QuickStartTime)
		})

		// Billing
		r.Get("/billing/unbilled", rt.billingHandler.Unbilled)
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", rt.billingHandler.ListInvoices)
			r.Post("/", rt.billingHandler.CreateInvoice)
			r.Get("/{id}", rt.billingHandler.GetInvoice)
			r.Post("/{id}/finalize", rt.billingHandler.Finalize)
		})

		// Reports
		r.Get("/reports/daily", rt.reportHandler.DailyRollup)
	})

	return r
}
