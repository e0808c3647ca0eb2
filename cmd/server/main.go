package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/clientdesk/backend/internal/application/billing"
	financeapp "github.com/clientdesk/backend/internal/application/finance"
	"github.com/clientdesk/backend/internal/infrastructure/archive"
	"github.com/clientdesk/backend/internal/infrastructure/cache"
	"github.com/clientdesk/backend/internal/infrastructure/config"
	"github.com/clientdesk/backend/internal/infrastructure/event"
	"github.com/clientdesk/backend/internal/infrastructure/logger"
	"github.com/clientdesk/backend/internal/infrastructure/persistence"
	"github.com/clientdesk/backend/internal/interfaces/http/handler"
	"github.com/clientdesk/backend/internal/interfaces/http/middleware"
	"github.com/clientdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			ClientDesk Backend API
//	@version		1.0
//	@description	Client billing and cash reconciliation API

//	@contact.name	API Support
//	@contact.url	https://github.com/clientdesk/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ClientDesk Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	txScope := persistence.NewGormBillingTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Summary cache (redis with in-memory fallback, or plain in-memory)
	cacheFactory := cache.NewSummaryCacheFactory(cfg.Redis, cache.WithLogger(log))
	summaryCache, err := cacheFactory.CreateCache(cfg.Cache.Backend)
	if err != nil {
		log.Fatal("Failed to create summary cache", zap.Error(err))
	}

	// Ledger archive (S3), best-effort fan-out from the payment path
	var ledgerArchive billingapp.LedgerArchive = archive.NewNoopLedgerArchive()
	if cfg.Archive.Enabled {
		s3Archive, err := archive.NewS3LedgerArchive(&cfg.Archive, archive.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create ledger archive", zap.Error(err))
		}
		ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Archive.EnsureBucket(ensureCtx); err != nil {
			log.Warn("Ledger archive bucket check failed, archiving may fail",
				zap.String("bucket", s3Archive.GetBucket()),
				zap.Error(err),
			)
		}
		cancel()
		ledgerArchive = s3Archive
		log.Info("Ledger archive enabled", zap.String("bucket", s3Archive.GetBucket()))
	}

	// Payment orchestrator: the single write path for confirming payments
	orchestrator := billingapp.NewPaymentOrchestrator(
		txScope,
		invoiceRepo,
		paymentRepo,
		clientRepo,
		log,
		billingapp.WithLedgerArchive(ledgerArchive),
		billingapp.WithEventPublisher(eventBus),
		billingapp.WithDuplicateWindow(cfg.Billing.DuplicateWindow),
	)

	// Application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, clientRepo, orchestrator, log)
	installmentService := billingapp.NewInstallmentService(installmentRepo, clientRepo, log)
	ledgerService := financeapp.NewLedgerService(ledgerRepo, invoiceRepo, clientRepo, orchestrator, invoiceService, log)
	reconciliationService := financeapp.NewReconciliationService(
		invoiceRepo, paymentRepo, ledgerRepo, notificationRepo, summaryCache, log,
	)
	statementImportService := financeapp.NewStatementImportService(
		ledgerRepo, invoiceRepo, clientRepo, orchestrator, log,
	)

	// HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	installmentHandler := handler.NewInstallmentHandler(installmentService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	statementImportHandler := handler.NewStatementImportHandler(statementImportService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Liveness and readiness, outside API versioning and org scoping
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// All API routes are organization-scoped via the X-Org-ID header
	orgConfig := middleware.DefaultOrgConfig()
	orgConfig.Logger = log
	r.Use(middleware.OrgMiddlewareWithConfig(orgConfig))

	// Billing domain (invoices, installments, statement import)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/invoices", invoiceHandler.CreateInvoice)
	billingRoutes.GET("/invoices", invoiceHandler.ListInvoices)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetInvoice)
	billingRoutes.POST("/invoices/:id/open", invoiceHandler.OpenInvoice)
	billingRoutes.POST("/invoices/:id/pay", invoiceHandler.PayInvoice)
	billingRoutes.POST("/invoices/:id/cancel", invoiceHandler.CancelInvoice)
	billingRoutes.PUT("/invoices/:id/values", invoiceHandler.UpdateInvoiceValues)
	billingRoutes.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice)
	billingRoutes.POST("/clients/:id/installments", installmentHandler.GenerateSchedule)
	billingRoutes.GET("/clients/:id/installments", installmentHandler.ListForClient)
	billingRoutes.POST("/installments/:id/confirm", installmentHandler.ConfirmInstallment)
	billingRoutes.POST("/import-csv", statementImportHandler.ImportCSV)

	// Finance domain (cash ledger, summaries, reconciliation trigger)
	financeRoutes := router.NewDomainGroup("finance", "/finance")
	financeRoutes.POST("", ledgerHandler.CreateEntry)
	financeRoutes.GET("", ledgerHandler.ListEntries)
	financeRoutes.GET("/summary", ledgerHandler.MonthlySummary)
	financeRoutes.GET("/projection", ledgerHandler.CashProjection)
	financeRoutes.POST("/reconcile", reconciliationHandler.RunAudit)
	financeRoutes.GET("/:id", ledgerHandler.GetEntry)

	// Reconciliation reads
	reconciliationRoutes := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconciliationRoutes.GET("/summary", reconciliationHandler.Summary)
	reconciliationRoutes.GET("/details", reconciliationHandler.Details)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(billingRoutes).
		Register(financeRoutes).
		Register(reconciliationRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
