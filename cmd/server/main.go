package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appintegration "github.com/erp/connector/internal/application/integration"
	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/ecommerce"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/infrastructure/persistence"
	"github.com/erp/connector/internal/infrastructure/queue"
	"github.com/erp/connector/internal/infrastructure/sapb1"
	"github.com/erp/connector/internal/infrastructure/telemetry"
	"github.com/erp/connector/internal/interfaces/http/handler"
	"github.com/erp/connector/internal/interfaces/http/middleware"
	"github.com/erp/connector/internal/interfaces/http/router"
)

// maxRequestBodyBytes caps admin API request bodies. Nothing the
// connector accepts is larger than a small JSON document.
const maxRequestBodyBytes = 1 << 20 // 1MB

// jobScheduler is the full scheduler surface main wires together: event
// intake schedules through it, the runner drains it.
type jobScheduler interface {
	integration.Scheduler
	queue.Source
	Close() error
}

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

	log.Info("Starting ERP Connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

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

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize the job scheduler. Redis survives restarts; the in-memory
	// fallback is for development and single-node setups.
	var scheduler jobScheduler
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		scheduler = queue.NewRedisScheduler(rdb, log)
		log.Info("Using Redis job scheduler", zap.String("addr", cfg.Redis.Addr()))
	} else {
		scheduler = queue.NewMemoryScheduler()
		log.Info("Using in-memory job scheduler")
	}

	// Initialize the ERP Service Layer client
	sapCfg := sapb1.NewConfig(cfg.SAP.BaseURL, cfg.SAP.CompanyDB, cfg.SAP.Username, cfg.SAP.Password)
	sapCfg.Timeout = cfg.SAP.Timeout
	sapCfg.LoginTimeout = cfg.SAP.LoginTimeout
	sapCfg.LogoutTimeout = cfg.SAP.LogoutTimeout
	sapCfg.MaxAttempts = cfg.SAP.MaxAttempts
	sessions, err := sapb1.NewSessionManager(sapCfg, log)
	if err != nil {
		log.Fatal("Failed to create Service Layer session manager", zap.Error(err))
	}
	erpClient, err := sapb1.NewClient(sapCfg, sessions, log)
	if err != nil {
		log.Fatal("Failed to create Service Layer client", zap.Error(err))
	}

	// Initialize the storefront gateway
	store, err := ecommerce.NewWooAdapter(&ecommerce.WooConfig{
		BaseURL:        cfg.Store.BaseURL,
		ConsumerKey:    cfg.Store.ConsumerKey,
		ConsumerSecret: cfg.Store.ConsumerSecret,
		TimeoutSeconds: int(cfg.Store.Timeout / time.Second),
	}, log)
	if err != nil {
		log.Fatal("Failed to create store gateway", zap.Error(err))
	}

	// Initialize repositories
	orderMappings := persistence.NewGormOrderMappingRepository(db.DB)
	productMappings := persistence.NewGormProductMappingRepository(db.DB)
	customerMappings := persistence.NewGormCustomerMappingRepository(db.DB)
	deadLetters := persistence.NewGormDeadLetterRepository(db.DB)
	syncLogs := persistence.NewGormSyncLogRepository(db.DB)
	settings := persistence.NewGormSettingsStore(db.DB)

	// Initialize application services
	appCfg := appintegration.Config{
		PartnerCodePrefix:   cfg.Sync.PartnerCodePrefix,
		DefaultPartnerCode:  cfg.Sync.DefaultPartnerCode,
		AutoCreateCustomers: cfg.Sync.AutoCreateCustomers,
		ShippingItemCode:    cfg.Sync.ShippingItemCode,
		DueDateOffset:       time.Duration(cfg.Sync.DueDateOffsetDays) * 24 * time.Hour,
		StockBatchSize:      cfg.Sync.StockBatchSize,
		StockEpsilon:        decimal.NewFromFloat(cfg.Sync.StockEpsilon),
		MaxJobAttempts:      cfg.Sync.MaxJobAttempts,
		LogRetention:        time.Duration(cfg.Sync.LogRetentionDays) * 24 * time.Hour,
	}
	if err := appCfg.Validate(); err != nil {
		log.Fatal("Invalid sync configuration", zap.Error(err))
	}

	customerSync := appintegration.NewCustomerSyncService(appCfg, erpClient, customerMappings, log)
	orderSync := appintegration.NewOrderSyncService(appCfg, erpClient, store, orderMappings, customerSync, syncLogs, log)
	stockSync := appintegration.NewStockSyncService(appCfg, erpClient, store, productMappings, syncLogs, settings, log)
	deadLetterSvc := appintegration.NewDeadLetterService(appCfg, deadLetters, scheduler, log)
	syncLogSvc := appintegration.NewSyncLogService(appCfg, syncLogs, log)
	eventSvc := appintegration.NewEventService(appCfg, scheduler, log)

	// Initialize the job runner and bind the sync handlers
	runner, err := queue.NewRunner(queue.RunnerConfig{
		Workers:      cfg.Queue.Workers,
		PollInterval: cfg.Queue.PollInterval,
		JobTimeout:   cfg.Queue.JobTimeout,
		MaxRetries:   cfg.Sync.MaxJobAttempts,
	}, scheduler, deadLetters, log)
	if err != nil {
		log.Fatal("Failed to create job runner", zap.Error(err))
	}
	appintegration.RegisterHandlers(runner, orderSync, stockSync, syncLogSvc)

	if err := runner.Start(ctx); err != nil {
		log.Fatal("Failed to start job runner", zap.Error(err))
	}

	// The recurring full sync reconciles any stock drift the per-product
	// pulls missed. Log pruning rides on the same tick.
	if err := scheduler.ScheduleRecurring(ctx, integration.JobTypeFullStockSync, nil,
		cfg.Sync.FullSyncInterval, appintegration.GroupStock); err != nil {
		log.Fatal("Failed to schedule recurring full stock sync", zap.Error(err))
	}

	// Set up HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if tracerProvider.IsEnabled() {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.CORS())
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(maxRequestBodyBytes))

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(settings))
	r.Register(handler.NewSyncHandler(orderSync, stockSync))
	r.Register(handler.NewDeadLetterHandler(deadLetterSvc))
	r.Register(handler.NewSyncLogHandler(syncLogSvc))
	r.Register(handler.NewWebhookHandler(eventSvc))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := runner.Stop(shutdownCtx); err != nil {
		log.Error("Job runner shutdown error", zap.Error(err))
	}
	if err := scheduler.Close(); err != nil {
		log.Error("Scheduler close error", zap.Error(err))
	}

	// Logout is best effort: an expired session expires on its own.
	logoutCtx, cancelLogout := context.WithTimeout(context.Background(), cfg.SAP.LogoutTimeout)
	sessions.Logout(logoutCtx)
	cancelLogout()

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
