package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/application/dashboard"
	"github.com/hyperpc/marketsync/internal/application/synclog"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/infrastructure/cache"
	"github.com/hyperpc/marketsync/internal/infrastructure/config"
	"github.com/hyperpc/marketsync/internal/infrastructure/ecommerce"
	"github.com/hyperpc/marketsync/internal/infrastructure/event"
	"github.com/hyperpc/marketsync/internal/infrastructure/logger"
	"github.com/hyperpc/marketsync/internal/infrastructure/scheduler"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
	"github.com/hyperpc/marketsync/internal/infrastructure/telemetry"
	"github.com/hyperpc/marketsync/internal/interfaces/http/handler"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
	"github.com/hyperpc/marketsync/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, zap.String("service", cfg.App.Name))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting marketsync",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider)
	if err != nil {
		log.Fatal("Failed to register sync metrics", zap.Error(err))
	}

	// Marketplace clients, adapters and connection settings
	registry, erp, err := ecommerce.NewSimulatedRegistry(simulatedConfigs(cfg.Simulation), log)
	if err != nil {
		log.Fatal("Failed to build marketplace registry", zap.Error(err))
	}
	log.Info("Marketplace registry ready",
		zap.Int("marketplaces", len(registry.Marketplaces())),
		zap.Bool("failure_simulation", cfg.Simulation.Enabled),
	)

	// Canonical stores
	orderRepo := store.NewOrderRepository()
	productRepo := store.NewProductRepository()
	tracker := saleflow.NewTracker(store.NewFlowRepository())

	// Read models fed by the event bus
	journal := synclog.NewJournal(synclog.DefaultCapacity, log)
	dashboardService := dashboard.NewService(orderRepo, productRepo, log,
		dashboard.WithLowStockThreshold(cfg.Dashboard.LowStockThreshold),
		dashboard.WithLocation(cfg.Dashboard.Location()),
	)

	stockProjector := bulksync.NewStockProjector(productRepo, log)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(journal)
	eventBus.Subscribe(dashboardService)
	eventBus.Subscribe(stockProjector)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	log.Info("Event handlers registered",
		zap.Strings("journal_events", journal.EventTypes()),
		zap.Strings("dashboard_events", dashboardService.EventTypes()),
	)

	// Bulk sync orchestrator
	runLock, err := cache.NewRunLockFactory(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithLogger(log), cache.WithInMemoryFallback(!cfg.App.IsProduction())).Create(cfg.Sync.RunLockBackend)
	if err != nil {
		log.Fatal("Failed to create run lock", zap.Error(err))
	}

	orchestrator := bulksync.NewOrchestrator(registry, log, bulksync.Config{
		Concurrency:      cfg.Sync.Concurrency,
		LockTTL:          cfg.Sync.RunLockTTL,
		SubscriberBuffer: cfg.Sync.SubscriberBuffer,
		UnitTimeout:      cfg.Sync.UnitTimeout,
	},
		bulksync.WithRunLock(runLock),
		bulksync.WithPublisher(eventBus),
		bulksync.WithMetrics(syncMetrics),
		bulksync.WithTracer(tracerProvider.Tracer("marketsync/bulksync")),
	)

	// Order pulls
	executor := scheduler.NewPullExecutor(registry, orderRepo, productRepo, log,
		scheduler.WithTracker(tracker),
		scheduler.WithPublisher(eventBus),
		scheduler.WithIngestMetrics(syncMetrics),
	)
	pullScheduler, err := scheduler.NewScheduler(scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		PullInterval:      cfg.Scheduler.PullInterval,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
		QueueSize:         scheduler.DefaultConfig().QueueSize,
		MaxHistory:        cfg.Scheduler.MaxHistory,
	}, executor, registry, log)
	if err != nil {
		log.Fatal("Failed to create pull scheduler", zap.Error(err))
	}
	pullScheduler.SetPublisher(eventBus)
	if err := pullScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start pull scheduler", zap.Error(err))
	}
	if cfg.Scheduler.PullOnStart {
		if n, err := pullScheduler.ScheduleAll(); err != nil {
			log.Warn("Initial pull not scheduled", zap.Error(err))
		} else {
			log.Info("Initial pull scheduled", zap.Int("jobs", n))
		}
	}

	// HTTP handlers
	defaultTargets, err := parseTargets(cfg.Sync.DefaultTargets)
	if err != nil {
		log.Fatal("Invalid sync.default_targets", zap.Error(err))
	}
	handlers := router.Handlers{
		Sync:        handler.NewSyncHandler(orchestrator, nil, handler.WithDefaultTargets(defaultTargets)),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Logs:        handler.NewLogHandler(journal),
		Marketplace: handler.NewMarketplaceHandler(registry, executor, pullScheduler),
		OrderFlow:   handler.NewOrderFlowHandler(tracker, erp),
		Products:    handler.NewProductHandler(productRepo, cfg.Dashboard.LowStockThreshold),
		System: handler.NewSystemHandler(cfg.App.Name, cfg.App.Version,
			handler.HealthCheck{Name: "event_bus", Check: func(context.Context) error {
				if !eventBus.Running() {
					return errors.New("not running")
				}
				return nil
			}},
			handler.HealthCheck{Name: "scheduler", Check: func(context.Context) error {
				if !pullScheduler.IsRunning() {
					return errors.New("not running")
				}
				return nil
			}},
		),
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Panic recovery with logging
	// 3. Tracing - Server spans, then route attributes
	// 4. Logger - Request logging
	// 5. Metrics - Request count and latency
	// 6. CORS, security headers, body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
		Logger:        log,
	}))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, cfg.HTTP.CORSAllowHeaders...)
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	router.Mount(router.NewRouter(engine, router.WithAPIVersion("v1")), handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Open event streams only end once the orchestrator closes its
	// subscriptions, so it goes first.
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping bulk sync", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := pullScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping pull scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := runLock.Close(); err != nil {
		log.Error("Error closing run lock", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// simulatedConfigs builds the simulated client settings of every marketplace.
// With simulation disabled no stock update is ever rejected.
func simulatedConfigs(sim config.SimulationConfig) map[integration.MarketplaceID]ecommerce.SimulatedConfig {
	rates := ecommerce.DefaultFailureRates()
	out := make(map[integration.MarketplaceID]ecommerce.SimulatedConfig, len(rates))
	for _, id := range integration.AllMarketplaces() {
		c := ecommerce.SimulatedConfig{Marketplace: id, Seed: sim.Seed}
		if sim.Enabled {
			c.Latency = sim.Latency
			c.FailureRate = rates[id]
			if r, ok := sim.FailureRates[string(id)]; ok {
				c.FailureRate = r
			}
		}
		out[id] = c
	}
	return out
}

func parseTargets(raw []string) ([]integration.MarketplaceID, error) {
	out := make([]integration.MarketplaceID, 0, len(raw))
	for _, s := range raw {
		id, err := integration.ParseMarketplaceID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
