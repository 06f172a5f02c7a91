package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/skubridge/backend/internal/application/integration"
	"github.com/skubridge/backend/internal/domain/mapping"
	"github.com/skubridge/backend/internal/infrastructure/cache"
	"github.com/skubridge/backend/internal/infrastructure/config"
	"github.com/skubridge/backend/internal/infrastructure/logger"
	"github.com/skubridge/backend/internal/infrastructure/shopify"
	"github.com/skubridge/backend/internal/infrastructure/skulabs"
	"github.com/skubridge/backend/internal/infrastructure/storage"
	"github.com/skubridge/backend/internal/infrastructure/telemetry"
	"github.com/skubridge/backend/internal/interfaces/http/handler"
	"github.com/skubridge/backend/internal/interfaces/http/middleware"
	"github.com/skubridge/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting SKUBridge Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry. Both providers degrade to no-ops when
	// telemetry is disabled, so the rest of the wiring is identical
	// either way.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter(telemetry.TracerName),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}

	// Mapping table store. Object storage is the system of record; the
	// in-memory store only exists so the service can run locally before
	// credentials are configured.
	readyChecks := make(map[string]handler.Pinger)
	var mappingStore mapping.Store
	if cfg.Storage.AccessKey != "" && cfg.Storage.SecretKey != "" {
		s3Store, err := storage.NewS3MappingStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create mapping store", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Store.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
		mappingStore = s3Store
		readyChecks["storage"] = s3Store
		log.Info("Mapping store connected",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("key", storage.MappingObjectKey),
		)
	} else {
		mappingStore = storage.NewInMemoryMappingStore()
		log.Warn("Storage credentials missing; mapping table will not survive restarts")
	}

	// Webhook delivery dedup store
	var dedupStore cache.DedupStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisDedupStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		dedupStore = redisStore
		readyChecks["redis"] = redisStore
		log.Info("Redis dedup store connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		dedupStore = cache.NewInMemoryDedupStore()
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing dedup store", zap.Error(err))
		}
	}()

	// Outbound API clients. Both tolerate missing credentials so a fresh
	// deployment can come up and answer probes before secrets land.
	shopifyClient := shopify.NewClient(&shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AdminToken:  cfg.Shopify.AdminToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout,
	})
	if shopifyClient == nil {
		log.Warn("Shopify credentials missing; variant lookups will not resolve")
	}

	var skulabsClient *skulabs.Client
	if cfg.SKULabs.APIToken != "" {
		skulabsClient, err = skulabs.NewClient(&skulabs.Config{
			BaseURL:  cfg.SKULabs.BaseURL,
			APIToken: cfg.SKULabs.APIToken,
			Timeout:  cfg.SKULabs.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to create SKULabs client", zap.Error(err))
		}
	} else {
		log.Warn("SKULabs token missing; stock pushes will fail until configured")
	}

	if cfg.Shopify.WebhookSecret == "" {
		log.Warn("Shopify webhook secret missing; all webhook deliveries will be rejected")
	}

	// Warehouse name normalizer with config-level alias overrides
	nameNormalizer := mapping.NewNameNormalizer(cfg.Warehouse.Aliases)

	// Initialize application services
	syncService := integrationapp.NewSyncService(
		cfg.Shopify.WebhookSecret,
		shopifyClient,
		mappingStore,
		skulabsClient,
		nameNormalizer,
		integrationapp.WithDedupStore(dedupStore, cfg.Redis.DedupTTL),
		integrationapp.WithSyncMetrics(syncMetrics),
		integrationapp.WithLogger(log),
	)
	uploadService := integrationapp.NewUploadService(
		mappingStore,
		integrationapp.WithUploadMetrics(syncMetrics),
		integrationapp.WithUploadLogger(log),
	)

	// Initialize HTTP handlers
	webhookHandler := handler.NewShopifyWebhookHandler(syncService)
	uploadHandler := handler.NewMappingUploadHandler(uploadService, cfg.Upload.AdminSecret)
	systemHandler := handler.NewSystemHandler(readyChecks)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. Tracing - OpenTelemetry spans (if enabled)
	// 7. Metrics - HTTP server metrics
	// 8. BodyLimit - Limit request body size
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

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Setup routes. Webhooks and probes are registered at the engine
	// root: Shopify and the load balancer address them by fixed path.
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	webhookRoutes := router.NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/shopify/inventory", webhookHandler.HandleInventoryLevelWebhook)

	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.POST("/mappings/upload", uploadHandler.HandleUpload)

	probeRoutes := router.NewDomainGroup("probes", "")
	probeRoutes.GET("/health", systemHandler.Health)
	probeRoutes.GET("/ready", systemHandler.Ready)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.RegisterRoot(webhookRoutes).
		RegisterRoot(adminRoutes).
		RegisterRoot(probeRoutes)
	r.Register(systemRoutes)
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
