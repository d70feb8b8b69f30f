package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"gridcast/internal/core/services"
	httphandlers "gridcast/internal/handlers/http"
	"gridcast/internal/infrastructure/broadcast"
	"gridcast/internal/infrastructure/engine"
	"gridcast/internal/infrastructure/middleware"
	"gridcast/internal/infrastructure/monitoring"
	repositories "gridcast/internal/infrastructure/repositories"
	"gridcast/pkg/config"
	"gridcast/pkg/logger"
	"gridcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/gridcast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		if _, statErr := os.Stat(path); statErr == nil {
			cfg, err = config.Load(path)
			break
		}
	}
	if cfg == nil && err == nil {
		// No config file anywhere: defaults plus env overrides
		cfg, err = config.Load(configPaths[0])
	}
	// A present but invalid config file is a startup failure, not a
	// silent fallback to defaults
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// Initialize repositories
	relayRepo := repoFactory.CreateRelayRepository()
	sourceRepo := repoFactory.CreateSourceRepository()
	layoutRepo := repoFactory.CreateLayoutRepository()

	// Port allocator for engine publish endpoints
	allocator, err := services.NewPortAllocator(cfg.Engine.BasePort, cfg.Engine.PortCount)
	if err != nil {
		log.Fatalw("failed to create port allocator", "error", err)
	}

	// Engine process runner
	runner := engine.NewRunner(cfg.Engine.Binary, cfg.Engine.StopTimeout, log)

	// Event sinks: metrics collector and WebSocket status hub
	collector := monitoring.NewCollector()
	hub := broadcast.NewHub(
		relayRepo,
		sourceRepo,
		cfg.Broadcast.SnapshotInterval,
		cfg.Broadcast.WriteTimeout,
		cfg.Broadcast.SendBuffer,
		log,
	)
	sinks := services.MultiSink{hub, collector}

	// Core services
	controller := services.NewRelayService(
		relayRepo,
		sourceRepo,
		layoutRepo,
		runner,
		allocator,
		sinks,
		cfg.Engine.PublicHost,
		log,
	)
	catalog := services.NewCatalogService(relayRepo, sourceRepo, layoutRepo, controller)

	// Gauges need the services to exist first
	collector.RegisterActiveRelays(func() int { return len(controller.ActiveIDs()) })
	collector.RegisterPortsInUse(allocator.InUse)
	collector.RegisterObservers(hub.ObserverCount)

	// Periodic status snapshots for WebSocket observers
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Initialize HTTP handlers
	relayHandler := httphandlers.NewRelayHandler(controller, relayRepo)
	catalogHandler := httphandlers.NewCatalogHandler(catalog)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Global HTTP rate limiting (if enabled)
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	// Setup API routes
	catalogHandler.SetupRoutes(router)
	relayHandler.SetupRoutes(router)

	// Live status WebSocket
	router.GET("/ws", gin.WrapF(hub.HandleWebSocket))

	// Health check endpoint
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", repoFactory.HealthCheck, 2*time.Second)
	healthChecker.AddCheck("engine", func(ctx context.Context) error {
		_, err := exec.LookPath(cfg.Engine.Binary)
		return err
	}, time.Second)

	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status.Status,
			"checks":    status.Checks,
			"timestamp": status.Timestamp,
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting gridcast relay server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down gridcast relay server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new requests first
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	// Terminate every running engine process before exiting
	if err := controller.StopAll(shutdownCtx); err != nil {
		log.Errorw("Error stopping relay jobs", "error", err)
	}

	// Stop snapshot broadcasting
	hubCancel()

	// Flush traces
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	// Close repository factory
	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("gridcast relay server stopped")
}
