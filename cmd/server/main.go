package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/handlers"
	"github.com/asakaida/purosesu/internal/infrastructure/config"
	"github.com/asakaida/purosesu/internal/infrastructure/database"
	"github.com/asakaida/purosesu/internal/infrastructure/logging"
	"github.com/asakaida/purosesu/internal/infrastructure/metrics"
	"github.com/asakaida/purosesu/internal/repositories"
	"github.com/asakaida/purosesu/internal/repositories/postgres"
	"github.com/asakaida/purosesu/internal/services"
)

const defaultEnv = "dev"

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level)

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	logger.WithFields(logrus.Fields{
		"user":     cfg.Database.User,
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	}).Info("connected to database")

	// Initialize repositories
	acquireTimeout := cfg.Database.AcquireTimeout()
	processRepo := postgres.NewPostgresProcessRepository(pg.DB, acquireTimeout)
	userRepo := postgres.NewPostgresUserRepository(pg.DB)

	catalogRepos := make(map[entities.RelationKind]repositories.CatalogRepository)
	for _, kind := range entities.RelationKinds {
		repo, err := postgres.NewPostgresCatalogRepository(pg.DB, kind)
		if err != nil {
			log.Fatalf("Failed to create %s repository: %v", kind, err)
		}
		catalogRepos[kind] = repo
	}

	// Initialize services
	processService := services.NewProcessService(processRepo, logger)
	userService := services.NewUserService(userRepo, logger)
	catalogServices := make(map[entities.RelationKind]*services.CatalogService)
	for _, kind := range entities.RelationKinds {
		catalogServices[kind] = services.NewCatalogService(kind, catalogRepos[kind], logger)
	}

	// Initialize metrics
	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector)
	metrics.RegisterPoolStats(pg.DB)

	policy := services.DefaultRetryPolicy()

	catalogHandler := func(kind entities.RelationKind, route string) *handlers.CatalogHandler {
		return handlers.NewCatalogHandler(catalogServices[kind], route, policy, logger, exporter)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Process:     handlers.NewProcessHandler(processService, policy, logger, exporter),
		Departments: catalogHandler(entities.KindDepartment, "/departments"),
		Locations:   catalogHandler(entities.KindLocation, "/locations"),
		Resources:   catalogHandler(entities.KindResource, "/resources"),
		Roles:       catalogHandler(entities.KindRole, "/roles"),
		Users:       handlers.NewUserHandler(userService, logger),
		Health:      pg,
		Log:         logger,
		Collector:   collector,
		Exporter:    exporter,
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	// Start servers in goroutines
	serverErrors := make(chan error, 2)
	go func() {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("API server error: %w", err)
		}
	}()
	go func() {
		logger.WithField("addr", metricsServer.Addr).Info("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown forced")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown forced")
		}

		if err := pg.Close(); err != nil {
			logger.WithError(err).Warn("error closing database connection")
		}

		logger.Info("shutdown complete")
	}
}
