package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/auth"
	"github.com/raagsetu/raag-engine/pkg/config"
	"github.com/raagsetu/raag-engine/pkg/database"
	"github.com/raagsetu/raag-engine/pkg/handlers"
	"github.com/raagsetu/raag-engine/pkg/logging"
	"github.com/raagsetu/raag-engine/pkg/middleware"
	"github.com/raagsetu/raag-engine/pkg/repositories"
	"github.com/raagsetu/raag-engine/pkg/research"
	"github.com/raagsetu/raag-engine/pkg/retry"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrateDatabase(cfg, logger); err != nil {
		logger.Fatal("Database migration failed", zap.Error(err))
	}

	var db *database.DB
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		var connErr error
		db, connErr = database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
		return connErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Provider adapters. Adapters with missing keys still register; they
	// return a config error on first use so one unconfigured provider
	// never blocks the others.
	geminiAdapter, err := research.NewGeminiAdapter(ctx, researchConfig(cfg, cfg.Providers.Gemini), logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini adapter", zap.Error(err))
	}
	registry := research.NewRegistry(
		research.NewOpenAIAdapter(researchConfig(cfg, cfg.Providers.OpenAI), logger),
		geminiAdapter,
		research.NewPerplexityAdapter(researchConfig(cfg, cfg.Providers.Perplexity), logger),
	)

	entityRepo := repositories.NewEntityRepository(db)
	allAboutRepo := repositories.NewAllAboutRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	activityService := services.NewActivityService(activityRepo, logger)
	researchService := services.NewResearchService(registry, entityRepo, allAboutRepo, activityService, logger)
	entityService := services.NewEntityService(entityRepo, activityService, logger)
	exportService := services.NewExportService(entityService, activityService, logger)
	scraperService := services.NewScraperService(cfg.Scraper, entityRepo, activityService, logger)
	allAboutService := services.NewAllAboutService(allAboutRepo)

	var validator auth.TokenValidator
	if cfg.Auth.EnableVerification {
		validator, err = auth.NewJWKSClient(ctx, cfg.Auth.JWKSURL)
		if err != nil {
			logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
		}
	}
	authMiddleware := auth.NewMiddleware(validator, cfg.Auth.EnableVerification, logger)
	identify := authMiddleware.Identify

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewResearchHandler(researchService, scraperService, logger).RegisterRoutes(mux, identify)
	handlers.NewEntityHandler(entityService, exportService, logger).RegisterRoutes(mux, identify)
	handlers.NewAllAboutHandler(allAboutService, logger).RegisterRoutes(mux, identify)
	handlers.NewActivityHandler(activityService, logger).RegisterRoutes(mux, identify)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, logger)
	handler := middleware.RequestLogger(logger)(rateLimiter.Handler(mux))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting raag-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// migrateDatabase runs pending migrations over a short-lived database/sql
// connection; the pgx pool is opened afterwards.
func migrateDatabase(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}

func researchConfig(cfg *config.Config, p config.ProviderConfig) research.Config {
	return research.Config{
		APIKey:         p.APIKey,
		BaseURL:        p.BaseURL,
		Model:          p.Model,
		FallbackModels: p.FallbackModels,
		Timeout:        cfg.Providers.RequestTimeout,
	}
}
