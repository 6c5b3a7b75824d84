package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pesavault/pesavault/internal/core/services"
	"github.com/pesavault/pesavault/internal/gateway/momo"
	"github.com/pesavault/pesavault/internal/handlers"
	"github.com/pesavault/pesavault/internal/middleware"
	"github.com/pesavault/pesavault/internal/platform/config"
	"github.com/pesavault/pesavault/internal/repositories/database/pgsql"
	"github.com/pesavault/pesavault/internal/utils"
	"github.com/pesavault/pesavault/internal/workers"
	"github.com/pesavault/pesavault/pkg/database"
)

// @title PesaVault Backend API
// @version 1.0
// @description Ledger and settlement engine for the PesaVault personal finance backend.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire the dependency graph: repositories -> gateway -> services.
	repos := pgsql.NewRepositoryProvider(dbPool)
	gateway := momo.NewClient(momo.Config{
		BaseURL:           cfg.MomoBaseURL,
		PrimaryKey:        cfg.MomoPrimaryKey,
		TargetEnvironment: cfg.MomoTargetEnvironment,
		CallbackURL:       cfg.MomoCallbackURL,
		UserID:            cfg.MomoUserID,
		APIKey:            cfg.MomoAPIKey,
		Timeout:           cfg.MomoRequestTimeout,
	})
	serviceContainer := services.NewServiceContainer(cfg, repos, gateway)

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	r := gin.New()

	// Global middleware (logging, recovery, metrics)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(cors.Default())
	r.Use(middleware.PosthogMiddleware(posthogClient))

	if limiterMw := buildRateLimiter(cfg, logger); limiterMw != nil {
		r.Use(limiterMw)
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	// Reconciliation poller runs until shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := workers.NewSettlementPoller(serviceContainer.Settlement, cfg.SettlementPollInterval, logger)
	go poller.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

// runMigrations applies all pending "up" migrations at boot.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations,
	// using the pgx/v5/stdlib driver to be compatible with the main pool.
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// buildRateLimiter creates the IP rate limit middleware, or nil when the
// configured rate is unparsable.
func buildRateLimiter(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Warn("Invalid RATE_LIMIT, rate limiting disabled", slog.String("error", err.Error()))
		return nil
	}
	return middleware.RateLimit(limiter.New(memory.NewStore(), rate))
}
