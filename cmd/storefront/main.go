package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kedai-dimesem/storefront/internal/app"
	"github.com/kedai-dimesem/storefront/internal/audit"
	"github.com/kedai-dimesem/storefront/internal/auth"
	"github.com/kedai-dimesem/storefront/internal/cart"
	"github.com/kedai-dimesem/storefront/internal/catalog"
	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/observability"
	"github.com/kedai-dimesem/storefront/internal/platform/cache"
	"github.com/kedai-dimesem/storefront/internal/platform/db"
	"github.com/kedai-dimesem/storefront/internal/reporting"
	"github.com/kedai-dimesem/storefront/internal/reporting/export"
	"github.com/kedai-dimesem/storefront/internal/shared"
	"github.com/kedai-dimesem/storefront/internal/users"
	"github.com/kedai-dimesem/storefront/jobs"
	"github.com/kedai-dimesem/storefront/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var sessionStore shared.SessionStore
	switch cfg.SessionStore {
	case "memory":
		sessionStore = shared.NewMemorySessionStore()
	default:
		sessionStore = shared.NewRedisSessionStore(redisClient)
	}
	sessionManager := shared.NewSessionManager(sessionStore, "storefront_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	statsCache := reporting.NewCache(redisClient, cfg.StatsCacheTTL)

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	guard := auth.Guard{Roles: authService, Logger: logger}

	images, err := catalog.NewFileImageStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		logger.Error("init image store", slog.Any("error", err))
		os.Exit(1)
	}
	catalogService := catalog.NewService(catalog.NewRepository(dbpool), images, auditLogger, statsCache, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, cfg.ImageBaseURL(), cfg.UploadMaxBytes)

	cartHandler := cart.NewHandler(logger, cart.NewRedisStore(redisClient, cfg.CartTTL))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	checkoutService := checkout.NewService(checkout.NewRepository(dbpool), checkout.Deps{
		Notifier:    jobClient,
		Stats:       statsCache,
		Metrics:     metrics,
		Idempotency: idempotencyStore,
		Audit:       auditLogger,
		Logger:      logger,
	})
	checkoutHandler := checkout.NewHandler(logger, checkoutService)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool), auditLogger, logger))

	pdfClient := report.NewClient(cfg.GotenbergURL, report.DefaultTimeout)
	reportingService := reporting.NewService(reporting.NewRepository(dbpool), checkoutService, statsCache, logger)
	reportingHandler := reporting.NewHandler(logger, reportingService, export.NewRenderer(pdfClient))

	auditHandler := audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)))

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		Guard:            guard,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		CartHandler:      cartHandler,
		CheckoutHandler:  checkoutHandler,
		UsersHandler:     usersHandler,
		ReportingHandler: reportingHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		UploadDir:        images.Dir(),
		HealthChecks:     healthChecks(dbpool, redisClient, pdfClient),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func healthChecks(pool *pgxpool.Pool, rdb *redis.Client, pdf *report.Client) map[string]app.HealthCheck {
	return map[string]app.HealthCheck{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		"gotenberg": pdf.Ping,
	}
}
