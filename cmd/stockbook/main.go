package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockbook/internal/app"
	"github.com/odyssey-erp/stockbook/internal/audit"
	audithttp "github.com/odyssey-erp/stockbook/internal/audit/http"
	"github.com/odyssey-erp/stockbook/internal/auth"
	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/charts"
	charthttp "github.com/odyssey-erp/stockbook/internal/charts/http"
	"github.com/odyssey-erp/stockbook/internal/observability"
	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/platform/cache"
	"github.com/odyssey-erp/stockbook/internal/platform/db"
	"github.com/odyssey-erp/stockbook/internal/sales"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
	"github.com/odyssey-erp/stockbook/jobs"
)

const usage = `usage: stockbook <command>

commands:
  serve                               run the web server (default)
  migrate                             apply database migrations
  create-user -email E -password P    create a login
`

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

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	switch command {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "create-user":
		err = createUser(ctx, cfg, logger, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(command, slog.Any("error", err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.Migrate(ctx, pool, logger)
}

func createUser(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "login password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("create-user: -email and -password are required")
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	user, err := auth.NewService(auth.NewRepository(pool)).Register(ctx, *email, *password)
	if err != nil {
		return err
	}
	logger.Info("user created", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
	return nil
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	calendar, err := period.NewCalendar(cfg.AppLocale, loc)
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockbook_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	pages := view.NewPages(templates, csrfManager, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	productRepo := catalog.NewRepository(pool)
	saleRepo := sales.NewRepository(pool)
	chartCache := charts.NewCache(redisClient, cfg.ChartCacheTTL)
	chartService := charts.NewService(productRepo, saleRepo, calendar, chartCache, metrics, logger)

	authService := auth.NewService(auth.NewRepository(pool))
	catalogService := catalog.NewService(productRepo, shared.NewAuditLogger(pool), chartService, logger)
	salesService := sales.NewService(saleRepo, catalogService, sales.Options{
		Metrics:     metrics,
		Invalidator: chartService,
		Warmup:      jobClient,
		Logger:      logger,
	})
	auditService := audit.NewService(audit.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Tokens:         tokens,
		AuthHandler:    auth.NewHandler(logger, authService, pages, sessionManager, tokens),
		CatalogHandler: catalog.NewHandler(logger, catalogService, pages),
		SalesHandler:   sales.NewHandler(logger, salesService, pages),
		ChartsHandler:  charthttp.NewHandler(logger, chartService, pages),
		AuditHandler:   audithttp.NewHandler(logger, auditService, pages),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
