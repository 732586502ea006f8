package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/memory"
	"github.com/phrazzld/scry-study/internal/platform/metrics"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	platformredis "github.com/phrazzld/scry-study/internal/platform/redis"
	"github.com/phrazzld/scry-study/internal/redact"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger  *slog.Logger
	db      *sql.DB
	redis   goredis.UniversalClient
	metrics *metrics.Metrics

	cardStore    store.StudyCardStore
	sessionStore store.SessionStore
	tallyStore   store.SessionTallyStore

	jwtService   auth.JWTService
	srsService   srs.Service
	studyService study.StudyService
}

// loadConfigAndLogger loads configuration and installs the JSON logger.
func loadConfigAndLogger(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"timezone", cfg.Study.Timezone,
		"session_backend", cfg.Sessions.Backend)
	return cfg, log, nil
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must be established by the caller.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.NewMetrics(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	location, err := cfg.Study.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load study timezone: %w", err)
	}

	app.cardStore = postgres.NewPostgresStudyCardStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)

	app.tallyStore, app.redis, err = newTallyStore(cfg.Sessions, logger)
	if err != nil {
		return nil, err
	}

	app.srsService = srs.NewServiceWithParams(cfg.SRS.Params())

	app.studyService = study.NewStudyService(
		study.NewStudyCardRepositoryAdapter(app.cardStore, db),
		app.sessionStore,
		app.tallyStore,
		app.srsService,
		study.Options{
			Location:    location,
			MaxDueLimit: cfg.Study.MaxDueLimit,
			Metrics:     app.metrics,
		},
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// newTallyStore selects the session tally backend. The Redis client is
// returned so it can be closed on shutdown; it is nil for the memory backend.
func newTallyStore(
	cfg config.SessionsConfig,
	logger *slog.Logger,
) (store.SessionTallyStore, goredis.UniversalClient, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid sessions redis URL: %s", redact.Error(err))
		}
		client := goredis.NewClient(opts)
		logger.Info("Using redis session tally store", "addr", opts.Addr, "ttl", cfg.TTL())
		return platformredis.NewTallyStore(client, cfg.TTL(), logger), client, nil
	case config.SessionBackendMemory, "":
		logger.Info("Using in-memory session tally store", "ttl", cfg.TTL())
		return memory.NewTallyStore(cfg.TTL()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// runServer wires the application and serves until SIGINT or SIGTERM.
func runServer(ctx context.Context, configFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfigAndLogger(configFile)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer app.cleanup()

	if err := pingTallyStore(ctx, app.tallyStore); err != nil {
		return err
	}

	return app.Run(ctx)
}

// pingTallyStore checks connectivity for tally backends that live behind a
// network connection. In-process backends have nothing to check.
func pingTallyStore(ctx context.Context, tallies store.SessionTallyStore) error {
	pinger, ok := tallies.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := pinger.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach session store: %s", redact.Error(err))
	}
	return nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("Error releasing resources", "error", redact.Error(err))
	}

	app.logger.Info("Application shutdown completed")
}
