package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stanstork/tickr-api/internal/audit"
	"github.com/stanstork/tickr-api/internal/config"
	"github.com/stanstork/tickr-api/internal/handlers"
	"github.com/stanstork/tickr-api/internal/middleware"
	"github.com/stanstork/tickr-api/internal/migration"
	"github.com/stanstork/tickr-api/internal/notification"
	"github.com/stanstork/tickr-api/internal/ratelimit"
	"github.com/stanstork/tickr-api/internal/repository"
	"github.com/stanstork/tickr-api/internal/repository/memory"
	"github.com/stanstork/tickr-api/internal/routes"
	"github.com/stanstork/tickr-api/internal/service"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config  *config.Config
	db      *sql.DB
	repos   repository.Repositories
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	// Bootstrap logger until the configured one is available.
	logger := newLogger(config.LogConfig{Level: "info", Format: "console"})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger = newLogger(cfg.Log)
	log.SetFlags(0)
	log.SetOutput(logger)
	goose.SetLogger(migration.NewGooseAdapter(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{config: cfg, logger: logger}
	app.openStorage(ctx)
	if app.db != nil {
		defer app.db.Close()
	}
	if *migrateOnly {
		logger.Info().Msg("Migrations applied, exiting")
		return
	}

	if cfg.RateLimit.RedisURL != "" {
		counter, err := ratelimit.NewRedisCounter(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer counter.Close()
		app.limiter = ratelimit.NewLimiter(counter, cfg.RateLimit.LoginLimit, cfg.RateLimit.Window)
	}

	router := app.initRouter()
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(app.allowedOrigins()),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	app.startServer(ctx, corsHandler)

	logger.Info().Msg("Application terminated.")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	return zerolog.New(consoleWriter).With().Timestamp().Logger()
}

// openStorage selects the repository backend and migrates Postgres when used.
func (app *application) openStorage(ctx context.Context) {
	if app.config.Storage == config.StorageMemory {
		app.logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		app.repos = memory.NewRepositories(time.Now)
		return
	}

	db, err := sql.Open("postgres", app.config.DatabaseURL)
	if err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	if err := migration.RunMigrations(ctx, db, app.logger); err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	app.db = db
	app.repos = repository.NewPostgres(db)
}

func (app *application) allowedOrigins() []string {
	if app.config.CORS.AllowAll {
		return []string{"*"}
	}
	return app.config.CORS.AllowedOrigins
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	cfg := app.config
	logger := app.logger

	opts := service.Options{
		JWTSecret:         cfg.JWTSecret,
		AccessTokenTTL:    cfg.Auth.AccessTokenTTL,
		BcryptCost:        cfg.Auth.BcryptCost,
		InviteTTL:         cfg.Invitations.TTL,
		InviteURLTemplate: cfg.Invitations.URLTemplate,
		EnforceEmailMatch: cfg.Invitations.EnforceEmailMatch,
		Auditor:           audit.NewRecorder(app.repos.Activity, logger),
	}

	// Mailer for invites
	if cfg.Email.Enabled() {
		inviteMailer, err := notification.NewSMTPInviteMailer(cfg.Email, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure invite mailer")
		}
		opts.Mailer = inviteMailer
	} else {
		logger.Info().Msg("SMTP not configured, invitations are link-only")
	}

	svc := service.New(app.repos, opts, logger)

	health := handlers.HealthCheck(nil)
	if app.db != nil {
		health = handlers.HealthCheck(app.db)
	}

	var throttle func(http.Handler) http.Handler
	if app.limiter != nil {
		throttle = app.limiter.Middleware("auth", logger)
	}

	return routes.NewRouter(routes.Handlers{
		Health:   health,
		Auth:     handlers.NewAuthHandler(svc.Auth, logger),
		Timer:    handlers.NewTimerHandler(svc.Timer, logger),
		Teams:    handlers.NewTeamHandler(svc.Teams, svc.Projects, logger),
		Invites:  handlers.NewInviteHandler(svc.Invitations, logger),
		Projects: handlers.NewProjectHandler(svc.Projects, logger),
		Reports:  handlers.NewReportHandler(svc.Reports, logger),
		Admin:    handlers.NewAdminHandler(svc.Admin, logger),
	}, throttle)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(ctx context.Context, handler http.Handler) {
	logger := app.logger
	server := &http.Server{
		Addr:              ":" + app.config.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal. Shutting down...")
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
