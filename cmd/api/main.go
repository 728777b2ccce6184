package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petermazzocco/cloud-vault/internal/auth"
	"github.com/petermazzocco/cloud-vault/internal/config"
	"github.com/petermazzocco/cloud-vault/internal/handlers"
	"github.com/petermazzocco/cloud-vault/internal/logging"
	"github.com/petermazzocco/cloud-vault/internal/storage"
	"github.com/petermazzocco/cloud-vault/internal/store"
	"gorm.io/gorm"
)

func main() {
	// Initialize environment variables
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal("Error loading .env file: ", err)
	}
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	// Database connection
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error(ctx, "failed to connect to database", "err", err)
		os.Exit(1)
	}
	if err := store.Migrate(db); err != nil {
		logger.Error(ctx, "failed to migrate models", "err", err)
		os.Exit(1)
	}

	users := store.NewUserStore(db)
	files := store.NewFileStore(db)

	// Object storage
	uploader := storage.New(newBackend(ctx, cfg.Storage, logger), cfg.Storage, logger)

	authSvc := auth.NewService(users, logger)
	seedAdmin(ctx, authSvc, cfg.Admin, logger)

	api := handlers.NewAPI(handlers.Config{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, authSvc, users, files, uploader, pinger(db), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := serve(srv, logger); err != nil {
		logger.Error(ctx, "server error", "err", err)
		os.Exit(1)
	}
}

// newBackend builds the configured storage provider. Failures are logged and
// replaced by a backend that rejects every call, so uploads degrade.
func newBackend(ctx context.Context, cfg config.StorageConfig, logger logging.Logger) storage.Backend {
	if !cfg.HasCredentials() {
		logger.Warn(ctx, "object storage credentials missing, uploads will be degraded", "driver", cfg.Driver)
	}
	backend, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "object storage unavailable", "driver", cfg.Driver, "err", err)
		return storage.Unavailable(err)
	}
	return backend
}

// seedAdmin creates the default admin when none exists. It never stops startup.
func seedAdmin(ctx context.Context, svc *auth.Service, admin config.AdminConfig, logger logging.Logger) {
	created, err := svc.EnsureAdmin(ctx, admin.Username, admin.Password)
	switch {
	case err != nil:
		logger.Warn(ctx, "admin seeding failed", "username", admin.Username, "err", err)
	case created:
		logger.Info(ctx, "admin seeded", "username", admin.Username)
	default:
		logger.Debug(ctx, "admin already exists")
	}
}

func pinger(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error { return store.Ping(ctx, db) }
}

// serve runs srv until it fails or the process receives SIGINT or SIGTERM.
func serve(srv *http.Server, logger logging.Logger) error {
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(ctx, "shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info(ctx, "shutdown complete")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
