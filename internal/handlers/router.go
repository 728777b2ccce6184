// Package handlers exposes the HTTP API: registration and login, file upload
// and listing, and admin statistics.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/cloud-vault/internal/apperr"
	"github.com/petermazzocco/cloud-vault/internal/auth"
	"github.com/petermazzocco/cloud-vault/internal/httpx"
	"github.com/petermazzocco/cloud-vault/internal/logging"
	"github.com/petermazzocco/cloud-vault/internal/storage"
	"github.com/petermazzocco/cloud-vault/models"
)

type FileStore interface {
	Create(ctx context.Context, f *models.File) (*models.File, error)
	ListAll(ctx context.Context) ([]models.File, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType string) storage.Result
}

type Config struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

type API struct {
	cfg     Config
	auth    *auth.Service
	users   UserCounter
	files   FileStore
	storage Uploader
	ping    func(context.Context) error
	log     logging.Logger
}

func NewAPI(cfg Config, authSvc *auth.Service, users UserCounter, files FileStore, up Uploader,
	ping func(context.Context) error, log logging.Logger) *API {
	return &API{
		cfg:     cfg,
		auth:    authSvc,
		users:   users,
		files:   files,
		storage: up,
		ping:    ping,
		log:     log.With("component", "http"),
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(a.log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", HomeHandler)
	r.Get("/health", a.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		if a.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				a.cfg.RateLimitPerMinute,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}
		r.Post("/register", a.RegisterHandler)
		r.Post("/login", a.LoginHandler)
		r.Post("/upload", a.UploadFileHandler)
		r.Get("/files", a.ListFilesHandler)
		r.With(auth.AdminMiddleware(a.auth)).Get("/admin/stats", a.StatsHandler)
	})

	return r
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.ping(ctx); err != nil {
		a.log.Error(r.Context(), "health check failed", "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logFailure logs server-side failures at error level and client mistakes at
// debug level.
func (a *API) logFailure(r *http.Request, msg string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindStore, apperr.KindInternal:
		a.log.Error(r.Context(), msg, "err", err)
	default:
		a.log.Debug(r.Context(), msg, "err", err)
	}
}
