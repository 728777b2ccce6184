// Package storage uploads file payloads to remote object storage.
//
// Upload never fails from the caller's point of view: a provider error is
// reported through Result.Warning alongside a placeholder URL so the upload
// flow can still record the file.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/petermazzocco/cloud-vault/internal/config"
	"github.com/petermazzocco/cloud-vault/internal/logging"
)

// ErrObjectExists is returned by a Backend when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// Backend is a single object storage provider. Put must not overwrite an
// existing object.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type Result struct {
	URL        string
	ExternalID string
	Succeeded  bool
	Warning    string
}

type Adapter struct {
	backend   Backend
	folder    string
	publicURL string
	log       logging.Logger
	now       func() time.Time
}

func New(backend Backend, cfg config.StorageConfig, log logging.Logger) *Adapter {
	return &Adapter{
		backend:   backend,
		folder:    strings.Trim(cfg.Folder, "/"),
		publicURL: cfg.PublicURL,
		log:       log.With("component", "storage"),
		now:       time.Now,
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// SanitizeName replaces every character outside [A-Za-z0-9_.-] with '_'.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Key builds the object key for originalName uploaded at t.
func (a *Adapter) Key(originalName string, t time.Time) string {
	safe := SanitizeName(originalName)
	base := safe
	if ext := path.Ext(safe); len(ext) > 1 {
		base = strings.TrimSuffix(safe, ext)
	}
	key := fmt.Sprintf("%d-%s", t.UnixMilli(), base)
	if a.folder == "" {
		return key
	}
	return a.folder + "/" + key
}

func (a *Adapter) Upload(ctx context.Context, data []byte, originalName, mimeType string) Result {
	key := a.Key(originalName, a.now())

	if err := a.backend.Put(ctx, key, data, mimeType); err != nil {
		a.log.Error(ctx, "object upload failed", "key", key, "err", err)
		return Result{
			URL:       fmt.Sprintf("data:%s;base64,[truncated]", mimeType),
			Succeeded: false,
			Warning:   err.Error(),
		}
	}

	a.log.Info(ctx, "object uploaded", "key", key, "size", len(data))
	return Result{
		URL:        a.url(key),
		ExternalID: key,
		Succeeded:  true,
	}
}

// Delete removes the object best-effort. Provider errors are logged only.
func (a *Adapter) Delete(ctx context.Context, externalID string) {
	if externalID == "" {
		return
	}
	if err := a.backend.Delete(ctx, externalID); err != nil {
		a.log.Warn(ctx, "object delete failed", "key", externalID, "err", err)
	}
}

func (a *Adapter) url(key string) string {
	if a.publicURL != "" && strings.Contains(a.publicURL, "%s") {
		return CleanURL(fmt.Sprintf(a.publicURL, key))
	}
	return CleanURL(a.backend.URL(key))
}

func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	return parsedURL.String()
}

// NewBackend builds the provider client named by cfg.Driver.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "s3":
		return NewS3(ctx, cfg)
	case "minio":
		return NewMinIO(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type unavailable struct {
	err error
}

// Unavailable returns a Backend whose every call fails with err. It stands in
// when the provider client could not be built, so uploads degrade instead of
// the process refusing to start.
func Unavailable(err error) Backend {
	return unavailable{err: err}
}

func (u unavailable) Put(context.Context, string, []byte, string) error { return u.err }

func (u unavailable) Delete(context.Context, string) error { return u.err }

func (u unavailable) URL(key string) string { return key }
