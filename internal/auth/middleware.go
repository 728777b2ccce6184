package auth

import (
	"context"
	"net/http"

	"github.com/petermazzocco/cloud-vault/internal/httpx"
	"github.com/petermazzocco/cloud-vault/models"
)

const UserIDHeader = "x-user-id"

type ctxKey struct{}

// AdminMiddleware lets the request through only when x-user-id names an
// admin. It runs on every request; there is no session.
func AdminMiddleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := s.RequireAdmin(r.Context(), r.Header.Get(UserIDHeader))
			if err != nil {
				s.log.Warn(r.Context(), "admin check failed", "path", r.URL.Path, "err", err)
				httpx.WriteError(w, err, "Internal server error")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by AdminMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok
}
