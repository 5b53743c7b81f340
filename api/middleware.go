package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"peerchat/auth"
	"peerchat/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom extracts the authenticated identity placed by the JWT
// middleware. The second return is false on unauthenticated requests.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

// NewJWTMiddleware validates the token carried either in the
// auth_token cookie or an Authorization bearer header.
func NewJWTMiddleware(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie("auth_token"); err == nil {
				token = cookie.Value
			}
			if token == "" {
				const prefix = "Bearer "
				if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
					token = h[len(prefix):]
				}
			}

			identity, err := authn.ValidateToken(token)
			if err != nil {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewLoggingMiddleware logs one line per request once it completes.
func NewLoggingMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
