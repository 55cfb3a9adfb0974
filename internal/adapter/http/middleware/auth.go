package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/obligent/obligent/internal/infrastructure/auth"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// AdminSubjectKey is the context key for the verified admin subject
	AdminSubjectKey ContextKey = "admin_subject"
)

// AdminAuth guards the administrative surface (provisioning, audit,
// consistency) with an HS256 service token. A nil manager disables the
// guard entirely; that is dev mode, not a bypass switch.
func AdminAuth(tokenManager *auth.TokenManager, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenManager == nil {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				authFailure(m, "missing_header")
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				authFailure(m, "malformed_header")
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := tokenManager.Verify(parts[1])
			if err != nil {
				authFailure(m, "invalid_token")
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AdminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authFailure(m *metrics.Metrics, reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
}

// AdminSubjectFromContext extracts the verified admin subject.
func AdminSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(AdminSubjectKey).(string)
	return subject, ok
}
