package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/config"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests. The API serves
// shop-floor terminals and the office frontend over a shared key; there
// are no per-user identities at this layer.
type Middleware struct {
	apiKey string
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		apiKey: cfg.ApiKey.Value,
		logger: logger,
	}
}

// RequireAPIKey rejects any request without a valid x-api-key header
func (m *Middleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		apiKey := r.Header.Get("x-api-key")
		if apiKey == "" {
			http.Error(w, "Unauthorized: missing x-api-key header", http.StatusUnauthorized)
			return
		}

		if !m.validateAPIKey(apiKey) {
			m.logger.Warn("invalid API key attempt",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r)
	})
}

// validateAPIKey uses constant-time comparison
func (m *Middleware) validateAPIKey(apiKey string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.apiKey)) == 1
}
