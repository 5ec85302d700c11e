package apiapp

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	adminauthsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/adminauth"
	httperrors "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/errors"
)

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

func AdminAuthMiddleware(authService *adminauthsvc.Service, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authService == nil || !authService.IsConfigured() {
				httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
					Code:    "ADMIN_AUTH_UNAVAILABLE",
					Message: "admin auth is unavailable",
				})
				return
			}

			accessToken, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "missing bearer token",
				})
				return
			}

			claims, err := authService.ValidateAccessToken(r.Context(), accessToken)
			if err != nil {
				if log != nil {
					log.Debug("admin auth validation failed", zap.Error(err))
				}
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "invalid access token",
				})
				return
			}

			ctx := adminauthsvc.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
