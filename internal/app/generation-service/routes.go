// Package generationservice собирает HTTP API сервиса генераций.
package generationservice

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/generation-service/internal/config"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/generation/create"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/generation/list"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/generation/read"
	"github.com/magabrotheeeer/generation-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/generation-service/internal/services/auth"
	genservice "github.com/magabrotheeeer/generation-service/internal/services/generation"
	"github.com/magabrotheeeer/generation-service/internal/storage/files"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, authService *authservice.AuthService, generationService *genservice.Service, fileStore *files.Store) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
	)

	r.Get("/health", health.New().ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		// Открытые конечные точки под ограничением частоты
		r.Group(func(r chi.Router) {
			limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/register", register.New(logger, authService).ServeHTTP)
			r.Post("/login", login.New(logger, authService).ServeHTTP)
		})

		r.With(middlewarectx.JWTMiddleware(authService, logger)).
			Get("/me", me.New(logger, authService).ServeHTTP)
	})

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Post("/generations", create.New(logger, generationService, fileStore, cfg.Uploads.MaxFileSize).ServeHTTP)
		r.Get("/generations", list.New(logger, generationService, cfg.Generation.RecentLimit).ServeHTTP)
		r.Get("/generations/{id}", read.New(logger, generationService).ServeHTTP)
	})

	prefix := "/" + strings.Trim(cfg.Uploads.URLPrefix, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(fileStore.Dir())))))

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// noDirListing отдаёт 404 на запросы каталогов загрузок.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
