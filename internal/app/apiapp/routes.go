package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/config"
	adminauthsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/adminauth"
	moviessvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/movies"
	ratesvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/rate"
	syncsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/sync"
	unlocksvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/unlock"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AdminAuthService *adminauthsvc.Service
	MovieService     *moviessvc.Service
	UnlockService    *unlocksvc.Service
	UnlockLimiter    *ratesvc.Limiter
	SyncService      *syncsvc.Service
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	moviesHandler := handlers.NewMoviesHandler(deps.MovieService)
	unlockHandler := handlers.NewUnlockHandler(deps.UnlockService)
	unlockHandler.AttachLimiter(deps.UnlockLimiter)
	adminHandler := handlers.NewAdminHandler(deps.AdminAuthService, deps.MovieService, deps.UnlockService)
	adminHandler.AttachSync(deps.SyncService)
	adminAuthMW := AdminAuthMiddleware(deps.AdminAuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", moviesHandler.List)
		r.Get("/{id}", moviesHandler.Get)
		r.Post("/{id}/unlock", unlockHandler.Request)
		r.Post("/{id}/links", unlockHandler.Validate)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)
		r.With(adminAuthMW).Post("/logout", adminHandler.Logout)
		r.With(adminAuthMW).Post("/sync", adminHandler.Sync)
		r.With(adminAuthMW).Post("/movies", adminHandler.UpsertMovie)
		r.With(adminAuthMW).Post("/movies/{id}/publish", adminHandler.SetPublished)
		r.With(adminAuthMW).Post("/subjects/{id}/block", adminHandler.BlockSubject)
		r.With(adminAuthMW).Delete("/subjects/{id}/block", adminHandler.UnblockSubject)
	})
}
