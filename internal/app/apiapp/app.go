package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/config"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/infra/blogger"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/infra/httpclient"
	s3infra "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/infra/s3"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/jobs/blogsync"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
	redrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/redis"
	adminauthsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/adminauth"
	adssvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/ads"
	moviessvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/movies"
	ratesvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/rate"
	syncsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/sync"
	tokensvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/token"
	unlocksvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/unlock"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	syncJob    *blogsync.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	tokenRepo := redrepo.NewTokenRepo(redisClient)
	quotaRepo := pgrepo.NewQuotaRepo(pool)
	movieRepo := pgrepo.NewMovieRepo(pool)
	adEventRepo := pgrepo.NewAdEventRepo(pool)

	signingSecret := cfg.Unlock.SigningSecret
	if signingSecret == "" {
		signingSecret = cfg.Admin.Secret
		if signingSecret != "" {
			log.Warn("unlock.signing_secret is empty, falling back to admin secret")
		} else {
			log.Warn("no unlock signing secret configured, token issuing will fail")
		}
	}

	tokenCodec := tokensvc.NewCodec(signingSecret, cfg.Unlock.TokenTTL)
	adsService := adssvc.NewService(adEventRepo)
	unlockService := unlocksvc.NewService(tokenCodec, quotaRepo, movieRepo, adsService, unlocksvc.Config{
		FreeDailyLimit: cfg.Unlock.FreeDailyLimit,
		TokenTTL:       cfg.Unlock.TokenTTL,
		SingleUse:      cfg.Unlock.SingleUse,
	})
	if cfg.Unlock.SingleUse {
		unlockService.AttachSingleUse(tokenRepo)
	}
	unlockLimiter := ratesvc.NewLimiter(rateRepo, cfg.Unlock.ThrottlePerMinute)
	movieService := moviessvc.NewService(movieRepo)
	adminAuthService := adminauthsvc.NewService(cfg.Admin.Secret, cfg.Admin.AccessTTL, cfg.Admin.SessionIdle, sessionRepo)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	var syncService *syncsvc.Service
	var syncJob *blogsync.Job
	if cfg.Sync.BlogID != "" && cfg.Sync.APIKey != "" {
		httpClient := httpclient.New(0)
		bloggerClient := blogger.NewClient(httpClient, cfg.Sync.BaseURL, cfg.Sync.BlogID, cfg.Sync.APIKey)
		syncService = syncsvc.NewService(bloggerClient, movieRepo, syncsvc.Config{
			PageSize:      cfg.Sync.PageSize,
			MirrorPosters: cfg.Sync.MirrorPosters,
		})
		if cfg.Sync.MirrorPosters && s3Client != nil {
			syncService.AttachPosterStore(syncsvc.NewS3PosterStore(s3Client, cfg.S3.Bucket, cfg.S3.PublicBase, httpClient))
		}
		syncJob = blogsync.New(syncService, cfg.Sync.Interval, log)
	} else {
		log.Warn("blog sync is not configured, catalog import disabled")
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AdminAuthService: adminAuthService,
		MovieService:     movieService,
		UnlockService:    unlockService,
		UnlockLimiter:    unlockLimiter,
		SyncService:      syncService,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		syncJob:    syncJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// SyncJob returns the periodic blog import, or nil when sync is not
// configured.
func (a *App) SyncJob() *blogsync.Job {
	return a.syncJob
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
