package blogsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	syncsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/sync"
)

// Job runs the blog import on an interval inside the API process.
type Job struct {
	service  *syncsvc.Service
	interval time.Duration
	logger   *zap.Logger
}

func New(service *syncsvc.Service, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

func (j *Job) RunOnce(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("sync service is nil")
	}

	result, err := j.service.Run(ctx)
	if err != nil {
		return fmt.Errorf("run blog sync: %w", err)
	}

	j.logger.Info("blog sync completed",
		zap.Int("seen", result.Seen),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("poster_failures", result.PosterFails),
		zap.Duration("duration", result.Duration),
	)
	return nil
}

// Start blocks until ctx is done, importing once at startup and then on
// every tick.
func (j *Job) Start(ctx context.Context) {
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Warn("initial blog sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Warn("scheduled blog sync failed", zap.Error(err))
			}
		}
	}
}
