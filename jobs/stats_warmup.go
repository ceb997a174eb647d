package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kedai-dimesem/storefront/internal/jobs"
	"github.com/kedai-dimesem/storefront/internal/reporting"
)

// StatsSource computes (and caches) the dashboard aggregates.
type StatsSource interface {
	DashboardStats(ctx context.Context) (reporting.Stats, error)
}

// StatsWarmupJob keeps the dashboard cache populated so the first admin page
// load after a write does not pay for the aggregate queries.
type StatsWarmupJob struct {
	Stats   StatsSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(stats StatsSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWarmupJob{Stats: stats, Logger: logger, Metrics: metrics}
}

// Handle processes TaskStatsWarmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Stats == nil {
		return errors.New("stats warmup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskStatsWarmup)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	stats, err := j.Stats.DashboardStats(ctx)
	if err != nil {
		j.Logger.Error("warm dashboard stats", slog.Any("error", err))
		return err
	}
	j.Logger.Info("dashboard stats warmed",
		slog.Int64("transactions", stats.TotalTransactions),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// BumpSource announces dashboard cache invalidations.
type BumpSource interface {
	Subscribe(ctx context.Context, fn func(version int64))
}

// WarmOnBump recomputes the aggregates whenever the cache version moves. The
// cron schedule still covers bumps missed while the worker was down.
func (j *StatsWarmupJob) WarmOnBump(ctx context.Context, source BumpSource) {
	source.Subscribe(ctx, func(version int64) {
		if err := j.Handle(ctx, NewStatsWarmupTask()); err != nil {
			j.Logger.Warn("warm stats after bump", slog.Int64("version", version), slog.Any("error", err))
		}
	})
}
