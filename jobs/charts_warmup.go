package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/stockbook/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ChartWarmer rebuilds the cached charts of an owner.
type ChartWarmer interface {
	Warm(ctx context.Context, ownerID int64) (int, error)
}

// OwnerLister lists the owners a full warmup covers.
type OwnerLister interface {
	ActiveUserIDs(ctx context.Context) ([]int64, error)
}

// ChartsWarmupJob pre-populates the chart cache.
type ChartsWarmupJob struct {
	Charts  ChartWarmer
	Owners  OwnerLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewChartsWarmupJob wires dependencies for the warmup handler.
func NewChartsWarmupJob(charts ChartWarmer, owners OwnerLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *ChartsWarmupJob {
	return &ChartsWarmupJob{Charts: charts, Owners: owners, Logger: logger, Metrics: metrics}
}

// Handle processes chart warmup tasks.
func (j *ChartsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Charts == nil {
		return errors.New("charts warmup: handler not configured")
	}
	var payload ChartsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskChartsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	owners := []int64{payload.OwnerID}
	if payload.OwnerID == 0 {
		if j.Owners == nil {
			return errors.New("charts warmup: owner lister not configured")
		}
		ids, err := j.Owners.ActiveUserIDs(ctx)
		if err != nil {
			j.logger().Error("load warmup owners", slog.Any("error", err))
			return err
		}
		owners = ids
	}

	start := time.Now()
	warmed := 0
	for _, ownerID := range owners {
		// Bound each owner so one slow owner cannot stall the queue.
		ownerCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		n, err := j.Charts.Warm(ownerCtx, ownerID)
		cancel()
		if err != nil {
			j.logger().Error("warm charts", slog.Int64("owner_id", ownerID), slog.Any("error", err))
			return err
		}
		warmed += n
	}
	j.metrics().AddItems(TaskChartsWarmup, warmed)
	j.logger().Info("completed charts warmup", slog.Int("owners", len(owners)), slog.Int("charts", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ChartsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskChartsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskChartsWarmup))
}

func (j *ChartsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
