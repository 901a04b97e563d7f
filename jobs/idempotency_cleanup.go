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

// KeyCleaner deletes idempotency keys older than a retention.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges processed request keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Retention <= 0 {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	purged, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		logger.Error("purge idempotency keys", slog.Any("error", err))
		return err
	}
	metrics.AddItems(TaskIdempotencyCleanup, int(purged))
	logger.Info("purged idempotency keys", slog.String("job", TaskIdempotencyCleanup), slog.Int64("keys", purged))
	return nil
}
