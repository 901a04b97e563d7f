package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskChartsWarmup rebuilds the cached charts of one owner, or of every
	// active owner when the payload names none.
	TaskChartsWarmup = "charts:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// warmupUniqueFor collapses bursts of sales into one warmup per owner.
const warmupUniqueFor = 30 * time.Second

// ChartsWarmupPayload names the owner whose charts are rebuilt.
type ChartsWarmupPayload struct {
	OwnerID int64 `json:"owner_id,omitempty"`
}

// IdempotencyCleanupPayload carries the key retention.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewChartsWarmupTask constructs a warmup task. ownerID 0 warms every
// active owner.
func NewChartsWarmupTask(ownerID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ChartsWarmupPayload{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChartsWarmup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
