package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/stockbook/internal/jobs"
)

type fakeWarmer struct {
	owners []int64
	err    error
}

func (f *fakeWarmer) Warm(_ context.Context, ownerID int64) (int, error) {
	f.owners = append(f.owners, ownerID)
	return 12, f.err
}

type fakeOwners []int64

func (f fakeOwners) ActiveUserIDs(context.Context) ([]int64, error) { return f, nil }

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return 3, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "1", Queue: QueueDefault, Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestChartsWarmupSingleOwner(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewChartsWarmupJob(warmer, nil, nil, testMetrics())
	task, err := NewChartsWarmupTask(7)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{7}, warmer.owners)
}

func TestChartsWarmupEveryOwner(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewChartsWarmupJob(warmer, fakeOwners{1, 2, 3}, nil, testMetrics())
	task, err := NewChartsWarmupTask(0)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{1, 2, 3}, warmer.owners)
}

func TestChartsWarmupPropagatesFailure(t *testing.T) {
	boom := errors.New("redis down")
	job := NewChartsWarmupJob(&fakeWarmer{err: boom}, nil, nil, testMetrics())
	task, err := NewChartsWarmupTask(7)
	require.NoError(t, err)

	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestChartsWarmupSkipsBadPayload(t *testing.T) {
	job := NewChartsWarmupJob(&fakeWarmer{}, nil, nil, testMetrics())
	err := job.Handle(context.Background(), asynq.NewTask(TaskChartsWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanup(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := &IdempotencyCleanupJob{Store: cleaner, Metrics: testMetrics()}
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 48*time.Hour, cleaner.retention)

	empty, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), empty), asynq.SkipRetry)
}

func TestEnqueueChartWarmup(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClientWith(enq)

	require.NoError(t, client.EnqueueChartWarmup(context.Background(), 7))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, TaskChartsWarmup, enq.tasks[0].Type())
	var payload ChartsWarmupPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, int64(7), payload.OwnerID)

	enq.err = asynq.ErrDuplicateTask
	require.NoError(t, client.EnqueueChartWarmup(context.Background(), 7))

	enq.err = errors.New("redis down")
	require.Error(t, client.EnqueueChartWarmup(context.Background(), 7))
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 2}}, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":2,"active":0,"retry":0,"processed":0}`, rec.Body.String())

	r = chi.NewRouter()
	NewHandler(fakeInspector{err: errors.New("down")}, nil).MountRoutes(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
