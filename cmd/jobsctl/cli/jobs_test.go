package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/jobs"
)

type recordingEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (e *recordingEnqueuer) Close() error {
	e.closed = true
	return nil
}

type stubInspector struct {
	info    *asynq.QueueInfo
	err     error
	retries []*asynq.TaskInfo
	queue   string
}

func (s *stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	s.queue = queue
	return s.info, s.err
}

func (s *stubInspector) ListRetryTasks(queue string, _ ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	s.queue = queue
	return s.retries, s.err
}

func (s *stubInspector) Close() error { return nil }

func TestTriggerStatsWarmup(t *testing.T) {
	enq := &recordingEnqueuer{}
	c := NewJobsCLIWith(enq, nil)

	info, err := c.Trigger(context.Background(), JobStatsWarmup)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskStatsWarmup, info.Type)
	require.Len(t, enq.tasks, 1)

	_, err = c.Trigger(context.Background(), "ledger-close")
	require.Error(t, err)
	assert.Len(t, enq.tasks, 1)
}

func TestResendConfirmation(t *testing.T) {
	enq := &recordingEnqueuer{}
	c := NewJobsCLIWith(enq, nil)

	_, err := c.ResendConfirmation(context.Background(), Confirmation{Code: "TRX-1-1", CustomerEmail: "a@b.test", Total: "40000"})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskOrderConfirmation, enq.tasks[0].Type())

	var payload jobs.OrderConfirmationPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "TRX-1-1", payload.Code)
	assert.Equal(t, "40000", payload.TotalAmount.String())

	_, err = c.ResendConfirmation(context.Background(), Confirmation{Code: "TRX-1-1", Total: "1"})
	assert.Error(t, err, "email is required")
	_, err = c.ResendConfirmation(context.Background(), Confirmation{Code: "TRX-1-1", CustomerEmail: "a@b.test", Total: "abc"})
	assert.Error(t, err)
}

func TestInspectQueue(t *testing.T) {
	insp := &stubInspector{info: &asynq.QueueInfo{Pending: 3, Active: 1, Retry: 2, Archived: 4}}
	c := NewJobsCLIWith(nil, insp)

	stats, err := c.InspectQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 3, Active: 1, Retry: 2, Archived: 4}, stats)
	assert.Equal(t, jobs.QueueDefault, insp.queue)

	insp.err = errors.New("redis down")
	_, err = c.InspectQueue(context.Background())
	assert.Error(t, err)
}

func TestHelpersRequireConnections(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), JobStatsWarmup)
	assert.Error(t, err)

	empty := NewJobsCLIWith(nil, nil)
	_, err = empty.ListRetry(context.Background(), 0)
	assert.Error(t, err)
	assert.NoError(t, empty.Close())
}
