package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jordan-wright/email"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/reporting"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1", Queue: QueueDefault, Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestClient_OrderPlacedEnqueuesConfirmation(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClientWith(enq)

	err := client.OrderPlaced(context.Background(), checkout.OrderPlaced{
		TransactionID: 3, Code: "TRX-1-2", CustomerName: "Alice", CustomerEmail: "alice@example.com", TotalAmount: decimal.NewFromInt(40000),
	})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskOrderConfirmation, enq.tasks[0].Type())

	var payload OrderConfirmationPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "TRX-1-2", payload.Code)
	assert.Equal(t, "alice@example.com", payload.CustomerEmail)
}

func TestOrderConfirmationJob_SendsMail(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewOrderConfirmationJob(mailer, nil, nil)
	task, err := NewOrderConfirmationTask(OrderConfirmationPayload{Code: "TRX-1-2", CustomerName: "Alice", CustomerEmail: "alice@example.com", TotalAmount: decimal.NewFromInt(40000)})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.Subject, "TRX-1-2")
	assert.Contains(t, msg.Body, "Halo Alice")
	assert.Contains(t, msg.Body, "Rp 40.000")
}

func TestOrderConfirmationJob_SkipsUnusablePayloads(t *testing.T) {
	job := NewOrderConfirmationJob(&recordingMailer{}, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskOrderConfirmation, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := NewOrderConfirmationTask(OrderConfirmationPayload{Code: "TRX-1-2"})
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestOrderConfirmationJob_RetriesMailFailure(t *testing.T) {
	boom := errors.New("relay down")
	job := NewOrderConfirmationJob(&recordingMailer{err: boom}, nil, nil)
	task, _ := NewOrderConfirmationTask(OrderConfirmationPayload{Code: "TRX-1-2", CustomerEmail: "a@b.c"})

	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSMTPMailer_BuildsEnvelope(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 1025, From: "Kedai Dimesem <noreply@kedai.test>"})
	var (
		gotAddr string
		gotAuth smtp.Auth
		gotMail *email.Email
	)
	mailer.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		gotMail, gotAddr, gotAuth = e, addr, auth
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Body: "body"}))
	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Nil(t, gotAuth)
	assert.Equal(t, []string{"alice@example.com"}, gotMail.To)
	assert.Equal(t, "Kedai Dimesem <noreply@kedai.test>", gotMail.From)
	assert.Equal(t, "body", string(gotMail.Text))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mailer.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}

type stubStats struct {
	calls int
	err   error
}

func (s *stubStats) DashboardStats(context.Context) (reporting.Stats, error) {
	s.calls++
	return reporting.Stats{TotalTransactions: 2}, s.err
}

func TestStatsWarmupJob(t *testing.T) {
	stats := &stubStats{}
	job := NewStatsWarmupJob(stats, nil, nil)
	require.NoError(t, job.Handle(context.Background(), NewStatsWarmupTask()))
	assert.Equal(t, 1, stats.calls)

	stats.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), NewStatsWarmupTask()))
}

type countingStats struct {
	calls atomic.Int32
}

func (s *countingStats) DashboardStats(context.Context) (reporting.Stats, error) {
	s.calls.Add(1)
	return reporting.Stats{}, nil
}

func TestStatsWarmupJob_WarmsOnCacheBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := reporting.NewCache(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := &countingStats{}
	NewStatsWarmupJob(stats, nil, nil).WarmOnBump(ctx, cache)

	require.Eventually(t, func() bool {
		_ = cache.Bump(ctx)
		return stats.calls.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		body      string
	}{
		{name: "no inspector", inspector: nil, status: http.StatusOK, body: `{"queue":"default","pending":0,"active":0,"failed":0}`},
		{name: "queue info", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Active: 1, Retry: 2, Archived: 1}}, status: http.StatusOK, body: `{"queue":"default","pending":4,"active":1,"failed":3}`},
		{name: "redis down", inspector: fakeInspector{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tc.status, rr.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rr.Body.String())
			}
		})
	}
}
