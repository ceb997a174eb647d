package reporting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

type stubRepo struct {
	loads        atomic.Int32
	revenueErr   error
	transactions []Row
	sales        []Row
	products     []Row
	since        *time.Time
}

func (s *stubRepo) CountTransactions(context.Context) (int64, error) {
	s.loads.Add(1)
	return 3, nil
}

func (s *stubRepo) CountActiveProducts(context.Context) (int64, error) { return 4, nil }
func (s *stubRepo) CountUsers(context.Context) (int64, error)          { return 2, nil }

func (s *stubRepo) PaidRevenue(context.Context) (decimal.Decimal, error) {
	if s.revenueErr != nil {
		return decimal.Zero, s.revenueErr
	}
	return decimal.NewFromInt(40000), nil
}

func (s *stubRepo) TransactionRows(_ context.Context, since *time.Time) ([]Row, error) {
	s.since = since
	return s.transactions, nil
}

func (s *stubRepo) SalesRows(_ context.Context, since *time.Time) ([]Row, error) {
	s.since = since
	return s.sales, nil
}

func (s *stubRepo) ProductRows(context.Context) ([]Row, error) { return s.products, nil }

type stubTransactions struct {
	tx checkout.Transaction
}

func (s stubTransactions) Get(_ context.Context, viewer shared.SessionData, id int64) (checkout.Transaction, error) {
	if id != s.tx.ID {
		return checkout.Transaction{}, shared.ErrNotFound
	}
	if !viewer.IsAdmin() && !s.tx.OwnedBy(viewer.UserID) {
		return checkout.Transaction{}, shared.ErrForbidden
	}
	return s.tx, nil
}

func newCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestDashboardStats_CachedUntilBump(t *testing.T) {
	repo := &stubRepo{}
	cache := newCache(t)
	svc := NewService(repo, nil, cache, nil)
	ctx := context.Background()

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTransactions)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, int64(4), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.TotalUsers)

	_, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.loads.Load())

	require.NoError(t, cache.Bump(ctx))
	_, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.loads.Load())
}

func TestDashboardStats_AnyQueryFailureFailsCall(t *testing.T) {
	repo := &stubRepo{revenueErr: errors.New("boom")}
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.DashboardStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum revenue")
}

func TestCache_SubscribeReceivesBumps(t *testing.T) {
	cache := newCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int64, 1)
	cache.Subscribe(ctx, func(v int64) {
		select {
		case got <- v:
		default:
		}
	})

	_, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_ = cache.Bump(ctx)
		select {
		case v := <-got:
			return v > 1
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGenerateReport(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)
	repo := &stubRepo{
		transactions: []Row{
			{Label: "TRX-1", Description: "Alice", Date: &created, Amount: decimal.NewFromInt(40000)},
			{Label: "TRX-2", Description: "Budi", Date: &created, Amount: decimal.RequireFromString("28000.50")},
		},
	}
	svc := NewService(repo, nil, nil, nil)
	svc.now = func() time.Time { return now }

	report, err := svc.GenerateReport(context.Background(), "Transactions", "today")
	require.NoError(t, err)
	assert.Equal(t, ReportTransactions, report.Type)
	assert.Equal(t, PeriodToday, report.Period)
	assert.Equal(t, "68000.5", report.GrandTotal.String())
	require.NotNil(t, repo.since)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), *repo.since)
	assert.Equal(t, "laporan-transactions-today", report.Filename())

	_, err = svc.GenerateReport(context.Background(), "sales", "all")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, repo.since)

	_, err = svc.GenerateReport(context.Background(), "refunds", "all")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GenerateReport(context.Background(), "products", "decade")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestPeriodSince(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	cases := map[Period]*time.Time{
		PeriodToday: ptr(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)),
		PeriodWeek:  ptr(time.Date(2025, 3, 7, 15, 30, 0, 0, time.UTC)),
		PeriodMonth: ptr(time.Date(2025, 2, 12, 15, 30, 0, 0, time.UTC)),
		PeriodYear:  ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		PeriodAll:   nil,
	}
	for period, want := range cases {
		t.Run(string(period), func(t *testing.T) {
			assert.Equal(t, want, period.Since(now))
		})
	}
}

func TestGenerateInvoice(t *testing.T) {
	owner := int64(7)
	tx := checkout.Transaction{ID: 11, UserID: &owner, Code: "TRX-1-1", TotalAmount: decimal.NewFromInt(40000), Status: checkout.StatusPaid}
	svc := NewService(&stubRepo{}, stubTransactions{tx: tx}, nil, nil)

	invoice, err := svc.GenerateInvoice(context.Background(), shared.SessionData{UserID: 7, Role: shared.RoleUser}, 11)
	require.NoError(t, err)
	assert.Equal(t, "30000", invoice.Subtotal.String())
	assert.Equal(t, "10000", invoice.Shipping.String())
	assert.Equal(t, "40000", invoice.Total.String())
	assert.Equal(t, "LUNAS", invoice.StatusLabel)
	assert.Equal(t, "invoice-TRX-1-1", invoice.Filename())

	_, err = svc.GenerateInvoice(context.Background(), shared.SessionData{UserID: 8, Role: shared.RoleUser}, 11)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.GenerateInvoice(context.Background(), shared.SessionData{UserID: 1, Role: shared.RoleAdmin}, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceStatusLabel(t *testing.T) {
	assert.Equal(t, "PENDING", NewInvoice(checkout.Transaction{Status: checkout.StatusPending}).StatusLabel)
	assert.Equal(t, "LUNAS", NewInvoice(checkout.Transaction{Status: checkout.StatusCompleted}).StatusLabel)
	assert.Equal(t, "DIBATALKAN", NewInvoice(checkout.Transaction{Status: checkout.StatusCancelled}).StatusLabel)
}

func ptr[T any](v T) *T { return &v }
