package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// RepositoryPort defines the queries the service needs.
type RepositoryPort interface {
	CountTransactions(ctx context.Context) (int64, error)
	CountActiveProducts(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
	TransactionRows(ctx context.Context, since *time.Time) ([]Row, error)
	SalesRows(ctx context.Context, since *time.Time) ([]Row, error)
	ProductRows(ctx context.Context) ([]Row, error)
}

// TransactionReader loads a transaction on behalf of a viewer, enforcing
// owner-or-admin access.
type TransactionReader interface {
	Get(ctx context.Context, viewer shared.SessionData, id int64) (checkout.Transaction, error)
}

// StatsCache is the versioned cache used for dashboard aggregates.
type StatsCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Service implements admin reporting.
type Service struct {
	repo         RepositoryPort
	transactions TransactionReader
	cache        StatsCache
	logger       *slog.Logger
	now          func() time.Time
	group        singleflight.Group
}

// NewService builds a Service. cache may be nil.
func NewService(repo RepositoryPort, transactions TransactionReader, cache StatsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, transactions: transactions, cache: cache, logger: logger, now: time.Now}
}

// DashboardStats returns the dashboard aggregates, served from cache when
// the version has not moved since the last load.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	if s.cache == nil {
		return s.loadStats(ctx)
	}
	key, err := s.cache.BuildKey(ctx, "storefront", "stats", "dashboard")
	if err != nil {
		s.logger.Warn("stats cache unavailable", slog.Any("error", err))
		return s.loadStats(ctx)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var stats Stats
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.loadStats(ctx)
		})
		return stats, err
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

func (s *Service) loadStats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalTransactions, err = s.repo.CountTransactions(ctx)
		return wrap("count transactions", err)
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.repo.PaidRevenue(ctx)
		return wrap("sum revenue", err)
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.repo.CountActiveProducts(ctx)
		return wrap("count products", err)
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.repo.CountUsers(ctx)
		return wrap("count users", err)
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// GenerateReport collects the rows of a report. An empty selection is
// reported as shared.ErrNotFound.
func (s *Service) GenerateReport(ctx context.Context, reportType, period string) (Report, error) {
	t, err := ParseReportType(reportType)
	if err != nil {
		return Report{}, err
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return Report{}, err
	}
	now := s.now()
	since := p.Since(now)

	var rows []Row
	switch t {
	case ReportTransactions:
		rows, err = s.repo.TransactionRows(ctx, since)
	case ReportSales:
		rows, err = s.repo.SalesRows(ctx, since)
	case ReportProducts:
		rows, err = s.repo.ProductRows(ctx)
	}
	if err != nil {
		return Report{}, fmt.Errorf("load %s rows: %w", t, err)
	}
	if len(rows) == 0 {
		return Report{}, fmt.Errorf("no %s data for period %s: %w", t, p, shared.ErrNotFound)
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return Report{Type: t, Period: p, GeneratedAt: now, Rows: rows, GrandTotal: total}, nil
}

// GenerateInvoice loads the invoice of transaction id for viewer.
func (s *Service) GenerateInvoice(ctx context.Context, viewer shared.SessionData, id int64) (Invoice, error) {
	t, err := s.transactions.Get(ctx, viewer, id)
	if err != nil {
		return Invoice{}, err
	}
	return NewInvoice(t), nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
