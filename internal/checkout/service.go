package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

const (
	maxCodeAttempts    = 3
	defaultRecentLimit = 5
	idempotencyModule  = "checkout"
)

// Notifier is told about committed orders, e.g. to enqueue a confirmation mail.
type Notifier interface {
	OrderPlaced(ctx context.Context, order OrderPlaced) error
}

// StatsCache is bumped after writes that change dashboard aggregates.
type StatsCache interface {
	Bump(ctx context.Context) error
}

// Metrics records checkout outcomes.
type Metrics interface {
	ObserveCheckout(outcome string, total decimal.Decimal)
}

// IdempotencyGuard rejects replayed request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Deps are the optional collaborators of Service.
type Deps struct {
	Notifier    Notifier
	Stats       StatsCache
	Metrics     Metrics
	Idempotency IdempotencyGuard
	Audit       shared.AuditRecorder
	Codes       CodeGenerator
	Logger      *slog.Logger
}

// Service implements checkout and transaction administration.
type Service struct {
	repo Repository
	deps Deps
}

// NewService wires the checkout service.
func NewService(repo Repository, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Audit == nil {
		deps.Audit = shared.NopAuditRecorder{}
	}
	if deps.Codes.Now == nil || deps.Codes.Intn == nil {
		deps.Codes = NewCodeGenerator()
	}
	return &Service{repo: repo, deps: deps}
}

// Checkout validates req, computes the authoritative totals and stores the
// transaction with all of its items atomically. A generated code that collides
// with an existing one is retried with a fresh code.
func (s *Service) Checkout(ctx context.Context, userID int64, req CheckoutRequest, idempotencyKey string) (Receipt, error) {
	if userID <= 0 {
		return Receipt{}, fmt.Errorf("checkout requires a logged in user: %w", shared.ErrUnauthorized)
	}
	order, err := req.Normalize()
	if err != nil {
		s.observe("invalid", decimal.Zero)
		return Receipt{}, err
	}

	if idempotencyKey != "" && s.deps.Idempotency != nil {
		if err := s.deps.Idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Receipt{}, err
		}
	}

	receipt, err := s.place(ctx, userID, order)
	if err != nil {
		if idempotencyKey != "" && s.deps.Idempotency != nil {
			if derr := s.deps.Idempotency.Delete(context.WithoutCancel(ctx), idempotencyKey); derr != nil {
				s.deps.Logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		s.observe("failed", decimal.Zero)
		return Receipt{}, err
	}

	s.observe("success", receipt.TotalAmount)
	s.afterCheckout(ctx, order, receipt)
	return receipt, nil
}

func (s *Service) place(ctx context.Context, userID int64, order Order) (Receipt, error) {
	subtotal, total := Totals(order.Lines)
	uid := userID

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.deps.Codes.Next()
		var txID int64
		err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
			id, err := repo.InsertTransaction(ctx, Transaction{
				UserID:          &uid,
				Code:            code,
				CustomerName:    order.CustomerName,
				CustomerEmail:   order.CustomerEmail,
				CustomerPhone:   order.CustomerPhone,
				CustomerAddress: order.CustomerAddress,
				CustomerNote:    order.CustomerNote,
				PaymentMethod:   order.PaymentMethod,
				TotalAmount:     total,
				Status:          StatusPending,
			})
			if err != nil {
				return err
			}
			for i, line := range order.Lines {
				if _, err := repo.InsertItem(ctx, Item{
					TransactionID: id,
					ProductID:     line.ProductID,
					ProductName:   line.ProductName,
					Quantity:      line.Quantity,
					Price:         line.Price,
					Subtotal:      LineSubtotal(line.Quantity, line.Price),
				}); err != nil {
					if errors.Is(err, shared.ErrValidation) {
						return shared.InvalidItem(i, "item %d: %v", i+1, err)
					}
					return fmt.Errorf("item %d: %w", i+1, err)
				}
			}
			txID = id
			return nil
		})
		if errors.Is(err, ErrDuplicateCode) {
			s.deps.Logger.Warn("transaction code collision", slog.String("code", code), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return Receipt{}, err
		}
		return Receipt{
			TransactionID:   txID,
			TransactionCode: code,
			Subtotal:        subtotal,
			Shipping:        ShippingFee,
			TotalAmount:     total,
		}, nil
	}
	return Receipt{}, ErrCodeExhausted
}

func (s *Service) afterCheckout(ctx context.Context, order Order, receipt Receipt) {
	ctx = context.WithoutCancel(ctx)
	if s.deps.Stats != nil {
		if err := s.deps.Stats.Bump(ctx); err != nil {
			s.deps.Logger.Warn("bump stats cache", slog.Any("error", err))
		}
	}
	if s.deps.Notifier != nil && order.CustomerEmail != "" {
		if err := s.deps.Notifier.OrderPlaced(ctx, OrderPlaced{
			TransactionID: receipt.TransactionID,
			Code:          receipt.TransactionCode,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			TotalAmount:   receipt.TotalAmount,
		}); err != nil {
			s.deps.Logger.Warn("enqueue order confirmation", slog.String("code", receipt.TransactionCode), slog.Any("error", err))
		}
	}
}

// UpdateStatus overwrites the status of transaction id.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id int64, status string) (Status, error) {
	next := Status(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return "", ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return "", err
	}
	if err := s.deps.Audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditTransactionStatus,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"status": string(next)},
	}); err != nil {
		s.deps.Logger.Warn("audit record failed", slog.Any("error", err))
	}
	if s.deps.Stats != nil {
		if err := s.deps.Stats.Bump(ctx); err != nil {
			s.deps.Logger.Warn("bump stats cache", slog.Any("error", err))
		}
	}
	return next, nil
}

// Get returns transaction id with its items. Only admins and the ordering
// user may read it.
func (s *Service) Get(ctx context.Context, viewer shared.SessionData, id int64) (Transaction, error) {
	if !viewer.Authenticated() {
		return Transaction{}, shared.ErrUnauthorized
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if !viewer.IsAdmin() && !t.OwnedBy(viewer.UserID) {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, shared.ErrForbidden)
	}
	return t, nil
}

// List returns every transaction, newest first.
func (s *Service) List(ctx context.Context) ([]Transaction, error) {
	return s.repo.List(ctx)
}

// Recent returns the latest limit transactions; non-positive limits use 5.
func (s *Service) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repo.Recent(ctx, limit)
}

func (s *Service) observe(outcome string, total decimal.Decimal) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveCheckout(outcome, total)
	}
}
