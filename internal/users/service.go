package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, id int64, role string) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// Service handles user administration.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
	cost   int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, cost: bcrypt.DefaultCost}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Promote grants the admin role to id.
func (s *Service) Promote(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetRole(ctx, id, shared.RoleAdmin); err != nil {
		return err
	}
	s.record(ctx, shared.AuditLog{ActorID: actorID, Action: shared.AuditUserPromoted, Entity: "user", EntityID: strconv.FormatInt(id, 10)})
	return nil
}

// ResetPassword replaces the password of id with DefaultResetPassword.
func (s *Service) ResetPassword(ctx context.Context, actorID, id int64) (ResetResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultResetPassword), s.cost)
	if err != nil {
		return ResetResult{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, id, string(hash)); err != nil {
		return ResetResult{}, err
	}
	s.record(ctx, shared.AuditLog{ActorID: actorID, Action: shared.AuditUserPasswordReset, Entity: "user", EntityID: strconv.FormatInt(id, 10)})
	return ResetResult{UserID: id, NewPassword: DefaultResetPassword}, nil
}

func (s *Service) record(ctx context.Context, entry shared.AuditLog) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
