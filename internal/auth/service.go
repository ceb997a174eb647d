package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Login failures share ErrInvalidCredentials and differ only by message.
var (
	ErrEmailNotFound = fmt.Errorf("email not found: %w", shared.ErrInvalidCredentials)
	ErrWrongPassword = fmt.Errorf("wrong password: %w", shared.ErrInvalidCredentials)
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
	cost     int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// Register creates a user with the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, registerValidationError(err)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, shared.NewValidationError("password must be at least %d characters", MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordLength {
		return nil, shared.NewValidationError("password must be at most %d bytes", MaxPasswordLength)
	}

	exists, err := s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w", shared.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := User{Name: in.Name, Email: in.Email, PasswordHash: string(hash), Role: shared.RoleUser}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

// Login verifies email/password credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, shared.MissingFields("email and password are required", map[string]bool{
			"email":    email == "",
			"password": password == "",
		})
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// Role returns the current role of userID as stored in the database.
func (s *Service) Role(ctx context.Context, userID int64) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func registerValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.NewValidationError("invalid registration data")
	}
	missing := map[string]bool{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing[strings.ToLower(fe.Field())] = true
			continue
		}
		if fe.Tag() == "email" {
			return shared.NewValidationError("email address is not valid")
		}
	}
	return shared.MissingFields("all fields are required", missing)
}
