package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates the request carries no authenticated session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the session lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness violation such as a duplicate email.
	ErrConflict = errors.New("conflict")
)

// ValidationError describes rejected input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
	// Missing lists required fields and whether each one was absent.
	Missing map[string]bool
	// Item is the zero-based index of the first offending list element, when relevant.
	Item *int
}

// NewValidationError builds a ValidationError with a message only.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// MissingFields builds a ValidationError reporting absent required fields.
func MissingFields(message string, missing map[string]bool) *ValidationError {
	return &ValidationError{Message: message, Missing: missing}
}

// InvalidItem builds a ValidationError pointing at a list element.
func InvalidItem(index int, format string, args ...any) *ValidationError {
	idx := index
	return &ValidationError{Message: fmt.Sprintf(format, args...), Item: &idx}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	names := e.MissingNames()
	if len(names) > 0 {
		return fmt.Sprintf("%s: missing %s", e.Message, strings.Join(names, ", "))
	}
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingNames returns the sorted names of fields flagged as missing.
func (e *ValidationError) MissingNames() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.Missing))
	for name, missing := range e.Missing {
		if missing {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// UserSafeMessage returns a message that can be shown to API clients.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation):
		return err.Error()
	}
	return "internal server error"
}
