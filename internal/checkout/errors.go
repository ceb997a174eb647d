package checkout

import (
	"errors"
	"fmt"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

var (
	// ErrDuplicateCode is returned by the repository when the generated
	// transaction code already exists.
	ErrDuplicateCode = errors.New("transaction code already exists")
	// ErrUnknownProduct is returned when an order line references a missing product.
	ErrUnknownProduct = fmt.Errorf("order references an unknown product: %w", shared.ErrValidation)
	// ErrInvalidStatus is returned for statuses outside the known set.
	ErrInvalidStatus = fmt.Errorf("invalid status, expected one of pending, paid, cancelled, completed: %w", shared.ErrValidation)
	// ErrCodeExhausted is returned when every generated code collided.
	ErrCodeExhausted = errors.New("could not allocate a unique transaction code")
)
