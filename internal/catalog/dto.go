package catalog

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// CreateInput carries the fields accepted when creating a product.
type CreateInput struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
}

// ProductPatch is a partial update. Nil fields keep their stored value.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	IsActive    *bool            `json:"is_active"`

	// image is set by the service after the upload has been stored.
	image *string
}

// Empty reports whether the patch carries no field at all.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.IsActive == nil && p.image == nil
}

// ImageUpload is an image file received with a product form.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ParsePrice parses a form price. Numbers with a decimal point are accepted,
// anything else is rejected.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, shared.NewValidationError("price must be a number")
	}
	return price, nil
}

// ParseActive parses the is_active form flag. Only 1/0/true/false are accepted.
func ParseActive(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, shared.NewValidationError("is_active must be one of 1, 0, true, false")
	}
}
