package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

func validateCreate(in *CreateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.Price == nil {
		return shared.MissingFields("name and price are required", map[string]bool{
			"name":  in.Name == "",
			"price": in.Price == nil,
		})
	}
	if err := validatePrice(*in.Price); err != nil {
		return err
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	return nil
}

func validatePatch(p *ProductPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return shared.NewValidationError("name cannot be empty")
		}
		p.Name = &name
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			return shared.NewValidationError("category cannot be empty")
		}
		p.Category = &category
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	return nil
}

// validatePrice rejects values the NUMERIC(12,2) price column would round.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return shared.NewValidationError("price must have at most 2 decimal places")
	}
	return nil
}
