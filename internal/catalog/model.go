package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to products created without a category.
const DefaultCategory = "dimsum"

// Product is a sellable menu item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
	ImageURL    *string         `json:"image_url"`
	Category    string          `json:"category"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DeleteMode tells which delete variant was applied.
type DeleteMode string

const (
	// DeleteSoft marks the product inactive because order lines still reference it.
	DeleteSoft DeleteMode = "soft"
	// DeleteHard removes the row.
	DeleteHard DeleteMode = "hard"
)

// DeleteResult is returned by Service.Delete.
type DeleteResult struct {
	ID   int64      `json:"id"`
	Mode DeleteMode `json:"mode"`
}

// StatusFilter narrows listings by the active flag.
type StatusFilter string

const (
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
	StatusAll      StatusFilter = "all"
)

// ListFilter holds listing criteria. The zero value lists active products.
type ListFilter struct {
	Search   string
	Category string
	Status   StatusFilter
}

// activeFlag converts Status to the nullable is_active predicate.
func (f ListFilter) activeFlag() *bool {
	switch f.Status {
	case StatusAll:
		return nil
	case StatusInactive:
		v := false
		return &v
	default:
		v := true
		return &v
	}
}
