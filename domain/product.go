package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock holds one independent counter per size.
type Stock struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

// Of returns the counter for the given size, 0 for an unknown size.
func (s Stock) Of(size Size) int {
	switch size {
	case SizeSmall:
		return s.Small
	case SizeMedium:
		return s.Medium
	case SizeLarge:
		return s.Large
	default:
		return 0
	}
}

// Valid reports whether every counter is non-negative.
func (s Stock) Valid() bool {
	return s.Small >= 0 && s.Medium >= 0 && s.Large >= 0
}

type Product struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"seller_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Stock     Stock           `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductPatch carries the seller-editable fields; nil means unchanged.
type ProductPatch struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	ImageURL *string          `json:"image_url,omitempty"`
	Stock    *Stock           `json:"stock,omitempty"`
}

// Apply returns a copy of p with the patch applied.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	return p
}
