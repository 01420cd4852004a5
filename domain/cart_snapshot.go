package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartSnapshotItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// CartSnapshot represents the full cart state at checkout time
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

// NewCartSnapshot freezes the cart lines and their total at capturedAt.
func NewCartSnapshot(cart *Cart, capturedAt time.Time) *CartSnapshot {
	snapshot := &CartSnapshot{
		Items:       make([]CartSnapshotItem, 0, len(cart.Items)),
		TotalAmount: decimal.Zero,
		Currency:    Currency,
		CapturedAt:  capturedAt,
	}
	for _, item := range cart.Items {
		subtotal := item.Subtotal()
		snapshot.Items = append(snapshot.Items, CartSnapshotItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    subtotal,
			ImageURL:    item.ImageURL,
		})
		snapshot.TotalAmount = snapshot.TotalAmount.Add(subtotal)
	}
	return snapshot
}
