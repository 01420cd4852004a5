package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Order is immutable once placed.
type Order struct {
	ID          string          `json:"id"`
	CheckoutID  string          `json:"checkout_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewOrder builds the order record for a paid checkout from its cart snapshot.
func NewOrder(id, checkoutID, userID string, snapshot *CartSnapshot, createdAt time.Time) *Order {
	items := make([]OrderItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		items[i] = OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ImageURL:    item.ImageURL,
		}
	}
	return &Order{
		ID:          id,
		CheckoutID:  checkoutID,
		UserID:      userID,
		Items:       items,
		TotalAmount: snapshot.TotalAmount,
		Currency:    snapshot.Currency,
		CreatedAt:   createdAt,
	}
}
