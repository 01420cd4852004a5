package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's cart, keyed by (ProductID, Size).
// ProductName and UnitPrice are captured when the line is first added and are not refreshed.
type CartItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

// Key identifies the line inside a cart.
func (i CartItem) Key() string {
	return i.ProductID + "_" + string(i.Size)
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Total sums the line subtotals using the captured unit prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
