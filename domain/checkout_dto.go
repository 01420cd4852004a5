package domain

import "github.com/shopspring/decimal"

// RequestedLine is what the client believes is in its cart. It is advisory only.
type RequestedLine struct {
	ProductID string `json:"product_id"`
	Size      Size   `json:"size"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	UserID         string
	IdempotencyKey string
	RequestedLines []RequestedLine
}

type PlaceOrderResponse struct {
	CheckoutID  string          `json:"checkout_id"`
	OrderID     string          `json:"order_id"`
	Status      CheckoutStatus  `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}
