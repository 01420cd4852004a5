package repository

import (
	"errors"
	"fmt"

	"github.com/fjod/easycart/domain"
)

var (
	ErrIdempotencyKeyNotFound  = errors.New("idempotency key not found")
	ErrDuplicateIdempotencyKey = errors.New("checkout session with this idempotency key already exists")
	ErrSessionNotFound         = errors.New("checkout session not found")
	ErrStaleSession            = errors.New("checkout session status changed concurrently")
	ErrProductNotFound         = errors.New("product not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrStockChanged            = errors.New("stock changed since it was read")
	ErrItemNotFound            = errors.New("cart item not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrDuplicateCheckout       = errors.New("order for this checkout already exists")
	ErrUserNotFound            = errors.New("user not found")
)

// StockError names the line whose decrement was rejected.
type StockError struct {
	ProductID string
	Size      domain.Size
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v: product %s size %s", e.Err, e.ProductID, e.Size)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
