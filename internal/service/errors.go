package service

import "errors"

var (
	ErrNotAuthenticated       = errors.New("caller is not authenticated")
	ErrMissingIdempotencyKey  = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key belongs to another user")
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrPaymentNotCompleted    = errors.New("payment not completed")
	ErrInventoryConflict      = errors.New("inventory conflict after payment, charge refunded")
	ErrPersistenceFailure     = errors.New("order could not be persisted")
	ErrUpstreamUnavailable    = errors.New("upstream service unavailable")
	ErrCheckoutInProgress     = errors.New("checkout with this idempotency key is in progress")
	IllegalTransitionError    = errors.New("illegal transition of checkout status")
)
