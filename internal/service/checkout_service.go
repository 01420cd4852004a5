package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/easycart/domain"
	r "github.com/fjod/easycart/internal/repository"
)

// PlaceOrder charges the user's cart and turns it into an order.
//
// The stored cart is authoritative; RequestedLines only trigger a warning when they differ.
// Payment is captured before any stock is touched. Once captured, the stock decrements, the order,
// the cart clear and the outbox event commit together, and a line without stock refunds the charge
// and returns ErrInventoryConflict. Replaying an idempotency key returns the recorded outcome and
// never charges twice.
func (s *CheckoutServiceImpl) PlaceOrder(
	ctx context.Context,
	request *domain.PlaceOrderRequest) (*domain.PlaceOrderResponse, error) {

	if request.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if request.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	// check session by idempotency key from repository
	existing, err := s.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil && !errors.Is(err, r.ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("%w: failed to check idempotency: %w", ErrUpstreamUnavailable, err)
	}

	if existing != nil {
		if existing.UserID != request.UserID {
			return nil, ErrIdempotencyKeyConflict
		}
		s.log.InfoContext(ctx, "duplicate request detected",
			"idempotency_key", request.IdempotencyKey,
			"checkout_id", existing.ID,
			"status", existing.Status)
		return s.resume(ctx, existing)
	}

	snapshot, err := s.getCart(ctx, request)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &r.CheckoutSession{
		ID:             s.newID(),
		UserID:         request.UserID,
		IdempotencyKey: request.IdempotencyKey,
		CartSnapshot:   snapshot,
		Status:         domain.CheckoutStatusInitiated,
		TotalAmount:    snapshot.TotalAmount,
		Currency:       snapshot.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateCheckoutSession(ctx, session); err != nil {
		if errors.Is(err, r.ErrDuplicateIdempotencyKey) {
			return nil, ErrCheckoutInProgress
		}
		return nil, fmt.Errorf("%w: failed to create checkout session: %w", ErrUpstreamUnavailable, err)
	}

	// From the payment call on, the caller can no longer cancel: an in-flight charge must either be
	// recorded or refunded.
	ctx = context.WithoutCancel(ctx)

	if err := s.processPayment(ctx, session); err != nil {
		return nil, err
	}

	return s.complete(ctx, session)
}

// resume answers a replayed idempotency key from the session's recorded state.
func (s *CheckoutServiceImpl) resume(ctx context.Context, session *r.CheckoutSession) (*domain.PlaceOrderResponse, error) {
	switch session.Status {
	case domain.CheckoutStatusCompleted:
		return response(session), nil
	case domain.CheckoutStatusPaymentCompleted:
		// paid but not committed: finish the commit with the stored snapshot and charge
		return s.complete(context.WithoutCancel(ctx), session)
	case domain.CheckoutStatusFailed:
		return nil, failedSessionError(session)
	case domain.CheckoutStatusRefunded, domain.CheckoutStatusRefundFailed:
		if session.FailureReason == reasonPaymentNotRecorded {
			return nil, failedSessionError(session)
		}
		return nil, fmt.Errorf("%w: %s", ErrInventoryConflict, session.FailureReason)
	default:
		return nil, ErrCheckoutInProgress
	}
}

func response(session *r.CheckoutSession) *domain.PlaceOrderResponse {
	return &domain.PlaceOrderResponse{
		CheckoutID:  session.ID,
		OrderID:     session.OrderID,
		Status:      session.Status,
		TotalAmount: session.TotalAmount,
		Currency:    session.Currency,
	}
}
