package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/easycart/domain"
	r "github.com/fjod/easycart/internal/repository"
)

// complete commits the paid session. ctx must not be cancellable by the caller.
func (s *CheckoutServiceImpl) complete(ctx context.Context, session *r.CheckoutSession) (*domain.PlaceOrderResponse, error) {
	if !domain.CanTransitionTo(session.Status, domain.CheckoutStatusCompleted) {
		return nil, IllegalTransitionError
	}

	order := domain.NewOrder(s.newID(), session.ID, session.UserID, session.CartSnapshot, s.now())

	var stockErr *r.StockError
	err := s.retry(ctx, session.ID, "commit order", func() error {
		err := s.repo.CommitOrder(ctx, session, order)
		if errors.As(err, &stockErr) || errors.Is(err, r.ErrDuplicateCheckout) || errors.Is(err, r.ErrStaleSession) {
			return permanent{err}
		}
		return err
	})

	switch {
	case err == nil:
	case stockErr != nil:
		if current, done := s.finishedElsewhere(ctx, session); done {
			return s.resume(ctx, current)
		}
		conflict := fmt.Errorf("%w: %w", ErrInventoryConflict, stockErr)
		s.refund(ctx, session, stockErr.Error(), domain.CheckoutStatusPaymentCompleted, domain.CheckoutStatusRefunded)
		return nil, conflict
	case errors.Is(err, r.ErrDuplicateCheckout), errors.Is(err, r.ErrStaleSession):
		// a concurrent replay or the recovery poller got there first
		if current, done := s.finishedElsewhere(ctx, session); done {
			return s.resume(ctx, current)
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	default:
		s.log.ErrorContext(ctx, "order commit failed, session left for retry",
			"checkout_id", session.ID, "charge_id", session.ChargeID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	session.Status = domain.CheckoutStatusCompleted
	session.OrderID = order.ID
	s.invalidateCache(ctx, session.UserID)
	s.log.InfoContext(ctx, "order placed",
		"checkout_id", session.ID,
		"order_id", order.ID,
		"user_id", session.UserID,
		"total", order.TotalAmount.StringFixed(2))
	return response(session), nil
}

// RecoverCheckout finishes a session that was paid but never committed.
func (s *CheckoutServiceImpl) RecoverCheckout(ctx context.Context, session *r.CheckoutSession) error {
	if session.Status != domain.CheckoutStatusPaymentCompleted {
		return IllegalTransitionError
	}
	s.log.InfoContext(ctx, "recovering stuck checkout", "checkout_id", session.ID, "charge_id", session.ChargeID)
	_, err := s.complete(context.WithoutCancel(ctx), session)
	return err
}

// finishedElsewhere re-reads the session and reports whether it has left PAYMENT_COMPLETED.
func (s *CheckoutServiceImpl) finishedElsewhere(ctx context.Context, session *r.CheckoutSession) (*r.CheckoutSession, bool) {
	current, err := s.repo.GetCheckoutSession(ctx, session.ID)
	if err != nil {
		s.log.WarnContext(ctx, "failed to re-read checkout session", "checkout_id", session.ID, "error", err)
		return nil, false
	}
	return current, current.Status != domain.CheckoutStatusPaymentCompleted
}

// permanent marks an error that retrying cannot fix.
type permanent struct {
	err error
}

func (p permanent) Error() string { return p.err.Error() }

func (p permanent) Unwrap() error { return p.err }

// retry runs fn up to commitAttempts times with jittered exponential backoff.
func (s *CheckoutServiceImpl) retry(ctx context.Context, checkoutID, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.commitAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return p.err
		}
		s.log.WarnContext(ctx, op+" failed",
			"checkout_id", checkoutID, "attempt", attempt, "max_attempts", s.commitAttempts, "error", err)
		if attempt < s.commitAttempts {
			s.backoff(attempt)
		}
	}
	return err
}

func (s *CheckoutServiceImpl) backoff(attempt int) {
	exp := s.commitBackoff * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int64N(int64(exp/2) + 1))
	time.Sleep(exp + jitter)
}

func (s *CheckoutServiceImpl) invalidateCache(ctx context.Context, userID string) {
	cacheCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.cache.Delete(cacheCtx, userID); err != nil {
		s.log.WarnContext(ctx, "cache invalidate error", "user_id", userID, "error", err)
	}
}
