package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/payment"
	r "github.com/fjod/easycart/internal/repository"
)

const (
	reasonPaymentTimeout     = "payment timed out"
	reasonPaymentUnavailable = "payment processor unavailable"
	reasonPaymentNotRecorded = "payment could not be recorded"
)

func (s *CheckoutServiceImpl) processPayment(ctx context.Context, session *r.CheckoutSession) error {
	if !domain.CanTransitionTo(session.Status, domain.CheckoutStatusPaymentPending) {
		return IllegalTransitionError
	}
	err := s.repo.UpdateCheckoutSessionStatus(ctx, session.ID, session.Status, domain.CheckoutStatusPaymentPending, "")
	if errors.Is(err, r.ErrStaleSession) {
		return ErrCheckoutInProgress
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	session.Status = domain.CheckoutStatusPaymentPending

	paymentCtx, cancel := context.WithTimeout(ctx, s.payment.timeout)
	defer cancel()
	payRequest := &payment.ChargeRequest{
		CheckoutID: session.ID,
		Amount:     domain.ToMinorUnits(session.TotalAmount),
		Currency:   strings.ToLower(session.Currency),
	}
	payResult, payErr := s.payment.processor.AuthorizeAndCapture(paymentCtx, payRequest)
	if payErr != nil {
		reason, failErr := convertError(payErr)
		s.fail(ctx, session, reason)
		return failErr
	}

	if payResult.Status != payment.ChargeStatusCompleted {
		reason := payResult.Reason()
		s.fail(ctx, session, reason)
		return fmt.Errorf("%w: %s", ErrPaymentNotCompleted, reason)
	}

	// The charge is captured. Recording it is retried like the commit: losing it would leave a
	// charge with no session pointing at it.
	dbErr := s.retry(ctx, session.ID, "record payment", func() error {
		err := s.repo.SetPayment(ctx, session.ID, payResult.TransactionID)
		if errors.Is(err, r.ErrStaleSession) {
			return permanent{err}
		}
		return err
	})
	if errors.Is(dbErr, r.ErrStaleSession) && s.paymentRecorded(ctx, session.ID, payResult.TransactionID) {
		dbErr = nil
	}
	if dbErr != nil {
		session.ChargeID = payResult.TransactionID
		s.refund(ctx, session, reasonPaymentNotRecorded, domain.CheckoutStatusPaymentPending, domain.CheckoutStatusFailed)
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, dbErr)
	}

	session.Status = domain.CheckoutStatusPaymentCompleted
	session.ChargeID = payResult.TransactionID
	s.log.InfoContext(ctx, "payment captured",
		"checkout_id", session.ID,
		"charge_id", session.ChargeID,
		"amount", payRequest.Amount)
	return nil
}

// convertError maps a processor call error to the failure reason stored on the session and the
// error returned to the caller. A timeout counts as a failed payment.
func convertError(err error) (string, error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return reasonPaymentTimeout, fmt.Errorf("%w: %s", ErrPaymentNotCompleted, reasonPaymentTimeout)
	default:
		return reasonPaymentUnavailable, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}

func failedSessionError(session *r.CheckoutSession) error {
	switch {
	case session.FailureReason == reasonPaymentUnavailable:
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, session.FailureReason)
	case strings.HasPrefix(session.FailureReason, reasonPaymentNotRecorded):
		return fmt.Errorf("%w: %s", ErrPersistenceFailure, session.FailureReason)
	}
	return fmt.Errorf("%w: %s", ErrPaymentNotCompleted, session.FailureReason)
}

func (s *CheckoutServiceImpl) fail(ctx context.Context, session *r.CheckoutSession, reason string) {
	err := s.repo.UpdateCheckoutSessionStatus(ctx, session.ID, session.Status, domain.CheckoutStatusFailed, reason)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to mark checkout session as failed",
			"checkout_id", session.ID, "reason", reason, "error", err)
		return
	}
	session.Status = domain.CheckoutStatusFailed
	session.FailureReason = reason
	s.log.InfoContext(ctx, "payment not completed", "checkout_id", session.ID, "reason", reason)
}

// paymentRecorded reports whether an earlier SetPayment attempt already stored chargeID.
func (s *CheckoutServiceImpl) paymentRecorded(ctx context.Context, checkoutID, chargeID string) bool {
	current, err := s.repo.GetCheckoutSession(ctx, checkoutID)
	if err != nil {
		return false
	}
	return current.Status == domain.CheckoutStatusPaymentCompleted && current.ChargeID == chargeID
}
