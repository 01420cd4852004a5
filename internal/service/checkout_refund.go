package service

import (
	"context"
	"strings"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/payment"
	r "github.com/fjod/easycart/internal/repository"
)

// refund returns the captured charge and moves the session from status from to status to.
// An unconfirmed refund lands in REFUND_FAILED instead, keeping the reason.
func (s *CheckoutServiceImpl) refund(ctx context.Context, session *r.CheckoutSession, reason string, from, to domain.CheckoutStatus) {
	refundRequest := &payment.RefundRequest{
		TransactionID: session.ChargeID,
		CheckoutID:    session.ID,
		Amount:        domain.ToMinorUnits(session.TotalAmount),
		Currency:      strings.ToLower(session.Currency),
	}

	refundCtx, cancel := context.WithTimeout(ctx, s.payment.timeout)
	defer cancel()
	result, err := s.payment.processor.Refund(refundCtx, refundRequest)

	failed := err != nil || result.Status != payment.RefundStatusSucceeded
	switch {
	case err != nil:
		s.log.ErrorContext(ctx, "refund failed, manual reconciliation required",
			"checkout_id", session.ID, "charge_id", session.ChargeID, "amount", refundRequest.Amount, "error", err)
	case failed:
		s.log.ErrorContext(ctx, "refund refused, manual reconciliation required",
			"checkout_id", session.ID, "charge_id", session.ChargeID, "amount", refundRequest.Amount, "reason", result.Reason)
	default:
		s.log.InfoContext(ctx, "charge refunded",
			"checkout_id", session.ID, "charge_id", session.ChargeID, "refund_id", result.RefundID, "reason", reason)
	}

	if failed {
		to = domain.CheckoutStatusRefundFailed
	}

	if dbErr := s.repo.UpdateCheckoutSessionStatus(ctx, session.ID, from, to, reason); dbErr != nil {
		s.log.ErrorContext(ctx, "failed to record refund on checkout session",
			"checkout_id", session.ID, "status", to, "error", dbErr)
		return
	}
	session.Status = to
	session.FailureReason = reason
}
