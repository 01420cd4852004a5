package payment

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable means the processor could not be reached or the circuit breaker is open.
var ErrUnavailable = errors.New("payment processor unavailable")

type ChargeStatus string

const (
	ChargeStatusCompleted ChargeStatus = "completed"
	ChargeStatusCanceled  ChargeStatus = "canceled"
	ChargeStatusFailed    ChargeStatus = "failed"
)

type RefusalReason string

const (
	RefusalUnknown        RefusalReason = ""
	RefusalNoFunds        RefusalReason = "no_funds"
	RefusalCardDeclined   RefusalReason = "card_declined"
	RefusalCardExpired    RefusalReason = "card_expired"
	RefusalFraudSuspected RefusalReason = "fraud_suspected"
	RefusalLimitExceeded  RefusalReason = "limit_exceeded"
)

var knownRefusals = []RefusalReason{
	RefusalNoFunds,
	RefusalCardDeclined,
	RefusalCardExpired,
	RefusalFraudSuspected,
	RefusalLimitExceeded,
}

// ChargeRequest amounts are in minor units (cents).
type ChargeRequest struct {
	CheckoutID string `json:"checkout_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

type ChargeResponse struct {
	Status        ChargeStatus  `json:"status"`
	TransactionID string        `json:"transaction_id"`
	CheckoutID    string        `json:"checkout_id"`
	KnownReason   RefusalReason `json:"known_reason,omitempty"`
	OtherReason   string        `json:"other_reason,omitempty"`
}

// Reason describes why a charge did not complete.
func (r *ChargeResponse) Reason() string {
	if r.OtherReason != "" {
		return fmt.Sprintf("payment %s: %v", r.Status, r.OtherReason)
	}
	if r.KnownReason != RefusalUnknown {
		return fmt.Sprintf("payment %s: %v", r.Status, r.KnownReason)
	}
	return fmt.Sprintf("payment %s", r.Status)
}

type RefundStatus string

const (
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

type RefundRequest struct {
	TransactionID string `json:"transaction_id"`
	CheckoutID    string `json:"checkout_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type RefundResponse struct {
	Status   RefundStatus `json:"status"`
	RefundID string       `json:"refund_id,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// Processor is the payment processor boundary used by order placement.
type Processor interface {
	AuthorizeAndCapture(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}
