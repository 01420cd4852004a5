package payment

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type GetResponseStatus interface {
	GetStatus() (ChargeStatus, RefusalReason, string)
}

// RandomStatus completes 95% of charges and refuses the rest.
type RandomStatus struct{}

func (r RandomStatus) GetStatus() (ChargeStatus, RefusalReason, string) {
	randomInt := rand.IntN(101) // 101 because IntN is exclusive of the upper bound
	return calcStatus(randomInt)
}

func calcStatus(randomInt int) (ChargeStatus, RefusalReason, string) {
	if randomInt < 95 {
		return ChargeStatusCompleted, RefusalUnknown, ""
	}
	otherReason := randomInt - 95
	if otherReason == 0 || otherReason > len(knownRefusals) {
		return ChargeStatusFailed, RefusalUnknown, "unknown reason"
	}

	return ChargeStatusFailed, knownRefusals[otherReason-1], ""
}

type capture struct {
	checkoutID string
	amount     int64
	refundID   string
}

// Simulator is an in-memory payment processor used for local runs and tests.
// It serves the gRPC payment service and can also be used in-process as a Processor.
type Simulator struct {
	status GetResponseStatus
	log    *slog.Logger

	mu       sync.Mutex
	captures map[string]*capture
}

func NewSimulator(s GetResponseStatus, log *slog.Logger) *Simulator {
	return &Simulator{
		status:   s,
		log:      log,
		captures: make(map[string]*capture),
	}
}

func (s *Simulator) Charge(ctx context.Context, r *ChargeRequest) (*ChargeResponse, error) {
	if r.Amount <= 0 {
		return nil, status.Error(codes.InvalidArgument, "amount must be positive")
	}

	charge, refusalKnown, refusalOther := s.status.GetStatus()
	tsID := "txn_" + uuid.NewString()

	if charge == ChargeStatusCompleted {
		s.mu.Lock()
		s.captures[tsID] = &capture{checkoutID: r.CheckoutID, amount: r.Amount}
		s.mu.Unlock()
	}
	s.log.InfoContext(ctx, "charge processed",
		"checkout_id", r.CheckoutID, "transaction_id", tsID, "status", charge, "amount", r.Amount)

	return &ChargeResponse{
		Status:        charge,
		TransactionID: tsID,
		CheckoutID:    r.CheckoutID,
		KnownReason:   refusalKnown,
		OtherReason:   refusalOther,
	}, nil
}

// Refund returns the whole captured amount. Repeating a refund returns the first refund id.
func (s *Simulator) Refund(ctx context.Context, r *RefundRequest) (*RefundResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.captures[r.TransactionID]
	if !ok {
		return &RefundResponse{Status: RefundStatusFailed, Reason: "unknown transaction"}, nil
	}
	if r.Amount != c.amount {
		return &RefundResponse{Status: RefundStatusFailed, Reason: "refund amount does not match capture"}, nil
	}
	if c.refundID == "" {
		c.refundID = "re_" + uuid.NewString()
		s.log.InfoContext(ctx, "charge refunded", "checkout_id", c.checkoutID, "transaction_id", r.TransactionID)
	}
	return &RefundResponse{Status: RefundStatusSucceeded, RefundID: c.refundID}, nil
}

func (s *Simulator) AuthorizeAndCapture(ctx context.Context, r *ChargeRequest) (*ChargeResponse, error) {
	return s.Charge(ctx, r)
}
