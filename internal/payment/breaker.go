package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe call is let through.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// BreakerProcessor stops calling an unhealthy processor.
// Declined charges are successful calls; only transport errors count as failures.
type BreakerProcessor struct {
	next Processor
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerProcessor(next Processor, settings BreakerSettings, log *slog.Logger) *BreakerProcessor {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerProcessor{next: next, cb: cb}
}

func (b *BreakerProcessor) AuthorizeAndCapture(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.AuthorizeAndCapture(ctx, req)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*ChargeResponse), nil
}

func (b *BreakerProcessor) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Refund(ctx, req)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*RefundResponse), nil
}

func (b *BreakerProcessor) State() gobreaker.State {
	return b.cb.State()
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
