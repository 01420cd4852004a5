package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/cache"
	r "github.com/fjod/easycart/internal/repository"
	"github.com/google/uuid"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, request *domain.PlaceOrderRequest) (*domain.PlaceOrderResponse, error)
	RecoverCheckout(ctx context.Context, session *r.CheckoutSession) error
}

type Config struct {
	// CommitAttempts bounds how often the post-payment batch is tried before ErrPersistenceFailure.
	CommitAttempts int
	// CommitBackoff is the base delay between commit attempts; it doubles per attempt with jitter.
	CommitBackoff time.Duration
}

type CheckoutServiceImpl struct {
	repo    r.CheckoutRepository
	payment *PaymentHandler
	cache   cache.CartCache
	log     *slog.Logger

	commitAttempts int
	commitBackoff  time.Duration

	now   func() time.Time
	newID func() string
}

func NewCheckoutService(repo r.CheckoutRepository, payment *PaymentHandler, cartCache cache.CartCache, cfg Config, log *slog.Logger) *CheckoutServiceImpl {
	if cartCache == nil {
		cartCache = cache.NopCache{}
	}
	if cfg.CommitAttempts < 1 {
		cfg.CommitAttempts = 1
	}
	if cfg.CommitBackoff <= 0 {
		cfg.CommitBackoff = 50 * time.Millisecond
	}
	return &CheckoutServiceImpl{
		repo:           repo,
		payment:        payment,
		cache:          cartCache,
		log:            log,
		commitAttempts: cfg.CommitAttempts,
		commitBackoff:  cfg.CommitBackoff,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}
