package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/payment"
	r "github.com/fjod/easycart/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	m       sync.Mutex
	charges []*payment.ChargeRequest
	refunds []*payment.RefundRequest

	status    payment.ChargeStatus
	reason    payment.RefusalReason
	chargeErr error
	refundErr error
	hang      bool
	onCharge  func()
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{status: payment.ChargeStatusCompleted}
}

func (p *mockProcessor) AuthorizeAndCapture(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResponse, error) {
	p.m.Lock()
	p.charges = append(p.charges, req)
	onCharge := p.onCharge
	p.m.Unlock()

	if p.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	if onCharge != nil {
		onCharge()
	}
	return &payment.ChargeResponse{
		Status:        p.status,
		TransactionID: "txn_" + req.CheckoutID,
		CheckoutID:    req.CheckoutID,
		KnownReason:   p.reason,
	}, nil
}

func (p *mockProcessor) Refund(_ context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	p.m.Lock()
	defer p.m.Unlock()
	p.refunds = append(p.refunds, req)
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &payment.RefundResponse{Status: payment.RefundStatusSucceeded, RefundID: "re_" + req.TransactionID}, nil
}

func (p *mockProcessor) chargeCount() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.charges)
}

func (p *mockProcessor) refundList() []*payment.RefundRequest {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]*payment.RefundRequest(nil), p.refunds...)
}

type mockCache struct {
	m       sync.Mutex
	deleted []string
}

func (c *mockCache) Get(context.Context, string) (*domain.Cart, error) { return nil, errors.New("miss") }

func (c *mockCache) Set(context.Context, string, *domain.Cart) error { return nil }

func (c *mockCache) Delete(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.deleted = append(c.deleted, userID)
	return nil
}

// flakyRepository fails the first failCommits CommitOrder calls.
type flakyRepository struct {
	*r.Repository
	m           sync.Mutex
	failCommits int
	commits     int
}

func (f *flakyRepository) CommitOrder(ctx context.Context, session *r.CheckoutSession, order *domain.Order) error {
	f.m.Lock()
	f.commits++
	fail := f.commits <= f.failCommits
	f.m.Unlock()
	if fail {
		return errors.New("connection reset by peer")
	}
	return f.Repository.CommitOrder(ctx, session, order)
}

type fixture struct {
	repo      *r.Repository
	processor *mockProcessor
	cache     *mockCache
	svc       *CheckoutServiceImpl
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	creds := &r.Credentials{Driver: r.DriverSQLite, SQLitePath: ":memory:"}
	repo, err := r.NewRepository(creds, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))
	t.Cleanup(func() { _ = repo.Close() })

	f := &fixture{repo: repo, processor: newMockProcessor(), cache: &mockCache{}}
	f.svc = f.newService(repo, 3)
	return f
}

func (f *fixture) newService(repo r.CheckoutRepository, attempts int) *CheckoutServiceImpl {
	return NewCheckoutService(
		repo,
		NewPaymentHandler(f.processor, 100*time.Millisecond),
		f.cache,
		Config{CommitAttempts: attempts, CommitBackoff: time.Millisecond},
		slog.New(slog.DiscardHandler),
	)
}

func (f *fixture) product(t *testing.T, price string, stock domain.Stock) *domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Product{
		ID:        uuid.NewString(),
		SellerID:  "seller-1",
		Name:      "Tee " + price,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) addToCart(t *testing.T, userID string, p *domain.Product, size domain.Size, qty int) {
	t.Helper()
	require.NoError(t, f.repo.UpsertCartItem(context.Background(), userID, &domain.CartItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Size:        size,
		Quantity:    qty,
		AddedAt:     time.Now().UTC(),
	}))
}

func (f *fixture) stock(t *testing.T, p *domain.Product) domain.Stock {
	t.Helper()
	got, err := f.repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func (f *fixture) cartLen(t *testing.T, userID string) int {
	t.Helper()
	cart, err := f.repo.GetCart(context.Background(), userID)
	require.NoError(t, err)
	return len(cart.Items)
}

func (f *fixture) orders(t *testing.T, userID string) []*domain.Order {
	t.Helper()
	orders, err := f.repo.ListOrdersByUserID(context.Background(), userID)
	require.NoError(t, err)
	return orders
}

func placeRequest(userID string) *domain.PlaceOrderRequest {
	return &domain.PlaceOrderRequest{UserID: userID, IdempotencyKey: uuid.NewString()}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "10.00", domain.Stock{Medium: 5})
	p2 := f.product(t, "25.00", domain.Stock{Large: 1})
	f.addToCart(t, "u1", p1, domain.SizeMedium, 2)
	f.addToCart(t, "u1", p2, domain.SizeLarge, 1)

	resp, err := f.svc.PlaceOrder(ctx, placeRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusCompleted, resp.Status)
	assert.True(t, decimal.RequireFromString("45.00").Equal(resp.TotalAmount))
	assert.Equal(t, domain.Currency, resp.Currency)
	assert.NotEmpty(t, resp.OrderID)

	assert.Equal(t, 3, f.stock(t, p1).Medium)
	assert.Equal(t, 0, f.stock(t, p2).Large)
	assert.Equal(t, 0, f.cartLen(t, "u1"))

	orders := f.orders(t, "u1")
	require.Len(t, orders, 1)
	assert.Equal(t, resp.OrderID, orders[0].ID)
	assert.Equal(t, resp.CheckoutID, orders[0].CheckoutID)
	assert.Len(t, orders[0].Items, 2)

	require.Equal(t, 1, f.processor.chargeCount())
	assert.Equal(t, int64(4500), f.processor.charges[0].Amount)
	assert.Equal(t, "usd", f.processor.charges[0].Currency)
	assert.Empty(t, f.processor.refundList())
	assert.Equal(t, []string{"u1"}, f.cache.deleted)

	events, err := f.repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeOrderPlaced, events[0].EventType)
	assert.Equal(t, resp.OrderID, events[0].AggregateID)
}

func TestPlaceOrder_StockGoneAfterPayment_RefundsCharge(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "10.00", domain.Stock{Medium: 5})
	p2 := f.product(t, "25.00", domain.Stock{Large: 1})
	f.addToCart(t, "u1", p1, domain.SizeMedium, 2)
	f.addToCart(t, "u1", p2, domain.SizeLarge, 1)

	// another buyer takes the last large while the charge is in flight
	f.processor.onCharge = func() {
		sold, err := f.repo.GetProduct(ctx, p2.ID)
		require.NoError(t, err)
		soldOut := domain.Stock{}
		require.NoError(t, f.repo.UpdateProduct(ctx, sold.ID, domain.ProductPatch{Stock: &soldOut}, sold.Stock, time.Now().UTC()))
	}

	request := placeRequest("u1")
	resp, err := f.svc.PlaceOrder(ctx, request)
	require.ErrorIs(t, err, ErrInventoryConflict)
	assert.Nil(t, resp)

	var stockErr *r.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p2.ID, stockErr.ProductID)

	refunds := f.processor.refundList()
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(4500), refunds[0].Amount)
	assert.Equal(t, "txn_"+refunds[0].CheckoutID, refunds[0].TransactionID)

	assert.Equal(t, 5, f.stock(t, p1).Medium)
	assert.Equal(t, 0, f.stock(t, p2).Large)
	assert.Equal(t, 2, f.cartLen(t, "u1"))
	assert.Empty(t, f.orders(t, "u1"))

	session, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusRefunded, session.Status)

	// replay reports the same outcome without charging again
	_, err = f.svc.PlaceOrder(ctx, request)
	require.ErrorIs(t, err, ErrInventoryConflict)
	assert.Equal(t, 1, f.processor.chargeCount())
}

func TestPlaceOrder_RefundFailureIsRecorded(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "10.00", domain.Stock{Small: 1})
	f.addToCart(t, "u1", p, domain.SizeSmall, 2)
	f.processor.refundErr = payment.ErrUnavailable

	request := placeRequest("u1")
	_, err := f.svc.PlaceOrder(ctx, request)
	require.ErrorIs(t, err, ErrInventoryConflict)

	session, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusRefundFailed, session.Status)
	assert.Equal(t, 1, f.stock(t, p).Small)
}

// unrecordedPaymentRepository cannot store a captured charge.
type unrecordedPaymentRepository struct {
	*r.Repository
}

func (u *unrecordedPaymentRepository) SetPayment(context.Context, string, string) error {
	return errors.New("connection reset by peer")
}

func TestPlaceOrder_PaymentNotRecorded(t *testing.T) {
	tests := []struct {
		name      string
		refundErr error
		want      domain.CheckoutStatus
	}{
		{name: "refunded", want: domain.CheckoutStatusFailed},
		{name: "refund failed", refundErr: payment.ErrUnavailable, want: domain.CheckoutStatusRefundFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			ctx := context.Background()
			p := f.product(t, "10.00", domain.Stock{Small: 3})
			f.addToCart(t, "u1", p, domain.SizeSmall, 2)
			f.processor.refundErr = tt.refundErr
			svc := f.newService(&unrecordedPaymentRepository{Repository: f.repo}, 2)

			request := placeRequest("u1")
			_, err := svc.PlaceOrder(ctx, request)
			require.ErrorIs(t, err, ErrPersistenceFailure)

			session, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
			require.NoError(t, err)
			assert.Equal(t, tt.want, session.Status)
			assert.Equal(t, reasonPaymentNotRecorded, session.FailureReason)
			require.Len(t, f.processor.refundList(), 1)
			assert.Equal(t, 3, f.stock(t, p).Small)
			assert.Equal(t, 1, f.cartLen(t, "u1"))

			_, err = svc.PlaceOrder(ctx, request)
			require.ErrorIs(t, err, ErrPersistenceFailure)
			assert.Equal(t, 1, f.processor.chargeCount())
		})
	}
}

func TestPlaceOrder_PaymentNotCompleted(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(p *mockProcessor)
		wantErr error
		reason  string
	}{
		{
			name: "declined",
			prepare: func(p *mockProcessor) {
				p.status = payment.ChargeStatusFailed
				p.reason = payment.RefusalCardDeclined
			},
			wantErr: ErrPaymentNotCompleted,
			reason:  "payment failed: card_declined",
		},
		{
			name:    "canceled",
			prepare: func(p *mockProcessor) { p.status = payment.ChargeStatusCanceled },
			wantErr: ErrPaymentNotCompleted,
			reason:  "payment canceled",
		},
		{
			name:    "timeout",
			prepare: func(p *mockProcessor) { p.hang = true },
			wantErr: ErrPaymentNotCompleted,
			reason:  reasonPaymentTimeout,
		},
		{
			name:    "unavailable",
			prepare: func(p *mockProcessor) { p.chargeErr = payment.ErrUnavailable },
			wantErr: ErrUpstreamUnavailable,
			reason:  reasonPaymentUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			ctx := context.Background()
			p := f.product(t, "10.00", domain.Stock{Medium: 5})
			f.addToCart(t, "u1", p, domain.SizeMedium, 2)
			tt.prepare(f.processor)

			request := placeRequest("u1")
			_, err := f.svc.PlaceOrder(ctx, request)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 5, f.stock(t, p).Medium)
			assert.Equal(t, 1, f.cartLen(t, "u1"))
			assert.Empty(t, f.orders(t, "u1"))
			assert.Empty(t, f.processor.refundList())

			session, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
			require.NoError(t, err)
			assert.Equal(t, domain.CheckoutStatusFailed, session.Status)
			assert.Equal(t, tt.reason, session.FailureReason)

			_, err = f.svc.PlaceOrder(ctx, request)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, f.processor.chargeCount())
		})
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, &domain.PlaceOrderRequest{IdempotencyKey: "k"})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = f.svc.PlaceOrder(ctx, &domain.PlaceOrderRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrMissingIdempotencyKey)

	request := placeRequest("u1")
	_, err = f.svc.PlaceOrder(ctx, request)
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.processor.chargeCount())

	_, err = f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	require.ErrorIs(t, err, r.ErrIdempotencyKeyNotFound)
}

func TestPlaceOrder_ReplayCompleted(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "19.99", domain.Stock{Large: 3})
	f.addToCart(t, "u1", p, domain.SizeLarge, 1)

	request := placeRequest("u1")
	first, err := f.svc.PlaceOrder(ctx, request)
	require.NoError(t, err)

	f.addToCart(t, "u1", p, domain.SizeLarge, 1)
	second, err := f.svc.PlaceOrder(ctx, request)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.CheckoutID, second.CheckoutID)
	assert.Equal(t, 1, f.processor.chargeCount())
	assert.Len(t, f.orders(t, "u1"), 1)
	assert.Equal(t, 2, f.stock(t, p).Large)
	assert.Equal(t, 1, f.cartLen(t, "u1"))
}

func TestPlaceOrder_KeyOfAnotherUser(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "5.00", domain.Stock{Small: 3})
	f.addToCart(t, "u1", p, domain.SizeSmall, 1)
	f.addToCart(t, "u2", p, domain.SizeSmall, 1)

	request := placeRequest("u1")
	_, err := f.svc.PlaceOrder(ctx, request)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, &domain.PlaceOrderRequest{UserID: "u2", IdempotencyKey: request.IdempotencyKey})
	require.ErrorIs(t, err, ErrIdempotencyKeyConflict)
	assert.Equal(t, 1, f.processor.chargeCount())
}

func TestPlaceOrder_InProgress(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "5.00", domain.Stock{Small: 3})
	f.addToCart(t, "u1", p, domain.SizeSmall, 1)

	session := f.session(t, "u1", domain.CheckoutStatusPaymentPending)

	_, err := f.svc.PlaceOrder(ctx, &domain.PlaceOrderRequest{UserID: "u1", IdempotencyKey: session.IdempotencyKey})
	require.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Zero(t, f.processor.chargeCount())
}

func TestPlaceOrder_RequestedLinesDoNotOverrideCart(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "10.00", domain.Stock{Medium: 5})
	f.addToCart(t, "u1", p, domain.SizeMedium, 2)

	request := placeRequest("u1")
	request.RequestedLines = []domain.RequestedLine{{ProductID: p.ID, Size: domain.SizeMedium, Quantity: 4}}
	resp, err := f.svc.PlaceOrder(ctx, request)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.00").Equal(resp.TotalAmount))
	assert.Equal(t, 3, f.stock(t, p).Medium)
}

func TestPlaceOrder_PersistenceFailureThenReplay(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "10.00", domain.Stock{Medium: 5})
	f.addToCart(t, "u1", p, domain.SizeMedium, 2)

	flaky := &flakyRepository{Repository: f.repo, failCommits: 2}
	svc := f.newService(flaky, 2)

	request := placeRequest("u1")
	_, err := svc.PlaceOrder(ctx, request)
	require.ErrorIs(t, err, ErrPersistenceFailure)

	session, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusPaymentCompleted, session.Status)
	assert.Equal(t, 5, f.stock(t, p).Medium)
	assert.Empty(t, f.orders(t, "u1"))
	assert.Empty(t, f.processor.refundList())

	resp, err := svc.PlaceOrder(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusCompleted, resp.Status)
	assert.Equal(t, 1, f.processor.chargeCount())
	assert.Len(t, f.orders(t, "u1"), 1)
	assert.Equal(t, 3, f.stock(t, p).Medium)
}

func TestPlaceOrder_CommitRetriedWithinRequest(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "10.00", domain.Stock{Medium: 5})
	f.addToCart(t, "u1", p, domain.SizeMedium, 1)

	flaky := &flakyRepository{Repository: f.repo, failCommits: 2}
	svc := f.newService(flaky, 3)

	_, err := svc.PlaceOrder(ctx, placeRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.commits)
	assert.Len(t, f.orders(t, "u1"), 1)
}

func TestPlaceOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "12.50", domain.Stock{Medium: 3})

	const buyers = 8
	for i := range buyers {
		f.addToCart(t, fmt.Sprintf("buyer-%d", i), p, domain.SizeMedium, 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(ctx, placeRequest(fmt.Sprintf("buyer-%d", i)))
		}(i)
	}
	wg.Wait()

	var placed, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, ErrInventoryConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, placed)
	assert.Equal(t, buyers-3, conflicts)
	assert.Equal(t, 0, f.stock(t, p).Medium)
	assert.Len(t, f.processor.refundList(), buyers-3)
}

func TestRecoverCheckout(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.product(t, "10.00", domain.Stock{Medium: 5})
	f.addToCart(t, "u1", p, domain.SizeMedium, 2)

	session := f.session(t, "u1", domain.CheckoutStatusPaymentCompleted)
	stale := *session
	require.NoError(t, f.svc.RecoverCheckout(ctx, session))

	stored, err := f.repo.GetCheckoutSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusCompleted, stored.Status)
	require.Len(t, f.orders(t, "u1"), 1)
	assert.Equal(t, stored.OrderID, f.orders(t, "u1")[0].ID)
	assert.Zero(t, f.processor.chargeCount())

	// a second recovery of the stale copy sees the finished session
	require.NoError(t, f.svc.RecoverCheckout(ctx, &stale))
	assert.Len(t, f.orders(t, "u1"), 1)
	assert.Equal(t, 3, f.stock(t, p).Medium)
}

func TestRecoverCheckout_RejectsUnpaidSession(t *testing.T) {
	f := setupFixture(t)
	p := f.product(t, "10.00", domain.Stock{Medium: 5})
	f.addToCart(t, "u1", p, domain.SizeMedium, 1)

	session := f.session(t, "u1", domain.CheckoutStatusPaymentPending)
	require.ErrorIs(t, f.svc.RecoverCheckout(context.Background(), session), IllegalTransitionError)
}

// session stores a checkout session for the user's cart and walks it to status.
func (f *fixture) session(t *testing.T, userID string, status domain.CheckoutStatus) *r.CheckoutSession {
	t.Helper()
	ctx := context.Background()
	cart, err := f.repo.GetCart(ctx, userID)
	require.NoError(t, err)
	snapshot := domain.NewCartSnapshot(cart, time.Now().UTC())

	now := time.Now().UTC()
	session := &r.CheckoutSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		IdempotencyKey: uuid.NewString(),
		CartSnapshot:   snapshot,
		Status:         domain.CheckoutStatusInitiated,
		TotalAmount:    snapshot.TotalAmount,
		Currency:       snapshot.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, f.repo.CreateCheckoutSession(ctx, session))
	if status == domain.CheckoutStatusInitiated {
		return session
	}
	require.NoError(t, f.repo.UpdateCheckoutSessionStatus(ctx, session.ID, domain.CheckoutStatusInitiated, domain.CheckoutStatusPaymentPending, ""))
	session.Status = domain.CheckoutStatusPaymentPending
	if status == domain.CheckoutStatusPaymentPending {
		return session
	}
	require.NoError(t, f.repo.SetPayment(ctx, session.ID, "txn_"+session.ID))
	session.Status = domain.CheckoutStatusPaymentCompleted
	session.ChargeID = "txn_" + session.ID
	return session
}
