package repository

import (
	"context"
	"time"

	"github.com/fjod/easycart/domain"
)

type CheckoutRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error
	UpdateCheckoutSessionStatus(ctx context.Context, id string, from, to domain.CheckoutStatus, reason string) error
	SetPayment(ctx context.Context, id string, chargeID string) error
	CommitOrder(ctx context.Context, session *CheckoutSession, order *domain.Order) error
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	GetStuckSessions(ctx context.Context, updatedBefore time.Time, limit int) ([]*CheckoutSession, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCartItem(ctx context.Context, userID string, item *domain.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, userID, productID string, size domain.Size, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID string, size domain.Size) error
	DeleteCart(ctx context.Context, userID string) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch, expected domain.Stock, now time.Time) error
	DeleteProduct(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
}

type OrderRepository interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

var (
	_ CheckoutRepository = (*Repository)(nil)
	_ OutboxRepository   = (*Repository)(nil)
	_ CartRepository     = (*Repository)(nil)
	_ CatalogRepository  = (*Repository)(nil)
	_ OrderRepository    = (*Repository)(nil)
)
