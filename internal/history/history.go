package history

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/fjod/easycart/domain"
	r "github.com/fjod/easycart/internal/repository"
)

type Store interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

// OrderHistory serves a user's orders from the projection when one is configured and from the
// order store otherwise. The order store also answers whatever the projection cannot.
type OrderHistory struct {
	projection Store
	orders     r.OrderRepository
	log        *slog.Logger
}

// NewOrderHistory accepts a nil projection.
func NewOrderHistory(projection Store, orders r.OrderRepository, log *slog.Logger) *OrderHistory {
	return &OrderHistory{projection: projection, orders: orders, log: log}
}

// ListOrders merges the projection with the order store, so orders the consumer has not
// projected yet are still listed. Newest first.
func (h *OrderHistory) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	stored, err := h.orders.ListOrdersByUserID(ctx, userID)
	if h.projection == nil {
		return stored, err
	}

	projected, projErr := h.projection.ListOrdersByUserID(ctx, userID)
	switch {
	case projErr != nil && err != nil:
		return nil, err
	case projErr != nil:
		h.log.WarnContext(ctx, "order history projection unavailable, reading order store",
			"user_id", userID, "error", projErr)
		return stored, nil
	case err != nil:
		h.log.WarnContext(ctx, "order store unavailable, serving projection only",
			"user_id", userID, "error", err)
		return projected, nil
	}
	return merge(projected, stored), nil
}

func merge(projected, stored []*domain.Order) []*domain.Order {
	seen := make(map[string]bool, len(projected))
	orders := make([]*domain.Order, 0, len(stored)+len(projected))
	for _, o := range projected {
		seen[o.ID] = true
		orders = append(orders, o)
	}
	for _, o := range stored {
		if !seen[o.ID] {
			orders = append(orders, o)
		}
	}
	slices.SortStableFunc(orders, func(a, b *domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders
}

// GetOrder returns ErrOrderNotFound for another user's order.
func (h *OrderHistory) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := h.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (h *OrderHistory) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if h.projection != nil {
		order, err := h.projection.GetOrder(ctx, orderID)
		if err == nil {
			return order, nil
		}
		// a fresh order may not be projected yet
		if !errors.Is(err, ErrOrderNotFound) {
			h.log.WarnContext(ctx, "order history projection unavailable, reading order store",
				"order_id", orderID, "error", err)
		}
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, r.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}
