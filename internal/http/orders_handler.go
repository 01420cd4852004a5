package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/go-chi/chi/v5"
)

type OrderHistory interface {
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	history OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(history OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		history: history,
		timeout: timeout,
	}
}

type OrderListResponse struct {
	Orders []*domain.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	orders, err := h.history.ListOrders(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, OrderListResponse{Orders: orders})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	order, err := h.history.GetOrder(ctx, userID, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
