package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxLineQuantity = 99

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, size domain.Size, quantity int) error
	SetQuantity(ctx context.Context, userID, productID string, size domain.Size, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string, size domain.Size) error
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	UserID      string            `json:"user_id"`
	Items       []domain.CartItem `json:"items"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    string            `json:"currency"`
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	size, ok := parseSize(w, req.Size)
	if !ok {
		return
	}
	if !validQuantity(w, req.Quantity) {
		return
	}

	if err := h.cart.AddItem(ctx, userID, req.ProductID, size, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, userID, http.StatusCreated)
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	h.respondCart(ctx, w, r, userID, http.StatusOK)
}

// PUT /api/v1/cart/items/{product_id}/{size}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	size, ok := parseSize(w, chi.URLParam(r, "size"))
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validQuantity(w, req.Quantity) {
		return
	}

	if err := h.cart.SetQuantity(ctx, userID, chi.URLParam(r, "product_id"), size, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, userID, http.StatusOK)
}

// DELETE /api/v1/cart/items/{product_id}/{size}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	size, ok := parseSize(w, chi.URLParam(r, "size"))
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(ctx, userID, chi.URLParam(r, "product_id"), size); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, userID, http.StatusOK)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if err := h.cart.ClearCart(ctx, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, userID, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string, status int) {
	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	respondJSON(w, status, CartResponseDTO{
		UserID:      userID,
		Items:       items,
		TotalAmount: c.Total(),
		Currency:    domain.Currency,
	})
}

func parseSize(w http.ResponseWriter, raw string) (domain.Size, bool) {
	size, err := domain.ParseSize(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_size", "size must be small, medium or large")
		return "", false
	}
	return size, true
}

func validQuantity(w http.ResponseWriter, quantity int) bool {
	if quantity <= 0 || quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return false
	}
	return true
}
