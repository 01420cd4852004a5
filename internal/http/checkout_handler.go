package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/easycart/domain"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutService interface {
	PlaceOrder(ctx context.Context, request *domain.PlaceOrderRequest) (*domain.PlaceOrderResponse, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

// NewCheckoutHandler takes no timeout: once payment starts, PlaceOrder runs to completion
// regardless of the request context.
func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type PlaceOrderRequestDTO struct {
	IdempotencyKey string                 `json:"idempotency_key"`
	Lines          []domain.RequestedLine `json:"lines"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	// the body is optional; the key may come from the header alone
	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key",
			"Idempotency-Key header or idempotency_key is required")
		return
	}

	// the response is written after the commit or refund, however long those take
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.WarnContext(r.Context(), "failed to lift write deadline for checkout", "error", err)
	}

	resp, err := h.checkout.PlaceOrder(r.Context(), &domain.PlaceOrderRequest{
		UserID:         userID,
		IdempotencyKey: key,
		RequestedLines: req.Lines,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}
