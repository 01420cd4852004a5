package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/cart"
	"github.com/fjod/easycart/internal/catalog"
	"github.com/fjod/easycart/internal/history"
	"github.com/fjod/easycart/internal/repository"
	"github.com/fjod/easycart/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{service.ErrNotAuthenticated, http.StatusUnauthorized, "unauthorized", "missing user authentication"},
	{service.ErrMissingIdempotencyKey, http.StatusBadRequest, "missing_idempotency_key", "idempotency key is required"},
	{service.ErrIdempotencyKeyConflict, http.StatusConflict, "idempotency_key_conflict", "idempotency key was used by another user"},
	{service.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart", "cart is empty"},
	{service.ErrPaymentNotCompleted, http.StatusPaymentRequired, "payment_not_completed", "payment was not completed"},
	{service.ErrInventoryConflict, http.StatusConflict, "inventory_conflict", "an item sold out during checkout, the charge was refunded"},
	{service.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress", "checkout with this idempotency key is in progress"},
	{service.ErrPersistenceFailure, http.StatusServiceUnavailable, "persistence_failure", "order could not be saved, retry with the same idempotency key"},
	{service.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "service_unavailable", "a dependency is unavailable"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", "quantity must be positive"},
	{catalog.ErrInvalidProduct, http.StatusBadRequest, "invalid_product", "invalid product"},
	{domain.ErrUnknownSize, http.StatusBadRequest, "invalid_size", "size must be small, medium or large"},
	{catalog.ErrNotSeller, http.StatusForbidden, "not_seller", "only sellers can manage products"},
	{catalog.ErrStockChanged, http.StatusConflict, "stock_changed", "stock changed since the product was read, reload and retry"},
	{catalog.ErrNotOwner, http.StatusForbidden, "not_owner", "product belongs to another seller"},
	{repository.ErrProductNotFound, http.StatusNotFound, "product_not_found", "product not found"},
	{repository.ErrItemNotFound, http.StatusNotFound, "item_not_found", "item not found in cart"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
	{history.ErrOrderNotFound, http.StatusNotFound, "order_not_found", "order not found"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", "request timed out"},
}

// handleServiceError maps a service error onto an HTTP status and error code.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp := ErrorResponse{Error: m.message, Code: m.code}
			if m.status >= http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "request failed",
					"path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
			} else {
				resp.Details = err.Error()
			}
			respondJSON(w, m.status, resp)
			return
		}
	}

	slog.ErrorContext(r.Context(), "unexpected error",
		"path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// decodeJSON writes 400 and returns false when the body is not valid JSON for v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
