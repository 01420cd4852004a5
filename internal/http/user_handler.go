package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/easycart/domain"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	SaveProfile(ctx context.Context, userID string, profile domain.User) (*domain.User, error)
}

type UserHandler struct {
	profiles ProfileService
	timeout  time.Duration
}

func NewUserHandler(profiles ProfileService, timeout time.Duration) *UserHandler {
	return &UserHandler{profiles: profiles, timeout: timeout}
}

// GET /api/v1/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	user, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PUT /api/v1/users/me
func (h *UserHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req domain.User
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profiles.SaveProfile(ctx, userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
