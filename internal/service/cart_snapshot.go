package service

import (
	"context"
	"fmt"

	"github.com/fjod/easycart/domain"
)

func (s *CheckoutServiceImpl) getCart(ctx context.Context, request *domain.PlaceOrderRequest) (*domain.CartSnapshot, error) {
	cart, err := s.repo.GetCart(ctx, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get cart: %w", ErrUpstreamUnavailable, err)
	}

	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if len(request.RequestedLines) > 0 && !sameLines(cart, request.RequestedLines) {
		s.log.WarnContext(ctx, "requested lines differ from stored cart, using stored cart",
			"user_id", request.UserID,
			"requested_lines", len(request.RequestedLines),
			"cart_lines", len(cart.Items))
	}

	return domain.NewCartSnapshot(cart, s.now()), nil
}

// sameLines reports whether the requested lines carry the same quantity per (product, size) as the cart.
func sameLines(cart *domain.Cart, lines []domain.RequestedLine) bool {
	want := make(map[string]int, len(cart.Items))
	for _, item := range cart.Items {
		want[item.Key()] += item.Quantity
	}

	got := make(map[string]int, len(lines))
	for _, line := range lines {
		got[domain.CartItem{ProductID: line.ProductID, Size: line.Size}.Key()] += line.Quantity
	}

	if len(want) != len(got) {
		return false
	}
	for key, qty := range want {
		if got[key] != qty {
			return false
		}
	}
	return true
}
