package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/cache"
	"github.com/fjod/easycart/internal/repository"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = repository.ErrItemNotFound
	ErrProductNotFound = repository.ErrProductNotFound
)

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *slog.Logger
	sfg   singleflight.Group // Prevents cache stampede
	now   func() time.Time
}

func NewCartService(repo repository.CartRepository, cartCache cache.CartCache, log *slog.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.NopCache{}
	}
	return &CartService{
		repo:  repo,
		cache: cartCache,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "user_id", userID, "error", err) // continue with the database
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			s.log.WarnContext(ctx, "cache set error", "user_id", userID, "error", errSet)
		}
		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem snapshots the product's current name and price into a new line, or adds quantity to
// the existing (product, size) line.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, size domain.Size, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !size.Valid() {
		return domain.ErrUnknownSize
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product %s: %w", productID, err)
	}

	errAdd := s.repo.UpsertCartItem(ctx, userID, &domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Size:        size,
		Quantity:    quantity,
		ImageURL:    product.ImageURL,
		AddedAt:     s.now(),
	})
	if errAdd != nil {
		s.log.ErrorContext(ctx, "repo add item error", "user_id", userID, "error", errAdd)
		return errAdd
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, size domain.Size, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	errUpdate := s.repo.UpdateCartItemQuantity(ctx, userID, productID, size, quantity)
	if errUpdate != nil {
		return errUpdate
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string, size domain.Size) error {
	errRemove := s.repo.RemoveCartItem(ctx, userID, productID, size)
	if errRemove != nil {
		return errRemove
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil {
		s.log.ErrorContext(ctx, "repo delete cart error", "user_id", userID, "error", errDelete)
		return errDelete
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if errInvalidate := s.cache.Delete(ctx, userID); errInvalidate != nil {
		s.log.WarnContext(ctx, "cache invalidate error", "user_id", userID, "error", errInvalidate)
	}
}
