package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotSeller       = errors.New("user is not a seller")
	ErrNotOwner        = errors.New("product belongs to another seller")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrProductNotFound = repository.ErrProductNotFound
	ErrStockChanged    = repository.ErrStockChanged
)

type CatalogService struct {
	repo repository.CatalogRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewCatalogService(repo repository.CatalogRepository, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type NewProduct struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
	Stock    domain.Stock    `json:"stock"`
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID string, in NewProduct) (*domain.Product, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		ImageURL:  in.ImageURL,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(product); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "product created", "product_id", product.ID, "seller_id", sellerID)
	return product, nil
}

// UpdateProduct applies a partial edit. Only the patched columns are written; a stock edit fails
// with ErrStockChanged when an order has taken units since the product was read.
func (s *CatalogService) UpdateProduct(ctx context.Context, sellerID, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	existing, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	updated := patch.Apply(*existing)
	if err := validate(&updated); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, productID, patch, existing.Stock, s.now()); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, productID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sellerID, productID string) error {
	if _, err := s.ownedProduct(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "product deleted", "product_id", productID, "seller_id", sellerID)
	return nil
}

func (s *CatalogService) ownedProduct(ctx context.Context, sellerID, productID string) (*domain.Product, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	return product, nil
}

func (s *CatalogService) requireSeller(ctx context.Context, userID string) error {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrNotSeller
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsSeller {
		return ErrNotSeller
	}
	return nil
}

func validate(p *domain.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case !p.Stock.Valid():
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}

func (s *CatalogService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// SaveProfile stores the caller's profile; the id always comes from the authenticated caller.
func (s *CatalogService) SaveProfile(ctx context.Context, userID string, profile domain.User) (*domain.User, error) {
	profile.ID = userID
	profile.Name = strings.TrimSpace(profile.Name)
	if err := s.repo.SaveUser(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
