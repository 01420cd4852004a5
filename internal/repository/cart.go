package repository

import (
	"context"
	"fmt"

	"github.com/fjod/easycart/domain"
)

// GetCart returns the user's lines in insertion order; a user without lines gets an empty cart.
func (r *Repository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	query := `SELECT product_id, product_name, unit_price, size, quantity, image_url, added_at
	          FROM cart_items
	          WHERE user_id = $1
	          ORDER BY added_at, product_id, size`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{UserID: userID, Items: make([]domain.CartItem, 0)}
	for rows.Next() {
		var item domain.CartItem
		if scanErr := rows.Scan(
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&item.Size,
			&item.Quantity,
			&item.ImageURL,
			&item.AddedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", scanErr)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cart, nil
}

// UpsertCartItem adds the line or, if (product, size) is already in the cart, sums the quantities.
// The stored name and price snapshot of an existing line are kept.
func (r *Repository) UpsertCartItem(ctx context.Context, userID string, item *domain.CartItem) error {
	query := `INSERT INTO cart_items (user_id, product_id, size, product_name, unit_price, quantity, image_url, added_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (user_id, product_id, size)
	          DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		item.ProductID,
		item.Size,
		item.ProductName,
		item.UnitPrice,
		item.Quantity,
		item.ImageURL,
		item.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCartItemQuantity(ctx context.Context, userID, productID string, size domain.Size, quantity int) error {
	query := `UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND product_id = $3 AND size = $4`

	result, err := r.db.ExecContext(ctx, query, quantity, userID, productID, size)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return expectOneRow(result, ErrItemNotFound)
}

func (r *Repository) RemoveCartItem(ctx context.Context, userID, productID string, size domain.Size) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2 AND size = $3`

	result, err := r.db.ExecContext(ctx, query, userID, productID, size)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return expectOneRow(result, ErrItemNotFound)
}

func (r *Repository) DeleteCart(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
