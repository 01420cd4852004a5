package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/easycart/domain"
)

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `INSERT INTO orders (id, checkout_id, user_id, total_amount, currency, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.ExecContext(ctx, query,
		order.ID,
		order.CheckoutID,
		order.UserID,
		order.TotalAmount,
		order.Currency,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCheckout
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, line_no, product_id, product_name, size, quantity, unit_price, image_url)
	              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, item := range order.Items {
		_, err := tx.ExecContext(ctx, itemQuery,
			order.ID,
			i,
			item.ProductID,
			item.ProductName,
			item.Size,
			item.Quantity,
			item.UnitPrice,
			item.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT id, checkout_id, user_id, total_amount, currency, created_at
	          FROM orders WHERE id = $1`

	o := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID,
		&o.CheckoutID,
		&o.UserID,
		&o.TotalAmount,
		&o.Currency,
		&o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.getOrderItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListOrdersByUserID returns the user's orders, newest first.
func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, checkout_id, user_id, total_amount, currency, created_at
	          FROM orders
	          WHERE user_id = $1
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]*domain.Order, 0)
	ids := make([]string, 0)
	for rows.Next() {
		o := &domain.Order{}
		if scanErr := rows.Scan(&o.ID, &o.CheckoutID, &o.UserID, &o.TotalAmount, &o.Currency, &o.CreatedAt); scanErr != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", scanErr)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	iterErr := rows.Err()
	rows.Close()
	if iterErr != nil {
		return nil, fmt.Errorf("row iteration error: %w", iterErr)
	}

	items, err := r.getOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

func (r *Repository) getOrderItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	result := make(map[string][]domain.OrderItem, len(orderIDs))
	query := `SELECT product_id, product_name, size, quantity, unit_price, image_url
	          FROM order_items WHERE order_id = $1 ORDER BY line_no`

	for _, id := range orderIDs {
		rows, err := r.db.QueryContext(ctx, query, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query order items: %w", err)
		}
		items := make([]domain.OrderItem, 0)
		for rows.Next() {
			var item domain.OrderItem
			if scanErr := rows.Scan(&item.ProductID, &item.ProductName, &item.Size, &item.Quantity, &item.UnitPrice, &item.ImageURL); scanErr != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan order item: %w", scanErr)
			}
			items = append(items, item)
		}
		iterErr := rows.Err()
		rows.Close()
		if iterErr != nil {
			return nil, fmt.Errorf("row iteration error: %w", iterErr)
		}
		result[id] = items
	}
	return result, nil
}
