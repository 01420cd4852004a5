package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/easycart/domain"
)

const productColumns = `id, seller_id, name, price, image_url, stock_small, stock_medium, stock_large, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Price,
		&p.ImageURL,
		&p.Stock.Small,
		&p.Stock.Medium,
		&p.Stock.Large,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan product: %w", scanErr)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.SellerID,
		p.Name,
		p.Price,
		p.ImageURL,
		p.Stock.Small,
		p.Stock.Medium,
		p.Stock.Large,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct writes only the fields set in patch. Stock counters are compared against
// expected in the same statement, so a decrement committed since the caller read the product
// turns the write into ErrStockChanged instead of restoring sold units.
func (r *Repository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch, expected domain.Stock, now time.Time) error {
	var (
		set   []string
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Name != nil {
		set = append(set, "name = "+arg(*patch.Name))
	}
	if patch.Price != nil {
		set = append(set, "price = "+arg(*patch.Price))
	}
	if patch.ImageURL != nil {
		set = append(set, "image_url = "+arg(*patch.ImageURL))
	}
	if patch.Stock != nil {
		set = append(set,
			"stock_small = "+arg(patch.Stock.Small),
			"stock_medium = "+arg(patch.Stock.Medium),
			"stock_large = "+arg(patch.Stock.Large),
		)
		where = append(where,
			"stock_small = "+arg(expected.Small),
			"stock_medium = "+arg(expected.Medium),
			"stock_large = "+arg(expected.Large),
		)
	}
	set = append(set, "updated_at = "+arg(now))
	where = append([]string{"id = " + arg(id)}, where...)

	query := `UPDATE products SET ` + strings.Join(set, ", ") + ` WHERE ` + strings.Join(where, " AND ")
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}
	if patch.Stock == nil {
		return ErrProductNotFound
	}

	var exists int
	existsErr := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = $1`, id).Scan(&exists)
	if errors.Is(existsErr, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if existsErr != nil {
		return fmt.Errorf("failed to check product: %w", existsErr)
	}
	return ErrStockChanged
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOneRow(result, ErrProductNotFound)
}

func stockColumn(size domain.Size) (string, error) {
	switch size {
	case domain.SizeSmall:
		return "stock_small", nil
	case domain.SizeMedium:
		return "stock_medium", nil
	case domain.SizeLarge:
		return "stock_large", nil
	default:
		return "", domain.ErrUnknownSize
	}
}

// DecrementStock lowers one size counter by quantity inside tx.
// The WHERE clause makes the check and the write a single statement, so the row lock taken by
// UPDATE serializes concurrent decrements and the counter can never go below zero.
func (r *Repository) DecrementStock(ctx context.Context, tx *sql.Tx, productID string, size domain.Size, quantity int, now time.Time) error {
	column, err := stockColumn(size)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE products SET %[1]s = %[1]s - $1, updated_at = $2 WHERE id = $3 AND %[1]s >= $4`,
		column)
	result, err := tx.ExecContext(ctx, query, quantity, now, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	existsErr := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = $1`, productID).Scan(&exists)
	if errors.Is(existsErr, sql.ErrNoRows) {
		return &StockError{ProductID: productID, Size: size, Err: ErrProductNotFound}
	}
	if existsErr != nil {
		return fmt.Errorf("failed to check product: %w", existsErr)
	}
	return &StockError{ProductID: productID, Size: size, Err: ErrInsufficientStock}
}

func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, email, is_seller, phone_number, address, city, postal_code
	          FROM users WHERE id = $1`

	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.IsSeller,
		&u.PhoneNumber,
		&u.Address,
		&u.City,
		&u.PostalCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// SaveUser inserts the user or overwrites the stored profile.
func (r *Repository) SaveUser(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, is_seller, phone_number, address, city, postal_code)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (id) DO UPDATE SET
	              name = excluded.name,
	              email = excluded.email,
	              is_seller = excluded.is_seller,
	              phone_number = excluded.phone_number,
	              address = excluded.address,
	              city = excluded.city,
	              postal_code = excluded.postal_code`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.IsSeller,
		u.PhoneNumber,
		u.Address,
		u.City,
		u.PostalCode,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
