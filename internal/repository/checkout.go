package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/easycart/domain"
)

const sessionColumns = `id, user_id, idempotency_key, cart_snapshot, total_amount, currency, status,
	charge_id, order_id, failure_reason, created_at, updated_at`

func scanSession(row rowScanner) (*CheckoutSession, error) {
	var (
		s        CheckoutSession
		snapshot []byte
		chargeID sql.NullString
		orderID  sql.NullString
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.IdempotencyKey,
		&snapshot,
		&s.TotalAmount,
		&s.Currency,
		&s.Status,
		&chargeID,
		&orderID,
		&s.FailureReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CartSnapshot = &domain.CartSnapshot{}
	if err := json.Unmarshal(snapshot, s.CartSnapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}
	s.ChargeID = chargeID.String
	s.OrderID = orderID.String
	return &s, nil
}

func (r *Repository) GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE idempotency_key = $1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return s, nil
}

func (r *Repository) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return s, nil
}

func (r *Repository) CreateCheckoutSession(ctx context.Context, s *CheckoutSession) error {
	snapshot, err := json.Marshal(s.CartSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	query := `INSERT INTO checkout_sessions (id, user_id, idempotency_key, cart_snapshot, total_amount, currency, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.IdempotencyKey,
		string(snapshot),
		s.TotalAmount,
		s.Currency,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to insert checkout session: %w", err)
	}
	return nil
}

// UpdateCheckoutSessionStatus moves the session from one status to another.
// It returns ErrStaleSession when the session is no longer in status from.
func (r *Repository) UpdateCheckoutSessionStatus(ctx context.Context, id string, from, to domain.CheckoutStatus, reason string) error {
	query := `UPDATE checkout_sessions SET status = $1, failure_reason = $2, updated_at = $3
	          WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query, to, reason, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update checkout session status: %w", err)
	}
	return expectOneRow(result, ErrStaleSession)
}

// SetPayment records a captured charge and moves the session to PAYMENT_COMPLETED.
func (r *Repository) SetPayment(ctx context.Context, id string, chargeID string) error {
	query := `UPDATE checkout_sessions SET status = $1, charge_id = $2, updated_at = $3
	          WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query,
		domain.CheckoutStatusPaymentCompleted,
		chargeID,
		time.Now().UTC(),
		id,
		domain.CheckoutStatusPaymentPending,
	)
	if err != nil {
		return fmt.Errorf("failed to set payment: %w", err)
	}
	return expectOneRow(result, ErrStaleSession)
}

// CommitOrder applies the whole post-payment batch in one transaction:
// every stock decrement, the order with its lines, the cart clear, the OrderPlaced outbox event
// and the session's move to COMPLETED. Any failure leaves all of them untouched.
func (r *Repository) CommitOrder(ctx context.Context, session *CheckoutSession, order *domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range order.Items {
			if err := r.DecrementStock(ctx, tx, item.ProductID, item.Size, item.Quantity, order.CreatedAt); err != nil {
				return err
			}
		}

		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		outboxQuery := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, outboxQuery, order.ID, domain.EventTypeOrderPlaced, string(payload), order.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}

		completeQuery := `UPDATE checkout_sessions SET status = $1, order_id = $2, updated_at = $3
		                  WHERE id = $4 AND status = $5`
		result, err := tx.ExecContext(ctx, completeQuery,
			domain.CheckoutStatusCompleted,
			order.ID,
			order.CreatedAt,
			session.ID,
			domain.CheckoutStatusPaymentCompleted,
		)
		if err != nil {
			return fmt.Errorf("failed to complete checkout session: %w", err)
		}
		return expectOneRow(result, ErrStaleSession)
	})
}

// GetStuckSessions returns paid sessions whose commit has not finished since updatedBefore.
func (r *Repository) GetStuckSessions(ctx context.Context, updatedBefore time.Time, limit int) ([]*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + `
	          FROM checkout_sessions
	          WHERE status = $1 AND updated_at < $2
	          ORDER BY updated_at
	          LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, domain.CheckoutStatusPaymentCompleted, updatedBefore.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*CheckoutSession, 0)
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan checkout session: %w", scanErr)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}
