package repository

import (
	"context"
	"fmt"
	"time"
)

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events
	          WHERE processed_at IS NULL
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]*OutboxEvent, 0)
	for rows.Next() {
		var (
			e       OutboxEvent
			payload []byte
		)
		if scanErr := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", scanErr)
		}
		e.Payload = payload
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = $1 WHERE id = $2 AND processed_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("outbox event %d not found or already processed", id))
}
