package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
)

// OutboxRepository persists pending-notification rows. Enqueue runs inside
// the same transaction as the write that triggered the notification; the
// poller drains pending rows on its own connection.
type OutboxRepository interface {
	Enqueue(ctx context.Context, q DBTX, n *models.OutboxNotification) error
	FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxNotification, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}

// OutboxSQLRepository is the database/sql implementation of OutboxRepository.
type OutboxSQLRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(db *sql.DB) *OutboxSQLRepository {
	return &OutboxSQLRepository{db: db}
}

// Enqueue inserts a pending notification and stamps its idempotency key.
// Delivery is at-least-once; the key lets the receiving side dedup.
func (r *OutboxSQLRepository) Enqueue(ctx context.Context, q DBTX, n *models.OutboxNotification) error {
	if q == nil {
		q = r.db
	}
	if n.IdempotencyKey == "" {
		n.IdempotencyKey = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	id, err := insertReturningID(ctx, q, `
		INSERT INTO outbox_notifications (topic, ticket_id, recipient_user_id, payload,
			idempotency_key, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		RETURNING id`,
		n.Topic, n.TicketID, n.RecipientUserID, []byte(n.Payload), n.IdempotencyKey, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	n.ID = id
	return nil
}

// FetchPending returns undelivered rows oldest-first, skipping rows that
// exhausted maxAttempts (poison rows stop retrying but stay visible in the
// table for operators).
func (r *OutboxSQLRepository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxNotification, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, topic, ticket_id, recipient_user_id, payload, idempotency_key,
			attempts, processed_at, created_at
		FROM outbox_notifications
		WHERE processed_at IS NULL AND attempts < ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer rows.Close()

	var pending []models.OutboxNotification
	for rows.Next() {
		var n models.OutboxNotification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.Topic, &n.TicketID, &n.RecipientUserID, &payload,
			&n.IdempotencyKey, &n.Attempts, &n.ProcessedAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Payload = payload
		pending = append(pending, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return pending, nil
}

// MarkProcessed records successful delivery.
func (r *OutboxSQLRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := database.ConvertPlaceholders(`
		UPDATE outbox_notifications SET processed_at = ? WHERE id = ? AND processed_at IS NULL`)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark notification processed: %w", err)
	}
	return nil
}

// MarkFailed bumps the attempt counter; the row is retried next tick.
func (r *OutboxSQLRepository) MarkFailed(ctx context.Context, id int64) error {
	query := database.ConvertPlaceholders(`
		UPDATE outbox_notifications SET attempts = attempts + 1 WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}
