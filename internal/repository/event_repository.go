package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// EventRepository persists immutable ticket audit events. There is no update
// or delete path.
type EventRepository interface {
	Insert(ctx context.Context, q DBTX, e *models.TicketEvent) error
	ListByTicket(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.TicketEvent, error)
}

// EventSQLRepository is the database/sql implementation of EventRepository.
type EventSQLRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sql.DB) *EventSQLRepository {
	return &EventSQLRepository{db: db}
}

// Insert appends an audit event inside the caller's transaction.
func (r *EventSQLRepository) Insert(ctx context.Context, q DBTX, e *models.TicketEvent) error {
	if q == nil {
		q = r.db
	}
	e.CreatedAt = time.Now().UTC()

	id, err := insertReturningID(ctx, q, `
		INSERT INTO ticket_events (ticket_id, actor_id, event_type, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.TicketID, e.ActorID, string(e.Type), e.OldValue, e.NewValue, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ticket event: %w", err)
	}
	e.ID = id
	return nil
}

// ListByTicket returns the ticket's audit trail, oldest first. The scope
// predicate is applied but the soft-delete flag is NOT: events of a deleted
// ticket stay reachable for audit continuity.
func (r *EventSQLRepository) ListByTicket(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.TicketEvent, error) {
	frag, scopeArgs := sc.TicketPredicate("t")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT e.id, e.ticket_id, e.actor_id, e.event_type, e.old_value, e.new_value, e.created_at
		FROM ticket_events e
		JOIN tickets t ON t.id = e.ticket_id
		WHERE e.ticket_id = ? AND %s
		ORDER BY e.created_at ASC, e.id ASC`, frag))
	args := append([]any{ticketID}, scopeArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket events: %w", err)
	}
	defer rows.Close()

	var events []models.TicketEvent
	for rows.Next() {
		var e models.TicketEvent
		if err := rows.Scan(&e.ID, &e.TicketID, &e.ActorID, &e.Type, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}
