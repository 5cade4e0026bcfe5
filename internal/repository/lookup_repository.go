package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
)

// LookupRepository serves the shared ticket status and priority tables.
// They carry no tenant data, so no scope fragment applies.
type LookupRepository interface {
	ListStatuses(ctx context.Context) ([]models.TicketStatus, error)
	ListPriorities(ctx context.Context) ([]models.TicketPriority, error)
}

// LookupSQLRepository is the database/sql implementation of LookupRepository.
type LookupSQLRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new lookup repository.
func NewLookupRepository(db *sql.DB) *LookupSQLRepository {
	return &LookupSQLRepository{db: db}
}

// ListStatuses returns the statuses in display order.
func (r *LookupSQLRepository) ListStatuses(ctx context.Context) ([]models.TicketStatus, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, name, is_closed, sort_order
		FROM ticket_statuses
		ORDER BY sort_order ASC, id ASC`)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.TicketStatus
	for rows.Next() {
		var s models.TicketStatus
		if err := rows.Scan(&s.ID, &s.Name, &s.IsClosed, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan ticket status: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return statuses, nil
}

// ListPriorities returns the priorities in display order.
func (r *LookupSQLRepository) ListPriorities(ctx context.Context) ([]models.TicketPriority, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, name, sort_order
		FROM ticket_priorities
		ORDER BY sort_order ASC, id ASC`)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket priorities: %w", err)
	}
	defer rows.Close()

	var priorities []models.TicketPriority
	for rows.Next() {
		var p models.TicketPriority
		if err := rows.Scan(&p.ID, &p.Name, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan ticket priority: %w", err)
		}
		priorities = append(priorities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return priorities, nil
}
