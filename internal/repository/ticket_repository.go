package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// TicketRepository defines ticket persistence operations. Every read applies
// the caller's scope; a row outside scope behaves exactly like a missing row.
type TicketRepository interface {
	List(ctx context.Context, sc scope.Scope, filter models.TicketFilter, page models.Page) ([]models.Ticket, int, error)
	Count(ctx context.Context, sc scope.Scope, filter models.TicketFilter) (int, error)
	GetByID(ctx context.Context, q DBTX, sc scope.Scope, id int64) (*models.Ticket, error)
	Create(ctx context.Context, q DBTX, t *models.Ticket) error
	Update(ctx context.Context, q DBTX, t *models.Ticket) error
	SoftDelete(ctx context.Context, q DBTX, id int64) error
}

// TicketSQLRepository is the database/sql implementation of TicketRepository.
type TicketSQLRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *sql.DB) *TicketSQLRepository {
	return &TicketSQLRepository{db: db}
}

const ticketColumns = `t.id, t.project_id, t.title, t.description, t.status_id, t.priority_id,
	t.raised_by_user_id, t.assigned_to_user_id, t.is_deleted, t.created_at, t.updated_at`

// BuildTicketWhere composes the WHERE clause for a scoped, filtered ticket
// query. The dashboard metrics queries call this too — sharing the builder is
// what guarantees metrics and listings never disagree.
func BuildTicketWhere(sc scope.Scope, filter models.TicketFilter) (string, []any) {
	frag, args := sc.TicketPredicate("t")
	clauses := []string{frag, "t.is_deleted = FALSE"}

	if filter.ProjectID > 0 {
		args = append(args, filter.ProjectID)
		clauses = append(clauses, "t.project_id = ?")
	}
	if filter.StatusID > 0 {
		args = append(args, filter.StatusID)
		clauses = append(clauses, "t.status_id = ?")
	}
	if filter.PriorityID > 0 {
		args = append(args, filter.PriorityID)
		clauses = append(clauses, "t.priority_id = ?")
	}
	if filter.AssignedToUserID > 0 {
		args = append(args, filter.AssignedToUserID)
		clauses = append(clauses, "t.assigned_to_user_id = ?")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := "%" + s + "%"
		args = append(args, p, p)
		clauses = append(clauses, "(t.title ILIKE ? OR t.description ILIKE ?)")
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom)
		clauses = append(clauses, "t.created_at >= ?")
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo)
		clauses = append(clauses, "t.created_at <= ?")
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// List returns a page of tickets visible under sc plus the unpaginated total.
// Sorted most-recently-updated first.
func (r *TicketSQLRepository) List(ctx context.Context, sc scope.Scope, filter models.TicketFilter, page models.Page) ([]models.Ticket, int, error) {
	page = page.Clamp()
	whereSQL, args := BuildTicketWhere(sc, filter)

	total, err := r.Count(ctx, sc, filter)
	if err != nil {
		return nil, 0, err
	}

	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s
		FROM tickets t
		%s
		ORDER BY t.updated_at DESC
		LIMIT ? OFFSET ?`, ticketColumns, whereSQL))
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0, page.Limit)
	for rows.Next() {
		var t models.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return tickets, total, nil
}

// Count returns the number of tickets matching scope and filter.
func (r *TicketSQLRepository) Count(ctx context.Context, sc scope.Scope, filter models.TicketFilter) (int, error) {
	whereSQL, args := BuildTicketWhere(sc, filter)
	query := database.ConvertPlaceholders("SELECT COUNT(*) FROM tickets t " + whereSQL)

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

// GetByID fetches one visible ticket. A missing row and a row outside the
// caller's scope both return apierrors.ErrNotFound; nothing in the error
// distinguishes the two cases.
func (r *TicketSQLRepository) GetByID(ctx context.Context, q DBTX, sc scope.Scope, id int64) (*models.Ticket, error) {
	if q == nil {
		q = r.db
	}
	frag, scopeArgs := sc.TicketPredicate("t")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s
		FROM tickets t
		WHERE t.id = ? AND t.is_deleted = FALSE AND %s`, ticketColumns, frag))
	args := append([]any{id}, scopeArgs...)

	var t models.Ticket
	row := q.QueryRowContext(ctx, query, args...)
	if err := scanTicket(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

// Create inserts a new ticket and fills in its generated ID and timestamps.
func (r *TicketSQLRepository) Create(ctx context.Context, q DBTX, t *models.Ticket) error {
	if q == nil {
		q = r.db
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	id, err := insertReturningID(ctx, q, `
		INSERT INTO tickets (project_id, title, description, status_id, priority_id,
			raised_by_user_id, assigned_to_user_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
		RETURNING id`,
		t.ProjectID, t.Title, t.Description, t.StatusID, t.PriorityID,
		t.RaisedByUserID, t.AssignedToUserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	t.ID = id
	return nil
}

// Update persists a full ticket row. Callers fetch through GetByID with the
// caller's scope first, so an unscoped id can never reach this statement.
func (r *TicketSQLRepository) Update(ctx context.Context, q DBTX, t *models.Ticket) error {
	if q == nil {
		q = r.db
	}
	t.UpdatedAt = time.Now().UTC()
	query := database.ConvertPlaceholders(`
		UPDATE tickets
		SET title = ?, description = ?, status_id = ?, priority_id = ?,
			assigned_to_user_id = ?, updated_at = ?
		WHERE id = ? AND is_deleted = FALSE`)

	res, err := q.ExecContext(ctx, query,
		t.Title, t.Description, t.StatusID, t.PriorityID, t.AssignedToUserID, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierrors.ErrNotFound
	}
	return nil
}

// SoftDelete flags the ticket as deleted. Comments and events stay behind
// for the audit trail.
func (r *TicketSQLRepository) SoftDelete(ctx context.Context, q DBTX, id int64) error {
	if q == nil {
		q = r.db
	}
	query := database.ConvertPlaceholders(`
		UPDATE tickets SET is_deleted = TRUE, updated_at = ? WHERE id = ? AND is_deleted = FALSE`)
	res, err := q.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete ticket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierrors.ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(s scanner, t *models.Ticket) error {
	return s.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.StatusID, &t.PriorityID,
		&t.RaisedByUserID, &t.AssignedToUserID, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
}
