package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// CommentRepository persists comment rows. Ticket-level visibility is
// checked by the caller (via TicketRepository.GetByID) before any comment
// query runs; the scope here only adds the PUBLIC/INTERNAL layer.
type CommentRepository interface {
	ListByTicket(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.Comment, error)
	Create(ctx context.Context, q DBTX, c *models.Comment) error
}

// CommentSQLRepository is the database/sql implementation of CommentRepository.
type CommentSQLRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sql.DB) *CommentSQLRepository {
	return &CommentSQLRepository{db: db}
}

// ListByTicket returns the ticket's comments in chronological order
// (oldest first — threads read top to bottom). CLIENT scopes see PUBLIC
// rows only.
func (r *CommentSQLRepository) ListByTicket(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.Comment, error) {
	clauses := []string{"cm.ticket_id = ?"}
	args := []any{ticketID}

	if frag, visArgs := sc.CommentPredicate("cm"); frag != "" {
		clauses = append(clauses, frag)
		args = append(args, visArgs...)
	}

	query := database.ConvertPlaceholders(`
		SELECT cm.id, cm.ticket_id, cm.author_id, cm.visibility, cm.body, cm.created_at
		FROM comments cm
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY cm.created_at ASC, cm.id ASC`)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Visibility, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return comments, nil
}

// Create inserts a comment row. Runs inside the caller's transaction so the
// comment, its COMMENT_ADDED event and the outbox row commit together.
func (r *CommentSQLRepository) Create(ctx context.Context, q DBTX, c *models.Comment) error {
	if q == nil {
		q = r.db
	}
	c.CreatedAt = time.Now().UTC()

	id, err := insertReturningID(ctx, q, `
		INSERT INTO comments (ticket_id, author_id, visibility, body, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		c.TicketID, c.AuthorID, string(c.Visibility), c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	c.ID = id
	return nil
}
