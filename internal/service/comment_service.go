package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// CommentService implements the comment thread on a ticket. Comments are
// immutable; the only operations are list and add.
type CommentService struct {
	db        *sql.DB
	tickets   repository.TicketRepository
	comments  repository.CommentRepository
	events    repository.EventRepository
	outbox    repository.OutboxRepository
	sanitizer *bluemonday.Policy
}

// NewCommentService creates a comment service wired to the given repositories.
func NewCommentService(db *sql.DB, tickets repository.TicketRepository, comments repository.CommentRepository,
	events repository.EventRepository, outbox repository.OutboxRepository) *CommentService {
	return &CommentService{
		db:        db,
		tickets:   tickets,
		comments:  comments,
		events:    events,
		outbox:    outbox,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// List returns a ticket's comment thread, oldest first. The ticket lookup
// enforces ticket visibility; the comment query adds the PUBLIC-only layer
// for CLIENT callers.
func (s *CommentService) List(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.Comment, error) {
	if _, err := s.tickets.GetByID(ctx, nil, sc, ticketID); err != nil {
		return nil, err
	}
	return s.comments.ListByTicket(ctx, sc, ticketID)
}

// Add appends a comment. CLIENT callers may only author PUBLIC comments.
// The comment, its audit event and the outbox notifications commit in one
// transaction.
func (s *CommentService) Add(ctx context.Context, sc scope.Scope, ticketID int64, visibility models.CommentVisibility, body string) (*models.Comment, error) {
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	if sc.Role() == models.RoleClient && visibility == models.VisibilityInternal {
		return nil, apierrors.WithCode(apierrors.ErrForbidden, apierrors.CodeInternalNoteForbidden)
	}

	body = strings.TrimSpace(s.sanitizer.Sanitize(body))
	if body == "" {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}

	comment := &models.Comment{
		TicketID:   ticketID,
		AuthorID:   sc.UserID(),
		Visibility: visibility,
		Body:       body,
	}

	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ticket, err := s.tickets.GetByID(ctx, tx, sc, ticketID)
		if err != nil {
			return err
		}
		if err := s.comments.Create(ctx, tx, comment); err != nil {
			return err
		}
		if err := s.events.Insert(ctx, tx, &models.TicketEvent{
			TicketID: ticket.ID,
			ActorID:  sc.UserID(),
			Type:     models.EventCommentAdded,
			NewValue: string(visibility),
		}); err != nil {
			return err
		}

		for _, recipient := range commentRecipients(ticket, comment) {
			payload, err := json.Marshal(map[string]any{
				"ticket_id":  ticket.ID,
				"comment_id": comment.ID,
				"visibility": comment.Visibility,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal notification payload: %w", err)
			}
			if err := s.outbox.Enqueue(ctx, tx, &models.OutboxNotification{
				Topic:           models.TopicCommentAdded,
				TicketID:        ticket.ID,
				RecipientUserID: recipient,
				Payload:         payload,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// commentRecipients picks who gets notified. PUBLIC comments go to the
// raiser and the assignee; INTERNAL notes go to the assignee only, so a
// client raiser never hears about staff-only discussion. The author is
// never notified of their own comment.
func commentRecipients(t *models.Ticket, c *models.Comment) []int64 {
	var recipients []int64
	if c.Visibility == models.VisibilityPublic && t.RaisedByUserID != c.AuthorID {
		recipients = append(recipients, t.RaisedByUserID)
	}
	if t.AssignedToUserID != nil && *t.AssignedToUserID != c.AuthorID {
		recipients = append(recipients, *t.AssignedToUserID)
	}
	return recipients
}
