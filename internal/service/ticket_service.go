// Package service holds the business rules between the HTTP handlers and the
// repositories. Services receive the caller's resolved scope and never look
// at raw role strings themselves; write-time eligibility (who may raise, who
// may be assigned) lives here, read-time visibility lives in the scope
// fragments.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// TicketService implements ticket lifecycle operations.
type TicketService struct {
	db        *sql.DB
	tickets   repository.TicketRepository
	projects  repository.ProjectRepository
	users     repository.UserRepository
	events    repository.EventRepository
	outbox    repository.OutboxRepository
	sanitizer *bluemonday.Policy
}

// NewTicketService creates a ticket service wired to the given repositories.
func NewTicketService(db *sql.DB, tickets repository.TicketRepository, projects repository.ProjectRepository,
	users repository.UserRepository, events repository.EventRepository, outbox repository.OutboxRepository) *TicketService {
	return &TicketService{
		db:        db,
		tickets:   tickets,
		projects:  projects,
		users:     users,
		events:    events,
		outbox:    outbox,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// CreateTicketInput carries the fields of a ticket creation request.
type CreateTicketInput struct {
	ProjectID        int64
	Title            string
	Description      string
	StatusID         int64
	PriorityID       int64
	AssignedToUserID *int64
}

// List returns a page of visible tickets plus the unpaginated total.
func (s *TicketService) List(ctx context.Context, sc scope.Scope, filter models.TicketFilter, page models.Page) ([]models.Ticket, int, error) {
	return s.tickets.List(ctx, sc, filter, page)
}

// Get returns one visible ticket.
func (s *TicketService) Get(ctx context.Context, sc scope.Scope, id int64) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, nil, sc, id)
}

// Events returns the ticket's audit trail. Visibility follows the ticket;
// events of a soft-deleted ticket remain readable.
func (s *TicketService) Events(ctx context.Context, sc scope.Scope, ticketID int64) ([]models.TicketEvent, error) {
	return s.events.ListByTicket(ctx, sc, ticketID)
}

// Create raises a ticket. The project must be visible to the caller, and
// non-admin callers need a membership with can_raise on it. The ticket row,
// its creation event and the outbox notifications commit in one transaction.
func (s *TicketService) Create(ctx context.Context, sc scope.Scope, in CreateTicketInput) (*models.Ticket, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(s.sanitizer.Sanitize(in.Description))
	if in.Title == "" || in.ProjectID <= 0 || in.StatusID <= 0 || in.PriorityID <= 0 {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}

	if _, err := s.projects.GetByID(ctx, sc, in.ProjectID); err != nil {
		return nil, err
	}

	if sc.Role() != models.RoleAdmin {
		if err := s.checkCanRaise(ctx, in.ProjectID, sc.UserID()); err != nil {
			return nil, err
		}
	}

	if in.AssignedToUserID != nil {
		if sc.Role() == models.RoleClient {
			return nil, apierrors.ErrForbidden
		}
		if err := s.checkAssignee(ctx, sc, in.ProjectID, *in.AssignedToUserID); err != nil {
			return nil, err
		}
	}

	ticket := &models.Ticket{
		ProjectID:        in.ProjectID,
		Title:            in.Title,
		Description:      in.Description,
		StatusID:         in.StatusID,
		PriorityID:       in.PriorityID,
		RaisedByUserID:   sc.UserID(),
		AssignedToUserID: in.AssignedToUserID,
	}

	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tickets.Create(ctx, tx, ticket); err != nil {
			return err
		}
		event := &models.TicketEvent{
			TicketID: ticket.ID,
			ActorID:  sc.UserID(),
			Type:     models.EventTicketCreated,
			NewValue: ticket.Title,
		}
		if err := s.events.Insert(ctx, tx, event); err != nil {
			return err
		}
		if err := s.enqueue(ctx, tx, models.TopicTicketCreated, ticket, ticket.RaisedByUserID); err != nil {
			return err
		}
		if ticket.AssignedToUserID != nil {
			if err := s.enqueue(ctx, tx, models.TopicTicketAssigned, ticket, *ticket.AssignedToUserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update applies a partial update. CLIENT callers may only touch title and
// description; status, priority and assignee changes are staff operations.
// Each changed field leaves an audit event.
func (s *TicketService) Update(ctx context.Context, sc scope.Scope, id int64, patch models.TicketPatch) (*models.Ticket, error) {
	if patch.Empty() {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	if sc.Role() == models.RoleClient {
		if patch.StatusID != nil {
			return nil, apierrors.WithCode(apierrors.ErrForbidden, apierrors.CodeStatusChangeForbidden)
		}
		if patch.PriorityID != nil || patch.AssignedToUserID != nil {
			return nil, apierrors.ErrForbidden
		}
	}

	var ticket *models.Ticket
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		ticket, err = s.tickets.GetByID(ctx, tx, sc, id)
		if err != nil {
			return err
		}

		var events []*models.TicketEvent
		if patch.Title != nil {
			t := strings.TrimSpace(*patch.Title)
			if t == "" {
				return apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
			}
			ticket.Title = t
		}
		if patch.Description != nil {
			ticket.Description = strings.TrimSpace(s.sanitizer.Sanitize(*patch.Description))
		}
		if patch.StatusID != nil && *patch.StatusID != ticket.StatusID {
			events = append(events, &models.TicketEvent{
				Type:     models.EventStatusChanged,
				OldValue: strconv.FormatInt(ticket.StatusID, 10),
				NewValue: strconv.FormatInt(*patch.StatusID, 10),
			})
			ticket.StatusID = *patch.StatusID
		}
		if patch.PriorityID != nil && *patch.PriorityID != ticket.PriorityID {
			events = append(events, &models.TicketEvent{
				Type:     models.EventPriorityChanged,
				OldValue: strconv.FormatInt(ticket.PriorityID, 10),
				NewValue: strconv.FormatInt(*patch.PriorityID, 10),
			})
			ticket.PriorityID = *patch.PriorityID
		}
		assigneeChanged := false
		if patch.AssignedToUserID != nil && !equalAssignee(ticket.AssignedToUserID, patch.AssignedToUserID) {
			if *patch.AssignedToUserID > 0 {
				if err := s.checkAssignee(ctx, sc, ticket.ProjectID, *patch.AssignedToUserID); err != nil {
					return err
				}
			}
			events = append(events, &models.TicketEvent{
				Type:     models.EventAssigneeChanged,
				OldValue: formatAssignee(ticket.AssignedToUserID),
				NewValue: formatAssignee(patch.AssignedToUserID),
			})
			if *patch.AssignedToUserID > 0 {
				ticket.AssignedToUserID = patch.AssignedToUserID
				assigneeChanged = true
			} else {
				ticket.AssignedToUserID = nil
			}
		}

		if err := s.tickets.Update(ctx, tx, ticket); err != nil {
			return err
		}
		for _, e := range events {
			e.TicketID = ticket.ID
			e.ActorID = sc.UserID()
			if err := s.events.Insert(ctx, tx, e); err != nil {
				return err
			}
			if e.Type == models.EventStatusChanged {
				if err := s.enqueue(ctx, tx, models.TopicStatusChanged, ticket, ticket.RaisedByUserID); err != nil {
					return err
				}
			}
		}
		if assigneeChanged {
			if err := s.enqueue(ctx, tx, models.TopicTicketAssigned, ticket, *ticket.AssignedToUserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Delete soft-deletes a ticket. Admin only. Comments and events stay behind.
func (s *TicketService) Delete(ctx context.Context, sc scope.Scope, id int64) error {
	if sc.Role() != models.RoleAdmin {
		return apierrors.ErrForbidden
	}
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ticket, err := s.tickets.GetByID(ctx, tx, sc, id)
		if err != nil {
			return err
		}
		if err := s.tickets.SoftDelete(ctx, tx, ticket.ID); err != nil {
			return err
		}
		return s.events.Insert(ctx, tx, &models.TicketEvent{
			TicketID: ticket.ID,
			ActorID:  sc.UserID(),
			Type:     models.EventTicketDeleted,
		})
	})
}

// checkCanRaise verifies the caller holds a can_raise membership on the
// project. A missing membership maps to the same error as an ineligible one.
func (s *TicketService) checkCanRaise(ctx context.Context, projectID, userID int64) error {
	m, err := s.projects.GetMembership(ctx, projectID, userID)
	if errors.Is(err, apierrors.ErrNotFound) {
		return apierrors.WithCode(apierrors.ErrForbidden, apierrors.CodeRaiseNotPermitted)
	}
	if err != nil {
		return err
	}
	if !m.CanRaise {
		return apierrors.WithCode(apierrors.ErrForbidden, apierrors.CodeRaiseNotPermitted)
	}
	return nil
}

// checkAssignee verifies an assignment target: a staff user in the caller's
// organization holding a can_be_assigned membership on the project.
func (s *TicketService) checkAssignee(ctx context.Context, sc scope.Scope, projectID, userID int64) error {
	ineligible := apierrors.WithCode(apierrors.ErrForbidden, apierrors.CodeAssigneeNotEligible)

	u, err := s.users.GetInOrganization(ctx, sc.OrganizationID(), userID)
	if errors.Is(err, apierrors.ErrNotFound) {
		return ineligible
	}
	if err != nil {
		return err
	}
	if u.Role == models.RoleClient {
		return ineligible
	}

	m, err := s.projects.GetMembership(ctx, projectID, userID)
	if errors.Is(err, apierrors.ErrNotFound) {
		return ineligible
	}
	if err != nil {
		return err
	}
	if !m.CanBeAssigned {
		return ineligible
	}
	return nil
}

func (s *TicketService) enqueue(ctx context.Context, tx *sql.Tx, topic string, t *models.Ticket, recipient int64) error {
	payload, err := json.Marshal(map[string]any{
		"ticket_id": t.ID,
		"title":     t.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	return s.outbox.Enqueue(ctx, tx, &models.OutboxNotification{
		Topic:           topic,
		TicketID:        t.ID,
		RecipientUserID: recipient,
		Payload:         payload,
	})
}

func equalAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b != nil && *b <= 0
	}
	return *a == *b
}

func formatAssignee(id *int64) string {
	if id == nil || *id <= 0 {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
