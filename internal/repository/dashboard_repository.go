package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// DashboardRepository computes scoped aggregates. It reuses the exact WHERE
// builder of the ticket listing, so a dashboard number can never disagree
// with what the listing would return for the same caller.
type DashboardRepository interface {
	Metrics(ctx context.Context, sc scope.Scope) (*models.DashboardMetrics, error)
	RecentActivity(ctx context.Context, sc scope.Scope, limit int) ([]models.ActivityItem, error)
}

// DashboardSQLRepository is the database/sql implementation of DashboardRepository.
type DashboardSQLRepository struct {
	db      *sql.DB
	tickets *TicketSQLRepository
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *sql.DB) *DashboardSQLRepository {
	return &DashboardSQLRepository{db: db, tickets: NewTicketRepository(db)}
}

// Metrics returns the scoped ticket counts and breakdowns. AssignedToMe is
// filled for EMPLOYEE scopes only.
func (r *DashboardSQLRepository) Metrics(ctx context.Context, sc scope.Scope) (*models.DashboardMetrics, error) {
	m := &models.DashboardMetrics{}

	// Same count as the listing: BuildTicketWhere with an empty filter.
	total, err := r.tickets.Count(ctx, sc, models.TicketFilter{})
	if err != nil {
		return nil, err
	}
	m.TicketsTotal = total

	whereSQL, args := BuildTicketWhere(sc, models.TicketFilter{})

	statusQuery := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT s.id, s.name, s.is_closed, COUNT(t.id)
		FROM tickets t
		JOIN ticket_statuses s ON s.id = t.status_id
		%s
		GROUP BY s.id, s.name, s.is_closed
		ORDER BY MIN(s.sort_order), s.id`, whereSQL))

	rows, err := r.db.QueryContext(ctx, statusQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var stc models.StatusCount
		if err := rows.Scan(&stc.StatusID, &stc.Name, &stc.IsClosed, &stc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status breakdown: %w", err)
		}
		if stc.IsClosed {
			m.Closed += stc.Count
		} else {
			m.Open += stc.Count
		}
		m.ByStatus = append(m.ByStatus, stc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	whereSQL, args = BuildTicketWhere(sc, models.TicketFilter{})
	priorityQuery := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT p.id, p.name, COUNT(t.id)
		FROM tickets t
		JOIN ticket_priorities p ON p.id = t.priority_id
		%s
		GROUP BY p.id, p.name
		ORDER BY MIN(p.sort_order), p.id`, whereSQL))

	prows, err := r.db.QueryContext(ctx, priorityQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query priority breakdown: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var pc models.PriorityCount
		if err := prows.Scan(&pc.PriorityID, &pc.Name, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan priority breakdown: %w", err)
		}
		m.ByPriority = append(m.ByPriority, pc)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if sc.Role() == models.RoleEmployee {
		count, err := r.tickets.Count(ctx, sc, models.TicketFilter{AssignedToUserID: sc.UserID()})
		if err != nil {
			return nil, err
		}
		m.AssignedToMe = &count
	}

	return m, nil
}

// RecentActivity returns the merged, time-sorted union of ticket events and
// comments visible under sc. The comment half carries the scope's
// PUBLIC-only layer for CLIENT callers.
func (r *DashboardSQLRepository) RecentActivity(ctx context.Context, sc scope.Scope, limit int) ([]models.ActivityItem, error) {
	if limit <= 0 || limit > models.MaxPageLimit {
		limit = 20
	}

	ticketFrag, eventArgs := sc.TicketPredicate("t")

	commentClause := ""
	commentArgs := []any{}
	if frag, visArgs := sc.CommentPredicate("cm"); frag != "" {
		commentClause = " AND " + frag
		commentArgs = visArgs
	}
	ticketFrag2, commentScopeArgs := sc.TicketPredicate("t")

	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT kind, ticket_id, actor_id, detail, visibility, created_at FROM (
			SELECT 'event' AS kind, e.ticket_id, e.actor_id, e.event_type AS detail,
				'' AS visibility, e.created_at
			FROM ticket_events e
			JOIN tickets t ON t.id = e.ticket_id
			WHERE %s AND t.is_deleted = FALSE
			UNION ALL
			SELECT 'comment' AS kind, cm.ticket_id, cm.author_id, '' AS detail,
				cm.visibility, cm.created_at
			FROM comments cm
			JOIN tickets t ON t.id = cm.ticket_id
			WHERE %s AND t.is_deleted = FALSE%s
		) activity
		ORDER BY created_at DESC
		LIMIT ?`, ticketFrag, ticketFrag2, commentClause))

	args := append([]any{}, eventArgs...)
	args = append(args, commentScopeArgs...)
	args = append(args, commentArgs...)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()

	var items []models.ActivityItem
	for rows.Next() {
		var item models.ActivityItem
		var detail, visibility string
		if err := rows.Scan(&item.Kind, &item.TicketID, &item.ActorID, &detail, &visibility, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity item: %w", err)
		}
		if item.Kind == "event" {
			item.EventType = models.TicketEventType(detail)
		} else if visibility != "" {
			item.Visibility = models.CommentVisibility(visibility)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}
