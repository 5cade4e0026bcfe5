package service

import (
	"context"
	"fmt"

	"github.com/xeonx/timeago"

	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// DashboardService serves the scoped metrics and activity feed.
type DashboardService struct {
	dashboards repository.DashboardRepository
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(dashboards repository.DashboardRepository) *DashboardService {
	return &DashboardService{dashboards: dashboards}
}

// Metrics returns ticket counts under the caller's scope. The totals come
// from the same predicate as the ticket listing.
func (s *DashboardService) Metrics(ctx context.Context, sc scope.Scope) (*models.DashboardMetrics, error) {
	return s.dashboards.Metrics(ctx, sc)
}

// RecentActivity returns the merged event/comment feed with display fields
// filled in.
func (s *DashboardService) RecentActivity(ctx context.Context, sc scope.Scope, limit int) ([]models.ActivityItem, error) {
	items, err := s.dashboards.RecentActivity(ctx, sc, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Summary = activitySummary(&items[i])
		items[i].Ago = timeago.English.Format(items[i].CreatedAt)
	}
	return items, nil
}

func activitySummary(item *models.ActivityItem) string {
	if item.Kind == "comment" {
		if item.Visibility == models.VisibilityInternal {
			return fmt.Sprintf("Internal note on ticket #%d", item.TicketID)
		}
		return fmt.Sprintf("New comment on ticket #%d", item.TicketID)
	}
	switch item.EventType {
	case models.EventTicketCreated:
		return fmt.Sprintf("Ticket #%d created", item.TicketID)
	case models.EventStatusChanged:
		return fmt.Sprintf("Status changed on ticket #%d", item.TicketID)
	case models.EventPriorityChanged:
		return fmt.Sprintf("Priority changed on ticket #%d", item.TicketID)
	case models.EventAssigneeChanged:
		return fmt.Sprintf("Assignee changed on ticket #%d", item.TicketID)
	case models.EventTicketDeleted:
		return fmt.Sprintf("Ticket #%d deleted", item.TicketID)
	}
	return fmt.Sprintf("Activity on ticket #%d", item.TicketID)
}
