package models

import "time"

// TicketEventType identifies what a ticket event records.
type TicketEventType string

const (
	EventTicketCreated   TicketEventType = "TICKET_CREATED"
	EventStatusChanged   TicketEventType = "STATUS_CHANGED"
	EventPriorityChanged TicketEventType = "PRIORITY_CHANGED"
	EventAssigneeChanged TicketEventType = "ASSIGNEE_CHANGED"
	EventCommentAdded    TicketEventType = "COMMENT_ADDED"
	EventTicketDeleted   TicketEventType = "TICKET_DELETED"
)

// TicketEvent is an immutable audit record of a ticket mutation. Events
// inherit the visibility of their parent ticket and survive soft-delete.
type TicketEvent struct {
	ID        int64           `json:"id"`
	TicketID  int64           `json:"ticket_id"`
	ActorID   int64           `json:"actor_id"`
	Type      TicketEventType `json:"type"`
	OldValue  string          `json:"old_value,omitempty"`
	NewValue  string          `json:"new_value,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ActivityItem is one entry of the merged dashboard activity feed: either a
// ticket event or a comment, time-sorted.
type ActivityItem struct {
	Kind       string            `json:"kind"` // "event" or "comment"
	TicketID   int64             `json:"ticket_id"`
	ActorID    int64             `json:"actor_id"`
	EventType  TicketEventType   `json:"event_type,omitempty"`
	Visibility CommentVisibility `json:"visibility,omitempty"`
	Summary    string            `json:"summary"`
	Ago        string            `json:"ago"`
	CreatedAt  time.Time         `json:"created_at"`
}
