package models

import (
	"encoding/json"
	"time"
)

// Outbox notification topics. One topic per triggering write.
const (
	TopicTicketCreated  = "ticket.created"
	TopicTicketAssigned = "ticket.assigned"
	TopicStatusChanged  = "ticket.status_changed"
	TopicCommentAdded   = "comment.added"
)

// OutboxNotification is a durable pending-notification row. It is written in
// the same transaction as the ticket/comment change it announces; delivery is
// the poller's concern. IdempotencyKey lets a downstream consumer dedup
// at-least-once deliveries; the poller itself does not dedup.
type OutboxNotification struct {
	ID              int64           `json:"id"`
	Topic           string          `json:"topic"`
	TicketID        int64           `json:"ticket_id"`
	RecipientUserID int64           `json:"recipient_user_id"`
	Payload         json.RawMessage `json:"payload"`
	IdempotencyKey  string          `json:"idempotency_key"`
	Attempts        int             `json:"attempts"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Pending reports whether the row still needs delivery.
func (n *OutboxNotification) Pending() bool { return n.ProcessedAt == nil }
