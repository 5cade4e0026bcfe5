package models

import "time"

// CommentVisibility is the closed PUBLIC/INTERNAL pair. CLIENT users only
// ever see PUBLIC comments and can only author PUBLIC comments.
type CommentVisibility string

const (
	VisibilityPublic   CommentVisibility = "PUBLIC"
	VisibilityInternal CommentVisibility = "INTERNAL"
)

// Valid reports whether v is a known visibility.
func (v CommentVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityInternal
}

// Comment is immutable once created; there is no update or delete path.
type Comment struct {
	ID         int64             `json:"id"`
	TicketID   int64             `json:"ticket_id"`
	AuthorID   int64             `json:"author_id"`
	Visibility CommentVisibility `json:"visibility"`
	Body       string            `json:"body"`
	CreatedAt  time.Time         `json:"created_at"`
}
