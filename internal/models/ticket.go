package models

import "time"

// TicketStatus is a row of the shared status lookup table. IsClosed feeds
// the dashboard's open/closed split.
type TicketStatus struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsClosed  bool   `json:"is_closed"`
	SortOrder int    `json:"sort_order"`
}

// TicketPriority is a row of the shared priority lookup table.
type TicketPriority struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Ticket belongs to one project and, transitively, one client and one
// organization. IsDeleted rows are excluded from every read path.
type Ticket struct {
	ID               int64     `json:"id"`
	ProjectID        int64     `json:"project_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StatusID         int64     `json:"status_id"`
	PriorityID       int64     `json:"priority_id"`
	RaisedByUserID   int64     `json:"raised_by_user_id"`
	AssignedToUserID *int64    `json:"assigned_to_user_id,omitempty"`
	IsDeleted        bool      `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TicketFilter narrows a ticket listing within the caller's scope.
// Zero values mean "not filtered".
type TicketFilter struct {
	ProjectID        int64
	StatusID         int64
	PriorityID       int64
	AssignedToUserID int64
	Search           string
	CreatedFrom      time.Time
	CreatedTo        time.Time
}

// TicketPatch is a partial update. Nil fields are left untouched.
type TicketPatch struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	StatusID         *int64  `json:"status_id"`
	PriorityID       *int64  `json:"priority_id"`
	AssignedToUserID *int64  `json:"assigned_to_user_id"`
}

// Empty reports whether the patch changes nothing.
func (p *TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.StatusID == nil &&
		p.PriorityID == nil && p.AssignedToUserID == nil
}

const (
	// DefaultPageLimit is applied when the caller omits a limit.
	DefaultPageLimit = 50
	// MaxPageLimit caps the page size; larger requests are clamped, not rejected.
	MaxPageLimit = 200
)

// Page is offset/limit pagination with clamping semantics.
type Page struct {
	Limit  int
	Offset int
}

// Clamp normalizes the page to [1, MaxPageLimit] / offset >= 0.
// Out-of-range values are pulled into range rather than rejected.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
