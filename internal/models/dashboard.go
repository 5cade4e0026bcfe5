package models

// StatusCount is one slice of the by-status breakdown.
type StatusCount struct {
	StatusID int64  `json:"status_id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
	Count    int    `json:"count"`
}

// PriorityCount is one slice of the by-priority breakdown.
type PriorityCount struct {
	PriorityID int64  `json:"priority_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// DashboardMetrics aggregates ticket counts under one scope. TicketsTotal is
// computed with the same predicate as the ticket listing, so the two can
// never disagree. AssignedToMe is populated for EMPLOYEE callers only.
type DashboardMetrics struct {
	TicketsTotal int             `json:"tickets_total"`
	Open         int             `json:"open"`
	Closed       int             `json:"closed"`
	ByStatus     []StatusCount   `json:"by_status"`
	ByPriority   []PriorityCount `json:"by_priority"`
	AssignedToMe *int            `json:"assigned_to_me,omitempty"`
}
