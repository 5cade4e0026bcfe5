package models

import "time"

// Organization is the top-level tenant. Every other entity traces back to
// exactly one organization, directly or through Client/Project.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is an external customer account under one organization.
type Client struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Project belongs to one client.
type Project struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectMembership carries a user's per-project flags. Unique per
// (project_id, user_id). CanRaise and CanBeAssigned are eligibility gates
// checked at write time only.
type ProjectMembership struct {
	ProjectID     int64          `json:"project_id"`
	UserID        int64          `json:"user_id"`
	Role          MembershipRole `json:"role"`
	CanRaise      bool           `json:"can_raise"`
	CanBeAssigned bool           `json:"can_be_assigned"`
	CreatedAt     time.Time      `json:"created_at"`
}
