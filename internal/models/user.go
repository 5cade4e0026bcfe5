package models

import "time"

// User belongs to one organization. ClientID is set if and only if
// Role == RoleClient.
type User struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	ClientID       *int64    `json:"client_id,omitempty"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
