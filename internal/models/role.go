package models

import "fmt"

// Role is the closed set of user roles. Every scope decision switches over
// these three values; there is deliberately no extension point.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleClient   Role = "CLIENT"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleClient:
		return true
	}
	return false
}

// ParseRole converts a stored/claimed role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// MembershipRole is the per-project role on a membership row. It governs
// write-time eligibility, not read-time ticket visibility.
type MembershipRole string

const (
	MembershipManager MembershipRole = "MANAGER"
	MembershipMember  MembershipRole = "MEMBER"
	MembershipViewer  MembershipRole = "VIEWER"
)

// Valid reports whether m is a known membership role.
func (m MembershipRole) Valid() bool {
	switch m {
	case MembershipManager, MembershipMember, MembershipViewer:
		return true
	}
	return false
}
