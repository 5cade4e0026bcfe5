// Package scope resolves a caller's identity into the row-visibility
// predicate that every ticket, comment and dashboard query applies. It is the
// single place role-based filtering lives: repositories never branch on role
// themselves, they splice the fragments rendered here into their WHERE
// clauses. Fragments use ? placeholders and go through
// database.ConvertPlaceholders like every other query.
package scope

import (
	"fmt"

	"github.com/deskflow-io/deskflow/internal/models"
)

// Identity is the verified caller tuple handed in by the auth middleware.
type Identity struct {
	UserID         int64
	OrganizationID int64
	Role           models.Role
	ClientID       *int64
}

// Scope is the resolved visibility predicate for one identity. The zero
// value matches nothing; obtain a usable Scope via Resolve.
type Scope struct {
	id    Identity
	empty bool
}

// Resolve derives the scope for an identity. It is a pure function: no
// queries, no side effects.
//
// Invariant violations fail closed: an identity with an unknown role, a
// CLIENT without a client ID, or a non-CLIENT carrying one resolves to a
// scope that matches no rows. It never degrades toward admin visibility.
func Resolve(id Identity) Scope {
	if !id.Role.Valid() || id.OrganizationID <= 0 || id.UserID <= 0 {
		return Scope{id: id, empty: true}
	}
	if id.Role == models.RoleClient && (id.ClientID == nil || *id.ClientID <= 0) {
		return Scope{id: id, empty: true}
	}
	if id.Role != models.RoleClient && id.ClientID != nil {
		return Scope{id: id, empty: true}
	}
	return Scope{id: id}
}

// Role returns the caller's role.
func (s Scope) Role() models.Role { return s.id.Role }

// UserID returns the caller's user ID.
func (s Scope) UserID() int64 { return s.id.UserID }

// OrganizationID returns the caller's organization ID.
func (s Scope) OrganizationID() int64 { return s.id.OrganizationID }

// Empty reports whether the scope matches no rows at all.
func (s Scope) Empty() bool { return s.empty }

// matchNothing is spliced in for fail-closed scopes.
const matchNothing = "1 = 0"

// orgProjectsSubquery restricts a ticket's project to the caller's
// organization. One bind arg: organization ID.
func orgProjectsSubquery(alias string) string {
	return fmt.Sprintf(
		"%s.project_id IN (SELECT p.id FROM projects p JOIN clients c ON c.id = p.client_id WHERE c.organization_id = ?)",
		alias)
}

// TicketPredicate renders the ticket-row visibility fragment for the given
// table alias. The same fragment feeds listings, single-row lookups, update
// guards and dashboard aggregates so their result sets can never diverge.
func (s Scope) TicketPredicate(alias string) (string, []any) {
	if s.empty {
		return matchNothing, nil
	}
	switch s.id.Role {
	case models.RoleAdmin:
		return orgProjectsSubquery(alias), []any{s.id.OrganizationID}
	case models.RoleEmployee:
		// Authorship or assignment, not project membership. The org guard is
		// belt and braces: both columns reference users in the caller's org.
		frag := fmt.Sprintf("%s AND (%s.raised_by_user_id = ? OR %s.assigned_to_user_id = ?)",
			orgProjectsSubquery(alias), alias, alias)
		return frag, []any{s.id.OrganizationID, s.id.UserID, s.id.UserID}
	case models.RoleClient:
		frag := fmt.Sprintf("%s.project_id IN (SELECT p.id FROM projects p WHERE p.client_id = ?)", alias)
		return frag, []any{*s.id.ClientID}
	}
	return matchNothing, nil
}

// CommentPredicate renders the comment-level visibility fragment layered on
// top of ticket visibility. Empty string means no additional restriction.
// CLIENT callers see PUBLIC comments only, regardless of ticket visibility.
func (s Scope) CommentPredicate(alias string) (string, []any) {
	if s.empty {
		return matchNothing, nil
	}
	if s.id.Role == models.RoleClient {
		return fmt.Sprintf("%s.visibility = ?", alias), []any{string(models.VisibilityPublic)}
	}
	return "", nil
}

// ProjectPredicate renders project-row visibility. ADMIN sees the whole
// organization, EMPLOYEE the projects they hold a membership in, CLIENT the
// projects of their own client.
func (s Scope) ProjectPredicate(alias string) (string, []any) {
	if s.empty {
		return matchNothing, nil
	}
	switch s.id.Role {
	case models.RoleAdmin:
		frag := fmt.Sprintf("%s.client_id IN (SELECT c.id FROM clients c WHERE c.organization_id = ?)", alias)
		return frag, []any{s.id.OrganizationID}
	case models.RoleEmployee:
		frag := fmt.Sprintf("%s.id IN (SELECT pm.project_id FROM project_memberships pm WHERE pm.user_id = ?)", alias)
		return frag, []any{s.id.UserID}
	case models.RoleClient:
		return fmt.Sprintf("%s.client_id = ?", alias), []any{*s.id.ClientID}
	}
	return matchNothing, nil
}
