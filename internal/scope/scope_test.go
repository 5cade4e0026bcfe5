package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow-io/deskflow/internal/models"
)

func clientID(id int64) *int64 { return &id }

func TestResolve(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		s := Resolve(Identity{UserID: 7, OrganizationID: 1, Role: models.RoleAdmin})
		require.False(t, s.Empty())

		frag, args := s.TicketPredicate("t")
		assert.Contains(t, frag, "c.organization_id = ?")
		assert.Equal(t, []any{int64(1)}, args)

		// Admin comments carry no extra restriction.
		cFrag, cArgs := s.CommentPredicate("cm")
		assert.Empty(t, cFrag)
		assert.Nil(t, cArgs)
	})

	t.Run("Employee", func(t *testing.T) {
		s := Resolve(Identity{UserID: 42, OrganizationID: 1, Role: models.RoleEmployee})
		require.False(t, s.Empty())

		frag, args := s.TicketPredicate("t")
		assert.Contains(t, frag, "t.raised_by_user_id = ?")
		assert.Contains(t, frag, "t.assigned_to_user_id = ?")
		assert.Equal(t, []any{int64(1), int64(42), int64(42)}, args)

		cFrag, _ := s.CommentPredicate("cm")
		assert.Empty(t, cFrag, "employees see INTERNAL comments too")
	})

	t.Run("Client", func(t *testing.T) {
		s := Resolve(Identity{UserID: 9, OrganizationID: 1, Role: models.RoleClient, ClientID: clientID(3)})
		require.False(t, s.Empty())

		frag, args := s.TicketPredicate("t")
		assert.Contains(t, frag, "p.client_id = ?")
		assert.NotContains(t, frag, "raised_by_user_id")
		assert.Equal(t, []any{int64(3)}, args)

		cFrag, cArgs := s.CommentPredicate("cm")
		assert.Equal(t, "cm.visibility = ?", cFrag)
		assert.Equal(t, []any{"PUBLIC"}, cArgs)
	})
}

func TestResolve_FailClosed(t *testing.T) {
	cases := map[string]Identity{
		"client without client id":  {UserID: 9, OrganizationID: 1, Role: models.RoleClient},
		"client with zero id":       {UserID: 9, OrganizationID: 1, Role: models.RoleClient, ClientID: clientID(0)},
		"employee with client id":   {UserID: 9, OrganizationID: 1, Role: models.RoleEmployee, ClientID: clientID(3)},
		"admin with client id":      {UserID: 9, OrganizationID: 1, Role: models.RoleAdmin, ClientID: clientID(3)},
		"unknown role":              {UserID: 9, OrganizationID: 1, Role: models.Role("SUPERUSER")},
		"missing org":               {UserID: 9, Role: models.RoleAdmin},
		"missing user":              {OrganizationID: 1, Role: models.RoleAdmin},
	}

	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			s := Resolve(id)
			require.True(t, s.Empty())

			// Every predicate must match nothing, never widen to admin.
			for _, got := range []string{
				first(s.TicketPredicate("t")),
				first(s.CommentPredicate("cm")),
				first(s.ProjectPredicate("p")),
			} {
				assert.Equal(t, "1 = 0", got)
			}
		})
	}
}

func TestProjectPredicate(t *testing.T) {
	t.Run("EmployeeUsesMembership", func(t *testing.T) {
		s := Resolve(Identity{UserID: 42, OrganizationID: 1, Role: models.RoleEmployee})
		frag, args := s.ProjectPredicate("p")
		assert.Contains(t, frag, "project_memberships")
		assert.Equal(t, []any{int64(42)}, args)
	})

	t.Run("ClientBoundToOwnClient", func(t *testing.T) {
		s := Resolve(Identity{UserID: 9, OrganizationID: 1, Role: models.RoleClient, ClientID: clientID(3)})
		frag, args := s.ProjectPredicate("p")
		assert.Equal(t, "p.client_id = ?", frag)
		assert.Equal(t, []any{int64(3)}, args)
	})
}

// TestTicketPredicateStableAcrossCallers guards the metrics/listing parity
// property: the fragment handed to the dashboard must be byte-identical to
// the one handed to the ticket listing for the same scope.
func TestTicketPredicateStableAcrossCallers(t *testing.T) {
	for _, id := range []Identity{
		{UserID: 7, OrganizationID: 1, Role: models.RoleAdmin},
		{UserID: 42, OrganizationID: 1, Role: models.RoleEmployee},
		{UserID: 9, OrganizationID: 1, Role: models.RoleClient, ClientID: clientID(3)},
	} {
		s := Resolve(id)
		fragA, argsA := s.TicketPredicate("t")
		fragB, argsB := s.TicketPredicate("t")
		assert.Equal(t, fragA, fragB)
		assert.Equal(t, argsA, argsB)
	}
}

func first(frag string, _ []any) string { return frag }
