package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

func adminScope() scope.Scope {
	return scope.Resolve(scope.Identity{UserID: 1, OrganizationID: 10, Role: models.RoleAdmin})
}

func employeeScope() scope.Scope {
	return scope.Resolve(scope.Identity{UserID: 7, OrganizationID: 10, Role: models.RoleEmployee})
}

func clientScope() scope.Scope {
	cid := int64(42)
	return scope.Resolve(scope.Identity{UserID: 9, OrganizationID: 10, Role: models.RoleClient, ClientID: &cid})
}

func TestTicketService_CreateRequiresRaisePermission(t *testing.T) {
	projects := &fakeProjectRepo{
		project:    &models.Project{ID: 3, ClientID: 42, Name: "Portal"},
		membership: &models.ProjectMembership{ProjectID: 3, UserID: 7, Role: models.MembershipViewer, CanRaise: false},
	}
	svc := NewTicketService(nil, nil, projects, nil, nil, nil)

	_, err := svc.Create(context.Background(), employeeScope(), CreateTicketInput{
		ProjectID:  3,
		Title:      "Broken export",
		StatusID:   1,
		PriorityID: 1,
	})
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Equal(t, apierrors.CodeRaiseNotPermitted, apierrors.CodeForError(err))
}

func TestTicketService_CreateMissingMembershipSameError(t *testing.T) {
	projects := &fakeProjectRepo{
		project: &models.Project{ID: 3, ClientID: 42, Name: "Portal"},
	}
	svc := NewTicketService(nil, nil, projects, nil, nil, nil)

	_, err := svc.Create(context.Background(), employeeScope(), CreateTicketInput{
		ProjectID:  3,
		Title:      "Broken export",
		StatusID:   1,
		PriorityID: 1,
	})
	require.Equal(t, apierrors.CodeRaiseNotPermitted, apierrors.CodeForError(err))
}

func TestTicketService_CreateRejectsClientAssignee(t *testing.T) {
	cid := int64(42)
	projects := &fakeProjectRepo{
		project:    &models.Project{ID: 3, ClientID: 42, Name: "Portal"},
		membership: &models.ProjectMembership{ProjectID: 3, UserID: 9, Role: models.MembershipMember, CanBeAssigned: true},
	}
	users := &fakeUserRepo{users: map[int64]*models.User{
		9: {ID: 9, OrganizationID: 10, ClientID: &cid, Role: models.RoleClient},
	}}
	svc := NewTicketService(nil, nil, projects, users, nil, nil)

	assignee := int64(9)
	_, err := svc.Create(context.Background(), adminScope(), CreateTicketInput{
		ProjectID:        3,
		Title:            "Broken export",
		StatusID:         1,
		PriorityID:       1,
		AssignedToUserID: &assignee,
	})
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Equal(t, apierrors.CodeAssigneeNotEligible, apierrors.CodeForError(err))
}

func TestTicketService_CreateRejectsAssigneeWithoutFlag(t *testing.T) {
	projects := &fakeProjectRepo{
		project:    &models.Project{ID: 3, ClientID: 42, Name: "Portal"},
		membership: &models.ProjectMembership{ProjectID: 3, UserID: 8, Role: models.MembershipMember, CanBeAssigned: false},
	}
	users := &fakeUserRepo{users: map[int64]*models.User{
		8: {ID: 8, OrganizationID: 10, Role: models.RoleEmployee},
	}}
	svc := NewTicketService(nil, nil, projects, users, nil, nil)

	assignee := int64(8)
	_, err := svc.Create(context.Background(), adminScope(), CreateTicketInput{
		ProjectID:        3,
		Title:            "Broken export",
		StatusID:         1,
		PriorityID:       1,
		AssignedToUserID: &assignee,
	})
	require.Equal(t, apierrors.CodeAssigneeNotEligible, apierrors.CodeForError(err))
}

func TestTicketService_CreateInvisibleProjectIsNotFound(t *testing.T) {
	svc := NewTicketService(nil, nil, &fakeProjectRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), clientScope(), CreateTicketInput{
		ProjectID:  99,
		Title:      "Broken export",
		StatusID:   1,
		PriorityID: 1,
	})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestTicketService_CreateRollsBackWhenOutboxFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	projects := &fakeProjectRepo{project: &models.Project{ID: 3, ClientID: 42, Name: "Portal"}}
	svc := NewTicketService(db,
		repository.NewTicketRepository(db),
		projects,
		repository.NewUserRepository(db),
		repository.NewEventRepository(db),
		repository.NewOutboxRepository(db))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tickets`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(55)))
	mock.ExpectQuery(`INSERT INTO ticket_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(70)))
	mock.ExpectQuery(`INSERT INTO outbox_notifications`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = svc.Create(context.Background(), adminScope(), CreateTicketInput{
		ProjectID:  3,
		Title:      "Broken export",
		StatusID:   1,
		PriorityID: 1,
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_UpdateEmptyPatchRejected(t *testing.T) {
	svc := NewTicketService(nil, nil, nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), adminScope(), 1, models.TicketPatch{})
	require.ErrorIs(t, err, apierrors.ErrBadRequest)
}

func TestTicketService_UpdateClientCannotChangeStatus(t *testing.T) {
	svc := NewTicketService(nil, nil, nil, nil, nil, nil)

	status := int64(2)
	_, err := svc.Update(context.Background(), clientScope(), 1, models.TicketPatch{StatusID: &status})
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Equal(t, apierrors.CodeStatusChangeForbidden, apierrors.CodeForError(err))
}

func TestTicketService_UpdateClientCannotReassign(t *testing.T) {
	svc := NewTicketService(nil, nil, nil, nil, nil, nil)

	assignee := int64(8)
	_, err := svc.Update(context.Background(), clientScope(), 1, models.TicketPatch{AssignedToUserID: &assignee})
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestTicketService_UpdateRecordsChangeEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewTicketService(db,
		repository.NewTicketRepository(db),
		&fakeProjectRepo{},
		repository.NewUserRepository(db),
		repository.NewEventRepository(db),
		repository.NewOutboxRepository(db))

	now := time.Now()
	cols := []string{"id", "project_id", "title", "description", "status_id", "priority_id",
		"raised_by_user_id", "assigned_to_user_id", "is_deleted", "created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT .* FROM tickets t.*WHERE t\.id = \$1`).
		WithArgs(int64(55), int64(10)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(55), int64(3), "Broken export", "", int64(1), int64(1), int64(9), nil, false, now, now))
	mock.ExpectExec(`UPDATE tickets`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO ticket_events`).
		WithArgs(int64(55), int64(1), "STATUS_CHANGED", "1", "2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(71)))
	mock.ExpectQuery(`INSERT INTO outbox_notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(80)))
	mock.ExpectCommit()

	status := int64(2)
	updated, err := svc.Update(context.Background(), adminScope(), 55, models.TicketPatch{StatusID: &status})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.StatusID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_DeleteRequiresAdmin(t *testing.T) {
	svc := NewTicketService(nil, nil, nil, nil, nil, nil)

	err := svc.Delete(context.Background(), employeeScope(), 1)
	require.ErrorIs(t, err, apierrors.ErrForbidden)

	err = svc.Delete(context.Background(), clientScope(), 1)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}
