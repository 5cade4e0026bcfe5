package service

import (
	"context"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// In-memory fakes for rule tests that never reach a transaction.

type fakeProjectRepo struct {
	project    *models.Project
	membership *models.ProjectMembership
}

func (f *fakeProjectRepo) List(ctx context.Context, sc scope.Scope) ([]models.Project, error) {
	if f.project == nil {
		return nil, nil
	}
	return []models.Project{*f.project}, nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, sc scope.Scope, id int64) (*models.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, apierrors.ErrNotFound
	}
	return f.project, nil
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	p.ID = 1
	return nil
}

func (f *fakeProjectRepo) GetMembership(ctx context.Context, projectID, userID int64) (*models.ProjectMembership, error) {
	if f.membership == nil || f.membership.ProjectID != projectID || f.membership.UserID != userID {
		return nil, apierrors.ErrNotFound
	}
	return f.membership, nil
}

func (f *fakeProjectRepo) UpsertMembership(ctx context.Context, m *models.ProjectMembership) error {
	f.membership = m
	return nil
}

func (f *fakeProjectRepo) ListMemberships(ctx context.Context, projectID int64) ([]models.ProjectMembership, error) {
	if f.membership == nil {
		return nil, nil
	}
	return []models.ProjectMembership{*f.membership}, nil
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func (f *fakeUserRepo) byID(id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apierrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apierrors.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.byID(id)
}

func (f *fakeUserRepo) GetInOrganization(ctx context.Context, organizationID, id int64) (*models.User, error) {
	u, err := f.byID(id)
	if err != nil || u.OrganizationID != organizationID {
		return nil, apierrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) List(ctx context.Context, organizationID int64) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.OrganizationID == organizationID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	u.ID = int64(len(f.users) + 1)
	f.users[u.ID] = u
	return nil
}

var (
	_ repository.ProjectRepository = (*fakeProjectRepo)(nil)
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
)
