package service

import (
	"context"
	"strings"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// OrgService covers the directory surface: clients, projects, users, project
// memberships and the status/priority lookup tables. Mutations are
// admin-only; project and lookup listings are open to every role.
type OrgService struct {
	clients  repository.ClientRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	lookups  repository.LookupRepository
}

// NewOrgService creates an org service.
func NewOrgService(clients repository.ClientRepository, projects repository.ProjectRepository,
	users repository.UserRepository, lookups repository.LookupRepository) *OrgService {
	return &OrgService{clients: clients, projects: projects, users: users, lookups: lookups}
}

// ListStatuses returns the status lookup table. Every role needs it to
// render and raise tickets.
func (s *OrgService) ListStatuses(ctx context.Context) ([]models.TicketStatus, error) {
	return s.lookups.ListStatuses(ctx)
}

// ListPriorities returns the priority lookup table.
func (s *OrgService) ListPriorities(ctx context.Context) ([]models.TicketPriority, error) {
	return s.lookups.ListPriorities(ctx)
}

// ListClients returns the organization's clients. Admin only.
func (s *OrgService) ListClients(ctx context.Context, sc scope.Scope) ([]models.Client, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	return s.clients.List(ctx, sc.OrganizationID())
}

// CreateClient adds a client account. Admin only.
func (s *OrgService) CreateClient(ctx context.Context, sc scope.Scope, name string) (*models.Client, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	client := &models.Client{OrganizationID: sc.OrganizationID(), Name: name}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ListProjects returns the projects visible to the caller.
func (s *OrgService) ListProjects(ctx context.Context, sc scope.Scope) ([]models.Project, error) {
	return s.projects.List(ctx, sc)
}

// CreateProject adds a project under a client. Admin only; the client must
// belong to the caller's organization.
func (s *OrgService) CreateProject(ctx context.Context, sc scope.Scope, clientID int64, name string) (*models.Project, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" || clientID <= 0 {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	if _, err := s.clients.GetByID(ctx, sc.OrganizationID(), clientID); err != nil {
		return nil, err
	}
	project := &models.Project{ClientID: clientID, Name: name}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListUsers returns the organization's users. Admin only.
func (s *OrgService) ListUsers(ctx context.Context, sc scope.Scope) ([]models.User, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	return s.users.List(ctx, sc.OrganizationID())
}

// CreateUserInput carries the fields of a user creation request.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
	ClientID *int64
}

// CreateUser adds a user. Admin only. The role/client pairing is enforced
// here: CLIENT users must name a client in the organization, staff must not.
func (s *OrgService) CreateUser(ctx context.Context, sc scope.Scope, in CreateUserInput) (*models.User, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Name == "" || in.Password == "" || !in.Role.Valid() {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	if in.Role == models.RoleClient {
		if in.ClientID == nil || *in.ClientID <= 0 {
			return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
		}
		if _, err := s.clients.GetByID(ctx, sc.OrganizationID(), *in.ClientID); err != nil {
			return nil, err
		}
	} else if in.ClientID != nil {
		return nil, apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		OrganizationID: sc.OrganizationID(),
		ClientID:       in.ClientID,
		Email:          in.Email,
		Name:           in.Name,
		Role:           in.Role,
		PasswordHash:   hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetMembership creates or updates a project membership with its eligibility
// flags. Admin only. CLIENT users cannot receive can_be_assigned.
func (s *OrgService) SetMembership(ctx context.Context, sc scope.Scope, m *models.ProjectMembership) error {
	if sc.Role() != models.RoleAdmin {
		return apierrors.ErrForbidden
	}
	if !m.Role.Valid() || m.ProjectID <= 0 || m.UserID <= 0 {
		return apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	if _, err := s.projects.GetByID(ctx, sc, m.ProjectID); err != nil {
		return err
	}
	user, err := s.users.GetInOrganization(ctx, sc.OrganizationID(), m.UserID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleClient && m.CanBeAssigned {
		return apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeValidationFailed)
	}
	return s.projects.UpsertMembership(ctx, m)
}

// ListMemberships returns a project's membership rows. Admin only.
func (s *OrgService) ListMemberships(ctx context.Context, sc scope.Scope, projectID int64) ([]models.ProjectMembership, error) {
	if sc.Role() != models.RoleAdmin {
		return nil, apierrors.ErrForbidden
	}
	if _, err := s.projects.GetByID(ctx, sc, projectID); err != nil {
		return nil, err
	}
	return s.projects.ListMemberships(ctx, projectID)
}
