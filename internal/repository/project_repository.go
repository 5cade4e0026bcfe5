package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

// ProjectRepository handles projects and project memberships. Membership
// flags (can_raise, can_be_assigned) gate writes only; they never affect
// read visibility.
type ProjectRepository interface {
	List(ctx context.Context, sc scope.Scope) ([]models.Project, error)
	GetByID(ctx context.Context, sc scope.Scope, id int64) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	GetMembership(ctx context.Context, projectID, userID int64) (*models.ProjectMembership, error)
	UpsertMembership(ctx context.Context, m *models.ProjectMembership) error
	ListMemberships(ctx context.Context, projectID int64) ([]models.ProjectMembership, error)
}

// ProjectSQLRepository is the database/sql implementation of ProjectRepository.
type ProjectSQLRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sql.DB) *ProjectSQLRepository {
	return &ProjectSQLRepository{db: db}
}

// List returns the projects visible under sc, alphabetically.
func (r *ProjectSQLRepository) List(ctx context.Context, sc scope.Scope) ([]models.Project, error) {
	frag, args := sc.ProjectPredicate("p")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT p.id, p.client_id, p.name, p.created_at
		FROM projects p
		WHERE %s
		ORDER BY p.name ASC, p.id ASC`, frag))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return projects, nil
}

// GetByID fetches one visible project. Out-of-scope and missing rows are
// indistinguishable in the returned error.
func (r *ProjectSQLRepository) GetByID(ctx context.Context, sc scope.Scope, id int64) (*models.Project, error) {
	frag, scopeArgs := sc.ProjectPredicate("p")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT p.id, p.client_id, p.name, p.created_at
		FROM projects p
		WHERE p.id = ? AND %s`, frag))
	args := append([]any{id}, scopeArgs...)

	var p models.Project
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.ClientID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// Create inserts a project under its client.
func (r *ProjectSQLRepository) Create(ctx context.Context, p *models.Project) error {
	p.CreatedAt = time.Now().UTC()
	id, err := insertReturningID(ctx, r.db, `
		INSERT INTO projects (client_id, name, created_at)
		VALUES (?, ?, ?)
		RETURNING id`,
		p.ClientID, p.Name, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.ID = id
	return nil
}

// GetMembership returns the user's membership row for the project, or
// sql.ErrNoRows wrapped as apierrors.ErrNotFound when none exists.
func (r *ProjectSQLRepository) GetMembership(ctx context.Context, projectID, userID int64) (*models.ProjectMembership, error) {
	query := database.ConvertPlaceholders(`
		SELECT pm.project_id, pm.user_id, pm.role, pm.can_raise, pm.can_be_assigned, pm.created_at
		FROM project_memberships pm
		WHERE pm.project_id = ? AND pm.user_id = ?`)

	var m models.ProjectMembership
	err := r.db.QueryRowContext(ctx, query, projectID, userID).
		Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CanRaise, &m.CanBeAssigned, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// UpsertMembership inserts or replaces the (project, user) membership row.
func (r *ProjectSQLRepository) UpsertMembership(ctx context.Context, m *models.ProjectMembership) error {
	m.CreatedAt = time.Now().UTC()

	if database.IsMySQL() {
		query := database.ConvertPlaceholders(`
			INSERT INTO project_memberships (project_id, user_id, role, can_raise, can_be_assigned, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE role = VALUES(role), can_raise = VALUES(can_raise),
				can_be_assigned = VALUES(can_be_assigned)`)
		if _, err := r.db.ExecContext(ctx, query,
			m.ProjectID, m.UserID, string(m.Role), m.CanRaise, m.CanBeAssigned, m.CreatedAt); err != nil {
			return fmt.Errorf("failed to upsert membership: %w", err)
		}
		return nil
	}

	query := database.ConvertPlaceholders(`
		INSERT INTO project_memberships (project_id, user_id, role, can_raise, can_be_assigned, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role,
			can_raise = EXCLUDED.can_raise, can_be_assigned = EXCLUDED.can_be_assigned`)
	if _, err := r.db.ExecContext(ctx, query,
		m.ProjectID, m.UserID, string(m.Role), m.CanRaise, m.CanBeAssigned, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// ListMemberships returns all membership rows of a project.
func (r *ProjectSQLRepository) ListMemberships(ctx context.Context, projectID int64) ([]models.ProjectMembership, error) {
	query := database.ConvertPlaceholders(`
		SELECT pm.project_id, pm.user_id, pm.role, pm.can_raise, pm.can_be_assigned, pm.created_at
		FROM project_memberships pm
		WHERE pm.project_id = ?
		ORDER BY pm.user_id ASC`)

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.ProjectMembership
	for rows.Next() {
		var m models.ProjectMembership
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CanRaise, &m.CanBeAssigned, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return memberships, nil
}
