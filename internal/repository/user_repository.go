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
)

// UserRepository handles user accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetInOrganization(ctx context.Context, organizationID, id int64) (*models.User, error)
	List(ctx context.Context, organizationID int64) ([]models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// UserSQLRepository is the database/sql implementation of UserRepository.
type UserSQLRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserSQLRepository {
	return &UserSQLRepository{db: db}
}

const userColumns = `u.id, u.organization_id, u.client_id, u.email, u.name, u.role, u.password_hash, u.created_at`

func scanUser(s scanner, u *models.User) error {
	return s.Scan(&u.ID, &u.OrganizationID, &u.ClientID, &u.Email, &u.Name, &u.Role,
		&u.PasswordHash, &u.CreatedAt)
}

// GetByEmail looks a user up by email for login. Email is unique across
// organizations.
func (r *UserSQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s FROM users u WHERE u.email = ?`, userColumns))

	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, query, email), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetByID fetches a user without tenant filtering. Auth middleware uses it to
// rehydrate the token subject; everything tenant-facing goes through
// GetInOrganization.
func (r *UserSQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s FROM users u WHERE u.id = ?`, userColumns))

	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, query, id), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetInOrganization fetches a user constrained to the caller's organization.
func (r *UserSQLRepository) GetInOrganization(ctx context.Context, organizationID, id int64) (*models.User, error) {
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s FROM users u WHERE u.id = ? AND u.organization_id = ?`, userColumns))

	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, query, id, organizationID), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// List returns the organization's users ordered by name.
func (r *UserSQLRepository) List(ctx context.Context, organizationID int64) ([]models.User, error) {
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s FROM users u
		WHERE u.organization_id = ?
		ORDER BY u.name ASC, u.id ASC`, userColumns))

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

// Create inserts a user. The caller has already validated the role/client_id
// pairing and hashed the password. A duplicate email is a client error, not
// an internal one.
func (r *UserSQLRepository) Create(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now().UTC()
	id, err := insertReturningID(ctx, r.db, `
		INSERT INTO users (organization_id, client_id, email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.OrganizationID, u.ClientID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return apierrors.WithCode(apierrors.ErrBadRequest, apierrors.CodeConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID = id
	return nil
}
