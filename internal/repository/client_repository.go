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

// ClientRepository handles client accounts. Admin-only surface, so queries
// filter by organization rather than by scope fragment.
type ClientRepository interface {
	List(ctx context.Context, organizationID int64) ([]models.Client, error)
	GetByID(ctx context.Context, organizationID, id int64) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
}

// ClientSQLRepository is the database/sql implementation of ClientRepository.
type ClientSQLRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB) *ClientSQLRepository {
	return &ClientSQLRepository{db: db}
}

// List returns the organization's clients, alphabetically.
func (r *ClientSQLRepository) List(ctx context.Context, organizationID int64) ([]models.Client, error) {
	query := database.ConvertPlaceholders(`
		SELECT c.id, c.organization_id, c.name, c.created_at
		FROM clients c
		WHERE c.organization_id = ?
		ORDER BY c.name ASC, c.id ASC`)

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return clients, nil
}

// GetByID fetches one client within the organization.
func (r *ClientSQLRepository) GetByID(ctx context.Context, organizationID, id int64) (*models.Client, error) {
	query := database.ConvertPlaceholders(`
		SELECT c.id, c.organization_id, c.name, c.created_at
		FROM clients c
		WHERE c.id = ? AND c.organization_id = ?`)

	var c models.Client
	err := r.db.QueryRowContext(ctx, query, id, organizationID).
		Scan(&c.ID, &c.OrganizationID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// Create inserts a client under its organization.
func (r *ClientSQLRepository) Create(ctx context.Context, c *models.Client) error {
	c.CreatedAt = time.Now().UTC()
	id, err := insertReturningID(ctx, r.db, `
		INSERT INTO clients (organization_id, name, created_at)
		VALUES (?, ?, ?)
		RETURNING id`,
		c.OrganizationID, c.Name, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	c.ID = id
	return nil
}
