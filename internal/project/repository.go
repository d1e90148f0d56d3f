// Package project provides read access to the projects that own all
// compliance entities. Project CRUD itself lives outside this service.
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProjectNotFound = errors.New("project not found")

// Project is the owning entity for all compliance state. GC contact
// fields feed notice drafting and default recipients.
type Project struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	GCCompanyName  *string   `json:"gcCompanyName,omitempty"`
	GCContactName  *string   `json:"gcContactName,omitempty"`
	GCContactEmail *string   `json:"gcContactEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Repository provides project data access
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new project repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID retrieves a project by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `
		SELECT id, name, gc_company_name, gc_contact_name, gc_contact_email, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	p := &Project{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.GCCompanyName, &p.GCContactName, &p.GCContactEmail,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Exists reports whether a project exists
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	return exists, nil
}

// ListIDs returns all project IDs, used by scheduled jobs
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns all projects, used by the weekly digest job
func (r *Repository) List(ctx context.Context) ([]*Project, error) {
	query := `
		SELECT id, name, gc_company_name, gc_contact_name, gc_contact_email, created_at, updated_at
		FROM projects
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.GCCompanyName, &p.GCContactName, &p.GCContactEmail,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
