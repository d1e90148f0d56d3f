package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so audit entries can
// be written inside the same transaction as the state change they record.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides append-only access to the compliance audit log
type Repository struct {
	db DBTX
}

// NewRepository creates a new audit repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Create appends an audit entry
func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ActorType == "" {
		entry.ActorType = ActorUser
	}

	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO compliance_audit_log (
			id, project_id, event_type, entity_type, entity_id,
			user_id, actor_type, action, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return r.db.QueryRow(ctx, query,
		entry.ID,
		entry.ProjectID,
		entry.EventType,
		entry.EntityType,
		entry.EntityID,
		entry.UserID,
		entry.ActorType,
		entry.Action,
		details,
	).Scan(&entry.CreatedAt)
}

// CreateTx appends an audit entry using the given transaction
func (r *Repository) CreateTx(ctx context.Context, tx DBTX, entry *Entry) error {
	return (&Repository{db: tx}).Create(ctx, entry)
}

// ListByEntity returns audit entries for an entity, newest first
func (r *Repository) ListByEntity(ctx context.Context, projectID uuid.UUID, entityType, entityID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, project_id, event_type, entity_type, entity_id,
		       user_id, actor_type, action, details, created_at
		FROM compliance_audit_log
		WHERE project_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, projectID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByProject returns recent audit entries for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID, eventType string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, project_id, event_type, entity_type, entity_id,
		       user_id, actor_type, action, details, created_at
		FROM compliance_audit_log
		WHERE project_id = $1
	`
	args := []interface{}{projectID}

	if eventType != "" {
		query += ` AND event_type = $2 ORDER BY created_at DESC LIMIT $3`
		args = append(args, eventType, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var details []byte
		err := rows.Scan(
			&entry.ID, &entry.ProjectID, &entry.EventType, &entry.EntityType,
			&entry.EntityID, &entry.UserID, &entry.ActorType, &entry.Action,
			&details, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
