package clause

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides contract clause data access
type Repository struct {
	db DBTX
}

// NewRepository creates a new clause repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx DBTX) *Repository {
	return &Repository{db: tx}
}

const clauseColumns = `
	id, project_id, kind, title, content, section_ref,
	deadline_days, deadline_type, notice_method, trigger_event,
	cure_period_days, cure_period_type, flow_down_provisions, parent_clause_ref,
	requires_review, review_reason, confirmed, confirmed_at, confirmed_by,
	ai_extracted, ai_model, source_doc_id, created_at, updated_at
`

// Create inserts a clause
func (r *Repository) Create(ctx context.Context, c *Clause) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	query := `
		INSERT INTO contract_clauses (
			id, project_id, kind, title, content, section_ref,
			deadline_days, deadline_type, notice_method, trigger_event,
			cure_period_days, cure_period_type, flow_down_provisions, parent_clause_ref,
			requires_review, review_reason, ai_extracted, ai_model, source_doc_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.ProjectID, c.Kind, c.Title, c.Content, c.SectionRef,
		c.DeadlineDays, c.DeadlineType, c.NoticeMethod, c.Trigger,
		c.CurePeriodDays, c.CurePeriodType, c.FlowDownProvisions, c.ParentClauseRef,
		c.RequiresReview, c.ReviewReason, c.AIExtracted, c.AIModel, c.SourceDocID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create clause: %w", err)
	}
	return nil
}

// GetByID retrieves a clause scoped to a project
func (r *Repository) GetByID(ctx context.Context, projectID, clauseID uuid.UUID) (*Clause, error) {
	query := `SELECT ` + clauseColumns + ` FROM contract_clauses WHERE id = $1 AND project_id = $2`

	c := &Clause{}
	err := scanClause(r.db.QueryRow(ctx, query, clauseID, projectID), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClauseNotFound
		}
		return nil, fmt.Errorf("get clause: %w", err)
	}
	return c, nil
}

// ListByProject returns clauses for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID, kind *Kind, confirmedOnly bool) ([]*Clause, error) {
	query := `SELECT ` + clauseColumns + ` FROM contract_clauses WHERE project_id = $1`
	args := []interface{}{projectID}
	argNum := 2

	if kind != nil {
		query += fmt.Sprintf(` AND kind = $%d`, argNum)
		args = append(args, *kind)
		argNum++
	}
	if confirmedOnly {
		query += ` AND confirmed = TRUE`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clauses: %w", err)
	}
	defer rows.Close()

	return scanClauses(rows)
}

// ListTriggerable returns clauses of the given kinds that carry deadline
// parameters, used by the trigger adapter.
func (r *Repository) ListTriggerable(ctx context.Context, projectID uuid.UUID, kinds []Kind) ([]*Clause, error) {
	kindStrings := make([]string, len(kinds))
	for i, k := range kinds {
		kindStrings[i] = string(k)
	}

	query := `SELECT ` + clauseColumns + `
		FROM contract_clauses
		WHERE project_id = $1 AND kind = ANY($2) AND deadline_days IS NOT NULL
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, projectID, kindStrings)
	if err != nil {
		return nil, fmt.Errorf("list triggerable clauses: %w", err)
	}
	defer rows.Close()

	return scanClauses(rows)
}

// DeleteAIExtracted removes prior AI-extracted clauses for a source
// document so re-extraction replaces them. Clauses from other documents
// are untouched.
func (r *Repository) DeleteAIExtracted(ctx context.Context, projectID, sourceDocID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM contract_clauses
		WHERE project_id = $1 AND source_doc_id = $2 AND ai_extracted = TRUE
	`, projectID, sourceDocID)
	if err != nil {
		return 0, fmt.Errorf("delete extracted clauses: %w", err)
	}
	return result.RowsAffected(), nil
}

// Confirm marks a clause as reviewed and accurate. Confirmation is a
// one-way latch and clears requiresReview.
func (r *Repository) Confirm(ctx context.Context, projectID, clauseID, userID uuid.UUID) (*Clause, error) {
	query := `
		UPDATE contract_clauses
		SET confirmed = TRUE, confirmed_at = NOW(), confirmed_by = $3,
		    requires_review = FALSE, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
		RETURNING ` + clauseColumns

	c := &Clause{}
	err := scanClause(r.db.QueryRow(ctx, query, clauseID, projectID, userID), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClauseNotFound
		}
		return nil, fmt.Errorf("confirm clause: %w", err)
	}
	return c, nil
}

// Search returns clauses matching the search term in title, content,
// section reference, or trigger.
func (r *Repository) Search(ctx context.Context, projectID uuid.UUID, term string, limit int) ([]*Clause, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + clauseColumns + `
		FROM contract_clauses
		WHERE project_id = $1 AND (
			title ILIKE $2 OR content ILIKE $2 OR section_ref ILIKE $2 OR trigger_event ILIKE $2
		)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, projectID, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search clauses: %w", err)
	}
	defer rows.Close()

	return scanClauses(rows)
}

func scanClause(row pgx.Row, c *Clause) error {
	return row.Scan(
		&c.ID, &c.ProjectID, &c.Kind, &c.Title, &c.Content, &c.SectionRef,
		&c.DeadlineDays, &c.DeadlineType, &c.NoticeMethod, &c.Trigger,
		&c.CurePeriodDays, &c.CurePeriodType, &c.FlowDownProvisions, &c.ParentClauseRef,
		&c.RequiresReview, &c.ReviewReason, &c.Confirmed, &c.ConfirmedAt, &c.ConfirmedBy,
		&c.AIExtracted, &c.AIModel, &c.SourceDocID, &c.CreatedAt, &c.UpdatedAt,
	)
}

func scanClauses(rows pgx.Rows) ([]*Clause, error) {
	var clauses []*Clause
	for rows.Next() {
		c := &Clause{}
		err := rows.Scan(
			&c.ID, &c.ProjectID, &c.Kind, &c.Title, &c.Content, &c.SectionRef,
			&c.DeadlineDays, &c.DeadlineType, &c.NoticeMethod, &c.Trigger,
			&c.CurePeriodDays, &c.CurePeriodType, &c.FlowDownProvisions, &c.ParentClauseRef,
			&c.RequiresReview, &c.ReviewReason, &c.Confirmed, &c.ConfirmedAt, &c.ConfirmedBy,
			&c.AIExtracted, &c.AIModel, &c.SourceDocID, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan clause: %w", err)
		}
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}
