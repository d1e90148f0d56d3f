package notice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

// Repository provides compliance notice data access
type Repository struct {
	db DBTX
}

// NewRepository creates a new notice repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx DBTX) *Repository {
	return &Repository{db: tx}
}

const noticeColumns = `
	id, project_id, type, status, title, content,
	recipient_name, recipient_email,
	due_date, sent_at, delivered_at, acknowledged_at,
	clause_id, delivery_methods, delivery_confirmation, on_time_status,
	generated_by_ai, ai_model, created_by_id, created_at, updated_at
`

// Create inserts a notice in DRAFT
func (r *Repository) Create(ctx context.Context, n *Notice) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusDraft
	}
	if n.DeliveryMethods == nil {
		n.DeliveryMethods = []string{}
	}

	query := `
		INSERT INTO compliance_notices (
			id, project_id, type, status, title, content,
			recipient_name, recipient_email, due_date, clause_id,
			delivery_methods, generated_by_ai, ai_model, created_by_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID, n.ProjectID, n.Type, n.Status, n.Title, n.Content,
		n.RecipientName, n.RecipientEmail, utcPtr(n.DueDate), n.ClauseID,
		n.DeliveryMethods, n.GeneratedByAI, n.AIModel, n.CreatedByID,
	).Scan(&n.CreatedAt, &n.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// GetByID retrieves a notice scoped to a project
func (r *Repository) GetByID(ctx context.Context, projectID, noticeID uuid.UUID) (*Notice, error) {
	query := `SELECT ` + noticeColumns + ` FROM compliance_notices WHERE id = $1 AND project_id = $2`

	n := &Notice{}
	err := scanNotice(r.db.QueryRow(ctx, query, noticeID, projectID), n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoticeNotFound
		}
		return nil, fmt.Errorf("get notice: %w", err)
	}
	return n, nil
}

// ListByProject returns notices for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID, status *Status, noticeType *Type) ([]*Notice, error) {
	query := `SELECT ` + noticeColumns + ` FROM compliance_notices WHERE project_id = $1`
	args := []interface{}{projectID}
	argNum := 2

	if status != nil {
		query += fmt.Sprintf(` AND status = $%d`, argNum)
		args = append(args, *status)
		argNum++
	}
	if noticeType != nil {
		query += fmt.Sprintf(` AND type = $%d`, argNum)
		args = append(args, *noticeType)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	return scanNotices(rows)
}

// ListSettled returns notices in SENT or ACKNOWLEDGED, the scoring input
func (r *Repository) ListSettled(ctx context.Context, projectID uuid.UUID) ([]*Notice, error) {
	query := `SELECT ` + noticeColumns + `
		FROM compliance_notices
		WHERE project_id = $1 AND status IN ('SENT', 'ACKNOWLEDGED')
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list settled notices: %w", err)
	}
	defer rows.Close()

	return scanNotices(rows)
}

// UpdateContent updates editable fields. Callers enforce the state rule.
func (r *Repository) UpdateContent(ctx context.Context, n *Notice) error {
	query := `
		UPDATE compliance_notices
		SET title = $3, content = $4, recipient_name = $5, recipient_email = $6,
		    due_date = $7, status = $8, acknowledged_at = $9, on_time_status = $10,
		    generated_by_ai = $11, ai_model = $12, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID, n.ProjectID, n.Title, n.Content, n.RecipientName, n.RecipientEmail,
		utcPtr(n.DueDate), n.Status, utcPtr(n.AcknowledgedAt), n.OnTimeStatus,
		n.GeneratedByAI, n.AIModel,
	).Scan(&n.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoticeNotFound
		}
		return fmt.Errorf("update notice: %w", err)
	}
	return nil
}

// MarkSent records the SENT transition: sentAt, deliveredAt (when the
// transport succeeded), the EMAIL delivery method, and the frozen
// onTimeStatus.
func (r *Repository) MarkSent(ctx context.Context, n *Notice) error {
	query := `
		UPDATE compliance_notices
		SET status = 'SENT', sent_at = $3, delivered_at = $4,
		    delivery_methods = $5, on_time_status = $6, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID, n.ProjectID, utcPtr(n.SentAt), utcPtr(n.DeliveredAt),
		n.DeliveryMethods, n.OnTimeStatus,
	).Scan(&n.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoticeNotFound
		}
		return fmt.Errorf("mark notice sent: %w", err)
	}
	return nil
}

// RecordDelivery persists a delivery confirmation and the ACKNOWLEDGED
// transition.
func (r *Repository) RecordDelivery(ctx context.Context, n *Notice) error {
	confirmation, err := json.Marshal(n.DeliveryConfirmation)
	if err != nil {
		return fmt.Errorf("marshal delivery confirmation: %w", err)
	}

	query := `
		UPDATE compliance_notices
		SET status = 'ACKNOWLEDGED', delivered_at = $3, acknowledged_at = $4,
		    delivery_methods = $5, delivery_confirmation = $6, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		n.ID, n.ProjectID, utcPtr(n.DeliveredAt), utcPtr(n.AcknowledgedAt),
		n.DeliveryMethods, confirmation,
	).Scan(&n.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoticeNotFound
		}
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Delete removes a notice. Callers enforce the state rule.
func (r *Repository) Delete(ctx context.Context, projectID, noticeID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM compliance_notices WHERE id = $1 AND project_id = $2`,
		noticeID, projectID,
	)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoticeNotFound
	}
	return nil
}

// CountSentSince counts settled notices sent within the period window
func (r *Repository) CountSentSince(ctx context.Context, projectID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM compliance_notices
		WHERE project_id = $1 AND sent_at >= $2 AND status IN ('SENT', 'ACKNOWLEDGED')
	`, projectID, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sent notices: %w", err)
	}
	return count, nil
}

// Search returns notices matching the term in title or content
func (r *Repository) Search(ctx context.Context, projectID uuid.UUID, term string, limit int) ([]*Notice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + noticeColumns + `
		FROM compliance_notices
		WHERE project_id = $1 AND (title ILIKE $2 OR content ILIKE $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, projectID, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search notices: %w", err)
	}
	defer rows.Close()

	return scanNotices(rows)
}

func scanNotice(row pgx.Row, n *Notice) error {
	var confirmation []byte
	err := row.Scan(
		&n.ID, &n.ProjectID, &n.Type, &n.Status, &n.Title, &n.Content,
		&n.RecipientName, &n.RecipientEmail,
		&n.DueDate, &n.SentAt, &n.DeliveredAt, &n.AcknowledgedAt,
		&n.ClauseID, &n.DeliveryMethods, &confirmation, &n.OnTimeStatus,
		&n.GeneratedByAI, &n.AIModel, &n.CreatedByID, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(confirmation) > 0 {
		if err := json.Unmarshal(confirmation, &n.DeliveryConfirmation); err != nil {
			return fmt.Errorf("unmarshal delivery confirmation: %w", err)
		}
	}
	if n.DeliveryMethods == nil {
		n.DeliveryMethods = []string{}
	}
	return nil
}

func scanNotices(rows pgx.Rows) ([]*Notice, error) {
	var notices []*Notice
	for rows.Next() {
		n := &Notice{}
		if err := scanNotice(rows, n); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
