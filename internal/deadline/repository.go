package deadline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/efilo/compliance/internal/severity"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides compliance deadline data access
type Repository struct {
	db DBTX
}

// NewRepository creates a new deadline repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx DBTX) *Repository {
	return &Repository{db: tx}
}

const deadlineColumns = `
	d.id, d.project_id, d.clause_id,
	d.trigger_event_type, d.trigger_event_id, d.trigger_description, d.triggered_at, d.triggered_by,
	d.calculated_deadline, d.cure_deadline, d.deadline_timezone,
	d.status, d.severity,
	d.notice_id, d.notice_created_at,
	d.waived_at, d.waived_by, d.waiver_reason,
	d.created_at, d.updated_at
`

// Create inserts a deadline
func (r *Repository) Create(ctx context.Context, d *Deadline) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DeadlineTimezone == "" {
		d.DeadlineTimezone = DefaultTimezone
	}

	query := `
		INSERT INTO compliance_deadlines (
			id, project_id, clause_id,
			trigger_event_type, trigger_event_id, trigger_description, triggered_at, triggered_by,
			calculated_deadline, cure_deadline, deadline_timezone, status, severity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		d.ID, d.ProjectID, d.ClauseID,
		d.TriggerEventType, d.TriggerEventID, d.TriggerDescription,
		d.TriggeredAt.UTC(), d.TriggeredBy,
		d.CalculatedDeadline.UTC(), utcPtr(d.CureDeadline), d.DeadlineTimezone,
		d.Status, d.Severity,
	).Scan(&d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}
	return nil
}

// GetByID retrieves a deadline scoped to a project
func (r *Repository) GetByID(ctx context.Context, projectID, deadlineID uuid.UUID) (*Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM compliance_deadlines d WHERE d.id = $1 AND d.project_id = $2`

	d := &Deadline{}
	err := scanDeadline(r.db.QueryRow(ctx, query, deadlineID, projectID), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("get deadline: %w", err)
	}
	return d, nil
}

// GetByNoticeID retrieves the deadline linked to a notice
func (r *Repository) GetByNoticeID(ctx context.Context, projectID, noticeID uuid.UUID) (*Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM compliance_deadlines d WHERE d.notice_id = $1 AND d.project_id = $2`

	d := &Deadline{}
	err := scanDeadline(r.db.QueryRow(ctx, query, noticeID, projectID), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("get deadline by notice: %w", err)
	}
	return d, nil
}

// ListByProject returns deadlines with clause info, soonest first
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID, status *Status, sev *severity.Severity) ([]*Deadline, error) {
	query := `
		SELECT ` + deadlineColumns + `, c.title, c.kind, c.section_ref
		FROM compliance_deadlines d
		JOIN contract_clauses c ON d.clause_id = c.id
		WHERE d.project_id = $1
	`
	args := []interface{}{projectID}
	argNum := 2

	if status != nil {
		query += fmt.Sprintf(` AND d.status = $%d`, argNum)
		args = append(args, *status)
		argNum++
	}
	if sev != nil {
		query += fmt.Sprintf(` AND d.severity = $%d`, argNum)
		args = append(args, *sev)
	}

	query += ` ORDER BY d.calculated_deadline ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []*Deadline
	for rows.Next() {
		d := &Deadline{}
		if err := scanDeadlineWithClause(rows, d); err != nil {
			return nil, err
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// ListOpen returns a project's deadlines in OpenStatuses (ACTIVE and
// NOTICE_DRAFTED), used by the severity pass and scoring. NOTICE_SENT and
// ACKNOWLEDGED deadlines are not terminal but are not returned.
func (r *Repository) ListOpen(ctx context.Context, projectID uuid.UUID) ([]*Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM compliance_deadlines d
		WHERE d.project_id = $1 AND d.status = ANY($2)
		ORDER BY d.calculated_deadline ASC
	`

	rows, err := r.db.Query(ctx, query, projectID, statusStrings(OpenStatuses))
	if err != nil {
		return nil, fmt.Errorf("list open deadlines: %w", err)
	}
	defer rows.Close()

	return scanDeadlines(rows)
}

// ListUpcoming returns open deadlines due before the cutoff, soonest
// first, capped at limit. Used by the weekly digest.
func (r *Repository) ListUpcoming(ctx context.Context, projectID uuid.UUID, cutoff time.Time, limit int) ([]*Deadline, error) {
	query := `
		SELECT ` + deadlineColumns + `, c.title, c.kind, c.section_ref
		FROM compliance_deadlines d
		JOIN contract_clauses c ON d.clause_id = c.id
		WHERE d.project_id = $1 AND d.status = 'ACTIVE' AND d.calculated_deadline <= $2
		ORDER BY d.calculated_deadline ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, projectID, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []*Deadline
	for rows.Next() {
		d := &Deadline{}
		if err := scanDeadlineWithClause(rows, d); err != nil {
			return nil, err
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// ProjectIDsWithOpenDeadlines returns distinct project IDs that still
// have deadlines in OpenStatuses (ACTIVE or NOTICE_DRAFTED), used by the
// hourly severity pass.
func (r *Repository) ProjectIDsWithOpenDeadlines(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT project_id FROM compliance_deadlines WHERE status = ANY($1)
	`, statusStrings(OpenStatuses))
	if err != nil {
		return nil, fmt.Errorf("query projects with open deadlines: %w", err)
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

// FindExisting returns a non-terminal deadline matching the idempotency
// tuple (projectId, clauseId, triggerEventId, triggerEventType), or nil.
func (r *Repository) FindExisting(ctx context.Context, projectID, clauseID uuid.UUID, triggerEventID string, triggerType TriggerEventType) (*Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM compliance_deadlines d
		WHERE d.project_id = $1 AND d.clause_id = $2
		  AND d.trigger_event_id = $3 AND d.trigger_event_type = $4
		  AND d.status NOT IN ('EXPIRED', 'WAIVED', 'COMPLETED')
		LIMIT 1
	`

	d := &Deadline{}
	err := scanDeadline(r.db.QueryRow(ctx, query, projectID, clauseID, triggerEventID, triggerType), d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find existing deadline: %w", err)
	}
	return d, nil
}

// UpdateStatus sets a deadline's status and, for notice transitions, the
// notice linkage columns.
func (r *Repository) UpdateStatus(ctx context.Context, projectID, deadlineID uuid.UUID, status Status, noticeID *uuid.UUID, noticeCreatedAt *time.Time) error {
	query := `
		UPDATE compliance_deadlines
		SET status = $3, notice_id = $4, notice_created_at = $5, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`

	result, err := r.db.Exec(ctx, query, deadlineID, projectID, status, noticeID, utcPtr(noticeCreatedAt))
	if err != nil {
		return fmt.Errorf("update deadline status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeadlineNotFound
	}
	return nil
}

// UpdateSeverity sets severity and, when expiring, flips status in the
// same statement.
func (r *Repository) UpdateSeverity(ctx context.Context, deadlineID uuid.UUID, sev severity.Severity, status Status) error {
	result, err := r.db.Exec(ctx, `
		UPDATE compliance_deadlines
		SET severity = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, deadlineID, sev, status)
	if err != nil {
		return fmt.Errorf("update deadline severity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeadlineNotFound
	}
	return nil
}

// Waive marks a deadline waived with reason tracking and forces severity
// to LOW. Waiving an already-waived deadline is a no-op returning the
// unchanged row.
func (r *Repository) Waive(ctx context.Context, projectID, deadlineID, userID uuid.UUID, reason string, now time.Time) (*Deadline, bool, error) {
	existing, err := r.GetByID(ctx, projectID, deadlineID)
	if err != nil {
		return nil, false, err
	}
	if existing.Status == StatusWaived {
		return existing, false, nil
	}

	query := `
		UPDATE compliance_deadlines
		SET status = 'WAIVED', severity = 'LOW',
		    waived_at = $3, waived_by = $4, waiver_reason = $5, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
		RETURNING ` + deadlineAliasStrip

	d := &Deadline{}
	err = scanDeadline(r.db.QueryRow(ctx, query, deadlineID, projectID, now.UTC(), userID, reason), d)
	if err != nil {
		return nil, false, fmt.Errorf("waive deadline: %w", err)
	}
	return d, true, nil
}

// Search returns deadlines whose trigger description matches the term
func (r *Repository) Search(ctx context.Context, projectID uuid.UUID, term string, status, sev string, limit int) ([]*Deadline, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + deadlineColumns + `, c.title, c.kind, c.section_ref
		FROM compliance_deadlines d
		JOIN contract_clauses c ON d.clause_id = c.id
		WHERE d.project_id = $1 AND d.trigger_description ILIKE $2
	`
	args := []interface{}{projectID, "%" + term + "%"}
	argNum := 3

	if status != "" {
		query += fmt.Sprintf(` AND d.status = $%d`, argNum)
		args = append(args, status)
		argNum++
	}
	if sev != "" {
		query += fmt.Sprintf(` AND d.severity = $%d`, argNum)
		args = append(args, sev)
		argNum++
	}

	query += fmt.Sprintf(` ORDER BY d.calculated_deadline ASC LIMIT $%d`, argNum)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []*Deadline
	for rows.Next() {
		d := &Deadline{}
		if err := scanDeadlineWithClause(rows, d); err != nil {
			return nil, err
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// deadlineAliasStrip is the RETURNING column list (no table alias)
const deadlineAliasStrip = `
	id, project_id, clause_id,
	trigger_event_type, trigger_event_id, trigger_description, triggered_at, triggered_by,
	calculated_deadline, cure_deadline, deadline_timezone,
	status, severity,
	notice_id, notice_created_at,
	waived_at, waived_by, waiver_reason,
	created_at, updated_at
`

func scanDeadline(row pgx.Row, d *Deadline) error {
	return row.Scan(
		&d.ID, &d.ProjectID, &d.ClauseID,
		&d.TriggerEventType, &d.TriggerEventID, &d.TriggerDescription, &d.TriggeredAt, &d.TriggeredBy,
		&d.CalculatedDeadline, &d.CureDeadline, &d.DeadlineTimezone,
		&d.Status, &d.Severity,
		&d.NoticeID, &d.NoticeCreatedAt,
		&d.WaivedAt, &d.WaivedBy, &d.WaiverReason,
		&d.CreatedAt, &d.UpdatedAt,
	)
}

func scanDeadlineWithClause(row pgx.Row, d *Deadline) error {
	return row.Scan(
		&d.ID, &d.ProjectID, &d.ClauseID,
		&d.TriggerEventType, &d.TriggerEventID, &d.TriggerDescription, &d.TriggeredAt, &d.TriggeredBy,
		&d.CalculatedDeadline, &d.CureDeadline, &d.DeadlineTimezone,
		&d.Status, &d.Severity,
		&d.NoticeID, &d.NoticeCreatedAt,
		&d.WaivedAt, &d.WaivedBy, &d.WaiverReason,
		&d.CreatedAt, &d.UpdatedAt,
		&d.ClauseTitle, &d.ClauseKind, &d.ClauseSectionRef,
	)
}

func scanDeadlines(rows pgx.Rows) ([]*Deadline, error) {
	var deadlines []*Deadline
	for rows.Next() {
		d := &Deadline{}
		if err := scanDeadline(rows, d); err != nil {
			return nil, fmt.Errorf("scan deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
