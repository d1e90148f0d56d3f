package score

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

// Repository provides score and history data access
type Repository struct {
	db DBTX
}

// NewRepository creates a new score repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// GetCurrent returns the active score row for a project, or nil
func (r *Repository) GetCurrent(ctx context.Context, projectID uuid.UUID) (*Score, error) {
	query := `
		SELECT id, project_id, score, details, current_streak, best_streak, streak_broken_at,
		       protected_claims_value::text, at_risk_value::text,
		       on_time_count, total_count, missed_count, at_risk_count, active_count, upcoming_count,
		       last_calculated_at
		FROM compliance_scores
		WHERE project_id = $1
	`

	s := &Score{}
	var details []byte
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&s.ID, &s.ProjectID, &s.Score, &details, &s.CurrentStreak, &s.BestStreak, &s.StreakBrokenAt,
		&s.ProtectedClaimsValue, &s.AtRiskValue,
		&s.OnTimeCount, &s.TotalCount, &s.MissedCount, &s.AtRiskCount, &s.ActiveCount, &s.UpcomingCount,
		&s.LastCalculatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get score: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &s.Details); err != nil {
			return nil, fmt.Errorf("unmarshal score details: %w", err)
		}
	}
	return s, nil
}

// Upsert writes the single active score row for a project
func (r *Repository) Upsert(ctx context.Context, s *Score) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	details, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("marshal score details: %w", err)
	}

	query := `
		INSERT INTO compliance_scores (
			id, project_id, score, details, current_streak, best_streak, streak_broken_at,
			protected_claims_value, at_risk_value,
			on_time_count, total_count, missed_count, at_risk_count, active_count, upcoming_count,
			last_calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (project_id) DO UPDATE SET
			score = EXCLUDED.score,
			details = EXCLUDED.details,
			current_streak = EXCLUDED.current_streak,
			best_streak = GREATEST(compliance_scores.best_streak, EXCLUDED.best_streak),
			streak_broken_at = COALESCE(EXCLUDED.streak_broken_at, compliance_scores.streak_broken_at),
			protected_claims_value = EXCLUDED.protected_claims_value,
			at_risk_value = EXCLUDED.at_risk_value,
			on_time_count = EXCLUDED.on_time_count,
			total_count = EXCLUDED.total_count,
			missed_count = EXCLUDED.missed_count,
			at_risk_count = EXCLUDED.at_risk_count,
			active_count = EXCLUDED.active_count,
			upcoming_count = EXCLUDED.upcoming_count,
			last_calculated_at = EXCLUDED.last_calculated_at
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		s.ID, s.ProjectID, s.Score, details, s.CurrentStreak, s.BestStreak, s.StreakBrokenAt,
		s.ProtectedClaimsValue, s.AtRiskValue,
		s.OnTimeCount, s.TotalCount, s.MissedCount, s.AtRiskCount, s.ActiveCount, s.UpcomingCount,
		s.LastCalculatedAt.UTC(),
	).Scan(&s.ID)
}

// UpsertHistory writes a snapshot; a same-day same-period rerun replaces
// the earlier row rather than duplicating it.
func (r *Repository) UpsertHistory(ctx context.Context, h *HistoryEntry) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	query := `
		INSERT INTO compliance_score_history (
			id, project_id, snapshot_date, compliance_percentage,
			on_time_count, total_count, notices_sent_in_period,
			protected_claims_value, period_type
		)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8::numeric, $9)
		ON CONFLICT (project_id, snapshot_date, period_type) DO UPDATE SET
			compliance_percentage = EXCLUDED.compliance_percentage,
			on_time_count = EXCLUDED.on_time_count,
			total_count = EXCLUDED.total_count,
			notices_sent_in_period = EXCLUDED.notices_sent_in_period,
			protected_claims_value = EXCLUDED.protected_claims_value
		RETURNING id, created_at
	`

	return r.db.QueryRow(ctx, query,
		h.ID, h.ProjectID, h.SnapshotDate.UTC(), h.CompliancePercentage,
		h.OnTimeCount, h.TotalCount, h.NoticesSentInPeriod,
		h.ProtectedClaimsValue, h.PeriodType,
	).Scan(&h.ID, &h.CreatedAt)
}

// ListHistory returns snapshots for trending, newest first
func (r *Repository) ListHistory(ctx context.Context, projectID uuid.UUID, periodType string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	query := `
		SELECT id, project_id, snapshot_date, compliance_percentage::text,
		       on_time_count, total_count, notices_sent_in_period,
		       protected_claims_value::text, period_type, created_at
		FROM compliance_score_history
		WHERE project_id = $1 AND period_type = $2
		ORDER BY snapshot_date DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, projectID, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("list score history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		h := &HistoryEntry{}
		err := rows.Scan(
			&h.ID, &h.ProjectID, &h.SnapshotDate, &h.CompliancePercentage,
			&h.OnTimeCount, &h.TotalCount, &h.NoticesSentInPeriod,
			&h.ProtectedClaimsValue, &h.PeriodType, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// HistoryExists reports whether a snapshot exists for the key
func (r *Repository) HistoryExists(ctx context.Context, projectID uuid.UUID, snapshotDate time.Time, periodType string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM compliance_score_history
			WHERE project_id = $1 AND snapshot_date = $2 AND period_type = $3
		)
	`, projectID, snapshotDate.UTC(), periodType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check history: %w", err)
	}
	return exists, nil
}
