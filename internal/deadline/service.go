package deadline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efilo/compliance/internal/audit"
	"github.com/efilo/compliance/internal/calendar"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/severity"
)

// Service is the deadline engine. Every state change writes exactly one
// audit entry in the same transaction as the change.
type Service struct {
	pool       *pgxpool.Pool
	repo       *Repository
	clauseRepo *clause.Repository
	calSvc     *calendar.Service
	auditLog   *audit.Logger
	logger     *slog.Logger
}

// NewService creates a new deadline service
func NewService(
	pool *pgxpool.Pool,
	repo *Repository,
	clauseRepo *clause.Repository,
	calSvc *calendar.Service,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool:       pool,
		repo:       repo,
		clauseRepo: clauseRepo,
		calSvc:     calSvc,
		auditLog:   auditLog,
		logger:     logger,
	}
}

// CreateParams describes a deadline creation request
type CreateParams struct {
	ProjectID          uuid.UUID
	ClauseID           uuid.UUID
	TriggerEventType   TriggerEventType
	TriggerEventID     *string
	TriggerDescription string
	TriggeredAt        time.Time
	TriggeredBy        *uuid.UUID
}

// Create materializes a deadline from a trigger event. The clause must
// carry deadline parameters; otherwise ErrClauseMissingParams and no
// deadline is persisted.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Deadline, error) {
	c, err := s.clauseRepo.GetByID(ctx, p.ProjectID, p.ClauseID)
	if err != nil {
		return nil, err
	}
	if !c.HasDeadlineParams() {
		return nil, ErrClauseMissingParams
	}

	now := time.Now().UTC()
	triggeredAt := p.TriggeredAt.UTC()

	holidays, err := s.calSvc.HolidaysFrom(ctx, p.ProjectID, triggeredAt)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	calc, err := Calculate(c, triggeredAt, holidays, now)
	if err != nil {
		return nil, err
	}

	d := &Deadline{
		ProjectID:          p.ProjectID,
		ClauseID:           p.ClauseID,
		TriggerEventType:   p.TriggerEventType,
		TriggerEventID:     p.TriggerEventID,
		TriggerDescription: p.TriggerDescription,
		TriggeredAt:        triggeredAt,
		TriggeredBy:        p.TriggeredBy,
		CalculatedDeadline: calc.CalculatedDeadline,
		CureDeadline:       calc.CureDeadline,
		DeadlineTimezone:   DefaultTimezone,
		Status:             StatusActive,
		Severity:           calc.Severity,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.WithTx(tx).Create(ctx, d); err != nil {
		return nil, err
	}

	entry := audit.SystemEntry(p.ProjectID,
		audit.EventDeadlineCreated, audit.EntityDeadline, d.ID.String(),
		"create_deadline",
		map[string]interface{}{
			"clauseId":           p.ClauseID.String(),
			"clauseTitle":        c.Title,
			"triggerType":        string(p.TriggerEventType),
			"triggerDescription": p.TriggerDescription,
			"calculatedDeadline": calc.CalculatedDeadline.Format(time.RFC3339),
			"severity":           string(calc.Severity),
		},
	)
	entry.UserID = p.TriggeredBy
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	s.logger.Info("created deadline",
		"deadline_id", d.ID,
		"clause_id", p.ClauseID,
		"due", calc.CalculatedDeadline,
		"severity", calc.Severity,
	)
	return d, nil
}

// GetByID returns a single deadline
func (s *Service) GetByID(ctx context.Context, projectID, deadlineID uuid.UUID) (*Deadline, error) {
	return s.repo.GetByID(ctx, projectID, deadlineID)
}

// List returns deadlines for a project with optional filters
func (s *Service) List(ctx context.Context, projectID uuid.UUID, status *Status, sev *severity.Severity) ([]*Deadline, error) {
	return s.repo.ListByProject(ctx, projectID, status, sev)
}

// Waive marks a deadline waived. Waiving an already-waived deadline
// returns the same row unchanged and writes no audit entry.
func (s *Service) Waive(ctx context.Context, projectID, deadlineID, userID uuid.UUID, reason string) (*Deadline, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin waive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, changed, err := s.repo.WithTx(tx).Waive(ctx, projectID, deadlineID, userID, reason, time.Now())
	if err != nil {
		return nil, err
	}

	if changed {
		entry := audit.UserEntry(projectID, userID,
			audit.EventDeadlineWaived, audit.EntityDeadline, deadlineID.String(),
			"waive_deadline",
			map[string]interface{}{"reason": reason},
		)
		if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit waive: %w", err)
	}
	return d, nil
}

// LinkNotice atomically moves a deadline to NOTICE_DRAFTED and records
// the notice linkage. Runs inside the caller's transaction.
func (s *Service) LinkNotice(ctx context.Context, tx DBTX, projectID, deadlineID, noticeID uuid.UUID, userID *uuid.UUID) error {
	now := time.Now().UTC()
	repo := s.repo.WithTx(tx)

	d, err := repo.GetByID(ctx, projectID, deadlineID)
	if err != nil {
		return err
	}

	if err := repo.UpdateStatus(ctx, projectID, deadlineID, StatusNoticeDrafted, &noticeID, &now); err != nil {
		return err
	}

	entry := audit.SystemEntry(projectID,
		audit.EventDeadlineStatus, audit.EntityDeadline, deadlineID.String(),
		"update_status",
		map[string]interface{}{
			"oldStatus": string(d.Status),
			"newStatus": string(StatusNoticeDrafted),
			"noticeId":  noticeID.String(),
		},
	)
	entry.UserID = userID
	if userID != nil {
		entry.ActorType = audit.ActorUser
	}
	return s.auditLog.LogTx(ctx, tx, entry)
}

// MarkNoticeSent cascades a notice send to the linked deadline. Runs
// inside the caller's transaction.
func (s *Service) MarkNoticeSent(ctx context.Context, tx DBTX, projectID, noticeID uuid.UUID, userID *uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	d, err := repo.GetByNoticeID(ctx, projectID, noticeID)
	if err != nil {
		if err == ErrDeadlineNotFound {
			return nil // notice not linked to a deadline
		}
		return err
	}

	if err := repo.UpdateStatus(ctx, projectID, d.ID, StatusNoticeSent, d.NoticeID, d.NoticeCreatedAt); err != nil {
		return err
	}

	entry := audit.SystemEntry(projectID,
		audit.EventDeadlineStatus, audit.EntityDeadline, d.ID.String(),
		"update_status",
		map[string]interface{}{
			"oldStatus": string(d.Status),
			"newStatus": string(StatusNoticeSent),
			"noticeId":  noticeID.String(),
		},
	)
	entry.UserID = userID
	if userID != nil {
		entry.ActorType = audit.ActorUser
	}
	return s.auditLog.LogTx(ctx, tx, entry)
}

// UnlinkNotice returns a deadline to ACTIVE when its draft notice is
// deleted, clearing the linkage. Runs inside the caller's transaction.
func (s *Service) UnlinkNotice(ctx context.Context, tx DBTX, projectID, noticeID uuid.UUID, userID *uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	d, err := repo.GetByNoticeID(ctx, projectID, noticeID)
	if err != nil {
		if err == ErrDeadlineNotFound {
			return nil
		}
		return err
	}

	if err := repo.UpdateStatus(ctx, projectID, d.ID, StatusActive, nil, nil); err != nil {
		return err
	}

	entry := audit.SystemEntry(projectID,
		audit.EventDeadlineStatus, audit.EntityDeadline, d.ID.String(),
		"update_status",
		map[string]interface{}{
			"oldStatus": string(d.Status),
			"newStatus": string(StatusActive),
			"noticeId":  nil,
		},
	)
	entry.UserID = userID
	if userID != nil {
		entry.ActorType = audit.ActorUser
	}
	return s.auditLog.LogTx(ctx, tx, entry)
}

// GetLinked returns the deadline linked to a notice, or nil when the
// notice is unlinked.
func (s *Service) GetLinked(ctx context.Context, projectID, noticeID uuid.UUID) (*Deadline, error) {
	d, err := s.repo.GetByNoticeID(ctx, projectID, noticeID)
	if err != nil {
		if errors.Is(err, ErrDeadlineNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// SeverityChange records one recalculated deadline
type SeverityChange struct {
	Deadline    *Deadline
	OldSeverity severity.Severity
	NewSeverity severity.Severity
	Expired     bool
}

// RecalculateSeverities reapplies the classifier to every open deadline
// in a project. Deadlines past now transition to EXPIRED. Each change
// commits with its audit entry; a rerun with no time change is a no-op.
func (s *Service) RecalculateSeverities(ctx context.Context, projectID uuid.UUID, now time.Time) ([]SeverityChange, error) {
	deadlines, err := s.repo.ListOpen(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var changes []SeverityChange
	for _, d := range deadlines {
		newSev := severity.Classify(d.CalculatedDeadline, now, string(d.Status))
		if newSev == d.Severity {
			continue
		}

		newStatus := d.Status
		expired := false
		if newSev == severity.Expired {
			newStatus = StatusExpired
			expired = true
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return changes, fmt.Errorf("begin severity tx: %w", err)
		}

		err = s.repo.WithTx(tx).UpdateSeverity(ctx, d.ID, newSev, newStatus)
		if err == nil {
			entry := audit.SystemEntry(projectID,
				audit.EventSeverityChange, audit.EntityDeadline, d.ID.String(),
				"recalculate_severity",
				map[string]interface{}{
					"oldSeverity": string(d.Severity),
					"newSeverity": string(newSev),
					"expired":     expired,
				},
			)
			err = s.auditLog.LogTx(ctx, tx, entry)
		}
		if err == nil {
			err = tx.Commit(ctx)
		}
		if err != nil {
			tx.Rollback(ctx)
			return changes, err
		}

		oldSev := d.Severity
		d.Severity = newSev
		d.Status = newStatus
		changes = append(changes, SeverityChange{
			Deadline:    d,
			OldSeverity: oldSev,
			NewSeverity: newSev,
			Expired:     expired,
		})
	}

	if len(changes) > 0 {
		s.logger.Info("recalculated severities",
			"project_id", projectID,
			"changed", len(changes),
		)
	}
	return changes, nil
}
