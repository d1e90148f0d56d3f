// Package trigger maps events from external subsystems (RFIs flagged as
// potential change orders, change events) into compliance deadlines,
// with idempotency on the trigger tuple.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/deadline"
)

// Clause kinds matched by RFI change-order detection
var rfiClauseKinds = []clause.Kind{
	clause.KindClaimsProcedure,
	clause.KindChangeOrderProcess,
}

// Clause kinds matched by change events
var changeEventClauseKinds = []clause.Kind{
	clause.KindChangeOrderProcess,
	clause.KindClaimsProcedure,
	clause.KindNoticeRequirements,
}

// Service is the trigger adapter
type Service struct {
	clauseRepo   *clause.Repository
	deadlineRepo *deadline.Repository
	deadlineSvc  *deadline.Service
	logger       *slog.Logger
}

// NewService creates a new trigger service
func NewService(
	clauseRepo *clause.Repository,
	deadlineRepo *deadline.Repository,
	deadlineSvc *deadline.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		clauseRepo:   clauseRepo,
		deadlineRepo: deadlineRepo,
		deadlineSvc:  deadlineSvc,
		logger:       logger,
	}
}

// RFIEvent is an RFI flagged as a potential change order
type RFIEvent struct {
	ProjectID uuid.UUID
	RFIID     string
	Number    string
	Subject   string
	UserID    *uuid.UUID
}

// ChangeEvent is a created change event
type ChangeEvent struct {
	ProjectID   uuid.UUID
	EventID     string
	Description string
	UserID      *uuid.UUID
}

// OnRFIFlaggedAsChangeOrder creates deadlines for every matching clause.
// Idempotent: a non-terminal deadline for the same (clause, rfi, RFI)
// tuple suppresses creation. A project with no qualifying clauses
// returns zero deadlines without error.
func (s *Service) OnRFIFlaggedAsChangeOrder(ctx context.Context, ev RFIEvent) ([]*deadline.Deadline, error) {
	clauses, err := s.clauseRepo.ListTriggerable(ctx, ev.ProjectID, rfiClauseKinds)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		s.logger.Info("no matching clauses for RFI CO trigger",
			"project_id", ev.ProjectID,
			"rfi_number", ev.Number,
		)
		return nil, nil
	}

	now := time.Now().UTC()
	var created []*deadline.Deadline

	for _, c := range clauses {
		existing, err := s.deadlineRepo.FindExisting(ctx, ev.ProjectID, c.ID, ev.RFIID, deadline.TriggerRFI)
		if err != nil {
			return created, err
		}
		if existing != nil {
			s.logger.Debug("deadline already exists for trigger",
				"clause_id", c.ID,
				"rfi_id", ev.RFIID,
			)
			continue
		}

		desc := fmt.Sprintf(
			"RFI #%s %q flagged as potential change order. Per %s, notice is required within %s.",
			ev.Number, ev.Subject, clauseRef(c), deadlineWindow(c),
		)

		rfiID := ev.RFIID
		d, err := s.deadlineSvc.Create(ctx, deadline.CreateParams{
			ProjectID:          ev.ProjectID,
			ClauseID:           c.ID,
			TriggerEventType:   deadline.TriggerRFI,
			TriggerEventID:     &rfiID,
			TriggerDescription: desc,
			TriggeredAt:        now,
			TriggeredBy:        ev.UserID,
		})
		if err != nil {
			return created, err
		}
		created = append(created, d)
	}

	if len(created) > 0 {
		s.logger.Info("created compliance deadlines from RFI CO trigger",
			"rfi_number", ev.Number,
			"count", len(created),
		)
	}
	return created, nil
}

// OnChangeEventCreated creates deadlines for every matching clause,
// idempotent on (clause, event, CHANGE_ORDER).
func (s *Service) OnChangeEventCreated(ctx context.Context, ev ChangeEvent) ([]*deadline.Deadline, error) {
	clauses, err := s.clauseRepo.ListTriggerable(ctx, ev.ProjectID, changeEventClauseKinds)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		s.logger.Info("no matching clauses for change event",
			"project_id", ev.ProjectID,
			"event_id", ev.EventID,
		)
		return nil, nil
	}

	now := time.Now().UTC()
	var created []*deadline.Deadline

	for _, c := range clauses {
		existing, err := s.deadlineRepo.FindExisting(ctx, ev.ProjectID, c.ID, ev.EventID, deadline.TriggerChangeOrder)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		desc := fmt.Sprintf(
			"Change event: %s. Per %s, notice is required within %s.",
			ev.Description, clauseRef(c), deadlineWindow(c),
		)

		eventID := ev.EventID
		d, err := s.deadlineSvc.Create(ctx, deadline.CreateParams{
			ProjectID:          ev.ProjectID,
			ClauseID:           c.ID,
			TriggerEventType:   deadline.TriggerChangeOrder,
			TriggerEventID:     &eventID,
			TriggerDescription: desc,
			TriggeredAt:        now,
			TriggeredBy:        ev.UserID,
		})
		if err != nil {
			return created, err
		}
		created = append(created, d)
	}

	if len(created) > 0 {
		s.logger.Info("created compliance deadlines from change event",
			"event_id", ev.EventID,
			"count", len(created),
		)
	}
	return created, nil
}

func clauseRef(c *clause.Clause) string {
	if c.SectionRef != nil && *c.SectionRef != "" {
		return *c.SectionRef
	}
	return c.Title
}

// deadlineWindow renders "10 calendar days" from clause parameters
func deadlineWindow(c *clause.Clause) string {
	unit := "days"
	if c.DeadlineType != nil {
		unit = strings.ReplaceAll(strings.ToLower(string(*c.DeadlineType)), "_", " ")
	}
	days := 0
	if c.DeadlineDays != nil {
		days = *c.DeadlineDays
	}
	return fmt.Sprintf("%d %s", days, unit)
}
