// Package jobs contains the handlers executed by the background worker:
// the hourly severity pass, the daily score snapshot, the weekly digest,
// and the event-driven trigger jobs.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/efilo/compliance/internal/alert"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/job"
	"github.com/efilo/compliance/internal/severity"
)

// SeverityPassResult summarizes one severity pass run
type SeverityPassResult struct {
	Projects   int      `json:"projects"`
	Updated    int      `json:"updated"`
	Expired    int      `json:"expired"`
	AlertsSent int      `json:"alertsSent"`
	Errors     []string `json:"errors,omitempty"`
	Duration   string   `json:"duration"`
}

// SeverityPassHandler recomputes deadline severities for every project
// with open deadlines, expires past-due deadlines, and dispatches alerts
// for escalations into WARNING/CRITICAL/EXPIRED. A rerun with no time
// change finds no severity deltas and writes nothing.
type SeverityPassHandler struct {
	deadlineRepo *deadline.Repository
	deadlineSvc  *deadline.Service
	clauseRepo   *clause.Repository
	dispatcher   *alert.Dispatcher
	logger       *slog.Logger
}

// NewSeverityPassHandler creates a new severity pass handler
func NewSeverityPassHandler(
	deadlineRepo *deadline.Repository,
	deadlineSvc *deadline.Service,
	clauseRepo *clause.Repository,
	dispatcher *alert.Dispatcher,
	logger *slog.Logger,
) *SeverityPassHandler {
	return &SeverityPassHandler{
		deadlineRepo: deadlineRepo,
		deadlineSvc:  deadlineSvc,
		clauseRepo:   clauseRepo,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Handle runs the severity pass. Per-project failures are logged and the
// pass continues; one project's error never blocks another's update.
func (h *SeverityPassHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	start := time.Now()
	now := start.UTC()
	result := &SeverityPassResult{}

	projectIDs, err := h.deadlineRepo.ProjectIDsWithOpenDeadlines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	result.Projects = len(projectIDs)

	for _, projectID := range projectIDs {
		changes, err := h.deadlineSvc.RecalculateSeverities(ctx, projectID, now)
		if err != nil {
			h.logger.Error("severity recalculation failed",
				"project_id", projectID,
				"error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("project %s: %v", projectID, err))
			continue
		}

		for _, change := range changes {
			result.Updated++
			if change.Expired {
				result.Expired++
			}

			if !severity.Alertable(change.NewSeverity) {
				continue
			}

			clauseTitle := "Unknown"
			clauseRef := ""
			if c, err := h.clauseRepo.GetByID(ctx, projectID, change.Deadline.ClauseID); err == nil {
				clauseTitle = c.Title
				if c.SectionRef != nil {
					clauseRef = *c.SectionRef
				}
			}

			sent, err := h.dispatcher.DispatchDeadlineAlert(ctx, change.Deadline, clauseTitle, clauseRef)
			if err != nil {
				h.logger.Error("failed to dispatch deadline alert",
					"deadline_id", change.Deadline.ID,
					"error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("alert %s: %v", change.Deadline.ID, err))
				continue
			}
			result.AlertsSent += sent
		}
	}

	result.Duration = time.Since(start).String()

	h.logger.Info("severity pass completed",
		"projects", result.Projects,
		"updated", result.Updated,
		"expired", result.Expired,
		"alerts_sent", result.AlertsSent,
		"duration", result.Duration)

	out, _ := json.Marshal(result)
	return out, nil
}
