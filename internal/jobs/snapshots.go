package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/efilo/compliance/internal/alert"
	"github.com/efilo/compliance/internal/job"
	"github.com/efilo/compliance/internal/project"
	"github.com/efilo/compliance/internal/score"
	"github.com/efilo/compliance/pkg/cache"
)

// SnapshotResult summarizes a snapshot run
type SnapshotResult struct {
	Snapshots int      `json:"snapshots"`
	Errors    []string `json:"errors,omitempty"`
	Duration  string   `json:"duration"`
}

// DailySnapshotHandler writes one daily ScoreHistory row per project at
// 02:00 UTC. Same-day reruns replace the row via the
// (projectId, snapshotDate, periodType) key.
type DailySnapshotHandler struct {
	projectRepo *project.Repository
	scoreSvc    *score.Service
	logger      *slog.Logger
}

// NewDailySnapshotHandler creates a new daily snapshot handler
func NewDailySnapshotHandler(projectRepo *project.Repository, scoreSvc *score.Service, logger *slog.Logger) *DailySnapshotHandler {
	return &DailySnapshotHandler{
		projectRepo: projectRepo,
		scoreSvc:    scoreSvc,
		logger:      logger,
	}
}

// Handle creates daily snapshots for all projects
func (h *DailySnapshotHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	start := time.Now()
	result := &SnapshotResult{}

	projectIDs, err := h.projectRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	for _, projectID := range projectIDs {
		if _, err := h.scoreSvc.Snapshot(ctx, projectID, score.PeriodDaily); err != nil {
			h.logger.Error("daily snapshot failed",
				"project_id", projectID,
				"error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("project %s: %v", projectID, err))
			continue
		}
		result.Snapshots++
	}

	result.Duration = time.Since(start).String()

	h.logger.Info("daily snapshot completed",
		"snapshots", result.Snapshots,
		"duration", result.Duration)

	out, _ := json.Marshal(result)
	return out, nil
}

// WeeklyDigestResult summarizes a weekly digest run
type WeeklyDigestResult struct {
	Summaries int      `json:"summaries"`
	Snapshots int      `json:"snapshots"`
	Errors    []string `json:"errors,omitempty"`
	Duration  string   `json:"duration"`
}

// WeeklyDigestHandler sends weekly summary emails and appends weekly
// score snapshots on Monday 08:00 UTC. A redis lock keyed by ISO week
// keeps concurrent workers from double-sending the digest emails; the
// snapshot upsert is idempotent on its own.
type WeeklyDigestHandler struct {
	projectRepo *project.Repository
	scoreSvc    *score.Service
	dispatcher  *alert.Dispatcher
	redis       *cache.Client
	logger      *slog.Logger
}

// NewWeeklyDigestHandler creates a new weekly digest handler
func NewWeeklyDigestHandler(
	projectRepo *project.Repository,
	scoreSvc *score.Service,
	dispatcher *alert.Dispatcher,
	redis *cache.Client,
	logger *slog.Logger,
) *WeeklyDigestHandler {
	return &WeeklyDigestHandler{
		projectRepo: projectRepo,
		scoreSvc:    scoreSvc,
		dispatcher:  dispatcher,
		redis:       redis,
		logger:      logger,
	}
}

// Handle sends weekly summaries and writes weekly snapshots
func (h *WeeklyDigestHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	start := time.Now()
	result := &WeeklyDigestResult{}

	projects, err := h.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	year, week := start.UTC().ISOWeek()

	for _, p := range projects {
		emailsDue := true
		if h.redis != nil {
			lockKey := fmt.Sprintf("weekly-digest:%s:%d-%02d", p.ID, year, week)
			acquired, err := h.redis.AcquireLock(ctx, lockKey, 7*24*time.Hour)
			if err != nil {
				h.logger.Error("digest lock failed", "project_id", p.ID, "error", err)
			} else if !acquired {
				emailsDue = false
			}
		}

		if emailsDue {
			sent, err := h.dispatcher.WeeklySummary(ctx, p.ID, p.Name)
			if err != nil {
				h.logger.Error("weekly summary failed",
					"project_id", p.ID,
					"error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("summary %s: %v", p.ID, err))
			} else {
				result.Summaries += sent
			}
		}

		if _, err := h.scoreSvc.Snapshot(ctx, p.ID, score.PeriodWeekly); err != nil {
			h.logger.Error("weekly snapshot failed",
				"project_id", p.ID,
				"error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("snapshot %s: %v", p.ID, err))
			continue
		}
		result.Snapshots++
	}

	result.Duration = time.Since(start).String()

	h.logger.Info("weekly digest completed",
		"summaries", result.Summaries,
		"snapshots", result.Snapshots,
		"duration", result.Duration)

	out, _ := json.Marshal(result)
	return out, nil
}
