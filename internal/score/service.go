package score

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/notice"
	"github.com/efilo/compliance/internal/severity"
)

// Service is the scoring engine
type Service struct {
	pool         *pgxpool.Pool
	repo         *Repository
	noticeRepo   *notice.Repository
	deadlineRepo *deadline.Repository
	logger       *slog.Logger

	// claimsValue is the dollar value credited per on-time notice (and
	// debited per at-risk deadline). A coarse proxy, kept configurable.
	claimsValue int64
}

// NewService creates a new scoring service
func NewService(
	pool *pgxpool.Pool,
	repo *Repository,
	noticeRepo *notice.Repository,
	deadlineRepo *deadline.Repository,
	logger *slog.Logger,
	claimsValue int64,
) *Service {
	if claimsValue <= 0 {
		claimsValue = 50000
	}
	return &Service{
		pool:         pool,
		repo:         repo,
		noticeRepo:   noticeRepo,
		deadlineRepo: deadlineRepo,
		logger:       logger,
		claimsValue:  claimsValue,
	}
}

// Streak counts the consecutive most-recent on-time notices, ordered by
// sentAt descending. Notices without sentAt are excluded.
func Streak(notices []*notice.Notice) int {
	sent := make([]*notice.Notice, 0, len(notices))
	for _, n := range notices {
		if n.SentAt != nil {
			sent = append(sent, n)
		}
	}
	sort.Slice(sent, func(i, j int) bool {
		return sent[i].SentAt.After(*sent[j].SentAt)
	})

	streak := 0
	for _, n := range sent {
		if n.OnTimeStatus != nil && *n.OnTimeStatus {
			streak++
		} else {
			break
		}
	}
	return streak
}

// Calculate recomputes and upserts the compliance score for a project
func (s *Service) Calculate(ctx context.Context, projectID uuid.UUID) (*Score, error) {
	now := time.Now().UTC()

	notices, err := s.noticeRepo.ListSettled(ctx, projectID)
	if err != nil {
		return nil, err
	}

	totalCount := len(notices)
	onTimeCount := 0
	missedCount := 0
	for _, n := range notices {
		if n.OnTimeStatus == nil {
			continue
		}
		if *n.OnTimeStatus {
			onTimeCount++
		} else {
			missedCount++
		}
	}

	scoreValue := 100
	if totalCount > 0 {
		scoreValue = int(math.Round(float64(onTimeCount) / float64(totalCount) * 100))
	}

	deadlines, err := s.deadlineRepo.ListOpen(ctx, projectID)
	if err != nil {
		return nil, err
	}

	atRiskCount := 0
	upcomingCount := 0
	for _, d := range deadlines {
		switch d.Severity {
		case severity.Critical, severity.Warning:
			atRiskCount++
		case severity.Low, severity.Info:
			upcomingCount++
		}
	}
	activeCount := len(deadlines)

	streak := Streak(notices)

	previous, err := s.repo.GetCurrent(ctx, projectID)
	if err != nil {
		return nil, err
	}

	bestStreak := streak
	var streakBrokenAt *time.Time
	if previous != nil {
		if previous.BestStreak > bestStreak {
			bestStreak = previous.BestStreak
		}
		if streak < previous.CurrentStreak && previous.CurrentStreak > 0 {
			streakBrokenAt = &now
		}
	}

	record := &Score{
		ProjectID:            projectID,
		Score:                scoreValue,
		CurrentStreak:        streak,
		BestStreak:           bestStreak,
		StreakBrokenAt:       streakBrokenAt,
		ProtectedClaimsValue: s.dollars(onTimeCount),
		AtRiskValue:          s.dollars(atRiskCount),
		OnTimeCount:          onTimeCount,
		TotalCount:           totalCount,
		MissedCount:          missedCount,
		AtRiskCount:          atRiskCount,
		ActiveCount:          activeCount,
		UpcomingCount:        upcomingCount,
		LastCalculatedAt:     now,
		Details: map[string]interface{}{
			"score":           scoreValue,
			"onTimeCount":     onTimeCount,
			"totalCount":      totalCount,
			"missedCount":     missedCount,
			"atRiskCount":     atRiskCount,
			"activeDeadlines": activeCount,
			"currentStreak":   streak,
			"formula":         "onTimeCount / totalCount * 100",
		},
	}
	if previous != nil {
		record.ID = previous.ID
		if streakBrokenAt == nil {
			record.StreakBrokenAt = previous.StreakBrokenAt
		}
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("calculated compliance score",
		"project_id", projectID,
		"score", scoreValue,
		"on_time", onTimeCount,
		"total", totalCount,
		"streak", streak,
	)
	return record, nil
}

// Snapshot appends (or replaces) a history row for the period. The
// snapshot date is start-of-day UTC; the period window is 24h for daily
// and 7d for weekly snapshots.
func (s *Service) Snapshot(ctx context.Context, projectID uuid.UUID, periodType string) (*HistoryEntry, error) {
	now := time.Now().UTC()

	current, err := s.Calculate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var window time.Duration
	switch periodType {
	case PeriodDaily:
		window = 24 * time.Hour
	case PeriodWeekly:
		window = 7 * 24 * time.Hour
	case PeriodMonthly:
		window = 30 * 24 * time.Hour
	default:
		return nil, ErrInvalidPeriod
	}

	sentInPeriod, err := s.noticeRepo.CountSentSince(ctx, projectID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	entry := &HistoryEntry{
		ProjectID:            projectID,
		SnapshotDate:         startOfDay(now),
		CompliancePercentage: fmt.Sprintf("%d.00", current.Score),
		OnTimeCount:          current.OnTimeCount,
		TotalCount:           current.TotalCount,
		NoticesSentInPeriod:  sentInPeriod,
		ProtectedClaimsValue: current.ProtectedClaimsValue,
		PeriodType:           periodType,
	}

	if err := s.repo.UpsertHistory(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// History returns snapshots for an API period query
func (s *Service) History(ctx context.Context, projectID uuid.UUID, period string, limit int) ([]*HistoryEntry, error) {
	periodType, err := PeriodTypeForQuery(period)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, projectID, periodType, limit)
}

// Current returns the active score, computing it when absent
func (s *Service) Current(ctx context.Context, projectID uuid.UUID) (*Score, error) {
	existing, err := s.repo.GetCurrent(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.Calculate(ctx, projectID)
}

// Health returns compliance as a project health component (20% weight).
// The score is penalized 5 points per at-risk deadline.
func (s *Service) Health(ctx context.Context, projectID uuid.UUID) (*HealthComponent, error) {
	current, err := s.Calculate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	componentScore := current.Score
	if current.AtRiskCount > 0 {
		componentScore -= current.AtRiskCount * 5
		if componentScore < 0 {
			componentScore = 0
		}
	}

	status := "good"
	if componentScore < 80 || current.AtRiskCount > 2 {
		status = "warning"
	}
	if componentScore < 60 || current.AtRiskCount > 5 {
		status = "critical"
	}

	return &HealthComponent{
		Name:   "Contract Compliance",
		Score:  componentScore,
		Weight: 0.2,
		Status: status,
		Details: map[string]interface{}{
			"compliancePercentage": current.Score,
			"onTimeCount":          current.OnTimeCount,
			"totalCount":           current.TotalCount,
			"currentStreak":        current.CurrentStreak,
			"protectedClaimsValue": current.ProtectedClaimsValue,
			"atRiskCount":          current.AtRiskCount,
			"activeDeadlines":      current.ActiveCount,
		},
	}, nil
}

func (s *Service) dollars(count int) string {
	return fmt.Sprintf("%d.00", int64(count)*s.claimsValue)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
