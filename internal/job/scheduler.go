package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scheduler errors
var ErrScheduleNotFound = errors.New("schedule not found")

// Scheduler manages cron-style job scheduling. All schedule times are
// UTC.
type Scheduler struct {
	db       *pgxpool.Pool
	queue    *Queue
	logger   *slog.Logger
	interval time.Duration
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Logger   *slog.Logger
	Interval time.Duration // How often to check for due schedules
}

// NewScheduler creates a new scheduler
func NewScheduler(queue *Queue, db *pgxpool.Pool, cfg *SchedulerConfig) *Scheduler {
	logger := slog.Default()
	interval := 30 * time.Second

	if cfg != nil {
		if cfg.Logger != nil {
			logger = cfg.Logger
		}
		if cfg.Interval > 0 {
			interval = cfg.Interval
		}
	}

	return &Scheduler{
		db:       db,
		queue:    queue,
		logger:   logger,
		interval: interval,
	}
}

// Run starts the scheduler loop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler starting", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	if err := s.processDueSchedules(ctx); err != nil {
		s.logger.Error("failed to process due schedules", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()

		case <-ticker.C:
			if err := s.processDueSchedules(ctx); err != nil {
				s.logger.Error("failed to process due schedules", "error", err)
			}
		}
	}
}

// processDueSchedules finds and enqueues jobs for due schedules
func (s *Scheduler) processDueSchedules(ctx context.Context) error {
	now := time.Now().UTC()

	rows, err := s.db.Query(ctx, `
		SELECT id, name, job_type, job_payload, cron_expression,
		       last_run_at, next_run_at, run_count, fail_count
		FROM schedules
		WHERE enabled = TRUE AND next_run_at <= $1
		ORDER BY next_run_at ASC
		FOR UPDATE SKIP LOCKED
	`, now)
	if err != nil {
		return fmt.Errorf("query due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		schedule := &Schedule{}
		err := rows.Scan(
			&schedule.ID, &schedule.Name, &schedule.JobType, &schedule.JobPayload,
			&schedule.CronExpression, &schedule.LastRunAt, &schedule.NextRunAt,
			&schedule.RunCount, &schedule.FailCount,
		)
		if err != nil {
			return fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, schedule := range schedules {
		if err := s.enqueueForSchedule(ctx, schedule, now); err != nil {
			s.logger.Error("failed to enqueue job for schedule",
				"schedule_id", schedule.ID,
				"schedule_name", schedule.Name,
				"error", err)
		}
	}

	return nil
}

// enqueueForSchedule creates a job for a schedule and advances next_run_at.
// The idempotency key makes same-minute replays single-delivery.
func (s *Scheduler) enqueueForSchedule(ctx context.Context, schedule *Schedule, now time.Time) error {
	idempotencyKey := fmt.Sprintf("schedule-%s-%d", schedule.ID, now.Unix()/60)

	opts := &EnqueueOptions{
		Priority:       PriorityNormal,
		RunAt:          now,
		MaxRetries:     3,
		TimeoutSeconds: 660,
		IdempotencyKey: idempotencyKey,
	}

	_, err := s.queue.Enqueue(ctx, nil, schedule.JobType, schedule.JobPayload, opts)
	if err != nil && !errors.Is(err, ErrDuplicateJob) {
		s.db.Exec(ctx, `UPDATE schedules SET fail_count = fail_count + 1, updated_at = NOW() WHERE id = $1`, schedule.ID)
		return fmt.Errorf("enqueue job: %w", err)
	}

	nextRun, err := NextCronRun(schedule.CronExpression, now)
	if err != nil {
		s.logger.Warn("failed to parse cron expression, deferring an hour",
			"cron", schedule.CronExpression,
			"error", err)
		nextRun = now.Add(time.Hour)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE schedules
		SET last_run_at = $1, next_run_at = $2, run_count = run_count + 1, updated_at = $1
		WHERE id = $3
	`, now, nextRun, schedule.ID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}

	s.logger.Debug("job enqueued for schedule",
		"schedule_name", schedule.Name,
		"job_type", schedule.JobType,
		"next_run", nextRun)

	return nil
}

// CreateSchedule creates or replaces a named schedule
func (s *Scheduler) CreateSchedule(ctx context.Context, schedule *Schedule) error {
	now := time.Now().UTC()

	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}

	if schedule.NextRunAt == nil {
		nextRun, err := NextCronRun(schedule.CronExpression, now)
		if err != nil {
			return fmt.Errorf("cron expression: %w", err)
		}
		schedule.NextRunAt = &nextRun
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO schedules (id, name, job_type, job_payload, cron_expression, enabled, next_run_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			job_type = EXCLUDED.job_type,
			job_payload = EXCLUDED.job_payload,
			cron_expression = EXCLUDED.cron_expression,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`, schedule.ID, schedule.Name, schedule.JobType, schedule.JobPayload,
		schedule.CronExpression, schedule.Enabled, schedule.NextRunAt)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by name
func (s *Scheduler) GetSchedule(ctx context.Context, name string) (*Schedule, error) {
	schedule := &Schedule{}
	err := s.db.QueryRow(ctx, `
		SELECT id, name, job_type, job_payload, cron_expression, enabled,
		       last_run_at, next_run_at, run_count, fail_count, created_at, updated_at
		FROM schedules WHERE name = $1
	`, name).Scan(
		&schedule.ID, &schedule.Name, &schedule.JobType, &schedule.JobPayload,
		&schedule.CronExpression, &schedule.Enabled, &schedule.LastRunAt,
		&schedule.NextRunAt, &schedule.RunCount, &schedule.FailCount,
		&schedule.CreatedAt, &schedule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return schedule, nil
}

// EnsureComplianceSchedules registers the three compliance crons:
// severity pass hourly, daily snapshot at 02:00 UTC, weekly digest on
// Monday 08:00 UTC.
func (s *Scheduler) EnsureComplianceSchedules(ctx context.Context) error {
	empty, _ := json.Marshal(struct{}{})

	schedules := []*Schedule{
		{Name: "compliance-severity-pass", JobType: TypeSeverityPass, JobPayload: empty, CronExpression: "0 * * * *", Enabled: true},
		{Name: "compliance-daily-snapshot", JobType: TypeDailySnapshot, JobPayload: empty, CronExpression: "0 2 * * *", Enabled: true},
		{Name: "compliance-weekly-digest", JobType: TypeWeeklyDigest, JobPayload: empty, CronExpression: "0 8 * * 1", Enabled: true},
	}

	for _, schedule := range schedules {
		if err := s.CreateSchedule(ctx, schedule); err != nil {
			return err
		}
	}
	return nil
}

// NextCronRun returns the next UTC run time for the supported cron
// patterns: "M H * * *" (daily), "M * * * *" (hourly), and
// "M H * * DOW" (weekly).
func NextCronRun(expr string, from time.Time) (time.Time, error) {
	var minute, hour int
	var dom, month, dow string

	n, err := fmt.Sscanf(expr, "%d %d %s %s %s", &minute, &hour, &dom, &month, &dow)
	if err == nil && n == 5 && dom == "*" && month == "*" {
		if dow == "*" {
			// Daily at hour:minute
			next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, time.UTC)
			if !next.After(from) {
				next = next.AddDate(0, 0, 1)
			}
			return next, nil
		}
		// Weekly at hour:minute on day-of-week
		var weekday int
		if _, err := fmt.Sscanf(dow, "%d", &weekday); err == nil && weekday >= 0 && weekday <= 6 {
			next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, time.UTC)
			for int(next.Weekday()) != weekday || !next.After(from) {
				next = next.AddDate(0, 0, 1)
			}
			return next, nil
		}
	}

	// Hourly: "M * * * *"
	var m int
	var h string
	if n, err := fmt.Sscanf(expr, "%d %s %s %s %s", &m, &h, &dom, &month, &dow); err == nil && n == 5 &&
		h == "*" && dom == "*" && month == "*" && dow == "*" {
		next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), m, 0, 0, time.UTC)
		if !next.After(from) {
			next = next.Add(time.Hour)
		}
		return next, nil
	}

	return time.Time{}, fmt.Errorf("unsupported cron expression: %s", expr)
}
