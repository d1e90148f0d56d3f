// Package job implements the PostgreSQL-backed background job queue,
// the cron-style scheduler, and the worker pool that runs the
// compliance engine's recurring and event-driven work.
package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status constants for job states
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDead      = "dead"
)

// Priority levels
const (
	PriorityHigh   = 10
	PriorityNormal = 5
	PriorityLow    = 1
)

// Job types
const (
	TypeSeverityPass       = "compliance_severity_pass"
	TypeDailySnapshot      = "compliance_daily_snapshot"
	TypeWeeklyDigest       = "compliance_weekly_digest"
	TypeRFITrigger         = "compliance_rfi_trigger"
	TypeChangeEventTrigger = "compliance_change_event_trigger"
	TypeClauseExtraction   = "compliance_clause_extraction"
)

// Job represents a background job in the queue
type Job struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      *uuid.UUID      `json:"projectId,omitempty"`
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	Priority       int             `json:"priority"`
	Status         string          `json:"status"`
	MaxRetries     int             `json:"maxRetries"`
	RetryCount     int             `json:"retryCount"`
	LastError      string          `json:"lastError,omitempty"`
	RunAt          time.Time       `json:"runAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	TimeoutSeconds int             `json:"timeoutSeconds"`
	WorkerID       string          `json:"workerId,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Schedule represents a recurring job schedule
type Schedule struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	JobType        string          `json:"jobType"`
	JobPayload     json.RawMessage `json:"jobPayload"`
	CronExpression string          `json:"cronExpression"`
	Enabled        bool            `json:"enabled"`
	LastRunAt      *time.Time      `json:"lastRunAt,omitempty"`
	NextRunAt      *time.Time      `json:"nextRunAt,omitempty"`
	RunCount       int             `json:"runCount"`
	FailCount      int             `json:"failCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Handler is the interface that job handlers must implement
type Handler interface {
	// Handle processes a job and returns a result or error
	Handle(ctx context.Context, job *Job) (json.RawMessage, error)
}

// HandlerFunc is an adapter to allow use of ordinary functions as job handlers
type HandlerFunc func(ctx context.Context, job *Job) (json.RawMessage, error)

// Handle calls f(ctx, job)
func (f HandlerFunc) Handle(ctx context.Context, job *Job) (json.RawMessage, error) {
	return f(ctx, job)
}

// EnqueueOptions provides options when enqueuing a job
type EnqueueOptions struct {
	Priority       int
	RunAt          time.Time
	MaxRetries     int
	TimeoutSeconds int
	IdempotencyKey string
}

// DefaultEnqueueOptions returns default options for enqueueing.
// The timeout is the job-level hard limit; handlers soft-limit
// themselves below it.
func DefaultEnqueueOptions() *EnqueueOptions {
	return &EnqueueOptions{
		Priority:       PriorityNormal,
		RunAt:          time.Now(),
		MaxRetries:     3,
		TimeoutSeconds: 660, // 11 minutes
	}
}

// WorkerMetrics contains worker statistics
type WorkerMetrics struct {
	JobsProcessed int64 `json:"jobsProcessed"`
	JobsFailed    int64 `json:"jobsFailed"`
	JobsSucceeded int64 `json:"jobsSucceeded"`
	QueueLength   int64 `json:"queueLength"`
	ActiveJobs    int   `json:"activeJobs"`
}

// PayloadTo unmarshals the job payload into the given struct
func (j *Job) PayloadTo(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}
