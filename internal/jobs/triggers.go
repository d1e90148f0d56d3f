package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/job"
	"github.com/efilo/compliance/internal/trigger"
)

// RFITriggerPayload is enqueued when an RFI is flagged as a potential
// change order.
type RFITriggerPayload struct {
	ProjectID uuid.UUID  `json:"projectId"`
	RFIID     string     `json:"rfiId"`
	Number    string     `json:"rfiNumber"`
	Subject   string     `json:"rfiSubject"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
}

// ChangeEventTriggerPayload is enqueued when a change event is created
type ChangeEventTriggerPayload struct {
	ProjectID   uuid.UUID  `json:"projectId"`
	EventID     string     `json:"eventId"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
}

// TriggerResult reports deadlines created by a trigger job
type TriggerResult struct {
	DeadlinesCreated int      `json:"deadlinesCreated"`
	DeadlineIDs      []string `json:"deadlineIds,omitempty"`
}

// RFITriggerHandler materializes deadlines from an RFI CO flag
type RFITriggerHandler struct {
	triggerSvc *trigger.Service
	logger     *slog.Logger
}

// NewRFITriggerHandler creates a new RFI trigger handler
func NewRFITriggerHandler(triggerSvc *trigger.Service, logger *slog.Logger) *RFITriggerHandler {
	return &RFITriggerHandler{triggerSvc: triggerSvc, logger: logger}
}

// Handle processes an RFI trigger job. The trigger service is
// idempotent, so retried jobs do not duplicate deadlines.
func (h *RFITriggerHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	var payload RFITriggerPayload
	if err := j.PayloadTo(&payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	created, err := h.triggerSvc.OnRFIFlaggedAsChangeOrder(ctx, trigger.RFIEvent{
		ProjectID: payload.ProjectID,
		RFIID:     payload.RFIID,
		Number:    payload.Number,
		Subject:   payload.Subject,
		UserID:    payload.UserID,
	})
	if err != nil {
		return nil, err
	}

	result := &TriggerResult{DeadlinesCreated: len(created)}
	for _, d := range created {
		result.DeadlineIDs = append(result.DeadlineIDs, d.ID.String())
	}

	out, _ := json.Marshal(result)
	return out, nil
}

// ChangeEventTriggerHandler materializes deadlines from a change event
type ChangeEventTriggerHandler struct {
	triggerSvc *trigger.Service
	logger     *slog.Logger
}

// NewChangeEventTriggerHandler creates a new change event trigger handler
func NewChangeEventTriggerHandler(triggerSvc *trigger.Service, logger *slog.Logger) *ChangeEventTriggerHandler {
	return &ChangeEventTriggerHandler{triggerSvc: triggerSvc, logger: logger}
}

// Handle processes a change event trigger job
func (h *ChangeEventTriggerHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	var payload ChangeEventTriggerPayload
	if err := j.PayloadTo(&payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	created, err := h.triggerSvc.OnChangeEventCreated(ctx, trigger.ChangeEvent{
		ProjectID:   payload.ProjectID,
		EventID:     payload.EventID,
		Description: payload.Description,
		UserID:      payload.UserID,
	})
	if err != nil {
		return nil, err
	}

	result := &TriggerResult{DeadlinesCreated: len(created)}
	for _, d := range created {
		result.DeadlineIDs = append(result.DeadlineIDs, d.ID.String())
	}

	out, _ := json.Marshal(result)
	return out, nil
}

// ClauseExtractionPayload is enqueued when a contract document finishes
// parsing and should be re-scanned for clauses.
type ClauseExtractionPayload struct {
	ProjectID  uuid.UUID  `json:"projectId"`
	DocumentID uuid.UUID  `json:"documentId"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
}

// ClauseExtractionHandler runs clause extraction in the background
type ClauseExtractionHandler struct {
	extractor *clause.Extractor
	logger    *slog.Logger
}

// NewClauseExtractionHandler creates a new clause extraction handler
func NewClauseExtractionHandler(extractor *clause.Extractor, logger *slog.Logger) *ClauseExtractionHandler {
	return &ClauseExtractionHandler{extractor: extractor, logger: logger}
}

// Handle extracts clauses from a parsed document. Model transport
// failures surface as job errors and retry with backoff.
func (h *ClauseExtractionHandler) Handle(ctx context.Context, j *job.Job) (json.RawMessage, error) {
	var payload ClauseExtractionPayload
	if err := j.PayloadTo(&payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	clauses, err := h.extractor.ExtractFromDocument(ctx, payload.ProjectID, payload.DocumentID, payload.UserID)
	if err != nil {
		return nil, err
	}

	out, _ := json.Marshal(map[string]int{"clausesExtracted": len(clauses)})
	return out, nil
}
