package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants for the compliance audit trail
const (
	EventClauseExtraction   = "CLAUSE_EXTRACTION"
	EventClauseConfirmed    = "CLAUSE_CONFIRMED"
	EventDeadlineCreated    = "DEADLINE_CREATED"
	EventDeadlineStatus     = "DEADLINE_STATUS_CHANGE"
	EventDeadlineWaived     = "DEADLINE_WAIVED"
	EventSeverityChange     = "SEVERITY_CHANGE"
	EventNoticeCreated      = "NOTICE_CREATED"
	EventNoticeSent         = "NOTICE_SENT"
	EventNoticeRegenerated  = "NOTICE_REGENERATED"
	EventNoticeDeleted      = "NOTICE_DELETED"
	EventDeliveryConfirmed  = "DELIVERY_CONFIRMED"
	EventHolidayCreated     = "HOLIDAY_CREATED"
	EventHolidayDeleted     = "HOLIDAY_DELETED"
	EventScoreRecalculated  = "SCORE_RECALCULATED"
)

// Entity type constants
const (
	EntityClause   = "ContractClause"
	EntityDeadline = "ComplianceDeadline"
	EntityNotice   = "ComplianceNotice"
	EntityDocument = "Document"
	EntityHoliday  = "ProjectHoliday"
	EntityScore    = "ComplianceScore"
)

// Actor type constants
const (
	ActorUser   = "USER"
	ActorSystem = "SYSTEM"
	ActorAI     = "AI"
)

// Entry is a single append-only audit log record. Entries are never
// updated or deleted; every state change to a deadline or notice writes
// exactly one entry inside the same transaction as the change.
type Entry struct {
	ID         uuid.UUID              `json:"id"`
	ProjectID  uuid.UUID              `json:"projectId"`
	EventType  string                 `json:"eventType"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	UserID     *uuid.UUID             `json:"userId,omitempty"`
	ActorType  string                 `json:"actorType"`
	Action     string                 `json:"action"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
