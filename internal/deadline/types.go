// Package deadline implements the compliance deadline engine: creation
// from trigger events, the status state machine, severity tracking,
// waiver, and the audit contract around every state change.
package deadline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/severity"
)

var (
	ErrDeadlineNotFound    = errors.New("deadline not found")
	ErrClauseMissingParams = errors.New("clause has no deadline parameters")
)

// Status is the deadline lifecycle state. ACTIVE -> NOTICE_DRAFTED ->
// NOTICE_SENT -> COMPLETED, with WAIVED terminal from any non-terminal
// state, EXPIRED terminal (set by the severity pass), and ACKNOWLEDGED
// reached through the notice.
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusNoticeDrafted Status = "NOTICE_DRAFTED"
	StatusNoticeSent    Status = "NOTICE_SENT"
	StatusCompleted     Status = "COMPLETED"
	StatusWaived        Status = "WAIVED"
	StatusExpired       Status = "EXPIRED"
	StatusAcknowledged  Status = "ACKNOWLEDGED"
)

// ValidStatus reports whether s is a member of the closed status set
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusNoticeDrafted, StatusNoticeSent, StatusCompleted,
		StatusWaived, StatusExpired, StatusAcknowledged:
		return true
	}
	return false
}

// Terminal reports whether the status ends the deadline lifecycle
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusWaived || s == StatusCompleted
}

// OpenStatuses are the statuses the severity pass still tracks
var OpenStatuses = []Status{StatusActive, StatusNoticeDrafted}

// TriggerEventType identifies the external event that started a deadline
type TriggerEventType string

const (
	TriggerRFI              TriggerEventType = "RFI"
	TriggerChangeOrder      TriggerEventType = "CHANGE_ORDER"
	TriggerManual           TriggerEventType = "MANUAL"
	TriggerDocumentReceived TriggerEventType = "DOCUMENT_RECEIVED"
	TriggerOther            TriggerEventType = "OTHER"
)

// ValidTriggerType reports whether t is a member of the closed set
func ValidTriggerType(t string) bool {
	switch TriggerEventType(t) {
	case TriggerRFI, TriggerChangeOrder, TriggerManual, TriggerDocumentReceived, TriggerOther:
		return true
	}
	return false
}

// DefaultTimezone is stored on each deadline as a display hint only;
// all stored timestamps are UTC.
const DefaultTimezone = "America/Los_Angeles"

// Deadline is a time-bounded obligation derived from a clause and a
// trigger event. calculatedDeadline is fixed at creation time from the
// clause parameters and the project's holiday set; later holiday edits
// do not rewrite it.
type Deadline struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	ClauseID  uuid.UUID `json:"clauseId"`

	TriggerEventType   TriggerEventType `json:"triggerEventType"`
	TriggerEventID     *string          `json:"triggerEventId,omitempty"`
	TriggerDescription string           `json:"triggerDescription"`
	TriggeredAt        time.Time        `json:"triggeredAt"`
	TriggeredBy        *uuid.UUID       `json:"triggeredBy,omitempty"`

	CalculatedDeadline time.Time  `json:"calculatedDeadline"`
	CureDeadline       *time.Time `json:"cureDeadline,omitempty"`
	DeadlineTimezone   string     `json:"deadlineTimezone"`

	Status   Status            `json:"status"`
	Severity severity.Severity `json:"severity"`

	NoticeID        *uuid.UUID `json:"noticeId,omitempty"`
	NoticeCreatedAt *time.Time `json:"noticeCreatedAt,omitempty"`

	WaivedAt     *time.Time `json:"waivedAt,omitempty"`
	WaivedBy     *uuid.UUID `json:"waivedBy,omitempty"`
	WaiverReason *string    `json:"waiverReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Joined clause fields for list responses
	ClauseTitle      string  `json:"clauseTitle,omitempty"`
	ClauseKind       string  `json:"clauseKind,omitempty"`
	ClauseSectionRef *string `json:"clauseSectionRef,omitempty"`
}
