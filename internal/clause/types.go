// Package clause stores contract clauses extracted from contract
// documents and the review/confirmation state around them.
package clause

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClauseNotFound      = errors.New("clause not found")
	ErrInvalidDeadlineType = errors.New("invalid deadline type")
)

// Kind classifies a contract clause. Closed set; unknown values are
// rejected on ingest.
type Kind string

const (
	KindPaymentTerms            Kind = "PAYMENT_TERMS"
	KindChangeOrderProcess      Kind = "CHANGE_ORDER_PROCESS"
	KindClaimsProcedure         Kind = "CLAIMS_PROCEDURE"
	KindDisputeResolution       Kind = "DISPUTE_RESOLUTION"
	KindNoticeRequirements      Kind = "NOTICE_REQUIREMENTS"
	KindRetention               Kind = "RETENTION"
	KindWarranty                Kind = "WARRANTY"
	KindInsurance               Kind = "INSURANCE"
	KindIndemnification         Kind = "INDEMNIFICATION"
	KindTermination             Kind = "TERMINATION"
	KindForceMajeure            Kind = "FORCE_MAJEURE"
	KindLiquidatedDamages       Kind = "LIQUIDATED_DAMAGES"
	KindSchedule                Kind = "SCHEDULE"
	KindSafety                  Kind = "SAFETY"
	KindGeneralConditions       Kind = "GENERAL_CONDITIONS"
	KindSupplementaryConditions Kind = "SUPPLEMENTARY_CONDITIONS"
)

var validKinds = map[Kind]bool{
	KindPaymentTerms:            true,
	KindChangeOrderProcess:      true,
	KindClaimsProcedure:         true,
	KindDisputeResolution:       true,
	KindNoticeRequirements:      true,
	KindRetention:               true,
	KindWarranty:                true,
	KindInsurance:               true,
	KindIndemnification:         true,
	KindTermination:             true,
	KindForceMajeure:            true,
	KindLiquidatedDamages:       true,
	KindSchedule:                true,
	KindSafety:                  true,
	KindGeneralConditions:       true,
	KindSupplementaryConditions: true,
}

// ValidKind reports whether k is a member of the closed kind set
func ValidKind(k string) bool {
	return validKinds[Kind(k)]
}

// DeadlineType determines how a clause's deadline count is interpreted
type DeadlineType string

const (
	CalendarDays DeadlineType = "CALENDAR_DAYS"
	BusinessDays DeadlineType = "BUSINESS_DAYS"
	Hours        DeadlineType = "HOURS"
)

// ValidDeadlineType reports whether t is a member of the closed set
func ValidDeadlineType(t string) bool {
	switch DeadlineType(t) {
	case CalendarDays, BusinessDays, Hours:
		return true
	}
	return false
}

// NoticeMethod is the delivery method a clause requires for notices
type NoticeMethod string

const (
	MethodWrittenNotice  NoticeMethod = "WRITTEN_NOTICE"
	MethodCertifiedMail  NoticeMethod = "CERTIFIED_MAIL"
	MethodEmail          NoticeMethod = "EMAIL"
	MethodHandDelivery   NoticeMethod = "HAND_DELIVERY"
	MethodRegisteredMail NoticeMethod = "REGISTERED_MAIL"
)

// ValidNoticeMethod reports whether m is a member of the closed set
func ValidNoticeMethod(m string) bool {
	switch NoticeMethod(m) {
	case MethodWrittenNotice, MethodCertifiedMail, MethodEmail, MethodHandDelivery, MethodRegisteredMail:
		return true
	}
	return false
}

// Clause is a contractual passage with compliance timing implications.
// Confirmation is a one-way latch: confirming clears requiresReview and
// records who confirmed when. Clauses are never auto-deleted; only
// re-extraction replaces AI-extracted rows from the same source document.
type Clause struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"projectId"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SectionRef *string   `json:"sectionRef,omitempty"`

	DeadlineDays *int          `json:"deadlineDays,omitempty"`
	DeadlineType *DeadlineType `json:"deadlineType,omitempty"`
	NoticeMethod *NoticeMethod `json:"noticeMethod,omitempty"`
	Trigger      *string       `json:"trigger,omitempty"`

	CurePeriodDays *int          `json:"curePeriodDays,omitempty"`
	CurePeriodType *DeadlineType `json:"curePeriodType,omitempty"`

	FlowDownProvisions *string `json:"flowDownProvisions,omitempty"`
	ParentClauseRef    *string `json:"parentClauseRef,omitempty"`

	RequiresReview bool       `json:"requiresReview"`
	ReviewReason   *string    `json:"reviewReason,omitempty"`
	Confirmed      bool       `json:"confirmed"`
	ConfirmedAt    *time.Time `json:"confirmedAt,omitempty"`
	ConfirmedBy    *uuid.UUID `json:"confirmedBy,omitempty"`

	AIExtracted bool       `json:"aiExtracted"`
	AIModel     *string    `json:"aiModel,omitempty"`
	SourceDocID *uuid.UUID `json:"sourceDocId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasDeadlineParams reports whether the clause can produce deadlines
func (c *Clause) HasDeadlineParams() bool {
	return c.DeadlineDays != nil && c.DeadlineType != nil
}
