// Package notice implements the notice engine: drafting (with AI
// assistance), editing, sending, delivery confirmation, regeneration,
// and deletion of formal compliance notices.
package notice

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoticeNotFound   = errors.New("notice not found")
	ErrNoRecipientEmail = errors.New("notice has no recipient email")
	ErrNoLinkedClause   = errors.New("notice has no linked clause")
	ErrInvalidMethod    = errors.New("invalid delivery method")
)

// StateError is returned when an operation is not allowed from the
// notice's current status. The status is named in the message.
type StateError struct {
	Op     string
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s notice in %s status", e.Op, e.Status)
}

// Type classifies a compliance notice. Closed set.
type Type string

const (
	TypeChangeOrder            Type = "CHANGE_ORDER_NOTICE"
	TypeClaim                  Type = "CLAIM_NOTICE"
	TypeDelay                  Type = "DELAY_NOTICE"
	TypeDifferingSiteCondition Type = "DIFFERING_SITE_CONDITION"
	TypeForceMajeure           Type = "FORCE_MAJEURE_NOTICE"
	TypeCure                   Type = "CURE_NOTICE"
	TypeTermination            Type = "TERMINATION_NOTICE"
	TypeGeneral                Type = "GENERAL_NOTICE"
)

// ValidType reports whether t is a member of the closed type set
func ValidType(t string) bool {
	switch Type(t) {
	case TypeChangeOrder, TypeClaim, TypeDelay, TypeDifferingSiteCondition,
		TypeForceMajeure, TypeCure, TypeTermination, TypeGeneral:
		return true
	}
	return false
}

// Status is the notice lifecycle state: DRAFT/PENDING_REVIEW -> SENT ->
// ACKNOWLEDGED, or DRAFT/PENDING_REVIEW -> deleted. Content is mutable only in DRAFT
// and PENDING_REVIEW.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusSent          Status = "SENT"
	StatusAcknowledged  Status = "ACKNOWLEDGED"
)

// ValidStatus reports whether s is a member of the closed status set
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusDraft, StatusPendingReview, StatusSent, StatusAcknowledged:
		return true
	}
	return false
}

// Editable reports whether content mutations are allowed
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusPendingReview
}

// DeliveryMethod values accepted by confirm-delivery
var deliveryMethodKeys = map[string]string{
	"EMAIL":           "email",
	"CERTIFIED_MAIL":  "certifiedMail",
	"REGISTERED_MAIL": "registeredMail",
	"HAND_DELIVERY":   "handDelivery",
	"FAX":             "fax",
	"COURIER":         "courier",
}

// ValidDeliveryMethods lists accepted delivery methods for error text
func ValidDeliveryMethods() []string {
	return []string{"EMAIL", "CERTIFIED_MAIL", "REGISTERED_MAIL", "HAND_DELIVERY", "FAX", "COURIER"}
}

// CanonicalMethodKey maps a delivery method to the camelCase key used in
// the deliveryConfirmation map, or "" if the method is unknown.
func CanonicalMethodKey(method string) string {
	return deliveryMethodKeys[method]
}

// ConfirmationEntry records delivery evidence for one method
type ConfirmationEntry struct {
	Status         string  `json:"status"`
	DeliveredAt    string  `json:"deliveredAt"`
	TrackingNumber *string `json:"trackingNumber,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	SignedBy       *string `json:"signedBy,omitempty"`
	ReceivedBy     *string `json:"receivedBy,omitempty"`
}

// Notice is the formal written communication that satisfies a clause.
// onTimeStatus is frozen exactly once, at the SENT transition.
type Notice struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`

	RecipientName  *string `json:"recipientName,omitempty"`
	RecipientEmail *string `json:"recipientEmail,omitempty"`

	DueDate        *time.Time `json:"dueDate,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`

	ClauseID *uuid.UUID `json:"clauseId,omitempty"`

	DeliveryMethods      []string                     `json:"deliveryMethods"`
	DeliveryConfirmation map[string]ConfirmationEntry `json:"deliveryConfirmation,omitempty"`
	OnTimeStatus         *bool                        `json:"onTimeStatus,omitempty"`

	GeneratedByAI bool    `json:"generatedByAI"`
	AIModel       *string `json:"aiModel,omitempty"`

	CreatedByID uuid.UUID `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
