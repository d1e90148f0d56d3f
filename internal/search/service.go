// Package search provides keyword search across compliance entities:
// clauses, deadlines, and notices.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/notice"
)

// Entity type values accepted in the types filter
const (
	TypeClause   = "contract_clause"
	TypeDeadline = "compliance_deadline"
	TypeNotice   = "compliance_notice"
)

var allTypes = []string{TypeClause, TypeDeadline, TypeNotice}

// Result is one search hit, shaped for the compliance search endpoint
type Result struct {
	ID          uuid.UUID              `json:"id"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	Severity    string                 `json:"severity,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   string                 `json:"createdAt"`
}

// Service runs compliance searches
type Service struct {
	clauseRepo   *clause.Repository
	deadlineRepo *deadline.Repository
	noticeRepo   *notice.Repository
}

// NewService creates a new search service
func NewService(clauseRepo *clause.Repository, deadlineRepo *deadline.Repository, noticeRepo *notice.Repository) *Service {
	return &Service{
		clauseRepo:   clauseRepo,
		deadlineRepo: deadlineRepo,
		noticeRepo:   noticeRepo,
	}
}

// Params filters a search
type Params struct {
	Query    string
	Types    []string
	Status   string
	Severity string
}

// Search runs a keyword search across the requested entity types
func (s *Service) Search(ctx context.Context, projectID uuid.UUID, p Params) ([]Result, error) {
	types := p.Types
	if len(types) == 0 {
		types = allTypes
	}
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var results []Result

	if wanted[TypeClause] {
		clauses, err := s.clauseRepo.Search(ctx, projectID, p.Query, 20)
		if err != nil {
			return nil, err
		}
		for _, c := range clauses {
			results = append(results, clauseResult(c))
		}
	}

	if wanted[TypeDeadline] {
		deadlines, err := s.deadlineRepo.Search(ctx, projectID, p.Query, p.Status, p.Severity, 20)
		if err != nil {
			return nil, err
		}
		for _, d := range deadlines {
			results = append(results, deadlineResult(d))
		}
	}

	if wanted[TypeNotice] {
		notices, err := s.noticeRepo.Search(ctx, projectID, p.Query, 20)
		if err != nil {
			return nil, err
		}
		for _, n := range notices {
			results = append(results, noticeResult(n))
		}
	}

	return results, nil
}

func clauseResult(c *clause.Clause) Result {
	sectionRef := ""
	if c.SectionRef != nil {
		sectionRef = *c.SectionRef
	}

	status := "Pending"
	if c.Confirmed {
		status = "Confirmed"
	} else if c.RequiresReview {
		status = "Needs Review"
	}

	kindDisplay := strings.ReplaceAll(string(c.Kind), "_", " ")
	dlType := ""
	if c.DeadlineType != nil {
		dlType = strings.ToLower(strings.ReplaceAll(string(*c.DeadlineType), "_", " "))
	}
	method := "N/A"
	if c.NoticeMethod != nil {
		method = strings.ToLower(strings.ReplaceAll(string(*c.NoticeMethod), "_", " "))
	}
	days := "N/A"
	if c.DeadlineDays != nil {
		days = fmt.Sprintf("%d", *c.DeadlineDays)
	}

	return Result{
		ID:          c.ID,
		Type:        TypeClause,
		Title:       strings.TrimSpace(sectionRef + " " + c.Title),
		Description: fmt.Sprintf("%s · %s %s · %s", kindDisplay, days, dlType, method),
		Status:      status,
		Metadata: map[string]interface{}{
			"kind":         string(c.Kind),
			"deadlineDays": c.DeadlineDays,
			"deadlineType": c.DeadlineType,
			"noticeMethod": c.NoticeMethod,
			"aiExtracted":  c.AIExtracted,
		},
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func deadlineResult(d *deadline.Deadline) Result {
	ref := "N/A"
	if d.ClauseSectionRef != nil && *d.ClauseSectionRef != "" {
		ref = *d.ClauseSectionRef
	}

	return Result{
		ID:          d.ID,
		Type:        TypeDeadline,
		Title:       fmt.Sprintf("Deadline: %s (%s)", d.ClauseTitle, ref),
		Description: d.TriggerDescription,
		Status:      string(d.Status),
		Severity:    string(d.Severity),
		Metadata: map[string]interface{}{
			"clauseId":           d.ClauseID.String(),
			"calculatedDeadline": d.CalculatedDeadline.Format("2006-01-02T15:04:05Z"),
			"triggerEventType":   string(d.TriggerEventType),
			"triggerEventId":     d.TriggerEventID,
		},
		CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func noticeResult(n *notice.Notice) Result {
	typeDisplay := strings.ReplaceAll(string(n.Type), "_", " ")
	sentStr := "Not sent"
	sentAt := ""
	if n.SentAt != nil {
		sentStr = "Sent " + n.SentAt.Format("2006-01-02")
		sentAt = n.SentAt.Format("2006-01-02T15:04:05Z")
	}

	metadata := map[string]interface{}{
		"noticeType":    string(n.Type),
		"onTimeStatus":  n.OnTimeStatus,
		"generatedByAI": n.GeneratedByAI,
	}
	if sentAt != "" {
		metadata["sentAt"] = sentAt
	}

	return Result{
		ID:          n.ID,
		Type:        TypeNotice,
		Title:       n.Title,
		Description: fmt.Sprintf("%s · %s · %s", typeDisplay, n.Status, sentStr),
		Status:      string(n.Status),
		Metadata:    metadata,
		CreatedAt:   n.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
