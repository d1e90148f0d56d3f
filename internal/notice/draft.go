package notice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/project"
)

// DraftConfig holds notice drafting model settings
type DraftConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// DraftInput carries everything the draft prompt needs
type DraftInput struct {
	NoticeType         Type
	Project            *project.Project
	Clause             *clause.Clause
	TriggerDescription string
	TriggerDate        time.Time
	DeadlineDate       time.Time
	FromName           string
	AdditionalContext  string
}

// DraftResult is the generated draft plus model attribution
type DraftResult struct {
	Content string
	Model   string
	Tokens  ai.Usage
}

// buildDraftPrompt renders the user prompt for notice generation
func buildDraftPrompt(in DraftInput) string {
	gcName := "General Contractor"
	gcCompany := ""
	gcEmail := ""
	if in.Project.GCContactName != nil && *in.Project.GCContactName != "" {
		gcName = *in.Project.GCContactName
	}
	if in.Project.GCCompanyName != nil {
		gcCompany = *in.Project.GCCompanyName
	}
	if in.Project.GCContactEmail != nil {
		gcEmail = *in.Project.GCContactEmail
	}

	sectionRef := "N/A"
	if in.Clause.SectionRef != nil && *in.Clause.SectionRef != "" {
		sectionRef = *in.Clause.SectionRef
	}

	noticeMethod := string(clause.MethodWrittenNotice)
	if in.Clause.NoticeMethod != nil {
		noticeMethod = string(*in.Clause.NoticeMethod)
	}

	additional := in.AdditionalContext
	if additional == "" {
		additional = "None"
	}

	fromName := in.FromName
	if fromName == "" {
		fromName = "Project Manager"
	}

	return fmt.Sprintf(ai.NoticeGenerationUser,
		displayType(in.NoticeType),
		in.Project.Name,
		in.Clause.Title,
		sectionRef,
		in.Clause.Content,
		in.TriggerDescription,
		in.TriggerDate.Format("January 2, 2006"),
		in.DeadlineDate.Format("January 2, 2006"),
		noticeMethod,
		fromName,
		in.Project.Name,
		gcName,
		gcCompany,
		gcEmail,
		additional,
		sectionRef,
	)
}

// generateDraft runs the draft computation against the language model.
// Pure over its inputs apart from the model call itself; no database
// transaction is held across it.
func (s *Service) generateDraft(ctx context.Context, in DraftInput) (*DraftResult, error) {
	resp, err := s.aiClient.Complete(ctx, ai.CompletionParams{
		Model:       s.draftCfg.Model,
		MaxTokens:   s.draftCfg.MaxTokens,
		System:      ai.NoticeGenerationSystem,
		User:        buildDraftPrompt(in),
		Temperature: s.draftCfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("notice draft: %w", err)
	}

	return &DraftResult{
		Content: resp.GetText(),
		Model:   resp.Model,
		Tokens:  resp.Usage,
	}, nil
}

// displayType renders a notice type for letters: CHANGE_ORDER_NOTICE ->
// "Change Order Notice".
func displayType(t Type) string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
