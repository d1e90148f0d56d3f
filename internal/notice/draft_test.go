package notice

import (
	"strings"
	"testing"
	"time"

	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/project"
)

func TestBuildDraftPrompt(t *testing.T) {
	sectionRef := "Article 14.2"
	gcName := "Jordan Blake"
	gcCompany := "Summit Builders"
	gcEmail := "jordan@summitbuilders.example"
	method := clause.MethodCertifiedMail

	in := DraftInput{
		NoticeType: TypeChangeOrder,
		Project: &project.Project{
			Name:           "Riverside Medical Center",
			GCContactName:  &gcName,
			GCCompanyName:  &gcCompany,
			GCContactEmail: &gcEmail,
		},
		Clause: &clause.Clause{
			Title:        "Change Order Procedure",
			Content:      "Subcontractor shall provide written notice of any change...",
			SectionRef:   &sectionRef,
			NoticeMethod: &method,
		},
		TriggerDescription: "RFI #42 flagged as potential change order",
		TriggerDate:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		DeadlineDate:       time.Date(2025, 3, 20, 23, 59, 59, 0, time.UTC),
		FromName:           "Alex Rivera",
	}

	prompt := buildDraftPrompt(in)

	for _, want := range []string{
		"Change Order Notice",
		"Riverside Medical Center",
		"Article 14.2",
		"March 10, 2025",
		"March 20, 2025",
		"CERTIFIED_MAIL",
		"Jordan Blake",
		"Summit Builders",
		"Alex Rivera",
		"RFI #42",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildDraftPromptDefaults(t *testing.T) {
	in := DraftInput{
		NoticeType: TypeGeneral,
		Project:    &project.Project{Name: "P"},
		Clause: &clause.Clause{
			Title:   "General Conditions",
			Content: "...",
		},
		TriggerDescription: "Manual notice",
		TriggerDate:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		DeadlineDate:       time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
	}

	prompt := buildDraftPrompt(in)

	for _, want := range []string{
		"General Contractor", // default GC name
		"WRITTEN_NOTICE",     // default notice method
		"Project Manager",    // default sender
		"N/A",                // default section ref
		"None",               // default additional context
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing default %q", want)
		}
	}
}
