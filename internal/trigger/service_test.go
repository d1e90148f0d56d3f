package trigger

import (
	"testing"

	"github.com/efilo/compliance/internal/clause"
)

func TestDeadlineWindow(t *testing.T) {
	days := 10
	bd := clause.BusinessDays
	hours := clause.Hours

	tests := []struct {
		name   string
		clause *clause.Clause
		want   string
	}{
		{
			name:   "business days",
			clause: &clause.Clause{DeadlineDays: &days, DeadlineType: &bd},
			want:   "10 business days",
		},
		{
			name:   "hours",
			clause: &clause.Clause{DeadlineDays: &days, DeadlineType: &hours},
			want:   "10 hours",
		},
		{
			name:   "missing type falls back to days",
			clause: &clause.Clause{DeadlineDays: &days},
			want:   "10 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deadlineWindow(tt.clause); got != tt.want {
				t.Errorf("deadlineWindow = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClauseRef(t *testing.T) {
	ref := "Article 14.2"
	withRef := &clause.Clause{Title: "Claims Procedure", SectionRef: &ref}
	if got := clauseRef(withRef); got != ref {
		t.Errorf("clauseRef = %q, want %q", got, ref)
	}

	empty := ""
	withoutRef := &clause.Clause{Title: "Claims Procedure", SectionRef: &empty}
	if got := clauseRef(withoutRef); got != "Claims Procedure" {
		t.Errorf("clauseRef = %q, want title fallback", got)
	}
}

func TestTriggerKindSets(t *testing.T) {
	// RFI CO detection matches claims and change order clauses only
	if len(rfiClauseKinds) != 2 {
		t.Errorf("rfi kinds = %v", rfiClauseKinds)
	}
	// Change events additionally match notice requirement clauses
	found := false
	for _, k := range changeEventClauseKinds {
		if k == clause.KindNoticeRequirements {
			found = true
		}
	}
	if !found {
		t.Error("change event kinds should include NOTICE_REQUIREMENTS")
	}
}
