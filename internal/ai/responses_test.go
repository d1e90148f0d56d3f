package ai

import "testing"

func TestParseClauses(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{
			name:    "plain array",
			content: `[{"kind": "CLAIMS_PROCEDURE", "title": "Claims", "content": "text"}]`,
			want:    1,
		},
		{
			name: "fenced array",
			content: "```json\n" +
				`[{"kind": "CLAIMS_PROCEDURE", "title": "Claims", "content": "text"},` +
				`{"kind": "RETENTION", "title": "Retention", "content": "text"}]` +
				"\n```",
			want: 2,
		},
		{
			name:    "object with clauses field",
			content: `{"clauses": [{"kind": "WARRANTY", "title": "W", "content": "c"}]}`,
			want:    1,
		},
		{
			name:    "array embedded in prose",
			content: `Here are the clauses: [{"kind": "SAFETY", "title": "S", "content": "c"}] as requested.`,
			want:    1,
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    0,
		},
		{
			name:    "garbage",
			content: `no json here`,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClauses(tt.content)
			if len(got) != tt.want {
				t.Errorf("ParseClauses returned %d clauses, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseClausesFields(t *testing.T) {
	content := `[{
		"kind": "CLAIMS_PROCEDURE",
		"title": "Notice of Claims",
		"content": "Subcontractor shall give notice...",
		"sectionRef": "Article 14.2",
		"deadlineDays": 10,
		"deadlineType": "CALENDAR_DAYS",
		"noticeMethod": "WRITTEN_NOTICE",
		"requiresReview": true,
		"reviewReason": "ambiguous trigger"
	}]`

	clauses := ParseClauses(content)
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}

	c := clauses[0]
	if c.Kind != "CLAIMS_PROCEDURE" {
		t.Errorf("kind = %s", c.Kind)
	}
	if got := SafeInt(c.DeadlineDays); got == nil || *got != 10 {
		t.Errorf("deadlineDays = %v", got)
	}
	if !c.RequiresReview {
		t.Error("requiresReview not parsed")
	}
	if c.SectionRef == nil || *c.SectionRef != "Article 14.2" {
		t.Errorf("sectionRef = %v", c.SectionRef)
	}
}

func TestSafeInt(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want *int
	}{
		{"float", float64(10), intPtr(10)},
		{"int", 7, intPtr(7)},
		{"numeric string", "14", intPtr(14)},
		{"nil", nil, nil},
		{"word", "ten", nil},
		{"empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeInt(tt.in)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("SafeInt = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("SafeInt = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
