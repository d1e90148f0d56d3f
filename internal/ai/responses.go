package ai

import (
	"encoding/json"
	"strings"
)

// RawClause is a clause object as returned by the extraction model,
// before enum and field validation.
type RawClause struct {
	Kind               string      `json:"kind"`
	Title              string      `json:"title"`
	Content            string      `json:"content"`
	SectionRef         *string     `json:"sectionRef"`
	DeadlineDays       interface{} `json:"deadlineDays"`
	DeadlineType       *string     `json:"deadlineType"`
	NoticeMethod       *string     `json:"noticeMethod"`
	Trigger            *string     `json:"trigger"`
	CurePeriodDays     interface{} `json:"curePeriodDays"`
	CurePeriodType     *string     `json:"curePeriodType"`
	FlowDownProvisions *string     `json:"flowDownProvisions"`
	ParentClauseRef    *string     `json:"parentClauseRef"`
	RequiresReview     bool        `json:"requiresReview"`
	ReviewReason       *string     `json:"reviewReason"`
}

// ParseClauses parses the extraction model's output into raw clauses.
// The response is parsed tolerantly: code fences are stripped, both a
// top-level array and an object with a "clauses" field are accepted, and
// on failure the outermost [ ... ] substring is tried. An unparseable
// response returns nil, not an error; an empty clause list is not a
// failure.
func ParseClauses(content string) []RawClause {
	text := stripCodeFences(content)

	var clauses []RawClause
	if err := json.Unmarshal([]byte(text), &clauses); err == nil {
		return clauses
	}

	var wrapper struct {
		Clauses []RawClause `json:"clauses"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && wrapper.Clauses != nil {
		return wrapper.Clauses
	}

	// Fall back to the outermost JSON array in the response
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &clauses); err == nil {
			return clauses
		}
	}

	return nil
}

// SafeInt coerces a JSON number or numeric string to an int pointer.
// Non-numeric values return nil.
func SafeInt(val interface{}) *int {
	switch v := val.(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		var f float64
		if err := json.Unmarshal([]byte(trimmed), &f); err != nil {
			return nil
		}
		n := int(f)
		return &n
	default:
		return nil
	}
}

// stripCodeFences removes markdown code fences from model output
func stripCodeFences(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
