package severity

import (
	"testing"
	"time"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		status   string
		want     Severity
	}{
		{"completed is low", now.Add(time.Hour), "COMPLETED", Low},
		{"waived is low", now.Add(time.Hour), "WAIVED", Low},
		{"notice sent is low", now.Add(-time.Hour), "NOTICE_SENT", Low},
		{"exactly now is expired", now, "ACTIVE", Expired},
		{"past is expired", now.Add(-time.Minute), "ACTIVE", Expired},
		{"one hour out is critical", now.Add(time.Hour), "ACTIVE", Critical},
		{"three days out is critical", now.AddDate(0, 0, 3), "ACTIVE", Critical},
		{"five days out is warning", now.AddDate(0, 0, 5), "ACTIVE", Warning},
		{"seven days out is warning", now.AddDate(0, 0, 7), "ACTIVE", Warning},
		{"nine days out is info", now.AddDate(0, 0, 9), "ACTIVE", Info},
		{"fourteen days out is info", now.AddDate(0, 0, 14), "ACTIVE", Info},
		{"thirty days out is low", now.AddDate(0, 0, 30), "ACTIVE", Low},
		{"drafted still classifies", now.AddDate(0, 0, 2), "NOTICE_DRAFTED", Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.deadline, now, tt.status); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEscalated(t *testing.T) {
	tests := []struct {
		old, new Severity
		want     bool
	}{
		{Low, Info, true},
		{Info, Warning, true},
		{Warning, Critical, true},
		{Critical, Expired, true},
		{Warning, Info, false},
		{Critical, Critical, false},
		{Expired, Low, false},
	}

	for _, tt := range tests {
		if got := Escalated(tt.old, tt.new); got != tt.want {
			t.Errorf("Escalated(%s, %s) = %v, want %v", tt.old, tt.new, got, tt.want)
		}
	}
}

func TestAlertable(t *testing.T) {
	for _, s := range []Severity{Warning, Critical, Expired} {
		if !Alertable(s) {
			t.Errorf("Alertable(%s) = false", s)
		}
	}
	for _, s := range []Severity{Low, Info} {
		if Alertable(s) {
			t.Errorf("Alertable(%s) = true", s)
		}
	}
}

func TestFromDaysRemaining(t *testing.T) {
	tests := []struct {
		days int
		want Severity
	}{
		{-1, Expired},
		{0, Critical},
		{3, Critical},
		{7, Warning},
		{14, Info},
		{15, Low},
	}

	for _, tt := range tests {
		if got := FromDaysRemaining(tt.days); got != tt.want {
			t.Errorf("FromDaysRemaining(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range []string{"LOW", "INFO", "WARNING", "CRITICAL", "EXPIRED"} {
		if !Valid(s) {
			t.Errorf("Valid(%s) = false", s)
		}
	}
	if Valid("URGENT") || Valid("") {
		t.Error("unknown severity accepted")
	}
}
