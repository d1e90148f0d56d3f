package score

import (
	"testing"
	"time"

	"github.com/efilo/compliance/internal/notice"
)

func sentNotice(sentAt time.Time, onTime bool) *notice.Notice {
	return &notice.Notice{
		Status:       notice.StatusSent,
		SentAt:       &sentAt,
		OnTimeStatus: &onTime,
	}
}

func TestStreak(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		notices []*notice.Notice
		want    int
	}{
		{
			name:    "no notices",
			notices: nil,
			want:    0,
		},
		{
			name: "all on time",
			notices: []*notice.Notice{
				sentNotice(base, true),
				sentNotice(base.AddDate(0, 0, 1), true),
				sentNotice(base.AddDate(0, 0, 2), true),
			},
			want: 3,
		},
		{
			name: "most recent missed",
			notices: []*notice.Notice{
				sentNotice(base, true),
				sentNotice(base.AddDate(0, 0, 1), true),
				sentNotice(base.AddDate(0, 0, 2), false),
			},
			want: 0,
		},
		{
			name: "streak broken in the middle",
			notices: []*notice.Notice{
				sentNotice(base, true),
				sentNotice(base.AddDate(0, 0, 1), false),
				sentNotice(base.AddDate(0, 0, 2), true),
				sentNotice(base.AddDate(0, 0, 3), true),
			},
			want: 2,
		},
		{
			name: "order independent of input slice",
			notices: []*notice.Notice{
				sentNotice(base.AddDate(0, 0, 3), true),
				sentNotice(base, false),
				sentNotice(base.AddDate(0, 0, 1), true),
			},
			want: 2,
		},
		{
			name: "unsent notices excluded",
			notices: []*notice.Notice{
				{Status: notice.StatusDraft},
				sentNotice(base, true),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.notices); got != tt.want {
				t.Errorf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPeriodTypeForQuery(t *testing.T) {
	tests := []struct {
		period string
		want   string
		ok     bool
	}{
		{"week", PeriodDaily, true},
		{"month", PeriodDaily, true},
		{"quarter", PeriodWeekly, true},
		{"year", PeriodMonthly, true},
		{"day", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := PeriodTypeForQuery(tt.period)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("PeriodTypeForQuery(%q) = %q, %v", tt.period, got, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("PeriodTypeForQuery(%q) should fail", tt.period)
		}
	}
}
