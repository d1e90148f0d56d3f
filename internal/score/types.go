// Package score computes the compliance score, streaks, claims values,
// and periodic history snapshots from notice delivery performance.
package score

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period types stored on history snapshots
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Score is the per-project compliance aggregate. One active row per
// project, upserted on demand; bestStreak only grows.
type Score struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Score     int       `json:"score"`

	Details map[string]interface{} `json:"details"`

	CurrentStreak  int        `json:"currentStreak"`
	BestStreak     int        `json:"bestStreak"`
	StreakBrokenAt *time.Time `json:"streakBrokenAt,omitempty"`

	ProtectedClaimsValue string `json:"protectedClaimsValue"`
	AtRiskValue          string `json:"atRiskValue"`

	OnTimeCount   int `json:"onTimeCount"`
	TotalCount    int `json:"totalCount"`
	MissedCount   int `json:"missedCount"`
	AtRiskCount   int `json:"atRiskCount"`
	ActiveCount   int `json:"activeCount"`
	UpcomingCount int `json:"upcomingCount"`

	LastCalculatedAt time.Time `json:"lastCalculatedAt"`
}

// HistoryEntry is an immutable point-in-time snapshot, unique on
// (projectId, snapshotDate, periodType).
type HistoryEntry struct {
	ID                   uuid.UUID `json:"id"`
	ProjectID            uuid.UUID `json:"projectId"`
	SnapshotDate         time.Time `json:"snapshotDate"`
	CompliancePercentage string    `json:"compliancePercentage"`
	OnTimeCount          int       `json:"onTimeCount"`
	TotalCount           int       `json:"totalCount"`
	NoticesSentInPeriod  int       `json:"noticesSentInPeriod"`
	ProtectedClaimsValue string    `json:"protectedClaimsValue"`
	PeriodType           string    `json:"periodType"`
	CreatedAt            time.Time `json:"createdAt"`
}

// HealthComponent is the compliance slice of project health
type HealthComponent struct {
	Name    string                 `json:"name"`
	Score   int                    `json:"score"`
	Weight  float64                `json:"weight"`
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details"`
}

// queryPeriodTypes maps API period query values to stored period types
var queryPeriodTypes = map[string]string{
	"week":    PeriodDaily,
	"month":   PeriodDaily,
	"quarter": PeriodWeekly,
	"year":    PeriodMonthly,
}

// PeriodTypeForQuery resolves an API period value to a stored period
// type, or ErrInvalidPeriod.
func PeriodTypeForQuery(period string) (string, error) {
	pt, ok := queryPeriodTypes[period]
	if !ok {
		return "", ErrInvalidPeriod
	}
	return pt, nil
}
