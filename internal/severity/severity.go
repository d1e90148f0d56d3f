// Package severity classifies deadlines into urgency bands by time
// remaining:
//
//	EXPIRED:  past deadline
//	CRITICAL: <= 3 days remaining
//	WARNING:  3-7 days remaining
//	INFO:     7-14 days remaining
//	LOW:      > 14 days remaining
package severity

import "time"

// Severity is a banded urgency label for a deadline
type Severity string

const (
	Low      Severity = "LOW"
	Info     Severity = "INFO"
	Warning  Severity = "WARNING"
	Critical Severity = "CRITICAL"
	Expired  Severity = "EXPIRED"
)

// Thresholds in days
const (
	criticalThresholdDays = 3
	warningThresholdDays  = 7
	infoThresholdDays     = 14
)

// settledStatuses are deadline statuses that no longer need urgency
// tracking; they always classify as LOW.
var settledStatuses = map[string]bool{
	"COMPLETED":   true,
	"WAIVED":      true,
	"NOTICE_SENT": true,
}

// Valid reports whether s is a member of the closed severity set
func Valid(s string) bool {
	switch Severity(s) {
	case Low, Info, Warning, Critical, Expired:
		return true
	}
	return false
}

// Classify returns the severity band for a deadline at the given instant.
// Status is the deadline's current status; settled statuses return LOW
// regardless of time remaining. A deadline exactly equal to now is EXPIRED.
func Classify(deadlineAt, now time.Time, status string) Severity {
	if settledStatuses[status] {
		return Low
	}

	if !deadlineAt.After(now) {
		return Expired
	}

	days := deadlineAt.Sub(now).Seconds() / 86400

	switch {
	case days <= criticalThresholdDays:
		return Critical
	case days <= warningThresholdDays:
		return Warning
	case days <= infoThresholdDays:
		return Info
	default:
		return Low
	}
}

// order defines the escalation total order LOW < INFO < WARNING < CRITICAL < EXPIRED
var order = map[Severity]int{
	Low:      0,
	Info:     1,
	Warning:  2,
	Critical: 3,
	Expired:  4,
}

// Escalated reports whether the severity became more urgent
func Escalated(old, new Severity) bool {
	return order[new] > order[old]
}

// Alertable reports whether a severity band should trigger notifications
func Alertable(s Severity) bool {
	return s == Warning || s == Critical || s == Expired
}

// FromDaysRemaining composes a severity label from whole days remaining,
// used when rendering digest lines without a full deadline row.
func FromDaysRemaining(days int) Severity {
	switch {
	case days < 0:
		return Expired
	case days <= criticalThresholdDays:
		return Critical
	case days <= warningThresholdDays:
		return Warning
	case days <= infoThresholdDays:
		return Info
	default:
		return Low
	}
}
