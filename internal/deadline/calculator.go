package deadline

import (
	"fmt"
	"time"

	"github.com/efilo/compliance/internal/calendar"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/severity"
)

// Calculation is the result of deadline arithmetic for one trigger
type Calculation struct {
	CalculatedDeadline time.Time
	CureDeadline       *time.Time
	Severity           severity.Severity
}

// Calculate computes the deadline datetime from a trigger instant and
// clause parameters against a fixed holiday set. Day-based deadlines
// land at 23:59:59 UTC on the computed date so any action during the
// deadline day counts as on-time; HOURS deadlines are exact timestamps.
func Calculate(c *clause.Clause, triggeredAt time.Time, holidays calendar.HolidaySet, now time.Time) (*Calculation, error) {
	if !c.HasDeadlineParams() {
		return nil, ErrClauseMissingParams
	}
	days := *c.DeadlineDays

	calculated, err := resolve(triggeredAt, days, *c.DeadlineType, holidays)
	if err != nil {
		return nil, err
	}

	calc := &Calculation{
		CalculatedDeadline: calculated,
		Severity:           severity.Classify(calculated, now, string(StatusActive)),
	}

	// Optional cure period, anchored at the primary deadline
	if c.CurePeriodDays != nil && c.CurePeriodType != nil {
		cure, err := resolve(calculated, *c.CurePeriodDays, *c.CurePeriodType, holidays)
		if err != nil {
			return nil, err
		}
		calc.CureDeadline = &cure
	}

	return calc, nil
}

func resolve(from time.Time, count int, dt clause.DeadlineType, holidays calendar.HolidaySet) (time.Time, error) {
	switch dt {
	case clause.BusinessDays:
		d, err := calendar.AddBusinessDays(from, count, holidays)
		if err != nil {
			return time.Time{}, err
		}
		return calendar.EndOfDay(d), nil
	case clause.Hours:
		return calendar.AddHours(from, count), nil
	case clause.CalendarDays:
		return calendar.EndOfDay(calendar.AddCalendarDays(from, count)), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s", clause.ErrInvalidDeadlineType, dt)
	}
}
