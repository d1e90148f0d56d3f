package deadline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/calendar"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/severity"
)

func testClause(days int, dt clause.DeadlineType) *clause.Clause {
	return &clause.Clause{
		ID:           uuid.New(),
		Kind:         clause.KindClaimsProcedure,
		Title:        "Notice of Claims",
		Content:      "Subcontractor shall give written notice within the stated period.",
		DeadlineDays: &days,
		DeadlineType: &dt,
	}
}

func TestCalculateCalendarDays(t *testing.T) {
	c := testClause(10, clause.CalendarDays)
	triggeredAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := triggeredAt

	calc, err := Calculate(c, triggeredAt, calendar.NewHolidaySet(), now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	want := time.Date(2025, 3, 20, 23, 59, 59, 0, time.UTC)
	if !calc.CalculatedDeadline.Equal(want) {
		t.Errorf("calculated deadline = %s, want %s", calc.CalculatedDeadline, want)
	}
	if calc.Severity != severity.Info {
		// 10 days out lands in the 7-14 day band
		t.Errorf("severity = %s, want %s", calc.Severity, severity.Info)
	}
	if calc.CureDeadline != nil {
		t.Error("no cure period configured, cure deadline should be nil")
	}
}

func TestCalculateHours(t *testing.T) {
	c := testClause(24, clause.Hours)
	fridayNoon := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	calc, err := Calculate(c, fridayNoon, calendar.NewHolidaySet(), fridayNoon)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// Hour deadlines are exact timestamps with no weekend adjustment
	want := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	if !calc.CalculatedDeadline.Equal(want) {
		t.Errorf("calculated deadline = %s, want %s", calc.CalculatedDeadline, want)
	}
	if calc.Severity != severity.Critical {
		t.Errorf("severity = %s, want %s", calc.Severity, severity.Critical)
	}
}

func TestCalculateBusinessDays(t *testing.T) {
	c := testClause(3, clause.BusinessDays)
	triggeredAt := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) // Tuesday
	holidays := calendar.NewHolidaySet(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))

	calc, err := Calculate(c, triggeredAt, holidays, triggeredAt)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	want := time.Date(2025, 7, 7, 23, 59, 59, 0, time.UTC)
	if !calc.CalculatedDeadline.Equal(want) {
		t.Errorf("calculated deadline = %s, want %s", calc.CalculatedDeadline, want)
	}

	got := calendar.CountBusinessDaysBetween(triggeredAt, calc.CalculatedDeadline, holidays)
	if got != 3 {
		t.Errorf("business days between trigger and deadline = %d, want 3", got)
	}
}

func TestCalculateCurePeriod(t *testing.T) {
	c := testClause(10, clause.CalendarDays)
	cureDays := 5
	cureType := clause.CalendarDays
	c.CurePeriodDays = &cureDays
	c.CurePeriodType = &cureType

	triggeredAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	calc, err := Calculate(c, triggeredAt, calendar.NewHolidaySet(), triggeredAt)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if calc.CureDeadline == nil {
		t.Fatal("cure deadline missing")
	}
	want := time.Date(2025, 3, 25, 23, 59, 59, 0, time.UTC)
	if !calc.CureDeadline.Equal(want) {
		t.Errorf("cure deadline = %s, want %s", calc.CureDeadline, want)
	}
}

func TestCalculateMissingParams(t *testing.T) {
	c := &clause.Clause{
		ID:      uuid.New(),
		Kind:    clause.KindRetention,
		Title:   "Retention",
		Content: "Retention release terms.",
	}

	_, err := Calculate(c, time.Now(), calendar.NewHolidaySet(), time.Now())
	if !errors.Is(err, ErrClauseMissingParams) {
		t.Errorf("expected ErrClauseMissingParams, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusExpired, StatusWaived, StatusCompleted}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []Status{StatusActive, StatusNoticeDrafted, StatusNoticeSent, StatusAcknowledged}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestValidTriggerType(t *testing.T) {
	for _, v := range []string{"RFI", "CHANGE_ORDER", "MANUAL", "DOCUMENT_RECEIVED", "OTHER"} {
		if !ValidTriggerType(v) {
			t.Errorf("ValidTriggerType(%s) = false", v)
		}
	}
	if ValidTriggerType("EMAIL") {
		t.Error("unknown trigger type accepted")
	}
}
