package calendar

import (
	"testing"
	"time"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	holidays := NewHolidaySet(d(2025, 7, 4))

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"tuesday", d(2025, 7, 1), true},
		{"saturday", d(2025, 7, 5), false},
		{"sunday", d(2025, 7, 6), false},
		{"holiday friday", d(2025, 7, 4), false},
		{"regular friday", d(2025, 7, 11), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusinessDay(tt.day, holidays); got != tt.want {
				t.Errorf("IsBusinessDay(%s) = %v, want %v", tt.day.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		days     int
		holidays HolidaySet
		want     time.Time
	}{
		{
			name:     "friday plus one is monday",
			start:    d(2025, 3, 14), // Friday
			days:     1,
			holidays: NewHolidaySet(),
			want:     d(2025, 3, 17), // Monday
		},
		{
			name:     "friday plus one with monday holiday is tuesday",
			start:    d(2025, 3, 14),
			days:     1,
			holidays: NewHolidaySet(d(2025, 3, 17)),
			want:     d(2025, 3, 18),
		},
		{
			name:     "zero days returns start",
			start:    d(2025, 3, 14),
			days:     0,
			holidays: NewHolidaySet(),
			want:     d(2025, 3, 14),
		},
		{
			// Wed and Thu count, Fri Jul 4 is a holiday, the weekend is
			// skipped, and Mon Jul 7 is the third business day.
			name:     "independence day week",
			start:    d(2025, 7, 1),
			days:     3,
			holidays: NewHolidaySet(d(2025, 7, 4)),
			want:     d(2025, 7, 7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddBusinessDays(tt.start, tt.days, tt.holidays)
			if err != nil {
				t.Fatalf("AddBusinessDays: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("AddBusinessDays = %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAddBusinessDaysNegative(t *testing.T) {
	if _, err := AddBusinessDays(d(2025, 3, 14), -1, NewHolidaySet()); err == nil {
		t.Fatal("expected error for negative business day count")
	}
}

func TestAddBusinessDaysRoundTrip(t *testing.T) {
	holidays := NewHolidaySet(d(2025, 7, 4))
	start := d(2025, 7, 1)

	for _, days := range []int{1, 3, 5, 10, 22} {
		end, err := AddBusinessDays(start, days, holidays)
		if err != nil {
			t.Fatalf("AddBusinessDays(%d): %v", days, err)
		}
		if got := CountBusinessDaysBetween(start, end, holidays); got != days {
			t.Errorf("CountBusinessDaysBetween after adding %d business days = %d", days, got)
		}
	}
}

func TestAddCalendarDaysAndHours(t *testing.T) {
	if got := AddCalendarDays(d(2025, 3, 10), 10); !got.Equal(d(2025, 3, 20)) {
		t.Errorf("AddCalendarDays = %s", got.Format("2006-01-02"))
	}

	// Hours ignore weekends: Friday noon + 24h = Saturday noon
	fridayNoon := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	if got := AddHours(fridayNoon, 24); !got.Equal(want) {
		t.Errorf("AddHours = %s, want %s", got, want)
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC))
	want := time.Date(2025, 3, 20, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EndOfDay = %s, want %s", got, want)
	}
}

func TestFederalHolidays(t *testing.T) {
	tests := []struct {
		year int
		day  time.Time
	}{
		{2025, d(2025, 7, 4)},
		{2026, d(2026, 7, 3)},  // observed
		{2027, d(2027, 7, 5)},  // observed
		{2027, d(2027, 12, 24)}, // Christmas observed
	}

	for _, tt := range tests {
		found := false
		for _, h := range FederalHolidays(tt.year) {
			if h.Equal(tt.day) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("federal table for %d missing %s", tt.year, tt.day.Format("2006-01-02"))
		}
	}

	if len(FederalHolidays(2024)) != 0 {
		t.Error("years outside the table should return no holidays")
	}
}
