package job

import (
	"testing"
	"time"
)

func TestNextCronRunHourly(t *testing.T) {
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := NextCronRun("0 * * * *", from)
	if err != nil {
		t.Fatalf("NextCronRun: %v", err)
	}
	want := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %s, want %s", next, want)
	}

	// Exactly on the hour advances to the next hour
	onTheHour := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	next, err = NextCronRun("0 * * * *", onTheHour)
	if err != nil {
		t.Fatalf("NextCronRun: %v", err)
	}
	want = time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %s, want %s", next, want)
	}
}

func TestNextCronRunDaily(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "before 02:00 runs today",
			from: time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "after 02:00 runs tomorrow",
			from: time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := NextCronRun("0 2 * * *", tt.from)
			if err != nil {
				t.Fatalf("NextCronRun: %v", err)
			}
			if !next.Equal(tt.want) {
				t.Errorf("next = %s, want %s", next, tt.want)
			}
		})
	}
}

func TestNextCronRunWeekly(t *testing.T) {
	// 2025-03-10 is a Monday
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "monday before 08:00 runs same day",
			from: time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "monday after 08:00 runs next monday",
			from: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "midweek runs next monday",
			from: time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := NextCronRun("0 8 * * 1", tt.from)
			if err != nil {
				t.Fatalf("NextCronRun: %v", err)
			}
			if !next.Equal(tt.want) {
				t.Errorf("next = %s, want %s", next, tt.want)
			}
		})
	}
}

func TestNextCronRunUnsupported(t *testing.T) {
	if _, err := NextCronRun("*/5 * * * *", time.Now()); err == nil {
		t.Error("expected error for unsupported expression")
	}
	if _, err := NextCronRun("not a cron", time.Now()); err == nil {
		t.Error("expected error for malformed expression")
	}
}
