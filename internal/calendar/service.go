package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service combines the federal holiday table with per-project overrides
// and exposes the arithmetic the deadline engine depends on.
type Service struct {
	repo *Repository
}

// NewService creates a new calendar service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// HolidaysInRange returns the combined federal + project holiday set
// spanning every year touched by [start, end].
func (s *Service) HolidaysInRange(ctx context.Context, projectID uuid.UUID, start, end time.Time) (HolidaySet, error) {
	if end.Before(start) {
		end = start
	}

	set := make(HolidaySet)
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		for _, d := range FederalHolidays(year) {
			set.Add(d)
		}
	}

	dates, err := s.repo.DatesInRange(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("project holidays: %w", err)
	}
	for _, d := range dates {
		set.Add(d)
	}

	return set, nil
}

// HolidaysFrom returns the holiday set for deadline calculations starting
// at the trigger date. The window extends a year past any plausible
// deadline so business-day iteration never walks off the set.
func (s *Service) HolidaysFrom(ctx context.Context, projectID uuid.UUID, start time.Time) (HolidaySet, error) {
	return s.HolidaysInRange(ctx, projectID, start, start.AddDate(1, 0, 0))
}

// AddHoliday records a project-specific holiday
func (s *Service) AddHoliday(ctx context.Context, h *ProjectHoliday) error {
	if h.Name == "" {
		return fmt.Errorf("holiday name is required")
	}
	return s.repo.Create(ctx, h)
}

// ListHolidays returns the project's holiday overrides
func (s *Service) ListHolidays(ctx context.Context, projectID uuid.UUID) ([]*ProjectHoliday, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// DeleteHoliday removes a project holiday. Past deadlines are not
// recalculated; the holiday set is read only at deadline creation time.
func (s *Service) DeleteHoliday(ctx context.Context, projectID, holidayID uuid.UUID) error {
	return s.repo.Delete(ctx, projectID, holidayID)
}
