package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrHolidayNotFound  = errors.New("holiday not found")
	ErrDuplicateHoliday = errors.New("holiday already exists for this date")
)

// HolidaySource values
const (
	SourceManual = "MANUAL"
	SourceImport = "IMPORT"
)

// ProjectHoliday is a project-specific non-business day
type ProjectHoliday struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Recurring   bool      `json:"recurring"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Repository provides project holiday data access
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new holiday repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a project holiday. A duplicate (projectId, date) pair
// surfaces as ErrDuplicateHoliday.
func (r *Repository) Create(ctx context.Context, h *ProjectHoliday) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Source == "" {
		h.Source = SourceManual
	}

	query := `
		INSERT INTO project_holidays (id, project_id, date, name, description, recurring, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		h.ID, h.ProjectID, DateOf(h.Date), h.Name, h.Description, h.Recurring, h.Source,
	).Scan(&h.CreatedAt, &h.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHoliday
		}
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// ListByProject returns all holidays for a project ordered by date
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*ProjectHoliday, error) {
	query := `
		SELECT id, project_id, date, name, description, recurring, source, created_at, updated_at
		FROM project_holidays
		WHERE project_id = $1
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*ProjectHoliday
	for rows.Next() {
		h := &ProjectHoliday{}
		err := rows.Scan(
			&h.ID, &h.ProjectID, &h.Date, &h.Name, &h.Description,
			&h.Recurring, &h.Source, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// DatesInRange returns project holiday dates within [start, end]
func (r *Repository) DatesInRange(ctx context.Context, projectID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT date FROM project_holidays
		WHERE project_id = $1 AND date >= $2 AND date <= $3
	`

	rows, err := r.pool.Query(ctx, query, projectID, DateOf(start), DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("query holiday dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan holiday date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Delete removes a project holiday
func (r *Repository) Delete(ctx context.Context, projectID, holidayID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM project_holidays WHERE id = $1 AND project_id = $2`,
		holidayID, projectID,
	)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

// GetByID retrieves a single holiday
func (r *Repository) GetByID(ctx context.Context, projectID, holidayID uuid.UUID) (*ProjectHoliday, error) {
	query := `
		SELECT id, project_id, date, name, description, recurring, source, created_at, updated_at
		FROM project_holidays
		WHERE id = $1 AND project_id = $2
	`

	h := &ProjectHoliday{}
	err := r.pool.QueryRow(ctx, query, holidayID, projectID).Scan(
		&h.ID, &h.ProjectID, &h.Date, &h.Name, &h.Description,
		&h.Recurring, &h.Source, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHolidayNotFound
		}
		return nil, fmt.Errorf("get holiday: %w", err)
	}
	return h, nil
}
