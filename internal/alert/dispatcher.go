// Package alert emits in-app notifications and email alerts for
// escalating deadlines, and assembles the weekly compliance digest.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/email"
	"github.com/efilo/compliance/internal/notification"
	"github.com/efilo/compliance/internal/score"
	"github.com/efilo/compliance/internal/severity"
	"github.com/efilo/compliance/internal/user"

	"github.com/google/uuid"
)

// Dispatcher fans severity escalations out to eligible users
type Dispatcher struct {
	userRepo     *user.Repository
	notifRepo    *notification.Repository
	deadlineRepo *deadline.Repository
	scoreSvc     *score.Service
	emailSvc     email.Service
	logger       *slog.Logger
	appURL       string
}

// NewDispatcher creates a new alert dispatcher
func NewDispatcher(
	userRepo *user.Repository,
	notifRepo *notification.Repository,
	deadlineRepo *deadline.Repository,
	scoreSvc *score.Service,
	emailSvc email.Service,
	logger *slog.Logger,
	appURL string,
) *Dispatcher {
	return &Dispatcher{
		userRepo:     userRepo,
		notifRepo:    notifRepo,
		deadlineRepo: deadlineRepo,
		scoreSvc:     scoreSvc,
		emailSvc:     emailSvc,
		logger:       logger,
		appURL:       appURL,
	}
}

// mapSeverity maps deadline severity to in-app notification severity
func mapSeverity(s severity.Severity) string {
	switch s {
	case severity.Critical, severity.Expired:
		return notification.SeverityCritical
	case severity.Warning:
		return notification.SeverityWarning
	default:
		return notification.SeverityInfo
	}
}

// daysRemainingLabel renders "3 days remaining" or "EXPIRED"
func daysRemainingLabel(deadlineAt, now time.Time) string {
	days := int(deadlineAt.Sub(now).Seconds() / 86400)
	if days < 0 || !deadlineAt.After(now) {
		return "EXPIRED"
	}
	plural := "s"
	if days == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d day%s remaining", days, plural)
}

// DispatchDeadlineAlert notifies every eligible user about a deadline
// whose severity moved into WARNING, CRITICAL, or EXPIRED. CRITICAL and
// EXPIRED also go out by email.
func (d *Dispatcher) DispatchDeadlineAlert(ctx context.Context, dl *deadline.Deadline, clauseTitle, clauseRef string) (int, error) {
	now := time.Now().UTC()

	title := fmt.Sprintf("%s: %s", dl.Severity, clauseTitle)
	ref := clauseRef
	if ref == "" {
		ref = "N/A"
	}
	message := fmt.Sprintf("Notice due %s — %s. %s",
		daysRemainingLabel(dl.CalculatedDeadline, now), ref, dl.TriggerDescription)

	users, err := d.userRepo.ListByRoles(ctx, user.AlertRoles)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		entityID := dl.ID.String()
		entityType := "ComplianceDeadline"
		projectID := dl.ProjectID

		n := &notification.Notification{
			UserID:     u.ID,
			ProjectID:  &projectID,
			Type:       notification.TypeComplianceDeadline,
			Severity:   mapSeverity(dl.Severity),
			Channel:    notification.ChannelInApp,
			Title:      title,
			Message:    message,
			EntityID:   &entityID,
			EntityType: &entityType,
		}
		if err := d.notifRepo.Create(ctx, n); err != nil {
			d.logger.Error("failed to create notification",
				"user_id", u.ID,
				"deadline_id", dl.ID,
				"error", err,
			)
			continue
		}

		if dl.Severity == severity.Critical || dl.Severity == severity.Expired {
			err := d.emailSvc.SendComplianceAlert(ctx, u.Email, email.AlertParams{
				ToName:       u.Name,
				Title:        title,
				Message:      message,
				DeadlineDate: dl.CalculatedDeadline.Format("Monday, January 2, 2006"),
				AppURL:       d.appURL,
			})
			if err != nil {
				// Alert emails are best effort; the in-app row is already
				// persisted and a failed email is not resent.
				d.logger.Error("failed to send alert email",
					"user_id", u.ID,
					"error", err,
				)
			}
		}

		sent++
	}

	return sent, nil
}

// WeeklySummary composes and sends the weekly compliance digest for one
// project: on-time percentage, streak, protected claims dollars, and the
// next 10 upcoming deadlines within 14 days.
func (d *Dispatcher) WeeklySummary(ctx context.Context, projectID uuid.UUID, projectName string) (int, error) {
	now := time.Now().UTC()

	current, err := d.scoreSvc.Calculate(ctx, projectID)
	if err != nil {
		return 0, err
	}

	upcoming, err := d.deadlineRepo.ListUpcoming(ctx, projectID, now.AddDate(0, 0, 14), 10)
	if err != nil {
		return 0, err
	}

	pct := "N/A"
	if current.TotalCount > 0 {
		pct = fmt.Sprintf("%d%%", current.Score)
	}

	var lines []string
	for _, dl := range upcoming {
		days := int(dl.CalculatedDeadline.Sub(now).Seconds() / 86400)
		sev := severity.FromDaysRemaining(days)
		ref := "N/A"
		if dl.ClauseSectionRef != nil && *dl.ClauseSectionRef != "" {
			ref = *dl.ClauseSectionRef
		}
		lines = append(lines, fmt.Sprintf("[%s] %s (%s) — %d days", sev, dl.ClauseTitle, ref, days))
	}
	deadlineBlock := "No upcoming deadlines."
	if len(lines) > 0 {
		deadlineBlock = strings.Join(lines, "\n")
	}

	body := fmt.Sprintf(`Weekly Compliance Summary — %s

PERFORMANCE
- Compliance Score: %s (%d/%d on time)
- Current Streak: %d consecutive
- Claims Protected: $%s

UPCOMING DEADLINES (Next 14 Days)
%s`,
		projectName, pct, current.OnTimeCount, current.TotalCount,
		current.CurrentStreak, current.ProtectedClaimsValue, deadlineBlock)

	users, err := d.userRepo.ListByRoles(ctx, user.AlertRoles)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		err := d.emailSvc.SendWeeklySummary(ctx, u.Email, email.SummaryParams{
			ToName:      u.Name,
			ProjectName: projectName,
			Body:        body,
		})
		if err != nil {
			d.logger.Error("failed to send weekly summary",
				"user_id", u.ID,
				"project_id", projectID,
				"error", err,
			)
			continue
		}
		sent++
	}

	return sent, nil
}
