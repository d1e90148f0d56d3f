package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Logger writes audit entries and mirrors them to the structured log.
// The repository write is synchronous: the audit contract requires the
// entry to commit with the state change it records, so callers pass a
// transaction-scoped DBTX where that matters.
type Logger struct {
	repo   *Repository
	logger *slog.Logger
}

// NewLogger creates a new audit logger
func NewLogger(repo *Repository, logger *slog.Logger) *Logger {
	return &Logger{repo: repo, logger: logger}
}

// Log writes an audit entry through the repository's own connection
func (l *Logger) Log(ctx context.Context, entry *Entry) error {
	l.mirror(entry)
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Error("failed to create audit entry",
			"event_type", entry.EventType,
			"entity_id", entry.EntityID,
			"error", err,
		)
		return err
	}
	return nil
}

// LogTx writes an audit entry inside the given transaction
func (l *Logger) LogTx(ctx context.Context, tx DBTX, entry *Entry) error {
	l.mirror(entry)
	if err := l.repo.CreateTx(ctx, tx, entry); err != nil {
		l.logger.Error("failed to create audit entry",
			"event_type", entry.EventType,
			"entity_id", entry.EntityID,
			"error", err,
		)
		return err
	}
	return nil
}

func (l *Logger) mirror(entry *Entry) {
	l.logger.Info("audit",
		"event_type", entry.EventType,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"project_id", entry.ProjectID,
		"actor_type", entry.ActorType,
		"action", entry.Action,
	)
}

// SystemEntry builds an entry attributed to the system actor
func SystemEntry(projectID uuid.UUID, eventType, entityType, entityID, action string, details map[string]interface{}) *Entry {
	return &Entry{
		ProjectID:  projectID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		ActorType:  ActorSystem,
		Action:     action,
		Details:    details,
	}
}

// UserEntry builds an entry attributed to a user
func UserEntry(projectID uuid.UUID, userID uuid.UUID, eventType, entityType, entityID, action string, details map[string]interface{}) *Entry {
	return &Entry{
		ProjectID:  projectID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     &userID,
		ActorType:  ActorUser,
		Action:     action,
		Details:    details,
	}
}
