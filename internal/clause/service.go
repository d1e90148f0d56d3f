package clause

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efilo/compliance/internal/audit"
)

// Service wraps clause review operations that need transactional audit
type Service struct {
	pool     *pgxpool.Pool
	repo     *Repository
	auditLog *audit.Logger
}

// NewService creates a new clause service
func NewService(pool *pgxpool.Pool, repo *Repository, auditLog *audit.Logger) *Service {
	return &Service{pool: pool, repo: repo, auditLog: auditLog}
}

// Confirm latches a clause as reviewed and writes the audit entry in the
// same transaction.
func (s *Service) Confirm(ctx context.Context, projectID, clauseID, userID uuid.UUID) (*Clause, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := s.repo.WithTx(tx).Confirm(ctx, projectID, clauseID, userID)
	if err != nil {
		return nil, err
	}

	entry := audit.UserEntry(projectID, userID,
		audit.EventClauseConfirmed, audit.EntityClause, clauseID.String(),
		"confirm_clause",
		map[string]interface{}{
			"clauseTitle": c.Title,
			"clauseKind":  string(c.Kind),
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirm: %w", err)
	}
	return c, nil
}
