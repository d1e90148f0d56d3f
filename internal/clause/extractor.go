package clause

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/audit"
	"github.com/efilo/compliance/internal/document"
)

// maxDocumentChars caps the text sent to the extraction model; overflow
// is truncated with an explicit marker.
const maxDocumentChars = 100_000

const truncationMarker = "\n\n[... truncated ...]"

// ExtractorConfig holds extraction model settings
type ExtractorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Extractor invokes the language model on document text, validates the
// structured result, and writes clauses plus one audit entry. The model
// call happens outside the database transaction.
type Extractor struct {
	pool     *pgxpool.Pool
	repo     *Repository
	docRepo  *document.Repository
	aiClient *ai.Client
	auditLog *audit.Logger
	logger   *slog.Logger
	cfg      ExtractorConfig
}

// NewExtractor creates a new clause extractor
func NewExtractor(
	pool *pgxpool.Pool,
	repo *Repository,
	docRepo *document.Repository,
	aiClient *ai.Client,
	auditLog *audit.Logger,
	logger *slog.Logger,
	cfg ExtractorConfig,
) *Extractor {
	if cfg.Model == "" {
		cfg.Model = "claude-opus-4-5-20250620"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	return &Extractor{
		pool:     pool,
		repo:     repo,
		docRepo:  docRepo,
		aiClient: aiClient,
		auditLog: auditLog,
		logger:   logger,
		cfg:      cfg,
	}
}

// ExtractFromDocument extracts compliance clauses from a parsed document.
// An empty list after validation is not an error. Language-model
// transport failure surfaces to the caller.
func (e *Extractor) ExtractFromDocument(ctx context.Context, projectID, documentID uuid.UUID, userID *uuid.UUID) ([]*Clause, error) {
	doc, err := e.docRepo.GetByID(ctx, projectID, documentID)
	if err != nil {
		return nil, err
	}

	text, err := e.docRepo.Text(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars] + truncationMarker
	}

	resp, err := e.aiClient.Complete(ctx, ai.CompletionParams{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		System:      ai.ContractExtractionSystem,
		User:        fmt.Sprintf(ai.ContractExtractionUser, doc.Name, doc.Type, text),
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("clause extraction: %w", err)
	}

	raw := ai.ParseClauses(resp.GetText())

	var validated []*Clause
	for _, rc := range raw {
		if c := e.buildClause(rc, projectID, documentID, resp.Model); c != nil {
			validated = append(validated, c)
		}
	}

	if len(validated) == 0 {
		e.logger.Warn("no clauses extracted from document",
			"project_id", projectID,
			"document_id", documentID,
		)
	}

	// Re-extraction replaces earlier AI output; all writes commit together
	// with the audit entry.
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin extraction tx: %w", err)
	}
	defer tx.Rollback(ctx)

	txRepo := e.repo.WithTx(tx)

	if _, err := txRepo.DeleteAIExtracted(ctx, projectID, documentID); err != nil {
		return nil, err
	}

	for _, c := range validated {
		if err := txRepo.Create(ctx, c); err != nil {
			return nil, err
		}
	}

	entry := &audit.Entry{
		ProjectID:  projectID,
		EventType:  audit.EventClauseExtraction,
		EntityType: audit.EntityDocument,
		EntityID:   documentID.String(),
		UserID:     userID,
		ActorType:  audit.ActorAI,
		Action:     "extract_clauses",
		Details: map[string]interface{}{
			"documentName":     doc.Name,
			"clausesExtracted": len(validated),
			"model":            resp.Model,
			"inputTokens":      resp.Usage.InputTokens,
			"outputTokens":     resp.Usage.OutputTokens,
		},
	}
	if err := e.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit extraction: %w", err)
	}

	e.logger.Info("extracted clauses from document",
		"project_id", projectID,
		"document_id", documentID,
		"count", len(validated),
		"model", resp.Model,
	)

	return validated, nil
}

// buildClause validates a raw model clause. The kind must be in the
// enum and title/content non-empty; invalid optional enums are silently
// nulled; integer fields are coerced safely.
func (e *Extractor) buildClause(raw ai.RawClause, projectID, documentID uuid.UUID, model string) *Clause {
	if !ValidKind(raw.Kind) {
		e.logger.Warn("invalid clause kind from model", "kind", raw.Kind)
		return nil
	}
	if raw.Title == "" || raw.Content == "" {
		return nil
	}

	c := &Clause{
		ProjectID:          projectID,
		Kind:               Kind(raw.Kind),
		Title:              raw.Title,
		Content:            raw.Content,
		SectionRef:         raw.SectionRef,
		DeadlineDays:       ai.SafeInt(raw.DeadlineDays),
		Trigger:            raw.Trigger,
		CurePeriodDays:     ai.SafeInt(raw.CurePeriodDays),
		FlowDownProvisions: raw.FlowDownProvisions,
		ParentClauseRef:    raw.ParentClauseRef,
		RequiresReview:     raw.RequiresReview,
		ReviewReason:       raw.ReviewReason,
		AIExtracted:        true,
		AIModel:            &model,
		SourceDocID:        &documentID,
	}

	if raw.DeadlineType != nil && ValidDeadlineType(*raw.DeadlineType) {
		dt := DeadlineType(*raw.DeadlineType)
		c.DeadlineType = &dt
	}
	if raw.CurePeriodType != nil && ValidDeadlineType(*raw.CurePeriodType) {
		ct := DeadlineType(*raw.CurePeriodType)
		c.CurePeriodType = &ct
	}
	if raw.NoticeMethod != nil && ValidNoticeMethod(*raw.NoticeMethod) {
		nm := NoticeMethod(*raw.NoticeMethod)
		c.NoticeMethod = &nm
	}

	return c
}
