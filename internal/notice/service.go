package notice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/audit"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/email"
	"github.com/efilo/compliance/internal/project"
	"github.com/efilo/compliance/internal/user"
)

// Service is the notice engine. Sending and deleting cascade to the
// linked deadline; every state change commits with its audit entry.
type Service struct {
	pool        *pgxpool.Pool
	repo        *Repository
	clauseRepo  *clause.Repository
	deadlineSvc *deadline.Service
	projectRepo *project.Repository
	userRepo    *user.Repository
	aiClient    *ai.Client
	emailSvc    email.Service
	auditLog    *audit.Logger
	logger      *slog.Logger
	draftCfg    DraftConfig
}

// NewService creates a new notice service
func NewService(
	pool *pgxpool.Pool,
	repo *Repository,
	clauseRepo *clause.Repository,
	deadlineSvc *deadline.Service,
	projectRepo *project.Repository,
	userRepo *user.Repository,
	aiClient *ai.Client,
	emailSvc email.Service,
	auditLog *audit.Logger,
	logger *slog.Logger,
	draftCfg DraftConfig,
) *Service {
	if draftCfg.Model == "" {
		draftCfg.Model = "claude-sonnet-4-5-20250929"
	}
	if draftCfg.MaxTokens == 0 {
		draftCfg.MaxTokens = 4000
	}
	if draftCfg.Temperature == 0 {
		draftCfg.Temperature = 0.2
	}
	return &Service{
		pool:        pool,
		repo:        repo,
		clauseRepo:  clauseRepo,
		deadlineSvc: deadlineSvc,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		aiClient:    aiClient,
		emailSvc:    emailSvc,
		auditLog:    auditLog,
		logger:      logger,
		draftCfg:    draftCfg,
	}
}

// CreateParams describes a notice creation request
type CreateParams struct {
	ProjectID      uuid.UUID
	Type           Type
	Title          string
	ClauseID       *uuid.UUID
	DeadlineID     *uuid.UUID
	RecipientName  *string
	RecipientEmail *string
	DueDate        *time.Time
	CreatedBy      uuid.UUID

	// AI generation
	GenerateWithAI     bool
	TriggerDescription string
	TriggerDate        *time.Time
	DeadlineDate       *time.Time
	AdditionalContext  string
}

// Create stores a notice draft. With GenerateWithAI the content is
// drafted by the language model before the transaction opens; linking a
// deadline moves it to NOTICE_DRAFTED atomically with the insert.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Notice, error) {
	proj, err := s.projectRepo.GetByID(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}

	content := p.Title // placeholder until the user edits
	var aiModel *string
	generated := false

	if p.GenerateWithAI && p.ClauseID != nil {
		if p.TriggerDescription == "" || p.TriggerDate == nil || p.DeadlineDate == nil {
			return nil, fmt.Errorf("triggerDescription, triggerDate, and deadlineDate required for AI generation")
		}

		c, err := s.clauseRepo.GetByID(ctx, p.ProjectID, *p.ClauseID)
		if err != nil {
			return nil, err
		}

		fromName := ""
		if u, err := s.userRepo.GetByID(ctx, p.CreatedBy); err == nil {
			fromName = u.Name
		}

		draft, err := s.generateDraft(ctx, DraftInput{
			NoticeType:         p.Type,
			Project:            proj,
			Clause:             c,
			TriggerDescription: p.TriggerDescription,
			TriggerDate:        *p.TriggerDate,
			DeadlineDate:       *p.DeadlineDate,
			FromName:           fromName,
			AdditionalContext:  p.AdditionalContext,
		})
		if err != nil {
			return nil, err
		}
		content = draft.Content
		aiModel = &draft.Model
		generated = true
	}

	// Default recipient to the project's GC contact
	recipientName := p.RecipientName
	recipientEmail := p.RecipientEmail
	if recipientName == nil || *recipientName == "" {
		recipientName = proj.GCContactName
	}
	if recipientEmail == nil || *recipientEmail == "" {
		recipientEmail = proj.GCContactEmail
	}

	n := &Notice{
		ProjectID:      p.ProjectID,
		Type:           p.Type,
		Status:         StatusDraft,
		Title:          p.Title,
		Content:        content,
		RecipientName:  recipientName,
		RecipientEmail: recipientEmail,
		DueDate:        p.DueDate,
		ClauseID:       p.ClauseID,
		GeneratedByAI:  generated,
		AIModel:        aiModel,
		CreatedByID:    p.CreatedBy,
	}
	if n.DueDate == nil && p.DeadlineDate != nil {
		n.DueDate = p.DeadlineDate
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.WithTx(tx).Create(ctx, n); err != nil {
		return nil, err
	}

	if p.DeadlineID != nil {
		if err := s.deadlineSvc.LinkNotice(ctx, tx, p.ProjectID, *p.DeadlineID, n.ID, &p.CreatedBy); err != nil {
			return nil, err
		}
	}

	entry := audit.UserEntry(p.ProjectID, p.CreatedBy,
		audit.EventNoticeCreated, audit.EntityNotice, n.ID.String(),
		"create_notice",
		map[string]interface{}{
			"type":          string(p.Type),
			"title":         p.Title,
			"deadlineId":    uuidString(p.DeadlineID),
			"generatedByAI": generated,
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return n, nil
}

// UpdateParams describes a notice edit
type UpdateParams struct {
	Title          *string
	Content        *string
	RecipientName  *string
	RecipientEmail *string
	DueDate        *time.Time
	Status         *Status
}

// Update edits a notice. Content fields mutate only in DRAFT or
// PENDING_REVIEW; a manual transition to ACKNOWLEDGED stamps
// acknowledgedAt.
func (s *Service) Update(ctx context.Context, projectID, noticeID, userID uuid.UUID, p UpdateParams) (*Notice, error) {
	n, err := s.repo.GetByID(ctx, projectID, noticeID)
	if err != nil {
		return nil, err
	}

	contentEdit := p.Title != nil || p.Content != nil || p.RecipientName != nil || p.RecipientEmail != nil || p.DueDate != nil
	if contentEdit && !n.Status.Editable() {
		return nil, &StateError{Op: "edit", Status: n.Status}
	}

	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.RecipientName != nil {
		n.RecipientName = p.RecipientName
	}
	if p.RecipientEmail != nil {
		n.RecipientEmail = p.RecipientEmail
	}
	if p.DueDate != nil {
		n.DueDate = p.DueDate
	}

	if p.Status != nil {
		if *p.Status == StatusAcknowledged && n.AcknowledgedAt == nil {
			now := time.Now().UTC()
			n.AcknowledgedAt = &now
			if n.OnTimeStatus == nil {
				t := true
				n.OnTimeStatus = &t
			}
		}
		n.Status = *p.Status
	}

	if err := s.repo.UpdateContent(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Send transmits the notice via the email transport and freezes the
// on-time outcome. The transport call happens before the transaction so
// no database transaction is held across SMTP.
func (s *Service) Send(ctx context.Context, projectID, noticeID, userID uuid.UUID) (*Notice, error) {
	n, err := s.repo.GetByID(ctx, projectID, noticeID)
	if err != nil {
		return nil, err
	}

	if !n.Status.Editable() {
		return nil, &StateError{Op: "send", Status: n.Status}
	}
	if n.RecipientEmail == nil || *n.RecipientEmail == "" {
		return nil, ErrNoRecipientEmail
	}

	proj, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	fromName := "efilo Compliance"
	replyTo := ""
	cc := ""
	if u, err := s.userRepo.GetByID(ctx, userID); err == nil {
		fromName = u.Name
		replyTo = u.Email
		cc = u.Email
	}

	toName := ""
	if n.RecipientName != nil {
		toName = *n.RecipientName
	}

	sendErr := s.emailSvc.SendNotice(ctx, *n.RecipientEmail, email.NoticeParams{
		FromName:    fromName,
		ReplyTo:     replyTo,
		ToName:      toName,
		CC:          cc,
		Subject:     n.Title,
		Body:        n.Content,
		ProjectName: proj.Name,
		NoticeRef:   fmt.Sprintf("NOTICE-%.8s", n.ID.String()),
	})
	transportOK := sendErr == nil
	if sendErr != nil {
		s.logger.Error("notice email transport failed",
			"notice_id", noticeID,
			"error", sendErr,
		)
	}

	now := time.Now().UTC()
	n.Status = StatusSent
	n.SentAt = &now
	if transportOK {
		n.DeliveredAt = &now
	} else {
		n.DeliveredAt = nil
	}
	n.DeliveryMethods = []string{"EMAIL"}

	// onTimeStatus is set exactly once, at the SENT transition
	onTime := n.DueDate == nil || !now.After(*n.DueDate)
	n.OnTimeStatus = &onTime

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin send tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.WithTx(tx).MarkSent(ctx, n); err != nil {
		return nil, err
	}

	if err := s.deadlineSvc.MarkNoticeSent(ctx, tx, projectID, noticeID, &userID); err != nil {
		return nil, err
	}

	entry := audit.UserEntry(projectID, userID,
		audit.EventNoticeSent, audit.EntityNotice, noticeID.String(),
		"send_notice",
		map[string]interface{}{
			"recipientEmail": *n.RecipientEmail,
			"emailSent":      transportOK,
			"onTime":         onTime,
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit send: %w", err)
	}

	s.logger.Info("notice sent",
		"notice_id", noticeID,
		"on_time", onTime,
		"transport_ok", transportOK,
	)
	return n, nil
}

// ConfirmDeliveryParams describes a delivery confirmation
type ConfirmDeliveryParams struct {
	Method         string
	TrackingNumber *string
	Carrier        *string
	DeliveredAt    *time.Time
	SignedBy       *string
	ReceivedBy     *string
}

// ConfirmDelivery appends delivery evidence for a method and moves the
// notice to ACKNOWLEDGED. Allowed only from SENT.
func (s *Service) ConfirmDelivery(ctx context.Context, projectID, noticeID, userID uuid.UUID, p ConfirmDeliveryParams) (*Notice, error) {
	key := CanonicalMethodKey(p.Method)
	if key == "" {
		return nil, ErrInvalidMethod
	}

	n, err := s.repo.GetByID(ctx, projectID, noticeID)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusSent {
		return nil, &StateError{Op: "confirm delivery for", Status: n.Status}
	}

	now := time.Now().UTC()
	deliveredAt := now
	if p.DeliveredAt != nil {
		deliveredAt = p.DeliveredAt.UTC()
	}

	if n.DeliveryConfirmation == nil {
		n.DeliveryConfirmation = make(map[string]ConfirmationEntry)
	}
	n.DeliveryConfirmation[key] = ConfirmationEntry{
		Status:         "delivered",
		DeliveredAt:    deliveredAt.Format(time.RFC3339),
		TrackingNumber: p.TrackingNumber,
		Carrier:        p.Carrier,
		SignedBy:       p.SignedBy,
		ReceivedBy:     p.ReceivedBy,
	}

	if !contains(n.DeliveryMethods, p.Method) {
		n.DeliveryMethods = append(n.DeliveryMethods, p.Method)
	}
	n.DeliveredAt = &deliveredAt
	n.AcknowledgedAt = &now
	n.Status = StatusAcknowledged

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.WithTx(tx).RecordDelivery(ctx, n); err != nil {
		return nil, err
	}

	entry := audit.UserEntry(projectID, userID,
		audit.EventDeliveryConfirmed, audit.EntityNotice, noticeID.String(),
		"confirm_delivery",
		map[string]interface{}{
			"method":         p.Method,
			"trackingNumber": strPtrVal(p.TrackingNumber),
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirm: %w", err)
	}
	return n, nil
}

// Regenerate reruns the draft computation against the linked clause and
// deadline, replacing the content and marking AI attribution.
func (s *Service) Regenerate(ctx context.Context, projectID, noticeID, userID uuid.UUID, customInstructions string) (*Notice, error) {
	n, err := s.repo.GetByID(ctx, projectID, noticeID)
	if err != nil {
		return nil, err
	}
	if !n.Status.Editable() {
		return nil, &StateError{Op: "regenerate", Status: n.Status}
	}
	if n.ClauseID == nil {
		return nil, ErrNoLinkedClause
	}

	c, err := s.clauseRepo.GetByID(ctx, projectID, *n.ClauseID)
	if err != nil {
		return nil, err
	}

	proj, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	triggerDesc := "Manual notice"
	triggerDate := now
	deadlineDate := now
	if n.DueDate != nil {
		deadlineDate = *n.DueDate
	}

	if d, err := s.deadlineSvc.GetLinked(ctx, projectID, noticeID); err == nil && d != nil {
		triggerDesc = d.TriggerDescription
		triggerDate = d.TriggeredAt
		deadlineDate = d.CalculatedDeadline
	}

	fromName := ""
	if u, err := s.userRepo.GetByID(ctx, userID); err == nil {
		fromName = u.Name
	}

	draft, err := s.generateDraft(ctx, DraftInput{
		NoticeType:         n.Type,
		Project:            proj,
		Clause:             c,
		TriggerDescription: triggerDesc,
		TriggerDate:        triggerDate,
		DeadlineDate:       deadlineDate,
		FromName:           fromName,
		AdditionalContext:  customInstructions,
	})
	if err != nil {
		return nil, err
	}

	n.Content = draft.Content
	n.GeneratedByAI = true
	n.AIModel = &draft.Model

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin regenerate tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.WithTx(tx).UpdateContent(ctx, n); err != nil {
		return nil, err
	}

	entry := audit.UserEntry(projectID, userID,
		audit.EventNoticeRegenerated, audit.EntityNotice, noticeID.String(),
		"regenerate_notice",
		map[string]interface{}{
			"model":        draft.Model,
			"inputTokens":  draft.Tokens.InputTokens,
			"outputTokens": draft.Tokens.OutputTokens,
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit regenerate: %w", err)
	}
	return n, nil
}

// Delete removes a notice in DRAFT or PENDING_REVIEW, unlinking the
// deadline (restoring ACTIVE) in the same transaction.
func (s *Service) Delete(ctx context.Context, projectID, noticeID, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, projectID, noticeID)
	if err != nil {
		return err
	}
	if !n.Status.Editable() {
		return &StateError{Op: "delete", Status: n.Status}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.deadlineSvc.UnlinkNotice(ctx, tx, projectID, noticeID, &userID); err != nil {
		return err
	}

	entry := audit.UserEntry(projectID, userID,
		audit.EventNoticeDeleted, audit.EntityNotice, noticeID.String(),
		"delete_notice",
		map[string]interface{}{
			"title": n.Title,
			"type":  string(n.Type),
		},
	)
	if err := s.auditLog.LogTx(ctx, tx, entry); err != nil {
		return err
	}

	if err := s.repo.WithTx(tx).Delete(ctx, projectID, noticeID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// GetByID returns a single notice
func (s *Service) GetByID(ctx context.Context, projectID, noticeID uuid.UUID) (*Notice, error) {
	return s.repo.GetByID(ctx, projectID, noticeID)
}

// List returns notices for a project
func (s *Service) List(ctx context.Context, projectID uuid.UUID, status *Status, noticeType *Type) ([]*Notice, error) {
	return s.repo.ListByProject(ctx, projectID, status, noticeType)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func uuidString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func strPtrVal(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
