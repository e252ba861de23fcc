package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"go.uber.org/zap"
)

type AuditService struct {
	auditRepo   *repositories.AuditRepo
	findingRepo *repositories.FindingRepo
	seqRepo     *repositories.SequenceRepo
	recorder    *Recorder
	publisher   events.Publisher
	log         *zap.Logger
}

func NewAuditService(
	auditRepo *repositories.AuditRepo,
	findingRepo *repositories.FindingRepo,
	seqRepo *repositories.SequenceRepo,
	recorder *Recorder,
	publisher events.Publisher,
	log *zap.Logger,
) *AuditService {
	return &AuditService{
		auditRepo:   auditRepo,
		findingRepo: findingRepo,
		seqRepo:     seqRepo,
		recorder:    recorder,
		publisher:   publisher,
		log:         log,
	}
}

type CreateAuditInput struct {
	Title            string
	Description      string
	AuditType        string
	Module           string
	Department       string
	PlannedStartDate time.Time
	PlannedEndDate   time.Time
	LeadAuditor      uuid.UUID
	AuditTeam        []models.TeamMember
	Objectives       []models.Objective
	RiskLevel        string
}

func (s *AuditService) CreateAudit(ctx context.Context, actor models.Actor, in CreateAuditInput) (*models.Audit, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("audit title is required")
	}
	if !models.IsValidAuditType(in.AuditType) {
		return nil, fmt.Errorf("invalid audit type %q, must be one of: %v", in.AuditType, models.AuditTypes)
	}
	if !in.PlannedEndDate.After(in.PlannedStartDate) {
		return nil, fmt.Errorf("planned end date must be after planned start date")
	}
	if in.LeadAuditor == uuid.Nil {
		return nil, fmt.Errorf("lead auditor is required")
	}
	for _, m := range in.AuditTeam {
		if !models.IsValidTeamRole(m.Role) {
			return nil, fmt.Errorf("invalid team role %q", m.Role)
		}
	}

	riskLevel := in.RiskLevel
	if riskLevel == "" {
		riskLevel = models.RiskMedium
	}

	number, err := s.seqRepo.NextAuditNumber(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate audit number: %w", err)
	}

	audit := &models.Audit{
		AuditNumber:      number,
		Title:            in.Title,
		Description:      in.Description,
		AuditType:        in.AuditType,
		Module:           in.Module,
		Department:       in.Department,
		PlannedStartDate: in.PlannedStartDate,
		PlannedEndDate:   in.PlannedEndDate,
		LeadAuditor:      in.LeadAuditor,
		AuditTeam:        in.AuditTeam,
		Status:           models.AuditStatusPlanned,
		Objectives:       in.Objectives,
		RiskLevel:        riskLevel,
		CreatedBy:        actor.UserID,
	}

	if err := s.auditRepo.Create(ctx, audit); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionCreate, "Audit", audit.ID.String(),
		fmt.Sprintf("Created audit %s: %s", audit.AuditNumber, audit.Title),
		nil, map[string]any{"status": audit.Status, "audit_type": audit.AuditType},
		&models.AuditContext{AuditID: &audit.ID})

	return audit, nil
}

func (s *AuditService) GetAudit(ctx context.Context, id uuid.UUID) (*models.Audit, error) {
	return s.auditRepo.GetByID(ctx, id)
}

func (s *AuditService) ListAudits(ctx context.Context, f repositories.AuditFilter) ([]models.Audit, int64, error) {
	return s.auditRepo.List(ctx, f)
}

type UpdateAuditInput struct {
	Title            *string
	Description      *string
	Module           *string
	Department       *string
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
	LeadAuditor      *uuid.UUID
	AuditTeam        []models.TeamMember
	Progress         *int
	Objectives       []models.Objective
	RiskLevel        *string
}

func (s *AuditService) UpdateAudit(ctx context.Context, id uuid.UUID, actor models.Actor, in UpdateAuditInput) (*models.Audit, error) {
	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Status == models.AuditStatusCompleted || audit.Status == models.AuditStatusCancelled {
		return nil, fmt.Errorf("audit %s is %s and can no longer be edited", audit.AuditNumber, audit.Status)
	}

	oldVals := map[string]any{}
	newVals := map[string]any{}
	if in.Title != nil && *in.Title != audit.Title {
		oldVals["title"], newVals["title"] = audit.Title, *in.Title
		audit.Title = *in.Title
	}
	if in.Description != nil {
		audit.Description = *in.Description
	}
	if in.Module != nil {
		audit.Module = *in.Module
	}
	if in.Department != nil {
		audit.Department = *in.Department
	}
	if in.PlannedStartDate != nil {
		audit.PlannedStartDate = *in.PlannedStartDate
	}
	if in.PlannedEndDate != nil {
		audit.PlannedEndDate = *in.PlannedEndDate
	}
	if !audit.PlannedEndDate.After(audit.PlannedStartDate) {
		return nil, fmt.Errorf("planned end date must be after planned start date")
	}
	if in.LeadAuditor != nil {
		audit.LeadAuditor = *in.LeadAuditor
	}
	if in.AuditTeam != nil {
		for _, m := range in.AuditTeam {
			if !models.IsValidTeamRole(m.Role) {
				return nil, fmt.Errorf("invalid team role %q", m.Role)
			}
		}
		audit.AuditTeam = in.AuditTeam
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, fmt.Errorf("progress must be between 0 and 100")
		}
		oldVals["progress"], newVals["progress"] = audit.Progress, *in.Progress
		audit.Progress = *in.Progress
	}
	if in.Objectives != nil {
		audit.Objectives = in.Objectives
	}
	if in.RiskLevel != nil {
		audit.RiskLevel = *in.RiskLevel
	}
	audit.UpdatedBy = &actor.UserID

	if err := s.auditRepo.Update(ctx, audit); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "Audit", audit.ID.String(),
		fmt.Sprintf("Updated audit %s", audit.AuditNumber),
		oldVals, newVals, &models.AuditContext{AuditID: &audit.ID})

	return audit, nil
}

// transition validates and performs a status change, stamps actual dates and
// records the change on the trail.
func (s *AuditService) transition(ctx context.Context, audit *models.Audit, newStatus string, actor models.Actor) error {
	if !models.IsValidAuditTransition(audit.Status, newStatus) {
		return fmt.Errorf("invalid audit transition from %s to %s", audit.Status, newStatus)
	}

	oldStatus := audit.Status
	if err := s.auditRepo.UpdateStatus(ctx, audit.ID, newStatus, actor.UserID); err != nil {
		return err
	}
	audit.Status = newStatus

	now := time.Now()
	switch newStatus {
	case models.AuditStatusInProgress:
		_ = s.auditRepo.SetActualStart(ctx, audit.ID, now)
	case models.AuditStatusCompleted, models.AuditStatusCancelled:
		_ = s.auditRepo.SetActualEnd(ctx, audit.ID, now)
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "Audit", audit.ID.String(),
		fmt.Sprintf("Audit %s moved from %s to %s", audit.AuditNumber, oldStatus, newStatus),
		map[string]any{"status": oldStatus}, map[string]any{"status": newStatus},
		&models.AuditContext{AuditID: &audit.ID})

	_ = s.publisher.Publish(ctx, events.StreamCompliance, events.Event{
		Type: events.EventAuditStatusChanged,
		Payload: map[string]any{
			"audit_id":     audit.ID.String(),
			"audit_number": audit.AuditNumber,
			"old_status":   oldStatus,
			"new_status":   newStatus,
		},
	})

	return nil
}

func (s *AuditService) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string, actor models.Actor) (*models.Audit, error) {
	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, audit, newStatus, actor); err != nil {
		return nil, err
	}
	return audit, nil
}

// DeleteAudit soft-deletes. Audits that still carry active findings must be
// cleaned up first so the finding history never dangles.
func (s *AuditService) DeleteAudit(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if audit.TotalFindings > 0 {
		return fmt.Errorf("audit %s has %d active findings and cannot be deleted", audit.AuditNumber, audit.TotalFindings)
	}

	if err := s.auditRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		return err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionDelete, "Audit", audit.ID.String(),
		fmt.Sprintf("Deleted audit %s: %s", audit.AuditNumber, audit.Title),
		map[string]any{"is_active": true}, map[string]any{"is_active": false},
		&models.AuditContext{AuditID: &audit.ID})

	return nil
}

func (s *AuditService) AddAttachment(ctx context.Context, id uuid.UUID, actor models.Actor, att models.Attachment) (*models.Audit, error) {
	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	audit.Attachments = append(audit.Attachments, att)
	audit.UpdatedBy = &actor.UserID

	if err := s.auditRepo.Update(ctx, audit); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "Audit", audit.ID.String(),
		fmt.Sprintf("Attached %s to audit %s", att.OriginalName, audit.AuditNumber),
		nil, map[string]any{"attachment": att.Filename},
		&models.AuditContext{AuditID: &audit.ID})

	return audit, nil
}
