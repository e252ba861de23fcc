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

type FindingService struct {
	findingRepo *repositories.FindingRepo
	auditRepo   *repositories.AuditRepo
	seqRepo     *repositories.SequenceRepo
	recorder    *Recorder
	publisher   events.Publisher
	log         *zap.Logger
}

func NewFindingService(
	findingRepo *repositories.FindingRepo,
	auditRepo *repositories.AuditRepo,
	seqRepo *repositories.SequenceRepo,
	recorder *Recorder,
	publisher events.Publisher,
	log *zap.Logger,
) *FindingService {
	return &FindingService{
		findingRepo: findingRepo,
		auditRepo:   auditRepo,
		seqRepo:     seqRepo,
		recorder:    recorder,
		publisher:   publisher,
		log:         log,
	}
}

type CreateFindingInput struct {
	AuditID              uuid.UUID
	Title                string
	Description          string
	Category             string
	Severity             string
	Impact               string
	Process              string
	Location             string
	Evidence             string
	Criteria             string
	RootCause            string
	TargetResolutionDate *time.Time
	FinancialImpact      *float64
}

func (s *FindingService) CreateFinding(ctx context.Context, actor models.Actor, in CreateFindingInput) (*models.Finding, error) {
	if in.Title == "" || in.Description == "" {
		return nil, fmt.Errorf("finding title and description are required")
	}
	if !models.IsValidFindingCategory(in.Category) {
		return nil, fmt.Errorf("invalid finding category %q", in.Category)
	}
	switch in.Severity {
	case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
	default:
		return nil, fmt.Errorf("invalid severity %q", in.Severity)
	}

	audit, err := s.auditRepo.GetByID(ctx, in.AuditID)
	if err != nil {
		return nil, fmt.Errorf("audit not found: %w", err)
	}
	if audit.Status == models.AuditStatusCompleted || audit.Status == models.AuditStatusCancelled {
		return nil, fmt.Errorf("audit %s is %s, findings can no longer be added", audit.AuditNumber, audit.Status)
	}

	number, err := s.seqRepo.NextFindingNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate finding number: %w", err)
	}

	finding := &models.Finding{
		FindingNumber:        number,
		AuditID:              in.AuditID,
		Title:                in.Title,
		Description:          in.Description,
		Category:             in.Category,
		Severity:             in.Severity,
		Impact:               in.Impact,
		Process:              in.Process,
		Location:             in.Location,
		Evidence:             in.Evidence,
		Criteria:             in.Criteria,
		RootCause:            in.RootCause,
		Status:               models.FindingStatusOpen,
		TargetResolutionDate: in.TargetResolutionDate,
		FinancialImpact:      in.FinancialImpact,
		CreatedBy:            actor.UserID,
	}

	if err := s.findingRepo.Create(ctx, finding); err != nil {
		return nil, err
	}

	// Severity counters on the parent are derived; recount rather than adjust.
	if err := s.auditRepo.RecountFindings(ctx, in.AuditID); err != nil {
		s.log.Error("failed to recount findings", zap.Error(err), zap.String("audit_id", in.AuditID.String()))
	}

	s.recorder.RecordChange(ctx, actor, models.ActionCreate, "AuditFinding", finding.ID.String(),
		fmt.Sprintf("Created finding %s on audit %s: %s", finding.FindingNumber, audit.AuditNumber, finding.Title),
		nil, map[string]any{"severity": finding.Severity, "status": finding.Status},
		&models.AuditContext{AuditID: &in.AuditID, FindingID: &finding.ID})

	return finding, nil
}

func (s *FindingService) GetFinding(ctx context.Context, id uuid.UUID) (*models.Finding, error) {
	return s.findingRepo.GetByID(ctx, id)
}

func (s *FindingService) ListFindings(ctx context.Context, f repositories.FindingFilter) ([]models.Finding, int64, error) {
	return s.findingRepo.List(ctx, f)
}

type UpdateFindingInput struct {
	Title                *string
	Description          *string
	Category             *string
	Severity             *string
	Impact               *string
	Process              *string
	Location             *string
	Evidence             *string
	Criteria             *string
	RootCause            *string
	TargetResolutionDate *time.Time
	FinancialImpact      *float64
	FollowUpNotes        *string
	FollowUpDate         *time.Time
}

func (s *FindingService) UpdateFinding(ctx context.Context, id uuid.UUID, actor models.Actor, in UpdateFindingInput) (*models.Finding, error) {
	finding, err := s.findingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if finding.Status == models.FindingStatusClosed || finding.Status == models.FindingStatusRejected {
		return nil, fmt.Errorf("finding %s is %s and can no longer be edited", finding.FindingNumber, finding.Status)
	}

	oldVals := map[string]any{}
	newVals := map[string]any{}
	severityChanged := false

	if in.Title != nil {
		finding.Title = *in.Title
	}
	if in.Description != nil {
		finding.Description = *in.Description
	}
	if in.Category != nil {
		if !models.IsValidFindingCategory(*in.Category) {
			return nil, fmt.Errorf("invalid finding category %q", *in.Category)
		}
		finding.Category = *in.Category
	}
	if in.Severity != nil && *in.Severity != finding.Severity {
		switch *in.Severity {
		case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
		default:
			return nil, fmt.Errorf("invalid severity %q", *in.Severity)
		}
		oldVals["severity"], newVals["severity"] = finding.Severity, *in.Severity
		finding.Severity = *in.Severity
		severityChanged = true
	}
	if in.Impact != nil {
		finding.Impact = *in.Impact
	}
	if in.Process != nil {
		finding.Process = *in.Process
	}
	if in.Location != nil {
		finding.Location = *in.Location
	}
	if in.Evidence != nil {
		finding.Evidence = *in.Evidence
	}
	if in.Criteria != nil {
		finding.Criteria = *in.Criteria
	}
	if in.RootCause != nil {
		finding.RootCause = *in.RootCause
	}
	if in.TargetResolutionDate != nil {
		finding.TargetResolutionDate = in.TargetResolutionDate
	}
	if in.FinancialImpact != nil {
		finding.FinancialImpact = in.FinancialImpact
	}
	if in.FollowUpNotes != nil {
		finding.FollowUpNotes = *in.FollowUpNotes
	}
	if in.FollowUpDate != nil {
		finding.FollowUpDate = in.FollowUpDate
	}
	finding.UpdatedBy = &actor.UserID

	if err := s.findingRepo.Update(ctx, finding); err != nil {
		return nil, err
	}

	if severityChanged {
		if err := s.auditRepo.RecountFindings(ctx, finding.AuditID); err != nil {
			s.log.Error("failed to recount findings", zap.Error(err))
		}
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "AuditFinding", finding.ID.String(),
		fmt.Sprintf("Updated finding %s", finding.FindingNumber),
		oldVals, newVals,
		&models.AuditContext{AuditID: &finding.AuditID, FindingID: &finding.ID})

	return finding, nil
}

// transition validates and performs a finding status change, with side
// effects for the review and closure states.
func (s *FindingService) transition(ctx context.Context, finding *models.Finding, newStatus string, actor models.Actor) error {
	if !models.IsValidFindingTransition(finding.Status, newStatus) {
		return fmt.Errorf("invalid finding transition from %s to %s", finding.Status, newStatus)
	}

	oldStatus := finding.Status
	if err := s.findingRepo.UpdateStatus(ctx, finding.ID, newStatus, actor.UserID); err != nil {
		return err
	}
	finding.Status = newStatus

	switch newStatus {
	case models.FindingStatusApproved:
		_ = s.findingRepo.SetReviewedBy(ctx, finding.ID, actor.UserID)
	case models.FindingStatusClosed:
		_ = s.findingRepo.SetActualResolutionDate(ctx, finding.ID, time.Now())
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "AuditFinding", finding.ID.String(),
		fmt.Sprintf("Finding %s moved from %s to %s", finding.FindingNumber, oldStatus, newStatus),
		map[string]any{"status": oldStatus}, map[string]any{"status": newStatus},
		&models.AuditContext{AuditID: &finding.AuditID, FindingID: &finding.ID})

	_ = s.publisher.Publish(ctx, events.StreamCompliance, events.Event{
		Type: events.EventFindingStatusChanged,
		Payload: map[string]any{
			"finding_id":     finding.ID.String(),
			"finding_number": finding.FindingNumber,
			"audit_id":       finding.AuditID.String(),
			"old_status":     oldStatus,
			"new_status":     newStatus,
		},
	})

	return nil
}

func (s *FindingService) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string, actor models.Actor) (*models.Finding, error) {
	finding, err := s.findingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, finding, newStatus, actor); err != nil {
		return nil, err
	}
	return finding, nil
}

func (s *FindingService) AssignFinding(ctx context.Context, id, assignee uuid.UUID, actor models.Actor) (*models.Finding, error) {
	finding, err := s.findingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if finding.Status == models.FindingStatusClosed || finding.Status == models.FindingStatusRejected {
		return nil, fmt.Errorf("finding %s is %s and cannot be assigned", finding.FindingNumber, finding.Status)
	}

	now := time.Now()
	if err := s.findingRepo.Assign(ctx, id, assignee, actor.UserID, now); err != nil {
		return nil, err
	}
	finding.AssignedTo = &assignee
	finding.AssignedBy = &actor.UserID
	finding.AssignedAt = &now

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "AuditFinding", finding.ID.String(),
		fmt.Sprintf("Assigned finding %s", finding.FindingNumber),
		nil, map[string]any{"assigned_to": assignee.String()},
		&models.AuditContext{AuditID: &finding.AuditID, FindingID: &finding.ID})

	return finding, nil
}

// DeleteFinding soft-deletes and recounts the parent audit's counters.
func (s *FindingService) DeleteFinding(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	finding, err := s.findingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.findingRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		return err
	}
	if err := s.auditRepo.RecountFindings(ctx, finding.AuditID); err != nil {
		s.log.Error("failed to recount findings", zap.Error(err))
	}

	s.recorder.RecordChange(ctx, actor, models.ActionDelete, "AuditFinding", finding.ID.String(),
		fmt.Sprintf("Deleted finding %s: %s", finding.FindingNumber, finding.Title),
		map[string]any{"is_active": true}, map[string]any{"is_active": false},
		&models.AuditContext{AuditID: &finding.AuditID, FindingID: &finding.ID})

	return nil
}
