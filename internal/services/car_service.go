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

type CARService struct {
	carRepo     *repositories.CARRepo
	findingRepo *repositories.FindingRepo
	seqRepo     *repositories.SequenceRepo
	recorder    *Recorder
	publisher   events.Publisher
	log         *zap.Logger
}

func NewCARService(
	carRepo *repositories.CARRepo,
	findingRepo *repositories.FindingRepo,
	seqRepo *repositories.SequenceRepo,
	recorder *Recorder,
	publisher events.Publisher,
	log *zap.Logger,
) *CARService {
	return &CARService{
		carRepo:     carRepo,
		findingRepo: findingRepo,
		seqRepo:     seqRepo,
		recorder:    recorder,
		publisher:   publisher,
		log:         log,
	}
}

type CreateCARInput struct {
	FindingID            uuid.UUID
	ActionType           string
	Priority             string
	ActionPlan           string
	ResponsiblePerson    uuid.UUID
	TargetCompletionDate time.Time
	Milestones           []models.Milestone
	EstimatedCost        *float64
}

func (s *CARService) CreateCAR(ctx context.Context, actor models.Actor, in CreateCARInput) (*models.CorrectiveAction, error) {
	if in.ActionPlan == "" {
		return nil, fmt.Errorf("action plan is required")
	}
	if !models.IsValidCARType(in.ActionType) {
		return nil, fmt.Errorf("invalid action type %q", in.ActionType)
	}
	if in.ResponsiblePerson == uuid.Nil {
		return nil, fmt.Errorf("responsible person is required")
	}
	if in.TargetCompletionDate.Before(time.Now()) {
		return nil, fmt.Errorf("target completion date must be in the future")
	}

	finding, err := s.findingRepo.GetByID(ctx, in.FindingID)
	if err != nil {
		return nil, fmt.Errorf("finding not found: %w", err)
	}
	if finding.Status == models.FindingStatusClosed || finding.Status == models.FindingStatusRejected {
		return nil, fmt.Errorf("finding %s is %s, corrective action cannot be opened", finding.FindingNumber, finding.Status)
	}
	if finding.CorrectiveActionID != nil {
		return nil, fmt.Errorf("finding %s already has a corrective action", finding.FindingNumber)
	}

	priority := in.Priority
	if priority == "" {
		priority = finding.Severity
	}

	number, err := s.seqRepo.NextCARNumber(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate CAR number: %w", err)
	}

	car := &models.CorrectiveAction{
		CARNumber:            number,
		FindingID:            finding.ID,
		AuditID:              finding.AuditID,
		ActionType:           in.ActionType,
		Priority:             priority,
		ActionPlan:           in.ActionPlan,
		ResponsiblePerson:    in.ResponsiblePerson,
		AssignedBy:           actor.UserID,
		TargetCompletionDate: in.TargetCompletionDate,
		Status:               models.CARStatusOpen,
		Milestones:           in.Milestones,
		Verification: models.Verification{
			Required: true,
			Outcome:  models.VerificationPending,
		},
		EstimatedCost: in.EstimatedCost,
		CreatedBy:     actor.UserID,
	}

	if err := s.carRepo.Create(ctx, car); err != nil {
		return nil, err
	}
	if err := s.findingRepo.LinkCorrectiveAction(ctx, finding.ID, car.ID); err != nil {
		s.log.Error("failed to link corrective action to finding", zap.Error(err))
	}

	s.recorder.RecordChange(ctx, actor, models.ActionCreate, "CorrectiveAction", car.ID.String(),
		fmt.Sprintf("Opened corrective action %s for finding %s", car.CARNumber, finding.FindingNumber),
		nil, map[string]any{"status": car.Status, "priority": car.Priority},
		&models.AuditContext{AuditID: &car.AuditID, FindingID: &car.FindingID, CorrectiveActionID: &car.ID})

	return car, nil
}

func (s *CARService) GetCAR(ctx context.Context, id uuid.UUID) (*models.CorrectiveAction, error) {
	return s.carRepo.GetByID(ctx, id)
}

func (s *CARService) GetCARForFinding(ctx context.Context, findingID uuid.UUID) (*models.CorrectiveAction, error) {
	return s.carRepo.GetByFindingID(ctx, findingID)
}

func (s *CARService) ListCARs(ctx context.Context, f repositories.CARFilter) ([]models.CorrectiveAction, int64, error) {
	return s.carRepo.List(ctx, f)
}

// transition validates and performs a CAR status change. Completion stamps
// the actual completion date; verification is checked on the way in.
func (s *CARService) transition(ctx context.Context, car *models.CorrectiveAction, newStatus string, actor models.Actor) error {
	if !models.IsValidCARTransition(car.Status, newStatus) {
		return fmt.Errorf("invalid corrective action transition from %s to %s", car.Status, newStatus)
	}
	if newStatus == models.CARStatusVerified && car.Verification.Outcome != models.VerificationVerified {
		return fmt.Errorf("corrective action %s cannot be verified, verification outcome is %s", car.CARNumber, car.Verification.Outcome)
	}

	oldStatus := car.Status
	if err := s.carRepo.UpdateStatus(ctx, car.ID, newStatus, actor.UserID); err != nil {
		return err
	}
	car.Status = newStatus

	if newStatus == models.CARStatusCompleted {
		_ = s.carRepo.SetActualCompletionDate(ctx, car.ID, time.Now())
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "CorrectiveAction", car.ID.String(),
		fmt.Sprintf("Corrective action %s moved from %s to %s", car.CARNumber, oldStatus, newStatus),
		map[string]any{"status": oldStatus}, map[string]any{"status": newStatus},
		&models.AuditContext{AuditID: &car.AuditID, FindingID: &car.FindingID, CorrectiveActionID: &car.ID})

	_ = s.publisher.Publish(ctx, events.StreamCompliance, events.Event{
		Type: events.EventCARStatusChanged,
		Payload: map[string]any{
			"corrective_action_id": car.ID.String(),
			"car_number":           car.CARNumber,
			"finding_id":           car.FindingID.String(),
			"old_status":           oldStatus,
			"new_status":           newStatus,
		},
	})

	return nil
}

func (s *CARService) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string, actor models.Actor) (*models.CorrectiveAction, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, car, newStatus, actor); err != nil {
		return nil, err
	}
	return car, nil
}

type UpdateCARInput struct {
	ActionType           *string
	Priority             *string
	ActionPlan           *string
	ResponsiblePerson    *uuid.UUID
	TargetCompletionDate *time.Time
	Progress             *int
	Milestones           []models.Milestone
	EstimatedCost        *float64
	ActualCost           *float64
}

// UpdateCAR saves plan and progress changes. When the update brings the
// action to full progress with a verified outcome, the save advances it to
// completed through a real recorded transition.
func (s *CARService) UpdateCAR(ctx context.Context, id uuid.UUID, actor models.Actor, in UpdateCARInput) (*models.CorrectiveAction, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.Status == models.CARStatusClosed {
		return nil, fmt.Errorf("corrective action %s is closed and can no longer be edited", car.CARNumber)
	}

	oldVals := map[string]any{}
	newVals := map[string]any{}

	if in.ActionType != nil {
		if !models.IsValidCARType(*in.ActionType) {
			return nil, fmt.Errorf("invalid action type %q", *in.ActionType)
		}
		car.ActionType = *in.ActionType
	}
	if in.Priority != nil {
		car.Priority = *in.Priority
	}
	if in.ActionPlan != nil {
		car.ActionPlan = *in.ActionPlan
	}
	if in.ResponsiblePerson != nil {
		car.ResponsiblePerson = *in.ResponsiblePerson
	}
	if in.TargetCompletionDate != nil {
		car.TargetCompletionDate = *in.TargetCompletionDate
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, fmt.Errorf("progress must be between 0 and 100")
		}
		oldVals["progress"], newVals["progress"] = car.Progress, *in.Progress
		car.Progress = *in.Progress
	}
	if in.Milestones != nil {
		car.Milestones = in.Milestones
		car.Progress = car.CompletionRate()
	}
	if in.EstimatedCost != nil {
		car.EstimatedCost = in.EstimatedCost
	}
	if in.ActualCost != nil {
		car.ActualCost = in.ActualCost
	}
	car.UpdatedBy = &actor.UserID

	if err := s.carRepo.Update(ctx, car); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "CorrectiveAction", car.ID.String(),
		fmt.Sprintf("Updated corrective action %s", car.CARNumber),
		oldVals, newVals,
		&models.AuditContext{AuditID: &car.AuditID, FindingID: &car.FindingID, CorrectiveActionID: &car.ID})

	if car.ReadyToComplete() {
		if err := s.transition(ctx, car, models.CARStatusCompleted, actor); err != nil {
			s.log.Warn("auto-completion transition rejected",
				zap.String("car_number", car.CARNumber),
				zap.String("status", car.Status),
				zap.Error(err),
			)
		}
	}

	return car, nil
}

// Verify records the verification outcome. A verified outcome on a completed
// action advances it to verified.
func (s *CARService) Verify(ctx context.Context, id uuid.UUID, actor models.Actor, outcome, notes string) (*models.CorrectiveAction, error) {
	switch outcome {
	case models.VerificationVerified, models.VerificationNotVerified, models.VerificationRequiresRework:
	default:
		return nil, fmt.Errorf("invalid verification outcome %q", outcome)
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.Status != models.CARStatusCompleted && car.Status != models.CARStatusUnderReview {
		return nil, fmt.Errorf("corrective action %s is %s, verification requires completed or under_review", car.CARNumber, car.Status)
	}

	now := time.Now()
	oldOutcome := car.Verification.Outcome
	car.Verification.Outcome = outcome
	car.Verification.VerifiedBy = &actor.UserID
	car.Verification.VerifiedAt = &now
	car.Verification.Notes = notes
	car.UpdatedBy = &actor.UserID

	if err := s.carRepo.Update(ctx, car); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "CorrectiveAction", car.ID.String(),
		fmt.Sprintf("Verification of corrective action %s recorded as %s", car.CARNumber, outcome),
		map[string]any{"verification_outcome": oldOutcome},
		map[string]any{"verification_outcome": outcome},
		&models.AuditContext{AuditID: &car.AuditID, FindingID: &car.FindingID, CorrectiveActionID: &car.ID})

	if outcome == models.VerificationVerified && car.Status == models.CARStatusCompleted {
		if err := s.transition(ctx, car, models.CARStatusVerified, actor); err != nil {
			return nil, err
		}
	}

	return car, nil
}

func (s *CARService) AddComment(ctx context.Context, id uuid.UUID, actor models.Actor, text string) (*models.CorrectiveAction, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text is required")
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		AuthorID:  actor.UserID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.carRepo.AddComment(ctx, id, comment); err != nil {
		return nil, err
	}
	car.Comments = append(car.Comments, comment)

	return car, nil
}

func (s *CARService) DeleteCAR(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.carRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		return err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionDelete, "CorrectiveAction", car.ID.String(),
		fmt.Sprintf("Deleted corrective action %s", car.CARNumber),
		map[string]any{"is_active": true}, map[string]any{"is_active": false},
		&models.AuditContext{AuditID: &car.AuditID, FindingID: &car.FindingID, CorrectiveActionID: &car.ID})

	return nil
}

// RemindDue publishes a notification event for every open action whose target
// completion date falls within the lead window. Called from the worker tick.
func (s *CARService) RemindDue(ctx context.Context, within time.Duration) error {
	cars, err := s.carRepo.ListDueForReminder(ctx, within)
	if err != nil {
		return err
	}

	for _, car := range cars {
		if err := s.publisher.Publish(ctx, events.StreamCompliance, events.Event{
			Type: events.EventNotificationDue,
			Payload: map[string]any{
				"kind":                   "corrective_action_due",
				"corrective_action_id":   car.ID.String(),
				"car_number":             car.CARNumber,
				"responsible_person":     car.ResponsiblePerson.String(),
				"target_completion_date": car.TargetCompletionDate,
				"status":                 car.Status,
			},
		}); err != nil {
			s.log.Error("failed to publish due reminder",
				zap.String("car_number", car.CARNumber),
				zap.Error(err),
			)
		}
	}
	return nil
}
