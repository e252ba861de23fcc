package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"go.uber.org/zap"
)

// ValidationError carries every violation found, so callers can surface the
// whole list instead of fixing one field per round-trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "schedule validation failed: " + strings.Join(e.Violations, "; ")
}

type ScheduleService struct {
	scheduleRepo *repositories.ScheduleRepo
	auditRepo    *repositories.AuditRepo
	seqRepo      *repositories.SequenceRepo
	recorder     *Recorder
	publisher    events.Publisher
	log          *zap.Logger
}

func NewScheduleService(
	scheduleRepo *repositories.ScheduleRepo,
	auditRepo *repositories.AuditRepo,
	seqRepo *repositories.SequenceRepo,
	recorder *Recorder,
	publisher events.Publisher,
	log *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		auditRepo:    auditRepo,
		seqRepo:      seqRepo,
		recorder:     recorder,
		publisher:    publisher,
		log:          log,
	}
}

func (s *ScheduleService) CreateSchedule(ctx context.Context, actor models.Actor, schedule *models.Schedule) (*models.Schedule, error) {
	if violations := schedule.Validate(); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	schedule.Status = models.ScheduleStatusActive
	schedule.CreatedBy = actor.UserID
	// The first occurrence falls one interval after the start date. A
	// non-recurring schedule gets exactly one occurrence, at the start date.
	if schedule.RecurrencePattern == models.RecurrenceNone {
		schedule.NextScheduledDate = &schedule.StartDate
	} else {
		schedule.NextScheduledDate = schedule.NextScheduledFrom(nil)
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionCreate, "AuditSchedule", schedule.ID.String(),
		fmt.Sprintf("Created audit schedule %q (%s, %s)", schedule.Name, schedule.ScheduleType, schedule.RecurrencePattern),
		nil, map[string]any{"status": schedule.Status}, nil)

	return schedule, nil
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	return s.scheduleRepo.GetByID(ctx, id)
}

func (s *ScheduleService) ListSchedules(ctx context.Context, f repositories.ScheduleFilter) ([]models.Schedule, int64, error) {
	return s.scheduleRepo.List(ctx, f)
}

func (s *ScheduleService) UpdateSchedule(ctx context.Context, id uuid.UUID, actor models.Actor, updated *models.Schedule) (*models.Schedule, error) {
	existing, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.ScheduleStatusCompleted || existing.Status == models.ScheduleStatusCancelled {
		return nil, fmt.Errorf("schedule %q is %s and can no longer be edited", existing.Name, existing.Status)
	}

	if violations := updated.Validate(); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	updated.ID = existing.ID
	updated.UpdatedBy = &actor.UserID
	if updated.NextScheduledDate == nil {
		updated.NextScheduledDate = existing.NextScheduledDate
	}

	if err := s.scheduleRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "AuditSchedule", id.String(),
		fmt.Sprintf("Updated audit schedule %q", updated.Name),
		nil, nil, nil)

	return s.scheduleRepo.GetByID(ctx, id)
}

func (s *ScheduleService) SetStatus(ctx context.Context, id uuid.UUID, status string, actor models.Actor) (*models.Schedule, error) {
	switch status {
	case models.ScheduleStatusActive, models.ScheduleStatusPaused,
		models.ScheduleStatusCompleted, models.ScheduleStatusCancelled:
	default:
		return nil, fmt.Errorf("invalid schedule status %q", status)
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status == models.ScheduleStatusCancelled {
		return nil, fmt.Errorf("schedule %q is cancelled", schedule.Name)
	}

	oldStatus := schedule.Status
	if err := s.scheduleRepo.UpdateStatus(ctx, id, status, actor.UserID); err != nil {
		return nil, err
	}
	schedule.Status = status

	s.recorder.RecordChange(ctx, actor, models.ActionUpdate, "AuditSchedule", id.String(),
		fmt.Sprintf("Schedule %q moved from %s to %s", schedule.Name, oldStatus, status),
		map[string]any{"status": oldStatus}, map[string]any{"status": status}, nil)

	return schedule, nil
}

func (s *ScheduleService) DeleteSchedule(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.scheduleRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		return err
	}

	s.recorder.RecordChange(ctx, actor, models.ActionDelete, "AuditSchedule", id.String(),
		fmt.Sprintf("Deleted audit schedule %q", schedule.Name),
		map[string]any{"is_active": true}, map[string]any{"is_active": false}, nil)

	return nil
}

// schedulerActor attributes audits materialized by the worker to the
// schedule's creator, acting through the scheduler.
func schedulerActor(schedule *models.Schedule) models.Actor {
	return models.Actor{
		UserID: schedule.CreatedBy,
		Email:  "scheduler@erp-audit-engine",
		Role:   "system",
	}
}

// GenerateNextAudit materializes one audit from the schedule at its next due
// date and advances the recurrence.
func (s *ScheduleService) GenerateNextAudit(ctx context.Context, schedule *models.Schedule) (*models.Audit, error) {
	if schedule.NextScheduledDate == nil {
		return nil, fmt.Errorf("schedule %q has no next scheduled date", schedule.Name)
	}
	if schedule.DefaultLeadAuditor == nil {
		return nil, fmt.Errorf("schedule %q has no default lead auditor", schedule.Name)
	}

	due := *schedule.NextScheduledDate
	number, err := s.seqRepo.NextAuditNumber(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate audit number: %w", err)
	}

	department := ""
	if !schedule.IncludeAllDepartments && len(schedule.Departments) > 0 {
		department = schedule.Departments[0]
	}

	audit := &models.Audit{
		AuditNumber:      number,
		Title:            fmt.Sprintf("%s - %s", schedule.Name, due.Format("Jan 2006")),
		Description:      schedule.Description,
		AuditType:        schedule.AuditType,
		Module:           schedule.Module,
		Department:       department,
		PlannedStartDate: due,
		PlannedEndDate:   due.AddDate(0, 0, schedule.DurationDays),
		LeadAuditor:      *schedule.DefaultLeadAuditor,
		AuditTeam:        schedule.DefaultAuditTeam,
		Status:           models.AuditStatusPlanned,
		RiskLevel:        models.RiskMedium,
		CreatedBy:        schedule.CreatedBy,
	}
	for _, item := range schedule.DefaultChecklist {
		audit.Objectives = append(audit.Objectives, models.Objective{Description: item, Status: "pending"})
	}

	if err := s.auditRepo.Create(ctx, audit); err != nil {
		return nil, err
	}

	next := schedule.NextScheduledFrom(&due)
	if next != nil && schedule.EndDate != nil && next.After(*schedule.EndDate) {
		next = nil
	}

	record := models.GeneratedAudit{
		AuditID:       audit.ID,
		ScheduledDate: due,
		Status:        "scheduled",
	}
	if err := s.scheduleRepo.RecordGeneratedAudit(ctx, schedule.ID, record, next); err != nil {
		s.log.Error("failed to record generated audit", zap.Error(err))
	}
	schedule.GeneratedAudits = append(schedule.GeneratedAudits, record)
	schedule.TotalScheduled++
	schedule.NextScheduledDate = next

	s.recorder.RecordChange(ctx, schedulerActor(schedule), models.ActionCreate, "Audit", audit.ID.String(),
		fmt.Sprintf("Generated audit %s from schedule %q", audit.AuditNumber, schedule.Name),
		nil, map[string]any{"scheduled_date": due.Format(time.RFC3339)},
		&models.AuditContext{AuditID: &audit.ID})

	s.log.Info("audit generated from schedule",
		zap.String("schedule", schedule.Name),
		zap.String("audit_number", audit.AuditNumber),
		zap.Time("scheduled_date", due),
	)

	return audit, nil
}

// RunDue evaluates every due schedule once: generates the pending audit and
// retires schedules whose recurrence has run out.
func (s *ScheduleService) RunDue(ctx context.Context, now time.Time) error {
	due, err := s.scheduleRepo.DueForGeneration(ctx, now)
	if err != nil {
		return err
	}

	for i := range due {
		schedule := &due[i]
		if _, err := s.GenerateNextAudit(ctx, schedule); err != nil {
			s.log.Error("failed to generate audit from schedule",
				zap.String("schedule", schedule.Name),
				zap.Error(err),
			)
			continue
		}

		if schedule.NextScheduledDate == nil && schedule.RecurrencePattern != models.RecurrenceNone {
			actor := schedulerActor(schedule)
			if _, err := s.SetStatus(ctx, schedule.ID, models.ScheduleStatusCompleted, actor); err != nil {
				s.log.Error("failed to complete exhausted schedule", zap.Error(err))
			}
		}
	}

	return nil
}

// RefreshStatistics re-derives each generated audit's outcome from the audits
// table and rewrites the schedule rollups.
func (s *ScheduleService) RefreshStatistics(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	completed, cancelled := 0, 0
	for i := range schedule.GeneratedAudits {
		g := &schedule.GeneratedAudits[i]
		audit, err := s.auditRepo.GetByID(ctx, g.AuditID)
		if err != nil {
			continue
		}
		switch audit.Status {
		case models.AuditStatusCompleted:
			g.Status = "completed"
			g.ActualDate = audit.ActualEndDate
			completed++
		case models.AuditStatusCancelled:
			g.Status = "cancelled"
			cancelled++
		case models.AuditStatusInProgress, models.AuditStatusUnderReview:
			g.Status = "in_progress"
		}
	}

	schedule.TotalScheduled = len(schedule.GeneratedAudits)
	schedule.TotalCompleted = completed
	schedule.TotalCancelled = cancelled
	if schedule.TotalScheduled > 0 {
		schedule.CompletionRate = completed * 100 / schedule.TotalScheduled
	} else {
		schedule.CompletionRate = 0
	}

	if err := s.scheduleRepo.UpdateStatistics(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// CheckReminders publishes a notification_due event for each active schedule
// whose next audit falls exactly one of its reminder lead times away. The
// window matches the worker tick so a reminder fires once.
func (s *ScheduleService) CheckReminders(ctx context.Context, now time.Time, tick time.Duration) error {
	active := models.ScheduleStatusActive
	schedules, _, err := s.scheduleRepo.List(ctx, repositories.ScheduleFilter{Status: &active, Limit: 100})
	if err != nil {
		return err
	}

	for _, schedule := range schedules {
		if !schedule.Notifications.Enabled || schedule.NextScheduledDate == nil {
			continue
		}
		for _, days := range schedule.Notifications.ReminderDays {
			remindAt := schedule.NextScheduledDate.AddDate(0, 0, -days)
			if remindAt.After(now) || !remindAt.After(now.Add(-tick)) {
				continue
			}
			_ = s.publisher.Publish(ctx, events.StreamCompliance, events.Event{
				Type: events.EventNotificationDue,
				Payload: map[string]any{
					"schedule_id":    schedule.ID.String(),
					"schedule_name":  schedule.Name,
					"scheduled_date": schedule.NextScheduledDate.Format(time.RFC3339),
					"days_before":    days,
					"notify_lead":    schedule.Notifications.NotifyLeadAuditor,
					"notify_team":    schedule.Notifications.NotifyAuditTeam,
				},
			})
		}
	}

	return nil
}
