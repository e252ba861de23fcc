package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schedule types
const (
	ScheduleTypeAnnual    = "annual"
	ScheduleTypeQuarterly = "quarterly"
	ScheduleTypeMonthly   = "monthly"
	ScheduleTypeWeekly    = "weekly"
	ScheduleTypeAdHoc     = "ad_hoc"
)

func IsValidScheduleType(t string) bool {
	switch t {
	case ScheduleTypeAnnual, ScheduleTypeQuarterly, ScheduleTypeMonthly, ScheduleTypeWeekly, ScheduleTypeAdHoc:
		return true
	}
	return false
}

// Recurrence patterns
const (
	RecurrenceNone      = "none"
	RecurrenceDaily     = "daily"
	RecurrenceWeekly    = "weekly"
	RecurrenceMonthly   = "monthly"
	RecurrenceQuarterly = "quarterly"
	RecurrenceAnnually  = "annually"
)

func IsValidRecurrencePattern(p string) bool {
	switch p {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceAnnually:
		return true
	}
	return false
}

// Schedule statuses
const (
	ScheduleStatusActive    = "active"
	ScheduleStatusPaused    = "paused"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// GeneratedAudit is one history record of an audit materialized from a schedule.
type GeneratedAudit struct {
	AuditID       uuid.UUID  `json:"audit_id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	ActualDate    *time.Time `json:"actual_date,omitempty"`
	Status        string     `json:"status"` // scheduled / in_progress / completed / cancelled
}

type NotificationPrefs struct {
	Enabled               bool  `json:"enabled"`
	ReminderDays          []int `json:"reminder_days,omitempty"` // days before the audit, e.g. [30, 7, 1]
	NotifyLeadAuditor     bool  `json:"notify_lead_auditor"`
	NotifyAuditTeam       bool  `json:"notify_audit_team"`
	NotifyDepartmentHeads bool  `json:"notify_department_heads"`
	NotifyManagement      bool  `json:"notify_management"`
}

// Schedule is a declarative recurrence rule that materializes audits.
type Schedule struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`

	ScheduleType string `json:"schedule_type"`
	Frequency    int    `json:"frequency"` // times per period
	AuditType    string `json:"audit_type"`
	Module       string `json:"module"`

	Departments           []string `json:"departments,omitempty"`
	IncludeAllDepartments bool     `json:"include_all_departments"`

	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DurationDays int        `json:"duration_days"` // per-occurrence duration

	RecurrencePattern  string `json:"recurrence_pattern"`
	RecurrenceInterval int    `json:"recurrence_interval"`

	DefaultLeadAuditor *uuid.UUID   `json:"default_lead_auditor,omitempty"`
	DefaultAuditTeam   []TeamMember `json:"default_audit_team,omitempty"`
	DefaultChecklist   []string     `json:"default_checklist,omitempty"`

	Notifications NotificationPrefs `json:"notifications"`

	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`

	GeneratedAudits []GeneratedAudit `json:"generated_audits,omitempty"`

	TotalScheduled int `json:"total_scheduled"`
	TotalCompleted int `json:"total_completed"`
	TotalCancelled int `json:"total_cancelled"`
	CompletionRate int `json:"completion_rate"` // 0..100

	NextScheduledDate *time.Time `json:"next_scheduled_date,omitempty"`

	CreatedBy uuid.UUID  `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NextScheduledFrom computes the next due date by adding the recurrence
// interval to the base date. A nil base means the schedule's start date.
// Returns nil for non-recurring schedules.
func (s *Schedule) NextScheduledFrom(from *time.Time) *time.Time {
	if s.RecurrencePattern == RecurrenceNone {
		return nil
	}

	base := s.StartDate
	if from != nil {
		base = *from
	}

	var next time.Time
	switch s.RecurrencePattern {
	case RecurrenceDaily:
		next = base.AddDate(0, 0, s.RecurrenceInterval)
	case RecurrenceWeekly:
		next = base.AddDate(0, 0, 7*s.RecurrenceInterval)
	case RecurrenceMonthly:
		next = base.AddDate(0, s.RecurrenceInterval, 0)
	case RecurrenceQuarterly:
		next = base.AddDate(0, 3*s.RecurrenceInterval, 0)
	case RecurrenceAnnually:
		next = base.AddDate(s.RecurrenceInterval, 0, 0)
	default:
		return nil
	}
	return &next
}

// Validate enforces the schedule invariants before persistence. All
// violations are collected so the caller can surface them together.
func (s *Schedule) Validate() []string {
	var violations []string

	if s.Name == "" {
		violations = append(violations, "schedule name is required")
	}
	if !IsValidScheduleType(s.ScheduleType) {
		violations = append(violations, fmt.Sprintf("invalid schedule type %q", s.ScheduleType))
	}
	if !IsValidAuditType(s.AuditType) {
		violations = append(violations, fmt.Sprintf("invalid audit type %q", s.AuditType))
	}
	if !IsValidRecurrencePattern(s.RecurrencePattern) {
		violations = append(violations, fmt.Sprintf("invalid recurrence pattern %q", s.RecurrencePattern))
	}
	if s.EndDate != nil && !s.EndDate.After(s.StartDate) {
		violations = append(violations, "end date must be after start date")
	}
	if s.RecurrencePattern != RecurrenceNone && s.RecurrenceInterval < 1 {
		violations = append(violations, "recurrence interval must be at least 1")
	}
	if !s.IncludeAllDepartments && len(s.Departments) == 0 {
		violations = append(violations, "at least one department must be specified")
	}
	if s.DurationDays < 1 {
		violations = append(violations, "duration must be at least 1 day")
	}

	return violations
}
