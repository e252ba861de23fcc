package dto

import (
	"time"

	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

// Audits

type CreateAuditRequest struct {
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	AuditType        string              `json:"audit_type"` // internal / departmental / compliance / financial / asset
	Module           string              `json:"module,omitempty"`
	Department       string              `json:"department,omitempty"`
	PlannedStartDate time.Time           `json:"planned_start_date"`
	PlannedEndDate   time.Time           `json:"planned_end_date"`
	LeadAuditor      string              `json:"lead_auditor"`
	AuditTeam        []models.TeamMember `json:"audit_team,omitempty"`
	Objectives       []models.Objective  `json:"objectives,omitempty"`
	RiskLevel        string              `json:"risk_level,omitempty"`
}

type UpdateAuditRequest struct {
	Title            *string             `json:"title,omitempty"`
	Description      *string             `json:"description,omitempty"`
	Module           *string             `json:"module,omitempty"`
	Department       *string             `json:"department,omitempty"`
	PlannedStartDate *time.Time          `json:"planned_start_date,omitempty"`
	PlannedEndDate   *time.Time          `json:"planned_end_date,omitempty"`
	LeadAuditor      *string             `json:"lead_auditor,omitempty"`
	AuditTeam        []models.TeamMember `json:"audit_team,omitempty"`
	Progress         *int                `json:"progress,omitempty"`
	Objectives       []models.Objective  `json:"objectives,omitempty"`
	RiskLevel        *string             `json:"risk_level,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// Findings

type CreateFindingRequest struct {
	AuditID              string     `json:"audit_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Category             string     `json:"category"`
	Severity             string     `json:"severity"` // low / medium / high / critical
	Impact               string     `json:"impact,omitempty"`
	Process              string     `json:"process,omitempty"`
	Location             string     `json:"location,omitempty"`
	Evidence             string     `json:"evidence,omitempty"`
	Criteria             string     `json:"criteria,omitempty"`
	RootCause            string     `json:"root_cause,omitempty"`
	TargetResolutionDate *time.Time `json:"target_resolution_date,omitempty"`
	FinancialImpact      *float64   `json:"financial_impact,omitempty"`
}

type UpdateFindingRequest struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Category             *string    `json:"category,omitempty"`
	Severity             *string    `json:"severity,omitempty"`
	Impact               *string    `json:"impact,omitempty"`
	Process              *string    `json:"process,omitempty"`
	Location             *string    `json:"location,omitempty"`
	Evidence             *string    `json:"evidence,omitempty"`
	Criteria             *string    `json:"criteria,omitempty"`
	RootCause            *string    `json:"root_cause,omitempty"`
	TargetResolutionDate *time.Time `json:"target_resolution_date,omitempty"`
	FinancialImpact      *float64   `json:"financial_impact,omitempty"`
	FollowUpNotes        *string    `json:"follow_up_notes,omitempty"`
	FollowUpDate         *time.Time `json:"follow_up_date,omitempty"`
}

type AssignFindingRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// Corrective actions

type CreateCARRequest struct {
	FindingID            string             `json:"finding_id"`
	ActionType           string             `json:"action_type"` // corrective / preventive / improvement
	Priority             string             `json:"priority,omitempty"`
	ActionPlan           string             `json:"action_plan"`
	ResponsiblePerson    string             `json:"responsible_person"`
	TargetCompletionDate time.Time          `json:"target_completion_date"`
	Milestones           []models.Milestone `json:"milestones,omitempty"`
	EstimatedCost        *float64           `json:"estimated_cost,omitempty"`
}

type UpdateCARRequest struct {
	ActionType           *string            `json:"action_type,omitempty"`
	Priority             *string            `json:"priority,omitempty"`
	ActionPlan           *string            `json:"action_plan,omitempty"`
	ResponsiblePerson    *string            `json:"responsible_person,omitempty"`
	TargetCompletionDate *time.Time         `json:"target_completion_date,omitempty"`
	Progress             *int               `json:"progress,omitempty"`
	Milestones           []models.Milestone `json:"milestones,omitempty"`
	EstimatedCost        *float64           `json:"estimated_cost,omitempty"`
	ActualCost           *float64           `json:"actual_cost,omitempty"`
}

type VerifyCARRequest struct {
	Outcome string `json:"outcome"` // verified / not_verified / requires_rework
	Notes   string `json:"notes,omitempty"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

// Schedules

type ScheduleRequest struct {
	Name                  string                   `json:"name"`
	Description           string                   `json:"description,omitempty"`
	ScheduleType          string                   `json:"schedule_type"` // annual / quarterly / monthly / weekly / ad_hoc
	Frequency             int                      `json:"frequency,omitempty"`
	AuditType             string                   `json:"audit_type"`
	Module                string                   `json:"module,omitempty"`
	Departments           []string                 `json:"departments,omitempty"`
	IncludeAllDepartments bool                     `json:"include_all_departments,omitempty"`
	StartDate             time.Time                `json:"start_date"`
	EndDate               *time.Time               `json:"end_date,omitempty"`
	DurationDays          int                      `json:"duration_days,omitempty"`
	RecurrencePattern     string                   `json:"recurrence_pattern"`
	RecurrenceInterval    int                      `json:"recurrence_interval,omitempty"`
	DefaultLeadAuditor    *string                  `json:"default_lead_auditor,omitempty"`
	DefaultAuditTeam      []models.TeamMember      `json:"default_audit_team,omitempty"`
	DefaultChecklist      []string                 `json:"default_checklist,omitempty"`
	Notifications         models.NotificationPrefs `json:"notifications,omitempty"`
}

// Trail

type AuthEventRequest struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Action     string `json:"action"` // login / logout
	Success    bool   `json:"success"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}
