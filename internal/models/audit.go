package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit statuses
const (
	AuditStatusPlanned     = "planned"
	AuditStatusInProgress  = "in_progress"
	AuditStatusUnderReview = "under_review"
	AuditStatusCompleted   = "completed"
	AuditStatusCancelled   = "cancelled"
)

// Valid audit status transitions: from -> []to.
// Cancellation is reachable from every non-terminal state.
var ValidAuditTransitions = map[string][]string{
	AuditStatusPlanned:     {AuditStatusInProgress, AuditStatusCancelled},
	AuditStatusInProgress:  {AuditStatusUnderReview, AuditStatusCancelled},
	AuditStatusUnderReview: {AuditStatusCompleted, AuditStatusCancelled},
	AuditStatusCompleted:   {},
	AuditStatusCancelled:   {},
}

func IsValidAuditTransition(from, to string) bool {
	allowed, ok := ValidAuditTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Audit types
const (
	AuditTypeInternal     = "internal"
	AuditTypeDepartmental = "departmental"
	AuditTypeCompliance   = "compliance"
	AuditTypeFinancial    = "financial"
	AuditTypeAsset        = "asset"
)

var AuditTypes = []string{
	AuditTypeInternal, AuditTypeDepartmental, AuditTypeCompliance,
	AuditTypeFinancial, AuditTypeAsset,
}

func IsValidAuditType(t string) bool {
	for _, v := range AuditTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Team member roles
const (
	TeamRoleAuditor  = "auditor"
	TeamRoleReviewer = "reviewer"
	TeamRoleObserver = "observer"
)

func IsValidTeamRole(r string) bool {
	return r == TeamRoleAuditor || r == TeamRoleReviewer || r == TeamRoleObserver
}

type TeamMember struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// Objective is a free-text audit objective with its own micro-status.
type Objective struct {
	Description string `json:"description"`
	Status      string `json:"status"` // pending / in_progress / done / skipped
}

type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Audit is a bounded compliance review over a department/module.
// The five findings counters are derived from the live finding set and
// recomputed on every finding create or removal.
type Audit struct {
	ID          uuid.UUID `json:"id"`
	AuditNumber string    `json:"audit_number"` // AUD-<year>-NNNN
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AuditType   string    `json:"audit_type"`
	Module      string    `json:"module"`
	Department  string    `json:"department"`

	PlannedStartDate time.Time  `json:"planned_start_date"`
	PlannedEndDate   time.Time  `json:"planned_end_date"`
	ActualStartDate  *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate    *time.Time `json:"actual_end_date,omitempty"`

	LeadAuditor uuid.UUID    `json:"lead_auditor"`
	AuditTeam   []TeamMember `json:"audit_team,omitempty"`

	Status     string      `json:"status"`
	Progress   int         `json:"progress"` // 0..100
	Objectives []Objective `json:"objectives,omitempty"`
	RiskLevel  string      `json:"risk_level"`

	TotalFindings    int `json:"total_findings"`
	CriticalFindings int `json:"critical_findings"`
	HighFindings     int `json:"high_findings"`
	MediumFindings   int `json:"medium_findings"`
	LowFindings      int `json:"low_findings"`

	Attachments []Attachment `json:"attachments,omitempty"`

	IsActive  bool       `json:"is_active"`
	CreatedBy uuid.UUID  `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CountersConsistent checks the derived-counter invariant.
func (a *Audit) CountersConsistent() bool {
	return a.TotalFindings == a.CriticalFindings+a.HighFindings+a.MediumFindings+a.LowFindings
}
