package models

import (
	"time"

	"github.com/google/uuid"
)

// Finding statuses
const (
	FindingStatusOpen               = "open"
	FindingStatusUnderInvestigation = "under_investigation"
	FindingStatusPendingReview      = "pending_review"
	FindingStatusApproved           = "approved"
	FindingStatusClosed             = "closed"
	FindingStatusRejected           = "rejected"
)

// Valid finding status transitions: from -> []to.
// Rejection is reachable from every non-terminal state.
var ValidFindingTransitions = map[string][]string{
	FindingStatusOpen:               {FindingStatusUnderInvestigation, FindingStatusRejected},
	FindingStatusUnderInvestigation: {FindingStatusPendingReview, FindingStatusRejected},
	FindingStatusPendingReview:      {FindingStatusApproved, FindingStatusRejected},
	FindingStatusApproved:           {FindingStatusClosed, FindingStatusRejected},
	FindingStatusClosed:             {},
	FindingStatusRejected:           {},
}

func IsValidFindingTransition(from, to string) bool {
	allowed, ok := ValidFindingTransitions[from]
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

// Finding categories
const (
	FindingCategoryCompliance    = "compliance"
	FindingCategoryProcess       = "process"
	FindingCategoryFinancial     = "financial"
	FindingCategoryOperational   = "operational"
	FindingCategorySecurity      = "security"
	FindingCategoryDocumentation = "documentation"
	FindingCategoryOther         = "other"
)

var FindingCategories = []string{
	FindingCategoryCompliance, FindingCategoryProcess, FindingCategoryFinancial,
	FindingCategoryOperational, FindingCategorySecurity, FindingCategoryDocumentation,
	FindingCategoryOther,
}

func IsValidFindingCategory(c string) bool {
	for _, v := range FindingCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Finding is a specific non-conformance discovered during an audit.
type Finding struct {
	ID            uuid.UUID `json:"id"`
	FindingNumber string    `json:"finding_number"` // FND-NNNNNN
	AuditID       uuid.UUID `json:"audit_id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"` // shares the risk-level vocabulary
	Impact      string `json:"impact,omitempty"`

	Process   string `json:"process"`
	Location  string `json:"location,omitempty"`
	Evidence  string `json:"evidence"`
	Criteria  string `json:"criteria"`
	RootCause string `json:"root_cause,omitempty"`

	Status             string     `json:"status"`
	AssignedTo         *uuid.UUID `json:"assigned_to,omitempty"`
	AssignedBy         *uuid.UUID `json:"assigned_by,omitempty"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	ReviewedBy         *uuid.UUID `json:"reviewed_by,omitempty"`
	CorrectiveActionID *uuid.UUID `json:"corrective_action_id,omitempty"`

	TargetResolutionDate *time.Time `json:"target_resolution_date,omitempty"`
	ActualResolutionDate *time.Time `json:"actual_resolution_date,omitempty"`

	FinancialImpact *float64   `json:"financial_impact,omitempty"`
	FollowUpNotes   string     `json:"follow_up_notes,omitempty"`
	FollowUpDate    *time.Time `json:"follow_up_date,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`

	IsActive  bool       `json:"is_active"`
	CreatedBy uuid.UUID  `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsOverdue reports whether the finding is past its target resolution date
// without having been closed.
func (f *Finding) IsOverdue(now time.Time) bool {
	if f.Status == FindingStatusClosed || f.TargetResolutionDate == nil {
		return false
	}
	return now.After(*f.TargetResolutionDate)
}
