package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Corrective action statuses
const (
	CARStatusOpen        = "open"
	CARStatusInProgress  = "in_progress"
	CARStatusUnderReview = "under_review"
	CARStatusCompleted   = "completed"
	CARStatusVerified    = "verified"
	CARStatusClosed      = "closed"

	// Derived, never stored: reported by EffectiveStatus when the action is
	// non-terminal and past its target completion date.
	CARStatusOverdue = "overdue"
)

// Valid corrective action status transitions: from -> []to.
var ValidCARTransitions = map[string][]string{
	CARStatusOpen:        {CARStatusInProgress},
	CARStatusInProgress:  {CARStatusUnderReview, CARStatusCompleted},
	CARStatusUnderReview: {CARStatusCompleted, CARStatusInProgress},
	CARStatusCompleted:   {CARStatusVerified},
	CARStatusVerified:    {CARStatusClosed},
	CARStatusClosed:      {},
}

func IsValidCARTransition(from, to string) bool {
	allowed, ok := ValidCARTransitions[from]
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

// Action types
const (
	CARTypeCorrective  = "corrective"
	CARTypePreventive  = "preventive"
	CARTypeImprovement = "improvement"
)

func IsValidCARType(t string) bool {
	return t == CARTypeCorrective || t == CARTypePreventive || t == CARTypeImprovement
}

// Verification outcomes
const (
	VerificationPending        = "pending"
	VerificationVerified       = "verified"
	VerificationNotVerified    = "not_verified"
	VerificationRequiresRework = "requires_rework"
)

type Milestone struct {
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Verification struct {
	Method     string     `json:"method,omitempty"`
	Required   bool       `json:"required"`
	VerifiedBy *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Outcome    string     `json:"outcome"` // pending / verified / not_verified / requires_rework
	Notes      string     `json:"notes,omitempty"`
}

type EffectivenessReview struct {
	Scheduled  bool       `json:"scheduled"`
	ReviewDate *time.Time `json:"review_date,omitempty"`
	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty"`
	Effective  *bool      `json:"effective,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Comment is one append-only entry in a corrective action's thread.
type Comment struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CorrectiveAction (CAR) tracks how a finding is remediated and verified.
type CorrectiveAction struct {
	ID        uuid.UUID `json:"id"`
	CARNumber string    `json:"car_number"` // CAR-<year>-NNNN
	FindingID uuid.UUID `json:"finding_id"`
	AuditID   uuid.UUID `json:"audit_id"`

	ActionType string `json:"action_type"`
	Priority   string `json:"priority"` // shares the risk-level vocabulary
	ActionPlan string `json:"action_plan"`

	ResponsiblePerson uuid.UUID `json:"responsible_person"`
	AssignedBy        uuid.UUID `json:"assigned_by"`

	TargetCompletionDate time.Time  `json:"target_completion_date"`
	ActualCompletionDate *time.Time `json:"actual_completion_date,omitempty"`

	Status     string      `json:"status"`
	Progress   int         `json:"progress"` // 0..100
	Milestones []Milestone `json:"milestones,omitempty"`

	Verification        Verification         `json:"verification"`
	EffectivenessReview *EffectivenessReview `json:"effectiveness_review,omitempty"`

	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	ActualCost    *float64 `json:"actual_cost,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	IsActive  bool       `json:"is_active"`
	CreatedBy uuid.UUID  `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EffectiveStatus is the status a reader should act on: the stored status,
// superseded by "overdue" when the action is non-terminal and past its
// target date. The stored value is never mutated, so the transition history
// stays auditable.
func (c *CorrectiveAction) EffectiveStatus(now time.Time) string {
	switch c.Status {
	case CARStatusVerified, CARStatusClosed:
		return c.Status
	}
	if now.After(c.TargetCompletionDate) {
		return CARStatusOverdue
	}
	return c.Status
}

// CompletionRate derives percent-complete from the milestone set when one
// exists, else falls back to the raw progress percentage.
func (c *CorrectiveAction) CompletionRate() int {
	if len(c.Milestones) == 0 {
		return c.Progress
	}
	done := 0
	for _, m := range c.Milestones {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(c.Milestones)) * 100))
}

// ReadyToComplete reports whether the save path should advance the action
// to completed: full progress with a verified outcome.
func (c *CorrectiveAction) ReadyToComplete() bool {
	return c.Status != CARStatusVerified && c.Status != CARStatusClosed &&
		c.Status != CARStatusCompleted &&
		c.Progress >= 100 && c.Verification.Outcome == VerificationVerified
}
