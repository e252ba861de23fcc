package models

import (
	"time"

	"github.com/google/uuid"
)

// Trail actions
const (
	ActionCreate  = "create"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionLogin   = "login"
	ActionLogout  = "logout"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionExport  = "export"
	ActionImport  = "import"
)

// Risk levels, shared by trail entries, audits and findings.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// riskRank orders risk levels so classification can only escalate.
var riskRank = map[string]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// MaxRisk returns the higher of two risk levels. Unknown values rank lowest.
func MaxRisk(a, b string) string {
	if riskRank[b] > riskRank[a] {
		return b
	}
	return a
}

// Trail entry statuses
const (
	TrailStatusSuccess = "success"
	TrailStatusFailed  = "failed"
	TrailStatusPending = "pending"
)

// Trail categories
const (
	CategoryDataAccess    = "data_access"
	CategoryDataChange    = "data_modification"
	CategorySystemAccess  = "system_access"
	CategoryConfigChange  = "configuration_change"
	CategorySecurityEvent = "security_event"
	CategoryBusiness      = "business_process"
)

// FieldDelta records one changed field on an update.
type FieldDelta struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// AuditContext links a trail entry to the compliance workflow it happened in.
type AuditContext struct {
	AuditID            *uuid.UUID `json:"audit_id,omitempty"`
	FindingID          *uuid.UUID `json:"finding_id,omitempty"`
	CorrectiveActionID *uuid.UUID `json:"corrective_action_id,omitempty"`
}

// TrailEntry is one immutable record of an observed system activity.
// Written once on response completion, never updated or deleted.
type TrailEntry struct {
	ID     uuid.UUID `json:"id"`
	Action string    `json:"action"`
	Module string    `json:"module"`

	// Actor snapshot, denormalized at write time
	UserID         uuid.UUID `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	UserRole       string    `json:"user_role"`
	UserDepartment string    `json:"user_department,omitempty"`

	EntityType string  `json:"entity_type"`
	EntityID   *string `json:"entity_id,omitempty"`
	EntityName string  `json:"entity_name,omitempty"`

	Description   string         `json:"description"`
	Details       map[string]any `json:"details,omitempty"`
	OldValues     map[string]any `json:"old_values,omitempty"`
	NewValues     map[string]any `json:"new_values,omitempty"`
	ChangedFields []FieldDelta   `json:"changed_fields,omitempty"`

	// Request context
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	RequestMethod string         `json:"request_method,omitempty"`
	RequestURL    string         `json:"request_url,omitempty"`
	RequestQuery  map[string]any `json:"request_query,omitempty"`
	RequestBody   map[string]any `json:"request_body,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`

	RiskLevel    string        `json:"risk_level"`
	Status       string        `json:"status"`
	IsSuspicious bool          `json:"is_suspicious"`
	Category     string        `json:"category"`
	Tags         []string      `json:"tags,omitempty"`
	AuditContext *AuditContext `json:"audit_context,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
