package activity

import (
	"time"

	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

// Suspicion heuristics, kept as named predicates so each one stays
// independently testable and the recorder's write path only composes them.
// These are diagnostic signals, not hard guarantees: the volume count is
// read-then-write with no isolation across concurrent requests.

// Thresholds carries the tunable limits for the predicate set.
type Thresholds struct {
	VolumeLimit     int // entries per actor within VolumeWindow
	VolumeWindow    time.Duration
	BulkDeleteLimit int // changed fields on a delete
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VolumeLimit:     50,
		VolumeWindow:    time.Hour,
		BulkDeleteLimit: 10,
	}
}

// VolumeExceeded flags an actor whose trailing-window entry count already
// exceeds the limit before this entry is written.
func (t Thresholds) VolumeExceeded(recentCount int) bool {
	return t.VolumeLimit > 0 && recentCount >= t.VolumeLimit
}

// BulkMutation flags a delete whose changed-field list exceeds the limit.
func (t Thresholds) BulkMutation(action string, changedFields int) bool {
	return action == models.ActionDelete && changedFields > t.BulkDeleteLimit
}

// sensitiveEntities are floored at medium risk on read.
var sensitiveEntities = map[string]bool{
	"Payroll":              true,
	"Employee":             true,
	"FinancialTransaction": true,
}

// SensitiveRead reports whether a read touches a sensitive entity; callers
// floor the entry's risk at medium when it does.
func SensitiveRead(action, entityType string) bool {
	return action == models.ActionRead && sensitiveEntities[entityType]
}

// UnusualHour flags mutations performed in the small hours (00:00-05:00
// server-local), when legitimate back-office activity is rare.
func UnusualHour(action string, at time.Time) bool {
	switch action {
	case models.ActionRead, models.ActionLogin, models.ActionLogout:
		return false
	}
	h := at.Hour()
	return h >= 0 && h < 5
}
