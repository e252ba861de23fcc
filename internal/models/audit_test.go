package models

import "testing"

func TestIsValidAuditTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{AuditStatusPlanned, AuditStatusInProgress, true},
		{AuditStatusInProgress, AuditStatusUnderReview, true},
		{AuditStatusUnderReview, AuditStatusCompleted, true},

		// Cancellation paths
		{AuditStatusPlanned, AuditStatusCancelled, true},
		{AuditStatusInProgress, AuditStatusCancelled, true},
		{AuditStatusUnderReview, AuditStatusCancelled, true},

		// Invalid transitions
		{AuditStatusPlanned, AuditStatusUnderReview, false},
		{AuditStatusPlanned, AuditStatusCompleted, false},
		{AuditStatusInProgress, AuditStatusCompleted, false},
		{AuditStatusUnderReview, AuditStatusPlanned, false},
		{AuditStatusCompleted, AuditStatusCancelled, false},
		{AuditStatusCancelled, AuditStatusPlanned, false},
		{AuditStatusCompleted, AuditStatusInProgress, false},
		{"nonexistent", AuditStatusInProgress, false},
		{AuditStatusPlanned, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidAuditTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidAuditTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAuditStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		AuditStatusPlanned, AuditStatusInProgress, AuditStatusUnderReview,
		AuditStatusCompleted, AuditStatusCancelled,
	}

	for _, status := range allStatuses {
		if _, ok := ValidAuditTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidAuditTransitions map", status)
		}
	}
}

func TestTerminalAuditStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{AuditStatusCompleted, AuditStatusCancelled}
	for _, status := range terminal {
		transitions := ValidAuditTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestIsValidAuditType(t *testing.T) {
	for _, v := range AuditTypes {
		if !IsValidAuditType(v) {
			t.Errorf("IsValidAuditType(%q) = false, want true", v)
		}
	}
	if IsValidAuditType("external") {
		t.Error("IsValidAuditType(\"external\") = true, want false")
	}
	if IsValidAuditType("") {
		t.Error("IsValidAuditType(\"\") = true, want false")
	}
}

func TestCountersConsistent(t *testing.T) {
	audit := &Audit{
		TotalFindings:    6,
		CriticalFindings: 1,
		HighFindings:     2,
		MediumFindings:   2,
		LowFindings:      1,
	}
	if !audit.CountersConsistent() {
		t.Error("CountersConsistent() = false for matching counters")
	}

	audit.TotalFindings = 7
	if audit.CountersConsistent() {
		t.Error("CountersConsistent() = true for mismatched counters")
	}
}
