package models

import (
	"testing"
	"time"
)

func TestIsValidFindingTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{FindingStatusOpen, FindingStatusUnderInvestigation, true},
		{FindingStatusUnderInvestigation, FindingStatusPendingReview, true},
		{FindingStatusPendingReview, FindingStatusApproved, true},
		{FindingStatusApproved, FindingStatusClosed, true},

		// Rejection paths
		{FindingStatusOpen, FindingStatusRejected, true},
		{FindingStatusUnderInvestigation, FindingStatusRejected, true},
		{FindingStatusPendingReview, FindingStatusRejected, true},
		{FindingStatusApproved, FindingStatusRejected, true},

		// Invalid transitions
		{FindingStatusOpen, FindingStatusPendingReview, false},
		{FindingStatusOpen, FindingStatusApproved, false},
		{FindingStatusOpen, FindingStatusClosed, false},
		{FindingStatusUnderInvestigation, FindingStatusApproved, false},
		{FindingStatusPendingReview, FindingStatusClosed, false},
		{FindingStatusApproved, FindingStatusOpen, false},
		{FindingStatusClosed, FindingStatusOpen, false},
		{FindingStatusRejected, FindingStatusOpen, false},
		{FindingStatusClosed, FindingStatusRejected, false},
		{"nonexistent", FindingStatusOpen, false},
		{FindingStatusOpen, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidFindingTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidFindingTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalFindingStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{FindingStatusClosed, FindingStatusRejected}
	for _, status := range terminal {
		transitions := ValidFindingTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestIsValidFindingCategory(t *testing.T) {
	for _, c := range FindingCategories {
		if !IsValidFindingCategory(c) {
			t.Errorf("IsValidFindingCategory(%q) = false, want true", c)
		}
	}
	if IsValidFindingCategory("technical") {
		t.Error("IsValidFindingCategory(\"technical\") = true, want false")
	}
}

func TestFindingIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		finding  Finding
		expected bool
	}{
		{"past target, open", Finding{Status: FindingStatusOpen, TargetResolutionDate: &past}, true},
		{"past target, approved", Finding{Status: FindingStatusApproved, TargetResolutionDate: &past}, true},
		{"past target, closed", Finding{Status: FindingStatusClosed, TargetResolutionDate: &past}, false},
		{"future target, open", Finding{Status: FindingStatusOpen, TargetResolutionDate: &future}, false},
		{"no target date", Finding{Status: FindingStatusOpen}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.finding.IsOverdue(now); got != tt.expected {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.expected)
			}
		})
	}
}
