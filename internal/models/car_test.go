package models

import (
	"testing"
	"time"
)

func TestIsValidCARTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{CARStatusOpen, CARStatusInProgress, true},
		{CARStatusInProgress, CARStatusUnderReview, true},
		{CARStatusInProgress, CARStatusCompleted, true},
		{CARStatusUnderReview, CARStatusCompleted, true},
		{CARStatusUnderReview, CARStatusInProgress, true},
		{CARStatusCompleted, CARStatusVerified, true},
		{CARStatusVerified, CARStatusClosed, true},

		// Invalid transitions
		{CARStatusOpen, CARStatusCompleted, false},
		{CARStatusOpen, CARStatusVerified, false},
		{CARStatusInProgress, CARStatusVerified, false},
		{CARStatusCompleted, CARStatusClosed, false},
		{CARStatusCompleted, CARStatusInProgress, false},
		{CARStatusVerified, CARStatusCompleted, false},
		{CARStatusClosed, CARStatusOpen, false},

		// Overdue is derived, never a stored state
		{CARStatusOpen, CARStatusOverdue, false},
		{CARStatusOverdue, CARStatusInProgress, false},

		{"nonexistent", CARStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidCARTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidCARTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestCAREffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -7)
	future := now.AddDate(0, 0, 7)

	tests := []struct {
		name     string
		car      CorrectiveAction
		expected string
	}{
		{"open before target", CorrectiveAction{Status: CARStatusOpen, TargetCompletionDate: future}, CARStatusOpen},
		{"open past target", CorrectiveAction{Status: CARStatusOpen, TargetCompletionDate: past}, CARStatusOverdue},
		{"in progress past target", CorrectiveAction{Status: CARStatusInProgress, TargetCompletionDate: past}, CARStatusOverdue},
		{"completed past target", CorrectiveAction{Status: CARStatusCompleted, TargetCompletionDate: past}, CARStatusOverdue},
		{"verified past target", CorrectiveAction{Status: CARStatusVerified, TargetCompletionDate: past}, CARStatusVerified},
		{"closed past target", CorrectiveAction{Status: CARStatusClosed, TargetCompletionDate: past}, CARStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.car.EffectiveStatus(now); got != tt.expected {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCARCompletionRate(t *testing.T) {
	tests := []struct {
		name     string
		car      CorrectiveAction
		expected int
	}{
		{"no milestones falls back to progress", CorrectiveAction{Progress: 40}, 40},
		{"all milestones done", CorrectiveAction{Milestones: []Milestone{{Completed: true}, {Completed: true}}}, 100},
		{"none done", CorrectiveAction{Milestones: []Milestone{{}, {}}}, 0},
		{"one of three", CorrectiveAction{Milestones: []Milestone{{Completed: true}, {}, {}}}, 33},
		{"two of three", CorrectiveAction{Milestones: []Milestone{{Completed: true}, {Completed: true}, {}}}, 67},
		{"milestones override progress", CorrectiveAction{Progress: 90, Milestones: []Milestone{{}}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.car.CompletionRate(); got != tt.expected {
				t.Errorf("CompletionRate() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCARReadyToComplete(t *testing.T) {
	tests := []struct {
		name     string
		car      CorrectiveAction
		expected bool
	}{
		{
			"full progress, verified outcome",
			CorrectiveAction{Status: CARStatusInProgress, Progress: 100, Verification: Verification{Outcome: VerificationVerified}},
			true,
		},
		{
			"full progress, pending outcome",
			CorrectiveAction{Status: CARStatusInProgress, Progress: 100, Verification: Verification{Outcome: VerificationPending}},
			false,
		},
		{
			"partial progress",
			CorrectiveAction{Status: CARStatusInProgress, Progress: 80, Verification: Verification{Outcome: VerificationVerified}},
			false,
		},
		{
			"already completed",
			CorrectiveAction{Status: CARStatusCompleted, Progress: 100, Verification: Verification{Outcome: VerificationVerified}},
			false,
		},
		{
			"already verified",
			CorrectiveAction{Status: CARStatusVerified, Progress: 100, Verification: Verification{Outcome: VerificationVerified}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.car.ReadyToComplete(); got != tt.expected {
				t.Errorf("ReadyToComplete() = %v, want %v", got, tt.expected)
			}
		})
	}
}
