package activity

import (
	"testing"
	"time"

	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

func TestVolumeExceeded(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		count    int
		expected bool
	}{
		{0, false},
		{49, false},
		{50, true},
		{200, true},
	}

	for _, tt := range tests {
		if got := th.VolumeExceeded(tt.count); got != tt.expected {
			t.Errorf("VolumeExceeded(%d) = %v, want %v", tt.count, got, tt.expected)
		}
	}

	disabled := Thresholds{VolumeLimit: 0}
	if disabled.VolumeExceeded(1000) {
		t.Error("VolumeExceeded should never fire with a zero limit")
	}
}

func TestBulkMutation(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		action   string
		fields   int
		expected bool
	}{
		{"delete over limit", models.ActionDelete, 11, true},
		{"delete at limit", models.ActionDelete, 10, false},
		{"delete under limit", models.ActionDelete, 3, false},
		{"update over limit", models.ActionUpdate, 50, false},
		{"create over limit", models.ActionCreate, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.BulkMutation(tt.action, tt.fields); got != tt.expected {
				t.Errorf("BulkMutation(%q, %d) = %v, want %v", tt.action, tt.fields, got, tt.expected)
			}
		})
	}
}

func TestSensitiveRead(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		entityType string
		expected   bool
	}{
		{"payroll read", models.ActionRead, "Payroll", true},
		{"employee read", models.ActionRead, "Employee", true},
		{"transaction read", models.ActionRead, "FinancialTransaction", true},
		{"payroll update", models.ActionUpdate, "Payroll", false},
		{"project read", models.ActionRead, "Project", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SensitiveRead(tt.action, tt.entityType); got != tt.expected {
				t.Errorf("SensitiveRead(%q, %q) = %v, want %v", tt.action, tt.entityType, got, tt.expected)
			}
		})
	}
}

func TestUnusualHour(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 15, hour, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		action   string
		hour     int
		expected bool
	}{
		{"delete at 2am", models.ActionDelete, 2, true},
		{"update at midnight", models.ActionUpdate, 0, true},
		{"create at 4am", models.ActionCreate, 4, true},
		{"update at 5am", models.ActionUpdate, 5, false},
		{"delete at noon", models.ActionDelete, 12, false},
		{"delete at 11pm", models.ActionDelete, 23, false},
		{"read at 2am", models.ActionRead, 2, false},
		{"login at 3am", models.ActionLogin, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnusualHour(tt.action, at(tt.hour)); got != tt.expected {
				t.Errorf("UnusualHour(%q, %02d:30) = %v, want %v", tt.action, tt.hour, got, tt.expected)
			}
		})
	}
}
