package models

import "testing"

func TestMaxRisk(t *testing.T) {
	tests := []struct {
		a, b     string
		expected string
	}{
		{RiskLow, RiskHigh, RiskHigh},
		{RiskHigh, RiskLow, RiskHigh},
		{RiskMedium, RiskMedium, RiskMedium},
		{RiskCritical, RiskHigh, RiskCritical},
		{RiskLow, RiskCritical, RiskCritical},
		{"unknown", RiskMedium, RiskMedium},
		{RiskLow, "unknown", RiskLow},
	}

	for _, tt := range tests {
		if got := MaxRisk(tt.a, tt.b); got != tt.expected {
			t.Errorf("MaxRisk(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.expected)
		}
	}
}
