package activity

import (
	"testing"

	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{"POST", "/api/v1/hr/employees", models.ActionCreate},
		{"PUT", "/api/v1/hr/employees/1", models.ActionUpdate},
		{"PATCH", "/api/v1/hr/employees/1", models.ActionUpdate},
		{"DELETE", "/api/v1/hr/employees/1", models.ActionDelete},
		{"GET", "/api/v1/hr/employees", models.ActionRead},

		// Path keywords win over the method
		{"POST", "/api/v1/auth/login", models.ActionLogin},
		{"POST", "/api/v1/auth/logout", models.ActionLogout},
		{"POST", "/api/v1/finance/invoices/1/approve", models.ActionApprove},
		{"POST", "/api/v1/finance/invoices/1/reject", models.ActionReject},
		{"GET", "/api/v1/hr/payrolls/export", models.ActionExport},
		{"POST", "/api/v1/hr/employees/import", models.ActionImport},

		// Unknown method defaults to read
		{"OPTIONS", "/api/v1/hr/employees", models.ActionRead},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := ActionFor(tt.method, tt.path); got != tt.expected {
				t.Errorf("ActionFor(%q, %q) = %q, want %q", tt.method, tt.path, got, tt.expected)
			}
		})
	}
}

func TestModuleFor(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/v1/hr/employees", "hr"},
		{"/api/v1/finance/transactions", "finance"},
		{"/api/v1/audits/123", "audit"},
		{"/api/v1/findings", "audit"},
		{"/api/v1/corrective-actions", "audit"},
		{"/api/v1/schedules", "audit"},
		{"/api/v1/reports/summary", "audit"},
		{"/hr/employees", "hr"},
		{"/api/v1/unknown/things", ModuleGeneral},
		{"/", ModuleGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ModuleFor(tt.path); got != tt.expected {
				t.Errorf("ModuleFor(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestEntityFor(t *testing.T) {
	tests := []struct {
		path       string
		entityType string
		entityID   string // "" means nil expected
	}{
		{"/api/v1/hr/employees", "Employee", ""},
		{"/api/v1/hr/employees/507f1f77bcf86cd799439011", "Employee", "507f1f77bcf86cd799439011"},
		{"/api/v1/audits/0b9fca1a-95b1-4f92-8d7e-9a4c2f1e6b3d", "Audit", "0b9fca1a-95b1-4f92-8d7e-9a4c2f1e6b3d"},
		{"/api/v1/findings/507f1f77bcf86cd799439011", "AuditFinding", "507f1f77bcf86cd799439011"},
		{"/api/v1/finance/transactions", "FinancialTransaction", ""},
		{"/api/v1/hr/payrolls", "Payroll", ""},
		{"/api/v1/widgets", "Widgets", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gotType, gotID := EntityFor(tt.path)
			if gotType != tt.entityType {
				t.Errorf("EntityFor(%q) type = %q, want %q", tt.path, gotType, tt.entityType)
			}
			if tt.entityID == "" && gotID != nil {
				t.Errorf("EntityFor(%q) id = %q, want nil", tt.path, *gotID)
			}
			if tt.entityID != "" && (gotID == nil || *gotID != tt.entityID) {
				t.Errorf("EntityFor(%q) id = %v, want %q", tt.path, gotID, tt.entityID)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		seg      string
		expected bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"0b9fca1a-95b1-4f92-8d7e-9a4c2f1e6b3d", true},
		{"employees", false},
		{"507f1f77bcf86cd79943901", false},  // 23 chars
		{"507f1f77bcf86cd79943901z", false}, // non-hex
		{"0b9fca1a-95b1-4f92-8d7e9a4c2f1e6b3d", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.seg, func(t *testing.T) {
			if got := IsIdentifier(tt.seg); got != tt.expected {
				t.Errorf("IsIdentifier(%q) = %v, want %v", tt.seg, got, tt.expected)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/api/v1/trail", true},
		{"/api/v1/trail/statistics", true},
		{"/health", true},
		{"/ping", true},
		{"/ws", true},
		{"/api/v1/audits", false},
		{"/api/v1/hr/employees", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ShouldSkip(tt.path); got != tt.expected {
				t.Errorf("ShouldSkip(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestBaselineRisk(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		module     string
		entityType string
		expected   string
	}{
		{"read is low", models.ActionRead, "hr", "Employee", models.RiskLow},
		{"login is low", models.ActionLogin, "auth", "User", models.RiskLow},
		{"delete is high", models.ActionDelete, "general", "Project", models.RiskHigh},
		{"create in finance is high", models.ActionCreate, "finance", "Invoice", models.RiskHigh},
		{"create in hr is high", models.ActionCreate, "hr", "Employee", models.RiskHigh},
		{"create elsewhere is medium", models.ActionCreate, "sales", "Lead", models.RiskMedium},
		{"user update is high", models.ActionUpdate, "admin", "User", models.RiskHigh},
		{"other update is medium", models.ActionUpdate, "sales", "Lead", models.RiskMedium},
		{"approve is medium", models.ActionApprove, "finance", "Invoice", models.RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaselineRisk(tt.action, tt.module, tt.entityType); got != tt.expected {
				t.Errorf("BaselineRisk(%q, %q, %q) = %q, want %q", tt.action, tt.module, tt.entityType, got, tt.expected)
			}
		})
	}
}

func TestResponseRisk(t *testing.T) {
	tests := []struct {
		baseline string
		status   int
		expected string
	}{
		{models.RiskLow, 200, models.RiskLow},
		{models.RiskMedium, 201, models.RiskMedium},
		{models.RiskLow, 404, models.RiskHigh},
		{models.RiskCritical, 403, models.RiskCritical},
		{models.RiskLow, 500, models.RiskCritical},
		{models.RiskHigh, 503, models.RiskCritical},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			if got := ResponseRisk(tt.baseline, tt.status); got != tt.expected {
				t.Errorf("ResponseRisk(%q, %d) = %q, want %q", tt.baseline, tt.status, got, tt.expected)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		entityType string
		entityName string
		path       string
		hasQuery   bool
		expected   string
	}{
		{"create", models.ActionCreate, "Employee", "", "/api/v1/hr/employees", false, "Created new employee"},
		{"read", models.ActionRead, "Audit", "", "/api/v1/audits/1", false, "Viewed audit information"},
		{"login", models.ActionLogin, "User", "", "/api/v1/auth/login", false, "User logged into the system"},
		{"search", models.ActionRead, "Employee", "", "/api/v1/hr/employees/search", false, "Searched for employee records"},
		{"report", models.ActionRead, "Audit", "", "/api/v1/reports/audits/1", false, "Generated audit report"},
		{"filtered read", models.ActionRead, "Audit", "", "/api/v1/audits", true, "Filtered audit records"},
		{"with entity name", models.ActionUpdate, "Audit", "AUD-2025-0001", "/api/v1/audits/1", false, "Updated audit details: AUD-2025-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.action, tt.entityType, tt.entityName, tt.path, tt.hasQuery)
			if got != tt.expected {
				t.Errorf("Describe() = %q, want %q", got, tt.expected)
			}
		})
	}
}
