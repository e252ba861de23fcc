package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		expected   bool
	}{
		{RoleSuperAdmin, PermDeleteAudits, true},
		{RoleSuperAdmin, PermExportTrail, true},
		{RoleAuditManager, PermManageSchedules, true},
		{RoleAuditManager, PermViewTrail, true},
		{RoleAuditDirector, PermViewReports, true},
		{RoleAuditDirector, PermManageFindings, false},
		{RoleAuditDirector, PermViewTrail, false},
		{RoleAuditor, PermManageFindings, true},
		{RoleAuditor, PermManageCARs, true},
		{RoleAuditor, PermDeleteAudits, false},
		{RoleAuditor, PermAssignFindings, false},
		{RoleAuditor, PermViewTrail, false},
		{RoleAuditor, PermExportTrail, false},
		{"unknown_role", PermViewAudits, false},
		{"", PermViewAudits, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.permission); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.expected)
			}
		})
	}
}
