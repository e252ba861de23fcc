package rbac

// Role constants
const (
	RoleSuperAdmin    = "super_admin"
	RoleAuditManager  = "audit_manager"
	RoleAuditDirector = "audit_director"
	RoleAuditor       = "auditor"
)

// Permission constants
const (
	PermViewAudits      = "view_audits"
	PermManageAudits    = "manage_audits"
	PermDeleteAudits    = "delete_audits"
	PermManageFindings  = "manage_findings"
	PermAssignFindings  = "assign_findings"
	PermManageCARs      = "manage_cars"
	PermManageSchedules = "manage_schedules"
	PermViewTrail       = "view_trail"
	PermExportTrail     = "export_trail"
	PermViewReports     = "view_reports"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleSuperAdmin: {
		PermViewAudits, PermManageAudits, PermDeleteAudits,
		PermManageFindings, PermAssignFindings, PermManageCARs,
		PermManageSchedules, PermViewTrail, PermExportTrail, PermViewReports,
	},
	RoleAuditManager: {
		PermViewAudits, PermManageAudits, PermDeleteAudits,
		PermManageFindings, PermAssignFindings, PermManageCARs,
		PermManageSchedules, PermViewTrail, PermExportTrail, PermViewReports,
	},
	RoleAuditDirector: {
		PermViewAudits, PermManageAudits,
		PermManageSchedules, PermViewReports,
	},
	RoleAuditor: {
		PermViewAudits, PermManageFindings, PermManageCARs, PermViewReports,
		// Auditor CANNOT: delete audits, assign findings, view/export the raw trail
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
