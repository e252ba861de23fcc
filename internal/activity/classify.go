package activity

import (
	"fmt"
	"strings"

	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

// Modules recognized from the first path segment under /api.
const ModuleGeneral = "general"

var moduleVocabulary = map[string]string{
	"hr":                 "hr",
	"finance":            "finance",
	"procurement":        "procurement",
	"admin":              "admin",
	"sales":              "sales",
	"crm":                "crm",
	"auth":               "auth",
	"audit":              "audit",
	"audits":             "audit",
	"findings":           "audit",
	"corrective-actions": "audit",
	"schedules":          "audit",
	"trail":              "audit",
	"reports":            "audit",
}

// actionKeywords take precedence over the HTTP-method mapping.
var actionKeywords = []struct {
	keyword string
	action  string
}{
	{"/login", models.ActionLogin},
	{"/logout", models.ActionLogout},
	{"/approve", models.ActionApprove},
	{"/reject", models.ActionReject},
	{"/export", models.ActionExport},
	{"/import", models.ActionImport},
}

var methodActions = map[string]string{
	"POST":   models.ActionCreate,
	"PUT":    models.ActionUpdate,
	"PATCH":  models.ActionUpdate,
	"DELETE": models.ActionDelete,
	"GET":    models.ActionRead,
}

// entitySynonyms maps path resource segments to entity type names.
var entitySynonyms = map[string]string{
	"employees": "Employee", "employee": "Employee",
	"payrolls": "Payroll", "payroll": "Payroll",
	"departments": "Department", "department": "Department",
	"positions": "Position", "position": "Position",
	"companies": "Company", "company": "Company",
	"projects": "Project", "project": "Project",
	"users": "User", "user": "User",
	"audits": "Audit", "audit": "Audit",
	"findings": "AuditFinding", "finding": "AuditFinding",
	"corrective-actions": "CorrectiveAction", "actions": "CorrectiveAction", "action": "CorrectiveAction",
	"trail":     "AuditTrail",
	"schedules": "AuditSchedule", "schedule": "AuditSchedule",
	"reports": "Report", "report": "Report",
	"transactions": "FinancialTransaction", "transaction": "FinancialTransaction",
	"invoices": "Invoice", "invoice": "Invoice",
	"budgets": "Budget", "budget": "Budget",
	"orders": "PurchaseOrder", "order": "PurchaseOrder",
	"suppliers": "Supplier", "supplier": "Supplier",
	"leads": "Lead", "lead": "Lead",
	"opportunities": "Opportunity", "opportunity": "Opportunity",
	"customers": "Customer", "customer": "Customer",
	"contacts": "Contact", "contact": "Contact",
}

// SkipPaths are never recorded: health checks, the trail viewer itself,
// realtime transport handshakes.
var SkipPaths = []string{
	"/api/v1/trail",
	"/health",
	"/ping",
	"/ws",
}

func ShouldSkip(path string) bool {
	for _, p := range SkipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ActionFor derives the trail action: path keywords first, then the HTTP
// method mapping, defaulting to read.
func ActionFor(method, path string) string {
	for _, kw := range actionKeywords {
		if strings.Contains(path, kw.keyword) {
			return kw.action
		}
	}
	if a, ok := methodActions[method]; ok {
		return a
	}
	return models.ActionRead
}

// ModuleFor matches path segments against the module vocabulary, defaulting
// to "general". The whole path is scanned so both /api/v1/hr/employees and
// /hr/employees resolve the same way.
func ModuleFor(path string) string {
	for _, seg := range splitPath(path) {
		if m, ok := moduleVocabulary[seg]; ok {
			return m
		}
	}
	return ModuleGeneral
}

// EntityFor extracts the entity type from the second-to-last path segment
// via the synonym table, and captures the last segment as the entity id
// when it has an identifier shape (24-hex document id or UUID).
func EntityFor(path string) (entityType string, entityID *string) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "Unknown", nil
	}

	last := parts[len(parts)-1]
	resource := last
	if IsIdentifier(last) {
		id := last
		entityID = &id
		if len(parts) >= 2 {
			resource = parts[len(parts)-2]
		}
	} else if len(parts) >= 2 {
		// Prefer the second-to-last segment when the last one is an action
		// suffix like /status or /assign.
		if _, ok := entitySynonyms[parts[len(parts)-2]]; ok && !isResource(last) {
			resource = parts[len(parts)-2]
		}
	}

	if t, ok := entitySynonyms[resource]; ok {
		return t, entityID
	}
	return capitalize(resource), entityID
}

func isResource(seg string) bool {
	_, ok := entitySynonyms[seg]
	return ok
}

// IsIdentifier reports whether a path segment looks like an entity id:
// a 24-character hex document id or a canonical UUID.
func IsIdentifier(seg string) bool {
	if len(seg) == 24 {
		for _, r := range seg {
			if !isHex(r) {
				return false
			}
		}
		return true
	}
	if len(seg) == 36 {
		for i, r := range seg {
			switch i {
			case 8, 13, 18, 23:
				if r != '-' {
					return false
				}
			default:
				if !isHex(r) {
					return false
				}
			}
		}
		return true
	}
	return false
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// CategoryFor derives the trail category from action and path.
func CategoryFor(action, path string) string {
	switch {
	case strings.Contains(path, "/auth/"):
		return models.CategorySystemAccess
	case strings.Contains(path, "/config") || strings.Contains(path, "/settings"):
		return models.CategoryConfigChange
	case action == models.ActionRead:
		return models.CategoryDataAccess
	default:
		return models.CategoryDataChange
	}
}

// BaselineRisk computes the action-based risk before response-status
// escalation: low for reads and session actions, high for deletes, creates
// in finance/hr, and User updates, medium for the remaining mutations.
func BaselineRisk(action, module, entityType string) string {
	switch action {
	case models.ActionRead, models.ActionLogin, models.ActionLogout:
		return models.RiskLow
	case models.ActionDelete:
		return models.RiskHigh
	case models.ActionCreate:
		if module == "finance" || module == "hr" {
			return models.RiskHigh
		}
		return models.RiskMedium
	case models.ActionUpdate:
		if entityType == "User" {
			return models.RiskHigh
		}
		return models.RiskMedium
	default:
		return models.RiskMedium
	}
}

// ResponseRisk escalates risk by response status: 4xx to high, 5xx to
// critical, regardless of the action baseline.
func ResponseRisk(baseline string, statusCode int) string {
	switch {
	case statusCode >= 500:
		return models.RiskCritical
	case statusCode >= 400:
		return models.MaxRisk(baseline, models.RiskHigh)
	default:
		return baseline
	}
}

var actionDescriptions = map[string]string{
	models.ActionLogin:   "User logged into the system",
	models.ActionLogout:  "User logged out of the system",
	models.ActionCreate:  "Created new %s",
	models.ActionRead:    "Viewed %s information",
	models.ActionUpdate:  "Updated %s details",
	models.ActionDelete:  "Deleted %s record",
	models.ActionApprove: "Approved %s request",
	models.ActionReject:  "Rejected %s request",
	models.ActionExport:  "Exported %s data",
	models.ActionImport:  "Imported %s data",
}

// Describe synthesizes the human-readable trail description, with extra
// context when the path indicates search/filter/bulk/report/dashboard or
// configuration operations.
func Describe(action, entityType, entityName, path string, hasQuery bool) string {
	lower := strings.ToLower(entityType)

	desc := fmt.Sprintf("%s %s", capitalize(action), lower)
	if tmpl, ok := actionDescriptions[action]; ok {
		if strings.Contains(tmpl, "%s") {
			desc = fmt.Sprintf(tmpl, lower)
		} else {
			desc = tmpl
		}
	}

	switch {
	case strings.Contains(path, "/search"):
		desc = fmt.Sprintf("Searched for %s records", lower)
	case strings.Contains(path, "/bulk"):
		desc = fmt.Sprintf("Performed bulk %s on %s records", action, lower)
	case strings.Contains(path, "/report"):
		desc = fmt.Sprintf("Generated %s report", lower)
	case strings.Contains(path, "/dashboard"):
		desc = fmt.Sprintf("Accessed %s dashboard", lower)
	case strings.Contains(path, "/settings"), strings.Contains(path, "/config"):
		desc = fmt.Sprintf("Modified %s configuration", lower)
	case strings.Contains(path, "/permissions"), strings.Contains(path, "/access"):
		desc = fmt.Sprintf("Updated %s access permissions", lower)
	case hasQuery && action == models.ActionRead:
		desc = fmt.Sprintf("Filtered %s records", lower)
	}

	if entityName != "" {
		desc += ": " + entityName
	}
	return desc
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
