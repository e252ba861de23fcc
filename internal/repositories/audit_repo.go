package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `
	id, audit_number, title, description, audit_type, module, department,
	planned_start_date, planned_end_date, actual_start_date, actual_end_date,
	lead_auditor, audit_team, status, progress, objectives, risk_level,
	total_findings, critical_findings, high_findings, medium_findings, low_findings,
	attachments, is_active, created_by, updated_by, created_at, updated_at`

func (r *AuditRepo) Create(ctx context.Context, a *models.Audit) error {
	teamBytes, _ := json.Marshal(a.AuditTeam)
	objectivesBytes, _ := json.Marshal(a.Objectives)
	attachmentsBytes, _ := json.Marshal(a.Attachments)

	return r.pool.QueryRow(ctx, `
		INSERT INTO audits (audit_number, title, description, audit_type, module,
			department, planned_start_date, planned_end_date, lead_auditor,
			audit_team, status, progress, objectives, risk_level, attachments, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, is_active, created_at, updated_at
	`, a.AuditNumber, a.Title, a.Description, a.AuditType, a.Module,
		a.Department, a.PlannedStartDate, a.PlannedEndDate, a.LeadAuditor,
		teamBytes, a.Status, a.Progress, objectivesBytes, a.RiskLevel, attachmentsBytes, a.CreatedBy,
	).Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
}

func scanAudit(row pgx.Row) (*models.Audit, error) {
	var a models.Audit
	var teamBytes, objectivesBytes, attachmentsBytes []byte

	err := row.Scan(&a.ID, &a.AuditNumber, &a.Title, &a.Description, &a.AuditType,
		&a.Module, &a.Department, &a.PlannedStartDate, &a.PlannedEndDate,
		&a.ActualStartDate, &a.ActualEndDate, &a.LeadAuditor, &teamBytes,
		&a.Status, &a.Progress, &objectivesBytes, &a.RiskLevel,
		&a.TotalFindings, &a.CriticalFindings, &a.HighFindings, &a.MediumFindings,
		&a.LowFindings, &attachmentsBytes, &a.IsActive, &a.CreatedBy, &a.UpdatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(teamBytes, &a.AuditTeam)
	_ = json.Unmarshal(objectivesBytes, &a.Objectives)
	_ = json.Unmarshal(attachmentsBytes, &a.Attachments)
	return &a, nil
}

func (r *AuditRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Audit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = $1 AND is_active`, id)
	return scanAudit(row)
}

type AuditFilter struct {
	Status      *string
	AuditType   *string
	Department  *string
	Module      *string
	RiskLevel   *string
	LeadAuditor *uuid.UUID
	Search      *string
	Limit       int
	Offset      int
}

func (r *AuditRepo) List(ctx context.Context, f AuditFilter) ([]models.Audit, int64, error) {
	args := []any{}
	argIdx := 1
	whereClause := ` WHERE is_active`

	add := func(clause string, value any) {
		whereClause += fmt.Sprintf(" AND "+clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.AuditType != nil {
		add("audit_type = $%d", *f.AuditType)
	}
	if f.Department != nil {
		add("department = $%d", *f.Department)
	}
	if f.Module != nil {
		add("module = $%d", *f.Module)
	}
	if f.RiskLevel != nil {
		add("risk_level = $%d", *f.RiskLevel)
	}
	if f.LeadAuditor != nil {
		add("lead_auditor = $%d", *f.LeadAuditor)
	}
	if f.Search != nil && *f.Search != "" {
		whereClause += fmt.Sprintf(" AND (title ILIKE $%d OR audit_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*f.Search+"%")
		argIdx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audits`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + auditColumns + ` FROM audits` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var audits []models.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, 0, err
		}
		audits = append(audits, *a)
	}
	return audits, total, nil
}

func (r *AuditRepo) Update(ctx context.Context, a *models.Audit) error {
	teamBytes, _ := json.Marshal(a.AuditTeam)
	objectivesBytes, _ := json.Marshal(a.Objectives)
	attachmentsBytes, _ := json.Marshal(a.Attachments)

	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET title = $1, description = $2, audit_type = $3, module = $4,
			department = $5, planned_start_date = $6, planned_end_date = $7,
			lead_auditor = $8, audit_team = $9, progress = $10, objectives = $11,
			risk_level = $12, attachments = $13, updated_by = $14, updated_at = now()
		WHERE id = $15 AND is_active
	`, a.Title, a.Description, a.AuditType, a.Module, a.Department,
		a.PlannedStartDate, a.PlannedEndDate, a.LeadAuditor, teamBytes,
		a.Progress, objectivesBytes, a.RiskLevel, attachmentsBytes, a.UpdatedBy, a.ID)
	return err
}

func (r *AuditRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET status = $1, updated_by = $2, updated_at = now() WHERE id = $3
	`, status, updatedBy, id)
	return err
}

// SetActualDates stamps actual start/end only when not already set.
func (r *AuditRepo) SetActualStart(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET actual_start_date = COALESCE(actual_start_date, $1), updated_at = now() WHERE id = $2
	`, at, id)
	return err
}

func (r *AuditRepo) SetActualEnd(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET actual_end_date = COALESCE(actual_end_date, $1), updated_at = now() WHERE id = $2
	`, at, id)
	return err
}

func (r *AuditRepo) SoftDelete(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET is_active = FALSE, updated_by = $1, updated_at = now() WHERE id = $2
	`, updatedBy, id)
	return err
}

// RecountFindings recomputes the severity counters from the live finding set
// in one statement, so the derived values can never drift from the source.
func (r *AuditRepo) RecountFindings(ctx context.Context, auditID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audits SET
			total_findings    = sub.total,
			critical_findings = sub.critical,
			high_findings     = sub.high,
			medium_findings   = sub.medium,
			low_findings      = sub.low,
			updated_at        = now()
		FROM (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE severity = 'critical') AS critical,
			       COUNT(*) FILTER (WHERE severity = 'high')     AS high,
			       COUNT(*) FILTER (WHERE severity = 'medium')   AS medium,
			       COUNT(*) FILTER (WHERE severity = 'low')      AS low
			FROM findings WHERE audit_id = $1 AND is_active
		) sub
		WHERE audits.id = $1
	`, auditID)
	return err
}

type AuditStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *AuditRepo) CountByStatus(ctx context.Context) ([]AuditStatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM audits WHERE is_active GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []AuditStatusCount
	for rows.Next() {
		var c AuditStatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, nil
}

type ModuleCompliance struct {
	Module           string `json:"module"`
	TotalAudits      int64  `json:"total_audits"`
	CompletedAudits  int64  `json:"completed_audits"`
	TotalFindings    int64  `json:"total_findings"`
	CriticalFindings int64  `json:"critical_findings"`
}

// ComplianceByModule buckets the active audits per target module together
// with their accumulated finding counters.
func (r *AuditRepo) ComplianceByModule(ctx context.Context) ([]ModuleCompliance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT module,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(total_findings), 0),
		       COALESCE(SUM(critical_findings), 0)
		FROM audits WHERE is_active GROUP BY module ORDER BY module
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []ModuleCompliance
	for rows.Next() {
		var b ModuleCompliance
		if err := rows.Scan(&b.Module, &b.TotalAudits, &b.CompletedAudits, &b.TotalFindings, &b.CriticalFindings); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}
