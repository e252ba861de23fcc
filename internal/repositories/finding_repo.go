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

type FindingRepo struct {
	pool *pgxpool.Pool
}

func NewFindingRepo(pool *pgxpool.Pool) *FindingRepo {
	return &FindingRepo{pool: pool}
}

const findingColumns = `
	id, finding_number, audit_id, title, description, category, severity, impact,
	process, location, evidence, criteria, root_cause, status, assigned_to,
	assigned_by, assigned_at, reviewed_by, corrective_action_id,
	target_resolution_date, actual_resolution_date, financial_impact,
	follow_up_notes, follow_up_date, attachments, is_active, created_by,
	updated_by, created_at, updated_at`

func (r *FindingRepo) Create(ctx context.Context, f *models.Finding) error {
	attachmentsBytes, _ := json.Marshal(f.Attachments)

	return r.pool.QueryRow(ctx, `
		INSERT INTO findings (finding_number, audit_id, title, description, category,
			severity, impact, process, location, evidence, criteria, root_cause,
			status, target_resolution_date, financial_impact, attachments, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, is_active, created_at, updated_at
	`, f.FindingNumber, f.AuditID, f.Title, f.Description, f.Category,
		f.Severity, f.Impact, f.Process, f.Location, f.Evidence, f.Criteria, f.RootCause,
		f.Status, f.TargetResolutionDate, f.FinancialImpact, attachmentsBytes, f.CreatedBy,
	).Scan(&f.ID, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
}

func scanFinding(row pgx.Row) (*models.Finding, error) {
	var f models.Finding
	var attachmentsBytes []byte

	err := row.Scan(&f.ID, &f.FindingNumber, &f.AuditID, &f.Title, &f.Description,
		&f.Category, &f.Severity, &f.Impact, &f.Process, &f.Location, &f.Evidence,
		&f.Criteria, &f.RootCause, &f.Status, &f.AssignedTo, &f.AssignedBy,
		&f.AssignedAt, &f.ReviewedBy, &f.CorrectiveActionID,
		&f.TargetResolutionDate, &f.ActualResolutionDate, &f.FinancialImpact,
		&f.FollowUpNotes, &f.FollowUpDate, &attachmentsBytes, &f.IsActive,
		&f.CreatedBy, &f.UpdatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(attachmentsBytes, &f.Attachments)
	return &f, nil
}

func (r *FindingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Finding, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+findingColumns+` FROM findings WHERE id = $1 AND is_active`, id)
	return scanFinding(row)
}

type FindingFilter struct {
	AuditID    *uuid.UUID
	Status     *string
	Severity   *string
	Category   *string
	AssignedTo *uuid.UUID
	Overdue    bool
	Search     *string
	Limit      int
	Offset     int
}

func (r *FindingRepo) List(ctx context.Context, f FindingFilter) ([]models.Finding, int64, error) {
	args := []any{}
	argIdx := 1
	whereClause := ` WHERE is_active`

	add := func(clause string, value any) {
		whereClause += fmt.Sprintf(" AND "+clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if f.AuditID != nil {
		add("audit_id = $%d", *f.AuditID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Severity != nil {
		add("severity = $%d", *f.Severity)
	}
	if f.Category != nil {
		add("category = $%d", *f.Category)
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.Overdue {
		whereClause += " AND status <> 'closed' AND target_resolution_date < now()"
	}
	if f.Search != nil && *f.Search != "" {
		whereClause += fmt.Sprintf(" AND (title ILIKE $%d OR finding_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*f.Search+"%")
		argIdx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM findings`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + findingColumns + ` FROM findings` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var findings []models.Finding
	for rows.Next() {
		fd, err := scanFinding(rows)
		if err != nil {
			return nil, 0, err
		}
		findings = append(findings, *fd)
	}
	return findings, total, nil
}

func (r *FindingRepo) Update(ctx context.Context, f *models.Finding) error {
	attachmentsBytes, _ := json.Marshal(f.Attachments)

	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET title = $1, description = $2, category = $3, severity = $4,
			impact = $5, process = $6, location = $7, evidence = $8, criteria = $9,
			root_cause = $10, target_resolution_date = $11, financial_impact = $12,
			follow_up_notes = $13, follow_up_date = $14, attachments = $15,
			updated_by = $16, updated_at = now()
		WHERE id = $17 AND is_active
	`, f.Title, f.Description, f.Category, f.Severity, f.Impact, f.Process,
		f.Location, f.Evidence, f.Criteria, f.RootCause, f.TargetResolutionDate,
		f.FinancialImpact, f.FollowUpNotes, f.FollowUpDate, attachmentsBytes,
		f.UpdatedBy, f.ID)
	return err
}

func (r *FindingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET status = $1, updated_by = $2, updated_at = now() WHERE id = $3
	`, status, updatedBy, id)
	return err
}

func (r *FindingRepo) Assign(ctx context.Context, id, assignee, assigner uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET assigned_to = $1, assigned_by = $2, assigned_at = $3,
			updated_by = $2, updated_at = now()
		WHERE id = $4 AND is_active
	`, assignee, assigner, at, id)
	return err
}

func (r *FindingRepo) SetReviewedBy(ctx context.Context, id, reviewer uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET reviewed_by = $1, updated_by = $1, updated_at = now() WHERE id = $2
	`, reviewer, id)
	return err
}

func (r *FindingRepo) SetActualResolutionDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET actual_resolution_date = COALESCE(actual_resolution_date, $1),
			updated_at = now()
		WHERE id = $2
	`, at, id)
	return err
}

func (r *FindingRepo) LinkCorrectiveAction(ctx context.Context, id, carID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET corrective_action_id = $1, updated_at = now() WHERE id = $2
	`, carID, id)
	return err
}

func (r *FindingRepo) SoftDelete(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE findings SET is_active = FALSE, updated_by = $1, updated_at = now() WHERE id = $2
	`, updatedBy, id)
	return err
}

type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

func (r *FindingRepo) CountBySeverity(ctx context.Context, auditID *uuid.UUID) ([]SeverityCount, error) {
	query := `SELECT severity, COUNT(*) FROM findings WHERE is_active`
	args := []any{}
	if auditID != nil {
		query += ` AND audit_id = $1`
		args = append(args, *auditID)
	}
	query += ` GROUP BY severity`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SeverityCount
	for rows.Next() {
		var c SeverityCount
		if err := rows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, nil
}

type FindingTrendPoint struct {
	Month    string `json:"month"` // YYYY-MM
	Opened   int64  `json:"opened"`
	Closed   int64  `json:"closed"`
	Critical int64  `json:"critical"`
}

// MonthlyCounts buckets findings raised since the given instant by calendar
// month. Months with no findings produce no row; callers pad the series.
func (r *FindingRepo) MonthlyCounts(ctx context.Context, from time.Time) ([]FindingTrendPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM'),
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'closed'),
		       COUNT(*) FILTER (WHERE severity = 'critical')
		FROM findings
		WHERE is_active AND created_at >= $1
		GROUP BY 1 ORDER BY 1
	`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []FindingTrendPoint
	for rows.Next() {
		var p FindingTrendPoint
		if err := rows.Scan(&p.Month, &p.Opened, &p.Closed, &p.Critical); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (r *FindingRepo) CountByCategory(ctx context.Context, from, to *time.Time) ([]CategoryCount, error) {
	query := `SELECT category, COUNT(*) FROM findings WHERE is_active`
	args := []any{}
	argIdx := 1
	if from != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, *from)
		argIdx++
	}
	if to != nil {
		query += fmt.Sprintf(` AND created_at <= $%d`, argIdx)
		args = append(args, *to)
		argIdx++
	}
	query += ` GROUP BY category ORDER BY COUNT(*) DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, nil
}
