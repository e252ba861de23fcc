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

type ScheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

const scheduleColumns = `
	id, name, description, schedule_type, frequency, audit_type, module,
	departments, include_all_departments, start_date, end_date, duration_days,
	recurrence_pattern, recurrence_interval, default_lead_auditor,
	default_audit_team, default_checklist, notifications, status, is_active,
	generated_audits, total_scheduled, total_completed, total_cancelled,
	completion_rate, next_scheduled_date, created_by, updated_by, created_at, updated_at`

func (r *ScheduleRepo) Create(ctx context.Context, s *models.Schedule) error {
	departmentsBytes, _ := json.Marshal(s.Departments)
	teamBytes, _ := json.Marshal(s.DefaultAuditTeam)
	checklistBytes, _ := json.Marshal(s.DefaultChecklist)
	notificationsBytes, _ := json.Marshal(s.Notifications)
	generatedBytes, _ := json.Marshal(s.GeneratedAudits)

	return r.pool.QueryRow(ctx, `
		INSERT INTO schedules (name, description, schedule_type, frequency, audit_type,
			module, departments, include_all_departments, start_date, end_date,
			duration_days, recurrence_pattern, recurrence_interval,
			default_lead_auditor, default_audit_team, default_checklist,
			notifications, status, generated_audits, next_scheduled_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21)
		RETURNING id, is_active, created_at, updated_at
	`, s.Name, s.Description, s.ScheduleType, s.Frequency, s.AuditType, s.Module,
		departmentsBytes, s.IncludeAllDepartments, s.StartDate, s.EndDate,
		s.DurationDays, s.RecurrencePattern, s.RecurrenceInterval,
		s.DefaultLeadAuditor, teamBytes, checklistBytes, notificationsBytes,
		s.Status, generatedBytes, s.NextScheduledDate, s.CreatedBy,
	).Scan(&s.ID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	var departmentsBytes, teamBytes, checklistBytes, notificationsBytes, generatedBytes []byte

	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.ScheduleType, &s.Frequency,
		&s.AuditType, &s.Module, &departmentsBytes, &s.IncludeAllDepartments,
		&s.StartDate, &s.EndDate, &s.DurationDays, &s.RecurrencePattern,
		&s.RecurrenceInterval, &s.DefaultLeadAuditor, &teamBytes, &checklistBytes,
		&notificationsBytes, &s.Status, &s.IsActive, &generatedBytes,
		&s.TotalScheduled, &s.TotalCompleted, &s.TotalCancelled, &s.CompletionRate,
		&s.NextScheduledDate, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(departmentsBytes, &s.Departments)
	_ = json.Unmarshal(teamBytes, &s.DefaultAuditTeam)
	_ = json.Unmarshal(checklistBytes, &s.DefaultChecklist)
	_ = json.Unmarshal(notificationsBytes, &s.Notifications)
	_ = json.Unmarshal(generatedBytes, &s.GeneratedAudits)
	return &s, nil
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1 AND is_active`, id)
	return scanSchedule(row)
}

type ScheduleFilter struct {
	Status       *string
	ScheduleType *string
	AuditType    *string
	Limit        int
	Offset       int
}

func (r *ScheduleRepo) List(ctx context.Context, f ScheduleFilter) ([]models.Schedule, int64, error) {
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
	if f.ScheduleType != nil {
		add("schedule_type = $%d", *f.ScheduleType)
	}
	if f.AuditType != nil {
		add("audit_type = $%d", *f.AuditType)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM schedules`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + scheduleColumns + ` FROM schedules` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, total, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, s *models.Schedule) error {
	departmentsBytes, _ := json.Marshal(s.Departments)
	teamBytes, _ := json.Marshal(s.DefaultAuditTeam)
	checklistBytes, _ := json.Marshal(s.DefaultChecklist)
	notificationsBytes, _ := json.Marshal(s.Notifications)

	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET name = $1, description = $2, schedule_type = $3,
			frequency = $4, audit_type = $5, module = $6, departments = $7,
			include_all_departments = $8, start_date = $9, end_date = $10,
			duration_days = $11, recurrence_pattern = $12, recurrence_interval = $13,
			default_lead_auditor = $14, default_audit_team = $15,
			default_checklist = $16, notifications = $17, next_scheduled_date = $18,
			updated_by = $19, updated_at = now()
		WHERE id = $20 AND is_active
	`, s.Name, s.Description, s.ScheduleType, s.Frequency, s.AuditType, s.Module,
		departmentsBytes, s.IncludeAllDepartments, s.StartDate, s.EndDate,
		s.DurationDays, s.RecurrencePattern, s.RecurrenceInterval,
		s.DefaultLeadAuditor, teamBytes, checklistBytes, notificationsBytes,
		s.NextScheduledDate, s.UpdatedBy, s.ID)
	return err
}

func (r *ScheduleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET status = $1, updated_by = $2, updated_at = now() WHERE id = $3
	`, status, updatedBy, id)
	return err
}

// RecordGeneratedAudit appends a history record and advances the rollups and
// the next due date in one statement.
func (r *ScheduleRepo) RecordGeneratedAudit(ctx context.Context, id uuid.UUID, g models.GeneratedAudit, next *time.Time) error {
	generatedBytes, _ := json.Marshal(g)
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET
			generated_audits = generated_audits || $1::jsonb,
			total_scheduled = total_scheduled + 1,
			next_scheduled_date = $2,
			updated_at = now()
		WHERE id = $3
	`, generatedBytes, next, id)
	return err
}

// UpdateStatistics rewrites the rollup counters from the generated-audit history.
func (r *ScheduleRepo) UpdateStatistics(ctx context.Context, s *models.Schedule) error {
	generatedBytes, _ := json.Marshal(s.GeneratedAudits)
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET generated_audits = $1, total_scheduled = $2,
			total_completed = $3, total_cancelled = $4, completion_rate = $5,
			updated_at = now()
		WHERE id = $6
	`, generatedBytes, s.TotalScheduled, s.TotalCompleted, s.TotalCancelled,
		s.CompletionRate, s.ID)
	return err
}

func (r *ScheduleRepo) SoftDelete(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET is_active = FALSE, updated_by = $1, updated_at = now() WHERE id = $2
	`, updatedBy, id)
	return err
}

// DueForGeneration returns active schedules whose next due date has arrived
// and whose end date, if any, has not passed. A non-recurring schedule stays
// eligible until its single generation clears next_scheduled_date.
func (r *ScheduleRepo) DueForGeneration(ctx context.Context, now time.Time) ([]models.Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE is_active AND status = 'active'
		  AND next_scheduled_date IS NOT NULL AND next_scheduled_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, nil
}
