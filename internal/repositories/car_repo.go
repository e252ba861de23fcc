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

type CARRepo struct {
	pool *pgxpool.Pool
}

func NewCARRepo(pool *pgxpool.Pool) *CARRepo {
	return &CARRepo{pool: pool}
}

const carColumns = `
	id, car_number, finding_id, audit_id, action_type, priority, action_plan,
	responsible_person, assigned_by, target_completion_date, actual_completion_date,
	status, progress, milestones, verification, effectiveness_review,
	estimated_cost, actual_cost, comments, is_active, created_by, updated_by,
	created_at, updated_at`

func (r *CARRepo) Create(ctx context.Context, c *models.CorrectiveAction) error {
	milestonesBytes, _ := json.Marshal(c.Milestones)
	verificationBytes, _ := json.Marshal(c.Verification)
	commentsBytes, _ := json.Marshal(c.Comments)

	return r.pool.QueryRow(ctx, `
		INSERT INTO corrective_actions (car_number, finding_id, audit_id, action_type,
			priority, action_plan, responsible_person, assigned_by,
			target_completion_date, status, progress, milestones, verification,
			estimated_cost, comments, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, is_active, created_at, updated_at
	`, c.CARNumber, c.FindingID, c.AuditID, c.ActionType, c.Priority, c.ActionPlan,
		c.ResponsiblePerson, c.AssignedBy, c.TargetCompletionDate, c.Status,
		c.Progress, milestonesBytes, verificationBytes, c.EstimatedCost,
		commentsBytes, c.CreatedBy,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

func scanCAR(row pgx.Row) (*models.CorrectiveAction, error) {
	var c models.CorrectiveAction
	var milestonesBytes, verificationBytes, reviewBytes, commentsBytes []byte

	err := row.Scan(&c.ID, &c.CARNumber, &c.FindingID, &c.AuditID, &c.ActionType,
		&c.Priority, &c.ActionPlan, &c.ResponsiblePerson, &c.AssignedBy,
		&c.TargetCompletionDate, &c.ActualCompletionDate, &c.Status, &c.Progress,
		&milestonesBytes, &verificationBytes, &reviewBytes, &c.EstimatedCost,
		&c.ActualCost, &commentsBytes, &c.IsActive, &c.CreatedBy, &c.UpdatedBy,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(milestonesBytes, &c.Milestones)
	_ = json.Unmarshal(verificationBytes, &c.Verification)
	if len(reviewBytes) > 0 {
		_ = json.Unmarshal(reviewBytes, &c.EffectivenessReview)
	}
	_ = json.Unmarshal(commentsBytes, &c.Comments)
	return &c, nil
}

func (r *CARRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CorrectiveAction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+carColumns+` FROM corrective_actions WHERE id = $1 AND is_active`, id)
	return scanCAR(row)
}

func (r *CARRepo) GetByFindingID(ctx context.Context, findingID uuid.UUID) (*models.CorrectiveAction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+carColumns+` FROM corrective_actions
		WHERE finding_id = $1 AND is_active
		ORDER BY created_at DESC LIMIT 1
	`, findingID)
	return scanCAR(row)
}

type CARFilter struct {
	FindingID         *uuid.UUID
	AuditID           *uuid.UUID
	Status            *string
	Priority          *string
	ActionType        *string
	ResponsiblePerson *uuid.UUID
	Overdue           bool
	Limit             int
	Offset            int
}

func (r *CARRepo) List(ctx context.Context, f CARFilter) ([]models.CorrectiveAction, int64, error) {
	args := []any{}
	argIdx := 1
	whereClause := ` WHERE is_active`

	add := func(clause string, value any) {
		whereClause += fmt.Sprintf(" AND "+clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if f.FindingID != nil {
		add("finding_id = $%d", *f.FindingID)
	}
	if f.AuditID != nil {
		add("audit_id = $%d", *f.AuditID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Priority != nil {
		add("priority = $%d", *f.Priority)
	}
	if f.ActionType != nil {
		add("action_type = $%d", *f.ActionType)
	}
	if f.ResponsiblePerson != nil {
		add("responsible_person = $%d", *f.ResponsiblePerson)
	}
	if f.Overdue {
		whereClause += " AND status NOT IN ('verified', 'closed') AND target_completion_date < now()"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM corrective_actions`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + carColumns + ` FROM corrective_actions` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var cars []models.CorrectiveAction
	for rows.Next() {
		c, err := scanCAR(rows)
		if err != nil {
			return nil, 0, err
		}
		cars = append(cars, *c)
	}
	return cars, total, nil
}

func (r *CARRepo) Update(ctx context.Context, c *models.CorrectiveAction) error {
	milestonesBytes, _ := json.Marshal(c.Milestones)
	verificationBytes, _ := json.Marshal(c.Verification)
	reviewBytes, _ := json.Marshal(c.EffectivenessReview)
	commentsBytes, _ := json.Marshal(c.Comments)

	_, err := r.pool.Exec(ctx, `
		UPDATE corrective_actions SET action_type = $1, priority = $2, action_plan = $3,
			responsible_person = $4, target_completion_date = $5, progress = $6,
			milestones = $7, verification = $8, effectiveness_review = $9,
			estimated_cost = $10, actual_cost = $11, comments = $12,
			updated_by = $13, updated_at = now()
		WHERE id = $14 AND is_active
	`, c.ActionType, c.Priority, c.ActionPlan, c.ResponsiblePerson,
		c.TargetCompletionDate, c.Progress, milestonesBytes, verificationBytes,
		reviewBytes, c.EstimatedCost, c.ActualCost, commentsBytes, c.UpdatedBy, c.ID)
	return err
}

func (r *CARRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE corrective_actions SET status = $1, updated_by = $2, updated_at = now() WHERE id = $3
	`, status, updatedBy, id)
	return err
}

func (r *CARRepo) SetActualCompletionDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE corrective_actions SET actual_completion_date = COALESCE(actual_completion_date, $1),
			updated_at = now()
		WHERE id = $2
	`, at, id)
	return err
}

func (r *CARRepo) AddComment(ctx context.Context, id uuid.UUID, comment models.Comment) error {
	commentBytes, _ := json.Marshal(comment)
	_, err := r.pool.Exec(ctx, `
		UPDATE corrective_actions SET comments = comments || $1::jsonb, updated_at = now()
		WHERE id = $2 AND is_active
	`, commentBytes, id)
	return err
}

func (r *CARRepo) SoftDelete(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE corrective_actions SET is_active = FALSE, updated_by = $1, updated_at = now() WHERE id = $2
	`, updatedBy, id)
	return err
}

// ListDueForReminder returns open actions whose target date falls within the
// lead window, for the notification worker.
func (r *CARRepo) ListDueForReminder(ctx context.Context, within time.Duration) ([]models.CorrectiveAction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+carColumns+` FROM corrective_actions
		WHERE is_active AND status NOT IN ('verified', 'closed')
		  AND target_completion_date BETWEEN now() AND now() + $1::interval
	`, fmt.Sprintf("%d seconds", int(within.Seconds())))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []models.CorrectiveAction
	for rows.Next() {
		c, err := scanCAR(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *c)
	}
	return cars, nil
}
