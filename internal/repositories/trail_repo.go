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

type TrailRepo struct {
	pool *pgxpool.Pool
}

func NewTrailRepo(pool *pgxpool.Pool) *TrailRepo {
	return &TrailRepo{pool: pool}
}

const trailColumns = `
	id, user_id, user_email, user_role, user_department, action, entity_type,
	entity_id, entity_name, module, description, details, old_values, new_values,
	changed_fields, ip_address, user_agent, request_method, request_url,
	request_query, request_body, session_id, risk_level, status, is_suspicious,
	category, tags, audit_id, finding_id, corrective_action_id, occurred_at`

func (r *TrailRepo) Insert(ctx context.Context, e *models.TrailEntry) error {
	detailsBytes, _ := json.Marshal(e.Details)
	oldBytes, _ := json.Marshal(e.OldValues)
	newBytes, _ := json.Marshal(e.NewValues)
	changedBytes, _ := json.Marshal(e.ChangedFields)
	queryBytes, _ := json.Marshal(e.RequestQuery)
	bodyBytes, _ := json.Marshal(e.RequestBody)
	tagsBytes, _ := json.Marshal(e.Tags)

	var auditID, findingID, carID *uuid.UUID
	if e.AuditContext != nil {
		auditID = e.AuditContext.AuditID
		findingID = e.AuditContext.FindingID
		carID = e.AuditContext.CorrectiveActionID
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_trail (user_id, user_email, user_role, user_department,
			action, entity_type, entity_id, entity_name, module, description,
			details, old_values, new_values, changed_fields, ip_address, user_agent,
			request_method, request_url, request_query, request_body, session_id,
			risk_level, status, is_suspicious, category, tags,
			audit_id, finding_id, corrective_action_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
		RETURNING id
	`, e.UserID, e.UserEmail, e.UserRole, e.UserDepartment,
		e.Action, e.EntityType, e.EntityID, e.EntityName, e.Module, e.Description,
		detailsBytes, oldBytes, newBytes, changedBytes, e.IPAddress, e.UserAgent,
		e.RequestMethod, e.RequestURL, queryBytes, bodyBytes, e.SessionID,
		e.RiskLevel, e.Status, e.IsSuspicious, e.Category, tagsBytes,
		auditID, findingID, carID, e.Timestamp,
	).Scan(&e.ID)
}

func scanTrailEntry(row pgx.Row) (*models.TrailEntry, error) {
	var e models.TrailEntry
	var detailsBytes, oldBytes, newBytes, changedBytes, queryBytes, bodyBytes, tagsBytes []byte
	var auditID, findingID, carID *uuid.UUID

	err := row.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.UserRole, &e.UserDepartment,
		&e.Action, &e.EntityType, &e.EntityID, &e.EntityName, &e.Module, &e.Description,
		&detailsBytes, &oldBytes, &newBytes, &changedBytes, &e.IPAddress, &e.UserAgent,
		&e.RequestMethod, &e.RequestURL, &queryBytes, &bodyBytes, &e.SessionID,
		&e.RiskLevel, &e.Status, &e.IsSuspicious, &e.Category, &tagsBytes,
		&auditID, &findingID, &carID, &e.Timestamp)
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal(detailsBytes, &e.Details)
	_ = json.Unmarshal(oldBytes, &e.OldValues)
	_ = json.Unmarshal(newBytes, &e.NewValues)
	_ = json.Unmarshal(changedBytes, &e.ChangedFields)
	_ = json.Unmarshal(queryBytes, &e.RequestQuery)
	_ = json.Unmarshal(bodyBytes, &e.RequestBody)
	_ = json.Unmarshal(tagsBytes, &e.Tags)

	if auditID != nil || findingID != nil || carID != nil {
		e.AuditContext = &models.AuditContext{
			AuditID:            auditID,
			FindingID:          findingID,
			CorrectiveActionID: carID,
		}
	}
	return &e, nil
}

func (r *TrailRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TrailEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+trailColumns+` FROM audit_trail WHERE id = $1`, id)
	return scanTrailEntry(row)
}

type TrailFilter struct {
	UserID     *uuid.UUID
	Module     *string
	Action     *string
	EntityType *string
	EntityID   *string
	RiskLevel  *string
	Status     *string
	Category   *string
	Suspicious *bool
	From       *time.Time
	To         *time.Time
	Search     *string // matches description, entity name and user email
	Limit      int
	Offset     int
}

func (f TrailFilter) buildWhere() (string, []any) {
	args := []any{}
	argIdx := 1
	where := []string{}

	add := func(clause string, value any) {
		where = append(where, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.Module != nil {
		add("module = $%d", *f.Module)
	}
	if f.Action != nil {
		add("action = $%d", *f.Action)
	}
	if f.EntityType != nil {
		add("entity_type = $%d", *f.EntityType)
	}
	if f.EntityID != nil {
		add("entity_id = $%d", *f.EntityID)
	}
	if f.RiskLevel != nil {
		add("risk_level = $%d", *f.RiskLevel)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Category != nil {
		add("category = $%d", *f.Category)
	}
	if f.Suspicious != nil {
		add("is_suspicious = $%d", *f.Suspicious)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at <= $%d", *f.To)
	}
	if f.Search != nil && *f.Search != "" {
		where = append(where, fmt.Sprintf(
			"(description ILIKE $%d OR entity_name ILIKE $%d OR user_email ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+*f.Search+"%")
		argIdx++
	}

	if len(where) == 0 {
		return "", args
	}
	clause := " WHERE "
	for i, w := range where {
		if i > 0 {
			clause += " AND "
		}
		clause += w
	}
	return clause, args
}

func (r *TrailRepo) List(ctx context.Context, f TrailFilter) ([]models.TrailEntry, int64, error) {
	whereClause, args := f.buildWhere()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_trail`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `SELECT ` + trailColumns + ` FROM audit_trail` + whereClause +
		fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.TrailEntry
	for rows.Next() {
		e, err := scanTrailEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, nil
}

func (r *TrailRepo) GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.TrailEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+trailColumns+` FROM audit_trail
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at DESC LIMIT $3 OFFSET $4
	`, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TrailEntry
	for rows.Next() {
		e, err := scanTrailEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// CountByUserSince feeds the volume heuristic: how many actions the user
// performed since the given instant.
func (r *TrailRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_trail WHERE user_id = $1 AND occurred_at >= $2
	`, userID, since).Scan(&count)
	return count, err
}

type TrailBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type TrailStatistics struct {
	Total       int64         `json:"total"`
	Suspicious  int64         `json:"suspicious"`
	Failed      int64         `json:"failed"`
	ByAction    []TrailBucket `json:"by_action"`
	ByModule    []TrailBucket `json:"by_module"`
	ByRiskLevel []TrailBucket `json:"by_risk_level"`
	ByCategory  []TrailBucket `json:"by_category"`
	TopUsers    []UserBucket  `json:"top_users"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
}

type UserBucket struct {
	UserID    uuid.UUID `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Count     int64     `json:"count"`
}

func (r *TrailRepo) groupCount(ctx context.Context, column string, from, to time.Time) ([]TrailBucket, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*) FROM audit_trail
		WHERE occurred_at >= $1 AND occurred_at <= $2
		GROUP BY %s ORDER BY COUNT(*) DESC
	`, column, column), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []TrailBucket
	for rows.Next() {
		var b TrailBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (r *TrailRepo) Statistics(ctx context.Context, from, to time.Time) (*TrailStatistics, error) {
	stats := &TrailStatistics{WindowStart: from, WindowEnd: to}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_suspicious),
		       COUNT(*) FILTER (WHERE status = 'failed')
		FROM audit_trail WHERE occurred_at >= $1 AND occurred_at <= $2
	`, from, to).Scan(&stats.Total, &stats.Suspicious, &stats.Failed)
	if err != nil {
		return nil, err
	}

	if stats.ByAction, err = r.groupCount(ctx, "action", from, to); err != nil {
		return nil, err
	}
	if stats.ByModule, err = r.groupCount(ctx, "module", from, to); err != nil {
		return nil, err
	}
	if stats.ByRiskLevel, err = r.groupCount(ctx, "risk_level", from, to); err != nil {
		return nil, err
	}
	if stats.ByCategory, err = r.groupCount(ctx, "category", from, to); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT user_id, user_email, COUNT(*) FROM audit_trail
		WHERE occurred_at >= $1 AND occurred_at <= $2
		GROUP BY user_id, user_email ORDER BY COUNT(*) DESC LIMIT 10
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u UserBucket
		if err := rows.Scan(&u.UserID, &u.UserEmail, &u.Count); err != nil {
			return nil, err
		}
		stats.TopUsers = append(stats.TopUsers, u)
	}

	return stats, nil
}

type UserActivitySummary struct {
	UserID      uuid.UUID     `json:"user_id"`
	UserEmail   string        `json:"user_email"`
	Total       int64         `json:"total"`
	Suspicious  int64         `json:"suspicious"`
	Failed      int64         `json:"failed"`
	ByAction    []TrailBucket `json:"by_action"`
	ByModule    []TrailBucket `json:"by_module"`
	LastSeen    *time.Time    `json:"last_seen,omitempty"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
}

func (r *TrailRepo) UserActivity(ctx context.Context, userID uuid.UUID, from, to time.Time) (*UserActivitySummary, error) {
	s := &UserActivitySummary{UserID: userID, WindowStart: from, WindowEnd: to}

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(user_email), ''),
		       COUNT(*),
		       COUNT(*) FILTER (WHERE is_suspicious),
		       COUNT(*) FILTER (WHERE status = 'failed'),
		       MAX(occurred_at)
		FROM audit_trail
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
	`, userID, from, to).Scan(&s.UserEmail, &s.Total, &s.Suspicious, &s.Failed, &s.LastSeen)
	if err != nil {
		return nil, err
	}

	for _, g := range []struct {
		column string
		dest   *[]TrailBucket
	}{
		{"action", &s.ByAction},
		{"module", &s.ByModule},
	} {
		rows, err := r.pool.Query(ctx, fmt.Sprintf(`
			SELECT %s, COUNT(*) FROM audit_trail
			WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
			GROUP BY %s ORDER BY COUNT(*) DESC
		`, g.column, g.column), userID, from, to)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var b TrailBucket
			if err := rows.Scan(&b.Key, &b.Count); err != nil {
				rows.Close()
				return nil, err
			}
			*g.dest = append(*g.dest, b)
		}
		rows.Close()
	}

	return s, nil
}

type HighActivityUser struct {
	UserID         uuid.UUID `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	ActionCount    int64     `json:"action_count"`
	UniqueModules  []string  `json:"unique_modules"`
	UniqueEntities []string  `json:"unique_entities"`
}

type SuspiciousAction struct {
	Action     string `json:"action"`
	Module     string `json:"module"`
	EntityType string `json:"entity_type"`
}

type SuspiciousPattern struct {
	UserID          uuid.UUID          `json:"user_id"`
	UserEmail       string             `json:"user_email"`
	SuspiciousCount int64              `json:"suspicious_count"`
	Actions         []SuspiciousAction `json:"actions"`
}

type AnomalyReport struct {
	HighActivityUsers  []HighActivityUser  `json:"high_activity_users"`
	SuspiciousPatterns []SuspiciousPattern `json:"suspicious_patterns"`
}

// AnomalyScan runs two independent aggregates over the window: users over the
// raw volume floor, with the modules and entity types they touched, and users
// over the flagged-entries floor, with the offending action tuples.
func (r *TrailRepo) AnomalyScan(ctx context.Context, from, to time.Time, actionFloor, flaggedFloor int) (*AnomalyReport, error) {
	report := &AnomalyReport{}

	rows, err := r.pool.Query(ctx, `
		SELECT user_id, MAX(user_email), COUNT(*),
		       ARRAY_AGG(DISTINCT module),
		       ARRAY_AGG(DISTINCT entity_type)
		FROM audit_trail
		WHERE occurred_at >= $1 AND occurred_at <= $2
		GROUP BY user_id
		HAVING COUNT(*) >= $3
		ORDER BY COUNT(*) DESC
	`, from, to, actionFloor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u HighActivityUser
		if err := rows.Scan(&u.UserID, &u.UserEmail, &u.ActionCount, &u.UniqueModules, &u.UniqueEntities); err != nil {
			return nil, err
		}
		report.HighActivityUsers = append(report.HighActivityUsers, u)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `
		SELECT user_id, MAX(user_email), COUNT(*),
		       jsonb_agg(jsonb_build_object(
		           'action', action, 'module', module, 'entity_type', entity_type))
		FROM audit_trail
		WHERE occurred_at >= $1 AND occurred_at <= $2 AND is_suspicious
		GROUP BY user_id
		HAVING COUNT(*) >= $3
		ORDER BY COUNT(*) DESC
	`, from, to, flaggedFloor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p SuspiciousPattern
		var actionsBytes []byte
		if err := rows.Scan(&p.UserID, &p.UserEmail, &p.SuspiciousCount, &actionsBytes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(actionsBytes, &p.Actions); err != nil {
			return nil, err
		}
		report.SuspiciousPatterns = append(report.SuspiciousPatterns, p)
	}
	return report, nil
}
