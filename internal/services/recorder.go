package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/activity"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"go.uber.org/zap"
)

// trailWriter is the slice of the trail store the recorder needs: one insert
// and the trailing-window count that feeds the volume heuristic.
type trailWriter interface {
	Insert(ctx context.Context, e *models.TrailEntry) error
	CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Recorder turns observed requests into immutable trail entries. Recording
// failures are logged and swallowed so the trail can never fail the request
// that produced it.
type Recorder struct {
	store      trailWriter
	publisher  events.Publisher
	thresholds activity.Thresholds
	log        *zap.Logger
}

func NewRecorder(store trailWriter, publisher events.Publisher, thresholds activity.Thresholds, log *zap.Logger) *Recorder {
	return &Recorder{
		store:      store,
		publisher:  publisher,
		thresholds: thresholds,
		log:        log,
	}
}

// Observation is everything the middleware captured about one completed request.
type Observation struct {
	Actor      models.Actor
	Method     string
	Path       string
	Query      map[string]any
	Body       map[string]any
	StatusCode int
	IPAddress  string
	UserAgent  string
	SessionID  string
	OccurredAt time.Time
}

// Record classifies the observation and writes the entry. Returns nil without
// writing when the path is excluded or the actor cannot be attributed.
func (r *Recorder) Record(ctx context.Context, obs Observation) *models.TrailEntry {
	if activity.ShouldSkip(obs.Path) {
		return nil
	}
	if !obs.Actor.Attributable() {
		// Attribution is mandatory: an entry without a known actor is worse
		// than no entry, it would launder anonymous activity as audited.
		r.log.Warn("trail entry skipped, actor not attributable",
			zap.String("method", obs.Method),
			zap.String("path", obs.Path),
		)
		return nil
	}

	action := activity.ActionFor(obs.Method, obs.Path)
	module := activity.ModuleFor(obs.Path)
	entityType, entityID := activity.EntityFor(obs.Path)
	category := activity.CategoryFor(action, obs.Path)
	risk := activity.BaselineRisk(action, module, entityType)
	risk = activity.ResponseRisk(risk, obs.StatusCode)

	occurredAt := obs.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	// Bodies are only kept for mutations; read requests carry nothing worth
	// replaying and may echo filter values into the trail.
	var body map[string]any
	if obs.Method != http.MethodGet {
		body = activity.SanitizeBody(obs.Body)
	}

	entry := &models.TrailEntry{
		Action:         action,
		Module:         module,
		UserID:         obs.Actor.UserID,
		UserEmail:      obs.Actor.Email,
		UserRole:       obs.Actor.Role,
		UserDepartment: obs.Actor.Department,
		EntityType:     entityType,
		EntityID:       entityID,
		Description:    activity.Describe(action, entityType, "", obs.Path, len(obs.Query) > 0),
		IPAddress:      obs.IPAddress,
		UserAgent:      obs.UserAgent,
		RequestMethod:  obs.Method,
		RequestURL:     obs.Path,
		RequestQuery:   obs.Query,
		RequestBody:    body,
		SessionID:      obs.SessionID,
		RiskLevel:      risk,
		Status:         statusFor(obs.StatusCode),
		Category:       category,
		Timestamp:      occurredAt,
	}

	return r.persist(ctx, entry)
}

// RecordChange writes a trail entry for an explicit workflow mutation, with
// old/new values supplied by the calling service rather than inferred from a
// request. Used by the compliance services to log their own transitions.
func (r *Recorder) RecordChange(ctx context.Context, actor models.Actor, action, entityType, entityID, description string, oldVals, newVals map[string]any, auditCtx *models.AuditContext) {
	if !actor.Attributable() {
		r.log.Warn("workflow trail entry skipped, actor not attributable",
			zap.String("entity_type", entityType),
			zap.String("action", action),
		)
		return
	}

	var deltas []models.FieldDelta
	for field, newVal := range newVals {
		deltas = append(deltas, models.FieldDelta{
			Field:    field,
			OldValue: oldVals[field],
			NewValue: newVal,
		})
	}

	entry := &models.TrailEntry{
		Action:         action,
		Module:         "audit",
		UserID:         actor.UserID,
		UserEmail:      actor.Email,
		UserRole:       actor.Role,
		UserDepartment: actor.Department,
		EntityType:     entityType,
		EntityID:       &entityID,
		Description:    description,
		OldValues:      oldVals,
		NewValues:      newVals,
		ChangedFields:  deltas,
		RiskLevel:      workflowRisk(action),
		Status:         models.TrailStatusSuccess,
		Category:       models.CategoryBusiness,
		AuditContext:   auditCtx,
		Timestamp:      time.Now(),
	}

	r.persist(ctx, entry)
}

// RecordAuth writes a login/logout entry.
func (r *Recorder) RecordAuth(ctx context.Context, actor models.Actor, action, ip, userAgent, sessionID string, success bool) {
	status := models.TrailStatusSuccess
	risk := models.RiskLow
	if !success {
		status = models.TrailStatusFailed
		risk = models.RiskMedium
	}

	entry := &models.TrailEntry{
		Action:         action,
		Module:         "auth",
		UserID:         actor.UserID,
		UserEmail:      actor.Email,
		UserRole:       actor.Role,
		UserDepartment: actor.Department,
		EntityType:     "User",
		Description:    activity.Describe(action, "User", "", "/auth/"+action, false),
		IPAddress:      ip,
		UserAgent:      userAgent,
		SessionID:      sessionID,
		RiskLevel:      risk,
		Status:         status,
		Category:       models.CategorySystemAccess,
		Timestamp:      time.Now(),
	}

	r.persist(ctx, entry)
}

// persist runs the suspicion heuristics, writes the entry and publishes a
// suspicious-activity event when any predicate fired. Every trail write
// funnels through here so no entry skips the heuristics.
func (r *Recorder) persist(ctx context.Context, entry *models.TrailEntry) *models.TrailEntry {
	r.flag(ctx, entry)

	if err := r.store.Insert(ctx, entry); err != nil {
		r.log.Error("failed to insert trail entry",
			zap.Error(err),
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
		)
		return nil
	}

	if entry.IsSuspicious {
		_ = r.publisher.Publish(ctx, events.StreamTrail, events.Event{
			Type: events.EventTrailSuspicious,
			Payload: map[string]any{
				"entry_id":   entry.ID.String(),
				"user_id":    entry.UserID.String(),
				"user_email": entry.UserEmail,
				"action":     entry.Action,
				"risk_level": entry.RiskLevel,
				"tags":       entry.Tags,
			},
		})
	}

	return entry
}

// flag runs the suspicion heuristics, tagging the entry with each predicate
// that fires. Sensitive reads additionally floor the risk at medium; the
// other predicates flag without touching the classified risk.
func (r *Recorder) flag(ctx context.Context, entry *models.TrailEntry) {
	var tags []string

	since := entry.Timestamp.Add(-r.thresholds.VolumeWindow)
	recent, err := r.store.CountByUserSince(ctx, entry.UserID, since)
	if err != nil {
		r.log.Error("volume heuristic count failed", zap.Error(err))
	} else if r.thresholds.VolumeExceeded(recent) {
		tags = append(tags, "high_volume")
	}

	if r.thresholds.BulkMutation(entry.Action, len(entry.ChangedFields)) {
		tags = append(tags, "bulk_delete")
	}
	if activity.SensitiveRead(entry.Action, entry.EntityType) {
		tags = append(tags, "sensitive_read")
		entry.RiskLevel = models.MaxRisk(entry.RiskLevel, models.RiskMedium)
	}
	if activity.UnusualHour(entry.Action, entry.Timestamp) {
		tags = append(tags, "unusual_hour")
	}

	if len(tags) > 0 {
		entry.IsSuspicious = true
		entry.Tags = append(entry.Tags, tags...)
	}
}

// workflowRisk rates an explicit workflow mutation by its action alone:
// destructive and approval decisions sit above routine edits.
func workflowRisk(action string) string {
	switch action {
	case models.ActionDelete, models.ActionApprove, models.ActionReject:
		return models.RiskMedium
	}
	return models.RiskLow
}

func statusFor(code int) string {
	if code >= 400 {
		return models.TrailStatusFailed
	}
	return models.TrailStatusSuccess
}
