package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"go.uber.org/zap"
)

// trailReader is the slice of the trail store the read side uses.
type trailReader interface {
	List(ctx context.Context, f repositories.TrailFilter) ([]models.TrailEntry, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrailEntry, error)
	GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.TrailEntry, error)
	Statistics(ctx context.Context, from, to time.Time) (*repositories.TrailStatistics, error)
	UserActivity(ctx context.Context, userID uuid.UUID, from, to time.Time) (*repositories.UserActivitySummary, error)
	AnomalyScan(ctx context.Context, from, to time.Time, actionFloor, flaggedFloor int) (*repositories.AnomalyReport, error)
}

// TrailService is the read side of the activity trail. All writes go through
// the Recorder; there is deliberately no update or delete path here.
type TrailService struct {
	store trailReader
	log   *zap.Logger
}

func NewTrailService(store trailReader, log *zap.Logger) *TrailService {
	return &TrailService{store: store, log: log}
}

func (s *TrailService) List(ctx context.Context, f repositories.TrailFilter) ([]models.TrailEntry, int64, error) {
	return s.store.List(ctx, f)
}

func (s *TrailService) GetByID(ctx context.Context, id uuid.UUID) (*models.TrailEntry, error) {
	return s.store.GetByID(ctx, id)
}

func (s *TrailService) GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.TrailEntry, error) {
	return s.store.GetByEntity(ctx, entityType, entityID, limit, offset)
}

func (s *TrailService) Statistics(ctx context.Context, from, to time.Time) (*repositories.TrailStatistics, error) {
	return s.store.Statistics(ctx, from, to)
}

func (s *TrailService) UserActivity(ctx context.Context, userID uuid.UUID, from, to time.Time) (*repositories.UserActivitySummary, error) {
	return s.store.UserActivity(ctx, userID, from, to)
}

// DetectAnomalies scans the window for users over the volume floor or the
// flagged-entries floor.
func (s *TrailService) DetectAnomalies(ctx context.Context, from, to time.Time, actionFloor, flaggedFloor int) (*repositories.AnomalyReport, error) {
	return s.store.AnomalyScan(ctx, from, to, actionFloor, flaggedFloor)
}

const (
	exportLimit    = 10000
	exportPageSize = 500
)

// collectExport pages through the filtered trail up to the export cap. The
// list query bounds a single page, so exports walk it page by page instead of
// asking for everything at once.
func (s *TrailService) collectExport(ctx context.Context, f repositories.TrailFilter) ([]models.TrailEntry, error) {
	var entries []models.TrailEntry
	f.Limit = exportPageSize
	for f.Offset = 0; len(entries) < exportLimit; f.Offset += exportPageSize {
		page, _, err := s.store.List(ctx, f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < exportPageSize {
			break
		}
	}
	if len(entries) > exportLimit {
		entries = entries[:exportLimit]
	}
	return entries, nil
}

// ExportCSV renders the filtered trail as CSV for offline review. Export is
// capped; narrow the filter window for larger extracts.
func (s *TrailService) ExportCSV(ctx context.Context, f repositories.TrailFilter) ([]byte, error) {
	entries, err := s.collectExport(ctx, f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"timestamp", "user_email", "user_role", "action", "module",
		"entity_type", "entity_id", "description", "risk_level", "status",
		"is_suspicious", "ip_address",
	})
	for _, e := range entries {
		entityID := ""
		if e.EntityID != nil {
			entityID = *e.EntityID
		}
		_ = w.Write([]string{
			e.Timestamp.Format(time.RFC3339),
			e.UserEmail,
			e.UserRole,
			e.Action,
			e.Module,
			e.EntityType,
			entityID,
			e.Description,
			e.RiskLevel,
			e.Status,
			fmt.Sprintf("%t", e.IsSuspicious),
			e.IPAddress,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON renders the filtered trail as a JSON array.
func (s *TrailService) ExportJSON(ctx context.Context, f repositories.TrailFilter) ([]byte, error) {
	entries, err := s.collectExport(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TrailEntry{}
	}
	return json.Marshal(entries)
}
