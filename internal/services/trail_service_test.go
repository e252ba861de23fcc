package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"go.uber.org/zap"
)

// trailReaderStub serves List pages out of a fixed slice, honoring
// Limit/Offset the way the real store does.
type trailReaderStub struct {
	entries []models.TrailEntry
}

func (s *trailReaderStub) List(_ context.Context, f repositories.TrailFilter) ([]models.TrailEntry, int64, error) {
	start := f.Offset
	if start > len(s.entries) {
		start = len(s.entries)
	}
	end := start + f.Limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return s.entries[start:end], int64(len(s.entries)), nil
}

func (s *trailReaderStub) GetByID(context.Context, uuid.UUID) (*models.TrailEntry, error) {
	return nil, nil
}

func (s *trailReaderStub) GetByEntity(context.Context, string, string, int, int) ([]models.TrailEntry, error) {
	return nil, nil
}

func (s *trailReaderStub) Statistics(context.Context, time.Time, time.Time) (*repositories.TrailStatistics, error) {
	return nil, nil
}

func (s *trailReaderStub) UserActivity(context.Context, uuid.UUID, time.Time, time.Time) (*repositories.UserActivitySummary, error) {
	return nil, nil
}

func (s *trailReaderStub) AnomalyScan(context.Context, time.Time, time.Time, int, int) (*repositories.AnomalyReport, error) {
	return nil, nil
}

func trailEntries(n int) []models.TrailEntry {
	entries := make([]models.TrailEntry, n)
	for i := range entries {
		entries[i] = models.TrailEntry{
			Action:    models.ActionRead,
			UserEmail: "auditor@example.com",
			Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		}
	}
	return entries
}

func TestExportCSVPagesPastSinglePage(t *testing.T) {
	svc := NewTrailService(&trailReaderStub{entries: trailEntries(700)}, zap.NewNop())

	out, err := svc.ExportCSV(context.Background(), repositories.TrailFilter{})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := bytes.Count(out, []byte("\n"))
	if lines != 701 { // header plus one row per entry
		t.Errorf("csv lines = %d, want 701", lines)
	}
}

func TestExportJSONPagesPastSinglePage(t *testing.T) {
	svc := NewTrailService(&trailReaderStub{entries: trailEntries(700)}, zap.NewNop())

	out, err := svc.ExportJSON(context.Background(), repositories.TrailFilter{})
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var decoded []models.TrailEntry
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 700 {
		t.Errorf("exported %d entries, want 700", len(decoded))
	}
}

func TestExportStopsAtCap(t *testing.T) {
	svc := NewTrailService(&trailReaderStub{entries: trailEntries(exportLimit + 250)}, zap.NewNop())

	entries, err := svc.collectExport(context.Background(), repositories.TrailFilter{})
	if err != nil {
		t.Fatalf("collectExport: %v", err)
	}
	if len(entries) != exportLimit {
		t.Errorf("collected %d entries, want %d", len(entries), exportLimit)
	}
}
