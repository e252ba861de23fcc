package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/activity"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"go.uber.org/zap"
)

type trailWriterStub struct {
	inserted []*models.TrailEntry
	recent   int
}

func (s *trailWriterStub) Insert(_ context.Context, e *models.TrailEntry) error {
	s.inserted = append(s.inserted, e)
	return nil
}

func (s *trailWriterStub) CountByUserSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return s.recent, nil
}

type publisherStub struct {
	published []events.Event
}

func (p *publisherStub) Publish(_ context.Context, _ string, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

func testActor() models.Actor {
	return models.Actor{
		UserID:     uuid.New(),
		Email:      "auditor@example.com",
		Role:       "auditor",
		Department: "compliance",
	}
}

func hasTag(e *models.TrailEntry, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestRecordChangeFlagsBulkDelete(t *testing.T) {
	store := &trailWriterStub{}
	pub := &publisherStub{}
	r := NewRecorder(store, pub, activity.DefaultThresholds(), zap.NewNop())

	newVals := map[string]any{}
	for i := 0; i < 11; i++ {
		newVals[fmt.Sprintf("field_%d", i)] = i
	}
	r.RecordChange(context.Background(), testActor(), models.ActionDelete,
		"Audit", uuid.NewString(), "Deleted audit", nil, newVals, nil)

	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	entry := store.inserted[0]
	if !entry.IsSuspicious {
		t.Error("delete with 11 changed fields not marked suspicious")
	}
	if !hasTag(entry, "bulk_delete") {
		t.Errorf("tags = %v, want bulk_delete", entry.Tags)
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %d events, want 1", len(pub.published))
	}
}

func TestRecordChangeSmallDeleteNotBulk(t *testing.T) {
	store := &trailWriterStub{}
	r := NewRecorder(store, &publisherStub{}, activity.DefaultThresholds(), zap.NewNop())

	r.RecordChange(context.Background(), testActor(), models.ActionDelete,
		"Audit", uuid.NewString(), "Deleted audit", nil, map[string]any{"status": "cancelled"}, nil)

	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	if hasTag(store.inserted[0], "bulk_delete") {
		t.Error("single-field delete tagged bulk_delete")
	}
}

func TestRecordChangeRiskByAction(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{models.ActionDelete, models.RiskMedium},
		{models.ActionApprove, models.RiskMedium},
		{models.ActionReject, models.RiskMedium},
		{models.ActionCreate, models.RiskLow},
		{models.ActionUpdate, models.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			store := &trailWriterStub{}
			r := NewRecorder(store, &publisherStub{}, activity.DefaultThresholds(), zap.NewNop())

			r.RecordChange(context.Background(), testActor(), tt.action,
				"Finding", uuid.NewString(), "workflow change", nil, map[string]any{"status": "x"}, nil)

			if len(store.inserted) != 1 {
				t.Fatalf("inserted = %d, want 1", len(store.inserted))
			}
			if got := store.inserted[0].RiskLevel; got != tt.want {
				t.Errorf("risk = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordChangeSkipsUnattributable(t *testing.T) {
	store := &trailWriterStub{}
	r := NewRecorder(store, &publisherStub{}, activity.DefaultThresholds(), zap.NewNop())

	r.RecordChange(context.Background(), models.Actor{}, models.ActionUpdate,
		"Audit", uuid.NewString(), "orphan change", nil, map[string]any{"status": "x"}, nil)

	if len(store.inserted) != 0 {
		t.Fatalf("inserted = %d, want 0", len(store.inserted))
	}
}

func TestRecordVolumeHeuristic(t *testing.T) {
	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		recent int
		want   bool
	}{
		{"under limit", 49, false},
		{"at limit", 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &trailWriterStub{recent: tt.recent}
			pub := &publisherStub{}
			r := NewRecorder(store, pub, activity.DefaultThresholds(), zap.NewNop())

			entry := r.Record(context.Background(), Observation{
				Actor:      testActor(),
				Method:     "POST",
				Path:       "/api/v1/audits",
				StatusCode: 201,
				OccurredAt: noon,
			})
			if entry == nil {
				t.Fatal("entry not written")
			}
			if got := hasTag(entry, "high_volume"); got != tt.want {
				t.Errorf("high_volume tag = %t, want %t", got, tt.want)
			}
			if entry.IsSuspicious != tt.want {
				t.Errorf("suspicious = %t, want %t", entry.IsSuspicious, tt.want)
			}
			if tt.want && len(pub.published) != 1 {
				t.Errorf("published = %d events, want 1", len(pub.published))
			}
		})
	}
}

func TestRecordBodyOnlyForMutations(t *testing.T) {
	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	body := map[string]any{"title": "Q2 review"}

	store := &trailWriterStub{}
	r := NewRecorder(store, &publisherStub{}, activity.DefaultThresholds(), zap.NewNop())

	r.Record(context.Background(), Observation{
		Actor: testActor(), Method: "GET", Path: "/api/v1/audits",
		Body: body, StatusCode: 200, OccurredAt: noon,
	})
	r.Record(context.Background(), Observation{
		Actor: testActor(), Method: "POST", Path: "/api/v1/audits",
		Body: body, StatusCode: 201, OccurredAt: noon,
	})

	if len(store.inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(store.inserted))
	}
	if store.inserted[0].RequestBody != nil {
		t.Errorf("read request stored a body: %v", store.inserted[0].RequestBody)
	}
	if store.inserted[1].RequestBody == nil {
		t.Error("mutation request body not stored")
	}
}

func TestRecordAuthFailedLogin(t *testing.T) {
	store := &trailWriterStub{}
	r := NewRecorder(store, &publisherStub{}, activity.DefaultThresholds(), zap.NewNop())

	r.RecordAuth(context.Background(), testActor(), models.ActionLogin, "10.0.0.1", "cli", "sess-1", false)

	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	entry := store.inserted[0]
	if entry.Status != models.TrailStatusFailed {
		t.Errorf("status = %q, want %q", entry.Status, models.TrailStatusFailed)
	}
	if entry.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q, want %q", entry.RiskLevel, models.RiskMedium)
	}
}
