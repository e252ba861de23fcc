package services

import (
	"testing"
	"time"

	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
)

func TestPadMonths(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	sparse := []repositories.FindingTrendPoint{
		{Month: "2025-03", Opened: 4, Closed: 1, Critical: 2},
		{Month: "2025-06", Opened: 2},
	}

	got := padMonths(sparse, now, 6)

	wantMonths := []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
	if len(got) != len(wantMonths) {
		t.Fatalf("series length = %d, want %d", len(got), len(wantMonths))
	}
	for i, p := range got {
		if p.Month != wantMonths[i] {
			t.Errorf("point %d: month = %q, want %q", i, p.Month, wantMonths[i])
		}
	}
	if got[2].Opened != 4 || got[2].Closed != 1 || got[2].Critical != 2 {
		t.Errorf("march bucket = %+v, want counts 4/1/2", got[2])
	}
	if got[3].Opened != 0 || got[3].Closed != 0 || got[3].Critical != 0 {
		t.Errorf("empty month not zeroed: %+v", got[3])
	}
	if got[5].Opened != 2 {
		t.Errorf("june bucket = %+v, want opened 2", got[5])
	}
}

func TestPadMonthsYearBoundary(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	got := padMonths(nil, now, 4)

	wantMonths := []string{"2024-11", "2024-12", "2025-01", "2025-02"}
	for i, p := range got {
		if p.Month != wantMonths[i] {
			t.Errorf("point %d: month = %q, want %q", i, p.Month, wantMonths[i])
		}
	}
}
