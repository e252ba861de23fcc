package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextScheduledFrom(t *testing.T) {
	start := date(2025, time.January, 1)

	tests := []struct {
		name     string
		pattern  string
		interval int
		from     *time.Time
		expected *time.Time
	}{
		{"none returns nil", RecurrenceNone, 1, nil, nil},
		{"daily from start", RecurrenceDaily, 1, nil, ptr(date(2025, time.January, 2))},
		{"weekly from start", RecurrenceWeekly, 1, nil, ptr(date(2025, time.January, 8))},
		{"biweekly", RecurrenceWeekly, 2, nil, ptr(date(2025, time.January, 15))},
		{"monthly from start", RecurrenceMonthly, 1, nil, ptr(date(2025, time.February, 1))},
		{"quarterly from start", RecurrenceQuarterly, 1, nil, ptr(date(2025, time.April, 1))},
		{"annually from start", RecurrenceAnnually, 1, nil, ptr(date(2026, time.January, 1))},
		{"monthly from explicit base", RecurrenceMonthly, 1, ptr(date(2025, time.March, 15)), ptr(date(2025, time.April, 15))},
		{"quarterly chain", RecurrenceQuarterly, 1, ptr(date(2025, time.April, 1)), ptr(date(2025, time.July, 1))},
		{"unknown pattern returns nil", "fortnightly", 1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{
				StartDate:          start,
				RecurrencePattern:  tt.pattern,
				RecurrenceInterval: tt.interval,
			}
			got := s.NextScheduledFrom(tt.from)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("NextScheduledFrom() = %v, want %v", got, tt.expected)
			}
			if got != nil && !got.Equal(*tt.expected) {
				t.Errorf("NextScheduledFrom() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestNextScheduledFromMonotonic(t *testing.T) {
	starts := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.January, 31), // month-end, exercises AddDate normalization
	}
	patterns := []string{
		RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly,
		RecurrenceQuarterly, RecurrenceAnnually,
	}

	for _, start := range starts {
		for _, pattern := range patterns {
			t.Run(pattern+"/"+start.Format("2006-01-02"), func(t *testing.T) {
				s := &Schedule{
					StartDate:          start,
					RecurrencePattern:  pattern,
					RecurrenceInterval: 1,
				}
				prev := start
				for n := 1; n <= 24; n++ {
					next := s.NextScheduledFrom(&prev)
					if next == nil {
						t.Fatalf("step %d: next date is nil", n)
					}
					if !next.After(prev) {
						t.Fatalf("step %d: %s not after %s", n, next, prev)
					}
					prev = *next
				}
			})
		}
	}
}

func TestNextScheduledFromMonthlySpacing(t *testing.T) {
	s := &Schedule{
		StartDate:          date(2025, time.January, 1),
		RecurrencePattern:  RecurrenceMonthly,
		RecurrenceInterval: 1,
	}
	prev := s.StartDate
	for n := 1; n <= 24; n++ {
		next := s.NextScheduledFrom(&prev)
		want := s.StartDate.AddDate(0, n, 0)
		if next == nil || !next.Equal(want) {
			t.Fatalf("step %d: got %v, want %s", n, next, want)
		}
		prev = *next
	}
}

func TestNextScheduledFromMonthEndClamp(t *testing.T) {
	// AddDate normalizes Jan 31 + 1 month to Mar 3 (non-leap year).
	s := &Schedule{
		StartDate:          date(2025, time.January, 31),
		RecurrencePattern:  RecurrenceMonthly,
		RecurrenceInterval: 1,
	}
	got := s.NextScheduledFrom(nil)
	if got == nil || !got.Equal(date(2025, time.March, 3)) {
		t.Errorf("NextScheduledFrom() = %v, want 2025-03-03", got)
	}
}

func TestScheduleValidate(t *testing.T) {
	valid := func() *Schedule {
		return &Schedule{
			Name:                  "Quarterly compliance audit",
			ScheduleType:          ScheduleTypeQuarterly,
			AuditType:             AuditTypeCompliance,
			RecurrencePattern:     RecurrenceQuarterly,
			RecurrenceInterval:    1,
			StartDate:             date(2025, time.January, 1),
			DurationDays:          5,
			IncludeAllDepartments: true,
		}
	}

	if violations := valid().Validate(); len(violations) != 0 {
		t.Fatalf("valid schedule produced violations: %v", violations)
	}

	tests := []struct {
		name   string
		mutate func(*Schedule)
		want   string
	}{
		{"missing name", func(s *Schedule) { s.Name = "" }, "schedule name is required"},
		{"bad schedule type", func(s *Schedule) { s.ScheduleType = "biannual" }, `invalid schedule type "biannual"`},
		{"bad audit type", func(s *Schedule) { s.AuditType = "external" }, `invalid audit type "external"`},
		{"bad recurrence", func(s *Schedule) { s.RecurrencePattern = "sometimes" }, `invalid recurrence pattern "sometimes"`},
		{"end before start", func(s *Schedule) { s.EndDate = ptr(date(2024, time.December, 1)) }, "end date must be after start date"},
		{"zero interval", func(s *Schedule) { s.RecurrenceInterval = 0 }, "recurrence interval must be at least 1"},
		{"no departments", func(s *Schedule) { s.IncludeAllDepartments = false }, "at least one department must be specified"},
		{"zero duration", func(s *Schedule) { s.DurationDays = 0 }, "duration must be at least 1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			violations := s.Validate()
			found := false
			for _, v := range violations {
				if v == tt.want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want to contain %q", violations, tt.want)
			}
		})
	}
}

func TestScheduleValidateCollectsAllViolations(t *testing.T) {
	s := &Schedule{}
	violations := s.Validate()
	if len(violations) < 5 {
		t.Errorf("empty schedule produced %d violations, want at least 5: %v", len(violations), violations)
	}
}

func ptr(t time.Time) *time.Time { return &t }
