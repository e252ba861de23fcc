package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"go.uber.org/zap"
)

// ReportService aggregates the compliance stores into dashboard-shaped
// summaries. Everything here is read-only.
type ReportService struct {
	auditRepo   *repositories.AuditRepo
	findingRepo *repositories.FindingRepo
	carRepo     *repositories.CARRepo
	trailRepo   *repositories.TrailRepo
	log         *zap.Logger
}

func NewReportService(
	auditRepo *repositories.AuditRepo,
	findingRepo *repositories.FindingRepo,
	carRepo *repositories.CARRepo,
	trailRepo *repositories.TrailRepo,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		auditRepo:   auditRepo,
		findingRepo: findingRepo,
		carRepo:     carRepo,
		trailRepo:   trailRepo,
		log:         log,
	}
}

type ComplianceSummary struct {
	AuditsByStatus     []repositories.AuditStatusCount `json:"audits_by_status"`
	FindingsBySeverity []repositories.SeverityCount    `json:"findings_by_severity"`
	OpenFindings       int64                           `json:"open_findings"`
	OverdueFindings    int64                           `json:"overdue_findings"`
	OpenActions        int64                           `json:"open_actions"`
	OverdueActions     int64                           `json:"overdue_actions"`
	GeneratedAt        time.Time                       `json:"generated_at"`
}

func (s *ReportService) Summary(ctx context.Context) (*ComplianceSummary, error) {
	summary := &ComplianceSummary{GeneratedAt: time.Now()}

	var err error
	if summary.AuditsByStatus, err = s.auditRepo.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if summary.FindingsBySeverity, err = s.findingRepo.CountBySeverity(ctx, nil); err != nil {
		return nil, err
	}

	open := models.FindingStatusOpen
	if _, summary.OpenFindings, err = s.findingRepo.List(ctx, repositories.FindingFilter{Status: &open, Limit: 1}); err != nil {
		return nil, err
	}
	if _, summary.OverdueFindings, err = s.findingRepo.List(ctx, repositories.FindingFilter{Overdue: true, Limit: 1}); err != nil {
		return nil, err
	}

	carOpen := models.CARStatusOpen
	if _, summary.OpenActions, err = s.carRepo.List(ctx, repositories.CARFilter{Status: &carOpen, Limit: 1}); err != nil {
		return nil, err
	}
	if _, summary.OverdueActions, err = s.carRepo.List(ctx, repositories.CARFilter{Overdue: true, Limit: 1}); err != nil {
		return nil, err
	}

	return summary, nil
}

type FindingsReport struct {
	BySeverity   []repositories.SeverityCount `json:"by_severity"`
	ByCategory   []repositories.CategoryCount `json:"by_category"`
	Overdue      []models.Finding             `json:"overdue"`
	OverdueTotal int64                        `json:"overdue_total"`
	GeneratedAt  time.Time                    `json:"generated_at"`
}

// FindingsReport breaks the finding set down by severity and category. The
// optional range narrows the category buckets to findings raised within it.
func (s *ReportService) FindingsReport(ctx context.Context, from, to *time.Time) (*FindingsReport, error) {
	report := &FindingsReport{GeneratedAt: time.Now()}

	var err error
	if report.BySeverity, err = s.findingRepo.CountBySeverity(ctx, nil); err != nil {
		return nil, err
	}
	if report.ByCategory, err = s.findingRepo.CountByCategory(ctx, from, to); err != nil {
		return nil, err
	}
	if report.Overdue, report.OverdueTotal, err = s.findingRepo.List(ctx, repositories.FindingFilter{Overdue: true, Limit: 50}); err != nil {
		return nil, err
	}
	return report, nil
}

type ComplianceReport struct {
	Modules     []repositories.ModuleCompliance `json:"modules"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// Compliance buckets audit and finding volume per ERP module.
func (s *ReportService) Compliance(ctx context.Context) (*ComplianceReport, error) {
	modules, err := s.auditRepo.ComplianceByModule(ctx)
	if err != nil {
		return nil, err
	}
	return &ComplianceReport{Modules: modules, GeneratedAt: time.Now()}, nil
}

type AuditReport struct {
	Audit            *models.Audit             `json:"audit"`
	Findings         []models.Finding          `json:"findings"`
	OpenActions      []models.CorrectiveAction `json:"open_actions"`
	EffectiveStatus  map[string]string         `json:"effective_statuses"` // CAR id -> effective status
	TrailSampleCount int64                     `json:"trail_sample_count"`
}

// AuditReport assembles one audit with its full finding and action set.
func (s *ReportService) AuditReport(ctx context.Context, auditID uuid.UUID) (*AuditReport, error) {
	audit, err := s.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}

	findings, _, err := s.findingRepo.List(ctx, repositories.FindingFilter{AuditID: &auditID, Limit: 100})
	if err != nil {
		return nil, err
	}
	actions, _, err := s.carRepo.List(ctx, repositories.CARFilter{AuditID: &auditID, Limit: 100})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	effective := make(map[string]string, len(actions))
	for _, a := range actions {
		effective[a.ID.String()] = a.EffectiveStatus(now)
	}

	return &AuditReport{
		Audit:           audit,
		Findings:        findings,
		OpenActions:     actions,
		EffectiveStatus: effective,
	}, nil
}

type TrendPoint struct {
	Month      string `json:"month"` // YYYY-MM
	Total      int64  `json:"total"`
	Suspicious int64  `json:"suspicious"`
	Failed     int64  `json:"failed"`
}

type TrendReport struct {
	Activity []TrendPoint                     `json:"activity"`
	Findings []repositories.FindingTrendPoint `json:"findings"`
}

// Trend returns the per-month findings series (opened/closed/critical) and
// the per-month trail activity series for the trailing n months.
func (s *ReportService) Trend(ctx context.Context, months int) (*TrendReport, error) {
	if months <= 0 || months > 24 {
		months = 6
	}
	now := time.Now()

	activitySeries, err := s.activityTrend(ctx, now, months)
	if err != nil {
		return nil, err
	}

	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	counts, err := s.findingRepo.MonthlyCounts(ctx, windowStart)
	if err != nil {
		return nil, err
	}

	return &TrendReport{
		Activity: activitySeries,
		Findings: padMonths(counts, now, months),
	}, nil
}

func (s *ReportService) activityTrend(ctx context.Context, now time.Time, months int) ([]TrendPoint, error) {
	points := make([]TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

		stats, err := s.trailRepo.Statistics(ctx, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		points = append(points, TrendPoint{
			Month:      monthStart.Format("2006-01"),
			Total:      stats.Total,
			Suspicious: stats.Suspicious,
			Failed:     stats.Failed,
		})
	}
	return points, nil
}

// padMonths expands the sparse month buckets into a dense series covering the
// trailing window, oldest first, with zero rows for empty months.
func padMonths(points []repositories.FindingTrendPoint, now time.Time, months int) []repositories.FindingTrendPoint {
	byMonth := make(map[string]repositories.FindingTrendPoint, len(points))
	for _, p := range points {
		byMonth[p.Month] = p
	}

	out := make([]repositories.FindingTrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0).Format("2006-01")
		p, ok := byMonth[month]
		if !ok {
			p = repositories.FindingTrendPoint{Month: month}
		}
		out = append(out, p)
	}
	return out
}
