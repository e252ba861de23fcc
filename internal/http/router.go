package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/shehrozeikram/erp-audit-engine/internal/config"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/handlers"
	"github.com/shehrozeikram/erp-audit-engine/internal/middleware"
	"github.com/shehrozeikram/erp-audit-engine/internal/rbac"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	recorder *services.Recorder,
	auditHandler *handlers.AuditHandler,
	findingHandler *handlers.FindingHandler,
	carHandler *handlers.CARHandler,
	scheduleHandler *handlers.ScheduleHandler,
	trailHandler *handlers.TrailHandler,
	reportHandler *handlers.ReportHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Protected endpoints; the trail middleware records every mutation that
	// passes through them.
	protected := api.Group("", middleware.AuthMiddleware(cfg, log), middleware.AuditTrailMiddleware(recorder))

	// Audits
	audits := protected.Group("/audits", middleware.RequirePermission(rbac.PermViewAudits))
	audits.Get("", auditHandler.ListAudits)
	audits.Get("/:id", auditHandler.GetAudit)
	audits.Post("", middleware.RequirePermission(rbac.PermManageAudits), auditHandler.CreateAudit)
	audits.Put("/:id", middleware.RequirePermission(rbac.PermManageAudits), auditHandler.UpdateAudit)
	audits.Post("/:id/status", middleware.RequirePermission(rbac.PermManageAudits), auditHandler.ChangeStatus)
	audits.Post("/:id/attachments", middleware.RequirePermission(rbac.PermManageAudits), auditHandler.UploadAttachment)
	audits.Get("/:id/attachments/:filename", auditHandler.DownloadAttachment)
	audits.Delete("/:id", middleware.RequirePermission(rbac.PermDeleteAudits), auditHandler.DeleteAudit)

	// Findings
	findings := protected.Group("/findings", middleware.RequirePermission(rbac.PermViewAudits))
	findings.Get("", findingHandler.ListFindings)
	findings.Get("/:id", findingHandler.GetFinding)
	findings.Post("", middleware.RequirePermission(rbac.PermManageFindings), findingHandler.CreateFinding)
	findings.Put("/:id", middleware.RequirePermission(rbac.PermManageFindings), findingHandler.UpdateFinding)
	findings.Post("/:id/status", middleware.RequirePermission(rbac.PermManageFindings), findingHandler.ChangeStatus)
	findings.Post("/:id/assign", middleware.RequirePermission(rbac.PermAssignFindings), findingHandler.AssignFinding)
	findings.Delete("/:id", middleware.RequirePermission(rbac.PermManageFindings), findingHandler.DeleteFinding)

	// Corrective actions
	actions := protected.Group("/corrective-actions", middleware.RequirePermission(rbac.PermViewAudits))
	actions.Get("", carHandler.ListCARs)
	actions.Get("/by-finding/:findingId", carHandler.GetForFinding)
	actions.Get("/:id", carHandler.GetCAR)
	actions.Post("", middleware.RequirePermission(rbac.PermManageCARs), carHandler.CreateCAR)
	actions.Put("/:id", middleware.RequirePermission(rbac.PermManageCARs), carHandler.UpdateCAR)
	actions.Post("/:id/status", middleware.RequirePermission(rbac.PermManageCARs), carHandler.ChangeStatus)
	actions.Post("/:id/verify", middleware.RequirePermission(rbac.PermManageCARs), carHandler.Verify)
	actions.Post("/:id/comments", middleware.RequirePermission(rbac.PermManageCARs), carHandler.AddComment)
	actions.Delete("/:id", middleware.RequirePermission(rbac.PermManageCARs), carHandler.DeleteCAR)

	// Schedules
	schedules := protected.Group("/schedules", middleware.RequirePermission(rbac.PermManageSchedules))
	schedules.Get("", scheduleHandler.ListSchedules)
	schedules.Get("/:id", scheduleHandler.GetSchedule)
	schedules.Post("", scheduleHandler.CreateSchedule)
	schedules.Put("/:id", scheduleHandler.UpdateSchedule)
	schedules.Post("/:id/status", scheduleHandler.ChangeStatus)
	schedules.Post("/:id/generate", scheduleHandler.GenerateNow)
	schedules.Post("/:id/statistics/refresh", scheduleHandler.RefreshStatistics)
	schedules.Delete("/:id", scheduleHandler.DeleteSchedule)

	// Activity trail (read only)
	trail := protected.Group("/trail", middleware.RequirePermission(rbac.PermViewTrail))
	trail.Post("/auth-events", trailHandler.RecordAuthEvent)
	trail.Get("", trailHandler.ListTrail)
	trail.Get("/statistics", trailHandler.Statistics)
	trail.Get("/anomalies", trailHandler.Anomalies)
	trail.Get("/export", middleware.RequirePermission(rbac.PermExportTrail), trailHandler.Export)
	trail.Get("/users/:userId", trailHandler.UserActivity)
	trail.Get("/entity/:entityType/:entityId", trailHandler.GetEntityTrail)
	trail.Get("/:id", trailHandler.GetTrailEntry)

	// Reports
	reports := protected.Group("/reports", middleware.RequirePermission(rbac.PermViewReports))
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/findings", reportHandler.FindingsReport)
	reports.Get("/compliance", reportHandler.Compliance)
	reports.Get("/trend", reportHandler.Trend)
	reports.Get("/audits/:id", reportHandler.AuditReport)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
