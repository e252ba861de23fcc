package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/shehrozeikram/erp-audit-engine/internal/activity"
	"github.com/shehrozeikram/erp-audit-engine/internal/config"
	"github.com/shehrozeikram/erp-audit-engine/internal/db"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	apphttp "github.com/shehrozeikram/erp-audit-engine/internal/http"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/handlers"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"github.com/shehrozeikram/erp-audit-engine/internal/storage"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	trailRepo := repositories.NewTrailRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	findingRepo := repositories.NewFindingRepo(pool)
	carRepo := repositories.NewCARRepo(pool)
	scheduleRepo := repositories.NewScheduleRepo(pool)
	seqRepo := repositories.NewSequenceRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	thresholds := activity.Thresholds{
		VolumeLimit:     cfg.VolumeThreshold,
		VolumeWindow:    cfg.VolumeWindow,
		BulkDeleteLimit: cfg.BulkDeleteThreshold,
	}
	recorder := services.NewRecorder(trailRepo, publisher, thresholds, log)
	trailService := services.NewTrailService(trailRepo, log)
	auditService := services.NewAuditService(auditRepo, findingRepo, seqRepo, recorder, publisher, log)
	findingService := services.NewFindingService(findingRepo, auditRepo, seqRepo, recorder, publisher, log)
	carService := services.NewCARService(carRepo, findingRepo, seqRepo, recorder, publisher, log)
	scheduleService := services.NewScheduleService(scheduleRepo, auditRepo, seqRepo, recorder, publisher, log)
	reportService := services.NewReportService(auditRepo, findingRepo, carRepo, trailRepo, log)

	attachments, err := storage.NewAttachmentStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal("failed to init attachment store", zap.Error(err))
	}

	// Handlers
	auditHandler := handlers.NewAuditHandler(auditService, attachments, log)
	findingHandler := handlers.NewFindingHandler(findingService, log)
	carHandler := handlers.NewCARHandler(carService, log)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, log)
	trailHandler := handlers.NewTrailHandler(trailService, recorder, cfg, log)
	reportHandler := handlers.NewReportHandler(reportService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, recorder, auditHandler, findingHandler, carHandler, scheduleHandler, trailHandler, reportHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
