package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shehrozeikram/erp-audit-engine/internal/activity"
	"github.com/shehrozeikram/erp-audit-engine/internal/config"
	"github.com/shehrozeikram/erp-audit-engine/internal/db"
	"github.com/shehrozeikram/erp-audit-engine/internal/events"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	trailRepo := repositories.NewTrailRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	findingRepo := repositories.NewFindingRepo(pool)
	carRepo := repositories.NewCARRepo(pool)
	scheduleRepo := repositories.NewScheduleRepo(pool)
	seqRepo := repositories.NewSequenceRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	thresholds := activity.Thresholds{
		VolumeLimit:     cfg.VolumeThreshold,
		VolumeWindow:    cfg.VolumeWindow,
		BulkDeleteLimit: cfg.BulkDeleteThreshold,
	}
	recorder := services.NewRecorder(trailRepo, publisher, thresholds, log)
	scheduleService := services.NewScheduleService(scheduleRepo, auditRepo, seqRepo, recorder, publisher, log)
	carService := services.NewCARService(carRepo, findingRepo, seqRepo, recorder, publisher, log)

	log.Info("scheduler started",
		zap.Duration("schedule_interval", cfg.ScheduleInterval),
		zap.Duration("statistics_interval", cfg.StatisticsInterval),
	)

	// Run jobs on tickers
	scheduleTicker := time.NewTicker(cfg.ScheduleInterval)
	statsTicker := time.NewTicker(cfg.StatisticsInterval)
	carReminderTicker := time.NewTicker(24 * time.Hour)
	defer scheduleTicker.Stop()
	defer statsTicker.Stop()
	defer carReminderTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-scheduleTicker.C:
			runGeneration(ctx, scheduleService, cfg.ScheduleInterval, log)
		case <-statsTicker.C:
			runStatistics(ctx, scheduleRepo, scheduleService, log)
		case <-carReminderTicker.C:
			if err := carService.RemindDue(ctx, 24*time.Hour); err != nil {
				log.Error("failed to send corrective action reminders", zap.Error(err))
			}
		case <-sigCh:
			log.Info("shutting down scheduler")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runGeneration(ctx context.Context, scheduleService *services.ScheduleService, tick time.Duration, log *zap.Logger) {
	now := time.Now()

	if err := scheduleService.RunDue(ctx, now); err != nil {
		log.Error("failed to run due schedules", zap.Error(err))
	}
	if err := scheduleService.CheckReminders(ctx, now, tick); err != nil {
		log.Error("failed to check reminders", zap.Error(err))
	}
}

func runStatistics(ctx context.Context, scheduleRepo *repositories.ScheduleRepo, scheduleService *services.ScheduleService, log *zap.Logger) {
	status := models.ScheduleStatusActive
	schedules, _, err := scheduleRepo.List(ctx, repositories.ScheduleFilter{Status: &status, Limit: 500})
	if err != nil {
		log.Error("failed to list active schedules", zap.Error(err))
		return
	}

	for _, schedule := range schedules {
		if _, err := scheduleService.RefreshStatistics(ctx, schedule.ID); err != nil {
			log.Error("failed to refresh schedule statistics",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
		}
	}
}
