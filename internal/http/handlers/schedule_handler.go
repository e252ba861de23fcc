package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/middleware"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	log             *zap.Logger
}

func NewScheduleHandler(scheduleService *services.ScheduleService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, log: log}
}

func scheduleFromRequest(req dto.ScheduleRequest) (*models.Schedule, error) {
	schedule := &models.Schedule{
		Name:                  req.Name,
		Description:           req.Description,
		ScheduleType:          req.ScheduleType,
		Frequency:             req.Frequency,
		AuditType:             req.AuditType,
		Module:                req.Module,
		Departments:           req.Departments,
		IncludeAllDepartments: req.IncludeAllDepartments,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		DurationDays:          req.DurationDays,
		RecurrencePattern:     req.RecurrencePattern,
		RecurrenceInterval:    req.RecurrenceInterval,
		DefaultAuditTeam:      req.DefaultAuditTeam,
		DefaultChecklist:      req.DefaultChecklist,
		Notifications:         req.Notifications,
	}
	if schedule.DurationDays == 0 {
		schedule.DurationDays = 5
	}
	if schedule.RecurrenceInterval == 0 {
		schedule.RecurrenceInterval = 1
	}
	if req.DefaultLeadAuditor != nil {
		id, err := uuid.Parse(*req.DefaultLeadAuditor)
		if err != nil {
			return nil, err
		}
		schedule.DefaultLeadAuditor = &id
	}
	return schedule, nil
}

func scheduleError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "schedule validation failed",
			Details: ve.Violations,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	schedule, err := scheduleFromRequest(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid default_lead_auditor"})
	}

	actor := middleware.GetActor(c)
	created, err := h.scheduleService.CreateSchedule(c.Context(), actor, schedule)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: created})
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	schedule, err := h.scheduleService.GetSchedule(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "schedule not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: schedule})
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	filter := repositories.ScheduleFilter{
		Status:       queryPtr(c, "status"),
		ScheduleType: queryPtr(c, "schedule_type"),
		AuditType:    queryPtr(c, "audit_type"),
		Limit:        limit,
		Offset:       offset,
	}

	schedules, total, err := h.scheduleService.ListSchedules(c.Context(), filter)
	if err != nil {
		h.log.Error("list schedules failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.PageResponse{OK: true, Data: schedules, Total: total, Limit: limit, Offset: offset})
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	schedule, err := scheduleFromRequest(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid default_lead_auditor"})
	}

	actor := middleware.GetActor(c)
	updated, err := h.scheduleService.UpdateSchedule(c.Context(), id, actor, schedule)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

func (h *ScheduleHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	actor := middleware.GetActor(c)
	schedule, err := h.scheduleService.SetStatus(c.Context(), id, req.Status, actor)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: schedule})
}

// GenerateNow forces generation of the next audit outside the worker tick.
func (h *ScheduleHandler) GenerateNow(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	schedule, err := h.scheduleService.GetSchedule(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "schedule not found"})
	}
	if schedule.Status != models.ScheduleStatusActive {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "schedule is not active"})
	}

	audit, err := h.scheduleService.GenerateNextAudit(c.Context(), schedule)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *ScheduleHandler) RefreshStatistics(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	schedule, err := h.scheduleService.RefreshStatistics(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: schedule})
}

func (h *ScheduleHandler) DeleteSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid schedule id"})
	}

	actor := middleware.GetActor(c)
	if err := h.scheduleService.DeleteSchedule(c.Context(), id, actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
