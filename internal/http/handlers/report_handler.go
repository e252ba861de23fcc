package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *services.ReportService
	log           *zap.Logger
}

func NewReportHandler(reportService *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, log: log}
}

func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.reportService.Summary(c.Context())
	if err != nil {
		h.log.Error("compliance summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

func (h *ReportHandler) FindingsReport(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid from date"})
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid to date"})
	}

	report, err := h.reportService.FindingsReport(c.Context(), from, to)
	if err != nil {
		h.log.Error("findings report failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

func (h *ReportHandler) Compliance(c *fiber.Ctx) error {
	report, err := h.reportService.Compliance(c.Context())
	if err != nil {
		h.log.Error("compliance report failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *ReportHandler) AuditReport(c *fiber.Ctx) error {
	auditID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	report, err := h.reportService.AuditReport(c.Context(), auditID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "audit not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

func (h *ReportHandler) Trend(c *fiber.Ctx) error {
	months, _ := strconv.Atoi(c.Query("months", "6"))

	trend, err := h.reportService.Trend(c.Context(), months)
	if err != nil {
		h.log.Error("activity trend failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: trend})
}
