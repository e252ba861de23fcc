package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/middleware"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

type FindingHandler struct {
	findingService *services.FindingService
	log            *zap.Logger
}

func NewFindingHandler(findingService *services.FindingService, log *zap.Logger) *FindingHandler {
	return &FindingHandler{findingService: findingService, log: log}
}

func (h *FindingHandler) CreateFinding(c *fiber.Ctx) error {
	var req dto.CreateFindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	auditID, err := uuid.Parse(req.AuditID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit_id"})
	}

	actor := middleware.GetActor(c)
	finding, err := h.findingService.CreateFinding(c.Context(), actor, services.CreateFindingInput{
		AuditID:              auditID,
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Severity:             req.Severity,
		Impact:               req.Impact,
		Process:              req.Process,
		Location:             req.Location,
		Evidence:             req.Evidence,
		Criteria:             req.Criteria,
		RootCause:            req.RootCause,
		TargetResolutionDate: req.TargetResolutionDate,
		FinancialImpact:      req.FinancialImpact,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: finding})
}

func (h *FindingHandler) GetFinding(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	finding, err := h.findingService.GetFinding(c.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "finding not found"})
		}
		h.log.Error("get finding failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: finding})
}

func (h *FindingHandler) ListFindings(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	filter := repositories.FindingFilter{
		Status:   queryPtr(c, "status"),
		Severity: queryPtr(c, "severity"),
		Category: queryPtr(c, "category"),
		Search:   queryPtr(c, "search"),
		Overdue:  c.Query("overdue") == "true",
		Limit:    limit,
		Offset:   offset,
	}
	if v := c.Query("audit_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.AuditID = &id
		}
	}
	if v := c.Query("assigned_to"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.AssignedTo = &id
		}
	}

	findings, total, err := h.findingService.ListFindings(c.Context(), filter)
	if err != nil {
		h.log.Error("list findings failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.PageResponse{OK: true, Data: findings, Total: total, Limit: limit, Offset: offset})
}

func (h *FindingHandler) UpdateFinding(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	var req dto.UpdateFindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	actor := middleware.GetActor(c)
	finding, err := h.findingService.UpdateFinding(c.Context(), id, actor, services.UpdateFindingInput{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Severity:             req.Severity,
		Impact:               req.Impact,
		Process:              req.Process,
		Location:             req.Location,
		Evidence:             req.Evidence,
		Criteria:             req.Criteria,
		RootCause:            req.RootCause,
		TargetResolutionDate: req.TargetResolutionDate,
		FinancialImpact:      req.FinancialImpact,
		FollowUpNotes:        req.FollowUpNotes,
		FollowUpDate:         req.FollowUpDate,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: finding})
}

func (h *FindingHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	actor := middleware.GetActor(c)
	finding, err := h.findingService.ChangeStatus(c.Context(), id, req.Status, actor)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: finding})
}

func (h *FindingHandler) AssignFinding(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	var req dto.AssignFindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	assignee, err := uuid.Parse(req.AssignedTo)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid assigned_to"})
	}

	actor := middleware.GetActor(c)
	finding, err := h.findingService.AssignFinding(c.Context(), id, assignee, actor)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: finding})
}

func (h *FindingHandler) DeleteFinding(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	actor := middleware.GetActor(c)
	if err := h.findingService.DeleteFinding(c.Context(), id, actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
