package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/middleware"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

type CARHandler struct {
	carService *services.CARService
	log        *zap.Logger
}

func NewCARHandler(carService *services.CARService, log *zap.Logger) *CARHandler {
	return &CARHandler{carService: carService, log: log}
}

func carResponse(car *models.CorrectiveAction) dto.CARResponse {
	return dto.CARResponse{
		OK:              true,
		Data:            car,
		EffectiveStatus: car.EffectiveStatus(time.Now()),
		CompletionRate:  car.CompletionRate(),
	}
}

func (h *CARHandler) CreateCAR(c *fiber.Ctx) error {
	var req dto.CreateCARRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	findingID, err := uuid.Parse(req.FindingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding_id"})
	}
	responsible, err := uuid.Parse(req.ResponsiblePerson)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid responsible_person"})
	}

	actor := middleware.GetActor(c)
	car, err := h.carService.CreateCAR(c.Context(), actor, services.CreateCARInput{
		FindingID:            findingID,
		ActionType:           req.ActionType,
		Priority:             req.Priority,
		ActionPlan:           req.ActionPlan,
		ResponsiblePerson:    responsible,
		TargetCompletionDate: req.TargetCompletionDate,
		Milestones:           req.Milestones,
		EstimatedCost:        req.EstimatedCost,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(carResponse(car))
}

func (h *CARHandler) GetCAR(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	car, err := h.carService.GetCAR(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "corrective action not found"})
	}

	return c.JSON(carResponse(car))
}

func (h *CARHandler) GetForFinding(c *fiber.Ctx) error {
	findingID, err := uuid.Parse(c.Params("findingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid finding id"})
	}

	car, err := h.carService.GetCARForFinding(c.Context(), findingID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no corrective action for finding"})
	}

	return c.JSON(carResponse(car))
}

func (h *CARHandler) ListCARs(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	filter := repositories.CARFilter{
		Status:     queryPtr(c, "status"),
		Priority:   queryPtr(c, "priority"),
		ActionType: queryPtr(c, "action_type"),
		Overdue:    c.Query("overdue") == "true",
		Limit:      limit,
		Offset:     offset,
	}
	if v := c.Query("finding_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.FindingID = &id
		}
	}
	if v := c.Query("audit_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.AuditID = &id
		}
	}
	if v := c.Query("responsible_person"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ResponsiblePerson = &id
		}
	}

	cars, total, err := h.carService.ListCARs(c.Context(), filter)
	if err != nil {
		h.log.Error("list corrective actions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.PageResponse{OK: true, Data: cars, Total: total, Limit: limit, Offset: offset})
}

func (h *CARHandler) UpdateCAR(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	var req dto.UpdateCARRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	in := services.UpdateCARInput{
		ActionType:           req.ActionType,
		Priority:             req.Priority,
		ActionPlan:           req.ActionPlan,
		TargetCompletionDate: req.TargetCompletionDate,
		Progress:             req.Progress,
		Milestones:           req.Milestones,
		EstimatedCost:        req.EstimatedCost,
		ActualCost:           req.ActualCost,
	}
	if req.ResponsiblePerson != nil {
		responsible, err := uuid.Parse(*req.ResponsiblePerson)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid responsible_person"})
		}
		in.ResponsiblePerson = &responsible
	}

	actor := middleware.GetActor(c)
	car, err := h.carService.UpdateCAR(c.Context(), id, actor, in)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(carResponse(car))
}

func (h *CARHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	actor := middleware.GetActor(c)
	car, err := h.carService.ChangeStatus(c.Context(), id, req.Status, actor)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(carResponse(car))
}

func (h *CARHandler) Verify(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	var req dto.VerifyCARRequest
	if err := c.BodyParser(&req); err != nil || req.Outcome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "outcome is required"})
	}

	actor := middleware.GetActor(c)
	car, err := h.carService.Verify(c.Context(), id, actor, req.Outcome, req.Notes)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(carResponse(car))
}

func (h *CARHandler) AddComment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	actor := middleware.GetActor(c)
	car, err := h.carService.AddComment(c.Context(), id, actor, req.Text)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(carResponse(car))
}

func (h *CARHandler) DeleteCAR(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid corrective action id"})
	}

	actor := middleware.GetActor(c)
	if err := h.carService.DeleteCAR(c.Context(), id, actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
