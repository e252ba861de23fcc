package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/middleware"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"github.com/shehrozeikram/erp-audit-engine/internal/storage"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService *services.AuditService
	attachments  *storage.AttachmentStore
	log          *zap.Logger
}

func NewAuditHandler(auditService *services.AuditService, attachments *storage.AttachmentStore, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, attachments: attachments, log: log}
}

func (h *AuditHandler) CreateAudit(c *fiber.Ctx) error {
	var req dto.CreateAuditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	leadAuditor, err := uuid.Parse(req.LeadAuditor)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid lead_auditor"})
	}

	actor := middleware.GetActor(c)
	audit, err := h.auditService.CreateAudit(c.Context(), actor, services.CreateAuditInput{
		Title:            req.Title,
		Description:      req.Description,
		AuditType:        req.AuditType,
		Module:           req.Module,
		Department:       req.Department,
		PlannedStartDate: req.PlannedStartDate,
		PlannedEndDate:   req.PlannedEndDate,
		LeadAuditor:      leadAuditor,
		AuditTeam:        req.AuditTeam,
		Objectives:       req.Objectives,
		RiskLevel:        req.RiskLevel,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *AuditHandler) GetAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	audit, err := h.auditService.GetAudit(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "audit not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *AuditHandler) ListAudits(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	filter := repositories.AuditFilter{
		Status:     queryPtr(c, "status"),
		AuditType:  queryPtr(c, "audit_type"),
		Department: queryPtr(c, "department"),
		Module:     queryPtr(c, "module"),
		RiskLevel:  queryPtr(c, "risk_level"),
		Search:     queryPtr(c, "search"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := c.Query("lead_auditor"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.LeadAuditor = &id
		}
	}

	audits, total, err := h.auditService.ListAudits(c.Context(), filter)
	if err != nil {
		h.log.Error("list audits failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.PageResponse{OK: true, Data: audits, Total: total, Limit: limit, Offset: offset})
}

func (h *AuditHandler) UpdateAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	var req dto.UpdateAuditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	in := services.UpdateAuditInput{
		Title:            req.Title,
		Description:      req.Description,
		Module:           req.Module,
		Department:       req.Department,
		PlannedStartDate: req.PlannedStartDate,
		PlannedEndDate:   req.PlannedEndDate,
		AuditTeam:        req.AuditTeam,
		Progress:         req.Progress,
		Objectives:       req.Objectives,
		RiskLevel:        req.RiskLevel,
	}
	if req.LeadAuditor != nil {
		leadAuditor, err := uuid.Parse(*req.LeadAuditor)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid lead_auditor"})
		}
		in.LeadAuditor = &leadAuditor
	}

	actor := middleware.GetActor(c)
	audit, err := h.auditService.UpdateAudit(c.Context(), id, actor, in)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *AuditHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	actor := middleware.GetActor(c)
	audit, err := h.auditService.ChangeStatus(c.Context(), id, req.Status, actor)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *AuditHandler) DeleteAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	actor := middleware.GetActor(c)
	if err := h.auditService.DeleteAudit(c.Context(), id, actor); err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AuditHandler) UploadAttachment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "file is required"})
	}

	actor := middleware.GetActor(c)
	att, err := h.attachments.Save(fh, actor.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	audit, err := h.auditService.AddAttachment(c.Context(), id, actor, *att)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: audit})
}

func (h *AuditHandler) DownloadAttachment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid audit id"})
	}

	audit, err := h.auditService.GetAudit(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "audit not found"})
	}

	filename := c.Params("filename")
	var att *models.Attachment
	for i := range audit.Attachments {
		if audit.Attachments[i].Filename == filename {
			att = &audit.Attachments[i]
			break
		}
	}
	if att == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "attachment not found"})
	}

	file, err := h.attachments.Open(att.Filename)
	if err != nil {
		h.log.Error("failed to open attachment", zap.String("filename", att.Filename), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "attachment not found"})
	}

	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+att.OriginalName+`"`)
	return c.SendStream(file)
}
