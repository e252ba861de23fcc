package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shehrozeikram/erp-audit-engine/internal/config"
	"github.com/shehrozeikram/erp-audit-engine/internal/http/dto"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/repositories"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
	"go.uber.org/zap"
)

type TrailHandler struct {
	trailService *services.TrailService
	recorder     *services.Recorder
	cfg          *config.Config
	log          *zap.Logger
}

func NewTrailHandler(trailService *services.TrailService, recorder *services.Recorder, cfg *config.Config, log *zap.Logger) *TrailHandler {
	return &TrailHandler{trailService: trailService, recorder: recorder, cfg: cfg, log: log}
}

func (h *TrailHandler) buildFilter(c *fiber.Ctx) (repositories.TrailFilter, error) {
	limit, offset := parsePaging(c)
	filter := repositories.TrailFilter{
		Module:     queryPtr(c, "module"),
		Action:     queryPtr(c, "action"),
		EntityType: queryPtr(c, "entity_type"),
		EntityID:   queryPtr(c, "entity_id"),
		RiskLevel:  queryPtr(c, "risk_level"),
		Status:     queryPtr(c, "status"),
		Category:   queryPtr(c, "category"),
		Search:     queryPtr(c, "search"),
		Limit:      limit,
		Offset:     offset,
	}

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.UserID = &id
	}
	if raw := c.Query("suspicious"); raw != "" {
		suspicious, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.Suspicious = &suspicious
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}

func (h *TrailHandler) ListTrail(c *fiber.Ctx) error {
	filter, err := h.buildFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid filter: " + err.Error()})
	}

	entries, total, err := h.trailService.List(c.Context(), filter)
	if err != nil {
		h.log.Error("list trail failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.PageResponse{OK: true, Data: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *TrailHandler) GetTrailEntry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entry id"})
	}

	entry, err := h.trailService.GetByID(c.Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "entry not found"})
		}
		h.log.Error("get trail entry failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *TrailHandler) GetEntityTrail(c *fiber.Ctx) error {
	entityType := c.Params("entityType")
	entityID := c.Params("entityId")
	if entityType == "" || entityID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "entity type and id are required"})
	}

	limit, offset := parsePaging(c)
	entries, err := h.trailService.GetByEntity(c.Context(), entityType, entityID, limit, offset)
	if err != nil {
		h.log.Error("entity trail failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *TrailHandler) Statistics(c *fiber.Ctx) error {
	from, to := parseWindow(c)

	stats, err := h.trailService.Statistics(c.Context(), from, to)
	if err != nil {
		h.log.Error("trail statistics failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}

func (h *TrailHandler) UserActivity(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	from, to := parseWindow(c)

	summary, err := h.trailService.UserActivity(c.Context(), userID, from, to)
	if err != nil {
		h.log.Error("user activity failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

func (h *TrailHandler) Anomalies(c *fiber.Ctx) error {
	from, to := parseWindow(c)

	report, err := h.trailService.DetectAnomalies(c.Context(), from, to, h.cfg.AnomalyActionFloor, h.cfg.AnomalyFlaggedFloor)
	if err != nil {
		h.log.Error("anomaly scan failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

// RecordAuthEvent ingests a login/logout event from the identity service.
// Session issuance lives outside this engine, so session activity arrives
// over this endpoint instead of being observed by the middleware.
func (h *TrailHandler) RecordAuthEvent(c *fiber.Ctx) error {
	var req dto.AuthEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if req.Action != models.ActionLogin && req.Action != models.ActionLogout {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "action must be login or logout"})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user_id"})
	}

	actor := models.Actor{
		UserID:     userID,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
	}
	if !actor.Attributable() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "user_id and email are required"})
	}

	h.recorder.RecordAuth(c.Context(), actor, req.Action, req.IPAddress, req.UserAgent, req.SessionID, req.Success)
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true})
}

func (h *TrailHandler) Export(c *fiber.Ctx) error {
	filter, err := h.buildFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid filter: " + err.Error()})
	}

	format := c.Query("format", "csv")
	stamp := time.Now().Format("20060102-150405")

	switch format {
	case "csv":
		data, err := h.trailService.ExportCSV(c.Context(), filter)
		if err != nil {
			h.log.Error("trail export failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="audit-trail-`+stamp+`.csv"`)
		return c.Send(data)
	case "json":
		data, err := h.trailService.ExportJSON(c.Context(), filter)
		if err != nil {
			h.log.Error("trail export failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="audit-trail-`+stamp+`.json"`)
		return c.Send(data)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unsupported format: " + format})
	}
}
