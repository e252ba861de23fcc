package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shehrozeikram/erp-audit-engine/internal/auth"
	"github.com/shehrozeikram/erp-audit-engine/internal/config"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
	"github.com/shehrozeikram/erp-audit-engine/internal/rbac"
	"go.uber.org/zap"
)

const (
	CtxActor     = "actor"
	CtxSessionID = "session_id"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxActor, claims.Actor())
		c.Locals(CtxSessionID, claims.SessionID)

		return c.Next()
	}
}

func GetActor(c *fiber.Ctx) models.Actor {
	actor, _ := c.Locals(CtxActor).(models.Actor)
	return actor
}

func GetSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxSessionID).(string)
	return id
}

// RequirePermission gates a route on the RBAC table.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if !rbac.HasPermission(actor.Role, permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}
