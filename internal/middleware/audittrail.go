package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shehrozeikram/erp-audit-engine/internal/activity"
	"github.com/shehrozeikram/erp-audit-engine/internal/services"
)

// AuditTrailMiddleware observes every authenticated request and hands the
// completed observation to the recorder. Recording happens off the request
// goroutine so a slow trail write never delays the response.
func AuditTrailMiddleware(recorder *services.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if activity.ShouldSkip(c.Path()) {
			return c.Next()
		}

		// Snapshot request data before the handler can consume it. Read
		// requests carry no body worth recording.
		var body map[string]any
		if c.Method() != fiber.MethodGet && len(c.Body()) > 0 {
			_ = json.Unmarshal(c.Body(), &body)
		}
		query := map[string]any{}
		for k, v := range c.Queries() {
			query[k] = v
		}

		obs := services.Observation{
			Actor:      GetActor(c),
			Method:     c.Method(),
			Path:       c.Path(),
			Query:      query,
			Body:       body,
			IPAddress:  c.IP(),
			UserAgent:  c.Get("User-Agent"),
			SessionID:  GetSessionID(c),
			OccurredAt: time.Now(),
		}

		err := c.Next()

		obs.StatusCode = c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				obs.StatusCode = fe.Code
			} else {
				obs.StatusCode = fiber.StatusInternalServerError
			}
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			recorder.Record(ctx, obs)
		}()

		return err
	}
}
