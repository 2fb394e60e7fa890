// Package fiber provides Fiber handlers for mounting the webhook receiver
package fiber

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mihaimyh/subpulse/pkg/api"
)

// Webhook returns a Fiber handler that feeds the request body to the
// invocation handler.
func Webhook(h *api.Handler) fiber.Handler {
	if h == nil {
		panic("subpulse/fiber: handler is required")
	}

	return func(c *fiber.Ctx) error {
		resp := h.HandleInvocation(c.UserContext(), c.Body())
		return c.Status(resp.StatusCode).JSON(resp)
	}
}

// Report returns a Fiber handler that triggers the daily report.
func Report(h *api.Handler) fiber.Handler {
	if h == nil {
		panic("subpulse/fiber: handler is required")
	}

	return func(c *fiber.Ctx) error {
		resp := h.HandleScheduled(c.UserContext())
		return c.Status(resp.StatusCode).JSON(resp)
	}
}
